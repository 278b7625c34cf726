package logtail

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"
)

// Read returns at most maxLines from the end of the file at path. A
// non-positive maxLines returns every line. A missing file yields no lines.
func Read(path string, maxLines int) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	if maxLines <= 0 {
		var lines []string
		for scanner.Scan() {
			lines = append(lines, scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read log: %w", err)
		}
		return lines, nil
	}

	ring := make([]string, maxLines)
	count := 0
	idx := 0
	for scanner.Scan() {
		ring[idx] = scanner.Text()
		idx = (idx + 1) % maxLines
		if count < maxLines {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}

	lines := make([]string, count)
	if count == maxLines {
		for i := 0; i < count; i++ {
			lines[i] = ring[(idx+i)%maxLines]
		}
	} else {
		copy(lines, ring[:count])
	}
	return lines, nil
}

// Entry is one decoded zap JSON line.
type Entry struct {
	Time    time.Time
	Level   string
	Logger  string
	Caller  string
	Message string
	Fields  map[string]any
}

var reservedKeys = map[string]struct{}{
	"time":       {},
	"level":      {},
	"logger":     {},
	"caller":     {},
	"msg":        {},
	"stacktrace": {},
}

// Parse decodes a JSON log line. ok is false for anything that is not a
// JSON object, so plain-text lines can be shown verbatim.
func Parse(line string) (Entry, bool) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "{") {
		return Entry{}, false
	}
	var raw map[string]any
	if err := json.Unmarshal([]byte(trimmed), &raw); err != nil {
		return Entry{}, false
	}
	entry := Entry{
		Level:   strings.ToUpper(stringField(raw, "level")),
		Logger:  stringField(raw, "logger"),
		Caller:  stringField(raw, "caller"),
		Message: stringField(raw, "msg"),
	}
	if ts := stringField(raw, "time"); ts != "" {
		for _, layout := range []string{"2006-01-02T15:04:05.000Z0700", time.RFC3339Nano} {
			if parsed, err := time.Parse(layout, ts); err == nil {
				entry.Time = parsed
				break
			}
		}
	}
	for key, value := range raw {
		if _, skip := reservedKeys[key]; skip {
			continue
		}
		if entry.Fields == nil {
			entry.Fields = make(map[string]any)
		}
		entry.Fields[key] = value
	}
	if entry.Level == "" {
		entry.Level = "INFO"
	}
	return entry, true
}

func stringField(raw map[string]any, key string) string {
	if v, ok := raw[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

// Format renders an entry as a header line followed by indented details.
func Format(entry Entry) string {
	parts := make([]string, 0, 3)
	if !entry.Time.IsZero() {
		parts = append(parts, entry.Time.In(time.Local).Format("2006-01-02 15:04:05"))
	}
	parts = append(parts, entry.Level)
	if entry.Logger != "" {
		parts = append(parts, "["+entry.Logger+"]")
	}
	header := strings.Join(parts, " ")
	if entry.Message != "" {
		header += " – " + entry.Message
	}
	if len(entry.Fields) == 0 {
		return header
	}

	keys := make([]string, 0, len(entry.Fields))
	for k := range entry.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(header)
	for _, k := range keys {
		b.WriteString("\n    - ")
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(fmt.Sprint(entry.Fields[k]))
	}
	return b.String()
}

// FormatLines formats each JSON line, passing other lines through. Multi-line
// entries are split so the result maps one-to-one onto display rows.
func FormatLines(lines []string) []string {
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		entry, ok := Parse(line)
		if !ok {
			out = append(out, line)
			continue
		}
		out = append(out, strings.Split(Format(entry), "\n")...)
	}
	return out
}

// LevelOf returns the level token of a formatted header line, or "" for
// detail rows and plain text.
func LevelOf(formatted string) string {
	if formatted == "" || formatted[0] == ' ' || formatted[0] == '\t' {
		return ""
	}
	for _, field := range strings.Fields(formatted) {
		switch field {
		case "DEBUG", "INFO", "WARN", "ERROR", "DPANIC", "PANIC", "FATAL":
			return field
		}
		if strings.HasPrefix(field, "[") || field == "–" {
			return ""
		}
	}
	return ""
}
