package catalog

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

//go:embed data/classes.json
var builtinFS embed.FS

// ErrContentMerge marks a failure to fetch or parse the content override.
// Callers log it and keep the built-in catalog.
var ErrContentMerge = errors.New("content merge failed")

// Question is a single multiple-choice quiz question.
type Question struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
	Correct  int      `json:"correct"`
}

// Chapter is one poem with its optional quiz.
type Chapter struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Poem          string     `json:"poem"`
	QuizQuestions []Question `json:"quizQuestions,omitempty"`
}

// Lines splits the poem into trimmed display lines.
func (c Chapter) Lines() []string {
	if strings.TrimSpace(c.Poem) == "" {
		return nil
	}
	raw := strings.Split(c.Poem, "\n")
	lines := make([]string, len(raw))
	for i, line := range raw {
		lines[i] = strings.TrimSpace(line)
	}
	return lines
}

// Class groups the chapters taught to one school class.
type Class struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Chapters []Chapter `json:"chapters"`
}

// Chapter returns the chapter with the given id.
func (c *Class) Chapter(id string) (Chapter, bool) {
	if c == nil {
		return Chapter{}, false
	}
	for _, ch := range c.Chapters {
		if ch.ID == id {
			return ch, true
		}
	}
	return Chapter{}, false
}

// Catalog maps class keys to classes and remembers document order.
type Catalog struct {
	keys    []string
	classes map[string]*Class
}

// New returns an empty catalog.
func New() *Catalog {
	return &Catalog{classes: make(map[string]*Class)}
}

// Builtin decodes the catalog shipped with the binary.
func Builtin() (*Catalog, error) {
	data, err := builtinFS.ReadFile("data/classes.json")
	if err != nil {
		return nil, fmt.Errorf("read builtin catalog: %w", err)
	}
	cat := New()
	if err := json.Unmarshal(data, cat); err != nil {
		return nil, fmt.Errorf("decode builtin catalog: %w", err)
	}
	return cat, nil
}

// Keys returns class keys in document order.
func (c *Catalog) Keys() []string {
	if c == nil {
		return nil
	}
	out := make([]string, len(c.keys))
	copy(out, c.keys)
	return out
}

// Len reports the number of classes.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.keys)
}

// Class returns the class stored under key.
func (c *Catalog) Class(key string) (*Class, bool) {
	if c == nil {
		return nil, false
	}
	cls, ok := c.classes[key]
	return cls, ok
}

// ByID finds a class by its id rather than its key.
func (c *Catalog) ByID(id string) (*Class, bool) {
	if c == nil || id == "" {
		return nil, false
	}
	for _, key := range c.keys {
		if cls := c.classes[key]; cls.ID == id {
			return cls, true
		}
	}
	return nil, false
}

// First returns the first class in document order.
func (c *Catalog) First() (*Class, bool) {
	if c == nil || len(c.keys) == 0 {
		return nil, false
	}
	return c.classes[c.keys[0]], true
}

// Classes returns the classes in document order.
func (c *Catalog) Classes() []*Class {
	if c == nil {
		return nil
	}
	out := make([]*Class, 0, len(c.keys))
	for _, key := range c.keys {
		out = append(out, c.classes[key])
	}
	return out
}

// Put stores cls under key, appending the key when it is new.
func (c *Catalog) Put(key string, cls *Class) {
	if c.classes == nil {
		c.classes = make(map[string]*Class)
	}
	if _, ok := c.classes[key]; !ok {
		c.keys = append(c.keys, key)
	}
	c.classes[key] = cls
}

// QuestionCount returns the number of quiz questions for a chapter of the
// class with the given id.
func (c *Catalog) QuestionCount(classID, chapterID string) int {
	cls, ok := c.ByID(classID)
	if !ok {
		return 0
	}
	ch, ok := cls.Chapter(chapterID)
	if !ok {
		return 0
	}
	return len(ch.QuizQuestions)
}

// UnmarshalJSON decodes an object of classes keeping key order.
func (c *Catalog) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("catalog must be a JSON object")
	}
	c.keys = nil
	c.classes = make(map[string]*Class)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := tok.(string)
		var cls Class
		if err := dec.Decode(&cls); err != nil {
			return fmt.Errorf("class %q: %w", key, err)
		}
		c.Put(key, &cls)
	}
	_, err = dec.Token()
	return err
}

// MarshalJSON encodes the catalog keeping key order.
func (c *Catalog) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range c.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(c.classes[key])
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
