package dashboard

import (
	"strings"

	"github.com/five82/kavita/internal/catalog"
	"github.com/five82/kavita/internal/results"
)

const studentSep = "|||"

// StudentKey identifies a student across records.
func StudentKey(r results.Record) string {
	return r.StudentName + studentSep + string(r.StudentRoll)
}

// SplitStudentKey reverses StudentKey.
func SplitStudentKey(key string) (name, roll string) {
	name, roll, _ = strings.Cut(key, studentSep)
	return name, roll
}

// Filter narrows records. Empty fields match everything.
type Filter struct {
	ClassID   string
	Student   string
	ChapterID string
}

// IsZero reports whether the filter matches every record.
func (f Filter) IsZero() bool {
	return f.ClassID == "" && f.Student == "" && f.ChapterID == ""
}

// Apply returns the matching records in their original order.
func (f Filter) Apply(records []results.Record) []results.Record {
	out := make([]results.Record, 0, len(records))
	for _, r := range records {
		if f.ClassID != "" && r.ClassID != f.ClassID {
			continue
		}
		if f.ChapterID != "" && r.ChapterID != f.ChapterID {
			continue
		}
		if f.Student != "" && StudentKey(r) != f.Student {
			continue
		}
		out = append(out, r)
	}
	return out
}

// FilterOptions lists the distinct values each filter can take.
type FilterOptions struct {
	Classes  []string
	Students []string
	Chapters []string
}

// Options collects distinct class ids, student keys and chapter ids in
// first-seen order.
func Options(records []results.Record) FilterOptions {
	var opts FilterOptions
	seenClass := map[string]bool{}
	seenStudent := map[string]bool{}
	seenChapter := map[string]bool{}
	for _, r := range records {
		if r.ClassID != "" && !seenClass[r.ClassID] {
			seenClass[r.ClassID] = true
			opts.Classes = append(opts.Classes, r.ClassID)
		}
		if key := StudentKey(r); !seenStudent[key] {
			seenStudent[key] = true
			opts.Students = append(opts.Students, key)
		}
		if r.ChapterID != "" && !seenChapter[r.ChapterID] {
			seenChapter[r.ChapterID] = true
			opts.Chapters = append(opts.Chapters, r.ChapterID)
		}
	}
	return opts
}

// ChapterStat is the average percentage for one chapter.
type ChapterStat struct {
	ChapterID string
	Name      string
	Average   float64
	Count     int
}

// Summary holds the headline numbers for a set of records.
type Summary struct {
	Count     int
	Average   float64
	Strongest *ChapterStat
	Weakest   *ChapterStat
}

// Summarize computes the count, mean percentage and the best and worst
// chapters. Ties keep the chapter seen first.
func Summarize(records []results.Record, names Names) Summary {
	s := Summary{Count: len(records)}
	if len(records) == 0 {
		return s
	}
	var sum float64
	for _, r := range records {
		sum += r.Percent()
	}
	s.Average = sum / float64(len(records))

	for _, stat := range ChapterAverages(records, names) {
		stat := stat
		if s.Strongest == nil || stat.Average > s.Strongest.Average {
			s.Strongest = &stat
		}
		if s.Weakest == nil || stat.Average < s.Weakest.Average {
			s.Weakest = &stat
		}
	}
	return s
}

// ChapterAverages groups records by chapter id in first-seen order.
// Records without a chapter id are ignored.
func ChapterAverages(records []results.Record, names Names) []ChapterStat {
	index := map[string]int{}
	var stats []ChapterStat
	sums := []float64{}
	for _, r := range records {
		if r.ChapterID == "" {
			continue
		}
		i, ok := index[r.ChapterID]
		if !ok {
			i = len(stats)
			index[r.ChapterID] = i
			stats = append(stats, ChapterStat{
				ChapterID: r.ChapterID,
				Name:      names.Chapter(r.ClassID, r.ChapterID, r.ChapterName),
			})
			sums = append(sums, 0)
		}
		sums[i] += r.Percent()
		stats[i].Count++
	}
	for i := range stats {
		stats[i].Average = sums[i] / float64(stats[i].Count)
	}
	return stats
}

// Names resolves display names, preferring what the record carries and
// falling back to the catalog and then the raw id.
type Names struct {
	Catalog *catalog.Catalog
}

// Class returns the display name for a class id or key.
func (n Names) Class(classID, fallback string) string {
	if cls, ok := n.lookup(classID); ok {
		return cls.Name
	}
	if fallback != "" {
		return fallback
	}
	return classID
}

// Chapter returns the display name for a chapter.
func (n Names) Chapter(classID, chapterID, recorded string) string {
	if recorded != "" {
		return recorded
	}
	if cls, ok := n.lookup(classID); ok {
		if ch, ok := cls.Chapter(chapterID); ok {
			return ch.Name
		}
	}
	return chapterID
}

func (n Names) lookup(classID string) (*catalog.Class, bool) {
	if n.Catalog == nil || classID == "" {
		return nil, false
	}
	if cls, ok := n.Catalog.ByID(classID); ok {
		return cls, true
	}
	return n.Catalog.Class(classID)
}
