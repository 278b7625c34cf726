package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Override is a parsed override document. Fields absent from the document
// stay nil so a merge can tell "absent" apart from "empty".
type Override struct {
	keys    []string
	classes map[string]*ClassPatch
}

// ClassPatch is one class entry of an override document.
type ClassPatch struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Chapters *[]ChapterPatch `json:"chapters"`
}

// ChapterPatch carries only the chapter fields present in the document.
type ChapterPatch struct {
	ID            *string     `json:"id"`
	Name          *string     `json:"name"`
	Poem          *string     `json:"poem"`
	QuizQuestions *[]Question `json:"quizQuestions"`
}

// Keys returns the override's class keys in document order.
func (o *Override) Keys() []string {
	if o == nil {
		return nil
	}
	return append([]string(nil), o.keys...)
}

// ParseOverride decodes an override document. Anything other than a JSON
// object is rejected.
func ParseOverride(data []byte) (*Override, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return &Override{classes: map[string]*ClassPatch{}}, nil
	}
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrContentMerge, err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("%w: override is not an object", ErrContentMerge)
	}
	ov := &Override{classes: make(map[string]*ClassPatch)}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrContentMerge, err)
		}
		key, _ := tok.(string)
		var patch *ClassPatch
		if err := dec.Decode(&patch); err != nil {
			return nil, fmt.Errorf("%w: class %q: %v", ErrContentMerge, key, err)
		}
		if _, seen := ov.classes[key]; !seen {
			ov.keys = append(ov.keys, key)
		}
		ov.classes[key] = patch
	}
	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrContentMerge, err)
	}
	return ov, nil
}

// Merge applies the override onto base in place and returns base.
//
// Unknown class keys are added wholesale. Known keys take the incoming
// name and id when they are non-empty, and merge chapters by id: present
// fields replace existing ones, existing chapters keep their position, new
// chapters are appended and chapters without an id are skipped.
func Merge(base *Catalog, ov *Override) *Catalog {
	if base == nil {
		base = New()
	}
	if ov == nil {
		return base
	}
	for _, key := range ov.keys {
		patch := ov.classes[key]
		if patch == nil {
			continue
		}
		existing, ok := base.Class(key)
		if !ok {
			base.Put(key, patch.toClass())
			continue
		}
		if patch.Name != "" {
			existing.Name = patch.Name
		}
		if patch.ID != "" {
			existing.ID = patch.ID
		}
		if patch.Chapters != nil {
			existing.Chapters = mergeChapters(existing.Chapters, *patch.Chapters)
		}
	}
	return base
}

func mergeChapters(existing []Chapter, incoming []ChapterPatch) []Chapter {
	out := make([]Chapter, 0, len(existing)+len(incoming))
	index := make(map[string]int, len(existing))
	for _, ch := range existing {
		if i, dup := index[ch.ID]; dup {
			out[i] = ch
			continue
		}
		index[ch.ID] = len(out)
		out = append(out, ch)
	}
	for _, patch := range incoming {
		if patch.ID == nil || *patch.ID == "" {
			continue
		}
		if i, ok := index[*patch.ID]; ok {
			out[i] = patch.apply(out[i])
			continue
		}
		index[*patch.ID] = len(out)
		out = append(out, patch.apply(Chapter{}))
	}
	return out
}

func (p ChapterPatch) apply(ch Chapter) Chapter {
	if p.ID != nil {
		ch.ID = *p.ID
	}
	if p.Name != nil {
		ch.Name = *p.Name
	}
	if p.Poem != nil {
		ch.Poem = *p.Poem
	}
	if p.QuizQuestions != nil {
		ch.QuizQuestions = append([]Question(nil), (*p.QuizQuestions)...)
	}
	return ch
}

func (p *ClassPatch) toClass() *Class {
	cls := &Class{ID: p.ID, Name: p.Name}
	if p.Chapters != nil {
		for _, ch := range *p.Chapters {
			cls.Chapters = append(cls.Chapters, ch.apply(Chapter{}))
		}
	}
	return cls
}
