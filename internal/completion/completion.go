// Package completion tracks which chapters a student has finished, per class.
// The record lives in the session store under completedChapters as a JSON
// object of class id to chapter ids.
package completion

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/five82/kavita/internal/session"
)

// Status summarises progress through a class.
type Status struct {
	Completed  int
	Total      int
	Percentage int
}

// Tracker is the in-memory view of the completion record.
type Tracker struct {
	store session.Store
	done  map[string][]string
}

// NewTracker builds a tracker over store and loads the current record.
func NewTracker(store session.Store) *Tracker {
	t := &Tracker{store: store}
	t.Reload()
	return t
}

// Reload re-reads the record. A missing or corrupt value resets to empty.
func (t *Tracker) Reload() {
	t.done = make(map[string][]string)
	if t.store == nil {
		return
	}
	raw, ok := t.store.Get(session.KeyCompletedChapters)
	if !ok || raw == "" {
		return
	}
	var parsed map[string][]string
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return
	}
	for classID, chapters := range parsed {
		t.done[classID] = dedupe(chapters)
	}
}

// MarkCompleted records chapterID for classID. Repeated calls are no-ops
// apart from rewriting the same record.
func (t *Tracker) MarkCompleted(classID, chapterID string) error {
	if classID == "" || chapterID == "" {
		return fmt.Errorf("class and chapter id required")
	}
	if !t.IsCompleted(classID, chapterID) {
		t.done[classID] = append(t.done[classID], chapterID)
	}
	return t.persist()
}

// IsCompleted reports whether chapterID is recorded for classID.
func (t *Tracker) IsCompleted(classID, chapterID string) bool {
	for _, id := range t.done[classID] {
		if id == chapterID {
			return true
		}
	}
	return false
}

// Completed returns the recorded chapter ids for classID.
func (t *Tracker) Completed(classID string) []string {
	return append([]string(nil), t.done[classID]...)
}

// Status computes class progress against total chapters.
func (t *Tracker) Status(classID string, chapterIDs []string) Status {
	st := Status{Total: len(chapterIDs)}
	for _, id := range chapterIDs {
		if t.IsCompleted(classID, id) {
			st.Completed++
		}
	}
	if st.Total > 0 {
		st.Percentage = int(math.Round(float64(st.Completed) / float64(st.Total) * 100))
	}
	return st
}

func (t *Tracker) persist() error {
	if t.store == nil {
		return nil
	}
	data, err := json.Marshal(t.done)
	if err != nil {
		return fmt.Errorf("encode completion: %w", err)
	}
	if err := t.store.Set(session.KeyCompletedChapters, string(data)); err != nil {
		return fmt.Errorf("persist completion: %w", err)
	}
	return nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
