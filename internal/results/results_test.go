package results

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestRollAcceptsStringOrNumber(t *testing.T) {
	tests := []struct {
		in   string
		want Roll
	}{
		{`{"studentRoll":"12A"}`, "12A"},
		{`{"studentRoll":42}`, "42"},
		{`{"studentRoll":null}`, ""},
	}
	for _, tt := range tests {
		var rec Record
		if err := json.Unmarshal([]byte(tt.in), &rec); err != nil {
			t.Fatalf("Unmarshal(%s): %v", tt.in, err)
		}
		if rec.StudentRoll != tt.want {
			t.Errorf("Unmarshal(%s) roll = %q, want %q", tt.in, rec.StudentRoll, tt.want)
		}
	}
	var rec Record
	if err := json.Unmarshal([]byte(`{"studentRoll":true}`), &rec); err == nil {
		t.Fatalf("expected error for boolean roll")
	}
}

func TestValidate(t *testing.T) {
	ok := Record{StudentName: "Asha", StudentRoll: "3", ChapterName: "Chapter 1"}
	if err := ok.Validate(); err != nil {
		t.Fatalf("Validate(ok): %v", err)
	}
	for _, rec := range []Record{
		{StudentRoll: "3", ChapterName: "c"},
		{StudentName: "A", ChapterName: "c"},
		{StudentName: "A", StudentRoll: "3", ChapterName: "  "},
	} {
		if err := rec.Validate(); !errors.Is(err, ErrInvalidRecord) {
			t.Errorf("Validate(%+v) = %v, want ErrInvalidRecord", rec, err)
		}
	}
}

func TestPercent(t *testing.T) {
	if got := (Record{Score: 3, TotalQuestions: 4}).Percent(); got != 75 {
		t.Fatalf("Percent() = %v, want 75", got)
	}
	if got := (Record{Score: 3}).Percent(); got != 0 {
		t.Fatalf("Percent() with no questions = %v, want 0", got)
	}
}

func exerciseStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	list, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if list == nil || len(list) != 0 {
		t.Fatalf("initial List = %v, want empty non-nil", list)
	}

	ts := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	first := Record{ID: "a", StudentName: "Asha", StudentRoll: "1", ClassID: "class_6", ChapterID: "ch1",
		ChapterName: "Chapter 1", Score: 2, TotalQuestions: 2, TotalTimeSeconds: 40, Timestamp: ts}
	second := Record{ID: "b", StudentName: "Ravi", StudentRoll: "2", ClassID: "class_6", ChapterID: "ch2",
		ChapterName: "Chapter 2", Score: 0, TotalQuestions: 1, TotalTimeSeconds: 12, Timestamp: ts.Add(time.Minute)}
	for _, rec := range []Record{first, second} {
		if err := store.Append(ctx, rec); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	list, err = store.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 || list[0].ID != "a" || list[1].ID != "b" {
		t.Fatalf("List = %+v", list)
	}
	if !list[0].Timestamp.Equal(ts) || list[0].StudentRoll != "1" || list[0].TotalTimeSeconds != 40 {
		t.Fatalf("first record = %+v", list[0])
	}
}

func TestFileStore(t *testing.T) {
	store, err := Open("file", filepath.Join(t.TempDir(), "data", "results.json"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()
	exerciseStore(t, store)
}

func TestFileStoreCorruptReadsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.json")
	if err := os.WriteFile(path, []byte("{broken"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	store, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	list, err := store.List(context.Background())
	if err != nil || list == nil || len(list) != 0 {
		t.Fatalf("List = %v, %v", list, err)
	}
}

func TestFileStoreAppendKeepsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.json")
	corrupt := []byte(`[{"id":"a","studentName":"Asha","studentRoll":"1","chapterName":"Chapter 1"},]`)
	if err := os.WriteFile(path, corrupt, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	store, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	err = store.Append(context.Background(), Record{ID: "b", StudentName: "Ravi", StudentRoll: "2", ChapterName: "Chapter 2"})
	if !errors.Is(err, ErrCorrupt) {
		t.Fatalf("Append = %v, want ErrCorrupt", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != string(corrupt) {
		t.Fatalf("corrupt file rewritten to %s", data)
	}
}

func TestFileStoreAppendToBlankFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.json")
	if err := os.WriteFile(path, []byte("\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	store, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	if err := store.Append(context.Background(), Record{ID: "x", StudentName: "A", StudentRoll: "1", ChapterName: "c"}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	list, _ := store.List(context.Background())
	if len(list) != 1 || list[0].ID != "x" {
		t.Fatalf("List after append = %v", list)
	}
}

func TestSQLiteStore(t *testing.T) {
	store, err := Open("sqlite3", filepath.Join(t.TempDir(), "results.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()
	exerciseStore(t, store)
}

func TestOpenUnknownDriver(t *testing.T) {
	if _, err := Open("mongo", "x"); err == nil {
		t.Fatalf("expected error for unknown driver")
	}
}
