package catalog

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
)

func TestBuiltinKeepsDocumentOrder(t *testing.T) {
	cat, err := Builtin()
	if err != nil {
		t.Fatalf("Builtin: %v", err)
	}
	want := []string{"class_6", "class_7", "class_8"}
	got := cat.Keys()
	if len(got) != len(want) {
		t.Fatalf("Keys() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Keys()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	first, ok := cat.First()
	if !ok || first.ID != "class_6" {
		t.Fatalf("First() = %+v, %v", first, ok)
	}
}

func TestByIDAndQuestionCount(t *testing.T) {
	cat, err := Builtin()
	if err != nil {
		t.Fatalf("Builtin: %v", err)
	}
	if _, ok := cat.ByID("class_99"); ok {
		t.Fatalf("ByID(class_99) found a class")
	}
	if got := cat.QuestionCount("class_6", "ch3"); got != 2 {
		t.Fatalf("QuestionCount(class_6, ch3) = %d, want 2", got)
	}
	if got := cat.QuestionCount("class_7", "ch5"); got != 0 {
		t.Fatalf("QuestionCount(class_7, ch5) = %d, want 0", got)
	}
	if got := cat.QuestionCount("class_7", "missing"); got != 0 {
		t.Fatalf("QuestionCount(class_7, missing) = %d, want 0", got)
	}
}

func TestChapterLinesTrimmed(t *testing.T) {
	ch := Chapter{Poem: "  one  \ntwo\n\tthree"}
	lines := ch.Lines()
	want := []string{"one", "two", "three"}
	if len(lines) != len(want) {
		t.Fatalf("Lines() = %q, want %q", lines, want)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Fatalf("Lines()[%d] = %q, want %q", i, lines[i], want[i])
		}
	}
	if got := (Chapter{Poem: "   "}).Lines(); got != nil {
		t.Fatalf("blank poem Lines() = %q, want nil", got)
	}
}

func TestMarshalRoundTripKeepsOrder(t *testing.T) {
	cat := New()
	cat.Put("zeta", &Class{ID: "zeta", Name: "Z"})
	cat.Put("alpha", &Class{ID: "alpha", Name: "A"})
	data, err := json.Marshal(cat)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	back := New()
	if err := json.Unmarshal(data, back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	keys := back.Keys()
	if len(keys) != 2 || keys[0] != "zeta" || keys[1] != "alpha" {
		t.Fatalf("Keys() = %v, want [zeta alpha]", keys)
	}
}

func TestUnmarshalRejectsArray(t *testing.T) {
	if err := json.Unmarshal([]byte(`[1,2]`), New()); err == nil {
		t.Fatalf("expected error decoding array catalog")
	}
}

func TestSortChaptersNumeric(t *testing.T) {
	cat, err := Builtin()
	if err != nil {
		t.Fatalf("Builtin: %v", err)
	}
	cls, _ := cat.ByID("class_7")
	sorted := SortChapters(cls.Chapters)
	want := []string{"ch2", "ch5", "ch10"}
	for i, id := range want {
		if sorted[i].ID != id {
			t.Fatalf("sorted[%d] = %q, want %q", i, sorted[i].ID, id)
		}
	}
	if cls.Chapters[0].ID != "ch10" {
		t.Fatalf("SortChapters mutated its input")
	}
}

func TestSortChaptersStableTies(t *testing.T) {
	in := []Chapter{
		{ID: "a", Name: "Preface"},
		{ID: "b", Name: "Chapter 1"},
		{ID: "c", Name: "Appendix"},
		{ID: "d", Name: "Part 1 again"},
	}
	got := SortChapters(in)
	want := []string{"a", "c", "b", "d"}
	for i, id := range want {
		if got[i].ID != id {
			t.Fatalf("got[%d] = %q, want %q", i, got[i].ID, id)
		}
	}
}

func TestSortChaptersOversizedNumberLast(t *testing.T) {
	in := []Chapter{
		{ID: "big", Name: "Chapter 99999999999999999999999"},
		{ID: "two", Name: "Chapter 2"},
		{ID: "none", Name: "Preface"},
	}
	got := SortChapters(in)
	want := []string{"none", "two", "big"}
	for i, ch := range got {
		if ch.ID != want[i] {
			t.Fatalf("order = %v, want %v", ids(got), want)
		}
	}
}

func TestChapterNumber(t *testing.T) {
	tests := []struct {
		name string
		want int
	}{
		{"Chapter 2: The Shed", 2},
		{"Chapter 10: Trees", 10},
		{"Unit 3 Chapter 7", 3},
		{"No digits", 0},
		{"", 0},
		{"Chapter 99999999999999999999999", math.MaxInt},
	}
	for _, tt := range tests {
		if got := ChapterNumber(tt.name); got != tt.want {
			t.Errorf("ChapterNumber(%q) = %d, want %d", tt.name, got, tt.want)
		}
	}
}

func TestMergeRetainsUnspecifiedFields(t *testing.T) {
	cat, err := Builtin()
	if err != nil {
		t.Fatalf("Builtin: %v", err)
	}
	before, _ := cat.Class("class_8")
	origPoem := before.Chapters[0].Poem

	ov, err := ParseOverride([]byte(`{"class_8":{"chapters":[{"id":"ch1","name":"Chapter 1: Renamed"}]}}`))
	if err != nil {
		t.Fatalf("ParseOverride: %v", err)
	}
	Merge(cat, ov)

	after, _ := cat.Class("class_8")
	if after.Name != "Class 8" || after.ID != "class_8" {
		t.Fatalf("class identity changed: %+v", after)
	}
	ch := after.Chapters[0]
	if ch.Name != "Chapter 1: Renamed" {
		t.Fatalf("Name = %q, want renamed", ch.Name)
	}
	if ch.Poem != origPoem {
		t.Fatalf("Poem = %q, want retained %q", ch.Poem, origPoem)
	}
	if len(ch.QuizQuestions) != 1 {
		t.Fatalf("QuizQuestions len = %d, want 1", len(ch.QuizQuestions))
	}
	if len(after.Chapters) != 2 {
		t.Fatalf("chapters = %d, want 2", len(after.Chapters))
	}
}

func TestMergeAddsAndAppends(t *testing.T) {
	cat, err := Builtin()
	if err != nil {
		t.Fatalf("Builtin: %v", err)
	}
	doc := `{
		"class_9": {"id": "class_9", "name": "Class 9", "chapters": [{"id": "x1", "name": "Chapter 1"}]},
		"class_6": {"name": "Sixth", "id": "", "chapters": [
			{"id": "ch9", "name": "Chapter 9: New"},
			{"name": "no id"},
			{"id": "ch2", "poem": ""}
		]}
	}`
	ov, err := ParseOverride([]byte(doc))
	if err != nil {
		t.Fatalf("ParseOverride: %v", err)
	}
	Merge(cat, ov)

	keys := cat.Keys()
	if keys[len(keys)-1] != "class_9" {
		t.Fatalf("new class not appended: %v", keys)
	}
	six, _ := cat.Class("class_6")
	if six.Name != "Sixth" || six.ID != "class_6" {
		t.Fatalf("class_6 = %q/%q", six.ID, six.Name)
	}
	ids := make([]string, len(six.Chapters))
	for i, ch := range six.Chapters {
		ids[i] = ch.ID
	}
	want := []string{"ch1", "ch2", "ch3", "ch9"}
	if len(ids) != len(want) {
		t.Fatalf("chapter ids = %v, want %v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("chapter ids = %v, want %v", ids, want)
		}
	}
	if six.Chapters[1].Poem != "" {
		t.Fatalf("present empty poem did not override: %q", six.Chapters[1].Poem)
	}
	if six.Chapters[1].Name != "Chapter 2: Rain on the Roof" {
		t.Fatalf("absent name not retained: %q", six.Chapters[1].Name)
	}
}

func TestMergeWithoutChaptersLeavesListAlone(t *testing.T) {
	cat, _ := Builtin()
	ov, err := ParseOverride([]byte(`{"class_7":{"name":"Seventh"}}`))
	if err != nil {
		t.Fatalf("ParseOverride: %v", err)
	}
	Merge(cat, ov)
	seven, _ := cat.Class("class_7")
	if len(seven.Chapters) != 3 {
		t.Fatalf("chapters = %d, want 3", len(seven.Chapters))
	}
}

func TestParseOverrideErrors(t *testing.T) {
	for _, doc := range []string{`[]`, `"text"`, `{"a":`, `42`} {
		_, err := ParseOverride([]byte(doc))
		if !errors.Is(err, ErrContentMerge) {
			t.Errorf("ParseOverride(%s) err = %v, want ErrContentMerge", doc, err)
		}
	}
	ov, err := ParseOverride(nil)
	if err != nil || len(ov.Keys()) != 0 {
		t.Fatalf("ParseOverride(nil) = %v, %v", ov, err)
	}
}

func TestMergeSkipsNullClass(t *testing.T) {
	cat, _ := Builtin()
	ov, err := ParseOverride([]byte(`{"class_6": null}`))
	if err != nil {
		t.Fatalf("ParseOverride: %v", err)
	}
	Merge(cat, ov)
	if cat.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", cat.Len())
	}
}

func ids(chapters []Chapter) []string {
	out := make([]string, len(chapters))
	for i, ch := range chapters {
		out[i] = ch.ID
	}
	return out
}
