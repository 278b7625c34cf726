package state

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/five82/kavita/internal/catalog"
	"github.com/five82/kavita/internal/completion"
	"github.com/five82/kavita/internal/flashcards"
	"github.com/five82/kavita/internal/narration"
	"github.com/five82/kavita/internal/session"
)

type recordingStore struct {
	*session.Memory
	writes []string
}

func (s *recordingStore) Set(key, value string) error {
	s.writes = append(s.writes, "set:"+key)
	return s.Memory.Set(key, value)
}

func (s *recordingStore) Remove(key string) error {
	s.writes = append(s.writes, "remove:"+key)
	return s.Memory.Remove(key)
}

type manualScheduler struct {
	mu   sync.Mutex
	live int
	fns  []func()
}

func (s *manualScheduler) Every(d time.Duration, fn func()) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.live++
	s.fns = append(s.fns, fn)
	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			s.live--
			s.mu.Unlock()
		})
	}
}

type stubHandle struct {
	done chan struct{}
	once sync.Once
}

func (h *stubHandle) Done() <-chan struct{} { return h.done }
func (h *stubHandle) Stop()                 { h.once.Do(func() { close(h.done) }) }
func (h *stubHandle) Release()              {}
func (h *stubHandle) Source() string        { return "stub" }

type stubPlayer struct{}

func (stubPlayer) Play([]byte) (narration.Handle, error) {
	return &stubHandle{done: make(chan struct{})}, nil
}

type echoSynth struct{}

func (echoSynth) Synthesize(ctx context.Context, text string) ([]byte, error) {
	return []byte(text), nil
}

type fixture struct {
	m        *Machine
	store    *recordingStore
	sched    *manualScheduler
	carousel *flashcards.Carousel
	narrator *narration.Controller
	ticks    chan uint64
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cat, err := catalog.Builtin()
	if err != nil {
		t.Fatalf("Builtin: %v", err)
	}
	cur, err := flashcards.DefaultCurated()
	if err != nil {
		t.Fatalf("DefaultCurated: %v", err)
	}
	f := &fixture{
		store: &recordingStore{Memory: session.NewMemory()},
		sched: &manualScheduler{},
		ticks: make(chan uint64, 8),
	}
	f.carousel = flashcards.NewCarousel(flashcards.Options{
		Scheduler: f.sched,
		OnTick:    func(gen uint64) { f.ticks <- gen },
	})
	f.carousel.SetDecks(flashcards.BuildDecks(cat, cur))
	f.narrator = narration.NewController(narration.Options{
		Synthesizer: echoSynth{},
		Player:      stubPlayer{},
		Guard:       f.carousel.Active,
	})
	f.m = New(Options{
		Catalog:  cat,
		Session:  f.store,
		Tracker:  completion.NewTracker(f.store),
		Carousel: f.carousel,
		Narrator: f.narrator,
	})
	return f
}

// checkExclusive asserts flashcards and an open chapter never coexist.
func (f *fixture) checkExclusive(t *testing.T) {
	t.Helper()
	_, chapterOpen := f.m.CurrentChapter()
	if chapterOpen && f.carousel.Active() {
		t.Fatalf("carousel active while chapter open")
	}
	if _, ok := f.m.Mode().(FlashcardsMode); ok && !f.carousel.Active() {
		t.Fatalf("FlashcardsMode without active carousel")
	}
	if f.m.QuizOpen() && !chapterOpen {
		t.Fatalf("quiz open without chapter")
	}
	f.sched.mu.Lock()
	live := f.sched.live
	f.sched.mu.Unlock()
	if live > 1 {
		t.Fatalf("%d live timers, want at most 1", live)
	}
}

func TestBootstrapFallsBackToFirstClass(t *testing.T) {
	f := newFixture(t)
	if err := f.m.Bootstrap(); err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	if got := f.m.SelectedClass().ID; got != "class_6" {
		t.Fatalf("selected = %q, want class_6", got)
	}
	if mode, ok := f.m.Mode().(FlashcardsMode); !ok || mode.ClassID != "class_6" {
		t.Fatalf("Mode() = %#v, want flashcards for class_6", f.m.Mode())
	}
	if len(f.store.writes) != 0 {
		t.Fatalf("fallback class was persisted: %v", f.store.writes)
	}
	f.checkExclusive(t)
}

func TestBootstrapRestoresSessionClass(t *testing.T) {
	f := newFixture(t)
	_ = f.store.Memory.Set(session.KeySelectedClass, "class_7")
	if err := f.m.Bootstrap(); err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	if got := f.m.SelectedClass().ID; got != "class_7" {
		t.Fatalf("selected = %q, want class_7", got)
	}
}

func TestBootstrapIgnoresUnknownSessionClass(t *testing.T) {
	f := newFixture(t)
	_ = f.store.Memory.Set(session.KeySelectedClass, "class_42")
	if err := f.m.Bootstrap(); err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	if got := f.m.SelectedClass().ID; got != "class_6" {
		t.Fatalf("selected = %q, want class_6", got)
	}
}

func TestBootstrapEmptyCatalog(t *testing.T) {
	m := New(Options{})
	if err := m.Bootstrap(); !errors.Is(err, ErrInvalidSelection) {
		t.Fatalf("Bootstrap err = %v, want ErrInvalidSelection", err)
	}
	if _, ok := m.Mode().(EmptyMode); !ok {
		t.Fatalf("Mode() = %#v, want EmptyMode", m.Mode())
	}
}

func TestSelectClassEntersFlashcardsAndClearsChapter(t *testing.T) {
	f := newFixture(t)
	_ = f.m.Bootstrap()

	for _, key := range f.m.Catalog().Keys() {
		cls, _ := f.m.Catalog().Class(key)
		if rows := f.m.Chapters(); len(rows) > 0 {
			if err := f.m.OpenChapter(rows[0].ID); err != nil {
				t.Fatalf("OpenChapter: %v", err)
			}
		}
		if err := f.m.SelectClass(cls.ID); err != nil {
			t.Fatalf("SelectClass(%s): %v", cls.ID, err)
		}
		if _, open := f.m.CurrentChapter(); open {
			t.Fatalf("chapter still open after SelectClass(%s)", cls.ID)
		}
		if f.carousel.HasCards(cls.ID) {
			mode, ok := f.m.Mode().(FlashcardsMode)
			if !ok || mode.ClassID != cls.ID {
				t.Fatalf("Mode() = %#v, want flashcards for %s", f.m.Mode(), cls.ID)
			}
			if _, idx, _, _ := f.carousel.Current(); idx != 0 {
				t.Fatalf("carousel index = %d, want 0", idx)
			}
		} else if _, ok := f.m.Mode().(EmptyMode); !ok {
			t.Fatalf("Mode() = %#v, want EmptyMode for %s", f.m.Mode(), cls.ID)
		}
		if v, _ := f.store.Get(session.KeySelectedClass); v != cls.ID {
			t.Fatalf("persisted class = %q, want %q", v, cls.ID)
		}
		f.checkExclusive(t)
	}
}

func TestSelectClassUnknownIsNoop(t *testing.T) {
	f := newFixture(t)
	_ = f.m.Bootstrap()
	_ = f.m.OpenChapter("ch1")
	if err := f.m.SelectClass("class_99"); !errors.Is(err, ErrInvalidSelection) {
		t.Fatalf("err = %v, want ErrInvalidSelection", err)
	}
	if ch, open := f.m.CurrentChapter(); !open || ch.ID != "ch1" {
		t.Fatalf("state changed on invalid selection")
	}
}

func TestOpenChapterStopsCarouselAndNarration(t *testing.T) {
	f := newFixture(t)
	_ = f.m.Bootstrap()
	if !f.carousel.Active() {
		t.Fatalf("carousel not running after Bootstrap")
	}
	if err := f.m.OpenChapter("ch2"); err != nil {
		t.Fatalf("OpenChapter: %v", err)
	}
	if f.carousel.Active() {
		t.Fatalf("carousel still active")
	}
	if err := f.narrator.SpeakLine(context.Background(), 1, "tin roof"); err != nil {
		t.Fatalf("SpeakLine: %v", err)
	}
	if r := f.m.Reading(); r.Kind != ReadingLine || r.Line != 1 {
		t.Fatalf("Reading() = %+v, want line 1", r)
	}
	if err := f.m.OpenChapter("ch3"); err != nil {
		t.Fatalf("OpenChapter: %v", err)
	}
	if f.narrator.Snapshot().Active {
		t.Fatalf("narration survived chapter change")
	}
	if r := f.m.Reading(); r.Kind != ReadingInactive {
		t.Fatalf("Reading() = %+v, want inactive", r)
	}
	f.checkExclusive(t)
}

func TestOpenChapterFromOtherClassRefused(t *testing.T) {
	f := newFixture(t)
	_ = f.m.Bootstrap()
	if err := f.m.OpenChapter("ch10"); !errors.Is(err, ErrInvalidSelection) {
		t.Fatalf("err = %v, want ErrInvalidSelection", err)
	}
	if _, ok := f.m.Mode().(FlashcardsMode); !ok {
		t.Fatalf("Mode() = %#v after refused open", f.m.Mode())
	}
}

func TestCloseChapterReturnsToFlashcards(t *testing.T) {
	f := newFixture(t)
	_ = f.m.Bootstrap()
	_ = f.m.OpenChapter("ch1")
	f.m.CloseChapter()
	if _, ok := f.m.Mode().(FlashcardsMode); !ok {
		t.Fatalf("Mode() = %#v, want flashcards", f.m.Mode())
	}
	f.m.CloseChapter()
	f.checkExclusive(t)
}

func TestChaptersSortedNumerically(t *testing.T) {
	f := newFixture(t)
	_ = f.m.Bootstrap()
	if err := f.m.SelectClass("class_7"); err != nil {
		t.Fatalf("SelectClass: %v", err)
	}
	chapters := f.m.Chapters()
	if chapters[0].Name != "Chapter 2: The Shed" || chapters[len(chapters)-1].Name != "Chapter 10: Trees" {
		t.Fatalf("order = %q ... %q", chapters[0].Name, chapters[len(chapters)-1].Name)
	}
}

func TestNavigateSiblingRoundTrip(t *testing.T) {
	f := newFixture(t)
	_ = f.m.Bootstrap()
	_ = f.m.SelectClass("class_7")
	chapters := f.m.Chapters()
	for i := 1; i < len(chapters)-1; i++ {
		k := chapters[i].ID
		if err := f.m.OpenChapter(k); err != nil {
			t.Fatalf("OpenChapter(%s): %v", k, err)
		}
		if err := f.m.NavigateSibling(1); err != nil {
			t.Fatalf("NavigateSibling(+1): %v", err)
		}
		if ch, _ := f.m.CurrentChapter(); ch.ID != chapters[i+1].ID {
			t.Fatalf("after +1 open = %q, want %q", ch.ID, chapters[i+1].ID)
		}
		if err := f.m.NavigateSibling(-1); err != nil {
			t.Fatalf("NavigateSibling(-1): %v", err)
		}
		if ch, _ := f.m.CurrentChapter(); ch.ID != k {
			t.Fatalf("round trip open = %q, want %q", ch.ID, k)
		}
		f.checkExclusive(t)
	}
}

func TestNavigateBounds(t *testing.T) {
	f := newFixture(t)
	_ = f.m.Bootstrap()

	if f.m.CanNavigate(1) || f.m.CanNavigate(-1) {
		t.Fatalf("navigation enabled in flashcards mode")
	}
	if err := f.m.NavigateSibling(1); !errors.Is(err, ErrNotOpen) {
		t.Fatalf("err = %v, want ErrNotOpen", err)
	}

	_ = f.m.OpenChapter("ch1")
	if f.m.CanNavigate(-1) {
		t.Fatalf("previous enabled on first chapter")
	}
	if !f.m.CanNavigate(1) {
		t.Fatalf("next disabled on first chapter")
	}
	if err := f.m.NavigateSibling(-1); err != nil {
		t.Fatalf("NavigateSibling(-1) at start: %v", err)
	}
	if ch, _ := f.m.CurrentChapter(); ch.ID != "ch1" {
		t.Fatalf("out-of-range navigation moved to %q", ch.ID)
	}
}

func TestLaunchQuizWithoutChapterWritesNothing(t *testing.T) {
	f := newFixture(t)
	_ = f.m.Bootstrap()
	before := len(f.store.writes)

	err := f.m.LaunchQuiz()
	var qe *QuizUnavailableError
	if !errors.As(err, &qe) || qe.Reason != ReasonNoChapter {
		t.Fatalf("err = %v, want QuizUnavailable(no chapter)", err)
	}
	if len(f.store.writes) != before {
		t.Fatalf("storage writes = %v", f.store.writes[before:])
	}
	if f.m.QuizOpen() {
		t.Fatalf("quiz opened")
	}
}

func TestLaunchQuizNoQuestions(t *testing.T) {
	f := newFixture(t)
	_ = f.m.Bootstrap()
	_ = f.m.SelectClass("class_7")
	before := len(f.store.writes)
	if err := f.m.OpenChapter("ch5"); err != nil {
		t.Fatalf("OpenChapter: %v", err)
	}
	err := f.m.LaunchQuiz()
	var qe *QuizUnavailableError
	if !errors.As(err, &qe) || qe.Reason != ReasonNoQuestions {
		t.Fatalf("err = %v, want QuizUnavailable(no questions)", err)
	}
	if len(f.store.writes) != before {
		t.Fatalf("storage writes = %v", f.store.writes[before:])
	}
}

func TestLaunchQuizWritesHandOff(t *testing.T) {
	f := newFixture(t)
	_ = f.m.Bootstrap()
	_ = f.store.Memory.Set(session.KeyStudentName, "Old")
	_ = f.store.Memory.Set(session.KeyStudentRoll, "7")
	_ = f.m.OpenChapter("ch3")

	if err := f.m.LaunchQuiz(); err != nil {
		t.Fatalf("LaunchQuiz: %v", err)
	}
	if !f.m.QuizOpen() {
		t.Fatalf("quiz not open")
	}
	if v, _ := f.store.Get(session.KeyCurrentChapterID); v != "ch3" {
		t.Fatalf("currentChapterId = %q", v)
	}
	raw, _ := f.store.Get(session.KeyCurrentChapter)
	var ch catalog.Chapter
	if err := json.Unmarshal([]byte(raw), &ch); err != nil || ch.ID != "ch3" || len(ch.QuizQuestions) != 2 {
		t.Fatalf("currentChapterData = %s (%v)", raw, err)
	}
	if _, ok := f.store.Get(session.KeyStudentName); ok {
		t.Fatalf("studentName not cleared")
	}
	if _, ok := f.store.Get(session.KeyStudentRoll); ok {
		t.Fatalf("studentRoll not cleared")
	}
	f.checkExclusive(t)
}

func TestCloseQuizResyncsCompletion(t *testing.T) {
	f := newFixture(t)
	_ = f.m.Bootstrap()
	_ = f.m.OpenChapter("ch2")
	if err := f.m.LaunchQuiz(); err != nil {
		t.Fatalf("LaunchQuiz: %v", err)
	}

	runner := completion.NewTracker(f.store)
	if err := runner.MarkCompleted("class_6", "ch2"); err != nil {
		t.Fatalf("MarkCompleted: %v", err)
	}
	for _, row := range f.m.ChapterRows() {
		if row.Chapter.ID == "ch2" && row.Completed {
			t.Fatalf("completion visible before CloseQuiz")
		}
	}

	f.m.CloseQuiz()
	if f.m.QuizOpen() {
		t.Fatalf("quiz still open")
	}
	if ch, open := f.m.CurrentChapter(); !open || ch.ID != "ch2" {
		t.Fatalf("chapter view not restored")
	}
	var found bool
	for _, row := range f.m.ChapterRows() {
		if row.Chapter.ID == "ch2" {
			found = true
			if !row.Completed || row.Label != LabelDone || !row.Open {
				t.Fatalf("row = %+v, want completed open row", row)
			}
		}
	}
	if !found {
		t.Fatalf("ch2 row missing")
	}
	if p := f.m.Progress(); p.Completed != 1 || p.Total != 3 || p.Percentage != 33 {
		t.Fatalf("Progress() = %+v", p)
	}
}

func TestChapterRowLabels(t *testing.T) {
	f := newFixture(t)
	_ = f.m.Bootstrap()
	_ = f.m.SelectClass("class_7")
	_ = f.m.MarkChapterCompleted("class_7", "ch10")
	labels := map[string]string{}
	for _, row := range f.m.ChapterRows() {
		labels[row.Chapter.ID] = row.Label
	}
	want := map[string]string{"ch2": LabelReady, "ch5": LabelSoon, "ch10": LabelDone}
	for id, label := range want {
		if labels[id] != label {
			t.Fatalf("label[%s] = %q, want %q", id, labels[id], label)
		}
	}
}

func TestMarkChapterCompletedTwice(t *testing.T) {
	f := newFixture(t)
	_ = f.m.Bootstrap()
	_ = f.m.MarkChapterCompleted("class_6", "ch3")
	_ = f.m.MarkChapterCompleted("class_6", "ch3")
	raw, _ := f.store.Get(session.KeyCompletedChapters)
	var parsed map[string][]string
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got := parsed["class_6"]; len(got) != 1 || got[0] != "ch3" {
		t.Fatalf("class_6 = %v, want [ch3]", got)
	}
}

func TestFlashcardTickAfterChapterOpenStopsCarousel(t *testing.T) {
	f := newFixture(t)
	_ = f.m.Bootstrap()
	gen := f.carousel.Generation()

	if !f.m.FlashcardTick(gen) {
		t.Fatalf("tick did not advance in flashcards mode")
	}
	_ = f.m.OpenChapter("ch1")
	if f.m.FlashcardTick(gen) {
		t.Fatalf("tick advanced after chapter opened")
	}
	if f.carousel.Active() {
		t.Fatalf("carousel active after late tick")
	}
	if _, ok := f.m.Mode().(ChapterMode); !ok {
		t.Fatalf("late tick changed mode to %#v", f.m.Mode())
	}
}

func TestStaleTickAfterClassSwitchIgnored(t *testing.T) {
	f := newFixture(t)
	_ = f.m.Bootstrap()
	old := f.carousel.Generation()
	_ = f.m.SelectClass("class_7")
	if f.m.FlashcardTick(old) {
		t.Fatalf("stale tick advanced new carousel")
	}
	if _, idx, _, _ := f.carousel.Current(); idx != 0 {
		t.Fatalf("index = %d, want 0", idx)
	}
}

func TestWholePoemGuardedInFlashcards(t *testing.T) {
	f := newFixture(t)
	_ = f.m.Bootstrap()
	if err := f.narrator.ToggleWholePoem(context.Background(), "poem"); err != nil {
		t.Fatalf("ToggleWholePoem: %v", err)
	}
	if f.narrator.Snapshot().Active {
		t.Fatalf("whole poem started while flashcards active")
	}
	_ = f.m.OpenChapter("ch1")
	ch, _ := f.m.CurrentChapter()
	if err := f.narrator.ToggleWholePoem(context.Background(), ch.Poem); err != nil {
		t.Fatalf("ToggleWholePoem: %v", err)
	}
	if r := f.m.Reading(); r.Kind != ReadingWholePoem {
		t.Fatalf("Reading() = %+v, want whole poem", r)
	}
	f.m.CloseChapter()
	if f.narrator.Snapshot().Active {
		t.Fatalf("narration survived CloseChapter")
	}
}

func TestModeName(t *testing.T) {
	tests := []struct {
		mode DisplayMode
		want string
	}{
		{EmptyMode{}, "empty"},
		{FlashcardsMode{ClassID: "c"}, "flashcards"},
		{ChapterMode{}, "chapter"},
	}
	for _, tt := range tests {
		if got := ModeName(tt.mode); got != tt.want {
			t.Errorf("ModeName(%T) = %q, want %q", tt.mode, got, tt.want)
		}
	}
}
