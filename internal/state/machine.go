package state

import (
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/five82/kavita/internal/catalog"
	"github.com/five82/kavita/internal/completion"
	"github.com/five82/kavita/internal/narration"
	"github.com/five82/kavita/internal/session"
)

// DisplayMode is what the main panel shows. Exactly one variant holds.
type DisplayMode interface {
	displayMode()
}

// EmptyMode shows neither flashcards nor a chapter.
type EmptyMode struct{}

// FlashcardsMode shows the rotating deck of a class.
type FlashcardsMode struct {
	ClassID string
}

// ChapterMode shows an open chapter.
type ChapterMode struct {
	Chapter catalog.Chapter
}

func (EmptyMode) displayMode()      {}
func (FlashcardsMode) displayMode() {}
func (ChapterMode) displayMode()    {}

// ReadingKind tags the narration sub-state of an open chapter.
type ReadingKind int

const (
	ReadingInactive ReadingKind = iota
	ReadingLine
	ReadingWholePoem
)

// Reading is the derived narration sub-state.
type Reading struct {
	Kind    ReadingKind
	Line    int
	Pending bool
}

// Carousel is the flashcard engine as seen by the machine.
type Carousel interface {
	Start(classID string) bool
	Stop()
	Active() bool
	Advance(gen uint64) bool
}

// Narrator is the narration controller as seen by the machine.
type Narrator interface {
	Teardown()
	Snapshot() narration.Snapshot
}

// Row labels for the chapter list.
const (
	LabelDone  = "done"
	LabelSoon  = "soon"
	LabelReady = "ready"
)

// ChapterRow is one entry of the sorted chapter list.
type ChapterRow struct {
	Chapter   catalog.Chapter
	Completed bool
	Questions int
	Label     string
	Open      bool
}

// Options wire a Machine to its collaborators.
type Options struct {
	Catalog  *catalog.Catalog
	Session  session.Store
	Tracker  *completion.Tracker
	Carousel Carousel
	Narrator Narrator
	Logger   *zap.Logger
}

// Machine owns the application state. It is not safe for concurrent use;
// the UI loop is its only caller.
type Machine struct {
	cat      *catalog.Catalog
	store    session.Store
	tracker  *completion.Tracker
	carousel Carousel
	narrator Narrator
	log      *zap.Logger

	selected *catalog.Class
	mode     DisplayMode
	quizOpen bool
}

// New builds a machine in the bootstrapping state. Call Bootstrap before use.
func New(opts Options) *Machine {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	store := opts.Session
	if store == nil {
		store = session.NewMemory()
	}
	tracker := opts.Tracker
	if tracker == nil {
		tracker = completion.NewTracker(store)
	}
	cat := opts.Catalog
	if cat == nil {
		cat = catalog.New()
	}
	return &Machine{
		cat:      cat,
		store:    store,
		tracker:  tracker,
		carousel: opts.Carousel,
		narrator: opts.Narrator,
		log:      logger,
		mode:     EmptyMode{},
	}
}

// Bootstrap restores the selected class from the session, falling back to
// the first catalog class, and starts its flashcards.
func (m *Machine) Bootstrap() error {
	m.tracker.Reload()

	var cls *catalog.Class
	if id, ok := m.store.Get(session.KeySelectedClass); ok {
		cls, _ = m.cat.ByID(id)
	}
	if cls == nil {
		first, ok := m.cat.First()
		if !ok {
			m.mode = EmptyMode{}
			return fmt.Errorf("%w: catalog is empty", ErrInvalidSelection)
		}
		cls = first
	}
	m.selected = cls
	m.enterFlashcards()
	m.log.Info("state bootstrapped", zap.String("class", cls.ID), zap.String("mode", ModeName(m.mode)))
	return nil
}

// SelectClass switches class, persists the choice and returns to
// flashcards. Unknown ids are refused with ErrInvalidSelection.
func (m *Machine) SelectClass(classID string) error {
	cls, ok := m.cat.ByID(classID)
	if !ok {
		return fmt.Errorf("%w: class %q", ErrInvalidSelection, classID)
	}
	m.teardownNarration()
	m.quizOpen = false
	m.selected = cls
	if err := m.store.Set(session.KeySelectedClass, cls.ID); err != nil {
		m.log.Warn("persist selected class failed", zap.Error(err))
	}
	m.enterFlashcards()
	m.log.Debug("class selected", zap.String("class", cls.ID))
	return nil
}

// OpenChapter opens a chapter of the selected class.
func (m *Machine) OpenChapter(chapterID string) error {
	if m.selected == nil {
		return fmt.Errorf("%w: no class selected", ErrInvalidSelection)
	}
	ch, ok := m.selected.Chapter(chapterID)
	if !ok {
		return fmt.Errorf("%w: chapter %q not in %s", ErrInvalidSelection, chapterID, m.selected.ID)
	}
	if m.carousel != nil {
		m.carousel.Stop()
	}
	m.teardownNarration()
	m.quizOpen = false
	m.mode = ChapterMode{Chapter: ch}
	m.log.Debug("chapter opened", zap.String("class", m.selected.ID), zap.String("chapter", ch.ID))
	return nil
}

// CloseChapter returns to flashcards for the selected class.
func (m *Machine) CloseChapter() {
	if _, ok := m.mode.(ChapterMode); !ok {
		return
	}
	m.teardownNarration()
	m.quizOpen = false
	m.enterFlashcards()
}

// CanNavigate reports whether NavigateSibling(offset) would move.
func (m *Machine) CanNavigate(offset int) bool {
	_, target, ok := m.siblingIndex(offset)
	return ok && target >= 0
}

// NavigateSibling opens the chapter offset places away in sorted order.
// Out-of-range targets leave the state unchanged.
func (m *Machine) NavigateSibling(offset int) error {
	if _, ok := m.mode.(ChapterMode); !ok {
		return ErrNotOpen
	}
	chapters, target, ok := m.siblingIndex(offset)
	if !ok || target < 0 {
		return nil
	}
	return m.OpenChapter(chapters[target].ID)
}

func (m *Machine) siblingIndex(offset int) ([]catalog.Chapter, int, bool) {
	open, ok := m.mode.(ChapterMode)
	if !ok {
		return nil, -1, false
	}
	chapters := m.Chapters()
	index := -1
	for i, ch := range chapters {
		if ch.ID == open.Chapter.ID {
			index = i
			break
		}
	}
	if index == -1 {
		return chapters, -1, false
	}
	target := index + offset
	if target < 0 || target >= len(chapters) {
		return chapters, -1, true
	}
	return chapters, target, true
}

// LaunchQuiz hands the open chapter to the quiz runner through the session
// store. It fails without writing anything when no chapter is open or the
// chapter has no questions.
func (m *Machine) LaunchQuiz() error {
	open, ok := m.mode.(ChapterMode)
	if !ok || m.selected == nil {
		return &QuizUnavailableError{Reason: ReasonNoChapter}
	}
	if m.cat.QuestionCount(m.selected.ID, open.Chapter.ID) == 0 {
		return &QuizUnavailableError{Reason: ReasonNoQuestions}
	}
	payload, err := json.Marshal(open.Chapter)
	if err != nil {
		return fmt.Errorf("encode chapter: %w", err)
	}

	writes := []struct{ key, value string }{
		{session.KeySelectedClass, m.selected.ID},
		{session.KeyCurrentChapterID, open.Chapter.ID},
		{session.KeyCurrentChapter, string(payload)},
	}
	for _, w := range writes {
		if err := m.store.Set(w.key, w.value); err != nil {
			return fmt.Errorf("write %s: %w", w.key, err)
		}
	}
	for _, key := range []string{session.KeyStudentName, session.KeyStudentRoll} {
		if err := m.store.Remove(key); err != nil {
			return fmt.Errorf("clear %s: %w", key, err)
		}
	}
	m.quizOpen = true
	m.log.Info("quiz launched", zap.String("class", m.selected.ID), zap.String("chapter", open.Chapter.ID))
	return nil
}

// CloseQuiz restores the chapter view and resynchronises completion from
// the session store.
func (m *Machine) CloseQuiz() {
	if !m.quizOpen {
		return
	}
	m.quizOpen = false
	m.tracker.Reload()
}

// MarkChapterCompleted records a finished chapter.
func (m *Machine) MarkChapterCompleted(classID, chapterID string) error {
	return m.tracker.MarkCompleted(classID, chapterID)
}

// FlashcardTick applies a carousel timer tick. Ticks that arrive after a
// chapter opened stop the carousel instead of advancing it.
func (m *Machine) FlashcardTick(gen uint64) bool {
	if m.carousel == nil {
		return false
	}
	if _, ok := m.mode.(FlashcardsMode); !ok {
		m.carousel.Stop()
		return false
	}
	return m.carousel.Advance(gen)
}

// Catalog returns the catalog the machine renders against.
func (m *Machine) Catalog() *catalog.Catalog {
	return m.cat
}

// SelectedClass returns the selected class, or nil while bootstrapping.
func (m *Machine) SelectedClass() *catalog.Class {
	return m.selected
}

// Mode returns the current display mode.
func (m *Machine) Mode() DisplayMode {
	return m.mode
}

// CurrentChapter returns the open chapter.
func (m *Machine) CurrentChapter() (catalog.Chapter, bool) {
	open, ok := m.mode.(ChapterMode)
	return open.Chapter, ok
}

// QuizOpen reports whether the embedded quiz runner is showing.
func (m *Machine) QuizOpen() bool {
	return m.quizOpen
}

// Chapters returns the selected class's chapters in sorted order.
func (m *Machine) Chapters() []catalog.Chapter {
	if m.selected == nil {
		return nil
	}
	return catalog.SortChapters(m.selected.Chapters)
}

// ChapterRows returns the sorted chapter list with completion badges.
func (m *Machine) ChapterRows() []ChapterRow {
	if m.selected == nil {
		return nil
	}
	open, _ := m.CurrentChapter()
	chapters := m.Chapters()
	rows := make([]ChapterRow, 0, len(chapters))
	for _, ch := range chapters {
		row := ChapterRow{
			Chapter:   ch,
			Completed: m.tracker.IsCompleted(m.selected.ID, ch.ID),
			Questions: len(ch.QuizQuestions),
			Open:      open.ID != "" && open.ID == ch.ID,
		}
		switch {
		case row.Completed:
			row.Label = LabelDone
		case row.Questions == 0:
			row.Label = LabelSoon
		default:
			row.Label = LabelReady
		}
		rows = append(rows, row)
	}
	return rows
}

// Progress reports completion for the selected class.
func (m *Machine) Progress() completion.Status {
	if m.selected == nil {
		return completion.Status{}
	}
	ids := make([]string, len(m.selected.Chapters))
	for i, ch := range m.selected.Chapters {
		ids[i] = ch.ID
	}
	return m.tracker.Status(m.selected.ID, ids)
}

// Reading derives the narration sub-state of the open chapter.
func (m *Machine) Reading() Reading {
	if _, ok := m.mode.(ChapterMode); !ok || m.narrator == nil {
		return Reading{Kind: ReadingInactive, Line: -1}
	}
	snap := m.narrator.Snapshot()
	switch {
	case !snap.Active:
		return Reading{Kind: ReadingInactive, Line: snap.Line}
	case snap.WholePoem:
		return Reading{Kind: ReadingWholePoem, Line: -1, Pending: snap.Pending}
	default:
		return Reading{Kind: ReadingLine, Line: snap.Line, Pending: snap.Pending}
	}
}

func (m *Machine) enterFlashcards() {
	if m.carousel != nil && m.selected != nil && m.carousel.Start(m.selected.ID) {
		m.mode = FlashcardsMode{ClassID: m.selected.ID}
		return
	}
	if m.carousel != nil {
		m.carousel.Stop()
	}
	m.mode = EmptyMode{}
}

func (m *Machine) teardownNarration() {
	if m.narrator != nil {
		m.narrator.Teardown()
	}
}

// ModeName returns a short name for logging.
func ModeName(mode DisplayMode) string {
	switch mode.(type) {
	case FlashcardsMode:
		return "flashcards"
	case ChapterMode:
		return "chapter"
	default:
		return "empty"
	}
}
