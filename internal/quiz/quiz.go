// Package quiz runs the embedded chapter quiz handed off through the
// session store.
package quiz

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/five82/kavita/internal/catalog"
	"github.com/five82/kavita/internal/completion"
	"github.com/five82/kavita/internal/results"
	"github.com/five82/kavita/internal/session"
)

var (
	// ErrNoLaunch is returned when the session holds no quiz hand-off.
	ErrNoLaunch = errors.New("no quiz launched")
	// ErrIdentityRequired is returned when name or roll is blank.
	ErrIdentityRequired = errors.New("student name and roll are required")
	// ErrFinished is returned when answering after the last question.
	ErrFinished = errors.New("quiz already finished")
)

// Launch is the hand-off written by the state machine.
type Launch struct {
	ClassID string
	Chapter catalog.Chapter
}

// LoadLaunch reads the hand-off keys from store.
func LoadLaunch(store session.Store) (Launch, error) {
	classID, ok := store.Get(session.KeySelectedClass)
	if !ok || classID == "" {
		return Launch{}, fmt.Errorf("%w: class missing", ErrNoLaunch)
	}
	chapterID, ok := store.Get(session.KeyCurrentChapterID)
	if !ok || chapterID == "" {
		return Launch{}, fmt.Errorf("%w: chapter missing", ErrNoLaunch)
	}
	raw, ok := store.Get(session.KeyCurrentChapter)
	if !ok {
		return Launch{}, fmt.Errorf("%w: chapter data missing", ErrNoLaunch)
	}
	var ch catalog.Chapter
	if err := json.Unmarshal([]byte(raw), &ch); err != nil {
		return Launch{}, fmt.Errorf("%w: decode chapter: %v", ErrNoLaunch, err)
	}
	if ch.ID != chapterID {
		return Launch{}, fmt.Errorf("%w: chapter data is for %q, not %q", ErrNoLaunch, ch.ID, chapterID)
	}
	if len(ch.QuizQuestions) == 0 {
		return Launch{}, fmt.Errorf("%w: chapter has no questions", ErrNoLaunch)
	}
	return Launch{ClassID: classID, Chapter: ch}, nil
}

// Answer records one response.
type Answer struct {
	Question int
	Option   int
	Correct  bool
}

// Runner walks a student through the chapter's questions in order.
type Runner struct {
	launch  Launch
	name    string
	roll    string
	started time.Time
	answers []Answer
}

// NewRunner starts a quiz for the identified student.
func NewRunner(launch Launch, name, roll string, now time.Time) (*Runner, error) {
	name = strings.TrimSpace(name)
	roll = strings.TrimSpace(roll)
	if name == "" || roll == "" {
		return nil, ErrIdentityRequired
	}
	return &Runner{launch: launch, name: name, roll: roll, started: now}, nil
}

// Current returns the index and question awaiting an answer.
func (r *Runner) Current() (int, catalog.Question, bool) {
	idx := len(r.answers)
	if idx >= len(r.launch.Chapter.QuizQuestions) {
		return idx, catalog.Question{}, false
	}
	return idx, r.launch.Chapter.QuizQuestions[idx], true
}

// Answer records option for the current question.
func (r *Runner) Answer(option int) (bool, error) {
	idx, q, ok := r.Current()
	if !ok {
		return false, ErrFinished
	}
	if option < 0 || option >= len(q.Options) {
		return false, fmt.Errorf("option %d out of range", option)
	}
	correct := option == q.Correct
	r.answers = append(r.answers, Answer{Question: idx, Option: option, Correct: correct})
	return correct, nil
}

// Done reports whether every question is answered.
func (r *Runner) Done() bool {
	return len(r.answers) >= len(r.launch.Chapter.QuizQuestions)
}

// Score counts correct answers so far.
func (r *Runner) Score() int {
	n := 0
	for _, a := range r.answers {
		if a.Correct {
			n++
		}
	}
	return n
}

// Total returns the number of questions.
func (r *Runner) Total() int {
	return len(r.launch.Chapter.QuizQuestions)
}

// Answers returns the responses so far.
func (r *Runner) Answers() []Answer {
	return append([]Answer(nil), r.answers...)
}

// Launch returns the hand-off the runner was built from.
func (r *Runner) Launch() Launch {
	return r.launch
}

// Result builds the record submitted to the results store.
func (r *Runner) Result(className string, now time.Time) results.Record {
	elapsed := now.Sub(r.started)
	if elapsed < 0 {
		elapsed = 0
	}
	return results.Record{
		StudentName:      r.name,
		StudentRoll:      results.Roll(r.roll),
		ClassID:          r.launch.ClassID,
		ClassName:        className,
		ChapterID:        r.launch.Chapter.ID,
		ChapterName:      r.launch.Chapter.Name,
		Score:            r.Score(),
		TotalQuestions:   r.Total(),
		TotalTimeSeconds: int(elapsed.Round(time.Second) / time.Second),
		Timestamp:        now.UTC(),
	}
}

// Finish stores the student's identity and marks the chapter completed in
// the session store. The reader picks this up when the quiz closes.
func Finish(store session.Store, r *Runner) error {
	if !r.Done() {
		return fmt.Errorf("quiz not finished")
	}
	if err := store.Set(session.KeyStudentName, r.name); err != nil {
		return fmt.Errorf("store student name: %w", err)
	}
	if err := store.Set(session.KeyStudentRoll, r.roll); err != nil {
		return fmt.Errorf("store student roll: %w", err)
	}
	tracker := completion.NewTracker(store)
	if err := tracker.MarkCompleted(r.launch.ClassID, r.launch.Chapter.ID); err != nil {
		return fmt.Errorf("mark completed: %w", err)
	}
	return nil
}
