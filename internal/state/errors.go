package state

import "errors"

// ErrInvalidSelection is returned when a class or chapter id is unknown.
// Callers treat it as a silent no-op.
var ErrInvalidSelection = errors.New("invalid selection")

// ErrNotOpen is returned by navigation when no chapter is open.
var ErrNotOpen = errors.New("no chapter open")

const (
	ReasonNoChapter   = "no chapter selected"
	ReasonNoQuestions = "no questions found"
)

// QuizUnavailableError explains why a quiz cannot start.
type QuizUnavailableError struct {
	Reason string
}

func (e *QuizUnavailableError) Error() string {
	return "quiz unavailable: " + e.Reason
}
