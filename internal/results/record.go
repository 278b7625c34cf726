package results

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidRecord is returned when a required field is missing.
var ErrInvalidRecord = errors.New("invalid data")

// Roll is a student roll number. Clients send it as a string or a number.
type Roll string

// UnmarshalJSON accepts a JSON string or number.
func (r *Roll) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		*r = ""
		return nil
	}
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*r = Roll(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(trimmed, &n); err != nil {
		return fmt.Errorf("studentRoll: %w", err)
	}
	*r = Roll(n.String())
	return nil
}

// Record is one quiz attempt.
type Record struct {
	ID               string    `json:"id,omitempty"`
	StudentName      string    `json:"studentName"`
	StudentRoll      Roll      `json:"studentRoll"`
	ClassID          string    `json:"classId,omitempty"`
	ClassName        string    `json:"className,omitempty"`
	ChapterID        string    `json:"chapterId,omitempty"`
	ChapterName      string    `json:"chapterName"`
	Score            int       `json:"score"`
	TotalQuestions   int       `json:"totalQuestions"`
	TotalTimeSeconds int       `json:"totalTimeSeconds"`
	Timestamp        time.Time `json:"timestamp"`
}

// Validate checks the fields the store requires.
func (r Record) Validate() error {
	var missing []string
	if strings.TrimSpace(r.StudentName) == "" {
		missing = append(missing, "studentName")
	}
	if strings.TrimSpace(string(r.StudentRoll)) == "" {
		missing = append(missing, "studentRoll")
	}
	if strings.TrimSpace(r.ChapterName) == "" {
		missing = append(missing, "chapterName")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrInvalidRecord, strings.Join(missing, ", "))
	}
	return nil
}

// Percent returns the score as a percentage of total questions.
func (r Record) Percent() float64 {
	if r.TotalQuestions <= 0 {
		return 0
	}
	return float64(r.Score) / float64(r.TotalQuestions) * 100
}
