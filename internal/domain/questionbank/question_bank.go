package questionbank

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	ErrDuplicateQuestion = errors.New("duplicate question id")
	ErrInvalidQuestion   = errors.New("invalid question")
)

// QuestionNo is the display number of a question. Datasets write it either
// as a JSON number or as a string, so it is kept verbatim and compared
// numerically through Value.
type QuestionNo string

func (n *QuestionNo) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*n = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*n = QuestionNo(strings.TrimSpace(s))
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(b, &num); err != nil {
		return fmt.Errorf("question no: %w", err)
	}
	*n = QuestionNo(num.String())
	return nil
}

func (n QuestionNo) MarshalJSON() ([]byte, error) {
	// Numeric text such as "01" or "+1" is not a JSON number literal, so
	// numbers are written in canonical form.
	if f, ok := n.Value(); ok {
		return []byte(strconv.FormatFloat(f, 'f', -1, 64)), nil
	}
	return json.Marshal(string(n))
}

// Value reports the numeric value of n. Empty, non-numeric and infinite
// numbers report false.
func (n QuestionNo) Value() (float64, bool) {
	s := strings.TrimSpace(string(n))
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Less orders question numbers numerically; non-numeric values sort last.
func (n QuestionNo) Less(other QuestionNo) bool {
	a, aok := n.Value()
	b, bok := other.Value()
	switch {
	case aok && bok:
		return a < b
	case aok:
		return true
	default:
		return false
	}
}

type Choice struct {
	ID   string `json:"id"`
	Text string `json:"text,omitempty"`
}

// Question is immutable once loaded; sessions only hold read-only copies.
type Question struct {
	ID      string     `json:"id"`
	No      QuestionNo `json:"no"`
	Text    string     `json:"text,omitempty"`
	Image   string     `json:"image,omitempty"`
	Choices []Choice   `json:"choices"`
	Answer  string     `json:"answer"`
}

// Validate checks that the answer names exactly one choice.
func (q Question) Validate() error {
	if q.ID == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidQuestion)
	}
	if len(q.Choices) == 0 {
		return fmt.Errorf("%w: %s has no choices", ErrInvalidQuestion, q.ID)
	}
	matches := 0
	seen := make(map[string]bool, len(q.Choices))
	for _, c := range q.Choices {
		if seen[c.ID] {
			return fmt.Errorf("%w: %s has duplicate choice %q", ErrInvalidQuestion, q.ID, c.ID)
		}
		seen[c.ID] = true
		if c.ID == q.Answer {
			matches++
		}
	}
	if matches != 1 {
		return fmt.Errorf("%w: %s answer %q matches no choice", ErrInvalidQuestion, q.ID, q.Answer)
	}
	return nil
}

// AnswerPosition returns the 1-based position of the answer within choices,
// or 0 when it is not present.
func (q Question) AnswerPosition(choices []Choice) int {
	for i, c := range choices {
		if c.ID == q.Answer {
			return i + 1
		}
	}
	return 0
}

// QuestionBank is one dataset: a subject's question set for a year and term.
type QuestionBank struct {
	ID        string
	Label     string
	Questions []Question
}

func New(id, label string) *QuestionBank {
	return &QuestionBank{
		ID:        id,
		Label:     label,
		Questions: []Question{},
	}
}

func (qb *QuestionBank) AddQuestion(q Question) error {
	if err := q.Validate(); err != nil {
		return err
	}
	if _, exists := qb.Lookup(q.ID); exists {
		return fmt.Errorf("%w: %s", ErrDuplicateQuestion, q.ID)
	}
	qb.Questions = append(qb.Questions, q)
	return nil
}

func (qb *QuestionBank) Lookup(questionID string) (Question, bool) {
	for _, q := range qb.Questions {
		if q.ID == questionID {
			return q, true
		}
	}
	return Question{}, false
}

// Validate checks every question and the uniqueness of question ids.
func (qb *QuestionBank) Validate() error {
	ids := make(map[string]bool, len(qb.Questions))
	for _, q := range qb.Questions {
		if err := q.Validate(); err != nil {
			return err
		}
		if ids[q.ID] {
			return fmt.Errorf("%w: %s", ErrDuplicateQuestion, q.ID)
		}
		ids[q.ID] = true
	}
	return nil
}
