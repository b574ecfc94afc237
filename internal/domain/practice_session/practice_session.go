package practicesession

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/denkain-drill/backend/internal/domain/questionbank"
	"github.com/denkain-drill/backend/internal/id"
)

// StatsStore is the persistence the session reads and writes statistics
// through. Load never fails: missing or unreadable data yields empty Stats.
type StatsStore interface {
	Load(ctx context.Context) questionbank.Stats
	Save(ctx context.Context, stats questionbank.Stats) error
}

type State int

const (
	// StateEmpty means the mode selected no questions. It is terminal and
	// not an error.
	StateEmpty State = iota
	StateUnanswered
	StateChecked
	StateComplete
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateUnanswered:
		return "unanswered"
	case StateChecked:
		return "checked"
	case StateComplete:
		return "complete"
	default:
		return "unknown"
	}
}

// Outcome is the result of checking one answer.
type Outcome struct {
	QuestionID       string
	SelectedChoiceID string
	Correct          bool
	// CorrectPosition is the 1-based display position of the right choice
	// in the shuffle the learner saw.
	CorrectPosition int
	Streak          int
	Record          questionbank.StatRecord
}

// PracticeSession is the main domain entity for a practice session: it walks
// an order fixed at construction, one question at a time.
type PracticeSession struct {
	ID     string
	BankID string
	Mode   Mode

	questions map[string]questionbank.Question
	order     []string
	index     int

	choices  []questionbank.Choice
	selected string
	state    State
	outcome  *Outcome

	stats   StatsStore
	shuffle ShuffleFunc
	now     func() time.Time
}

type Option func(*PracticeSession)

// WithShuffle replaces rand.Shuffle, for both the order and the choices.
func WithShuffle(shuffle ShuffleFunc) Option {
	return func(s *PracticeSession) {
		s.shuffle = shuffle
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *PracticeSession) {
		s.now = now
	}
}

// New starts a session over the bank's questions using a fresh statistics
// snapshot, and presents the first question.
func New(ctx context.Context, bank *questionbank.QuestionBank, mode Mode, stats StatsStore, opts ...Option) *PracticeSession {
	s := &PracticeSession{
		ID:        id.GenerateID(),
		BankID:    bank.ID,
		Mode:      mode,
		questions: make(map[string]questionbank.Question, len(bank.Questions)),
		stats:     stats,
		shuffle:   rand.Shuffle,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	for _, q := range bank.Questions {
		s.questions[q.ID] = q
	}

	s.order = BuildOrder(bank.Questions, stats.Load(ctx), mode, s.shuffle)
	if len(s.order) == 0 {
		s.state = StateEmpty
		return s
	}
	s.present()
	return s
}

// present shows order[index] with a freshly shuffled set of choices.
func (s *PracticeSession) present() {
	q := s.questions[s.order[s.index]]

	choices := make([]questionbank.Choice, len(q.Choices))
	copy(choices, q.Choices)
	s.shuffle(len(choices), func(i, j int) {
		choices[i], choices[j] = choices[j], choices[i]
	})

	s.choices = choices
	s.selected = ""
	s.outcome = nil
	s.state = StateUnanswered
}

func (s *PracticeSession) State() State {
	return s.state
}

// Current returns the question on screen with its choices in display order.
// It reports false once the session is empty or complete.
func (s *PracticeSession) Current() (questionbank.Question, []questionbank.Choice, bool) {
	if s.state != StateUnanswered && s.state != StateChecked {
		return questionbank.Question{}, nil, false
	}
	choices := make([]questionbank.Choice, len(s.choices))
	copy(choices, s.choices)
	return s.questions[s.order[s.index]], choices, true
}

// Select records the learner's choice. It is ignored after the answer was
// checked or when choiceID is not a choice of the current question.
func (s *PracticeSession) Select(choiceID string) bool {
	if s.state != StateUnanswered {
		return false
	}
	for _, c := range s.choices {
		if c.ID == choiceID {
			s.selected = choiceID
			return true
		}
	}
	return false
}

func (s *PracticeSession) Selected() string {
	return s.selected
}

// Check scores the selected choice, updates and persists the statistics,
// and locks the question. Without a selection, or when already checked, it
// does nothing and reports false.
//
// A persistence error is returned together with a valid outcome; the
// session still moves to StateChecked.
func (s *PracticeSession) Check(ctx context.Context) (Outcome, bool, error) {
	if s.state != StateUnanswered || s.selected == "" {
		return Outcome{}, false, nil
	}
	q := s.questions[s.order[s.index]]

	stats := s.stats.Load(ctx)
	record := stats.GetOrCreate(q.ID)
	correct := s.selected == q.Answer
	record.Record(correct, s.now())
	saveErr := s.stats.Save(ctx, stats)

	out := Outcome{
		QuestionID:       q.ID,
		SelectedChoiceID: s.selected,
		Correct:          correct,
		CorrectPosition:  q.AnswerPosition(s.choices),
		Streak:           record.Streak,
		Record:           *record,
	}
	s.outcome = &out
	s.state = StateChecked

	if saveErr != nil {
		return out, true, fmt.Errorf("save stats: %w", saveErr)
	}
	return out, true, nil
}

// Outcome returns the result of the last check while the question is
// still on screen.
func (s *PracticeSession) Outcome() (Outcome, bool) {
	if s.outcome == nil {
		return Outcome{}, false
	}
	return *s.outcome, true
}

// Advance moves past a checked question. It reports false unless the
// current question was checked.
func (s *PracticeSession) Advance() bool {
	if s.state != StateChecked {
		return false
	}
	s.index++
	if s.index >= len(s.order) {
		s.index = len(s.order)
		s.choices = nil
		s.selected = ""
		s.outcome = nil
		s.state = StateComplete
		return true
	}
	s.present()
	return true
}

// Progress returns the 1-based position of the current question and the
// length of the order.
func (s *PracticeSession) Progress() (position, total int) {
	total = len(s.order)
	if s.state == StateEmpty || s.state == StateComplete {
		return s.index, total
	}
	return s.index + 1, total
}

// Order returns a copy of the session's question ids.
func (s *PracticeSession) Order() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// View is everything a presentation layer needs to render the session.
type View struct {
	SessionID string
	BankID    string
	Mode      Mode
	State     State
	Position  int
	Total     int
	Question  *questionbank.Question
	Choices   []questionbank.Choice
	Selected  string
	Outcome   *Outcome
}

func (s *PracticeSession) View() View {
	pos, total := s.Progress()
	v := View{
		SessionID: s.ID,
		BankID:    s.BankID,
		Mode:      s.Mode,
		State:     s.state,
		Position:  pos,
		Total:     total,
		Selected:  s.selected,
	}
	if q, choices, ok := s.Current(); ok {
		v.Question = &q
		v.Choices = choices
	}
	if out, ok := s.Outcome(); ok {
		v.Outcome = &out
	}
	return v
}
