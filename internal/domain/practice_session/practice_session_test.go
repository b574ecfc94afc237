package practicesession_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	practicesession "github.com/denkain-drill/backend/internal/domain/practice_session"
	"github.com/denkain-drill/backend/internal/domain/questionbank"
)

// memStats is a StatsStore that hands out copies, like a real
// load/modify/save cycle over serialized storage.
type memStats struct {
	data    questionbank.Stats
	saves   int
	saveErr error
}

func newMemStats(seed questionbank.Stats) *memStats {
	if seed == nil {
		seed = questionbank.Stats{}
	}
	return &memStats{data: seed}
}

func (m *memStats) Load(context.Context) questionbank.Stats {
	out := make(questionbank.Stats, len(m.data))
	for k, v := range m.data {
		r := *v
		out[k] = &r
	}
	return out
}

func (m *memStats) Save(_ context.Context, stats questionbank.Stats) error {
	m.saves++
	if m.saveErr != nil {
		return m.saveErr
	}
	m.data = stats
	return nil
}

func reverse(n int, swap func(i, j int)) {
	for i := 0; i < n/2; i++ {
		swap(i, n-1-i)
	}
}

func identity(int, func(i, j int)) {}

func createBankWithQuestions(n int) *questionbank.QuestionBank {
	bank := questionbank.New("test", "Test Bank")
	for i := 0; i < n; i++ {
		bank.AddQuestion(questionbank.Question{
			ID:      fmt.Sprintf("q%d", i+1),
			No:      questionbank.QuestionNo(fmt.Sprint(i + 1)),
			Choices: []questionbank.Choice{{ID: "a"}, {ID: "b"}, {ID: "c"}, {ID: "d"}},
			Answer:  "a",
		})
	}
	return bank
}

func singleQuestionBank() *questionbank.QuestionBank {
	bank := questionbank.New("test", "Test Bank")
	bank.AddQuestion(questionbank.Question{
		ID:      "q1",
		No:      "1",
		Choices: []questionbank.Choice{{ID: "c1"}, {ID: "c2"}, {ID: "c3"}},
		Answer:  "c2",
	})
	return bank
}

func TestNew_PresentsFirstQuestion(t *testing.T) {
	bank := createBankWithQuestions(3)
	session := practicesession.New(context.Background(), bank, practicesession.ModeOrder, newMemStats(nil))

	if session.State() != practicesession.StateUnanswered {
		t.Fatalf("expected unanswered, got %v", session.State())
	}
	q, choices, ok := session.Current()
	if !ok || q.ID != "q1" {
		t.Fatalf("expected q1, got %q (%v)", q.ID, ok)
	}
	if len(choices) != 4 {
		t.Errorf("expected 4 choices, got %d", len(choices))
	}
	if pos, total := session.Progress(); pos != 1 || total != 3 {
		t.Errorf("expected progress 1/3, got %d/%d", pos, total)
	}
	if session.ID == "" {
		t.Error("expected non-empty session ID")
	}
}

func TestEndToEnd_WrongThenRight(t *testing.T) {
	ctx := context.Background()
	stats := newMemStats(nil)
	bank := singleQuestionBank()

	session := practicesession.New(ctx, bank, practicesession.ModeOrder, stats)
	_, choices, _ := session.Current()

	if !session.Select("c1") {
		t.Fatal("expected selection to be accepted")
	}
	out, applied, err := session.Check(ctx)
	if err != nil || !applied {
		t.Fatalf("Check() = %v, %v", applied, err)
	}
	if out.Correct {
		t.Fatal("expected incorrect outcome")
	}

	wantPos := 0
	for i, c := range choices {
		if c.ID == "c2" {
			wantPos = i + 1
		}
	}
	if out.CorrectPosition != wantPos {
		t.Errorf("expected correct position %d, got %d", wantPos, out.CorrectPosition)
	}

	r := stats.data["q1"]
	if r.Seen != 1 || r.Correct != 0 || r.Wrong != 1 || r.Streak != 0 || r.Last == nil {
		t.Errorf("unexpected record after wrong answer: %+v", r)
	}

	// Next presentation of the same question.
	session = practicesession.New(ctx, bank, practicesession.ModeOrder, stats)
	session.Select("c2")
	out, _, _ = session.Check(ctx)
	if !out.Correct || out.Streak != 1 {
		t.Errorf("expected correct with streak 1, got %+v", out)
	}

	r = stats.data["q1"]
	if r.Seen != 2 || r.Correct != 1 || r.Wrong != 1 || r.Streak != 1 {
		t.Errorf("unexpected record after right answer: %+v", r)
	}
}

func TestCheck_CorrectPositionFollowsShuffle(t *testing.T) {
	ctx := context.Background()
	session := practicesession.New(ctx, singleQuestionBank(), practicesession.ModeOrder, newMemStats(nil),
		practicesession.WithShuffle(reverse))

	_, choices, _ := session.Current()
	if choices[0].ID != "c3" || choices[2].ID != "c1" {
		t.Fatalf("expected reversed choices, got %+v", choices)
	}

	session.Select("c3")
	out, _, _ := session.Check(ctx)
	if out.CorrectPosition != 2 {
		t.Errorf("expected c2 at position 2, got %d", out.CorrectPosition)
	}
}

func TestCheck_WithoutSelectionIsNoop(t *testing.T) {
	ctx := context.Background()
	stats := newMemStats(nil)
	session := practicesession.New(ctx, singleQuestionBank(), practicesession.ModeOrder, stats)

	if _, applied, err := session.Check(ctx); applied || err != nil {
		t.Fatalf("expected no-op, got applied=%v err=%v", applied, err)
	}
	if stats.saves != 0 {
		t.Error("expected no save")
	}
	if session.State() != practicesession.StateUnanswered {
		t.Errorf("expected unanswered, got %v", session.State())
	}
}

func TestSequencingGuards(t *testing.T) {
	ctx := context.Background()
	stats := newMemStats(nil)
	session := practicesession.New(ctx, createBankWithQuestions(2), practicesession.ModeOrder, stats)

	if session.Advance() {
		t.Error("expected advance before check to be ignored")
	}
	if session.Select("zzz") {
		t.Error("expected unknown choice to be rejected")
	}

	session.Select("b")
	session.Select("a") // overwrites
	if session.Selected() != "a" {
		t.Errorf("expected selection a, got %q", session.Selected())
	}

	session.Check(ctx)
	if session.Select("b") {
		t.Error("expected select after check to be ignored")
	}
	if _, applied, _ := session.Check(ctx); applied {
		t.Error("expected second check to be ignored")
	}
	if stats.saves != 1 {
		t.Errorf("expected exactly one save, got %d", stats.saves)
	}
	if r := stats.data["q1"]; r.Seen != 1 {
		t.Errorf("expected seen 1, got %d", r.Seen)
	}
}

func TestAdvance_ClearsSelectionAndReshuffles(t *testing.T) {
	ctx := context.Background()
	shuffles := 0
	counting := func(n int, swap func(i, j int)) { shuffles++ }

	session := practicesession.New(ctx, createBankWithQuestions(2), practicesession.ModeOrder, newMemStats(nil),
		practicesession.WithShuffle(counting))
	if shuffles != 1 {
		t.Fatalf("expected 1 shuffle at start, got %d", shuffles)
	}

	session.Select("a")
	session.Check(ctx)
	if !session.Advance() {
		t.Fatal("expected advance")
	}

	if shuffles != 2 {
		t.Errorf("expected choices reshuffled on presentation, got %d shuffles", shuffles)
	}
	if session.Selected() != "" {
		t.Error("expected selection cleared")
	}
	if _, ok := session.Outcome(); ok {
		t.Error("expected outcome cleared")
	}
	if q, _, _ := session.Current(); q.ID != "q2" {
		t.Errorf("expected q2, got %s", q.ID)
	}
}

func TestSessionComplete(t *testing.T) {
	ctx := context.Background()
	session := practicesession.New(ctx, createBankWithQuestions(2), practicesession.ModeOrder, newMemStats(nil))

	for i := 0; i < 2; i++ {
		session.Select("b")
		session.Check(ctx)
		session.Advance()
	}

	if session.State() != practicesession.StateComplete {
		t.Fatalf("expected complete, got %v", session.State())
	}
	if _, _, ok := session.Current(); ok {
		t.Error("expected no current question")
	}
	if session.Advance() {
		t.Error("expected advance after completion to be ignored")
	}
	if pos, total := session.Progress(); pos != 2 || total != 2 {
		t.Errorf("expected progress 2/2, got %d/%d", pos, total)
	}
	if v := session.View(); v.Question != nil || v.State != practicesession.StateComplete {
		t.Errorf("unexpected view %+v", v)
	}
}

func TestEmptyOrder_WrongModeWithoutMistakes(t *testing.T) {
	stats := newMemStats(questionbank.Stats{"q1": {Seen: 3, Correct: 3, Streak: 3}})
	session := practicesession.New(context.Background(), createBankWithQuestions(3), practicesession.ModeWrong, stats)

	if session.State() != practicesession.StateEmpty {
		t.Fatalf("expected empty state, got %v", session.State())
	}
	if _, _, ok := session.Current(); ok {
		t.Error("expected no current question")
	}
	if session.Select("a") {
		t.Error("expected select to be ignored")
	}
	if pos, total := session.Progress(); pos != 0 || total != 0 {
		t.Errorf("expected 0/0, got %d/%d", pos, total)
	}
}

func TestEmptyBank(t *testing.T) {
	for _, mode := range practicesession.Modes() {
		session := practicesession.New(context.Background(), questionbank.New("x", "X"), mode, newMemStats(nil))
		if session.State() != practicesession.StateEmpty {
			t.Errorf("%s: expected empty, got %v", mode, session.State())
		}
	}
}

func TestCheck_SaveErrorStillChecks(t *testing.T) {
	ctx := context.Background()
	stats := newMemStats(nil)
	stats.saveErr = errors.New("disk full")
	session := practicesession.New(ctx, singleQuestionBank(), practicesession.ModeOrder, stats)

	session.Select("c2")
	out, applied, err := session.Check(ctx)
	if !applied || err == nil {
		t.Fatalf("expected applied with error, got %v %v", applied, err)
	}
	if !out.Correct {
		t.Error("expected a valid outcome")
	}
	if session.State() != practicesession.StateChecked {
		t.Errorf("expected checked, got %v", session.State())
	}
}

func TestCheck_UsesClock(t *testing.T) {
	ctx := context.Background()
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	stats := newMemStats(nil)
	session := practicesession.New(ctx, singleQuestionBank(), practicesession.ModeOrder, stats,
		practicesession.WithClock(func() time.Time { return at }))

	session.Select("c1")
	session.Check(ctx)

	if last := stats.data["q1"].Last; last == nil || !last.Equal(at) {
		t.Errorf("expected last %v, got %v", at, last)
	}
}

func TestWeakMode_OrdersFromStatsSnapshot(t *testing.T) {
	stats := newMemStats(questionbank.Stats{
		"q1": {Seen: 3, Correct: 3, Streak: 3},
		"q2": {Seen: 2, Wrong: 2},
	})
	session := practicesession.New(context.Background(), createBankWithQuestions(3), practicesession.ModeWeak, stats,
		practicesession.WithShuffle(identity))

	want := []string{"q3", "q2", "q1"}
	got := session.Order()
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestStateString(t *testing.T) {
	if practicesession.StateChecked.String() != "checked" || practicesession.State(42).String() != "unknown" {
		t.Error("unexpected state names")
	}
}
