package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/denkain-drill/backend/internal/domain/catalog"
	practicesession "github.com/denkain-drill/backend/internal/domain/practice_session"
	"github.com/denkain-drill/backend/internal/domain/questionbank"
	"github.com/denkain-drill/backend/internal/id"
	"github.com/denkain-drill/backend/internal/store"
)

var (
	// ErrSuperseded is returned by a dataset load that finished after a newer
	// selection was made. Its result was discarded.
	ErrSuperseded = errors.New("dataset selection superseded")
	ErrNoDataset  = errors.New("no dataset loaded")
)

// DatasetSource loads the catalog and the datasets it names.
type DatasetSource interface {
	Catalog(ctx context.Context) (*catalog.Catalog, error)
	Dataset(ctx context.Context, c *catalog.Catalog, ref catalog.DatasetRef) (*questionbank.QuestionBank, error)
}

type Status string

const (
	StatusIdle      Status = "idle"
	StatusLoading   Status = "loading"
	StatusLoadError Status = "load_error"
	StatusEmpty     Status = "empty"
	StatusQuestion  Status = "question"
	StatusComplete  Status = "complete"
)

// Trainer is one learner's drill: the selected dataset, the mode, and the
// running practice session. All methods are safe for concurrent use; calls
// that touch the session are serialized.
type Trainer struct {
	ID string

	source DatasetSource
	stats  *store.StatsRepository
	logger *slog.Logger
	opts   []practicesession.Option

	mu         sync.Mutex
	catalog    *catalog.Catalog
	ref        catalog.DatasetRef
	bank       *questionbank.QuestionBank
	mode       practicesession.Mode
	session    *practicesession.PracticeSession
	generation uint64
	loading    bool
	loadErr    error
}

func NewTrainer(src DatasetSource, stats *store.StatsRepository, mode practicesession.Mode, logger *slog.Logger, opts ...practicesession.Option) *Trainer {
	if !mode.Valid() {
		mode = practicesession.DefaultMode
	}
	return &Trainer{
		ID:     id.GenerateID(),
		source: src,
		stats:  stats,
		logger: logger,
		opts:   opts,
		mode:   mode,
	}
}

// Catalog returns the catalog, loading it on first use. A failed load is
// retried on the next call.
func (t *Trainer) Catalog(ctx context.Context) (*catalog.Catalog, error) {
	t.mu.Lock()
	c := t.catalog
	t.mu.Unlock()
	if c != nil {
		return c, nil
	}

	c, err := t.source.Catalog(ctx)
	if err != nil {
		return nil, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.catalog == nil {
		t.catalog = c
	}
	return t.catalog, nil
}

// SelectDataset loads ref and starts a new session over it in the current
// mode. The load runs without holding the lock; when another selection
// started meanwhile, the result is dropped and ErrSuperseded returned.
func (t *Trainer) SelectDataset(ctx context.Context, ref catalog.DatasetRef) error {
	t.mu.Lock()
	t.generation++
	gen := t.generation
	t.ref = ref
	t.loading = true
	t.loadErr = nil
	t.mu.Unlock()

	bank, err := t.load(ctx, ref)

	t.mu.Lock()
	defer t.mu.Unlock()

	if gen != t.generation {
		t.logger.Debug("discarding stale dataset load", "trainer_id", t.ID, "dataset", ref.Key())
		return ErrSuperseded
	}
	t.loading = false

	if err != nil {
		t.loadErr = err
		t.bank = nil
		t.session = nil
		t.logger.Warn("dataset load failed", "trainer_id", t.ID, "dataset", ref.Key(), "error", err)
		return err
	}

	t.bank = bank
	t.startLocked(ctx)
	t.logger.Info("dataset loaded",
		"trainer_id", t.ID,
		"dataset", ref.Key(),
		"questions", len(bank.Questions),
		"mode", t.mode,
	)
	return nil
}

func (t *Trainer) load(ctx context.Context, ref catalog.DatasetRef) (*questionbank.QuestionBank, error) {
	c, err := t.Catalog(ctx)
	if err != nil {
		return nil, err
	}
	return t.source.Dataset(ctx, c, ref)
}

// startLocked replaces the session with a fresh one built from the current
// statistics snapshot.
func (t *Trainer) startLocked(ctx context.Context) {
	t.session = practicesession.New(ctx, t.bank, t.mode, t.stats.ForDataset(t.bank.ID), t.opts...)
}

// SetMode switches the ordering policy. With a dataset loaded the session
// restarts from the first question.
func (t *Trainer) SetMode(ctx context.Context, mode practicesession.Mode) error {
	if !mode.Valid() {
		return fmt.Errorf("unknown mode %q", mode)
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	t.mode = mode
	if t.bank != nil {
		t.startLocked(ctx)
	}
	return nil
}

// ToggleMode steps to the next mode in the cycle and returns it.
func (t *Trainer) ToggleMode(ctx context.Context) practicesession.Mode {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.mode = t.mode.Next()
	if t.bank != nil {
		t.startLocked(ctx)
	}
	return t.mode
}

// Restart rebuilds the session in the same mode.
func (t *Trainer) Restart(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.bank == nil {
		return ErrNoDataset
	}
	t.startLocked(ctx)
	return nil
}

func (t *Trainer) Select(choiceID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.session == nil || t.loading {
		return false
	}
	return t.session.Select(choiceID)
}

// Check scores the current selection. A statistics write failure is logged
// and returned, but the outcome stands.
func (t *Trainer) Check(ctx context.Context) (practicesession.Outcome, bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.session == nil || t.loading {
		return practicesession.Outcome{}, false, nil
	}
	out, ok, err := t.session.Check(ctx)
	if err != nil {
		t.logger.Error("failed to persist statistics",
			"trainer_id", t.ID,
			"dataset", t.bank.ID,
			"question_id", out.QuestionID,
			"error", err,
		)
	}
	return out, ok, err
}

func (t *Trainer) Advance() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.session == nil || t.loading {
		return false
	}
	return t.session.Advance()
}

// Snapshot is the trainer's state as shown to a presentation layer.
type Snapshot struct {
	TrainerID    string
	Status       Status
	Dataset      catalog.DatasetRef
	DatasetLabel string
	Mode         practicesession.Mode
	Position     int
	Total        int
	Question     *questionbank.Question
	Choices      []questionbank.Choice
	Selected     string
	Outcome      *practicesession.Outcome
	LoadError    error
}

func (t *Trainer) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := Snapshot{
		TrainerID: t.ID,
		Dataset:   t.ref,
		Mode:      t.mode,
		LoadError: t.loadErr,
	}
	if t.bank != nil {
		s.DatasetLabel = t.bank.Label
	}

	switch {
	case t.loading:
		s.Status = StatusLoading
		return s
	case t.loadErr != nil:
		s.Status = StatusLoadError
		return s
	case t.session == nil:
		s.Status = StatusIdle
		return s
	}

	v := t.session.View()
	s.Position, s.Total = v.Position, v.Total
	s.Question = v.Question
	s.Choices = v.Choices
	s.Selected = v.Selected
	s.Outcome = v.Outcome

	switch v.State {
	case practicesession.StateEmpty:
		s.Status = StatusEmpty
	case practicesession.StateComplete:
		s.Status = StatusComplete
	default:
		s.Status = StatusQuestion
	}
	return s
}

// QuestionStat is one question's record with its weakness score.
type QuestionStat struct {
	QuestionID string
	No         questionbank.QuestionNo
	Record     questionbank.StatRecord
	Weakness   float64
}

type DatasetReport struct {
	Dataset   catalog.DatasetRef
	Summary   questionbank.BankStats
	Questions []QuestionStat
}

// DatasetStats reports the stored statistics of the loaded dataset in
// dataset order.
func (t *Trainer) DatasetStats(ctx context.Context) (DatasetReport, error) {
	t.mu.Lock()
	bank, ref := t.bank, t.ref
	t.mu.Unlock()

	if bank == nil {
		return DatasetReport{}, ErrNoDataset
	}

	stats := t.stats.Load(ctx, bank.ID)
	report := DatasetReport{
		Dataset:   ref,
		Summary:   stats.Summarize(bank),
		Questions: make([]QuestionStat, 0, len(bank.Questions)),
	}
	for _, q := range bank.Questions {
		qs := QuestionStat{QuestionID: q.ID, No: q.No}
		if r := stats.Get(q.ID); r != nil {
			qs.Record = *r
		}
		qs.Weakness = questionbank.WeaknessScore(stats.Get(q.ID))
		report.Questions = append(report.Questions, qs)
	}
	return report, nil
}
