package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/denkain-drill/backend/internal/domain/catalog"
	practicesession "github.com/denkain-drill/backend/internal/domain/practice_session"
	"github.com/denkain-drill/backend/internal/store"
)

// Registry owns the trainers behind the HTTP API, keyed by trainer id.
// Trainers live in memory only; their statistics are persisted.
type Registry struct {
	source      DatasetSource
	stats       *store.StatsRepository
	defaultMode practicesession.Mode
	logger      *slog.Logger
	opts        []practicesession.Option

	mu       sync.RWMutex
	trainers map[string]*Trainer
}

func NewRegistry(src DatasetSource, stats *store.StatsRepository, defaultMode practicesession.Mode, logger *slog.Logger, opts ...practicesession.Option) *Registry {
	return &Registry{
		source:      src,
		stats:       stats,
		defaultMode: defaultMode,
		logger:      logger,
		opts:        opts,
		trainers:    make(map[string]*Trainer),
	}
}

// Catalog loads the catalog straight from the source.
func (r *Registry) Catalog(ctx context.Context) (*catalog.Catalog, error) {
	return r.source.Catalog(ctx)
}

// Create registers a new idle trainer. An empty mode uses the default.
func (r *Registry) Create(mode practicesession.Mode) *Trainer {
	if mode == "" {
		mode = r.defaultMode
	}
	t := NewTrainer(r.source, r.stats, mode, r.logger, r.opts...)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.trainers[t.ID] = t
	return t
}

func (r *Registry) Get(trainerID string) (*Trainer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.trainers[trainerID]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", trainerID, store.ErrNotFound)
	}
	return t, nil
}

func (r *Registry) Delete(trainerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.trainers[trainerID]; !ok {
		return fmt.Errorf("session %s: %w", trainerID, store.ErrNotFound)
	}
	delete(r.trainers, trainerID)
	return nil
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.trainers)
}
