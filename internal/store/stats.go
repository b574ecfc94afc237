package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/denkain-drill/backend/internal/domain/questionbank"
)

const statsKeyPrefix = "quiz_stats_v2:"

// StatsRepository persists one Stats document per scope (a dataset key).
// Every save overwrites the whole document.
type StatsRepository struct {
	kv     KV
	logger *slog.Logger
}

func NewStatsRepository(kv KV, logger *slog.Logger) *StatsRepository {
	return &StatsRepository{kv: kv, logger: logger}
}

func statsKey(scope string) string {
	return statsKeyPrefix + scope
}

// Load returns the stored statistics for scope. Missing, unreadable or
// malformed data yields an empty Stats; the problem is only logged.
func (r *StatsRepository) Load(ctx context.Context, scope string) questionbank.Stats {
	raw, err := r.kv.Get(ctx, statsKey(scope))
	if errors.Is(err, ErrNotFound) {
		return questionbank.Stats{}
	}
	if err != nil {
		r.logger.Warn("stats read failed, starting empty", "scope", scope, "error", err)
		return questionbank.Stats{}
	}

	var stats questionbank.Stats
	if err := json.Unmarshal(raw, &stats); err != nil {
		r.logger.Warn("stats corrupted, starting empty", "scope", scope, "error", err)
		return questionbank.Stats{}
	}
	if stats == nil {
		return questionbank.Stats{}
	}
	for id, rec := range stats {
		if !rec.Valid() {
			r.logger.Warn("dropping inconsistent stats record", "scope", scope, "question_id", id)
			delete(stats, id)
		}
	}
	return stats
}

func (r *StatsRepository) Save(ctx context.Context, scope string, stats questionbank.Stats) error {
	raw, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("encode stats: %w", err)
	}
	if err := r.kv.Set(ctx, statsKey(scope), raw); err != nil {
		return fmt.Errorf("write stats %s: %w", scope, err)
	}
	return nil
}

// ForDataset binds the repository to one scope.
func (r *StatsRepository) ForDataset(scope string) *DatasetStats {
	return &DatasetStats{repo: r, scope: scope}
}

// DatasetStats is a StatsRepository bound to a single dataset.
type DatasetStats struct {
	repo  *StatsRepository
	scope string
}

func (d *DatasetStats) Load(ctx context.Context) questionbank.Stats {
	return d.repo.Load(ctx, d.scope)
}

func (d *DatasetStats) Save(ctx context.Context, stats questionbank.Stats) error {
	return d.repo.Save(ctx, d.scope, stats)
}
