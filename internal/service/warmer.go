package service

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/denkain-drill/backend/internal/domain/catalog"
	"github.com/denkain-drill/backend/internal/source"
	"github.com/denkain-drill/backend/internal/worker"
)

// Purger drops cache entries that belong to older cache versions.
type Purger interface {
	Purge(ctx context.Context) (int, error)
}

// WarmResult reports how one dataset was precached.
type WarmResult struct {
	Dataset   catalog.DatasetRef
	Questions int
	Assets    int
	Err       error
}

// Warmer precaches the catalog, every dataset and the images the datasets
// reference so that drills keep working without the data source.
type Warmer struct {
	source  DatasetSource
	assets  source.Fetcher
	purger  Purger
	workers int
	logger  *slog.Logger
}

// NewWarmer builds a Warmer. assets and purger may be nil.
func NewWarmer(src DatasetSource, assets source.Fetcher, purger Purger, workers int, logger *slog.Logger) *Warmer {
	return &Warmer{
		source:  src,
		assets:  assets,
		purger:  purger,
		workers: workers,
		logger:  logger,
	}
}

// Warm returns one result per dataset in catalog order. Only a catalog
// failure is returned as an error; dataset failures are reported in the
// results.
func (w *Warmer) Warm(ctx context.Context) ([]WarmResult, error) {
	if w.purger != nil {
		if _, err := w.purger.Purge(ctx); err != nil {
			w.logger.Warn("cache purge failed", "error", err)
		}
	}

	c, err := w.source.Catalog(ctx)
	if err != nil {
		return nil, fmt.Errorf("warm catalog: %w", err)
	}

	refs := c.Refs()
	pool := worker.NewPool[WarmResult](w.workers, len(refs))
	// Job ids are catalog positions; dataset keys may repeat.
	for i, ref := range refs {
		pool.Submit(strconv.Itoa(i), func() WarmResult {
			return w.warmDataset(ctx, c, ref)
		})
	}
	pool.Close()

	results := make([]WarmResult, len(refs))
	for r := range pool.Results() {
		i, err := strconv.Atoi(r.JobID)
		if err != nil || i < 0 || i >= len(results) {
			continue
		}
		results[i] = r.Output
	}

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}

	w.logger.Info("cache warmed", "datasets", len(refs), "failed", failed)
	return results, nil
}

func (w *Warmer) warmDataset(ctx context.Context, c *catalog.Catalog, ref catalog.DatasetRef) WarmResult {
	res := WarmResult{Dataset: ref}

	bank, err := w.source.Dataset(ctx, c, ref)
	if err != nil {
		w.logger.Warn("dataset not cached", "dataset", ref.Key(), "error", err)
		res.Err = err
		return res
	}
	res.Questions = len(bank.Questions)

	if w.assets == nil {
		return res
	}
	for _, q := range bank.Questions {
		if q.Image == "" {
			continue
		}
		if _, err := w.assets.Fetch(ctx, q.Image); err != nil {
			w.logger.Warn("asset not cached", "dataset", ref.Key(), "question_id", q.ID, "image", q.Image, "error", err)
			continue
		}
		res.Assets++
	}
	return res
}
