package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/denkain-drill/backend/internal/store"
)

const cacheKeyPrefix = "cache:"

// CachedFetcher serves from a versioned cache first and falls back to the
// upstream fetcher, storing whatever it downloads. Bumping the version makes
// every cached copy stale; Purge removes them.
type CachedFetcher struct {
	upstream Fetcher
	kv       store.KV
	version  string
	logger   *slog.Logger
}

func NewCachedFetcher(upstream Fetcher, kv store.KV, version string, logger *slog.Logger) *CachedFetcher {
	return &CachedFetcher{
		upstream: upstream,
		kv:       kv,
		version:  version,
		logger:   logger,
	}
}

func (c *CachedFetcher) versionPrefix() string {
	return cacheKeyPrefix + c.version + ":"
}

func (c *CachedFetcher) key(p string) string {
	return c.versionPrefix() + p
}

func (c *CachedFetcher) Fetch(ctx context.Context, p string) ([]byte, error) {
	name, err := CleanPath(p)
	if err != nil {
		return nil, err
	}

	cached, err := c.kv.Get(ctx, c.key(name))
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		c.logger.Warn("cache read failed", "path", name, "error", err)
	}

	data, err := c.upstream.Fetch(ctx, name)
	if err != nil {
		return nil, err
	}

	if err := c.kv.Set(ctx, c.key(name), data); err != nil {
		c.logger.Warn("cache write failed", "path", name, "error", err)
	}
	return data, nil
}

// Cached reports whether p is present in the current cache version.
func (c *CachedFetcher) Cached(ctx context.Context, p string) bool {
	name, err := CleanPath(p)
	if err != nil {
		return false
	}
	_, err = c.kv.Get(ctx, c.key(name))
	return err == nil
}

// Purge deletes entries of every cache version except the current one and
// returns how many were removed.
func (c *CachedFetcher) Purge(ctx context.Context) (int, error) {
	keys, err := c.kv.Keys(ctx, cacheKeyPrefix)
	if err != nil {
		return 0, fmt.Errorf("list cache entries: %w", err)
	}

	current := c.versionPrefix()
	removed := 0
	for _, k := range keys {
		if strings.HasPrefix(k, current) {
			continue
		}
		if err := c.kv.Delete(ctx, k); err != nil {
			return removed, fmt.Errorf("delete %s: %w", k, err)
		}
		removed++
	}
	if removed > 0 {
		c.logger.Info("purged stale cache entries", "count", removed, "version", c.version)
	}
	return removed, nil
}
