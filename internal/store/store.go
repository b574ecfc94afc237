package store

import (
	"context"
	"errors"
)

var (
	ErrNotFound = errors.New("not found")
)

// KV is the persistence substrate: whole values stored under string keys.
type KV interface {
	// Get returns ErrNotFound when key is absent.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	// Keys lists keys starting with prefix, sorted.
	Keys(ctx context.Context, prefix string) ([]string, error)
}
