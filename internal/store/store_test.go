package store_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/denkain-drill/backend/internal/domain/questionbank"
	"github.com/denkain-drill/backend/internal/store"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newSQLite(t *testing.T) *store.SQLStore {
	t.Helper()
	s, err := store.NewSQLite(filepath.Join(t.TempDir(), "drill.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestKVImplementations(t *testing.T) {
	impls := map[string]func(t *testing.T) store.KV{
		"memory": func(*testing.T) store.KV { return store.NewMemoryKV() },
		"sqlite": func(t *testing.T) store.KV { return newSQLite(t) },
	}

	for name, open := range impls {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			kv := open(t)

			if _, err := kv.Get(ctx, "missing"); !errors.Is(err, store.ErrNotFound) {
				t.Fatalf("expected ErrNotFound, got %v", err)
			}

			if err := kv.Set(ctx, "cache:v1:a.json", []byte("one")); err != nil {
				t.Fatalf("set: %v", err)
			}
			if err := kv.Set(ctx, "cache:v1:a.json", []byte("two")); err != nil {
				t.Fatalf("overwrite: %v", err)
			}
			kv.Set(ctx, "cache:v2:a.json", []byte("x"))
			kv.Set(ctx, "quiz_stats_v2:2025/upper/theory", []byte("{}"))

			got, err := kv.Get(ctx, "cache:v1:a.json")
			if err != nil || string(got) != "two" {
				t.Errorf("expected two, got %q (%v)", got, err)
			}

			keys, err := kv.Keys(ctx, "cache:")
			if err != nil {
				t.Fatalf("keys: %v", err)
			}
			if !reflect.DeepEqual(keys, []string{"cache:v1:a.json", "cache:v2:a.json"}) {
				t.Errorf("unexpected keys %v", keys)
			}

			all, _ := kv.Keys(ctx, "")
			if len(all) != 3 {
				t.Errorf("expected 3 keys, got %v", all)
			}

			if err := kv.Delete(ctx, "cache:v2:a.json"); err != nil {
				t.Fatalf("delete: %v", err)
			}
			if _, err := kv.Get(ctx, "cache:v2:a.json"); !errors.Is(err, store.ErrNotFound) {
				t.Errorf("expected deleted key to be gone, got %v", err)
			}
		})
	}
}

func TestSQLite_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "drill.db")

	s, err := store.NewSQLite(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	s.Set(ctx, "k", []byte("v"))
	s.Close()

	s, err = store.NewSQLite(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()

	got, err := s.Get(ctx, "k")
	if err != nil || string(got) != "v" {
		t.Errorf("expected v after reopen, got %q (%v)", got, err)
	}
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	if _, err := store.Open(context.Background(), "oracle", ""); err == nil {
		t.Error("expected error for unsupported driver")
	}
}

func TestDialectFor(t *testing.T) {
	tests := []struct {
		driver     string
		driverName string
		rebound    string
	}{
		{"sqlite", "sqlite", "a = ? AND b = ?"},
		{"postgres", "pgx", "a = $1 AND b = $2"},
		{"mysql", "mysql", "a = ? AND b = ?"},
	}

	for _, tt := range tests {
		t.Run(tt.driver, func(t *testing.T) {
			d, err := store.DialectFor(tt.driver)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if d.DriverName() != tt.driverName {
				t.Errorf("DriverName() = %q, want %q", d.DriverName(), tt.driverName)
			}
			if got := d.Rebind("a = ? AND b = ?"); got != tt.rebound {
				t.Errorf("Rebind() = %q, want %q", got, tt.rebound)
			}
		})
	}
}

func TestStatsRepository_RoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := store.NewStatsRepository(store.NewMemoryKV(), discardLogger())

	at := time.Date(2025, 4, 1, 8, 30, 0, 0, time.UTC)
	stats := questionbank.Stats{
		"q1": {Seen: 2, Correct: 1, Wrong: 1, Streak: 1, Last: &at},
		"q2": {},
	}
	if err := repo.Save(ctx, "2025/upper/theory", stats); err != nil {
		t.Fatalf("save: %v", err)
	}

	got := repo.Load(ctx, "2025/upper/theory")
	if r := got["q1"]; r == nil || r.Seen != 2 || r.Streak != 1 || r.Last == nil || !r.Last.Equal(at) {
		t.Errorf("unexpected q1 record %+v", r)
	}
	if r := got["q2"]; r == nil || r.Last != nil {
		t.Errorf("expected zero q2 record with absent last, got %+v", r)
	}
}

func TestStatsRepository_ScopesAreIndependent(t *testing.T) {
	ctx := context.Background()
	repo := store.NewStatsRepository(store.NewMemoryKV(), discardLogger())

	theory := repo.ForDataset("2025/upper/theory")
	power := repo.ForDataset("2025/upper/power")

	theory.Save(ctx, questionbank.Stats{"q1": {Seen: 1, Wrong: 1}})

	if got := power.Load(ctx); len(got) != 0 {
		t.Errorf("expected no stats leaking across datasets, got %v", got)
	}
	if got := theory.Load(ctx); got["q1"] == nil || got["q1"].Wrong != 1 {
		t.Errorf("expected theory stats, got %v", got)
	}
}

func TestStatsRepository_CorruptDataFallsBackToEmpty(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryKV()
	repo := store.NewStatsRepository(kv, discardLogger())

	for _, raw := range []string{"not json", "[1,2,3]", "null", `{"q1":null}`} {
		kv.Set(ctx, "quiz_stats_v2:s", []byte(raw))

		got := repo.Load(ctx, "s")
		if got == nil || len(got) != 0 {
			t.Errorf("%q: expected empty stats, got %v", raw, got)
		}
		// The result must be usable for mutation.
		got.GetOrCreate("q1").Seen++
	}
}

func TestStatsRepository_DropsInconsistentRecords(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryKV()
	repo := store.NewStatsRepository(kv, discardLogger())

	kv.Set(ctx, "quiz_stats_v2:s", []byte(`{
		"ok":       {"seen": 3, "correct": 2, "wrong": 1, "streak": 1},
		"mismatch": {"seen": 5, "correct": 1, "wrong": 1},
		"negative": {"seen": -1, "correct": 0, "wrong": -1},
		"streak":   {"seen": 1, "correct": 1, "wrong": 0, "streak": -2}
	}`))

	got := repo.Load(ctx, "s")
	if len(got) != 1 || got["ok"] == nil || got["ok"].Seen != 3 {
		t.Errorf("expected only the consistent record, got %v", got)
	}
}

type failingKV struct{ store.KV }

func (failingKV) Get(context.Context, string) ([]byte, error) {
	return nil, errors.New("io error")
}

func (failingKV) Set(context.Context, string, []byte) error {
	return errors.New("io error")
}

func TestStatsRepository_ReadErrorFallsBackToEmpty(t *testing.T) {
	repo := store.NewStatsRepository(failingKV{}, discardLogger())

	if got := repo.Load(context.Background(), "s"); got == nil || len(got) != 0 {
		t.Errorf("expected empty stats, got %v", got)
	}
	if err := repo.Save(context.Background(), "s", questionbank.Stats{}); err == nil {
		t.Error("expected save error to surface")
	}
}
