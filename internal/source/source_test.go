package source_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"sync/atomic"
	"testing"
	"testing/fstest"

	"github.com/denkain-drill/backend/internal/domain/catalog"
	"github.com/denkain-drill/backend/internal/source"
	"github.com/denkain-drill/backend/internal/store"
)

const catalogJSON = `{
  "years": [
    {"year": "2025", "terms": [
      {"term": "upper", "label": "Upper", "subjects": [
        {"id": "theory", "label": "Theory", "data": "./data/2025_upper_theory.json"},
        {"id": "power", "label": "Power", "data": "./data/2025_upper_power.json"}
      ]}
    ]}
  ]
}`

const theoryJSON = `{
  "meta": {"label": "2025 Upper Theory"},
  "questions": [
    {"id": "q1", "no": 1, "text": "first", "choices": [{"id": "a"}, {"id": "b"}], "answer": "b"},
    {"id": "q2", "no": "2", "image": "assets/q2.png", "choices": [{"id": "a"}, {"id": "b"}], "answer": "a"}
  ]
}`

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"data/catalog.json":           {Data: []byte(catalogJSON)},
		"data/2025_upper_theory.json": {Data: []byte(theoryJSON)},
		"data/2025_upper_power.json":  {Data: []byte(`{"questions": [{"id": "q1", "choices": [{"id": "a"}], "answer": "z"}]}`)},
	}
}

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(bytes.NewReader([]byte(body))),
		Header:     make(http.Header),
	}
}

type countingFetcher struct {
	inner source.Fetcher
	calls atomic.Int32
}

func (c *countingFetcher) Fetch(ctx context.Context, p string) ([]byte, error) {
	c.calls.Add(1)
	return c.inner.Fetch(ctx, p)
}

func TestCleanPath(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"./data/catalog.json", "data/catalog.json", false},
		{"/data/catalog.json", "data/catalog.json", false},
		{"data//x.json", "data/x.json", false},
		{"../secret", "secret", false},
		{"", "", true},
		{"./", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := source.CleanPath(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("CleanPath(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if tt.wantErr && !errors.Is(err, source.ErrInvalidPath) {
				t.Errorf("expected ErrInvalidPath, got %v", err)
			}
			if got != tt.want {
				t.Errorf("CleanPath(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestLoader_CatalogAndDataset(t *testing.T) {
	ctx := context.Background()
	loader := source.NewLoader(source.NewDirFetcher(testFS()))

	c, err := loader.Catalog(ctx)
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	ref, ok := c.First()
	if !ok || ref.Key() != "2025/upper/theory" {
		t.Fatalf("unexpected first ref %v", ref)
	}

	bank, err := loader.Dataset(ctx, c, ref)
	if err != nil {
		t.Fatalf("dataset: %v", err)
	}
	if bank.ID != "2025/upper/theory" || bank.Label != "2025 Upper Theory" {
		t.Errorf("unexpected bank identity %q %q", bank.ID, bank.Label)
	}
	if len(bank.Questions) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(bank.Questions))
	}
	if bank.Questions[1].No != "2" || bank.Questions[1].Image != "assets/q2.png" {
		t.Errorf("unexpected second question %+v", bank.Questions[1])
	}
}

func TestLoader_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("missing catalog is unavailable", func(t *testing.T) {
		loader := source.NewLoader(source.NewDirFetcher(fstest.MapFS{}))
		if _, err := loader.Catalog(ctx); !errors.Is(err, source.ErrUnavailable) {
			t.Errorf("expected ErrUnavailable, got %v", err)
		}
	})

	t.Run("broken catalog is malformed", func(t *testing.T) {
		loader := source.NewLoader(source.NewDirFetcher(fstest.MapFS{
			"data/catalog.json": {Data: []byte("{")},
		}))
		if _, err := loader.Catalog(ctx); !errors.Is(err, source.ErrMalformed) {
			t.Errorf("expected ErrMalformed, got %v", err)
		}
	})

	loader := source.NewLoader(source.NewDirFetcher(testFS()))
	c, err := loader.Catalog(ctx)
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}

	t.Run("invalid answer is malformed", func(t *testing.T) {
		ref := catalog.DatasetRef{Year: "2025", Term: "upper", Subject: "power"}
		if _, err := loader.Dataset(ctx, c, ref); !errors.Is(err, source.ErrMalformed) {
			t.Errorf("expected ErrMalformed, got %v", err)
		}
	})

	t.Run("unknown ref", func(t *testing.T) {
		ref := catalog.DatasetRef{Year: "2024", Term: "upper", Subject: "theory"}
		if _, err := loader.Dataset(ctx, c, ref); !errors.Is(err, catalog.ErrUnknownDataset) {
			t.Errorf("expected ErrUnknownDataset, got %v", err)
		}
	})

	t.Run("missing dataset file is unavailable", func(t *testing.T) {
		fsys := testFS()
		delete(fsys, "data/2025_upper_theory.json")
		l := source.NewLoader(source.NewDirFetcher(fsys))
		ref := catalog.DatasetRef{Year: "2025", Term: "upper", Subject: "theory"}
		if _, err := l.Dataset(ctx, c, ref); !errors.Is(err, source.ErrUnavailable) {
			t.Errorf("expected ErrUnavailable, got %v", err)
		}
	})
}

func TestHTTPFetcher(t *testing.T) {
	var seen *http.Request
	client := &http.Client{Transport: roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		seen = r
		return jsonResponse(http.StatusOK, catalogJSON), nil
	})}

	f, err := source.NewHTTPFetcher("https://drill.example/site", client)
	if err != nil {
		t.Fatalf("new fetcher: %v", err)
	}

	body, err := f.Fetch(context.Background(), "./data/catalog.json")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if string(body) != catalogJSON {
		t.Errorf("unexpected body %q", body)
	}
	if seen.URL.String() != "https://drill.example/site/data/catalog.json" {
		t.Errorf("unexpected url %s", seen.URL)
	}
	if seen.Header.Get("Cache-Control") != "no-store" {
		t.Errorf("expected no-store, got %q", seen.Header.Get("Cache-Control"))
	}
}

func TestHTTPFetcher_NonOKStatus(t *testing.T) {
	client := &http.Client{Transport: roundTripperFunc(func(r *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusNotFound, ""), nil
	})}
	f, _ := source.NewHTTPFetcher("http://drill.example/", client)

	_, err := f.Fetch(context.Background(), "data/catalog.json")
	if err == nil {
		t.Fatal("expected error for non-200 status")
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("expected 404 to map to fs.ErrNotExist, got %v", err)
	}
}

func TestNewHTTPFetcher_RejectsScheme(t *testing.T) {
	if _, err := source.NewHTTPFetcher("ftp://drill.example", nil); err == nil {
		t.Error("expected error for ftp scheme")
	}
}

func TestCachedFetcher_CacheFirst(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryKV()
	upstream := &countingFetcher{inner: source.NewDirFetcher(testFS())}
	cached := source.NewCachedFetcher(upstream, kv, "v1", discardLogger())

	for i := 0; i < 3; i++ {
		if _, err := cached.Fetch(ctx, "./data/catalog.json"); err != nil {
			t.Fatalf("fetch %d: %v", i, err)
		}
	}
	if n := upstream.calls.Load(); n != 1 {
		t.Errorf("expected 1 upstream call, got %d", n)
	}
	if !cached.Cached(ctx, "data/catalog.json") {
		t.Error("expected catalog to be cached")
	}
}

func TestCachedFetcher_ServesOfflineCopy(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryKV()

	warm := source.NewCachedFetcher(source.NewDirFetcher(testFS()), kv, "v1", discardLogger())
	if _, err := warm.Fetch(ctx, source.CatalogPath); err != nil {
		t.Fatalf("warm: %v", err)
	}

	offline := source.NewCachedFetcher(source.NewDirFetcher(fstest.MapFS{}), kv, "v1", discardLogger())
	if _, err := offline.Fetch(ctx, source.CatalogPath); err != nil {
		t.Errorf("expected cached copy while offline, got %v", err)
	}
	if _, err := offline.Fetch(ctx, "data/2025_upper_power.json"); err == nil {
		t.Error("expected uncached path to fail while offline")
	}
}

func TestCachedFetcher_PurgeKeepsCurrentVersion(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryKV()

	old := source.NewCachedFetcher(source.NewDirFetcher(testFS()), kv, "v1", discardLogger())
	old.Fetch(ctx, source.CatalogPath)
	old.Fetch(ctx, "data/2025_upper_theory.json")

	current := source.NewCachedFetcher(source.NewDirFetcher(testFS()), kv, "v2", discardLogger())
	current.Fetch(ctx, source.CatalogPath)
	kv.Set(ctx, "quiz_stats_v2:2025/upper/theory", []byte("{}"))

	removed, err := current.Purge(ctx)
	if err != nil {
		t.Fatalf("purge: %v", err)
	}
	if removed != 2 {
		t.Errorf("expected 2 stale entries removed, got %d", removed)
	}
	if !current.Cached(ctx, source.CatalogPath) {
		t.Error("current version must survive purge")
	}
	if _, err := kv.Get(ctx, "quiz_stats_v2:2025/upper/theory"); err != nil {
		t.Errorf("statistics must survive purge: %v", err)
	}
}
