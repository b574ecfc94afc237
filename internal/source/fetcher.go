package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"path"
	"strings"
)

// ErrInvalidPath marks a path that is empty or escapes the data root.
var ErrInvalidPath = errors.New("invalid data path")

// Fetcher returns the raw bytes stored at a slash separated path relative to
// the data root.
type Fetcher interface {
	Fetch(ctx context.Context, p string) ([]byte, error)
}

// CleanPath normalises catalog paths such as "./data/x.json" or "/data/x.json"
// to "data/x.json". Paths escaping the root are rejected.
func CleanPath(p string) (string, error) {
	cleaned := path.Clean("/" + strings.TrimSpace(p))
	cleaned = strings.TrimPrefix(cleaned, "/")
	if cleaned == "" || cleaned == "." {
		return "", fmt.Errorf("%w: empty path %q", ErrInvalidPath, p)
	}
	if !fs.ValidPath(cleaned) {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, p)
	}
	return cleaned, nil
}

// DirFetcher reads from a file system, typically os.DirFS of the site root.
type DirFetcher struct {
	fsys fs.FS
}

func NewDirFetcher(fsys fs.FS) *DirFetcher {
	return &DirFetcher{fsys: fsys}
}

func (f *DirFetcher) Fetch(ctx context.Context, p string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	name, err := CleanPath(p)
	if err != nil {
		return nil, err
	}
	return fs.ReadFile(f.fsys, name)
}

// HTTPFetcher downloads from a base URL. Every request bypasses HTTP caches;
// offline copies are handled by CachedFetcher instead.
type HTTPFetcher struct {
	base   *url.URL
	client *http.Client
}

func NewHTTPFetcher(baseURL string, client *http.Client) (*HTTPFetcher, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPFetcher{base: u, client: client}, nil
}

func (f *HTTPFetcher) Fetch(ctx context.Context, p string) ([]byte, error) {
	name, err := CleanPath(p)
	if err != nil {
		return nil, err
	}
	target := f.base.ResolveReference(&url.URL{Path: name})

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Cache-Control", "no-store")
	req.Header.Set("Accept", "application/json, */*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%s: %w", target, fs.ErrNotExist)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s returned status %d", target, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// NewFetcher picks an HTTPFetcher for http(s) URLs and a DirFetcher otherwise.
func NewFetcher(root string, client *http.Client, dirFS func(string) fs.FS) (Fetcher, error) {
	if strings.HasPrefix(root, "http://") || strings.HasPrefix(root, "https://") {
		f, err := NewHTTPFetcher(root, client)
		if err != nil {
			return nil, err
		}
		return f, nil
	}
	if root == "" {
		return nil, errors.New("data source is empty")
	}
	return NewDirFetcher(dirFS(root)), nil
}
