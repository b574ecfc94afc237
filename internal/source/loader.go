package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/denkain-drill/backend/internal/domain/catalog"
	"github.com/denkain-drill/backend/internal/domain/questionbank"
)

// CatalogPath is where the catalog lives relative to the data root.
const CatalogPath = "data/catalog.json"

var (
	ErrUnavailable = errors.New("data unavailable")
	ErrMalformed   = errors.New("data malformed")
)

type datasetFile struct {
	Meta struct {
		Label string `json:"label"`
	} `json:"meta"`
	Questions []questionbank.Question `json:"questions"`
}

// Loader turns fetched bytes into a catalog or a validated question bank.
// It never returns an empty result in place of an error.
type Loader struct {
	fetcher Fetcher
}

func NewLoader(f Fetcher) *Loader {
	return &Loader{fetcher: f}
}

func (l *Loader) Catalog(ctx context.Context) (*catalog.Catalog, error) {
	raw, err := l.fetcher.Fetch(ctx, CatalogPath)
	if err != nil {
		return nil, fmt.Errorf("%w: catalog: %v", ErrUnavailable, err)
	}

	var c catalog.Catalog
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("%w: catalog: %v", ErrMalformed, err)
	}
	return &c, nil
}

// Dataset resolves ref against the catalog and loads its questions.
func (l *Loader) Dataset(ctx context.Context, c *catalog.Catalog, ref catalog.DatasetRef) (*questionbank.QuestionBank, error) {
	subject, err := c.Resolve(ref)
	if err != nil {
		return nil, err
	}

	raw, err := l.fetcher.Fetch(ctx, subject.Data)
	if err != nil {
		return nil, fmt.Errorf("%w: dataset %s: %v", ErrUnavailable, ref, err)
	}

	var file datasetFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("%w: dataset %s: %v", ErrMalformed, ref, err)
	}

	label := file.Meta.Label
	if label == "" {
		label = c.Label(ref)
	}
	bank := questionbank.New(ref.Key(), label)
	if file.Questions != nil {
		bank.Questions = file.Questions
	}
	if err := bank.Validate(); err != nil {
		return nil, fmt.Errorf("%w: dataset %s: %v", ErrMalformed, ref, err)
	}
	return bank, nil
}
