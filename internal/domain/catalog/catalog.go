package catalog

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnknownDataset = errors.New("unknown dataset")

// Catalog is the selection hierarchy: Year → Terms → Subjects.
// Each subject points at one dataset file.
type Catalog struct {
	Years []Year `json:"years"`
}

type Year struct {
	Year  string `json:"year"`
	Terms []Term `json:"terms"`
}

type Term struct {
	Term     string    `json:"term"`
	Label    string    `json:"label"`
	Subjects []Subject `json:"subjects"`
}

type Subject struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Data  string `json:"data"` // dataset path relative to the data source
}

// DatasetRef names one subject of one term of one year.
type DatasetRef struct {
	Year    string `json:"year"`
	Term    string `json:"term"`
	Subject string `json:"subject"`
}

// Key identifies the dataset across the whole catalog. Statistics are scoped
// by it so that question ids only need to be unique within a dataset.
func (r DatasetRef) Key() string {
	return r.Year + "/" + r.Term + "/" + r.Subject
}

func (r DatasetRef) String() string {
	return r.Key()
}

func (r DatasetRef) IsZero() bool {
	return r.Year == "" && r.Term == "" && r.Subject == ""
}

// Resolve finds the subject a ref points at.
func (c *Catalog) Resolve(ref DatasetRef) (Subject, error) {
	for _, y := range c.Years {
		if y.Year != ref.Year {
			continue
		}
		for _, t := range y.Terms {
			if t.Term != ref.Term {
				continue
			}
			for _, s := range t.Subjects {
				if s.ID == ref.Subject {
					return s, nil
				}
			}
		}
	}
	return Subject{}, fmt.Errorf("%w: %s", ErrUnknownDataset, ref)
}

// First returns the first subject of the first term of the first year,
// the selection shown when nothing was chosen yet.
func (c *Catalog) First() (DatasetRef, bool) {
	for _, y := range c.Years {
		for _, t := range y.Terms {
			if len(t.Subjects) > 0 {
				return DatasetRef{Year: y.Year, Term: t.Term, Subject: t.Subjects[0].ID}, true
			}
		}
	}
	return DatasetRef{}, false
}

// Refs lists every dataset in catalog order.
func (c *Catalog) Refs() []DatasetRef {
	var refs []DatasetRef
	for _, y := range c.Years {
		for _, t := range y.Terms {
			for _, s := range t.Subjects {
				refs = append(refs, DatasetRef{Year: y.Year, Term: t.Term, Subject: s.ID})
			}
		}
	}
	return refs
}

// Label renders a human readable name, falling back to ids when labels
// are missing.
func (c *Catalog) Label(ref DatasetRef) string {
	for _, y := range c.Years {
		if y.Year != ref.Year {
			continue
		}
		for _, t := range y.Terms {
			if t.Term != ref.Term {
				continue
			}
			for _, s := range t.Subjects {
				if s.ID == ref.Subject {
					return strings.Join([]string{y.Year, orDefault(t.Label, t.Term), orDefault(s.Label, s.ID)}, " ")
				}
			}
		}
	}
	return ref.Key()
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
