// Package trials describes clinical trials and the catalogs that supply them.
package trials

import (
	"maps"
	"slices"
)

// BiomarkerRange is an inclusive numeric range for a required biomarker.
type BiomarkerRange struct {
	Min float64 `yaml:"min" json:"min"`
	Max float64 `yaml:"max" json:"max"`
}

// Trial is a single trial definition. Biomarker ranges and excluded
// medications are carried for reference and not used by matching.
type Trial struct {
	ID                  string                    `yaml:"trial_id" json:"trial_id"`
	Title               string                    `yaml:"title" json:"title"`
	Condition           string                    `yaml:"condition" json:"condition"`
	Phase               string                    `yaml:"phase" json:"phase"`
	AgeMin              int                       `yaml:"age_min" json:"age_min"`
	AgeMax              int                       `yaml:"age_max" json:"age_max"`
	RequiredBiomarkers  map[string]BiomarkerRange `yaml:"required_biomarkers" json:"required_biomarkers"`
	ExcludedMedications []string                  `yaml:"excluded_medications" json:"excluded_medications"`
	Locations           []string                  `yaml:"locations" json:"locations"`
}

// Source supplies the ordered list of trials to screen against.
type Source interface {
	Trials() []Trial
}

// Catalog is a read-only, ordered set of trials.
type Catalog struct {
	items []Trial
}

// NewCatalog returns a catalog over a copy of the provided trials.
func NewCatalog(items []Trial) *Catalog {
	c := &Catalog{items: make([]Trial, 0, len(items))}
	for _, item := range items {
		c.items = append(c.items, item.clone())
	}
	return c
}

// Trials returns the catalog in its original order. The result may be modified by the caller.
func (c *Catalog) Trials() []Trial {
	out := make([]Trial, 0, len(c.items))
	for _, item := range c.items {
		out = append(out, item.clone())
	}
	return out
}

func (c *Catalog) Len() int {
	return len(c.items)
}

// FindByID returns the trial with the given identifier or nil.
func (c *Catalog) FindByID(id string) *Trial {
	for _, item := range c.items {
		if item.ID == id {
			found := item.clone()
			return &found
		}
	}
	return nil
}

// IDs returns trial identifiers in catalog order.
func (c *Catalog) IDs() []string {
	ids := make([]string, 0, len(c.items))
	for _, item := range c.items {
		ids = append(ids, item.ID)
	}
	return ids
}

func (t Trial) clone() Trial {
	t.RequiredBiomarkers = maps.Clone(t.RequiredBiomarkers)
	t.ExcludedMedications = slices.Clone(t.ExcludedMedications)
	t.Locations = slices.Clone(t.Locations)
	return t
}

// Default returns the built-in catalog used when no trials file is configured.
func Default() *Catalog {
	return NewCatalog([]Trial{
		{
			ID:                  "NCT001",
			Title:               "Diabetes Phase 3",
			Condition:           "Diabetes",
			Phase:               "Phase 3",
			AgeMin:              18,
			AgeMax:              75,
			Locations:           []string{"Toronto", "Montreal"},
			ExcludedMedications: []string{"Insulin"},
		},
		{
			ID:                  "NCT002",
			Title:               "Hypertension Study",
			Condition:           "Hypertension",
			Phase:               "Phase 2",
			AgeMin:              40,
			AgeMax:              80,
			Locations:           []string{"Vancouver"},
			ExcludedMedications: []string{},
		},
	})
}
