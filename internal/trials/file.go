package trials

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"go.yaml.in/yaml/v3"
)

type catalogFile struct {
	Trials []Trial `yaml:"trials"`
}

// LoadFile reads a YAML catalog of the form:
//
//	trials:
//	  - trial_id: NCT001
//	    condition: Diabetes
//	    age_min: 18
//	    age_max: 75
//	    locations: [Toronto, Montreal]
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading trials file %q: %w", path, err)
	}

	return Parse(data)
}

// Parse decodes and validates a YAML catalog.
func Parse(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse trials: %w", err)
	}

	if err := validateTrials(file.Trials); err != nil {
		return nil, err
	}

	return NewCatalog(file.Trials), nil
}

func validateTrials(items []Trial) error {
	var errs []error
	seen := make(map[string]struct{}, len(items))

	for idx, item := range items {
		id := strings.TrimSpace(item.ID)
		if id == "" {
			errs = append(errs, fmt.Errorf("trial #%d: trial_id is required", idx+1))
			continue
		}

		if _, ok := seen[id]; ok {
			errs = append(errs, fmt.Errorf("trial %s: duplicate trial_id", id))
		}
		seen[id] = struct{}{}

		if item.AgeMin > item.AgeMax {
			errs = append(errs, fmt.Errorf("trial %s: age_min %d is greater than age_max %d", id, item.AgeMin, item.AgeMax))
		}

		for name, rng := range item.RequiredBiomarkers {
			if rng.Min > rng.Max {
				errs = append(errs, fmt.Errorf("trial %s: biomarker %s range min %v is greater than max %v", id, name, rng.Min, rng.Max))
			}
		}
	}

	return errors.Join(errs...)
}
