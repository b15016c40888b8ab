// Package report renders screening results for the command line.
package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/spigell/trial-screener/internal/matching"
	"github.com/spigell/trial-screener/internal/screening"
	"github.com/spigell/trial-screener/internal/trials"
)

// Summary holds the dashboard counts of a run.
type Summary struct {
	RunID         string `json:"run_id"`
	PatientID     string `json:"patient_id"`
	Evaluated     bool   `json:"evaluated"`
	TrialsChecked int    `json:"trials_checked"`
	Eligible      int    `json:"eligible_matches"`
	Error         string `json:"extraction_error,omitempty"`
}

// Document is the machine-readable form of a run.
type Document struct {
	Summary   Summary              `json:"summary"`
	Decisions []*matching.Decision `json:"decisions"`
}

func Summarize(result *screening.Result) Summary {
	summary := Summary{
		RunID:         result.RunID,
		Evaluated:     result.Evaluated(),
		TrialsChecked: len(result.Decisions),
		Eligible:      len(result.Eligible()),
	}

	if result.Extraction != nil {
		if result.Extraction.Patient != nil {
			summary.PatientID = result.Extraction.Patient.ID
		}
		if result.Extraction.Err != nil {
			summary.Error = result.Extraction.Err.Error()
		}
	}

	return summary
}

func NewDocument(result *screening.Result) *Document {
	return &Document{
		Summary:   Summarize(result),
		Decisions: result.Decisions,
	}
}

// WriteJSON writes the document as indented JSON.
func WriteJSON(w io.Writer, doc *Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// DumpToTmpFile writes the document to a new temporary file and returns its name.
// The file is removed when it cannot be written completely.
func DumpToTmpFile(doc *Document) (string, error) {
	return dumpToFile(doc, os.TempDir())
}

func dumpToFile(doc *Document, dir string) (string, error) {
	file, err := os.CreateTemp(dir, "screening_*.json")
	if err != nil {
		return "", err
	}

	writeErr := WriteJSON(file, doc)
	closeErr := file.Close()
	if err := errors.Join(writeErr, closeErr); err != nil {
		os.Remove(file.Name())
		return "", fmt.Errorf("writing %s: %w", file.Name(), err)
	}

	return file.Name(), nil
}

// WriteText renders a human-readable card per decision, in decision order.
func WriteText(w io.Writer, result *screening.Result) error {
	summary := Summarize(result)

	var b strings.Builder
	fmt.Fprintf(&b, "Trials checked: %d\n", summary.TrialsChecked)
	fmt.Fprintf(&b, "Eligible matches: %d\n", summary.Eligible)
	if !summary.Evaluated {
		fmt.Fprintf(&b, "Warning: patient data could not be extracted (%s)\n", summary.Error)
	}

	for _, d := range result.Decisions {
		b.WriteString("\n")
		b.WriteString(Card(d))
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// Card renders a single decision.
func Card(d *matching.Decision) string {
	icon := "[x]"
	if d.Eligible {
		icon = "[v]"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s Trial: %s (%s)\n", icon, d.TrialID, Percent(d.Confidence))
	fmt.Fprintf(&b, "  Decision: %t\n", d.Eligible)
	b.WriteString("  Reasoning:\n")
	for _, r := range d.Reasoning {
		fmt.Fprintf(&b, "    - %s\n", r)
	}
	if len(d.Missing) > 0 {
		b.WriteString("  Missing Criteria:\n")
		for _, m := range d.Missing {
			fmt.Fprintf(&b, "    - %s\n", m)
		}
	}
	return b.String()
}

// Percent formats a confidence score the way the dashboard shows it.
func Percent(score float64) string {
	return fmt.Sprintf("%.0f%%", score*100)
}

// WriteTrials lists a catalog, one trial per block.
func WriteTrials(w io.Writer, items []trials.Trial) error {
	var b strings.Builder
	for _, t := range items {
		fmt.Fprintf(&b, "%s  %s (%s)\n", t.ID, t.Title, t.Phase)
		fmt.Fprintf(&b, "  condition: %s\n", t.Condition)
		fmt.Fprintf(&b, "  age: %d-%d\n", t.AgeMin, t.AgeMax)
		fmt.Fprintf(&b, "  locations: %s\n", strings.Join(t.Locations, ", "))
		if len(t.ExcludedMedications) > 0 {
			fmt.Fprintf(&b, "  excluded medications: %s\n", strings.Join(t.ExcludedMedications, ", "))
		}
		for _, name := range slices.Sorted(maps.Keys(t.RequiredBiomarkers)) {
			rng := t.RequiredBiomarkers[name]
			fmt.Fprintf(&b, "  biomarker %s: %v-%v\n", name, rng.Min, rng.Max)
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}
