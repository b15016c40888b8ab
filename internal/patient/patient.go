// Package patient holds the structured patient record produced by extraction.
package patient

import (
	"fmt"
	"maps"
	"slices"

	"github.com/spigell/trial-screener/internal/utils"
)

const (
	// SentinelID marks a record that stands in for a failed extraction.
	SentinelID = "ERR"
	// SentinelLocation is the location of a sentinel record.
	SentinelLocation = "Unknown"

	sentinelReasonLength = 50
)

// Record is a validated patient record. Values returned by New own their
// containers and are not modified afterwards.
type Record struct {
	ID          string             `json:"patient_id"`
	Age         int                `json:"age" validate:"gte=0,lte=120"`
	Diagnosis   string             `json:"diagnosis"`
	Biomarkers  map[string]float64 `json:"biomarkers"`
	Medications []string           `json:"medications"`
	Location    string             `json:"location"`

	sentinel bool
}

// New validates the provided fields and returns an independent copy.
// Nil biomarkers and medications become empty containers.
func New(fields Record) (*Record, error) {
	record := &Record{
		ID:          fields.ID,
		Age:         fields.Age,
		Diagnosis:   fields.Diagnosis,
		Biomarkers:  maps.Clone(fields.Biomarkers),
		Medications: slices.Clone(fields.Medications),
		Location:    fields.Location,
	}

	if record.Biomarkers == nil {
		record.Biomarkers = map[string]float64{}
	}
	if record.Medications == nil {
		record.Medications = []string{}
	}

	if err := validate(record); err != nil {
		return nil, err
	}

	return record, nil
}

// Sentinel returns the placeholder record substituted for a failed extraction.
// It carries a shortened description of the failure in the diagnosis.
func Sentinel(cause error) *Record {
	reason := "unknown error"
	if cause != nil {
		reason = cause.Error()
	}

	return &Record{
		ID:          SentinelID,
		Age:         0,
		Diagnosis:   fmt.Sprintf("Failed: %s", utils.Truncate(reason, sentinelReasonLength)),
		Biomarkers:  map[string]float64{},
		Medications: []string{},
		Location:    SentinelLocation,
		sentinel:    true,
	}
}

// IsSentinel reports whether the record was built by Sentinel. A record
// validated by New is never a sentinel, whatever its field values.
func (r *Record) IsSentinel() bool {
	return r != nil && r.sentinel
}
