package ai

import (
	"context"

	"github.com/spigell/trial-screener/internal/patient"
)

// Extraction is the outcome of turning free text into a patient record.
// Patient is never nil: on failure it is the sentinel record and Err holds the cause.
type Extraction struct {
	Patient *patient.Record
	Raw     string
	Err     error
}

// Failed reports whether the record could not be extracted.
func (e *Extraction) Failed() bool {
	return e == nil || e.Err != nil
}

// Failure builds the extraction outcome for a failed attempt.
func Failure(err error, raw string) *Extraction {
	return &Extraction{
		Patient: patient.Sentinel(err),
		Raw:     raw,
		Err:     err,
	}
}

// Extractor turns unstructured medical text into a patient record.
// Implementations do not return errors; failures are reported through Extraction.
type Extractor interface {
	Extract(ctx context.Context, text string) *Extraction
}
