package ai

import (
	"errors"
	"testing"

	"github.com/spigell/trial-screener/internal/patient"
)

func TestFailure(t *testing.T) {
	cause := errors.New("parse gemini response: invalid character")
	extraction := Failure(cause, "not json")

	if !extraction.Failed() {
		t.Fatalf("expected failed extraction")
	}

	if !extraction.Patient.IsSentinel() {
		t.Fatalf("expected sentinel patient, got %+v", extraction.Patient)
	}

	if extraction.Raw != "not json" {
		t.Fatalf("unexpected raw: %q", extraction.Raw)
	}

	if !errors.Is(extraction.Err, cause) {
		t.Fatalf("expected cause to be preserved")
	}
}

func TestSucceeded(t *testing.T) {
	record, err := patient.New(patient.Record{ID: "P-1", Age: 30})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	extraction := &Extraction{Patient: record}
	if extraction.Failed() {
		t.Fatalf("expected successful extraction")
	}

	var missing *Extraction
	if !missing.Failed() {
		t.Fatalf("nil extraction must count as failed")
	}
}
