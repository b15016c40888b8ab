package patient

import (
	"errors"
	"strings"
	"testing"
)

func TestNewAgeBoundaries(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		age     int
		wantErr bool
	}{
		{name: "negative", age: -1, wantErr: true},
		{name: "lower bound", age: 0},
		{name: "adult", age: 52},
		{name: "upper bound", age: 120},
		{name: "above upper bound", age: 121, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			record, err := New(Record{ID: "P-1", Age: tt.age, Diagnosis: "Asthma", Location: "Toronto"})
			if !tt.wantErr {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if record.Age != tt.age {
					t.Fatalf("expected age %d, got %d", tt.age, record.Age)
				}
				return
			}

			var validationErr *ValidationError
			if !errors.As(err, &validationErr) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if _, ok := validationErr.Fields["age"]; !ok {
				t.Fatalf("expected age field in validation error, got %+v", validationErr.Fields)
			}
		})
	}
}

func TestNewDefaultsContainers(t *testing.T) {
	record, err := New(Record{ID: "P-2", Age: 40, Diagnosis: "Hypertension", Location: "Vancouver"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if record.Biomarkers == nil || len(record.Biomarkers) != 0 {
		t.Fatalf("expected empty biomarkers map, got %#v", record.Biomarkers)
	}

	if record.Medications == nil || len(record.Medications) != 0 {
		t.Fatalf("expected empty medications list, got %#v", record.Medications)
	}
}

func TestNewCopiesContainers(t *testing.T) {
	biomarkers := map[string]float64{"HbA1c": 8.2}
	medications := []string{"Metformin"}

	record, err := New(Record{ID: "P-99", Age: 52, Biomarkers: biomarkers, Medications: medications})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	biomarkers["HbA1c"] = 0
	medications[0] = "Insulin"

	if record.Biomarkers["HbA1c"] != 8.2 {
		t.Fatalf("record biomarkers changed with caller map: %v", record.Biomarkers)
	}
	if record.Medications[0] != "Metformin" {
		t.Fatalf("record medications changed with caller slice: %v", record.Medications)
	}
}

func TestSentinel(t *testing.T) {
	cause := errors.New(strings.Repeat("x", 80))
	record := Sentinel(cause)

	if record.ID != SentinelID || record.Age != 0 || record.Location != SentinelLocation {
		t.Fatalf("unexpected sentinel record: %+v", record)
	}

	if record.Diagnosis != "Failed: "+strings.Repeat("x", 50) {
		t.Fatalf("unexpected sentinel diagnosis: %q", record.Diagnosis)
	}

	if !record.IsSentinel() {
		t.Fatalf("expected sentinel record to be reported as sentinel")
	}

	if Sentinel(nil).Diagnosis != "Failed: unknown error" {
		t.Fatalf("unexpected diagnosis for nil cause")
	}
}

func TestRecordWithSentinelValuesIsNotSentinel(t *testing.T) {
	record, err := New(Record{ID: SentinelID, Age: 0, Diagnosis: "Asthma", Location: SentinelLocation})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if record.IsSentinel() {
		t.Fatalf("validated record must not be reported as sentinel")
	}
}

func TestValidationErrorMessage(t *testing.T) {
	_, err := New(Record{ID: "P-3", Age: 121})
	if err == nil {
		t.Fatal("expected error")
	}

	if got := err.Error(); got != "invalid patient record: age: 121 is above the maximum of 120" {
		t.Fatalf("unexpected message: %q", got)
	}
}
