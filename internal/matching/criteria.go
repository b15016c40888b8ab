package matching

import (
	"fmt"
	"strings"

	"github.com/spigell/trial-screener/internal/patient"
	"github.com/spigell/trial-screener/internal/trials"
)

const (
	CriterionDiagnosis = "diagnosis"
	CriterionAge       = "age"
	CriterionLocation  = "location"
)

// criterion returns whether it holds and the line explaining the outcome.
type criterion struct {
	name  string
	check func(p *patient.Record, t *trials.Trial) (bool, string)
}

func defaultCriteria() []criterion {
	return []criterion{
		{name: CriterionDiagnosis, check: checkDiagnosis},
		{name: CriterionAge, check: checkAge},
		{name: CriterionLocation, check: checkLocation},
	}
}

// checkDiagnosis looks for the trial condition inside the patient diagnosis.
func checkDiagnosis(p *patient.Record, t *trials.Trial) (bool, string) {
	if containsFold(p.Diagnosis, t.Condition) {
		return true, fmt.Sprintf("Diagnosis match: %s", p.Diagnosis)
	}
	return false, fmt.Sprintf("Diagnosis mismatch: %s != %s", p.Diagnosis, t.Condition)
}

func checkAge(p *patient.Record, t *trials.Trial) (bool, string) {
	if t.AgeMin <= p.Age && p.Age <= t.AgeMax {
		return true, fmt.Sprintf("Age %d within range %d-%d", p.Age, t.AgeMin, t.AgeMax)
	}
	return false, fmt.Sprintf("Age %d outside %d-%d", p.Age, t.AgeMin, t.AgeMax)
}

// checkLocation passes when any trial site is contained in the patient location.
// "Toronto" matches "Toronto, ON" but "Toronto" does not match a site "Toronto, ON".
func checkLocation(p *patient.Record, t *trials.Trial) (bool, string) {
	for _, site := range t.Locations {
		if containsFold(p.Location, site) {
			return true, fmt.Sprintf("Location match: %s", p.Location)
		}
	}
	return false, fmt.Sprintf("Location %s not in trial sites [%s]", p.Location, strings.Join(t.Locations, ", "))
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
