// Package matching decides whether a patient is eligible for a trial.
//
// Three criteria are evaluated in order (diagnosis, age, location). Each one
// contributes a reasoning line when satisfied and a missing-criteria line when
// not. A patient is eligible only when every criterion is satisfied.
package matching

import (
	"time"

	"github.com/spigell/trial-screener/internal/patient"
	"github.com/spigell/trial-screener/internal/trials"
)

// Decision is the outcome of evaluating one patient against one trial.
type Decision struct {
	PatientID  string    `json:"patient_id"`
	TrialID    string    `json:"trial_id"`
	Eligible   bool      `json:"match_decision"`
	Confidence float64   `json:"confidence_score"`
	Reasoning  []string  `json:"reasoning"`
	Missing    []string  `json:"missing_criteria"`
	CreatedAt  time.Time `json:"timestamp"`
}

// Checks returns the number of criteria that were evaluated.
func (d *Decision) Checks() int {
	return len(d.Reasoning) + len(d.Missing)
}

// Matcher evaluates patients against trials. The zero value is not usable; call New.
type Matcher struct {
	criteria []criterion
	now      func() time.Time
}

// New returns a matcher with the diagnosis, age and location criteria.
func New() *Matcher {
	return &Matcher{
		criteria: defaultCriteria(),
		now:      time.Now,
	}
}

// Evaluate applies every criterion and returns a fresh decision.
func (m *Matcher) Evaluate(p *patient.Record, t *trials.Trial) *Decision {
	decision := &Decision{
		PatientID: p.ID,
		TrialID:   t.ID,
		Reasoning: make([]string, 0, len(m.criteria)),
		Missing:   make([]string, 0, len(m.criteria)),
		CreatedAt: m.now(),
	}

	passed := 0
	for _, c := range m.criteria {
		ok, explanation := c.check(p, t)
		if ok {
			passed++
			decision.Reasoning = append(decision.Reasoning, explanation)
			continue
		}
		decision.Missing = append(decision.Missing, explanation)
	}

	if total := len(m.criteria); total > 0 {
		decision.Confidence = float64(passed) / float64(total)
	}

	decision.Eligible = len(m.criteria) > 0 && passed == len(m.criteria)

	return decision
}

// Criteria lists criterion names in evaluation order.
func (m *Matcher) Criteria() []string {
	names := make([]string, 0, len(m.criteria))
	for _, c := range m.criteria {
		names = append(names, c.name)
	}
	return names
}
