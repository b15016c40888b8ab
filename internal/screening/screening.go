// Package screening runs a medical record through extraction and then
// matches the resulting patient against every trial, in trial order.
package screening

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spigell/trial-screener/internal/ai"
	"github.com/spigell/trial-screener/internal/logger"
	"github.com/spigell/trial-screener/internal/matching"
	"github.com/spigell/trial-screener/internal/trials"
)

var (
	errNoExtractor  = errors.New("no extractor configured")
	errNoExtraction = errors.New("extractor returned no result")
)

// HistoryEntry records one completed run.
type HistoryEntry struct {
	RunID            string    `json:"run_id"`
	Time             time.Time `json:"time"`
	Matches          int       `json:"matches"`
	Eligible         int       `json:"eligible"`
	ExtractionFailed bool      `json:"extraction_failed"`
}

// Result is the full outcome of a run.
type Result struct {
	RunID      string
	Extraction *ai.Extraction
	Decisions  []*matching.Decision
}

// Evaluated reports whether the decisions were made against an extracted
// patient rather than the sentinel record.
func (r *Result) Evaluated() bool {
	return !r.Extraction.Failed()
}

// Eligible returns the decisions with a positive outcome, in trial order.
func (r *Result) Eligible() []*matching.Decision {
	eligible := make([]*matching.Decision, 0, len(r.Decisions))
	for _, d := range r.Decisions {
		if d.Eligible {
			eligible = append(eligible, d)
		}
	}
	return eligible
}

// Orchestrator sequences extraction and matching and keeps an append-only
// history for the lifetime of the process.
type Orchestrator struct {
	extractor ai.Extractor
	matcher   *matching.Matcher
	logger    *zap.Logger
	now       func() time.Time

	mu      sync.Mutex
	history []HistoryEntry
}

func New(extractor ai.Extractor, matcher *matching.Matcher, log *zap.Logger) *Orchestrator {
	if matcher == nil {
		matcher = matching.New()
	}

	return &Orchestrator{
		extractor: extractor,
		matcher:   matcher,
		logger:    logger.WithFields(log),
		now:       time.Now,
	}
}

// Run returns one decision per trial, in the order of the trials slice.
func (o *Orchestrator) Run(ctx context.Context, text string, items []trials.Trial) []*matching.Decision {
	return o.Screen(ctx, text, items).Decisions
}

// Screen is Run with access to the extraction outcome.
func (o *Orchestrator) Screen(ctx context.Context, text string, items []trials.Trial) *Result {
	runID := uuid.NewString()
	runLogger := o.logger.With(zap.String(logger.FieldRunID, runID))

	extraction := o.extract(ctx, text)

	decisions := make([]*matching.Decision, 0, len(items))
	for i := range items {
		decision := o.matcher.Evaluate(extraction.Patient, &items[i])
		runLogger.Debug("trial evaluated", append(
			logger.MatchFields(decision.PatientID, decision.TrialID),
			zap.Bool("eligible", decision.Eligible),
			zap.Float64("confidence", decision.Confidence),
			zap.Strings("missing_criteria", decision.Missing),
		)...)
		decisions = append(decisions, decision)
	}

	result := &Result{RunID: runID, Extraction: extraction, Decisions: decisions}
	eligible := len(result.Eligible())

	o.appendHistory(HistoryEntry{
		RunID:            runID,
		Time:             o.now(),
		Matches:          len(decisions),
		Eligible:         eligible,
		ExtractionFailed: extraction.Failed(),
	})

	fields := []zap.Field{
		zap.String(logger.FieldPatientID, extraction.Patient.ID),
		zap.Int("trials", len(items)),
		zap.Int("eligible", eligible),
		zap.Strings("criteria", o.matcher.Criteria()),
	}
	if extraction.Failed() {
		runLogger.Warn("screening completed without an extracted patient", append(fields, zap.Error(extraction.Err))...)
	} else {
		runLogger.Info("screening completed", fields...)
	}

	return result
}

func (o *Orchestrator) extract(ctx context.Context, text string) *ai.Extraction {
	if o.extractor == nil {
		return ai.Failure(errNoExtractor, "")
	}

	extraction := o.extractor.Extract(ctx, text)
	switch {
	case extraction == nil:
		return ai.Failure(errNoExtraction, "")
	case extraction.Patient == nil:
		cause := extraction.Err
		if cause == nil {
			cause = errNoExtraction
		}
		return ai.Failure(cause, extraction.Raw)
	}

	return extraction
}

// History returns a snapshot of past runs, oldest first.
func (o *Orchestrator) History() []HistoryEntry {
	o.mu.Lock()
	defer o.mu.Unlock()

	return slices.Clone(o.history)
}

func (o *Orchestrator) appendHistory(entry HistoryEntry) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.history = append(o.history, entry)
}
