// Package audit records parse outcomes through a narrow interface. The
// pipeline treats recording as best effort; a recorder failure never fails
// a request.
package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/wealthdesk/stmtparse/internal/model"
)

// Outcome is the telemetry captured for one parse. It deliberately excludes
// the extracted payload; only aggregate shape and timing are kept.
type Outcome struct {
	ProcessedAt     time.Time
	RequestID       string
	Method          model.ParsingMethod
	DecisionState   string
	DateProvenance  model.DateProvenance
	Duration        time.Duration
	Confidence      float64
	CategoryCount   int
	TypeCount       int
	IdentifierCount int
	MLSkipped       bool
}

// FromResult derives an Outcome from a finished ParseResult.
func FromResult(r *model.ParseResult) Outcome {
	typeCount := 0
	for _, c := range r.Selection.Categories() {
		typeCount += len(r.Selection.Types(c))
	}
	return Outcome{
		ProcessedAt:     r.Metadata.ProcessedAt,
		RequestID:       r.RequestID,
		Method:          r.Method,
		DecisionState:   r.Metadata.DecisionState,
		DateProvenance:  r.DateRange.Provenance,
		Duration:        r.Metadata.Duration,
		Confidence:      r.Confidence,
		CategoryCount:   len(r.Selection.Categories()),
		TypeCount:       typeCount,
		IdentifierCount: r.Identifiers.Count(),
		MLSkipped:       r.Metadata.MLSkipped,
	}
}

// Recorder is the outcome sink contract.
type Recorder interface {
	Record(ctx context.Context, outcome Outcome) error
	Close() error
}

// SlogRecorder writes outcomes to the structured log. It is the default
// when no audit store is configured.
type SlogRecorder struct {
	Logger *slog.Logger
}

// Record logs the outcome at info level.
func (r *SlogRecorder) Record(_ context.Context, o Outcome) error {
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("parse outcome",
		"request_id", o.RequestID,
		"confidence", o.Confidence,
		"method", o.Method,
		"state", o.DecisionState,
		"date_provenance", o.DateProvenance,
		"categories", o.CategoryCount,
		"types", o.TypeCount,
		"identifiers", o.IdentifierCount,
		"ml_skipped", o.MLSkipped,
		"duration_ms", o.Duration.Milliseconds())
	return nil
}

// Close implements Recorder.
func (r *SlogRecorder) Close() error { return nil }
