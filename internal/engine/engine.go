// Package engine orchestrates the hybrid extraction pipeline: rule-based
// extraction, confidence scoring, threshold-gated statistical fallback, and
// result merging.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/wealthdesk/stmtparse/internal/audit"
	"github.com/wealthdesk/stmtparse/internal/classify"
	"github.com/wealthdesk/stmtparse/internal/common"
	"github.com/wealthdesk/stmtparse/internal/config"
	"github.com/wealthdesk/stmtparse/internal/daterange"
	"github.com/wealthdesk/stmtparse/internal/identifier"
	"github.com/wealthdesk/stmtparse/internal/ml"
	"github.com/wealthdesk/stmtparse/internal/model"
	"github.com/wealthdesk/stmtparse/internal/normalize"
	"github.com/wealthdesk/stmtparse/internal/score"
)

// diOnlyBoost is the confidence multiplier applied when an AIF request is
// demoted because only a DI code was supplied; the DI code remains fully
// valid for PMS.
const diOnlyBoost = 1.1

// Engine is the request-facing entry point. All components are immutable
// after construction; concurrent Parse calls need no synchronization.
type Engine struct {
	cfg        *config.Config
	extractor  *identifier.Extractor
	resolver   *daterange.Resolver
	classifier *classify.Classifier
	scorer     *score.Scorer
	merger     *Merger
	ml         ml.Classifier
	recorder   audit.Recorder
	logger     *slog.Logger
}

// Option customizes an Engine.
type Option func(*Engine)

// WithClassifier injects the statistical classifier. Without one, every
// below-threshold request degrades to rule-based output.
func WithClassifier(c ml.Classifier) Option {
	return func(e *Engine) { e.ml = c }
}

// WithRecorder injects the outcome recorder.
func WithRecorder(r audit.Recorder) Option {
	return func(e *Engine) { e.recorder = r }
}

// WithLogger injects a logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithClock fixes the processing-time reference used by date resolution,
// for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.resolver = daterange.NewResolver(daterange.WithClock(now)) }
}

// New validates the configuration and builds the pipeline.
func New(cfg *config.Config, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	extractor, err := identifier.NewExtractor(cfg.Identifiers)
	if err != nil {
		return nil, fmt.Errorf("building identifier extractor: %w", err)
	}

	scorer, err := score.NewScorer(cfg.Confidence.Weights)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		cfg:        cfg,
		extractor:  extractor,
		resolver:   daterange.NewResolver(),
		classifier: classify.New(cfg.Keywords),
		scorer:     scorer,
		logger:     slog.Default(),
	}
	e.merger = NewMerger(cfg.Merge.Margin, extractor.ValidateValue)

	for _, opt := range opts {
		opt(e)
	}

	return e, nil
}

// Parse runs the full pipeline for one email. It fails only when both
// subject and body are empty; every other condition produces a best-effort
// result whose confidence reflects the available evidence.
func (e *Engine) Parse(ctx context.Context, subject, body string) (*model.ParseResult, error) {
	start := time.Now()

	if strings.TrimSpace(subject) == "" && strings.TrimSpace(body) == "" {
		return nil, common.ErrEmptyInput
	}

	text := normalize.Text(subject, body)

	// The three extractors are independent, pure passes over the text.
	ids := e.extractor.Extract(text)
	dr := e.resolver.Resolve(text)
	sel := e.classifier.Classify(text)

	sel, boosted := e.applyCategoryRules(sel, ids)

	ruleScore := e.scorer.Score(sel, dr, ids)
	if boosted {
		ruleScore = score.Clamp(ruleScore * diOnlyBoost)
	}

	state := DecideState(ruleScore, e.cfg.Thresholds)

	rule := RuleOutput{Identifiers: ids, DateRange: dr, Selection: sel}
	merged := rule
	finalScore := ruleScore
	method := model.MethodRuleBased
	mlSkipped := false
	skipReason := ""

	if state != StateRuleSufficient {
		pred, err := e.predict(ctx, text)
		if err != nil {
			// Recoverable: degrade to rule-based output and note the skip.
			e.logger.Warn("statistical classifier unavailable, using rule-based output",
				"state", state, "error", err)
			mlSkipped = true
			skipReason = err.Error()
			state = StateRuleSufficient
		} else {
			merged = e.merger.Merge(rule, pred)
			merged.Selection, _ = e.applyCategoryRules(merged.Selection, merged.Identifiers)

			mergedScore := e.scorer.Score(merged.Selection, merged.DateRange, merged.Identifiers)
			w := e.cfg.Confidence.MLBlendWeight
			if state == StateMLEnhance {
				finalScore = score.Blend(mergedScore, pred.Confidence, w)
				method = model.MethodMLEnhanced
			} else {
				finalScore = score.Blend(pred.Confidence, mergedScore, w)
				method = model.MethodMLFallback
			}
		}
	}

	dateSource := "email"
	if merged.DateRange.IsDefault() {
		dateSource = "default"
	}

	result := &model.ParseResult{
		RequestID:   uuid.NewString(),
		Identifiers: merged.Identifiers,
		DateRange:   merged.DateRange,
		Selection:   merged.Selection,
		Confidence:  round2(finalScore),
		Method:      method,
		Metadata: model.Metadata{
			ProcessedAt:    time.Now().UTC(),
			Duration:       time.Since(start),
			DecisionState:  string(state),
			DateSource:     dateSource,
			MLSkipped:      mlSkipped,
			MLSkipReason:   skipReason,
			HasIdentifiers: !merged.Identifiers.Empty(),
		},
	}

	e.record(ctx, result)

	e.logger.Debug("parse completed",
		"request_id", result.RequestID,
		"confidence", result.Confidence,
		"method", result.Method,
		"state", state,
		"duration", result.Metadata.Duration)

	return result, nil
}

// predict invokes the statistical classifier with a bounded timeout.
func (e *Engine) predict(ctx context.Context, text model.NormalizedText) (*ml.Prediction, error) {
	if e.ml == nil {
		return nil, fmt.Errorf("%w: no classifier configured", common.ErrClassifierUnavailable)
	}

	ctx, cancel := context.WithTimeout(ctx, e.cfg.Classifier.Timeout)
	defer cancel()

	pred, err := e.ml.Predict(ctx, text)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %v", common.ErrClassifierTimeout, err)
		}
		return nil, err
	}
	if err := pred.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrClassifierUnavailable, err)
	}
	return pred, nil
}

// applyCategoryRules enforces the business constraint that AIF statements
// require an AIF folio or a PAN. A request carrying only a DI code keeps
// its PMS labels and earns a small confidence boost instead.
func (e *Engine) applyCategoryRules(sel model.StatementSelection, ids model.IdentifierSet) (model.StatementSelection, bool) {
	if !sel.Has("AIF") {
		return sel, false
	}
	if ids.Has(model.KindAIFFolio) || ids.Has(model.KindPAN) {
		return sel, false
	}

	out := sel.Clone()
	out.Drop("AIF")

	if ids.Has(model.KindDICode) {
		e.logger.Info("AIF selection dropped: requires AIF folio or PAN, DI code only")
		return out, true
	}
	return out, false
}

func (e *Engine) record(ctx context.Context, result *model.ParseResult) {
	if e.recorder == nil {
		return
	}
	if err := e.recorder.Record(ctx, audit.FromResult(result)); err != nil {
		e.logger.Warn("failed to record parse outcome",
			"request_id", result.RequestID, "error", err)
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
