package engine

import (
	"strings"

	"github.com/wealthdesk/stmtparse/internal/ml"
	"github.com/wealthdesk/stmtparse/internal/model"
	"github.com/wealthdesk/stmtparse/internal/score"
)

// RuleOutput bundles the rule-based pipeline's partial results before and
// after merging.
type RuleOutput struct {
	Identifiers model.IdentifierSet
	DateRange   model.DateRange
	Selection   model.StatementSelection
}

// Merger reconciles rule-based output with a statistical prediction field
// by field. Merging a prediction that mirrors the rule output is a no-op.
type Merger struct {
	// validate vets ML-suggested identifiers against the structural
	// patterns; invalid suggestions are discarded.
	validate func(model.IdentifierKind, string) bool
	// margin is the category weight difference above which the
	// higher-weight source's label set wins outright.
	margin float64
}

// NewMerger creates a merger with the given conflict margin and identifier
// validator.
func NewMerger(margin float64, validate func(model.IdentifierKind, string) bool) *Merger {
	return &Merger{margin: margin, validate: validate}
}

// Merge applies the reconciliation rules:
//   - identifiers: union of both sources' valid matches
//   - date range: rule-based wins unless it is the default and the model
//     proposes an explicit range with higher confidence
//   - selection: union per category, unless one source's weight exceeds the
//     other's by more than the margin; exact ties favor rule-based output
func (m *Merger) Merge(rule RuleOutput, pred *ml.Prediction) RuleOutput {
	if pred == nil {
		return rule
	}

	out := RuleOutput{
		Identifiers: m.mergeIdentifiers(rule.Identifiers, pred),
		DateRange:   m.mergeDateRange(rule.DateRange, pred),
		Selection:   m.mergeSelection(rule.Selection, pred.Selection()),
	}
	return out
}

func (m *Merger) mergeIdentifiers(ids model.IdentifierSet, pred *ml.Prediction) model.IdentifierSet {
	out := ids.Clone()
	for _, kind := range model.AllIdentifierKinds {
		for _, v := range pred.Identifiers[string(kind)] {
			v = strings.ToUpper(strings.TrimSpace(v))
			if v == "" {
				continue
			}
			if m.validate != nil && !m.validate(kind, v) {
				continue
			}
			out.Add(kind, v)
		}
	}
	return out
}

func (m *Merger) mergeDateRange(dr model.DateRange, pred *ml.Prediction) model.DateRange {
	if !dr.IsDefault() || !pred.HasDateRange() {
		return dr
	}
	if pred.Confidence <= score.DateConfidence(model.ProvenanceDefault) {
		return dr
	}
	return model.NewDateRange(*pred.FromDate, *pred.ToDate, model.ProvenanceExplicitRange)
}

func (m *Merger) mergeSelection(rule, predicted model.StatementSelection) model.StatementSelection {
	out := model.NewStatementSelection()

	categories := make(map[string]struct{})
	for _, c := range rule.Categories() {
		categories[c] = struct{}{}
	}
	for _, c := range predicted.Categories() {
		categories[c] = struct{}{}
	}

	for cat := range categories {
		rw := rule.CategoryMaxWeight(cat)
		pw := predicted.CategoryMaxWeight(cat)

		switch {
		case rw > 0 && pw > 0 && rw-pw > m.margin:
			copyCategory(out, rule, cat)
		case rw > 0 && pw > 0 && pw-rw > m.margin:
			copyCategory(out, predicted, cat)
		case rw > 0 && pw > 0:
			// Within the margin: union, keeping the stronger weight per type.
			unionCategory(out, rule, predicted, cat)
		case rw > 0:
			copyCategory(out, rule, cat)
		default:
			copyCategory(out, predicted, cat)
		}
	}

	return out
}

func copyCategory(dst, src model.StatementSelection, category string) {
	for _, t := range src.Types(category) {
		dst.Set(category, t, src.Weight(category, t))
	}
}

func unionCategory(dst, rule, predicted model.StatementSelection, category string) {
	copyCategory(dst, rule, category)
	for _, t := range predicted.Types(category) {
		if predicted.Weight(category, t) > dst.Weight(category, t) {
			dst.Set(category, t, predicted.Weight(category, t))
		}
	}
}
