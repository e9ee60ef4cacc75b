// Package ml is the boundary to the externally trained statistical
// classifier. The core knows only this input/output contract and the
// classifier's failure modes; the model itself is opaque.
package ml

import (
	"context"
	"fmt"
	"time"

	"github.com/wealthdesk/stmtparse/internal/model"
)

// Label is one category/type guess from the statistical classifier.
type Label struct {
	Category string
	Type     string
	Weight   float64
}

// Prediction is the statistical classifier's output for one text.
type Prediction struct {
	FromDate     *time.Time
	ToDate       *time.Time
	ModelVersion string
	Labels       []Label
	// Identifiers are optional kind-keyed identifier suggestions. They are
	// re-validated against the structural patterns before being admitted
	// into a merged result.
	Identifiers map[string][]string
	// Confidence is the model's own certainty on a 0-100 scale.
	Confidence float64
}

// Validate rejects out-of-range predictions before they reach the merger.
func (p *Prediction) Validate() error {
	if p.Confidence < 0 || p.Confidence > 100 {
		return fmt.Errorf("prediction confidence %.2f outside [0,100]", p.Confidence)
	}
	for _, l := range p.Labels {
		if l.Category == "" || l.Type == "" {
			return fmt.Errorf("prediction label missing category or type")
		}
		if l.Weight < 0 || l.Weight > 1 {
			return fmt.Errorf("label %s/%s weight %.2f outside [0,1]", l.Category, l.Type, l.Weight)
		}
	}
	if (p.FromDate == nil) != (p.ToDate == nil) {
		return fmt.Errorf("prediction date range must have both endpoints or neither")
	}
	if p.FromDate != nil && p.ToDate.Before(*p.FromDate) {
		return fmt.Errorf("prediction date range endpoints out of order")
	}
	return nil
}

// Selection converts the predicted labels into a StatementSelection.
func (p *Prediction) Selection() model.StatementSelection {
	sel := model.NewStatementSelection()
	for _, l := range p.Labels {
		sel.Add(l.Category, l.Type, l.Weight)
	}
	return sel
}

// HasDateRange reports whether the model proposed an explicit range.
func (p *Prediction) HasDateRange() bool {
	return p.FromDate != nil && p.ToDate != nil
}

// Classifier is the inference contract the orchestrator depends on.
type Classifier interface {
	Predict(ctx context.Context, text model.NormalizedText) (*Prediction, error)
}
