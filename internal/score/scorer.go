// Package score combines the pipeline's partial scores into one overall
// confidence value on a 0-100 scale.
package score

import (
	"fmt"
	"math"

	"github.com/wealthdesk/stmtparse/internal/common"
	"github.com/wealthdesk/stmtparse/internal/config"
	"github.com/wealthdesk/stmtparse/internal/model"
)

// Per-kind identifier points, reflecting how strongly each kind pins down
// the requesting holder.
var identifierPoints = map[model.IdentifierKind]float64{
	model.KindPAN:         40,
	model.KindDICode:      35,
	model.KindAIFFolio:    15,
	model.KindAccountCode: 10,
}

// noIdentifierFloor keeps a total absence of identifiers from zeroing the
// whole score; many legitimate requests name the holder in prose only.
const noIdentifierFloor = 30.0

// Scorer is a pure function over its configured weights; safe for
// concurrent use.
type Scorer struct {
	weights config.Weights
}

// NewScorer validates that the sub-score weights sum to 1.0.
func NewScorer(w config.Weights) (*Scorer, error) {
	sum := w.StatementType + w.DateParsing + w.Identifiers
	if math.Abs(sum-1.0) > 1e-6 {
		return nil, fmt.Errorf("%w: confidence weights must sum to 1.0, got %.4f", common.ErrInvalidConfig, sum)
	}
	return &Scorer{weights: w}, nil
}

// Score combines the three sub-scores under the configured weights and
// clamps the result to [0, 100].
func (s *Scorer) Score(sel model.StatementSelection, dr model.DateRange, ids model.IdentifierSet) float64 {
	total := StatementConfidence(sel)*s.weights.StatementType +
		DateConfidence(dr.Provenance)*s.weights.DateParsing +
		IdentifierConfidence(ids)*s.weights.Identifiers
	return Clamp(total)
}

// StatementConfidence is the best matched type weight scaled to 0-100.
func StatementConfidence(sel model.StatementSelection) float64 {
	return sel.MaxWeight() * 100
}

// DateConfidence rates the date range by how explicit its provenance is.
func DateConfidence(p model.DateProvenance) float64 {
	switch p {
	case model.ProvenanceExplicitRange:
		return 95
	case model.ProvenanceExplicitSingle:
		return 90
	case model.ProvenanceFiscalYear:
		return 90
	case model.ProvenanceRelative:
		return 80
	default:
		return 0
	}
}

// IdentifierConfidence scores identifier presence by kind diversity, with
// stronger kinds worth more points.
func IdentifierConfidence(ids model.IdentifierSet) float64 {
	if ids.Empty() {
		return noIdentifierFloor
	}
	total := 0.0
	for kind, points := range identifierPoints {
		if ids.Has(kind) {
			total += points
		}
	}
	return Clamp(total)
}

// Blend mixes a secondary confidence source into a primary one. weight is
// the secondary source's share.
func Blend(primary, secondary, weight float64) float64 {
	return Clamp(primary*(1-weight) + secondary*weight)
}

// Clamp bounds a score to [0, 100].
func Clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
