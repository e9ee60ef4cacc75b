package model

import (
	"fmt"
	"time"
)

// DateProvenance records which kind of expression produced a date range.
type DateProvenance string

// Date range provenance constants, from most to least explicit.
const (
	ProvenanceExplicitSingle DateProvenance = "explicit_single"
	ProvenanceExplicitRange  DateProvenance = "explicit_range"
	ProvenanceFiscalYear     DateProvenance = "fiscal_year"
	ProvenanceRelative       DateProvenance = "relative"
	ProvenanceDefault        DateProvenance = "default"
)

// DateRange is a resolved from/to calendar date interval.
type DateRange struct {
	From       time.Time
	To         time.Time
	Provenance DateProvenance
}

// NewDateRange builds a range, swapping endpoints if they arrive out of
// order so From <= To always holds.
func NewDateRange(from, to time.Time, provenance DateProvenance) DateRange {
	if to.Before(from) {
		from, to = to, from
	}
	return DateRange{From: from, To: to, Provenance: provenance}
}

// Validate ensures the from/to ordering invariant.
func (r DateRange) Validate() error {
	if r.To.Before(r.From) {
		return fmt.Errorf("date range from %s after to %s",
			r.From.Format("2006-01-02"), r.To.Format("2006-01-02"))
	}
	return nil
}

// IsDefault reports whether the range came from the default rule rather
// than a date expression in the text.
func (r DateRange) IsDefault() bool {
	return r.Provenance == ProvenanceDefault
}

// String renders the range for logs.
func (r DateRange) String() string {
	return fmt.Sprintf("%s..%s (%s)",
		r.From.Format("2006-01-02"), r.To.Format("2006-01-02"), r.Provenance)
}
