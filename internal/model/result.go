package model

import (
	"strings"
	"time"
)

// NormalizedText is the lower-cased, whitespace-collapsed concatenation of
// an email's subject and body, with the structural markers preserved.
// Immutable once produced.
type NormalizedText string

// IsEmpty reports whether the text carries no evidence at all.
func (t NormalizedText) IsEmpty() bool {
	return strings.TrimSpace(string(t)) == ""
}

func (t NormalizedText) String() string {
	return string(t)
}

// ParsingMethod tags which extraction path was decisive for a result.
type ParsingMethod string

// Parsing method constants.
const (
	MethodRuleBased  ParsingMethod = "rule_based"
	MethodMLEnhanced ParsingMethod = "ml_enhanced"
	MethodMLFallback ParsingMethod = "ml_fallback"
)

// Metadata carries per-request bookkeeping for a parse outcome.
type Metadata struct {
	ProcessedAt    time.Time
	Duration       time.Duration
	DecisionState  string
	DateSource     string
	MLSkipReason   string
	HasIdentifiers bool
	MLSkipped      bool
}

// ParseResult is the final structured record returned to the caller. It is
// created once per request and never mutated after return.
type ParseResult struct {
	RequestID   string
	Identifiers IdentifierSet
	DateRange   DateRange
	Selection   StatementSelection
	Confidence  float64
	Method      ParsingMethod
	Metadata    Metadata
}
