package model

import "sort"

// StatementSelection holds the categories and statement types matched for a
// request, each with an accumulated keyword weight on a 0-1 scale.
type StatementSelection map[string]map[string]float64

// NewStatementSelection returns an empty selection.
func NewStatementSelection() StatementSelection {
	return make(StatementSelection)
}

// Add accumulates weight for a (category, type) label, capping the running
// total at 1.0 after the addition.
func (s StatementSelection) Add(category, stmtType string, weight float64) {
	types, ok := s[category]
	if !ok {
		types = make(map[string]float64)
		s[category] = types
	}
	total := types[stmtType] + weight
	if total > 1.0 {
		total = 1.0
	}
	types[stmtType] = total
}

// Set assigns an exact weight to a (category, type) label, capped at 1.0.
func (s StatementSelection) Set(category, stmtType string, weight float64) {
	types, ok := s[category]
	if !ok {
		types = make(map[string]float64)
		s[category] = types
	}
	if weight > 1.0 {
		weight = 1.0
	}
	types[stmtType] = weight
}

// Weight returns the accumulated weight for a label, zero if absent.
func (s StatementSelection) Weight(category, stmtType string) float64 {
	return s[category][stmtType]
}

// Categories returns the matched category labels in sorted order.
func (s StatementSelection) Categories() []string {
	out := make([]string, 0, len(s))
	for c := range s {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// Types returns the matched type labels for a category in sorted order.
func (s StatementSelection) Types(category string) []string {
	types := s[category]
	out := make([]string, 0, len(types))
	for t := range types {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// AllTypes returns every matched type label across categories, sorted.
func (s StatementSelection) AllTypes() []string {
	var out []string
	for _, c := range s.Categories() {
		out = append(out, s.Types(c)...)
	}
	sort.Strings(out)
	return out
}

// MaxWeight returns the highest accumulated weight across all labels.
func (s StatementSelection) MaxWeight() float64 {
	maxW := 0.0
	for _, types := range s {
		for _, w := range types {
			if w > maxW {
				maxW = w
			}
		}
	}
	return maxW
}

// CategoryMaxWeight returns the highest type weight within one category.
func (s StatementSelection) CategoryMaxWeight(category string) float64 {
	maxW := 0.0
	for _, w := range s[category] {
		if w > maxW {
			maxW = w
		}
	}
	return maxW
}

// Has reports whether the category matched at all.
func (s StatementSelection) Has(category string) bool {
	return len(s[category]) > 0
}

// Empty reports whether nothing matched.
func (s StatementSelection) Empty() bool {
	for _, types := range s {
		if len(types) > 0 {
			return false
		}
	}
	return true
}

// Drop removes a category and all its types.
func (s StatementSelection) Drop(category string) {
	delete(s, category)
}

// Clone returns a deep copy of the selection.
func (s StatementSelection) Clone() StatementSelection {
	out := make(StatementSelection, len(s))
	for c, types := range s {
		cp := make(map[string]float64, len(types))
		for t, w := range types {
			cp[t] = w
		}
		out[c] = cp
	}
	return out
}
