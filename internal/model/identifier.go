// Package model defines the request-scoped value objects produced by the
// parsing pipeline.
package model

// IdentifierKind names a structured identifier format found in statement
// requests.
type IdentifierKind string

// Identifier kind constants, ordered from most to least specific.
const (
	KindPAN         IdentifierKind = "pan"
	KindAIFFolio    IdentifierKind = "aif_folio"
	KindDICode      IdentifierKind = "di_code"
	KindAccountCode IdentifierKind = "account_code"
)

// AllIdentifierKinds lists every kind the extractor knows about, in match
// priority order (longer, more specific patterns first).
var AllIdentifierKinds = []IdentifierKind{
	KindPAN,
	KindAIFFolio,
	KindDICode,
	KindAccountCode,
}

// IdentifierSet maps each identifier kind to the values matched in the text,
// deduplicated and kept in order of first appearance.
type IdentifierSet map[IdentifierKind][]string

// NewIdentifierSet returns an empty set covering all known kinds.
func NewIdentifierSet() IdentifierSet {
	s := make(IdentifierSet, len(AllIdentifierKinds))
	for _, k := range AllIdentifierKinds {
		s[k] = []string{}
	}
	return s
}

// Add appends value under kind unless it is already present.
func (s IdentifierSet) Add(kind IdentifierKind, value string) {
	for _, v := range s[kind] {
		if v == value {
			return
		}
	}
	s[kind] = append(s[kind], value)
}

// Has reports whether any value was matched for kind.
func (s IdentifierSet) Has(kind IdentifierKind) bool {
	return len(s[kind]) > 0
}

// Count returns the total number of values across all kinds.
func (s IdentifierSet) Count() int {
	n := 0
	for _, vs := range s {
		n += len(vs)
	}
	return n
}

// KindCount returns how many distinct kinds have at least one value.
func (s IdentifierSet) KindCount() int {
	n := 0
	for _, vs := range s {
		if len(vs) > 0 {
			n++
		}
	}
	return n
}

// Empty reports whether no identifiers of any kind were found.
func (s IdentifierSet) Empty() bool {
	return s.Count() == 0
}

// Clone returns a deep copy of the set.
func (s IdentifierSet) Clone() IdentifierSet {
	out := make(IdentifierSet, len(s))
	for k, vs := range s {
		cp := make([]string, len(vs))
		copy(cp, vs)
		out[k] = cp
	}
	return out
}
