// Package identifier finds account and holder identifiers in normalized
// email text via structural pattern matching.
package identifier

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/wealthdesk/stmtparse/internal/config"
	"github.com/wealthdesk/stmtparse/internal/model"
)

// Extractor applies the configured identifier patterns to text. It is
// immutable after construction and safe for concurrent use.
type Extractor struct {
	kinds            []compiledKind
	byKind           map[model.IdentifierKind]*compiledKind
	diFalsePositives map[string]struct{}
}

type compiledKind struct {
	re   *regexp.Regexp
	kind model.IdentifierKind
}

// NewExtractor compiles the configured patterns. Kinds are matched in the
// order of model.AllIdentifierKinds so longer, more specific patterns claim
// their spans before shorter ones can.
func NewExtractor(cfg config.Identifiers) (*Extractor, error) {
	e := &Extractor{
		kinds:            make([]compiledKind, 0, len(model.AllIdentifierKinds)),
		byKind:           make(map[model.IdentifierKind]*compiledKind),
		diFalsePositives: make(map[string]struct{}, len(cfg.DIFalsePositives)),
	}

	for _, kind := range model.AllIdentifierKinds {
		pattern, ok := cfg.Patterns[string(kind)]
		if !ok {
			continue
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("failed to compile %s pattern: %w", kind, err)
		}
		e.kinds = append(e.kinds, compiledKind{kind: kind, re: re})
		e.byKind[kind] = &e.kinds[len(e.kinds)-1]
	}

	for _, w := range cfg.DIFalsePositives {
		e.diFalsePositives[strings.ToUpper(w)] = struct{}{}
	}

	return e, nil
}

// Extract collects all valid identifier matches from the text. Matching is
// case-insensitive (the text is upper-cased first) and the canonical
// uppercase form is returned, deduplicated, in order of first appearance.
// Absence of matches is not an error.
func (e *Extractor) Extract(text model.NormalizedText) model.IdentifierSet {
	set := model.NewIdentifierSet()
	if text.IsEmpty() {
		return set
	}

	upper := strings.ToUpper(text.String())

	// Spans already claimed by a more specific kind; a shorter pattern may
	// not re-match inside them.
	var claimed [][2]int

	for _, ck := range e.kinds {
		for _, loc := range ck.re.FindAllStringIndex(upper, -1) {
			if overlaps(claimed, loc[0], loc[1]) {
				continue
			}
			value := upper[loc[0]:loc[1]]
			if !e.valid(ck.kind, value) {
				continue
			}
			claimed = append(claimed, [2]int{loc[0], loc[1]})
			set.Add(ck.kind, value)
		}
	}

	return set
}

// ValidateValue reports whether value satisfies kind's structural pattern
// exactly. Used to vet identifier suggestions from the statistical
// classifier before they are admitted into a merged result.
func (e *Extractor) ValidateValue(kind model.IdentifierKind, value string) bool {
	ck, ok := e.byKind[kind]
	if !ok {
		return false
	}
	upper := strings.ToUpper(strings.TrimSpace(value))
	if ck.re.FindString(upper) != upper {
		return false
	}
	return e.valid(kind, upper)
}

func (e *Extractor) valid(kind model.IdentifierKind, value string) bool {
	switch kind {
	case model.KindPAN:
		return validPAN(value)
	case model.KindDICode:
		_, fp := e.diFalsePositives[value]
		return !fp
	case model.KindAccountCode:
		return !dateShaped(value)
	case model.KindAIFFolio:
		return true
	default:
		return true
	}
}

// validPAN checks the 5 letters + 4 digits + 1 letter structure beyond what
// the regex already guarantees, so config-supplied looser patterns cannot
// admit malformed values.
func validPAN(v string) bool {
	if len(v) != 10 {
		return false
	}
	for i := 0; i < 5; i++ {
		if v[i] < 'A' || v[i] > 'Z' {
			return false
		}
	}
	for i := 5; i < 9; i++ {
		if v[i] < '0' || v[i] > '9' {
			return false
		}
	}
	return v[9] >= 'A' && v[9] <= 'Z'
}

// dateShaped filters 8-digit strings that are really DDMMYYYY or YYYYMMDD
// dates, which would otherwise masquerade as account codes.
func dateShaped(v string) bool {
	if len(v) != 8 {
		return false
	}
	dd := atoi2(v[0:2])
	mm := atoi2(v[2:4])
	if dd >= 1 && dd <= 31 && mm >= 1 && mm <= 12 {
		return true
	}
	yyyy := atoi2(v[0:2])*100 + atoi2(v[2:4])
	return yyyy >= 1990 && yyyy <= 2049
}

func atoi2(s string) int {
	n := 0
	for i := 0; i < len(s); i++ {
		n = n*10 + int(s[i]-'0')
	}
	return n
}

func overlaps(claimed [][2]int, start, end int) bool {
	for _, c := range claimed {
		if start < c[1] && end > c[0] {
			return true
		}
	}
	return false
}
