// Package classify scores candidate statement categories and types against
// normalized text using weighted keyword matching.
package classify

import (
	"sort"
	"strings"

	"github.com/wealthdesk/stmtparse/internal/config"
	"github.com/wealthdesk/stmtparse/internal/model"
)

// Classifier is the deterministic, rule-based statement classifier. It is
// immutable after construction and safe for concurrent use.
type Classifier struct {
	categories      []categoryRules
	blanket         config.Blanket
	minScore        float64
	secondaryFactor float64
}

type categoryRules struct {
	name  string
	types []typeRules
}

type typeRules struct {
	name      string
	primary   []string
	secondary []string
	weight    float64
}

// New builds a classifier from the keyword configuration. Category and type
// iteration order is fixed (sorted) so identical input always yields
// identical output.
func New(cfg config.Keywords) *Classifier {
	c := &Classifier{
		blanket:         cfg.Blanket,
		minScore:        cfg.MinScore,
		secondaryFactor: cfg.SecondaryFactor,
	}

	catNames := make([]string, 0, len(cfg.Categories))
	for name := range cfg.Categories {
		catNames = append(catNames, name)
	}
	sort.Strings(catNames)

	for _, catName := range catNames {
		types := cfg.Categories[catName]
		typeNames := make([]string, 0, len(types))
		for name := range types {
			typeNames = append(typeNames, name)
		}
		sort.Strings(typeNames)

		cat := categoryRules{name: catName}
		for _, typeName := range typeNames {
			group := types[typeName]
			cat.types = append(cat.types, typeRules{
				name:      typeName,
				primary:   lowered(group.Primary),
				secondary: lowered(group.Secondary),
				weight:    group.Weight,
			})
		}
		c.categories = append(c.categories, cat)
	}

	return c
}

// Classify accumulates keyword-hit weights per (category, type) label. A
// primary hit contributes the group weight, a secondary hit the reduced
// weight; the running total is capped at 1.0 after every addition. A type is
// included when its total reaches the inclusion threshold.
func (c *Classifier) Classify(text model.NormalizedText) model.StatementSelection {
	sel := model.NewStatementSelection()
	if text.IsEmpty() {
		return sel
	}
	s := text.String()

	// Blanket phrases select whole label groups outright.
	if containsAny(s, c.blanket.AllStatements) {
		for _, cat := range c.categories {
			for _, t := range cat.types {
				sel.Set(cat.name, t.name, 1.0)
			}
		}
		return sel
	}
	if containsAny(s, c.blanket.AllPMS) {
		c.selectAll(sel, "PMS")
	}
	if containsAny(s, c.blanket.AllAIF) {
		c.selectAll(sel, "AIF")
	}

	for _, cat := range c.categories {
		for _, t := range cat.types {
			if sel.Weight(cat.name, t.name) >= 1.0 {
				continue
			}
			score := c.typeScore(s, t)
			if score >= c.minScore {
				sel.Add(cat.name, t.name, score)
			}
		}
	}

	return sel
}

// typeScore folds keyword hits into a capped total. Each distinct keyword
// counts once regardless of how often it repeats in the text.
func (c *Classifier) typeScore(s string, t typeRules) float64 {
	score := 0.0
	for _, kw := range t.primary {
		if strings.Contains(s, kw) {
			score = capAdd(score, t.weight)
		}
	}
	for _, kw := range t.secondary {
		if strings.Contains(s, kw) {
			score = capAdd(score, t.weight*c.secondaryFactor)
		}
	}
	return score
}

func (c *Classifier) selectAll(sel model.StatementSelection, category string) {
	for _, cat := range c.categories {
		if cat.name != category {
			continue
		}
		for _, t := range cat.types {
			sel.Set(category, t.name, 1.0)
		}
	}
}

func capAdd(total, add float64) float64 {
	total += add
	if total > 1.0 {
		return 1.0
	}
	return total
}

func containsAny(s string, phrases []string) bool {
	for _, p := range phrases {
		if p != "" && strings.Contains(s, strings.ToLower(p)) {
			return true
		}
	}
	return false
}

func lowered(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(s)
	}
	return out
}
