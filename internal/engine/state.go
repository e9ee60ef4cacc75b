package engine

import "github.com/wealthdesk/stmtparse/internal/config"

// DecisionState is the fallback orchestrator's explicit three-way decision
// on whether the statistical classifier is consulted.
type DecisionState string

// Decision state constants.
const (
	// StateRuleSufficient means rule-based confidence cleared the high
	// threshold; the statistical classifier is never invoked.
	StateRuleSufficient DecisionState = "RULE_SUFFICIENT"
	// StateMLEnhance means rule-based confidence landed between the medium
	// and high thresholds; the classifier enriches and confirms the
	// rule-based labels.
	StateMLEnhance DecisionState = "ML_ENHANCE"
	// StateMLFallback means rule-based confidence fell below the medium
	// threshold; the classifier's output becomes primary.
	StateMLFallback DecisionState = "ML_FALLBACK"
)

// DecideState maps a rule-based confidence score onto a decision state
// using the configured thresholds.
func DecideState(ruleScore float64, t config.Thresholds) DecisionState {
	switch {
	case ruleScore >= t.High:
		return StateRuleSufficient
	case ruleScore >= t.Medium:
		return StateMLEnhance
	default:
		return StateMLFallback
	}
}
