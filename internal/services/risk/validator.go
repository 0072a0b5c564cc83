package risk

import (
	"TraderMind/internal/domain/models"
)

// Validator applies the ordered risk hierarchy to proposed signals.
// It is explicitly constructed and injected; no process-wide instance.
type Validator struct {
	rules []Rule
}

// NewValidator builds a validator with the canonical rule hierarchy.
func NewValidator() *Validator {
	return &Validator{rules: defaultRules()}
}

// NewValidatorWithRules builds a validator with a custom ordered rule
// set, used by tests to probe ordering in isolation.
func NewValidatorWithRules(rules []Rule) *Validator {
	return &Validator{rules: rules}
}

// Rules returns the evaluation order.
func (v *Validator) Rules() []Rule { return v.rules }

// Validate short-circuits on the first rejecting rule. A rejection is a
// first-class outcome, not an error: it always carries a reason code and
// the rejecting tier.
func (v *Validator) Validate(signal models.ProposedSignal, session models.SessionRiskConfig, user models.UserRiskConfig, stake float64) models.RiskValidationResult {
	rc := &Context{Signal: signal, Session: session, User: user, Stake: stake}
	for _, r := range v.rules {
		if res := r.Evaluate(rc); res != nil {
			return *res
		}
	}
	return models.RiskValidationResult{Approved: true}
}
