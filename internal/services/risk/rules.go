package risk

import (
	"fmt"

	"TraderMind/internal/domain/models"
)

// Rejection reason codes, cited by the owning tier.
const (
	ReasonUserOptedOut      = "USER_OPTED_OUT"
	ReasonUserMaxDrawdown   = "USER_MAX_DRAWDOWN"
	ReasonUserDailyLoss     = "USER_DAILY_LOSS_LIMIT"
	ReasonUserTradeLimit    = "USER_TRADE_LIMIT"
	ReasonSessionPaused     = "SESSION_PAUSED"
	ReasonSessionLossLimit  = "SESSION_LOSS_LIMIT"
	ReasonLowConfidence     = "STRATEGY_LOW_CONFIDENCE"
	ReasonMarketNotAllowed  = "STRATEGY_MARKET_NOT_ALLOWED"
	ReasonStakeExceedsLimit = "STRATEGY_STAKE_EXCEEDED"
)

// Context carries everything one validation pass may consult.
type Context struct {
	Signal  models.ProposedSignal
	Session models.SessionRiskConfig
	User    models.UserRiskConfig
	Stake   float64 // 0 when no stake was proposed
}

// Rule is one entry of the ordered risk hierarchy. Evaluate returns nil
// to pass control to the next rule, or a rejection citing the rule's
// tier. The hierarchy is data: ordering lives in the validator's rule
// slice, not in control flow.
type Rule interface {
	Name() string
	Tier() models.RiskTier
	Evaluate(rc *Context) *models.RiskValidationResult
}

type rule struct {
	name string
	tier models.RiskTier
	eval func(rc *Context) *models.RiskValidationResult
}

func (r rule) Name() string                                      { return r.name }
func (r rule) Tier() models.RiskTier                             { return r.tier }
func (r rule) Evaluate(rc *Context) *models.RiskValidationResult { return r.eval(rc) }

func reject(tier models.RiskTier, reason string) *models.RiskValidationResult {
	return &models.RiskValidationResult{Approved: false, Reason: reason, OverriddenBy: tier}
}

// defaultRules is the canonical hierarchy: user limits dominate session,
// session dominates strategy. AI output is advisory input to the
// confidence rule only and never cited as a rejecting tier.
func defaultRules() []Rule {
	return []Rule{
		rule{name: "user_opted_out", tier: models.TierUser, eval: func(rc *Context) *models.RiskValidationResult {
			if rc.User.OptedOut {
				return reject(models.TierUser, ReasonUserOptedOut)
			}
			return nil
		}},
		rule{name: "user_max_drawdown", tier: models.TierUser, eval: func(rc *Context) *models.RiskValidationResult {
			if rc.User.MaxDrawdown > 0 && rc.User.CurrentDrawdown >= rc.User.MaxDrawdown {
				return reject(models.TierUser, ReasonUserMaxDrawdown)
			}
			return nil
		}},
		rule{name: "user_daily_loss", tier: models.TierUser, eval: func(rc *Context) *models.RiskValidationResult {
			if rc.User.MaxDailyLoss > 0 && rc.User.DailyLoss >= rc.User.MaxDailyLoss {
				return reject(models.TierUser, ReasonUserDailyLoss)
			}
			return nil
		}},
		rule{name: "user_trade_limit", tier: models.TierUser, eval: func(rc *Context) *models.RiskValidationResult {
			if rc.User.MaxTradesPerDay > 0 && rc.User.TradesToday >= rc.User.MaxTradesPerDay {
				return reject(models.TierUser, ReasonUserTradeLimit)
			}
			return nil
		}},
		rule{name: "session_paused", tier: models.TierSession, eval: func(rc *Context) *models.RiskValidationResult {
			if rc.Session.Paused {
				return reject(models.TierSession, ReasonSessionPaused)
			}
			return nil
		}},
		rule{name: "session_loss_limit", tier: models.TierSession, eval: func(rc *Context) *models.RiskValidationResult {
			if rc.Session.GlobalLossLimit > 0 && rc.Session.CumulativePnL <= -rc.Session.GlobalLossLimit {
				return reject(models.TierSession, ReasonSessionLossLimit)
			}
			return nil
		}},
		rule{name: "strategy_confidence", tier: models.TierStrategy, eval: func(rc *Context) *models.RiskValidationResult {
			if rc.Signal.Confidence < MinConfidenceFor(rc.Session.RiskProfile, rc.Session.MinConfidence) {
				return reject(models.TierStrategy, ReasonLowConfidence)
			}
			return nil
		}},
		rule{name: "strategy_market", tier: models.TierStrategy, eval: func(rc *Context) *models.RiskValidationResult {
			for _, m := range rc.Session.AllowedMarkets {
				if m == rc.Signal.Market {
					return nil
				}
			}
			return reject(models.TierStrategy, ReasonMarketNotAllowed)
		}},
		rule{name: "strategy_stake", tier: models.TierStrategy, eval: func(rc *Context) *models.RiskValidationResult {
			if rc.Stake > 0 && rc.Session.MaxStake > 0 && rc.Stake > rc.Session.MaxStake {
				return reject(models.TierStrategy, ReasonStakeExceedsLimit)
			}
			return nil
		}},
	}
}

// Per-profile confidence floors. The original scattered these across
// call sites as string comparisons; they are centralized here and any
// divergence elsewhere is a bug.
var profileFloors = map[models.RiskProfile]float64{
	models.ProfileLow:    0.65,
	models.ProfileMedium: 0.60,
	models.ProfileHigh:   0.55,
}

// MinConfidenceFor returns the effective confidence floor: the stricter
// of the session-configured minimum and the profile floor. LOW profiles
// require a higher floor than MEDIUM/HIGH.
func MinConfidenceFor(profile models.RiskProfile, configured float64) float64 {
	floor, ok := profileFloors[profile]
	if !ok {
		floor = profileFloors[models.ProfileMedium]
	}
	if configured > floor {
		return configured
	}
	return floor
}

// RuleNames lists the hierarchy in evaluation order, for diagnostics.
func RuleNames(rules []Rule) []string {
	out := make([]string, 0, len(rules))
	for _, r := range rules {
		out = append(out, fmt.Sprintf("%s:%s", r.Tier(), r.Name()))
	}
	return out
}
