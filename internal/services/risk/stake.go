package risk

import (
	"TraderMind/internal/domain/models"
	"TraderMind/pkg/util"
)

// RecommendedStake scales baseStake down proportionally to the remaining
// headroom against the user's drawdown and daily-loss limits, taking the
// tighter of the two. The result never exceeds the session max stake and
// is never negative.
func RecommendedStake(baseStake float64, session models.SessionRiskConfig, user models.UserRiskConfig) float64 {
	if baseStake <= 0 {
		return 0
	}

	scale := 1.0
	if user.MaxDrawdown > 0 {
		h := util.Clamp01((user.MaxDrawdown - user.CurrentDrawdown) / user.MaxDrawdown)
		if h < scale {
			scale = h
		}
	}
	if user.MaxDailyLoss > 0 {
		h := util.Clamp01((user.MaxDailyLoss - user.DailyLoss) / user.MaxDailyLoss)
		if h < scale {
			scale = h
		}
	}

	stake := baseStake * scale
	if session.MaxStake > 0 && stake > session.MaxStake {
		stake = session.MaxStake
	}
	if stake < 0 {
		stake = 0
	}
	return util.Round4(stake)
}
