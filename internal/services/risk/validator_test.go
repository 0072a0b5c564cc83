package risk

import (
	"testing"

	"TraderMind/internal/domain/models"
)

func proposed(market string, confidence float64) models.ProposedSignal {
	return models.ProposedSignal{
		Signal: models.Signal{
			Type:       models.SignalCall,
			Confidence: confidence,
			Market:     market,
		},
		SessionID:       "s-1",
		StrategyVersion: "v2",
	}
}

func openSession() models.SessionRiskConfig {
	return models.SessionRiskConfig{
		CumulativePnL:   0,
		GlobalLossLimit: 100,
		MinConfidence:   0.6,
		RiskProfile:     models.ProfileMedium,
		AllowedMarkets:  []string{"R_100", "R_50"},
		MaxStake:        25,
	}
}

func healthyUser() models.UserRiskConfig {
	return models.UserRiskConfig{
		UserID:          "u-1",
		MaxDrawdown:     50,
		MaxDailyLoss:    20,
		MaxTradesPerDay: 10,
	}
}

func TestApproveCitesNoTier(t *testing.T) {
	v := NewValidator()
	res := v.Validate(proposed("R_100", 0.8), openSession(), healthyUser(), 5)
	if !res.Approved {
		t.Fatalf("expected approval, got %+v", res)
	}
	if res.OverriddenBy != "" || res.Reason != "" {
		t.Fatalf("approval must cite no tier: %+v", res)
	}
}

func TestRejectionTable(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*models.ProposedSignal, *models.SessionRiskConfig, *models.UserRiskConfig, *float64)
		tier   models.RiskTier
		reason string
	}{
		{"opted_out", func(_ *models.ProposedSignal, _ *models.SessionRiskConfig, u *models.UserRiskConfig, _ *float64) {
			u.OptedOut = true
		}, models.TierUser, ReasonUserOptedOut},
		{"max_drawdown", func(_ *models.ProposedSignal, _ *models.SessionRiskConfig, u *models.UserRiskConfig, _ *float64) {
			u.CurrentDrawdown = 50
		}, models.TierUser, ReasonUserMaxDrawdown},
		{"daily_loss", func(_ *models.ProposedSignal, _ *models.SessionRiskConfig, u *models.UserRiskConfig, _ *float64) {
			u.DailyLoss = 20
		}, models.TierUser, ReasonUserDailyLoss},
		{"trade_limit", func(_ *models.ProposedSignal, _ *models.SessionRiskConfig, u *models.UserRiskConfig, _ *float64) {
			u.TradesToday = 10
		}, models.TierUser, ReasonUserTradeLimit},
		{"session_paused", func(_ *models.ProposedSignal, s *models.SessionRiskConfig, _ *models.UserRiskConfig, _ *float64) {
			s.Paused = true
		}, models.TierSession, ReasonSessionPaused},
		{"session_loss", func(_ *models.ProposedSignal, s *models.SessionRiskConfig, _ *models.UserRiskConfig, _ *float64) {
			s.CumulativePnL = -100
		}, models.TierSession, ReasonSessionLossLimit},
		{"low_confidence", func(p *models.ProposedSignal, _ *models.SessionRiskConfig, _ *models.UserRiskConfig, _ *float64) {
			p.Confidence = 0.3
		}, models.TierStrategy, ReasonLowConfidence},
		{"market_not_allowed", func(p *models.ProposedSignal, _ *models.SessionRiskConfig, _ *models.UserRiskConfig, _ *float64) {
			p.Market = "R_25"
		}, models.TierStrategy, ReasonMarketNotAllowed},
		{"stake_exceeded", func(_ *models.ProposedSignal, _ *models.SessionRiskConfig, _ *models.UserRiskConfig, st *float64) {
			*st = 26
		}, models.TierStrategy, ReasonStakeExceedsLimit},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			sig := proposed("R_100", 0.8)
			sess := openSession()
			user := healthyUser()
			stake := 5.0
			c.mutate(&sig, &sess, &user, &stake)

			res := NewValidator().Validate(sig, sess, user, stake)
			if res.Approved {
				t.Fatalf("expected rejection")
			}
			if res.OverriddenBy != c.tier {
				t.Fatalf("tier = %s, want %s", res.OverriddenBy, c.tier)
			}
			if res.Reason != c.reason {
				t.Fatalf("reason = %s, want %s", res.Reason, c.reason)
			}
		})
	}
}

// User limits dominate regardless of session/strategy parameters.
func TestUserTierDominance(t *testing.T) {
	sig := proposed("R_25", 0.1) // would also fail strategy rules
	sess := openSession()
	sess.Paused = true // would also fail session rule
	user := healthyUser()
	user.CurrentDrawdown = 60

	res := NewValidator().Validate(sig, sess, user, 100)
	if res.Approved || res.OverriddenBy != models.TierUser {
		t.Fatalf("user tier must dominate: %+v", res)
	}
	if res.Reason != ReasonUserMaxDrawdown {
		t.Fatalf("unexpected reason %s", res.Reason)
	}
}

func TestProfileConfidenceFloors(t *testing.T) {
	sig := proposed("R_100", 0.6)
	user := healthyUser()

	med := openSession()
	med.RiskProfile = models.ProfileMedium
	if res := NewValidator().Validate(sig, med, user, 5); !res.Approved {
		t.Fatalf("0.6 on MEDIUM should approve: %+v", res)
	}

	low := openSession()
	low.RiskProfile = models.ProfileLow
	res := NewValidator().Validate(sig, low, user, 5)
	if res.Approved {
		t.Fatalf("0.6 on LOW should reject")
	}
	if res.OverriddenBy != models.TierStrategy || res.Reason != ReasonLowConfidence {
		t.Fatalf("unexpected rejection %+v", res)
	}
}

func TestMinConfidenceFor(t *testing.T) {
	cases := []struct {
		profile    models.RiskProfile
		configured float64
		want       float64
	}{
		{models.ProfileLow, 0.6, 0.65},
		{models.ProfileMedium, 0.6, 0.6},
		{models.ProfileHigh, 0.6, 0.6},
		{models.ProfileHigh, 0.3, 0.55},
		{models.ProfileMedium, 0.9, 0.9},
		{models.RiskProfile("UNKNOWN"), 0.5, 0.6},
	}
	for _, c := range cases {
		if got := MinConfidenceFor(c.profile, c.configured); got != c.want {
			t.Fatalf("MinConfidenceFor(%s, %v) = %v, want %v", c.profile, c.configured, got, c.want)
		}
	}
}

func TestRuleOrderIsData(t *testing.T) {
	rules := NewValidator().Rules()
	wantTiers := []models.RiskTier{
		models.TierUser, models.TierUser, models.TierUser, models.TierUser,
		models.TierSession, models.TierSession,
		models.TierStrategy, models.TierStrategy, models.TierStrategy,
	}
	if len(rules) != len(wantTiers) {
		t.Fatalf("rule count = %d, want %d", len(rules), len(wantTiers))
	}
	for i, r := range rules {
		if r.Tier() != wantTiers[i] {
			t.Fatalf("rule %d (%s) tier = %s, want %s", i, r.Name(), r.Tier(), wantTiers[i])
		}
	}
}

func TestRecommendedStake(t *testing.T) {
	sess := openSession()

	full := healthyUser()
	if got := RecommendedStake(10, sess, full); got != 10 {
		t.Fatalf("no losses: stake = %v, want 10", got)
	}

	half := healthyUser()
	half.CurrentDrawdown = 25 // 50% drawdown headroom
	if got := RecommendedStake(10, sess, half); got != 5 {
		t.Fatalf("half headroom: stake = %v, want 5", got)
	}

	tight := healthyUser()
	tight.CurrentDrawdown = 25
	tight.DailyLoss = 15 // 25% daily headroom, the tighter bound
	if got := RecommendedStake(10, sess, tight); got != 2.5 {
		t.Fatalf("tighter bound wins: stake = %v, want 2.5", got)
	}

	capped := healthyUser()
	if got := RecommendedStake(1000, sess, capped); got != sess.MaxStake {
		t.Fatalf("stake must cap at session max: %v", got)
	}

	spent := healthyUser()
	spent.CurrentDrawdown = 80 // past the limit entirely
	if got := RecommendedStake(10, sess, spent); got != 0 {
		t.Fatalf("exhausted headroom: stake = %v, want 0", got)
	}

	if got := RecommendedStake(-5, sess, healthyUser()); got != 0 {
		t.Fatalf("negative base: stake = %v, want 0", got)
	}
}
