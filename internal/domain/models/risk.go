package models

// RiskTier identifies the authority level that produced a rejection,
// ordered by precedence: USER > SESSION > STRATEGY > AI.
type RiskTier string

const (
	TierUser     RiskTier = "USER"
	TierSession  RiskTier = "SESSION"
	TierStrategy RiskTier = "STRATEGY"
	TierAI       RiskTier = "AI"
)

// RiskProfile selects the per-session confidence floor table.
type RiskProfile string

const (
	ProfileLow    RiskProfile = "LOW"
	ProfileMedium RiskProfile = "MEDIUM"
	ProfileHigh   RiskProfile = "HIGH"
)

// RiskValidationResult is the outcome of validating one proposed signal.
// Exactly one tier, or none, is cited.
type RiskValidationResult struct {
	Approved     bool     `json:"approved"`
	Reason       string   `json:"reason,omitempty"`
	OverriddenBy RiskTier `json:"overridden_by,omitempty"` // empty when approved
}

// UserRiskConfig carries per-user limits and running counters.
// User limits always dominate session/strategy/AI rules.
type UserRiskConfig struct {
	UserID          string
	OptedOut        bool
	CurrentDrawdown float64
	MaxDrawdown     float64
	DailyLoss       float64
	MaxDailyLoss    float64
	TradesToday     int
	MaxTradesPerDay int
}

// SessionRiskConfig carries session-scoped limits consulted after the
// user tier.
type SessionRiskConfig struct {
	Paused          bool
	CumulativePnL   float64
	GlobalLossLimit float64
	MinConfidence   float64
	RiskProfile     RiskProfile
	AllowedMarkets  []string
	MaxStake        float64
}
