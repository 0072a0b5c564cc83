package models

// Requests for the session/replay HTTP endpoints. Defined in domain for
// consistency and reuse.

type CreateSessionRequest struct {
	MaxParticipants int      `json:"max_participants" default:"10" validate:"gte=1,lte=500"`
	AllowedMarkets  []string `json:"allowed_markets" validate:"required,min=1,dive,required"`
	RiskProfile     string   `json:"risk_profile" default:"MEDIUM" validate:"oneof=LOW MEDIUM HIGH"`
	MinConfidence   float64  `json:"min_confidence" default:"0.6" validate:"gte=0,lte=1"`
	MaxStake        float64  `json:"max_stake" default:"10" validate:"gt=0"`
	GlobalLossLimit float64  `json:"global_loss_limit" default:"100" validate:"gt=0"`
}

type TransitionRequest struct {
	Target string `json:"target" validate:"required,oneof=PENDING ACTIVE RUNNING PAUSED COMPLETED"`
}

type JoinSessionRequest struct {
	UserID string `json:"user_id" validate:"required"`
}

type ReplayRequest struct {
	SessionID string `param:"id" validate:"required"`
}

type LatestSignalRequest struct {
	Market string `query:"market" json:"market" validate:"required"`
}
