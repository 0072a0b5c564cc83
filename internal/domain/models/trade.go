package models

import (
	"encoding/json"
	"time"
)

// Trade record statuses as persisted in the store.
const (
	TradeCompleted = "COMPLETED"
	TradeFailed    = "FAILED"
)

// ApprovedTrade is created only by a successful risk validation pass.
// IdempotencyKey must be unique per intended execution; the audit engine
// detects violations after the fact.
type ApprovedTrade struct {
	TradeID        string
	Signal         Signal
	SessionID      string
	UserID         string
	Stake          float64
	Type           SignalType
	Market         string
	IdempotencyKey string
	ApprovedAt     time.Time
}

// TradeMetadata is the structured blob written alongside a trade record.
// It is marshaled exactly once at write time; replay carries the stored
// bytes verbatim.
type TradeMetadata struct {
	Signal         Signal                `json:"signal"`
	AIAnalysis     *AIOutput             `json:"ai_analysis,omitempty"`
	Intel          *IntelMetrics         `json:"intel,omitempty"`
	RiskCheck      *RiskValidationResult `json:"risk_check,omitempty"`
	Execution      map[string]any        `json:"execution,omitempty"`
	IdempotencyKey string                `json:"idempotencyKey,omitempty"`
}

// TradeRecord is the persisted, immutable outcome of one decision.
// It is the sole source for replay reconstruction.
type TradeRecord struct {
	ID        string
	SessionID string
	CreatedAt time.Time
	Status    string
	Result    string
	Profit    float64
	Metadata  json.RawMessage
}

// Replay event types.
const (
	ReplayTradeExecuted = "TRADE_EXECUTED"
	ReplayTradeFailed   = "TRADE_FAILED"
)

// ReplayEventData is the projection payload of one trade record.
type ReplayEventData struct {
	TradeID  string          `json:"trade_id"`
	Market   string          `json:"market"`
	Result   string          `json:"result"`
	Profit   float64         `json:"profit"`
	Metadata json.RawMessage `json:"metadata"`
}

// ReplayEvent is a pure projection of a TradeRecord with no independent
// lifecycle.
type ReplayEvent struct {
	Timestamp time.Time       `json:"timestamp"`
	Type      string          `json:"type"`
	Data      ReplayEventData `json:"data"`
}

// IdempotencyReport summarizes duplicate idempotency keys found across a
// session's trade records.
type IdempotencyReport struct {
	Total         int      `json:"total"`
	Duplicates    int      `json:"duplicates"`
	DuplicateKeys []string `json:"duplicate_keys"`
}
