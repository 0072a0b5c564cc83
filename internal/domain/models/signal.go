package models

// SignalType is the trade direction of a signal.
type SignalType string

const (
	SignalCall SignalType = "CALL"
	SignalPut  SignalType = "PUT"
)

// Signal is a directional trade proposal produced once per decision cycle.
// Tagged because it is serialized into trade metadata and API responses.
type Signal struct {
	Type       SignalType `json:"type"`
	Confidence float64    `json:"confidence"` // [0,1]
	Reason     string     `json:"reason"`
	Market     string     `json:"market"`
	Timestamp  string     `json:"timestamp"` // RFC3339
}

// ProposedSignal is a Signal bound to a session before risk gating.
type ProposedSignal struct {
	Signal
	SessionID       string
	StrategyVersion string
}

// Market regimes reported by the inference endpoint.
const (
	RegimeTrending = "TRENDING"
	RegimeRanging  = "RANGING"
	RegimeVolatile = "VOLATILE"
)

// AIOutput is the parsed response of the inference endpoint.
// A nil *AIOutput means "no inference available" and the pipeline
// proceeds rule-only.
type AIOutput struct {
	Confidence   float64  `json:"ai_confidence"`
	MarketRegime string   `json:"market_regime"`
	ReasonTags   []string `json:"reason_tags"`
	ModelVersion string   `json:"model_version"`
}

// IntelMetrics are locally computed analysis figures attached to trade
// metadata alongside (or in place of) the remote inference output.
type IntelMetrics struct {
	AnomalyScore    float64 `json:"anomaly_score"`
	ConfidenceDecay float64 `json:"confidence_decay"`
	RiskLevel       string  `json:"risk_level"` // low, medium, high
}
