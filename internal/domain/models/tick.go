package models

// Tick is one timestamped price observation for a market.
// Ordered by Timestamp within a market; immutable once produced.
type Tick struct {
	Market    string
	Quote     float64
	Timestamp int64 // epoch millis
}

// FeatureVector is the fixed technical summary derived from an ordered
// price sequence. All fields are rounded to 4 decimal places.
type FeatureVector struct {
	RSI        float64 `json:"rsi"`
	EMAFast    float64 `json:"ema_fast"`
	EMASlow    float64 `json:"ema_slow"`
	ATR        float64 `json:"atr"`
	Momentum   float64 `json:"momentum"`
	Volatility float64 `json:"volatility"`
}
