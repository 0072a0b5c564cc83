package ai

import (
	"math"

	"TraderMind/internal/domain/models"
	"TraderMind/pkg/util"
)

// BaselineVolatility is the expected volatility against which anomaly
// deviation is measured.
const BaselineVolatility = 0.7

// Risk level classification thresholds on the anomaly score.
const (
	riskMediumAbove = 0.3
	riskHighAbove   = 0.5
)

// ComputeIntel derives local anomaly/decay metrics from market
// conditions. Deterministic; attached to trade metadata alongside the
// remote inference output (or in its place when inference degraded).
func ComputeIntel(volatility, rsi float64, regime string) models.IntelMetrics {
	volDiff := math.Abs(volatility - BaselineVolatility)
	rsiDiff := math.Abs(rsi-50) / 100

	anomaly := util.Clamp01(volDiff + rsiDiff)

	regimePenalty := 0.0
	if regime == models.RegimeVolatile {
		regimePenalty = 0.2
	}
	decay := util.Clamp01(volDiff*0.4 + rsiDiff*0.3 + regimePenalty*0.3)

	level := "low"
	if anomaly > riskMediumAbove {
		level = "medium"
	}
	if anomaly > riskHighAbove {
		level = "high"
	}

	return models.IntelMetrics{
		AnomalyScore:    util.Round4(anomaly),
		ConfidenceDecay: util.Round4(decay),
		RiskLevel:       level,
	}
}
