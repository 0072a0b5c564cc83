package usecase

import (
	"strings"
	"time"

	"TraderMind/internal/domain/models"
	"TraderMind/pkg/util"
)

// Rule thresholds for signal assembly.
const (
	rsiOversold   = 30
	rsiOverbought = 70
)

// BuildSignal assembles a directional signal from the feature vector and
// the optional inference output. The rule score is deterministic; when
// inference is available its confidence is blended in equally, so AI
// can raise or lower confidence but never forces a direction on its own.
func BuildSignal(market string, fv models.FeatureVector, aiOut *models.AIOutput, now time.Time) models.Signal {
	var confidence float64
	tags := make([]string, 0, 4)

	bearish := false
	switch {
	case fv.RSI < rsiOversold:
		confidence += 0.3
		tags = append(tags, "RSI_OVERSOLD")
	case fv.RSI > rsiOverbought:
		confidence += 0.3
		bearish = true
		tags = append(tags, "RSI_OVERBOUGHT")
	}

	switch {
	case fv.EMAFast > fv.EMASlow:
		confidence += 0.25
		tags = append(tags, "BULLISH_CROSSOVER")
	case fv.EMAFast < fv.EMASlow:
		confidence += 0.25
		if fv.RSI >= rsiOversold {
			bearish = true
		}
		tags = append(tags, "BEARISH_CROSSOVER")
	}

	if fv.Momentum > 0 && !bearish {
		confidence += 0.15
		tags = append(tags, "MOMENTUM_UP")
	} else if fv.Momentum < 0 && bearish {
		confidence += 0.15
		tags = append(tags, "MOMENTUM_DOWN")
	}

	confidence = util.Clamp01(confidence)

	if aiOut != nil {
		confidence = util.Clamp01((confidence + aiOut.Confidence) / 2)
		tags = append(tags, aiOut.ReasonTags...)
	}

	typ := models.SignalCall
	if bearish {
		typ = models.SignalPut
	}
	reason := strings.Join(tags, ",")
	if reason == "" {
		reason = "NO_SIGNAL"
	}

	return models.Signal{
		Type:       typ,
		Confidence: util.Round4(confidence),
		Reason:     reason,
		Market:     market,
		Timestamp:  now.UTC().Format(time.RFC3339),
	}
}
