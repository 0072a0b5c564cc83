package usecase

import (
	"strings"
	"testing"
	"time"

	"TraderMind/internal/domain/models"
)

func TestBuildSignalRuleScores(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		fv         models.FeatureVector
		wantType   models.SignalType
		wantConf   float64
		wantReason string
	}{
		{
			name:       "oversold bullish crossover momentum",
			fv:         models.FeatureVector{RSI: 25, EMAFast: 101, EMASlow: 100, Momentum: 0.01},
			wantType:   models.SignalCall,
			wantConf:   0.7,
			wantReason: "RSI_OVERSOLD,BULLISH_CROSSOVER,MOMENTUM_UP",
		},
		{
			name:       "overbought bearish crossover momentum down",
			fv:         models.FeatureVector{RSI: 75, EMAFast: 99, EMASlow: 100, Momentum: -0.01},
			wantType:   models.SignalPut,
			wantConf:   0.7,
			wantReason: "RSI_OVERBOUGHT,BEARISH_CROSSOVER,MOMENTUM_DOWN",
		},
		{
			name:       "neutral rsi bullish crossover only",
			fv:         models.FeatureVector{RSI: 50, EMAFast: 101, EMASlow: 100, Momentum: -0.01},
			wantType:   models.SignalCall,
			wantConf:   0.25,
			wantReason: "BULLISH_CROSSOVER",
		},
		{
			name:       "bearish crossover neutral rsi",
			fv:         models.FeatureVector{RSI: 50, EMAFast: 99, EMASlow: 100, Momentum: -0.01},
			wantType:   models.SignalPut,
			wantConf:   0.4,
			wantReason: "BEARISH_CROSSOVER,MOMENTUM_DOWN",
		},
		{
			name:       "flat everything",
			fv:         models.FeatureVector{RSI: 50, EMAFast: 100, EMASlow: 100, Momentum: 0},
			wantType:   models.SignalCall,
			wantConf:   0,
			wantReason: "NO_SIGNAL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildSignal("R_50", tt.fv, nil, now)
			if got.Type != tt.wantType {
				t.Errorf("type = %s, want %s", got.Type, tt.wantType)
			}
			if got.Confidence != tt.wantConf {
				t.Errorf("confidence = %v, want %v", got.Confidence, tt.wantConf)
			}
			if got.Reason != tt.wantReason {
				t.Errorf("reason = %q, want %q", got.Reason, tt.wantReason)
			}
			if got.Market != "R_50" {
				t.Errorf("market = %q", got.Market)
			}
			if got.Timestamp != "2025-06-01T12:00:00Z" {
				t.Errorf("timestamp = %q", got.Timestamp)
			}
		})
	}
}

func TestBuildSignalAIBlend(t *testing.T) {
	now := time.Now()
	fv := models.FeatureVector{RSI: 25, EMAFast: 101, EMASlow: 100, Momentum: 0.01} // rule conf 0.7

	ai := &models.AIOutput{Confidence: 0.9, ReasonTags: []string{"REGIME_ALIGNED"}}
	got := BuildSignal("R_10", fv, ai, now)
	if got.Confidence != 0.8 {
		t.Fatalf("blended confidence = %v, want 0.8", got.Confidence)
	}
	if !strings.Contains(got.Reason, "REGIME_ALIGNED") {
		t.Errorf("reason %q missing ai tag", got.Reason)
	}

	// Low AI confidence drags the rule score down but never flips direction.
	low := &models.AIOutput{Confidence: 0.1}
	got = BuildSignal("R_10", fv, low, now)
	if got.Confidence != 0.4 {
		t.Errorf("blended confidence = %v, want 0.4", got.Confidence)
	}
	if got.Type != models.SignalCall {
		t.Errorf("type = %s, want CALL", got.Type)
	}
}
