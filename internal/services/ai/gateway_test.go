package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"TraderMind/internal/domain/models"
)

var testFeatures = models.FeatureVector{
	RSI: 28.5, EMAFast: 101.2, EMASlow: 100.8, ATR: 0.42, Momentum: 0.013, Volatility: 0.71,
}

func TestInferSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/infer" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var req struct {
			Features models.FeatureVector `json:"features"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Features != testFeatures {
			t.Errorf("features = %+v, want %+v", req.Features, testFeatures)
		}
		json.NewEncoder(w).Encode(models.AIOutput{
			Confidence:   0.82,
			MarketRegime: models.RegimeTrending,
			ReasonTags:   []string{"RSI_OVERSOLD", "BULLISH_CROSSOVER"},
			ModelVersion: "qil-v2.0.0",
		})
	}))
	defer srv.Close()

	out, err := NewGateway(srv.URL, nil).Infer(context.Background(), testFeatures)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out == nil {
		t.Fatalf("expected output")
	}
	if out.Confidence != 0.82 || out.MarketRegime != models.RegimeTrending {
		t.Fatalf("unexpected output: %+v", out)
	}
}

func TestInferDegradesToNil(t *testing.T) {
	cases := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"non_2xx", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}},
		{"malformed_body", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("{not json"))
		}},
		{"confidence_out_of_range", func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(models.AIOutput{
				Confidence: 1.4, MarketRegime: models.RegimeTrending, ModelVersion: "v1",
			})
		}},
		{"unknown_regime", func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(models.AIOutput{
				Confidence: 0.5, MarketRegime: "SIDEWAYS", ModelVersion: "v1",
			})
		}},
		{"missing_model_version", func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(models.AIOutput{
				Confidence: 0.5, MarketRegime: models.RegimeRanging,
			})
		}},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			srv := httptest.NewServer(c.handler)
			defer srv.Close()

			out, err := NewGateway(srv.URL, nil).Infer(context.Background(), testFeatures)
			if err != nil {
				t.Fatalf("degradation must not surface an error: %v", err)
			}
			if out != nil {
				t.Fatalf("expected nil output, got %+v", out)
			}
		})
	}
}

func TestInferTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	start := time.Now()
	out, err := NewGateway(srv.URL, nil).Infer(context.Background(), testFeatures)
	elapsed := time.Since(start)

	if err != nil || out != nil {
		t.Fatalf("timeout must degrade to nil: out=%v err=%v", out, err)
	}
	if elapsed > 2*time.Second {
		t.Fatalf("timeout not enforced: took %v", elapsed)
	}
}

func TestInferTransportFailure(t *testing.T) {
	out, err := NewGateway("http://127.0.0.1:1", nil).Infer(context.Background(), testFeatures)
	if err != nil || out != nil {
		t.Fatalf("transport failure must degrade to nil: out=%v err=%v", out, err)
	}
}

func TestInferNoEndpointConfigured(t *testing.T) {
	out, err := NewGateway("", nil).Infer(context.Background(), testFeatures)
	if err != nil || out != nil {
		t.Fatalf("no endpoint must degrade to nil: out=%v err=%v", out, err)
	}
}

func TestComputeIntel(t *testing.T) {
	// at baseline volatility and neutral RSI everything is calm
	calm := ComputeIntel(BaselineVolatility, 50, models.RegimeRanging)
	if calm.AnomalyScore != 0 || calm.ConfidenceDecay != 0 || calm.RiskLevel != "low" {
		t.Fatalf("calm conditions: %+v", calm)
	}

	// large deviation pushes the score into the high band
	hot := ComputeIntel(1.6, 95, models.RegimeVolatile)
	if hot.RiskLevel != "high" {
		t.Fatalf("risk level = %s, want high", hot.RiskLevel)
	}
	if hot.AnomalyScore != 1 {
		t.Fatalf("anomaly must clamp at 1: %v", hot.AnomalyScore)
	}

	// volatile regime adds decay over an otherwise identical ranging read
	volatile := ComputeIntel(0.9, 60, models.RegimeVolatile)
	ranging := ComputeIntel(0.9, 60, models.RegimeRanging)
	if volatile.ConfidenceDecay <= ranging.ConfidenceDecay {
		t.Fatalf("volatile regime must decay more: %v vs %v", volatile.ConfidenceDecay, ranging.ConfidenceDecay)
	}

	// medium band boundary: anomaly just above 0.3
	mid := ComputeIntel(BaselineVolatility+0.2, 65, models.RegimeRanging)
	if mid.RiskLevel != "medium" {
		t.Fatalf("risk level = %s, want medium (anomaly %v)", mid.RiskLevel, mid.AnomalyScore)
	}
}
