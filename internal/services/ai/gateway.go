package ai

import (
	"context"
	"time"

	"TraderMind/internal/domain/models"
	domsvc "TraderMind/internal/domain/service"
	xhttp "TraderMind/pkg/http"
	applogger "TraderMind/pkg/logger"
)

// InferenceTimeout is the hard bound on one inference attempt. On
// expiry the pipeline proceeds rule-only; the surrounding decision is
// never cancelled.
const InferenceTimeout = 1 * time.Second

// Gateway calls the external inference endpoint. Unavailability is a
// nil output, not an error: timeout, transport failure, non-2xx and
// malformed payloads all degrade to rule-only mode. One bounded attempt
// per invocation, no retries.
type Gateway struct {
	baseURL string
	client  *xhttp.Client
	logger  *applogger.Logger
}

func NewGateway(baseURL string, logger *applogger.Logger) *Gateway {
	return &Gateway{
		baseURL: baseURL,
		client:  xhttp.NewClient(xhttp.WithTimeout(InferenceTimeout)),
		logger:  logger,
	}
}

type inferRequest struct {
	Features models.FeatureVector `json:"features"`
}

// Infer posts the feature vector to /infer. The returned error is
// always nil; it exists to satisfy the domain Inference contract for
// implementations with harder failure modes.
func (g *Gateway) Infer(ctx context.Context, features models.FeatureVector) (*models.AIOutput, error) {
	if g.baseURL == "" {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, InferenceTimeout)
	defer cancel()

	var out models.AIOutput
	err := g.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:  xhttp.MethodPost,
		URL:     g.baseURL + "/infer",
		Headers: map[string]string{"Content-Type": "application/json"},
		Body:    inferRequest{Features: features},
	}, &out)
	if err != nil {
		if g.logger != nil {
			g.logger.Debug("inference unavailable", applogger.Error(err))
		}
		return nil, nil
	}
	if !validOutput(&out) {
		if g.logger != nil {
			g.logger.Debug("inference payload malformed", applogger.Any("payload", out))
		}
		return nil, nil
	}
	return &out, nil
}

func validOutput(out *models.AIOutput) bool {
	if out.Confidence < 0 || out.Confidence > 1 {
		return false
	}
	switch out.MarketRegime {
	case models.RegimeTrending, models.RegimeRanging, models.RegimeVolatile:
	default:
		return false
	}
	return out.ModelVersion != ""
}

var _ domsvc.Inference = (*Gateway)(nil)
