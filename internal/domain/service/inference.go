package service

import (
	"context"

	"TraderMind/internal/domain/models"
)

// Inference obtains an AI-assisted bias for a feature vector. A nil
// output with a nil error means the endpoint was unavailable and the
// caller should proceed rule-only.
type Inference interface {
	Infer(ctx context.Context, features models.FeatureVector) (*models.AIOutput, error)
}
