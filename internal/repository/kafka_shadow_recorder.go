package repository

import (
	"context"
	"time"

	"TraderMind/internal/domain/models"
	drepo "TraderMind/internal/domain/repository"
	pkgkafka "TraderMind/pkg/kafka"
	"TraderMind/pkg/logger"
)

// shadowEntry is the wire shape published to the shadow topic.
type shadowEntry struct {
	ModelID    string           `json:"model_id"`
	Output     *models.AIOutput `json:"output"`
	InputHash  string           `json:"input_hash"`
	Market     string           `json:"market"`
	SessionID  string           `json:"session_id"`
	RecordedAt time.Time        `json:"recorded_at"`
}

// KafkaShadowRecorder publishes inference outputs to a Kafka topic for
// offline model evaluation. Publish failures are logged, never surfaced
// to the decision path.
type KafkaShadowRecorder struct {
	producer *pkgkafka.Producer
	topic    string
	logger   *logger.Logger
}

// NewKafkaShadowRecorder creates a shadow recorder on an existing producer.
func NewKafkaShadowRecorder(producer *pkgkafka.Producer, topic string, lgr *logger.Logger) *KafkaShadowRecorder {
	return &KafkaShadowRecorder{producer: producer, topic: topic, logger: lgr}
}

var _ drepo.ShadowRecorder = (*KafkaShadowRecorder)(nil)

// Record publishes one shadow entry keyed by market.
func (r *KafkaShadowRecorder) Record(ctx context.Context, modelID string, output *models.AIOutput, inputHash, market, sessionID string) error {
	entry := shadowEntry{
		ModelID:    modelID,
		Output:     output,
		InputHash:  inputHash,
		Market:     market,
		SessionID:  sessionID,
		RecordedAt: time.Now().UTC(),
	}
	if err := r.producer.Publish(ctx, r.topic, []byte(market), entry); err != nil {
		r.logger.Warn("shadow record publish failed",
			logger.String("market", market),
			logger.String("session_id", sessionID),
			logger.Error(err))
		return err
	}
	return nil
}
