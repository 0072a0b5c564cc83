package usecase

import (
	"context"
	"encoding/json"
	"time"

	"TraderMind/internal/domain/models"
	drepo "TraderMind/internal/domain/repository"
	pkgkafka "TraderMind/pkg/kafka"
)

// KafkaTicksHandler consumes tick messages from the ingest topic and
// feeds them into the decision pipeline. Used when ticks arrive via the
// broker instead of (or in addition to) the WebSocket stream.
type KafkaTicksHandler struct {
	topic    string
	pipeline *DecisionPipeline
	metrics  drepo.Metrics
}

func NewKafkaTicksHandler(topic string, pipeline *DecisionPipeline, metrics drepo.Metrics) *KafkaTicksHandler {
	return &KafkaTicksHandler{topic: topic, pipeline: pipeline, metrics: metrics}
}

func (h *KafkaTicksHandler) Topic() string { return h.topic }

// incoming message schema: {market, quote, t} with t in epoch millis
func (h *KafkaTicksHandler) Handle(ctx context.Context, b []byte) error {
	var m struct {
		Market string  `json:"market"`
		Quote  float64 `json:"quote"`
		T      int64   `json:"t"`
	}
	if err := json.Unmarshal(b, &m); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return err
	}
	if m.T < 1e11 { // seconds
		m.T = m.T * 1000
	}
	h.metrics.RecordLatency("ingest_e2e_seconds", time.Since(time.UnixMilli(m.T)).Seconds())

	return h.pipeline.Process(ctx, &models.Tick{
		Market:    m.Market,
		Quote:     m.Quote,
		Timestamp: m.T,
	})
}

var _ pkgkafka.MessageHandler = (*KafkaTicksHandler)(nil)
