package repository

import (
	"context"

	"TraderMind/internal/domain/models"
)

// TickStream delivers market ticks from the wire transport.
type TickStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Read(ctx context.Context) (<-chan *models.Tick, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

// TradeStore is the append-only persistence collaborator for trade
// records. Records are immutable once written.
type TradeStore interface {
	Init(ctx context.Context) error
	Append(ctx context.Context, rec *models.TradeRecord) error
	ListBySession(ctx context.Context, sessionID string) ([]models.TradeRecord, error)
	Health(ctx context.Context) error
	Close() error
}

// ShadowRecorder logs inference outputs for offline evaluation without
// influencing the live decision. Implementations must not block the
// decision cycle on failure.
type ShadowRecorder interface {
	Record(ctx context.Context, modelID string, output *models.AIOutput, inputHash, market, sessionID string) error
}

// ExecutionQueue hands approved trades off to the external execution
// collaborator.
type ExecutionQueue interface {
	Enqueue(ctx context.Context, trade *models.ApprovedTrade) error
}

// Metrics records pipeline observability figures.
type Metrics interface {
	RecordTick(market string)
	RecordSignal(market, signalType string)
	RecordRiskDecision(approved bool, tier string)
	RecordInference(outcome string) // ok, timeout, error, fallback
	RecordLastQuote(market string, quote float64)
	RecordLatency(op string, seconds float64)
	RecordError(kind string)
}
