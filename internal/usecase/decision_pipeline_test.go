package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"TraderMind/internal/domain/models"
	"TraderMind/internal/services/risk"
	"TraderMind/internal/services/session"
)

type fakeInference struct {
	out *models.AIOutput
}

func (f *fakeInference) Infer(ctx context.Context, fv models.FeatureVector) (*models.AIOutput, error) {
	return f.out, nil
}

type fakeTradeStore struct {
	mu   sync.Mutex
	recs []models.TradeRecord
	fail bool
}

func (f *fakeTradeStore) Init(ctx context.Context) error { return nil }
func (f *fakeTradeStore) Append(ctx context.Context, rec *models.TradeRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("store down")
	}
	f.recs = append(f.recs, *rec)
	return nil
}
func (f *fakeTradeStore) ListBySession(ctx context.Context, sessionID string) ([]models.TradeRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.TradeRecord(nil), f.recs...), nil
}
func (f *fakeTradeStore) Health(ctx context.Context) error { return nil }
func (f *fakeTradeStore) Close() error                     { return nil }

func (f *fakeTradeStore) records() []models.TradeRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.TradeRecord(nil), f.recs...)
}

type fakeExecQueue struct {
	mu     sync.Mutex
	trades []*models.ApprovedTrade
	fail   bool
}

func (f *fakeExecQueue) Enqueue(ctx context.Context, trade *models.ApprovedTrade) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("queue down")
	}
	f.trades = append(f.trades, trade)
	return nil
}

type fakeShadow struct {
	calls chan string
}

func (f *fakeShadow) Record(ctx context.Context, modelID string, out *models.AIOutput, inputHash, market, sessionID string) error {
	select {
	case f.calls <- sessionID:
	default:
	}
	return nil
}

type noopMetrics struct{}

func (noopMetrics) RecordTick(string)               {}
func (noopMetrics) RecordSignal(string, string)     {}
func (noopMetrics) RecordRiskDecision(bool, string) {}
func (noopMetrics) RecordInference(string)          {}
func (noopMetrics) RecordLastQuote(string, float64) {}
func (noopMetrics) RecordLatency(string, float64)   {}
func (noopMetrics) RecordError(string)              {}

func activeSession(t *testing.T, reg *session.Registry, id, market, user string) {
	t.Helper()
	if _, err := reg.Create(id, models.SessionConfig{
		MaxParticipants: 10,
		AllowedMarkets:  []string{market},
		RiskProfile:     models.ProfileMedium,
		MinConfidence:   0.5,
		MaxStake:        10,
		GlobalLossLimit: 100,
	}); err != nil {
		t.Fatal(err)
	}
	if _, err := reg.Transition(id, models.SessionActive); err != nil {
		t.Fatal(err)
	}
	if _, err := reg.AddParticipant(id, user); err != nil {
		t.Fatal(err)
	}
}

func newTestPipeline(store *fakeTradeStore, execq *fakeExecQueue, shadow *fakeShadow, reg *session.Registry) *DecisionPipeline {
	deps := PipelineDeps{
		Inference: &fakeInference{out: &models.AIOutput{
			Confidence:   0.95,
			MarketRegime: models.RegimeTrending,
			ModelVersion: "m1",
		}},
		Validator: risk.NewValidator(),
		Sessions:  reg,
		RiskState: NewRiskState(UserLimits{MaxDrawdown: 50, MaxDailyLoss: 25, MaxTradesPerDay: 100}),
		Store:     store,
		ExecQueue: execq,
		Metrics:   noopMetrics{},
		BaseStake: 1,
	}
	// Assign only when non-nil so a nil *fakeShadow yields a nil interface.
	if shadow != nil {
		deps.Shadow = shadow
	}
	return NewDecisionPipeline(deps)
}

func feedTicks(t *testing.T, p *DecisionPipeline, market string, n int) []Decision {
	t.Helper()
	var last []Decision
	for i := 0; i < n; i++ {
		d, err := p.Decide(context.Background(), &models.Tick{
			Market:    market,
			Quote:     100 + float64(i)*0.1,
			Timestamp: int64(1700000000000 + i*1000),
		})
		if err != nil {
			t.Fatalf("decide tick %d: %v", i, err)
		}
		last = d
	}
	return last
}

func TestPipelineWarmupProducesNoDecisions(t *testing.T) {
	reg := session.NewRegistry()
	activeSession(t, reg, "sess-1", "R_10", "u1")
	p := newTestPipeline(&fakeTradeStore{}, &fakeExecQueue{}, nil, reg)

	if got := feedTicks(t, p, "R_10", 49); got != nil {
		t.Fatalf("expected no decisions during warmup, got %d", len(got))
	}
	if _, ok := p.LastSignal("R_10"); ok {
		t.Fatal("no signal should exist before the window fills")
	}
}

func TestPipelineApprovedTradeFlow(t *testing.T) {
	reg := session.NewRegistry()
	activeSession(t, reg, "sess-1", "R_10", "u1")
	store := &fakeTradeStore{}
	execq := &fakeExecQueue{}
	shadow := &fakeShadow{calls: make(chan string, 16)}
	p := newTestPipeline(store, execq, shadow, reg)

	decisions := feedTicks(t, p, "R_10", 60)
	if len(decisions) != 1 {
		t.Fatalf("decisions = %d, want 1", len(decisions))
	}
	d := decisions[0]
	if !d.Result.Approved {
		t.Fatalf("expected approval, got %s (%s)", d.Result.Reason, d.Result.OverriddenBy)
	}
	if d.Trade == nil || d.Trade.TradeID == "" || d.Trade.IdempotencyKey == "" {
		t.Fatal("approved decision missing trade identifiers")
	}
	if d.Trade.Type != d.Trade.Signal.Type || d.Trade.Market != d.Trade.Signal.Market {
		t.Errorf("trade type/market = %s/%s, want %s/%s",
			d.Trade.Type, d.Trade.Market, d.Trade.Signal.Type, d.Trade.Signal.Market)
	}

	execq.mu.Lock()
	queued := len(execq.trades)
	execq.mu.Unlock()
	if queued == 0 {
		t.Fatal("approved trade never reached the execution queue")
	}

	recs := store.records()
	if len(recs) == 0 {
		t.Fatal("no trade record persisted")
	}
	last := recs[len(recs)-1]
	if last.Status != models.TradeCompleted {
		t.Errorf("record status = %s, want %s", last.Status, models.TradeCompleted)
	}
	var meta models.TradeMetadata
	if err := json.Unmarshal(last.Metadata, &meta); err != nil {
		t.Fatalf("metadata unmarshal: %v", err)
	}
	if meta.IdempotencyKey != d.Trade.IdempotencyKey {
		t.Error("metadata idempotency key does not match trade")
	}
	if meta.AIAnalysis == nil || meta.AIAnalysis.ModelVersion != "m1" {
		t.Error("metadata missing inference output")
	}
	if meta.Intel == nil {
		t.Error("metadata missing intel metrics")
	}

	select {
	case sessID := <-shadow.calls:
		if sessID != "sess-1" {
			t.Errorf("shadow recorded for %s, want sess-1", sessID)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("shadow recorder never called")
	}

	if _, ok := p.LastSignal("R_10"); !ok {
		t.Fatal("latest signal not stored")
	}
}

func TestPipelineHandoffFailureDegrades(t *testing.T) {
	reg := session.NewRegistry()
	activeSession(t, reg, "sess-1", "R_10", "u1")
	store := &fakeTradeStore{}
	execq := &fakeExecQueue{fail: true}
	p := newTestPipeline(store, execq, nil, reg)

	decisions := feedTicks(t, p, "R_10", 60)
	if len(decisions) != 1 || decisions[0].Trade == nil {
		t.Fatal("expected one approved decision despite handoff failure")
	}
	recs := store.records()
	if len(recs) == 0 {
		t.Fatal("no trade record persisted")
	}
	last := recs[len(recs)-1]
	if last.Status != models.TradeFailed {
		t.Errorf("record status = %s, want %s", last.Status, models.TradeFailed)
	}
	if last.Result != "handoff_failed" {
		t.Errorf("record result = %q, want handoff_failed", last.Result)
	}
}

func TestPipelineSkipsIneligibleSessions(t *testing.T) {
	reg := session.NewRegistry()
	activeSession(t, reg, "sess-1", "R_10", "u1")
	if _, err := reg.Transition("sess-1", models.SessionRunning); err != nil {
		t.Fatal(err)
	}
	if _, err := reg.Transition("sess-1", models.SessionPaused); err != nil {
		t.Fatal(err)
	}
	// A session for a different market must not see R_10 signals either.
	activeSession(t, reg, "sess-2", "R_25", "u2")

	p := newTestPipeline(&fakeTradeStore{}, &fakeExecQueue{}, nil, reg)
	if got := feedTicks(t, p, "R_10", 60); got != nil {
		t.Fatalf("expected no decisions, got %d", len(got))
	}
	// The signal itself is still produced and queryable.
	if _, ok := p.LastSignal("R_10"); !ok {
		t.Fatal("signal should be produced even with no eligible session")
	}
}
