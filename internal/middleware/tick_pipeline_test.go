package middleware

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"TraderMind/internal/domain/models"
)

type countingProc struct {
	mu    sync.Mutex
	seen  int
	fail  bool
	ticks []*models.Tick
}

func (c *countingProc) Process(ctx context.Context, t *models.Tick) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return errors.New("downstream down")
	}
	c.seen++
	c.ticks = append(c.ticks, t)
	return nil
}

func (c *countingProc) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seen
}

func (c *countingProc) setFail(f bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fail = f
}

type testMetrics struct {
	mu     sync.Mutex
	errors map[string]int
}

func newTestMetrics() *testMetrics { return &testMetrics{errors: make(map[string]int)} }

func (m *testMetrics) RecordTick(string)               {}
func (m *testMetrics) RecordSignal(string, string)     {}
func (m *testMetrics) RecordRiskDecision(bool, string) {}
func (m *testMetrics) RecordInference(string)          {}
func (m *testMetrics) RecordLastQuote(string, float64) {}
func (m *testMetrics) RecordLatency(string, float64)   {}
func (m *testMetrics) RecordError(kind string) {
	m.mu.Lock()
	m.errors[kind]++
	m.mu.Unlock()
}

func (m *testMetrics) errorCount(kind string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.errors[kind]
}

func validTick(market string) *models.Tick {
	return &models.Tick{Market: market, Quote: 100.5, Timestamp: time.Now().UnixMilli()}
}

func TestTickPipelineValidation(t *testing.T) {
	proc := &countingProc{}
	m := newTestMetrics()
	p := NewTickPipeline(proc, m)

	tests := []struct {
		name string
		tick *models.Tick
	}{
		{"nil tick", nil},
		{"empty market", &models.Tick{Quote: 1, Timestamp: 1}},
		{"zero timestamp", &models.Tick{Market: "R_10", Quote: 1}},
		{"negative quote", &models.Tick{Market: "R_10", Quote: -1, Timestamp: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := p.Process(context.Background(), tt.tick); err == nil {
				t.Error("expected validation error")
			}
		})
	}
	if proc.count() != 0 {
		t.Fatalf("invalid ticks reached downstream: %d", proc.count())
	}
	if m.errorCount("pipeline_validate") != len(tests) {
		t.Errorf("validate errors = %d, want %d", m.errorCount("pipeline_validate"), len(tests))
	}
}

func TestTickPipelineThrottlesPerMarket(t *testing.T) {
	proc := &countingProc{}
	m := newTestMetrics()
	p := NewTickPipeline(proc, m, WithMaxRPS(1))

	ctx := context.Background()
	// Two rapid ticks on the same market: second is dropped, not delayed.
	if err := p.Process(ctx, validTick("R_10")); err != nil {
		t.Fatal(err)
	}
	if err := p.Process(ctx, validTick("R_10")); err != nil {
		t.Fatal(err)
	}
	// A different market has its own budget.
	if err := p.Process(ctx, validTick("R_25")); err != nil {
		t.Fatal(err)
	}

	if proc.count() != 2 {
		t.Fatalf("downstream saw %d ticks, want 2", proc.count())
	}
	if m.errorCount("pipeline_throttle") != 1 {
		t.Errorf("throttle drops = %d, want 1", m.errorCount("pipeline_throttle"))
	}
}

func TestTickPipelineBuffersOnDownstreamFailure(t *testing.T) {
	proc := &countingProc{}
	proc.setFail(true)
	m := newTestMetrics()
	p := NewTickPipeline(proc, m, WithMaxRPS(1000), WithBufferSize(10))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p.Start(ctx)
	defer p.Stop()

	if err := p.Process(ctx, validTick("R_10")); err == nil {
		t.Fatal("expected downstream error")
	}

	// Once downstream recovers the buffered tick is flushed.
	proc.setFail(false)
	deadline := time.After(3 * time.Second)
	for proc.count() == 0 {
		select {
		case <-deadline:
			t.Fatal("buffered tick never flushed")
		case <-time.After(20 * time.Millisecond):
		}
	}
}
