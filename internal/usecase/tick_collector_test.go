package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"TraderMind/internal/domain/models"
)

// scriptedStream hands out one prepared channel pair per Read call.
type scriptedStream struct {
	mu         sync.Mutex
	reads      []streamFeed
	readCalls  int
	reconnects int
}

type streamFeed struct {
	ticks chan *models.Tick
	errs  chan error
}

func (s *scriptedStream) Connect(ctx context.Context) error   { return nil }
func (s *scriptedStream) Subscribe(ctx context.Context) error { return nil }
func (s *scriptedStream) Close() error                        { return nil }
func (s *scriptedStream) IsConnected() bool                   { return true }

func (s *scriptedStream) Reconnect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reconnects++
	return nil
}

func (s *scriptedStream) Read(ctx context.Context) (<-chan *models.Tick, <-chan error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	feed := s.reads[s.readCalls]
	s.readCalls++
	return feed.ticks, feed.errs
}

func (s *scriptedStream) counts() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readCalls, s.reconnects
}

// A read failure closes both stream channels. The collector must
// re-read from the new connection so ticks keep flowing.
func TestCollectorResumesAfterStreamFailure(t *testing.T) {
	first := streamFeed{ticks: make(chan *models.Tick), errs: make(chan error, 1)}
	second := streamFeed{ticks: make(chan *models.Tick, 1), errs: make(chan error, 1)}
	stream := &scriptedStream{reads: []streamFeed{first, second}}

	pipeline := NewDecisionPipeline(PipelineDeps{Metrics: noopMetrics{}})
	collector := NewTickCollector(stream, pipeline, noopMetrics{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := collector.Start(ctx); err != nil {
		t.Fatal(err)
	}

	// Fail the first connection the way the wire client does.
	first.errs <- errors.New("stream read: connection reset")
	close(first.ticks)
	close(first.errs)

	second.ticks <- &models.Tick{Market: "R_10", Quote: 101.5, Timestamp: time.Now().UnixMilli()}

	deadline := time.After(3 * time.Second)
	for pipeline.history.Len("R_10") == 0 {
		select {
		case <-deadline:
			reads, reconnects := stream.counts()
			t.Fatalf("tick never reached the pipeline (reads=%d reconnects=%d)", reads, reconnects)
		case <-time.After(10 * time.Millisecond):
		}
	}

	reads, reconnects := stream.counts()
	if reads != 2 {
		t.Errorf("Read calls = %d, want 2", reads)
	}
	if reconnects != 1 {
		t.Errorf("Reconnect calls = %d, want 1", reconnects)
	}
}
