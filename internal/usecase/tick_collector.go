package usecase

import (
	"context"

	"TraderMind/internal/domain/models"
	drepo "TraderMind/internal/domain/repository"
	mid "TraderMind/internal/middleware"
)

// TickCollector reads ticks from the wire transport and drives the
// decision pipeline through the throttling middleware.
type TickCollector struct {
	stream   drepo.TickStream
	pipeline *DecisionPipeline
	metrics  drepo.Metrics
	pipe     *mid.TickPipeline
}

func NewTickCollector(stream drepo.TickStream, pipeline *DecisionPipeline, metrics drepo.Metrics, pipe *mid.TickPipeline) *TickCollector {
	return &TickCollector{stream: stream, pipeline: pipeline, metrics: metrics, pipe: pipe}
}

// IsConnected returns true if the tick stream is connected.
func (c *TickCollector) IsConnected() bool {
	return c.stream.IsConnected()
}

// Pipeline exposes the decision pipeline for handler wiring.
func (c *TickCollector) Pipeline() *DecisionPipeline { return c.pipeline }

func (c *TickCollector) Start(ctx context.Context) error {
	if err := c.stream.Connect(ctx); err != nil {
		return err
	}
	if err := c.stream.Subscribe(ctx); err != nil {
		return err
	}
	if c.pipe != nil {
		c.pipe.Start(ctx)
	}
	tickCh, errCh := c.stream.Read(ctx)
	go c.consume(ctx, tickCh, errCh)
	return nil
}

func (c *TickCollector) consume(ctx context.Context, tickCh <-chan *models.Tick, errCh <-chan error) {
	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-errCh:
			if err != nil {
				c.metrics.RecordError("stream")
			}
			// The read loop exits after any error and closes both
			// channels. A fresh Read on the new connection is required
			// or tick flow stops for good.
			if err != nil || !ok {
				tickCh, errCh = c.restart(ctx)
				if tickCh == nil {
					return
				}
			}
		case t, ok := <-tickCh:
			if !ok {
				tickCh, errCh = c.restart(ctx)
				if tickCh == nil {
					return
				}
				continue
			}
			if t == nil {
				continue
			}
			if c.pipe != nil {
				_ = c.pipe.Process(ctx, t)
			} else {
				_ = c.pipeline.Process(ctx, t)
			}
		}
	}
}

// restart re-establishes the stream and returns fresh channels.
// Reconnect paces retries with the configured delay; nil channels
// mean the context was cancelled.
func (c *TickCollector) restart(ctx context.Context) (<-chan *models.Tick, <-chan error) {
	for {
		if ctx.Err() != nil {
			return nil, nil
		}
		if err := c.stream.Reconnect(ctx); err != nil {
			c.metrics.RecordError("stream_reconnect")
			continue
		}
		return c.stream.Read(ctx)
	}
}

// Close stops the middleware and closes the stream.
func (c *TickCollector) Close() {
	if c.pipe != nil {
		c.pipe.Stop()
	}
	if c.stream != nil {
		_ = c.stream.Close()
	}
}
