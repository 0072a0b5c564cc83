package repository

import (
	"context"
	"fmt"

	"TraderMind/internal/domain/models"
	drepo "TraderMind/internal/domain/repository"
	"TraderMind/pkg/queue"
)

// ExecuteTradeMessage is the queue message type consumed by the
// execution worker.
const ExecuteTradeMessage = "execute_trade"

// RedisExecutionQueue hands approved trades to the execution worker via
// the Redis-backed queue.
type RedisExecutionQueue struct {
	q queue.QueueService
}

// NewRedisExecutionQueue creates an execution handoff on an existing queue.
func NewRedisExecutionQueue(q queue.QueueService) *RedisExecutionQueue {
	return &RedisExecutionQueue{q: q}
}

var _ drepo.ExecutionQueue = (*RedisExecutionQueue)(nil)

// Enqueue publishes one approved trade for execution.
func (r *RedisExecutionQueue) Enqueue(ctx context.Context, trade *models.ApprovedTrade) error {
	if trade == nil {
		return fmt.Errorf("nil trade")
	}
	if err := r.q.PublishMessage(ctx, ExecuteTradeMessage, trade); err != nil {
		return fmt.Errorf("enqueue trade %s: %w", trade.TradeID, err)
	}
	return nil
}
