package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"TraderMind/internal/domain/models"
	drepo "TraderMind/internal/domain/repository"
)

// ErrStoreUnavailable wraps persistence failures. Replay and audit
// cannot proceed without the store; no partial results are fabricated.
var ErrStoreUnavailable = errors.New("trade store unavailable")

// Engine reconstructs decision timelines from persisted trade records
// and verifies idempotency-key uniqueness. All operations are read-only.
type Engine struct {
	store drepo.TradeStore
}

func NewEngine(store drepo.TradeStore) *Engine {
	return &Engine{store: store}
}

// SessionReplay returns one ReplayEvent per trade record, sorted by
// CreatedAt ascending. The stored metadata bytes are carried verbatim.
func (e *Engine) SessionReplay(ctx context.Context, sessionID string) ([]models.ReplayEvent, error) {
	if e.store == nil {
		return nil, ErrStoreUnavailable
	}
	recs, err := e.store.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].CreatedAt.Before(recs[j].CreatedAt)
	})

	events := make([]models.ReplayEvent, 0, len(recs))
	for _, rec := range recs {
		typ := models.ReplayTradeFailed
		if rec.Status == models.TradeCompleted {
			typ = models.ReplayTradeExecuted
		}
		events = append(events, models.ReplayEvent{
			Timestamp: rec.CreatedAt,
			Type:      typ,
			Data: models.ReplayEventData{
				TradeID:  rec.ID,
				Market:   marketOf(rec.Metadata),
				Result:   rec.Result,
				Profit:   rec.Profit,
				Metadata: rec.Metadata,
			},
		})
	}
	return events, nil
}

// AuditIdempotency scans all trade metadata for idempotency keys and
// reports repeats. Duplicates are counted by key, not by occurrence.
// Detection only: nothing is mutated.
func (e *Engine) AuditIdempotency(ctx context.Context, sessionID string) (models.IdempotencyReport, error) {
	if e.store == nil {
		return models.IdempotencyReport{}, ErrStoreUnavailable
	}
	recs, err := e.store.ListBySession(ctx, sessionID)
	if err != nil {
		return models.IdempotencyReport{}, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	seen := make(map[string]bool)
	flagged := make(map[string]bool)
	report := models.IdempotencyReport{Total: len(recs), DuplicateKeys: []string{}}
	for _, rec := range recs {
		key := idempotencyKeyOf(rec.Metadata)
		if key == "" {
			continue
		}
		if seen[key] {
			if !flagged[key] {
				flagged[key] = true
				report.Duplicates++
				report.DuplicateKeys = append(report.DuplicateKeys, key)
			}
			continue
		}
		seen[key] = true
	}
	return report, nil
}

func marketOf(metadata json.RawMessage) string {
	var m struct {
		Signal struct {
			Market string `json:"market"`
		} `json:"signal"`
	}
	if err := json.Unmarshal(metadata, &m); err != nil {
		return ""
	}
	return m.Signal.Market
}

func idempotencyKeyOf(metadata json.RawMessage) string {
	var m struct {
		Key string `json:"idempotencyKey"`
	}
	if err := json.Unmarshal(metadata, &m); err != nil {
		return ""
	}
	return m.Key
}
