package usecase

import (
	"sync"

	"TraderMind/internal/domain/models"
)

// DefaultHistoryCap bounds the per-market price ring.
const DefaultHistoryCap = 500

// MarketHistory keeps a bounded, ordered price window per market.
// Appends and snapshots are safe for concurrent use; each market is an
// independent ring.
type MarketHistory struct {
	mu    sync.RWMutex
	cap   int
	rings map[string][]float64
}

func NewMarketHistory(capacity int) *MarketHistory {
	if capacity <= 0 {
		capacity = DefaultHistoryCap
	}
	return &MarketHistory{cap: capacity, rings: make(map[string][]float64)}
}

// Append records the tick's quote at the end of its market window,
// evicting the oldest point once the window is full.
func (h *MarketHistory) Append(t *models.Tick) {
	h.mu.Lock()
	defer h.mu.Unlock()
	ring := h.rings[t.Market]
	ring = append(ring, t.Quote)
	if len(ring) > h.cap {
		ring = ring[len(ring)-h.cap:]
	}
	h.rings[t.Market] = ring
}

// Snapshot returns a copy of the market's window, oldest first.
func (h *MarketHistory) Snapshot(market string) []float64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	ring := h.rings[market]
	out := make([]float64, len(ring))
	copy(out, ring)
	return out
}

// Len returns the number of points held for a market.
func (h *MarketHistory) Len(market string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rings[market])
}
