package usecase

import (
	"sync"
	"testing"

	"TraderMind/internal/domain/models"
)

func TestMarketHistoryEviction(t *testing.T) {
	h := NewMarketHistory(3)
	for i := 0; i < 5; i++ {
		h.Append(&models.Tick{Market: "R_10", Quote: float64(i)})
	}
	got := h.Snapshot("R_10")
	want := []float64{2, 3, 4}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("snapshot[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestMarketHistoryIsolation(t *testing.T) {
	h := NewMarketHistory(10)
	h.Append(&models.Tick{Market: "R_10", Quote: 1})
	h.Append(&models.Tick{Market: "R_25", Quote: 2})
	if h.Len("R_10") != 1 || h.Len("R_25") != 1 {
		t.Fatalf("markets not isolated: %d %d", h.Len("R_10"), h.Len("R_25"))
	}
	// Snapshot is a copy; mutating it must not touch the ring.
	snap := h.Snapshot("R_10")
	snap[0] = 99
	if h.Snapshot("R_10")[0] != 1 {
		t.Fatal("snapshot aliases internal buffer")
	}
}

func TestMarketHistoryConcurrentAppends(t *testing.T) {
	h := NewMarketHistory(1000)
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				h.Append(&models.Tick{Market: "R_50", Quote: float64(j)})
			}
		}()
	}
	wg.Wait()
	if h.Len("R_50") != 800 {
		t.Fatalf("len = %d, want 800", h.Len("R_50"))
	}
}
