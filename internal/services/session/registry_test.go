package session

import (
	"errors"
	"sync"
	"testing"
	"time"

	"TraderMind/internal/domain/models"
)

func newSession(t *testing.T, r *Registry, id string, maxParticipants int) models.Session {
	t.Helper()
	s, err := r.Create(id, models.SessionConfig{
		MaxParticipants: maxParticipants,
		AllowedMarkets:  []string{"R_100"},
		RiskProfile:     models.ProfileMedium,
		MinConfidence:   0.6,
		MaxStake:        10,
		GlobalLossLimit: 100,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	return s
}

func TestFullLifecycle(t *testing.T) {
	r := NewRegistry()
	newSession(t, r, "s-1", 2)

	seq := []models.SessionStatus{
		models.SessionActive,
		models.SessionRunning,
		models.SessionPaused,
		models.SessionRunning,
		models.SessionCompleted,
	}
	for _, target := range seq {
		s, err := r.Transition("s-1", target)
		if err != nil {
			t.Fatalf("transition to %s: %v", target, err)
		}
		if s.Status != target {
			t.Fatalf("status = %s, want %s", s.Status, target)
		}
	}

	s, _ := r.Get("s-1")
	if s.CompletedAt == nil {
		t.Fatalf("CompletedAt not stamped")
	}
}

func TestIllegalTransitions(t *testing.T) {
	cases := []struct {
		name  string
		setup []models.SessionStatus
		to    models.SessionStatus
	}{
		{"pending_to_running", nil, models.SessionRunning},
		{"pending_to_completed", nil, models.SessionCompleted},
		{"active_to_pending", []models.SessionStatus{models.SessionActive}, models.SessionPending},
		{"active_to_paused", []models.SessionStatus{models.SessionActive}, models.SessionPaused},
		{"completed_is_terminal", []models.SessionStatus{
			models.SessionActive, models.SessionRunning, models.SessionCompleted,
		}, models.SessionActive},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			r := NewRegistry()
			newSession(t, r, "s-1", 2)
			for _, st := range c.setup {
				if _, err := r.Transition("s-1", st); err != nil {
					t.Fatalf("setup transition to %s: %v", st, err)
				}
			}
			before, _ := r.Get("s-1")

			_, err := r.Transition("s-1", c.to)
			var ite *InvalidTransitionError
			if !errors.As(err, &ite) {
				t.Fatalf("expected InvalidTransitionError, got %v", err)
			}
			if ite.From != before.Status || ite.To != c.to {
				t.Fatalf("error names %s->%s, want %s->%s", ite.From, ite.To, before.Status, c.to)
			}

			after, _ := r.Get("s-1")
			if after.Status != before.Status {
				t.Fatalf("state changed on failed transition: %s -> %s", before.Status, after.Status)
			}
		})
	}
}

func TestParticipantCapacityAndUniqueness(t *testing.T) {
	r := NewRegistry()
	newSession(t, r, "s-1", 2)

	if _, err := r.AddParticipant("s-1", "u-1"); err != nil {
		t.Fatalf("first join: %v", err)
	}
	if _, err := r.AddParticipant("s-1", "u-1"); !errors.Is(err, ErrDuplicateParticipant) {
		t.Fatalf("duplicate join: expected ErrDuplicateParticipant, got %v", err)
	}
	if _, err := r.AddParticipant("s-1", "u-2"); err != nil {
		t.Fatalf("second join: %v", err)
	}
	if _, err := r.AddParticipant("s-1", "u-3"); !errors.Is(err, ErrSessionFull) {
		t.Fatalf("third join: expected ErrSessionFull, got %v", err)
	}

	// removal frees capacity and allows re-joining the same user
	if err := r.RemoveParticipant("s-1", "u-1"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := r.AddParticipant("s-1", "u-1"); err != nil {
		t.Fatalf("re-join after removal: %v", err)
	}

	// removed record is retained for audit
	ps, err := r.Participants("s-1")
	if err != nil {
		t.Fatalf("participants: %v", err)
	}
	if len(ps) != 3 {
		t.Fatalf("participant records = %d, want 3 (removed retained)", len(ps))
	}
	removed := 0
	for _, p := range ps {
		if p.Status == models.ParticipantRemoved {
			removed++
		}
	}
	if removed != 1 {
		t.Fatalf("removed records = %d, want 1", removed)
	}
}

func TestUnknownSession(t *testing.T) {
	r := NewRegistry()
	if _, err := r.Transition("nope", models.SessionActive); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
	if _, err := r.AddParticipant("nope", "u-1"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestEligible(t *testing.T) {
	if Eligible(models.SessionPending) || Eligible(models.SessionPaused) || Eligible(models.SessionCompleted) {
		t.Fatalf("only ACTIVE/RUNNING sessions are eligible")
	}
	if !Eligible(models.SessionActive) || !Eligible(models.SessionRunning) {
		t.Fatalf("ACTIVE and RUNNING must be eligible")
	}
}

func TestPauseAll(t *testing.T) {
	r := NewRegistry()
	newSession(t, r, "run-1", 2)
	newSession(t, r, "run-2", 2)
	newSession(t, r, "pend", 2)
	for _, id := range []string{"run-1", "run-2"} {
		r.Transition(id, models.SessionActive)
		r.Transition(id, models.SessionRunning)
	}

	paused := r.PauseAll()
	if len(paused) != 2 {
		t.Fatalf("paused %d sessions, want 2", len(paused))
	}
	s, _ := r.Get("pend")
	if s.Status != models.SessionPending {
		t.Fatalf("pending session touched by PauseAll: %s", s.Status)
	}
}

func TestConcurrentJoins(t *testing.T) {
	r := NewRegistry()
	newSession(t, r, "s-1", 5)

	var wg sync.WaitGroup
	joined := make(chan struct{}, 32)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := r.AddParticipant("s-1", "u-"+string(rune('a'+i))); err == nil {
				joined <- struct{}{}
			}
		}(i)
	}
	wg.Wait()
	close(joined)

	n := 0
	for range joined {
		n++
	}
	if n != 5 {
		t.Fatalf("joined = %d, capacity is 5", n)
	}
}

func TestClockInjection(t *testing.T) {
	fixed := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	r := NewRegistry().WithClock(func() time.Time { return fixed })
	newSession(t, r, "s-1", 2)
	r.Transition("s-1", models.SessionActive)
	r.Transition("s-1", models.SessionRunning)
	s, _ := r.Transition("s-1", models.SessionCompleted)
	if s.CompletedAt == nil || !s.CompletedAt.Equal(fixed) {
		t.Fatalf("CompletedAt = %v, want %v", s.CompletedAt, fixed)
	}
}
