package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"TraderMind/internal/domain/models"
)

var (
	ErrSessionNotFound      = errors.New("session not found")
	ErrSessionFull          = errors.New("session is full")
	ErrDuplicateParticipant = errors.New("participant already in session")
)

// entry is the arena record for one session: the session row, its
// participants (retained after removal for audit), and the lock that
// serializes mutations on this session id. Different sessions mutate
// independently.
type entry struct {
	mu           sync.Mutex
	session      models.Session
	participants []models.Participant
}

// Registry owns all session and participant state. Sessions are mutated
// only through its methods; reads return copies.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*entry
	clock   func() time.Time
}

func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*entry), clock: time.Now}
}

// WithClock overrides the time source, for tests.
func (r *Registry) WithClock(clock func() time.Time) *Registry {
	r.clock = clock
	return r
}

// Create registers a new session in PENDING state.
func (r *Registry) Create(id string, cfg models.SessionConfig) (models.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[id]; ok {
		return models.Session{}, fmt.Errorf("session %s already exists", id)
	}
	s := models.Session{
		ID:        id,
		Status:    models.SessionPending,
		Config:    cfg,
		CreatedAt: r.clock(),
	}
	r.entries[id] = &entry{session: s}
	return s, nil
}

func (r *Registry) lookup(id string) (*entry, error) {
	r.mu.RLock()
	e, ok := r.entries[id]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return e, nil
}

// Get returns a snapshot of the session.
func (r *Registry) Get(id string) (models.Session, error) {
	e, err := r.lookup(id)
	if err != nil {
		return models.Session{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session, nil
}

// Transition moves the session to target if the pair is legal, applied
// atomically with respect to other commands on the same session.
// Entering COMPLETED stamps CompletedAt.
func (r *Registry) Transition(id string, target models.SessionStatus) (models.Session, error) {
	e, err := r.lookup(id)
	if err != nil {
		return models.Session{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if !CanTransition(e.session.Status, target) {
		return models.Session{}, &InvalidTransitionError{From: e.session.Status, To: target}
	}
	e.session.Status = target
	if target == models.SessionCompleted {
		now := r.clock()
		e.session.CompletedAt = &now
	}
	return e.session, nil
}

// AddParticipant joins a user to the session with status ACTIVE.
// Capacity and the (session, user) uniqueness constraint count only
// non-REMOVED participants.
func (r *Registry) AddParticipant(sessionID, userID string) (models.Participant, error) {
	e, err := r.lookup(sessionID)
	if err != nil {
		return models.Participant{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	active := 0
	for _, p := range e.participants {
		if p.Status == models.ParticipantRemoved {
			continue
		}
		if p.UserID == userID {
			return models.Participant{}, fmt.Errorf("%w: %s in %s", ErrDuplicateParticipant, userID, sessionID)
		}
		active++
	}
	if max := e.session.Config.MaxParticipants; max > 0 && active >= max {
		return models.Participant{}, fmt.Errorf("%w: %s", ErrSessionFull, sessionID)
	}

	p := models.Participant{
		UserID:    userID,
		SessionID: sessionID,
		Status:    models.ParticipantActive,
		JoinedAt:  r.clock(),
	}
	e.participants = append(e.participants, p)
	return p, nil
}

// RemoveParticipant marks the participant REMOVED. The record is
// retained, not deleted, to support audit.
func (r *Registry) RemoveParticipant(sessionID, userID string) error {
	e, err := r.lookup(sessionID)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	for i := range e.participants {
		p := &e.participants[i]
		if p.UserID == userID && p.Status != models.ParticipantRemoved {
			p.Status = models.ParticipantRemoved
			return nil
		}
	}
	return fmt.Errorf("participant %s not found in session %s", userID, sessionID)
}

// Participants returns a snapshot of all participant records, including
// removed ones.
func (r *Registry) Participants(sessionID string) ([]models.Participant, error) {
	e, err := r.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]models.Participant, len(e.participants))
	copy(out, e.participants)
	return out, nil
}

// SetParticipantPnL updates a participant's running PnL.
func (r *Registry) SetParticipantPnL(sessionID, userID string, pnl float64) error {
	e, err := r.lookup(sessionID)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	for i := range e.participants {
		p := &e.participants[i]
		if p.UserID == userID && p.Status != models.ParticipantRemoved {
			p.PnL = pnl
			return nil
		}
	}
	return fmt.Errorf("participant %s not found in session %s", userID, sessionID)
}

// List returns a snapshot of all sessions, in no particular order.
func (r *Registry) List() []models.Session {
	r.mu.RLock()
	entries := make([]*entry, 0, len(r.entries))
	for _, e := range r.entries {
		entries = append(entries, e)
	}
	r.mu.RUnlock()

	out := make([]models.Session, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		out = append(out, e.session)
		e.mu.Unlock()
	}
	return out
}

// PauseAll transitions every RUNNING session to PAUSED and returns the
// ids affected. Sessions in other states are untouched.
func (r *Registry) PauseAll() []string {
	r.mu.RLock()
	ids := make([]string, 0, len(r.entries))
	for id := range r.entries {
		ids = append(ids, id)
	}
	r.mu.RUnlock()

	paused := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, err := r.Transition(id, models.SessionPaused); err == nil {
			paused = append(paused, id)
		}
	}
	return paused
}
