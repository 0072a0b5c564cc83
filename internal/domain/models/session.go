package models

import "time"

// SessionStatus is the lifecycle state of a session.
type SessionStatus string

const (
	SessionPending   SessionStatus = "PENDING"
	SessionActive    SessionStatus = "ACTIVE"
	SessionRunning   SessionStatus = "RUNNING"
	SessionPaused    SessionStatus = "PAUSED"
	SessionCompleted SessionStatus = "COMPLETED"
)

// SessionConfig is the immutable configuration a session is created with.
type SessionConfig struct {
	MaxParticipants int
	AllowedMarkets  []string
	RiskProfile     RiskProfile
	MinConfidence   float64
	MaxStake        float64
	GlobalLossLimit float64
}

// Session is owned exclusively by the session state machine and mutated
// only through its transition operations.
type Session struct {
	ID          string
	Status      SessionStatus
	Config      SessionConfig
	CreatedAt   time.Time
	CompletedAt *time.Time
}

// ParticipantStatus is the lifecycle state of a session participant.
type ParticipantStatus string

const (
	ParticipantPending  ParticipantStatus = "PENDING"
	ParticipantActive   ParticipantStatus = "ACTIVE"
	ParticipantFailed   ParticipantStatus = "FAILED"
	ParticipantRemoved  ParticipantStatus = "REMOVED"
	ParticipantOptedOut ParticipantStatus = "OPTED_OUT"
)

// Participant belongs to exactly one session, addressed by back-reference
// rather than an embedded pointer. Removed participants are retained for
// audit; the (SessionID, UserID) pair is unique among non-removed rows.
type Participant struct {
	UserID    string
	SessionID string
	Status    ParticipantStatus
	PnL       float64
	JoinedAt  time.Time
}
