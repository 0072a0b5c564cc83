package session

import (
	"fmt"

	"TraderMind/internal/domain/models"
)

// InvalidTransitionError names the illegal source/target pair. The
// session state is left unchanged.
type InvalidTransitionError struct {
	From, To models.SessionStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid session transition %s -> %s", e.From, e.To)
}

// legalTransitions is the exact legal set:
// PENDING -> ACTIVE -> RUNNING <-> PAUSED, RUNNING -> COMPLETED.
// COMPLETED is terminal.
var legalTransitions = map[models.SessionStatus][]models.SessionStatus{
	models.SessionPending: {models.SessionActive},
	models.SessionActive:  {models.SessionRunning},
	models.SessionRunning: {models.SessionPaused, models.SessionCompleted},
	models.SessionPaused:  {models.SessionRunning},
}

// CanTransition reports whether from -> to is legal.
func CanTransition(from, to models.SessionStatus) bool {
	for _, t := range legalTransitions[from] {
		if t == to {
			return true
		}
	}
	return false
}

// Eligible reports whether a session may receive signals at all.
func Eligible(status models.SessionStatus) bool {
	return status == models.SessionActive || status == models.SessionRunning
}
