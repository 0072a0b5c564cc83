package usecase

import (
	"sync"

	"TraderMind/internal/domain/models"
)

// UserLimits are the default per-user risk limits applied to
// participants that have no explicit overrides.
type UserLimits struct {
	MaxDrawdown     float64
	MaxDailyLoss    float64
	MaxTradesPerDay int
}

type userState struct {
	optedOut        bool
	currentDrawdown float64
	dailyLoss       float64
	tradesToday     int
}

// RiskState tracks the running counters the risk rules consult:
// per-user drawdown/daily-loss/trade counts and per-session cumulative
// PnL. Explicitly constructed and injected, never a process singleton.
type RiskState struct {
	mu         sync.RWMutex
	limits     UserLimits
	users      map[string]*userState
	sessionPnL map[string]float64
}

func NewRiskState(limits UserLimits) *RiskState {
	return &RiskState{
		limits:     limits,
		users:      make(map[string]*userState),
		sessionPnL: make(map[string]float64),
	}
}

// UserConfig materializes the risk view of one user.
func (s *RiskState) UserConfig(userID string) models.UserRiskConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cfg := models.UserRiskConfig{
		UserID:          userID,
		MaxDrawdown:     s.limits.MaxDrawdown,
		MaxDailyLoss:    s.limits.MaxDailyLoss,
		MaxTradesPerDay: s.limits.MaxTradesPerDay,
	}
	if u, ok := s.users[userID]; ok {
		cfg.OptedOut = u.optedOut
		cfg.CurrentDrawdown = u.currentDrawdown
		cfg.DailyLoss = u.dailyLoss
		cfg.TradesToday = u.tradesToday
	}
	return cfg
}

// SessionPnL returns the session's cumulative recorded PnL.
func (s *RiskState) SessionPnL(sessionID string) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessionPnL[sessionID]
}

// SetOptedOut flags or unflags a user.
func (s *RiskState) SetOptedOut(userID string, optedOut bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user(userID).optedOut = optedOut
}

// RecordTrade counts an approved trade against the user's daily budget.
func (s *RiskState) RecordTrade(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user(userID).tradesToday++
}

// RecordOutcome folds an executed trade's profit into the user and
// session counters. Losses grow drawdown and daily loss; wins shrink
// drawdown but never below zero.
func (s *RiskState) RecordOutcome(sessionID, userID string, profit float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessionPnL[sessionID] += profit
	u := s.user(userID)
	if profit < 0 {
		u.currentDrawdown += -profit
		u.dailyLoss += -profit
	} else {
		u.currentDrawdown -= profit
		if u.currentDrawdown < 0 {
			u.currentDrawdown = 0
		}
	}
}

// ResetDaily clears the per-day counters, typically at session rollover.
func (s *RiskState) ResetDaily() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		u.dailyLoss = 0
		u.tradesToday = 0
	}
}

func (s *RiskState) user(userID string) *userState {
	u, ok := s.users[userID]
	if !ok {
		u = &userState{}
		s.users[userID] = u
	}
	return u
}
