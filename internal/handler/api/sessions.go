package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"TraderMind/internal/domain/models"
	"TraderMind/internal/service/cache"
	"TraderMind/internal/service/metrics"
	"TraderMind/internal/service/ratelimit"
	"TraderMind/internal/services/audit"
	"TraderMind/internal/services/session"
	"TraderMind/internal/usecase"
	xhttp "TraderMind/pkg/http"
	xlogger "TraderMind/pkg/logger"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// SessionsHandler exposes session lifecycle, replay and signal endpoints.
type SessionsHandler struct {
	logger   *xlogger.Logger
	registry *session.Registry
	audit    *audit.Engine
	pipeline *usecase.DecisionPipeline
	cache    cache.BytesCache
	rl       *ratelimit.Limiter
}

func NewSessionsHandler(logger *xlogger.Logger, registry *session.Registry, auditEngine *audit.Engine, pipeline *usecase.DecisionPipeline) *SessionsHandler {
	metrics.Register()
	return &SessionsHandler{
		logger:   logger,
		registry: registry,
		audit:    auditEngine,
		pipeline: pipeline,
		rl:       ratelimit.New(),
	}
}

// SetCache injects a replay response cache.
func (h *SessionsHandler) SetCache(c cache.BytesCache) { h.cache = c }

func (h *SessionsHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.POST("/sessions", h.CreateSession)
	g.GET("/sessions/:id", h.GetSession)
	g.POST("/sessions/:id/transition", h.Transition)
	g.POST("/sessions/:id/participants", h.Join)
	g.DELETE("/sessions/:id/participants/:user_id", h.Leave)
	g.POST("/sessions/pause-all", h.PauseAll)
	g.GET("/sessions/:id/replay", h.Replay)
	g.GET("/sessions/:id/audit/idempotency", h.AuditIdempotency)
	g.GET("/signals/latest", h.LatestSignal)
}

type sessionResponse struct {
	ID           string               `json:"id"`
	Status       models.SessionStatus `json:"status"`
	Config       models.SessionConfig `json:"config"`
	CreatedAt    time.Time            `json:"created_at"`
	CompletedAt  *time.Time           `json:"completed_at,omitempty"`
	Participants []models.Participant `json:"participants,omitempty"`
}

func toSessionResponse(s models.Session, parts []models.Participant) sessionResponse {
	return sessionResponse{
		ID:           s.ID,
		Status:       s.Status,
		Config:       s.Config,
		CreatedAt:    s.CreatedAt,
		CompletedAt:  s.CompletedAt,
		Participants: parts,
	}
}

func (h *SessionsHandler) CreateSession(c echo.Context) error {
	start := time.Now()
	defer func() { metrics.APILatency.WithLabelValues("create_session").Observe(time.Since(start).Seconds()) }()

	req := &models.CreateSessionRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	cfg := models.SessionConfig{
		MaxParticipants: req.MaxParticipants,
		AllowedMarkets:  req.AllowedMarkets,
		RiskProfile:     models.RiskProfile(req.RiskProfile),
		MinConfidence:   req.MinConfidence,
		MaxStake:        req.MaxStake,
		GlobalLossLimit: req.GlobalLossLimit,
	}
	s, err := h.registry.Create(uuid.NewString(), cfg)
	if err != nil {
		metrics.APIErrors.WithLabelValues("create_session").Inc()
		h.logger.Error("create session", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	h.logger.Info("session created",
		xlogger.String("session_id", s.ID),
		xlogger.String("risk_profile", string(cfg.RiskProfile)))
	return xhttp.CreatedResponse(c, toSessionResponse(s, nil))
}

func (h *SessionsHandler) GetSession(c echo.Context) error {
	id := c.Param("id")
	s, err := h.registry.Get(id)
	if err != nil {
		return h.sessionError(c, "get_session", err)
	}
	parts, err := h.registry.Participants(id)
	if err != nil {
		return h.sessionError(c, "get_session", err)
	}
	return xhttp.SuccessResponse(c, toSessionResponse(s, parts))
}

func (h *SessionsHandler) Transition(c echo.Context) error {
	req := &models.TransitionRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	s, err := h.registry.Transition(c.Param("id"), models.SessionStatus(req.Target))
	if err != nil {
		var ite *session.InvalidTransitionError
		if errors.As(err, &ite) {
			metrics.APIErrors.WithLabelValues("transition").Inc()
			return xhttp.DataResponse(c, 409, map[string]string{"error": ite.Error()})
		}
		return h.sessionError(c, "transition", err)
	}
	h.logger.Info("session transition",
		xlogger.String("session_id", s.ID),
		xlogger.String("status", string(s.Status)))
	return xhttp.SuccessResponse(c, toSessionResponse(s, nil))
}

func (h *SessionsHandler) Join(c echo.Context) error {
	req := &models.JoinSessionRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	p, err := h.registry.AddParticipant(c.Param("id"), req.UserID)
	if err != nil {
		if errors.Is(err, session.ErrSessionFull) || errors.Is(err, session.ErrDuplicateParticipant) {
			metrics.APIErrors.WithLabelValues("join").Inc()
			return xhttp.DataResponse(c, 409, map[string]string{"error": err.Error()})
		}
		return h.sessionError(c, "join", err)
	}
	return xhttp.CreatedResponse(c, p)
}

func (h *SessionsHandler) Leave(c echo.Context) error {
	if err := h.registry.RemoveParticipant(c.Param("id"), c.Param("user_id")); err != nil {
		return h.sessionError(c, "leave", err)
	}
	return xhttp.NoContentResponse(c)
}

func (h *SessionsHandler) PauseAll(c echo.Context) error {
	paused := h.registry.PauseAll()
	h.logger.Warn("pause all sessions", xlogger.Int("count", len(paused)))
	return xhttp.SuccessResponse(c, map[string]any{"paused": paused})
}

func (h *SessionsHandler) Replay(c echo.Context) error {
	start := time.Now()
	endpoint := "replay"
	defer func() { metrics.APILatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

	id := c.Param("id")
	if !h.rl.Allow(c.RealIP()+":replay", 5, 2) {
		h.logger.Warn("replay rate_limited", xlogger.String("remote", c.RealIP()))
		return xhttp.DataResponse(c, 429, map[string]string{"error": "rate limited"})
	}

	cacheKey := "replay:" + id
	if h.cache != nil {
		if b, ok, err := h.cache.GetBytes(cacheKey); err != nil {
			h.logger.Warn("replay cache_get_error", xlogger.Error(err))
		} else if ok {
			return c.JSONBlob(200, b)
		}
	}

	events, err := h.audit.SessionReplay(c.Request().Context(), id)
	if err != nil {
		metrics.APIErrors.WithLabelValues(endpoint).Inc()
		h.logger.Error("replay error", xlogger.String("session_id", id), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	if events == nil {
		events = []models.ReplayEvent{}
	}

	// cache the enveloped bytes so hit and miss serve identical bodies
	b, err := json.Marshal(xhttp.APIResponse{
		Status:  200,
		Message: http.StatusText(200),
		Data:    events,
	})
	if err != nil {
		metrics.APIErrors.WithLabelValues(endpoint).Inc()
		return xhttp.SuccessResponse(c, events)
	}
	if h.cache != nil {
		if err := h.cache.SetBytes(cacheKey, b, 30*time.Second); err != nil {
			h.logger.Warn("replay cache_set_error", xlogger.Error(err))
		}
	}
	return c.JSONBlob(200, b)
}

func (h *SessionsHandler) AuditIdempotency(c echo.Context) error {
	start := time.Now()
	endpoint := "audit_idempotency"
	defer func() { metrics.APILatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

	report, err := h.audit.AuditIdempotency(c.Request().Context(), c.Param("id"))
	if err != nil {
		metrics.APIErrors.WithLabelValues(endpoint).Inc()
		h.logger.Error("audit error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, report)
}

func (h *SessionsHandler) LatestSignal(c echo.Context) error {
	req := &models.LatestSignalRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	sig, ok := h.pipeline.LastSignal(req.Market)
	if !ok {
		return xhttp.NotFoundResponse(c, map[string]string{"error": "no signal for market " + req.Market})
	}
	return xhttp.SuccessResponse(c, sig)
}

func (h *SessionsHandler) sessionError(c echo.Context, endpoint string, err error) error {
	metrics.APIErrors.WithLabelValues(endpoint).Inc()
	if errors.Is(err, session.ErrSessionNotFound) {
		return xhttp.NotFoundResponse(c, map[string]string{"error": err.Error()})
	}
	h.logger.Error(endpoint+" error", xlogger.Error(err))
	return xhttp.AppErrorResponse(c, err)
}
