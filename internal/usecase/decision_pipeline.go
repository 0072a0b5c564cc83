package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"TraderMind/internal/domain/models"
	drepo "TraderMind/internal/domain/repository"
	domsvc "TraderMind/internal/domain/service"
	"TraderMind/internal/services/ai"
	"TraderMind/internal/services/features"
	"TraderMind/internal/services/risk"
	"TraderMind/internal/services/session"
	applogger "TraderMind/pkg/logger"
)

// Decision is the outcome of evaluating one signal against one
// session participant.
type Decision struct {
	Signal    models.ProposedSignal
	Result    models.RiskValidationResult
	Trade     *models.ApprovedTrade
	SessionID string
	UserID    string
}

// DecisionPipeline drives the per-tick chain: history append, feature
// build, bounded inference, signal assembly, risk gating, execution
// handoff and persistence. All stages except the inference call are
// non-blocking computation; infrastructure failures degrade that one
// concern instead of aborting the cycle.
type DecisionPipeline struct {
	computer  *features.Computer
	inference domsvc.Inference
	validator *risk.Validator
	sessions  *session.Registry
	riskState *RiskState
	history   *MarketHistory
	store     drepo.TradeStore
	shadow    drepo.ShadowRecorder
	execq     drepo.ExecutionQueue
	metrics   drepo.Metrics
	logger    *applogger.Logger

	baseStake       float64
	strategyVersion string
	clock           func() time.Time

	lastMu      sync.RWMutex
	lastSignals map[string]models.Signal
}

type PipelineDeps struct {
	Computer  *features.Computer
	Inference domsvc.Inference
	Validator *risk.Validator
	Sessions  *session.Registry
	RiskState *RiskState
	History   *MarketHistory
	Store     drepo.TradeStore
	Shadow    drepo.ShadowRecorder
	ExecQueue drepo.ExecutionQueue
	Metrics   drepo.Metrics
	Logger    *applogger.Logger

	BaseStake       float64
	StrategyVersion string
}

func NewDecisionPipeline(deps PipelineDeps) *DecisionPipeline {
	p := &DecisionPipeline{
		computer:        deps.Computer,
		inference:       deps.Inference,
		validator:       deps.Validator,
		sessions:        deps.Sessions,
		riskState:       deps.RiskState,
		history:         deps.History,
		store:           deps.Store,
		shadow:          deps.Shadow,
		execq:           deps.ExecQueue,
		metrics:         deps.Metrics,
		logger:          deps.Logger,
		baseStake:       deps.BaseStake,
		strategyVersion: deps.StrategyVersion,
		clock:           time.Now,
		lastSignals:     make(map[string]models.Signal),
	}
	if p.computer == nil {
		p.computer = features.NewComputer()
	}
	if p.history == nil {
		p.history = NewMarketHistory(DefaultHistoryCap)
	}
	if p.baseStake <= 0 {
		p.baseStake = 1
	}
	return p
}

// WithClock overrides the time source, for tests.
func (p *DecisionPipeline) WithClock(clock func() time.Time) *DecisionPipeline {
	p.clock = clock
	return p
}

// Process ingests one tick. It satisfies the realtime pipeline's
// processor contract; an error is fatal to this decision cycle only.
func (p *DecisionPipeline) Process(ctx context.Context, t *models.Tick) error {
	_, err := p.Decide(ctx, t)
	return err
}

// Decide runs the full decision chain for one tick and returns the
// per-participant outcomes. A warming history (under the minimum
// window) is not an error; it produces no decisions.
func (p *DecisionPipeline) Decide(ctx context.Context, t *models.Tick) ([]Decision, error) {
	if t == nil {
		return nil, fmt.Errorf("tick is nil")
	}
	p.metrics.RecordTick(t.Market)
	p.metrics.RecordLastQuote(t.Market, t.Quote)
	p.history.Append(t)

	prices := p.history.Snapshot(t.Market)
	if len(prices) < features.MinPrices {
		return nil, nil
	}

	start := p.clock()
	fv, err := p.computer.Compute(prices)
	if err != nil {
		p.metrics.RecordError("feature_compute")
		return nil, fmt.Errorf("compute features: %w", err)
	}

	aiOut := p.infer(ctx, fv)
	signal := BuildSignal(t.Market, fv, aiOut, p.clock())
	p.setLastSignal(signal)
	p.metrics.RecordSignal(t.Market, string(signal.Type))

	intel := ai.ComputeIntel(fv.Volatility, fv.RSI, regimeOf(aiOut))
	inputHash := featureHash(fv)

	decisions := p.evaluateSessions(ctx, t.Market, signal, fv, aiOut, intel, inputHash)
	p.metrics.RecordLatency("decision_cycle", p.clock().Sub(start).Seconds())
	return decisions, nil
}

// infer runs the bounded inference call. Cancellation of the call never
// cancels the surrounding decision.
func (p *DecisionPipeline) infer(ctx context.Context, fv models.FeatureVector) *models.AIOutput {
	if p.inference == nil {
		return nil
	}
	out, err := p.inference.Infer(ctx, fv)
	if err != nil || out == nil {
		p.metrics.RecordInference("fallback")
		return nil
	}
	p.metrics.RecordInference("ok")
	return out
}

func (p *DecisionPipeline) evaluateSessions(ctx context.Context, market string, signal models.Signal, fv models.FeatureVector, aiOut *models.AIOutput, intel models.IntelMetrics, inputHash string) []Decision {
	var decisions []Decision
	for _, sess := range p.eligibleSessions(market) {
		if aiOut != nil {
			p.recordShadow(ctx, aiOut, inputHash, market, sess.ID)
		}

		participants, err := p.sessions.Participants(sess.ID)
		if err != nil {
			continue
		}
		sessCfg := p.sessionRiskConfig(sess)

		for _, part := range participants {
			if part.Status != models.ParticipantActive {
				continue
			}
			proposed := models.ProposedSignal{
				Signal:          signal,
				SessionID:       sess.ID,
				StrategyVersion: p.strategyVersion,
			}
			userCfg := p.riskState.UserConfig(part.UserID)
			stake := risk.RecommendedStake(p.baseStake, sessCfg, userCfg)

			result := p.validator.Validate(proposed, sessCfg, userCfg, stake)
			p.metrics.RecordRiskDecision(result.Approved, string(result.OverriddenBy))

			d := Decision{Signal: proposed, Result: result, SessionID: sess.ID, UserID: part.UserID}
			if result.Approved {
				d.Trade = p.approve(ctx, proposed, result, part, stake, aiOut, intel)
			} else if p.logger != nil {
				p.logger.Debug("signal rejected",
					applogger.String("session", sess.ID),
					applogger.String("user", part.UserID),
					applogger.String("tier", string(result.OverriddenBy)),
					applogger.String("reason", result.Reason))
			}
			decisions = append(decisions, d)
		}
	}
	return decisions
}

// approve builds the trade, hands it to the execution queue and appends
// the audit record. Handoff or store failures degrade: the trade record
// carries the failure, the process continues.
func (p *DecisionPipeline) approve(ctx context.Context, proposed models.ProposedSignal, result models.RiskValidationResult, part models.Participant, stake float64, aiOut *models.AIOutput, intel models.IntelMetrics) *models.ApprovedTrade {
	now := p.clock()
	trade := &models.ApprovedTrade{
		TradeID:        uuid.NewString(),
		Signal:         proposed.Signal,
		SessionID:      proposed.SessionID,
		UserID:         part.UserID,
		Stake:          stake,
		Type:           proposed.Signal.Type,
		Market:         proposed.Market,
		IdempotencyKey: uuid.NewString(),
		ApprovedAt:     now,
	}
	p.riskState.RecordTrade(part.UserID)

	status := models.TradeCompleted
	resultLabel := "executed"
	execMeta := map[string]any{"queued": true}
	if p.execq != nil {
		if err := p.execq.Enqueue(ctx, trade); err != nil {
			p.metrics.RecordError("execution_enqueue")
			status = models.TradeFailed
			resultLabel = "handoff_failed"
			execMeta = map[string]any{"queued": false, "error": err.Error()}
			if p.logger != nil {
				p.logger.Warn("execution handoff failed", applogger.Error(err))
			}
		}
	}

	meta := models.TradeMetadata{
		Signal:         proposed.Signal,
		AIAnalysis:     aiOut,
		Intel:          &intel,
		RiskCheck:      &result,
		Execution:      execMeta,
		IdempotencyKey: trade.IdempotencyKey,
	}
	raw, err := json.Marshal(meta)
	if err != nil {
		p.metrics.RecordError("metadata_marshal")
		return trade
	}

	if p.store != nil {
		rec := &models.TradeRecord{
			ID:        trade.TradeID,
			SessionID: trade.SessionID,
			CreatedAt: now,
			Status:    status,
			Result:    resultLabel,
			Metadata:  raw,
		}
		if err := p.store.Append(ctx, rec); err != nil {
			p.metrics.RecordError("trade_store")
			if p.logger != nil {
				p.logger.Warn("trade record append failed", applogger.Error(err))
			}
		}
	}
	return trade
}

// recordShadow logs the inference output for offline evaluation.
// Fire-and-forget: a slow or failing recorder never blocks the decision.
func (p *DecisionPipeline) recordShadow(ctx context.Context, out *models.AIOutput, inputHash, market, sessionID string) {
	if p.shadow == nil {
		return
	}
	go func() {
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
		defer cancel()
		if err := p.shadow.Record(rctx, out.ModelVersion, out, inputHash, market, sessionID); err != nil {
			p.metrics.RecordError("shadow_record")
		}
	}()
}

// eligibleSessions returns ACTIVE/RUNNING sessions whose allowed-market
// set contains the market.
func (p *DecisionPipeline) eligibleSessions(market string) []models.Session {
	if p.sessions == nil {
		return nil
	}
	var out []models.Session
	for _, s := range p.sessions.List() {
		if !session.Eligible(s.Status) {
			continue
		}
		for _, m := range s.Config.AllowedMarkets {
			if m == market {
				out = append(out, s)
				break
			}
		}
	}
	return out
}

func (p *DecisionPipeline) sessionRiskConfig(s models.Session) models.SessionRiskConfig {
	return models.SessionRiskConfig{
		Paused:          s.Status == models.SessionPaused,
		CumulativePnL:   p.riskState.SessionPnL(s.ID),
		GlobalLossLimit: s.Config.GlobalLossLimit,
		MinConfidence:   s.Config.MinConfidence,
		RiskProfile:     s.Config.RiskProfile,
		AllowedMarkets:  s.Config.AllowedMarkets,
		MaxStake:        s.Config.MaxStake,
	}
}

func (p *DecisionPipeline) setLastSignal(s models.Signal) {
	p.lastMu.Lock()
	p.lastSignals[s.Market] = s
	p.lastMu.Unlock()
}

// LastSignal returns the most recent signal for a market, if any.
func (p *DecisionPipeline) LastSignal(market string) (models.Signal, bool) {
	p.lastMu.RLock()
	defer p.lastMu.RUnlock()
	s, ok := p.lastSignals[market]
	return s, ok
}

func regimeOf(out *models.AIOutput) string {
	if out == nil {
		return ""
	}
	return out.MarketRegime
}

func featureHash(fv models.FeatureVector) string {
	b, _ := json.Marshal(fv)
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
