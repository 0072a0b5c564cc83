package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	ticksTotal    *prometheus.CounterVec
	signalsTotal  *prometheus.CounterVec
	riskDecisions *prometheus.CounterVec
	inferences    *prometheus.CounterVec
	errorsTotal   *prometheus.CounterVec
	lastQuote     *prometheus.GaugeVec
	latency       *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		ticksTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradermind_ticks_total",
				Help: "Total number of market ticks processed",
			},
			[]string{"market"},
		),
		signalsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradermind_signals_total",
				Help: "Total number of signals produced",
			},
			[]string{"market", "type"},
		),
		riskDecisions: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradermind_risk_decisions_total",
				Help: "Total number of risk validation decisions",
			},
			[]string{"approved", "tier"},
		),
		inferences: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradermind_inferences_total",
				Help: "Total number of model inference attempts by outcome",
			},
			[]string{"outcome"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradermind_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		lastQuote: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "tradermind_last_quote",
				Help: "Last observed quote for a market",
			},
			[]string{"market"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tradermind_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordTick records a processed market tick.
func (r *Recorder) RecordTick(market string) {
	r.ticksTotal.WithLabelValues(market).Inc()
}

// RecordSignal records a produced signal.
func (r *Recorder) RecordSignal(market, signalType string) {
	r.signalsTotal.WithLabelValues(market, signalType).Inc()
}

// RecordRiskDecision records a risk validation outcome.
func (r *Recorder) RecordRiskDecision(approved bool, tier string) {
	r.riskDecisions.WithLabelValues(strconv.FormatBool(approved), tier).Inc()
}

// RecordInference records a model inference attempt by outcome.
func (r *Recorder) RecordInference(outcome string) {
	r.inferences.WithLabelValues(outcome).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLastQuote records the last quote for a market.
func (r *Recorder) RecordLastQuote(market string, quote float64) {
	r.lastQuote.WithLabelValues(market).Set(quote)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
