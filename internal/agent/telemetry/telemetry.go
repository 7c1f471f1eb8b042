package telemetry

import (
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Telemetry owns the metrics registry shared by the orchestrator, the
// pipeline and the HTTP server. A nil *Telemetry records nothing.
type Telemetry struct {
	logger   *log.Logger
	registry *prometheus.Registry

	turns       *prometheus.CounterVec
	turnLatency prometheus.Histogram
	dispatches  *prometheus.CounterVec
	toolCalls   *prometheus.CounterVec
	handoffs    *prometheus.CounterVec
	suspensions *prometheus.CounterVec
	llmCalls    *prometheus.CounterVec
	roundCaps   *prometheus.CounterVec
	saved       prometheus.Counter
}

// NewTelemetry creates a new telemetry instance
func NewTelemetry() *Telemetry {
	reg := prometheus.NewRegistry()
	t := &Telemetry{
		logger:   log.New(log.Writer(), "[TELEMETRY] ", log.LstdFlags),
		registry: reg,
		turns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "scout", Name: "turns_total", Help: "Conversation turns by outcome.",
		}, []string{"outcome"}),
		turnLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "scout", Name: "turn_duration_seconds", Help: "Wall time of one conversation turn.",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 10),
		}),
		dispatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "scout", Name: "dispatches_total", Help: "Worker dispatches by agent.",
		}, []string{"agent"}),
		toolCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "scout", Name: "tool_calls_total", Help: "Tool invocations by tool name.",
		}, []string{"tool"}),
		handoffs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "scout", Name: "handoffs_total", Help: "Control transfers between workers.",
		}, []string{"from", "to"}),
		suspensions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "scout", Name: "suspensions_total", Help: "Turns parked on a user question.",
		}, []string{"agent", "stage"}),
		llmCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "scout", Name: "llm_calls_total", Help: "Model invocations by model and result.",
		}, []string{"model", "result"}),
		roundCaps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "scout", Name: "round_cap_hits_total", Help: "Tool loops stopped by the round cap.",
		}, []string{"agent"}),
		saved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "scout", Name: "articles_saved_total", Help: "New links written to topic lists.",
		}),
	}
	reg.MustRegister(t.turns, t.turnLatency, t.dispatches, t.toolCalls, t.handoffs,
		t.suspensions, t.llmCalls, t.roundCaps, t.saved)
	return t
}

// Handler serves the registry in the Prometheus text format.
func (t *Telemetry) Handler() http.Handler {
	if t == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(t.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for tests and extra collectors.
func (t *Telemetry) Registry() *prometheus.Registry {
	if t == nil {
		return nil
	}
	return t.registry
}

func (t *Telemetry) RecordTurn(outcome string, d time.Duration) {
	if t == nil {
		return
	}
	t.turns.WithLabelValues(outcome).Inc()
	t.turnLatency.Observe(d.Seconds())
}

func (t *Telemetry) RecordDispatch(agent string) {
	if t == nil {
		return
	}
	t.dispatches.WithLabelValues(agent).Inc()
}

func (t *Telemetry) RecordToolCall(tool string) {
	if t == nil {
		return
	}
	t.toolCalls.WithLabelValues(tool).Inc()
}

func (t *Telemetry) RecordHandoff(from, to string) {
	if t == nil {
		return
	}
	t.handoffs.WithLabelValues(from, to).Inc()
	t.logger.Printf("handoff %s -> %s", from, to)
}

func (t *Telemetry) RecordSuspension(agent, stage string) {
	if t == nil {
		return
	}
	t.suspensions.WithLabelValues(agent, stage).Inc()
}

func (t *Telemetry) RecordLLMCall(model string, err error) {
	if t == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	t.llmCalls.WithLabelValues(model, result).Inc()
}

func (t *Telemetry) RecordRoundCap(agent string) {
	if t == nil {
		return
	}
	t.roundCaps.WithLabelValues(agent).Inc()
	t.logger.Printf("warn: %s stopped at tool round cap", agent)
}

func (t *Telemetry) RecordSaved(n int) {
	if t == nil || n <= 0 {
		return
	}
	t.saved.Add(float64(n))
}
