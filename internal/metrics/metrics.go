// Package metrics collects Prometheus instrumentation for the action
// engine's backend calls: one adapter Send per completion/generation
// request.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the counters and histograms the action engine records
// around every adapter call. Nil is a valid *Metrics: every method on a
// nil receiver is a no-op, so callers that don't want instrumentation can
// pass nil straight through rather than branching on a bool everywhere.
type Metrics struct {
	requestDuration *prometheus.HistogramVec
	requestCounter  *prometheus.CounterVec
	tokensUsed      *prometheus.CounterVec
	errorCounter    *prometheus.CounterVec
}

// New creates and registers the metrics with Prometheus's default
// registry. Call once at process startup.
func New() *Metrics {
	return &Metrics{
		requestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "lspai_llm_request_duration_seconds",
				Help:    "Duration of LLM backend requests in seconds",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"kind", "model"},
		),
		requestCounter: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lspai_llm_requests_total",
				Help: "Total number of LLM backend requests by kind, model, and status",
			},
			[]string{"kind", "model", "status"},
		),
		tokensUsed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lspai_llm_tokens_total",
				Help: "Total number of tokens used by kind, model, and type",
			},
			[]string{"kind", "model", "type"},
		),
		errorCounter: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lspai_errors_total",
				Help: "Total number of errors by component and error type",
			},
			[]string{"component", "error_type"},
		),
	}
}

// RecordRequest records one completed backend call: duration, status
// (success|error), and token usage when the adapter reported any.
func (m *Metrics) RecordRequest(kind, model, status string, durationSeconds float64, promptTokens, completionTokens int) {
	if m == nil {
		return
	}
	m.requestCounter.WithLabelValues(kind, model, status).Inc()
	m.requestDuration.WithLabelValues(kind, model).Observe(durationSeconds)
	if promptTokens > 0 {
		m.tokensUsed.WithLabelValues(kind, model, "prompt").Add(float64(promptTokens))
	}
	if completionTokens > 0 {
		m.tokensUsed.WithLabelValues(kind, model, "completion").Add(float64(completionTokens))
	}
}

// RecordError increments the error counter for a component and error
// type.
func (m *Metrics) RecordError(component, errorType string) {
	if m == nil {
		return
	}
	m.errorCounter.WithLabelValues(component, errorType).Inc()
}
