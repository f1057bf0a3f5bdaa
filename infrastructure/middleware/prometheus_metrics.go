// Package middleware provides cross-cutting concerns for the verification
// pipeline.
package middleware

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ahrav/go-scrutiny/internal/ports"
)

var _ ports.MetricsCollector = (*PrometheusMetrics)(nil)

// PrometheusMetrics implements the MetricsCollector interface using
// Prometheus. It provides real-time monitoring of verification outcomes,
// backtrack consumption, and LLM usage for the pipeline.
type PrometheusMetrics struct {
	requestCounter    *prometheus.CounterVec
	tokenCounter      *prometheus.CounterVec
	operationCounter  *prometheus.CounterVec
	executionLatency  *prometheus.HistogramVec
	scoreDistribution *prometheus.HistogramVec
	systemGauges      *prometheus.GaugeVec
}

// NewPrometheusMetrics creates a PrometheusMetrics instance and registers
// all metrics in the given registerer. Pass prometheus.DefaultRegisterer
// for the process-wide registry; tests pass a fresh registry to avoid
// duplicate registration.
func NewPrometheusMetrics(reg prometheus.Registerer) *PrometheusMetrics {
	pm := &PrometheusMetrics{
		requestCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "llm_requests_total",
				Help: "Total number of LLM requests by provider, model, and status.",
			},
			[]string{"provider", "model", "status"},
		),
		tokenCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "llm_tokens_total",
				Help: "Total number of tokens consumed across all LLM interactions.",
			},
			[]string{"provider", "model", "status", "token_type"},
		),
		operationCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pipeline_operations_total",
				Help: "Total number of pipeline operations by outcome, including backtracks and constraint failures.",
			},
			[]string{"operation", "status", "strategy"},
		),
		executionLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pipeline_stage_duration_seconds",
				Help:    "Execution time of pipeline stages.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation", "strategy"},
		),
		scoreDistribution: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "verification_score",
				Help:    "Distribution of per-step verification scores by strategy.",
				Buckets: prometheus.LinearBuckets(0, 0.1, 11),
			},
			[]string{"strategy"},
		),
		systemGauges: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "pipeline_state",
				Help: "Current pipeline state values, such as steps in the active chain.",
			},
			[]string{"metric", "strategy"},
		),
	}

	reg.MustRegister(
		pm.requestCounter,
		pm.tokenCounter,
		pm.operationCounter,
		pm.executionLatency,
		pm.scoreDistribution,
		pm.systemGauges,
	)
	return pm
}

// RecordLatency implements the MetricsCollector interface by recording
// stage latency in a Prometheus histogram.
func (pm *PrometheusMetrics) RecordLatency(operation string, duration time.Duration, labels map[string]string) {
	pm.executionLatency.WithLabelValues(operation, strategyLabel(labels)).Observe(duration.Seconds())
}

// RecordCounter implements the MetricsCollector interface by incrementing
// Prometheus counters. LLM request and token metrics route to dedicated
// counters; everything else lands in the general operation counter.
func (pm *PrometheusMetrics) RecordCounter(metric string, value float64, labels map[string]string) {
	switch metric {
	case "llm_requests_total":
		pm.requestCounter.WithLabelValues(
			labels["provider"], labels["model"], labels["status"],
		).Add(value)
	case "llm_tokens_total":
		pm.tokenCounter.WithLabelValues(
			labels["provider"], labels["model"], labels["status"], labels["token_type"],
		).Add(value)
	default:
		status, ok := labels["status"]
		if !ok {
			status = "success"
		}
		pm.operationCounter.WithLabelValues(metric, status, strategyLabel(labels)).Add(value)
	}
}

// RecordGauge implements the MetricsCollector interface by setting
// Prometheus gauge values.
func (pm *PrometheusMetrics) RecordGauge(metric string, value float64, labels map[string]string) {
	pm.systemGauges.WithLabelValues(metric, strategyLabel(labels)).Set(value)
}

// RecordHistogram implements the MetricsCollector interface. Verification
// scores route to the score distribution; other histogram values are
// treated as latencies in seconds.
func (pm *PrometheusMetrics) RecordHistogram(metric string, value float64, labels map[string]string) {
	switch metric {
	case "verification_score":
		pm.scoreDistribution.WithLabelValues(strategyLabel(labels)).Observe(value)
	default:
		pm.executionLatency.WithLabelValues(metric, strategyLabel(labels)).Observe(value)
	}
}

func strategyLabel(labels map[string]string) string {
	if s, ok := labels["strategy"]; ok {
		return s
	}
	return "unknown"
}
