package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for flag decisions. Suppressions are
// counted by the crisis guard alone and never appear here.
type Metrics struct {
	// Decision outcomes: "created" or "discarded"
	DecisionOutcome *prometheus.CounterVec

	// Created flags by severity
	FlagsCreated *prometheus.CounterVec

	// Evaluation latency from adjustment to persistence
	EvaluateLatency prometheus.Histogram

	// Flag event publish failures
	PublishFailures prometheus.Counter
}

// New creates a new Metrics instance with all decision metrics registered.
func New() *Metrics {
	return &Metrics{
		DecisionOutcome: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "vigil_decision_outcomes_total",
			Help: "Total non-suppressed decision outcomes",
		}, []string{"outcome"}),

		FlagsCreated: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "vigil_flags_created_total",
			Help: "Flags persisted by severity",
		}, []string{"severity"}),

		EvaluateLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "vigil_decision_evaluate_duration_seconds",
			Help:    "Duration of candidate evaluation including flag persistence",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),

		PublishFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vigil_flag_event_publish_failures_total",
			Help: "Flag created events that could not be published",
		}),
	}
}

// IncrementOutcome records a decision outcome.
func (m *Metrics) IncrementOutcome(outcome string) {
	if m != nil {
		m.DecisionOutcome.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) IncrementCreated(severity string) {
	if m != nil {
		m.FlagsCreated.WithLabelValues(severity).Inc()
	}
}

// ObserveEvaluateLatency records the total evaluation duration.
func (m *Metrics) ObserveEvaluateLatency(d time.Duration) {
	if m != nil {
		m.EvaluateLatency.Observe(d.Seconds())
	}
}

func (m *Metrics) IncrementPublishFailure() {
	if m != nil {
		m.PublishFailures.Inc()
	}
}
