package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics covers routing, digest flushes and push sends.
type Metrics struct {
	Deliveries    *prometheus.CounterVec
	DigestGroups  *prometheus.CounterVec
	ReleasedDue   *prometheus.CounterVec
	SendDuration  *prometheus.HistogramVec
	SendThrottled prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		Deliveries: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "vigil_notification_routing_outcomes_total",
			Help: "Per-guardian routing outcomes",
		}, []string{"outcome"}), // sent, failed, deferred, queued, skipped

		DigestGroups: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "vigil_digest_groups_total",
			Help: "Digest groups processed by flush type and result",
		}, []string{"digest_type", "result"}), // result: sent, failed, cleared

		ReleasedDue: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "vigil_deferred_releases_total",
			Help: "Deferred deliveries processed by result",
		}, []string{"result"}),

		SendDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "vigil_push_send_duration_seconds",
			Help:    "Push transport latency including retries",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"result"}),

		SendThrottled: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vigil_push_throttled_total",
			Help: "Sends refused by the per-recipient rate limit",
		}),
	}
}

func (m *Metrics) IncDelivery(outcome string) {
	if m != nil {
		m.Deliveries.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) IncDigestGroup(digestType, result string) {
	if m != nil {
		m.DigestGroups.WithLabelValues(digestType, result).Inc()
	}
}

func (m *Metrics) IncReleased(result string) {
	if m != nil {
		m.ReleasedDue.WithLabelValues(result).Inc()
	}
}

func (m *Metrics) ObserveSend(result string, d time.Duration) {
	if m != nil {
		m.SendDuration.WithLabelValues(result).Observe(d.Seconds())
	}
}

func (m *Metrics) IncThrottled() {
	if m != nil {
		m.SendThrottled.Inc()
	}
}
