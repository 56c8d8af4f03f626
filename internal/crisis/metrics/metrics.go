package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics covers the crisis guard and allowlist lifecycle. The suppression
// counter carries no labels on purpose: nothing about a suppressed candidate
// may be observable beyond the fact that one happened.
type Metrics struct {
	Suppressions    prometheus.Counter
	RefreshAttempts *prometheus.CounterVec
	ActiveEntries   prometheus.Gauge
	ActiveSource    *prometheus.GaugeVec
}

var sources = []string{"remote", "cache", "bundled", "baseline"}

func New() *Metrics {
	return &Metrics{
		Suppressions: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vigil_crisis_suppressions_total",
			Help: "Candidates suppressed by the crisis guard",
		}),
		RefreshAttempts: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "vigil_crisis_allowlist_refresh_total",
			Help: "Allowlist resolution attempts by tier and result",
		}, []string{"source", "result"}), // result: "ok", "error", "unchanged"
		ActiveEntries: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "vigil_crisis_allowlist_entries",
			Help: "Number of patterns in the active allowlist",
		}),
		ActiveSource: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "vigil_crisis_allowlist_active_source",
			Help: "1 for the tier the active allowlist came from",
		}, []string{"source"}),
	}
}

func (m *Metrics) IncSuppressed() {
	if m != nil {
		m.Suppressions.Inc()
	}
}

func (m *Metrics) IncRefresh(source, result string) {
	if m != nil {
		m.RefreshAttempts.WithLabelValues(source, result).Inc()
	}
}

// SetActive records the swapped-in dataset.
func (m *Metrics) SetActive(source string, entries int) {
	if m == nil {
		return
	}
	m.ActiveEntries.Set(float64(entries))
	for _, s := range sources {
		v := 0.0
		if s == source {
			v = 1
		}
		m.ActiveSource.WithLabelValues(s).Set(v)
	}
}
