package srcache

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	outcomeSuccess = "success"
	outcomeFailure = "failure"

	outcomeOK            = "ok"
	outcomeTimeout       = "timeout"
	outcomeNotRegistered = "not_registered"
	outcomeCanceled      = "canceled"
)

// metricsSet wraps the prometheus collectors. A nil *metricsSet is
// valid and records nothing, so the rest of the package never checks
// whether metrics are enabled.
type metricsSet struct {
	entries         prometheus.Gauge
	gets            *prometheus.CounterVec
	refreshes       *prometheus.CounterVec
	refreshDuration prometheus.Histogram
}

func newMetricsSet(reg prometheus.Registerer) *metricsSet {
	m := &metricsSet{
		entries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "srcache",
			Name:      "entries",
			Help:      "Number of live cache entries",
		}),
		gets: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "srcache",
			Name:      "gets_total",
			Help:      "Total read requests by outcome",
		}, []string{"outcome"}),
		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "srcache",
			Name:      "refreshes_total",
			Help:      "Total computation attempts by outcome",
		}, []string{"outcome"}),
		refreshDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "srcache",
			Name:      "refresh_duration_seconds",
			Help:      "Computation duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(m.entries, m.gets, m.refreshes, m.refreshDuration)
	return m
}

func (m *metricsSet) setEntries(n int) {
	if m == nil {
		return
	}
	m.entries.Set(float64(n))
}

func (m *metricsSet) getDone(outcome string) {
	if m == nil {
		return
	}
	m.gets.WithLabelValues(outcome).Inc()
}

func (m *metricsSet) refreshDone(outcome string, took time.Duration) {
	if m == nil {
		return
	}
	m.refreshes.WithLabelValues(outcome).Inc()
	m.refreshDuration.Observe(took.Seconds())
}
