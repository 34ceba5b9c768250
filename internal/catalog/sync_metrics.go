package catalog

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	resultOK    = "ok"
	resultError = "error"
)

// SyncMetrics is nil-safe: a nil *SyncMetrics records nothing.
type SyncMetrics struct {
	Runs     *prometheus.CounterVec
	Duration *prometheus.HistogramVec
	Dropped  prometheus.Counter
	Attempts *prometheus.CounterVec
}

func NewSyncMetrics(reg prometheus.Registerer) *SyncMetrics {
	m := &SyncMetrics{
		Runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catalog_sync_runs_total",
				Help: "Product/category synchronization runs by operation and result",
			},
			[]string{"op", "result"},
		),
		Duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "catalog_sync_duration_seconds",
				Help:    "Synchronization latency",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"op"},
		),
		Dropped: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "catalog_sync_dropped_product_ids_total",
				Help: "Product ids dropped during category resolution because they did not resolve",
			},
		),
		Attempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "catalog_loopback_attempts_total",
				Help: "Loopback HTTP attempts by method and outcome",
			},
			[]string{"method", "outcome"},
		),
	}

	reg.MustRegister(m.Runs, m.Duration, m.Dropped, m.Attempts)
	return m
}

func (m *SyncMetrics) observe(op string, start time.Time, err error) {
	if m == nil {
		return
	}
	result := resultOK
	if err != nil {
		result = resultError
	}
	m.Runs.WithLabelValues(op, result).Inc()
	m.Duration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

func (m *SyncMetrics) dropped(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.Dropped.Add(float64(n))
}

func (m *SyncMetrics) attempt(method, outcome string) {
	if m == nil {
		return
	}
	m.Attempts.WithLabelValues(method, outcome).Inc()
}
