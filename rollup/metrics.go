package rollup

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics are the dispatch loop's Prometheus collectors.
type Metrics struct {
	Requests     *prometheus.CounterVec
	Rejections   *prometheus.CounterVec
	Verification prometheus.Histogram
}

// NewMetrics creates the collectors and registers them with reg when it is
// not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "age_rollup",
			Name:      "requests_total",
			Help:      "Handled coordinator requests by type and resulting status.",
		}, []string{"request_type", "status"}),
		Rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "age_rollup",
			Name:      "rejections_total",
			Help:      "Rejected requests by failure class.",
		}, []string{"reason"}),
		Verification: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "age_rollup",
			Name:      "verification_seconds",
			Help:      "Time spent decoding and verifying proof payloads.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Requests, m.Rejections, m.Verification)
	}
	return m
}
