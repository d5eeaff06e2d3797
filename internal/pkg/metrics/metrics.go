package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// ScoreRequestsTotal counts report requests by outcome ("ok", "invalid_address", "error").
	ScoreRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wallet_score_requests_total",
			Help: "Total wallet score report requests by outcome.",
		},
		[]string{"outcome"},
	)

	// DegradedReportsTotal counts reports that were served with the limited-data flag set.
	DegradedReportsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "wallet_score_degraded_total",
			Help: "Total wallet score reports served with limited or estimated data.",
		},
	)

	// ReportDuration observes end-to-end report build latency in seconds.
	ReportDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "wallet_score_duration_seconds",
			Help:    "Wallet score report build duration in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		},
	)
)

// MustRegisterMetrics registers all collectors with the default registry.
// Call once at startup; duplicate registration panics.
func MustRegisterMetrics() {
	prometheus.MustRegister(
		ScoreRequestsTotal,
		DegradedReportsTotal,
		ReportDuration,
	)
}
