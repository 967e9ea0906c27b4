package fill

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// FillsTotal tracks fill pipeline outcomes by protocol.
	FillsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fill_engine_fills_total",
			Help: "Total number of fill attempts by protocol and outcome",
		},
		[]string{"protocol", "outcome"},
	)

	// FillDurationSeconds tracks end-to-end pipeline latency up to the
	// transaction broadcast (receipt waiting is the caller's).
	FillDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "fill_engine_fill_duration_seconds",
		Help:    "Duration of the approve and send stages of a fill",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
	})

	// ProxyRegistrationAttemptsTotal tracks reads of the proxy registry
	// while waiting for a freshly registered proxy to become visible.
	ProxyRegistrationAttemptsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fill_engine_proxy_registration_attempts_total",
		Help: "Total proxy registry polls after a registerProxy transaction",
	})
)
