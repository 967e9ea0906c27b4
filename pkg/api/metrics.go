package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics
var (
	RequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fill_engine_api_requests_total",
		Help: "Order-index and registry API requests by endpoint and outcome",
	}, []string{"endpoint", "outcome"})

	RequestDurationSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "fill_engine_api_request_duration_seconds",
		Help:    "API request latency by endpoint",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint"})
)
