package order

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics
var (
	OrdersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fill_engine_orders_total",
		Help: "Front-door order operations by protocol and outcome",
	}, []string{"protocol", "outcome"})
)
