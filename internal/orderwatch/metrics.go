package orderwatch

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ActiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "fill_engine_orderwatch_active_connections",
		Help: "Whether the order-index websocket is connected (0 or 1)",
	})

	SubscribedOrders = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "fill_engine_orderwatch_subscribed_orders",
		Help: "Number of order hashes currently subscribed",
	})

	EventsReceivedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fill_engine_orderwatch_events_received_total",
		Help: "Order events received, by event type",
	}, []string{"type"})

	EventsDroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fill_engine_orderwatch_events_dropped_total",
		Help: "Order events dropped because the event channel was full",
	})

	ReconnectsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fill_engine_orderwatch_reconnects_total",
		Help: "Reconnection rounds initiated after a dropped connection",
	})
)
