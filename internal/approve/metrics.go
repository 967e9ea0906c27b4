package approve

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ApprovalsTotal tracks submitted approval transactions by asset class.
	ApprovalsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fill_engine_approvals_total",
			Help: "Total number of approval transactions submitted",
		},
		[]string{"asset_class"},
	)

	// ApprovalsSkippedTotal tracks approvals skipped because the grant
	// already covered the required amount.
	ApprovalsSkippedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fill_engine_approvals_skipped_total",
			Help: "Total number of approvals skipped as already granted",
		},
		[]string{"asset_class"},
	)
)
