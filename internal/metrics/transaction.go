package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// TransactionTransitionDuration tracks the time tx.Machine.Apply spends
// moving a transaction from one state to the next (§4.H).
var TransactionTransitionDuration = promauto.With(Registry).NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "transaction",
		Name:      "transition_duration_seconds",
		Help:      "Transaction state transition duration in seconds",
		Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 12),
	},
	[]string{"type", "status"}, // Transfer/Payment/Connect, resulting Status
)
