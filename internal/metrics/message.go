package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// MessagesSent tracks plain messages an Agent has packed and handed to
	// the Node's Deliverer.
	MessagesSent = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "messages",
			Name:      "sent_total",
			Help:      "Total number of messages sent by agents",
		},
		[]string{"type"}, // the TAP message type, e.g. Transfer, Authorize
	)

	// MessagesReceived tracks messages an Agent successfully unpacked and
	// dispatched (Policy allowed, body parsed).
	MessagesReceived = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "messages",
			Name:      "received_total",
			Help:      "Total number of messages received and dispatched by agents",
		},
		[]string{"type"},
	)

	// MessagesDropped tracks messages the Node dropped, either because
	// unpack failed or Policy denied them (§4.G, §7).
	MessagesDropped = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "messages",
			Name:      "dropped_total",
			Help:      "Total number of messages dropped on receive",
		},
		[]string{"reason"},
	)

	// DeliveriesFailed tracks delivery rows that moved to Failed after an
	// unsuccessful HTTP POST to a recipient's resolved endpoint (§4.I).
	DeliveriesFailed = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "deliveries",
			Name:      "failed_total",
			Help:      "Total number of delivery attempts that failed",
		},
	)
)
