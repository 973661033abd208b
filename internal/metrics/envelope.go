package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// EnvelopePackDuration tracks pack/unpack latency per mode (§4.E).
var EnvelopePackDuration = promauto.With(Registry).NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "envelope",
		Name:      "pack_duration_seconds",
		Help:      "Envelope pack/unpack duration in seconds",
		Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 12), // 0.1ms to ~205ms
	},
	[]string{"mode", "direction"}, // plain/signed/encrypted/authcrypt, pack/unpack
)
