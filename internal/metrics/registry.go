package metrics

import "github.com/prometheus/client_golang/prometheus"

// namespace is the Prometheus namespace prefix for every metric this
// package registers ("tap_<subsystem>_<name>").
const namespace = "tap"

// Registry is the process-wide registry every metric in this package
// registers against; Handler and StartServer expose it over HTTP.
var Registry = prometheus.NewRegistry()
