// Package metrics holds the Prometheus collectors exposed by the monitor
// itself on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ChecksTotal counts check evaluations by outcome
	// (acceptable, unacceptable or an error kind).
	ChecksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "monitor_checks_total",
			Help: "Total number of health checks evaluated",
		},
		[]string{"check", "result"},
	)

	// CheckDuration tracks how long a check takes end to end
	CheckDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "monitor_check_duration_seconds",
			Help:    "Health check duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"check"},
	)

	// UpstreamRequestsTotal counts outbound requests to nodes
	UpstreamRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "monitor_upstream_requests_total",
			Help: "Total number of requests made to monitored and reference nodes",
		},
		[]string{"node", "endpoint", "outcome"},
	)

	// UpstreamLatency tracks outbound request latency
	UpstreamLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "monitor_upstream_latency_seconds",
			Help:    "Latency of requests made to nodes in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"node", "endpoint"},
	)

	// NodeSyncValue holds the last observed sync counters of the monitored node
	NodeSyncValue = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "monitor_node_sync_value",
			Help: "Last observed sync counter of the monitored node",
		},
		[]string{"counter"},
	)

	// MetricsAgeSeconds holds the last observed metrics message age per node
	MetricsAgeSeconds = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "monitor_metrics_age_seconds",
			Help: "Age of the most recent network metrics message per node",
		},
		[]string{"node"},
	)
)

// Check names used as label values.
const (
	CheckNodeSync   = "node_sync"
	CheckMetricsAge = "metrics_age"
)

// RecordCheck records the outcome and duration of a check.
func RecordCheck(check, result string, seconds float64) {
	ChecksTotal.WithLabelValues(check, result).Inc()
	CheckDuration.WithLabelValues(check).Observe(seconds)
}
