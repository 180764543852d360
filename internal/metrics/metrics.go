package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Operation labels.
const (
	OpOpen   = "open"
	OpUpdate = "update"
	OpClose  = "close"
	OpGet    = "get"
)

// Outcome labels.
const (
	OutcomeOK           = "ok"
	OutcomeNotFound     = "not_found"
	OutcomeInvalidState = "invalid_state"
	OutcomeInvalidInput = "invalid_input"
	OutcomeStoreError   = "store_error"
)

// LifecycleOperations counts lifecycle calls by operation and outcome.
var LifecycleOperations = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "margin",
		Subsystem: "positions",
		Name:      "operations_total",
		Help:      "Total number of margin position lifecycle operations",
	},
	[]string{"operation", "outcome"},
)

// StoreLatency tracks how long store primitives take.
var StoreLatency = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: "margin",
		Subsystem: "positions",
		Name:      "store_latency_seconds",
		Help:      "Latency of position store get/write calls in seconds",
		Buckets:   []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 1},
	},
	[]string{"primitive"},
)

// HTTPRequests counts front-end requests by route and status code.
var HTTPRequests = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "margin",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total number of HTTP requests handled",
	},
	[]string{"method", "route", "code"},
)

// RecordOperation increments the lifecycle counter.
func RecordOperation(operation, outcome string) {
	LifecycleOperations.WithLabelValues(operation, outcome).Inc()
}

// ObserveStore records the duration of a store primitive started at start.
func ObserveStore(primitive string, start time.Time) {
	StoreLatency.WithLabelValues(primitive).Observe(time.Since(start).Seconds())
}
