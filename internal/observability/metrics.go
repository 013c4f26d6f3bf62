// Package observability provides Prometheus metrics and OpenTelemetry tracing.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fashfolio_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// StoreQueryLatency records store query latency by driver, operation and collection.
	StoreQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "fashfolio_store_query_latency_seconds",
		Help:    "Store query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"driver", "operation", "collection"})

	// RelayInvocations counts AI relay calls by target and outcome.
	RelayInvocations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fashfolio_relay_invocations_total",
		Help: "Total AI relay invocations by target and outcome",
	}, []string{"transport", "target", "outcome"})

	// RelayDuration records how long AI relay calls take.
	RelayDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "fashfolio_relay_duration_seconds",
		Help:    "AI relay invocation duration in seconds",
		Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 20, 30, 60, 120},
	}, []string{"transport", "target"})

	// RelayInFlight is the number of external AI invocations currently admitted.
	RelayInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "fashfolio_relay_in_flight",
		Help: "Number of AI relay invocations currently running",
	})

	// FeedCompositions counts composed feeds by mode and whether they were empty.
	FeedCompositions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fashfolio_feed_compositions_total",
		Help: "Total feed compositions by mode",
	}, []string{"mode", "empty"})

	// MediaOperations counts media store operations by driver, operation and outcome.
	MediaOperations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fashfolio_media_operations_total",
		Help: "Total media store operations",
	}, []string{"driver", "operation", "outcome"})

	// NotificationEvents counts user events consumed from the notification channels.
	NotificationEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fashfolio_notification_events_total",
		Help: "Total user notification events received by type",
	}, []string{"type"})
)

// StoreMetrics records query latency for one store driver.
type StoreMetrics struct {
	driver string
}

// NewStoreMetrics returns a new StoreMetrics instance.
func NewStoreMetrics(driver string) *StoreMetrics {
	return &StoreMetrics{driver: driver}
}

// ObserveQuery records the latency of a store query.
func (m *StoreMetrics) ObserveQuery(operation, collection string, start time.Time) {
	StoreQueryLatency.WithLabelValues(m.driver, operation, collection).Observe(time.Since(start).Seconds())
}

// TrackQuery returns a function that records query latency when called (e.g. defer).
func (m *StoreMetrics) TrackQuery(operation, collection string) func() {
	start := time.Now()
	return func() {
		m.ObserveQuery(operation, collection, start)
	}
}

// ObserveRelay records the outcome and duration of a relay invocation.
func ObserveRelay(transport, target, outcome string, start time.Time) {
	RelayInvocations.WithLabelValues(transport, target, outcome).Inc()
	RelayDuration.WithLabelValues(transport, target).Observe(time.Since(start).Seconds())
}

// ObserveFeed counts a feed composition.
func ObserveFeed(mode string, size int) {
	empty := "false"
	if size == 0 {
		empty = "true"
	}
	FeedCompositions.WithLabelValues(mode, empty).Inc()
}
