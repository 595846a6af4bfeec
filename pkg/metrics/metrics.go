// Package metrics provides Prometheus instrumentation for flow components.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds all metric instances for flow components.
type Registry struct {
	// Permit Semaphore Metrics
	PermitsAcquired *prometheus.CounterVec
	PermitsActive   *prometheus.GaugeVec
	PermitsWaiting  *prometheus.GaugeVec
	PermitWaitTime  *prometheus.HistogramVec
	LeasesExpired   *prometheus.CounterVec

	// Bounded-Concurrency Map Metrics
	MapItemsProcessed *prometheus.CounterVec
	MapInFlight       *prometheus.GaugeVec
	MapErrors         *prometheus.CounterVec

	// Polling Metrics
	PollIterations  *prometheus.CounterVec
	PollBatchSize   *prometheus.HistogramVec
	PollConcurrency *prometheus.GaugeVec

	// Grouping Metrics
	ChunksFlushed *prometheus.CounterVec
	ChunkSize     *prometheus.HistogramVec

	// Throttle Metrics
	ThrottleAllowed  *prometheus.CounterVec
	ThrottleDropped  *prometheus.CounterVec
	ThrottleWaitTime *prometheus.HistogramVec

	// Resource Pool Metrics
	PoolBorrows   *prometheus.CounterVec
	PoolCreations *prometheus.CounterVec
	PoolEvictions *prometheus.CounterVec
	PoolInUse     *prometheus.GaugeVec

	// Broadcast Metrics
	BroadcastItems *prometheus.CounterVec
}

// DefaultRegistry is the default metrics registry used by flow components.
var DefaultRegistry *Registry

func init() {
	DefaultRegistry = NewRegistry(prometheus.DefaultRegisterer)
}

// NewRegistry creates a new metrics registry with the given Prometheus registerer.
func NewRegistry(reg prometheus.Registerer) *Registry {
	factory := promauto.With(reg)

	return &Registry{
		// Permit Semaphore Metrics
		PermitsAcquired: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "river",
				Subsystem: "semaphore",
				Name:      "permits_acquired_total",
				Help:      "Total number of permits acquired",
			},
			[]string{"semaphore_name"},
		),

		PermitsActive: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "river",
				Subsystem: "semaphore",
				Name:      "permits_active",
				Help:      "Number of permits currently held",
			},
			[]string{"semaphore_name"},
		),

		PermitsWaiting: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "river",
				Subsystem: "semaphore",
				Name:      "waiting",
				Help:      "Number of callers waiting for a permit",
			},
			[]string{"semaphore_name"},
		),

		PermitWaitTime: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "river",
				Subsystem: "semaphore",
				Name:      "wait_duration_seconds",
				Help:      "Time spent waiting for a permit",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"semaphore_name"},
		),

		LeasesExpired: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "river",
				Subsystem: "semaphore",
				Name:      "leases_expired_total",
				Help:      "Total number of permits auto-released by lease expiry",
			},
			[]string{"semaphore_name"},
		),

		// Bounded-Concurrency Map Metrics
		MapItemsProcessed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "river",
				Subsystem: "mapping",
				Name:      "items_processed_total",
				Help:      "Total number of items transformed",
			},
			[]string{"variant", "flow_name"},
		),

		MapInFlight: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "river",
				Subsystem: "mapping",
				Name:      "in_flight",
				Help:      "Number of transforms currently running",
			},
			[]string{"variant", "flow_name"},
		),

		MapErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "river",
				Subsystem: "mapping",
				Name:      "errors_total",
				Help:      "Total number of transform failures",
			},
			[]string{"variant", "flow_name"},
		),

		// Polling Metrics
		PollIterations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "river",
				Subsystem: "polling",
				Name:      "iterations_total",
				Help:      "Total number of poll iterations",
			},
			[]string{"poller_name"},
		),

		PollBatchSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "river",
				Subsystem: "polling",
				Name:      "batch_size",
				Help:      "Number of items produced per iteration",
				Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
			},
			[]string{"poller_name"},
		),

		PollConcurrency: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "river",
				Subsystem: "polling",
				Name:      "concurrency",
				Help:      "Concurrency used by the current poll iteration",
			},
			[]string{"poller_name"},
		),

		// Grouping Metrics
		ChunksFlushed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "river",
				Subsystem: "grouping",
				Name:      "chunks_flushed_total",
				Help:      "Total number of chunks flushed, by trigger",
			},
			[]string{"trigger", "flow_name"},
		),

		ChunkSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "river",
				Subsystem: "grouping",
				Name:      "chunk_size",
				Help:      "Number of items per flushed chunk",
				Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
			},
			[]string{"flow_name"},
		),

		// Throttle Metrics
		ThrottleAllowed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "river",
				Subsystem: "throttle",
				Name:      "allowed_total",
				Help:      "Total number of elements emitted through the throttle",
			},
			[]string{"strategy", "flow_name"},
		),

		ThrottleDropped: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "river",
				Subsystem: "throttle",
				Name:      "dropped_total",
				Help:      "Total number of elements discarded by the Drop strategy",
			},
			[]string{"flow_name"},
		),

		ThrottleWaitTime: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "river",
				Subsystem: "throttle",
				Name:      "wait_duration_seconds",
				Help:      "Time spent waiting for throttle permits",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"flow_name"},
		),

		// Resource Pool Metrics
		PoolBorrows: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "river",
				Subsystem: "objectpool",
				Name:      "borrows_total",
				Help:      "Total number of borrow operations",
			},
			[]string{"pool_name"},
		),

		PoolCreations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "river",
				Subsystem: "objectpool",
				Name:      "creations_total",
				Help:      "Total number of holders created by the factory",
			},
			[]string{"pool_name"},
		),

		PoolEvictions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "river",
				Subsystem: "objectpool",
				Name:      "evictions_total",
				Help:      "Total number of holders discarded after lifetime expiry",
			},
			[]string{"pool_name"},
		),

		PoolInUse: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "river",
				Subsystem: "objectpool",
				Name:      "in_use",
				Help:      "Number of holders currently borrowed",
			},
			[]string{"pool_name"},
		),

		// Broadcast Metrics
		BroadcastItems: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "river",
				Subsystem: "broadcast",
				Name:      "items_total",
				Help:      "Total number of items fanned out to downstreams",
			},
			[]string{"flow_name"},
		),
	}
}
