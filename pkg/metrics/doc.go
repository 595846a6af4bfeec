// Package metrics provides Prometheus instrumentation for flow components.
//
// Components expose metrics-enabled constructors (for example
// semaphore.NewWithMetrics) that record permit activity, throttle
// decisions, poll iterations, chunk flushes, and resource pool churn
// into a shared Registry.
//
// Metrics are registered through a promauto factory against either the
// default Prometheus registerer or a caller-supplied registry:
//
//	registry := prometheus.NewRegistry()
//	cfg := metrics.Config{Enabled: true, Registry: registry}
//	sem := semaphore.NewWithConfigAndMetrics(semaphore.Config{Capacity: 8}, "uploads", cfg)
//
// Expose them the usual way:
//
//	http.Handle("/metrics", promhttp.Handler())
//
// All metric names live under the "river" namespace with one subsystem
// per component (semaphore, mapping, polling, grouping, throttle,
// objectpool, broadcast). Collection is passive: metrics are touched
// only when operations occur, never from background goroutines.
package metrics
