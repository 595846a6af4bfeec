package semaphore

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/River-Kt/river-sub000/pkg/metrics"
)

// MetricsSemaphore wraps a Semaphore with Prometheus metrics collection.
type MetricsSemaphore struct {
	sem      Semaphore
	name     string
	registry *metrics.Registry
	enabled  bool
}

// NewWithMetrics creates a semaphore with metrics enabled on a dedicated registry.
func NewWithMetrics(capacity int, name string) (Semaphore, error) {
	registry := prometheus.NewRegistry()
	config := metrics.Config{
		Enabled:  true,
		Registry: registry,
	}

	return NewWithConfigAndMetrics(Config{Capacity: capacity}, name, config)
}

// NewWithConfigAndMetrics creates a semaphore with custom config and metrics.
func NewWithConfigAndMetrics(config Config, name string, metricsConfig metrics.Config) (Semaphore, error) {
	if !metricsConfig.Enabled {
		return NewWithConfig(config)
	}

	registry := metrics.DefaultRegistry
	if metricsConfig.Registry != nil {
		registry = metrics.NewRegistry(metricsConfig.Registry)
	}

	// Count lease expiries before handing off to the user's callback.
	userCallback := config.OnLeaseExpired
	config.OnLeaseExpired = func(p Permit) {
		registry.LeasesExpired.WithLabelValues(name).Inc()
		registry.PermitsActive.WithLabelValues(name).Dec()
		if userCallback != nil {
			userCallback(p)
		}
	}

	base, err := NewWithConfig(config)
	if err != nil {
		return nil, err
	}

	ms := &MetricsSemaphore{
		sem:      base,
		name:     name,
		registry: registry,
		enabled:  true,
	}
	ms.registry.PermitsActive.WithLabelValues(name).Set(0)

	return ms, nil
}

// Acquire blocks until a permit is available or the context is done.
func (ms *MetricsSemaphore) Acquire(ctx context.Context) (Permit, error) {
	start := time.Now()

	if ms.enabled {
		ms.registry.PermitsWaiting.WithLabelValues(ms.name).Inc()
	}

	p, err := ms.sem.Acquire(ctx)

	if ms.enabled {
		ms.registry.PermitsWaiting.WithLabelValues(ms.name).Dec()
		ms.registry.PermitWaitTime.WithLabelValues(ms.name).Observe(time.Since(start).Seconds())
		if err == nil {
			ms.registry.PermitsAcquired.WithLabelValues(ms.name).Inc()
			ms.registry.PermitsActive.WithLabelValues(ms.name).Inc()
		}
	}

	return p, err
}

// TryAcquire attempts to take a permit without blocking.
func (ms *MetricsSemaphore) TryAcquire() (Permit, bool) {
	p, ok := ms.sem.TryAcquire()

	if ms.enabled && ok {
		ms.registry.PermitsAcquired.WithLabelValues(ms.name).Inc()
		ms.registry.PermitsActive.WithLabelValues(ms.name).Inc()
	}

	return p, ok
}

// Release returns a permit to the pool.
func (ms *MetricsSemaphore) Release(p Permit) {
	before := ms.sem.InUse()
	ms.sem.Release(p)

	// Only count releases that actually freed a permit; double-release
	// is a no-op by contract.
	if ms.enabled && ms.sem.InUse() < before {
		ms.registry.PermitsActive.WithLabelValues(ms.name).Dec()
	}
}

// ReleaseAll returns every held permit to the pool.
func (ms *MetricsSemaphore) ReleaseAll() {
	ms.sem.ReleaseAll()

	if ms.enabled {
		ms.registry.PermitsActive.WithLabelValues(ms.name).Set(0)
	}
}

// Available returns the number of permits not currently held.
func (ms *MetricsSemaphore) Available() int {
	return ms.sem.Available()
}

// Capacity returns the total number of permits.
func (ms *MetricsSemaphore) Capacity() int {
	return ms.sem.Capacity()
}

// InUse returns the number of permits currently held.
func (ms *MetricsSemaphore) InUse() int {
	return ms.sem.InUse()
}

// EnableMetrics enables metrics collection.
func (ms *MetricsSemaphore) EnableMetrics(config metrics.Config) error {
	ms.enabled = config.Enabled

	if config.Registry != nil {
		ms.registry = metrics.NewRegistry(config.Registry)
	}

	return nil
}

// DisableMetrics disables metrics collection.
func (ms *MetricsSemaphore) DisableMetrics() {
	ms.enabled = false
}

// MetricsEnabled returns true if metrics are currently enabled.
func (ms *MetricsSemaphore) MetricsEnabled() bool {
	return ms.enabled
}
