package objectpool

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/River-Kt/river-sub000/pkg/metrics"
)

// MetricsPool wraps a Pool with Prometheus metrics collection.
type MetricsPool[T any] struct {
	pool     *Pool[T]
	name     string
	registry *metrics.Registry
	enabled  bool
}

// NewWithMetrics creates a pool with metrics enabled on a dedicated registry.
func NewWithMetrics[T any](config Config[T], name string) (*MetricsPool[T], error) {
	registry := prometheus.NewRegistry()
	return NewWithConfigAndMetrics(config, name, metrics.Config{
		Enabled:  true,
		Registry: registry,
	})
}

// NewWithConfigAndMetrics creates a pool with custom metrics configuration.
func NewWithConfigAndMetrics[T any](config Config[T], name string, metricsConfig metrics.Config) (*MetricsPool[T], error) {
	registry := metrics.DefaultRegistry
	if metricsConfig.Registry != nil {
		registry = metrics.NewRegistry(metricsConfig.Registry)
	}

	if metricsConfig.Enabled {
		// Count factory creations and disposals at the source so reuse
		// and eviction stay distinguishable.
		userFactory := config.Factory
		if userFactory != nil {
			config.Factory = func(ctx context.Context) (T, error) {
				v, err := userFactory(ctx)
				if err == nil {
					registry.PoolCreations.WithLabelValues(name).Inc()
				}
				return v, err
			}
		}
		userOnClose := config.OnClose
		config.OnClose = func(v T) error {
			registry.PoolEvictions.WithLabelValues(name).Inc()
			if userOnClose != nil {
				return userOnClose(v)
			}
			return nil
		}
	}

	base, err := New(config)
	if err != nil {
		return nil, err
	}

	mp := &MetricsPool[T]{
		pool:     base,
		name:     name,
		registry: registry,
		enabled:  metricsConfig.Enabled,
	}
	if mp.enabled {
		mp.registry.PoolInUse.WithLabelValues(name).Set(0)
	}
	return mp, nil
}

// Borrow borrows a holder, recording the borrow and in-use gauge.
func (mp *MetricsPool[T]) Borrow(ctx context.Context) (*ObjectHolder[T], error) {
	h, err := mp.pool.Borrow(ctx)
	if mp.enabled && err == nil {
		mp.registry.PoolBorrows.WithLabelValues(mp.name).Inc()
		mp.registry.PoolInUse.WithLabelValues(mp.name).Inc()
	}
	return h, err
}

// TryBorrow is the non-blocking Borrow.
func (mp *MetricsPool[T]) TryBorrow(ctx context.Context) (*ObjectHolder[T], error) {
	h, err := mp.pool.TryBorrow(ctx)
	if mp.enabled && err == nil {
		mp.registry.PoolBorrows.WithLabelValues(mp.name).Inc()
		mp.registry.PoolInUse.WithLabelValues(mp.name).Inc()
	}
	return h, err
}

// Release returns a holder to the pool.
func (mp *MetricsPool[T]) Release(h *ObjectHolder[T]) {
	mp.pool.Release(h)
	if mp.enabled && h != nil {
		mp.registry.PoolInUse.WithLabelValues(mp.name).Dec()
	}
}

// With borrows a holder, runs body, and releases on every exit path.
func (mp *MetricsPool[T]) With(ctx context.Context, body func(T) error) error {
	h, err := mp.Borrow(ctx)
	if err != nil {
		return err
	}
	defer mp.Release(h)
	return body(h.Instance)
}

// Close shuts the underlying pool down.
func (mp *MetricsPool[T]) Close() {
	mp.pool.Close()
}

// Size returns the number of instances in circulation.
func (mp *MetricsPool[T]) Size() int { return mp.pool.Size() }

// Idle returns the number of instances available for reuse.
func (mp *MetricsPool[T]) Idle() int { return mp.pool.Idle() }

// EnableMetrics enables metrics collection.
func (mp *MetricsPool[T]) EnableMetrics(config metrics.Config) error {
	mp.enabled = config.Enabled

	if config.Registry != nil {
		mp.registry = metrics.NewRegistry(config.Registry)
	}

	return nil
}

// DisableMetrics disables metrics collection.
func (mp *MetricsPool[T]) DisableMetrics() {
	mp.enabled = false
}

// MetricsEnabled returns true if metrics are currently enabled.
func (mp *MetricsPool[T]) MetricsEnabled() bool { return mp.enabled }
