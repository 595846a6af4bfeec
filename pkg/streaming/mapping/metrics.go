package mapping

import (
	"context"

	"github.com/River-Kt/river-sub000/pkg/metrics"
	"github.com/River-Kt/river-sub000/pkg/streaming/flow"
)

// Config configures an instrumented bounded map.
type Config struct {
	// Name labels the flow in metrics. Defaults to "default".
	Name string
	// Metrics enables Prometheus instrumentation.
	Metrics metrics.Config
}

// MapBoundedWithConfig is MapBounded with transform-level metrics:
// in-flight gauge, processed and error counters.
func MapBoundedWithConfig[T, R any](source flow.Flow[T], concurrency int, fn Transform[T, R], config Config) flow.Flow[R] {
	return MapBounded(source, concurrency, instrument("ordered", config, fn))
}

// MapBoundedUnorderedWithConfig is MapBoundedUnordered with
// transform-level metrics.
func MapBoundedUnorderedWithConfig[T, R any](source flow.Flow[T], concurrency int, fn Transform[T, R], config Config) flow.Flow[R] {
	return MapBoundedUnordered(source, concurrency, instrument("unordered", config, fn))
}

// instrument wraps a transform with the mapping metric vectors. The
// transform itself is untouched when metrics are disabled.
func instrument[T, R any](variant string, config Config, fn Transform[T, R]) Transform[T, R] {
	if !config.Metrics.Enabled {
		return fn
	}

	name := config.Name
	if name == "" {
		name = "default"
	}
	registry := metrics.DefaultRegistry
	if config.Metrics.Registry != nil {
		registry = metrics.NewRegistry(config.Metrics.Registry)
	}

	return func(ctx context.Context, v T) (R, error) {
		registry.MapInFlight.WithLabelValues(variant, name).Inc()
		defer registry.MapInFlight.WithLabelValues(variant, name).Dec()

		r, err := fn(ctx, v)
		if err != nil {
			registry.MapErrors.WithLabelValues(variant, name).Inc()
		} else {
			registry.MapItemsProcessed.WithLabelValues(variant, name).Inc()
		}
		return r, err
	}
}
