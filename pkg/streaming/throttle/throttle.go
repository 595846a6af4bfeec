package throttle

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/River-Kt/river-sub000/pkg/concurrency/semaphore"
	"github.com/River-Kt/river-sub000/pkg/metrics"
	"github.com/River-Kt/river-sub000/pkg/streaming/flow"
)

// Strategy selects what happens to an element that arrives while the
// current window's permits are exhausted.
type Strategy int

const (
	// Suspend blocks the producer side until the next window opens,
	// providing backpressure.
	Suspend Strategy = iota
	// Drop silently discards the element and continues. Lossy.
	Drop
)

// Config configures a throttled flow.
type Config struct {
	// Elements is the number of permits per window. Must be > 0.
	Elements int
	// Interval is the window length. Must be > 0.
	Interval time.Duration
	// Strategy decides between backpressure and loss. Defaults to
	// Suspend.
	Strategy Strategy
	// Logger records dropped elements under the Drop strategy.
	// Defaults to a no-op logger.
	Logger *zap.Logger
	// Name labels the flow in metrics. Defaults to "default".
	Name string
	// Metrics enables Prometheus instrumentation.
	Metrics metrics.Config
}

// String returns the strategy's metrics label.
func (s Strategy) String() string {
	if s == Drop {
		return "drop"
	}
	return "suspend"
}

// Throttle caps the flow at elements emissions per interval. Suspend
// blocks the producer when the window is exhausted; Drop discards the
// overflow.
//
// Throttle panics if elements <= 0 or interval <= 0.
func Throttle[T any](source flow.Flow[T], elements int, interval time.Duration, strategy Strategy) flow.Flow[T] {
	return ThrottleWithConfig(source, Config{
		Elements: elements,
		Interval: interval,
		Strategy: strategy,
	})
}

// ThrottleWithConfig is Throttle with an explicit Config.
//
// Each window holds config.Elements permits in a semaphore; emitting
// takes one. A replenishment tick restores the window to full
// capacity, so early hand-backs within a window never over-grant. The
// ticker lives exactly as long as one invocation of the flow and is
// torn down on completion, failure and cancellation.
func ThrottleWithConfig[T any](source flow.Flow[T], config Config) flow.Flow[T] {
	if config.Elements <= 0 {
		panic("throttle: Throttle requires elements > 0")
	}
	if config.Interval <= 0 {
		panic("throttle: Throttle requires interval > 0")
	}
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	name := config.Name
	if name == "" {
		name = "default"
	}
	var registry *metrics.Registry
	if config.Metrics.Enabled {
		registry = metrics.DefaultRegistry
		if config.Metrics.Registry != nil {
			registry = metrics.NewRegistry(config.Metrics.Registry)
		}
	}

	return func(ctx context.Context) <-chan flow.Item[T] {
		out := make(chan flow.Item[T])
		go func() {
			defer close(out)

			runCtx, cancel := context.WithCancel(ctx)
			defer cancel()

			sem, err := semaphore.New(config.Elements)
			if err != nil {
				flow.Emit(ctx, out, flow.Item[T]{Err: err})
				return
			}

			replenishDone := make(chan struct{})
			defer close(replenishDone)
			go func() {
				ticker := time.NewTicker(config.Interval)
				defer ticker.Stop()
				for {
					select {
					case <-ticker.C:
						sem.ReleaseAll()
					case <-replenishDone:
						return
					}
				}
			}()

			for it := range source(runCtx) {
				if it.Err != nil {
					flow.Emit(ctx, out, it)
					return
				}

				switch config.Strategy {
				case Drop:
					if _, ok := sem.TryAcquire(); !ok {
						logger.Debug("throttle dropped element, window exhausted",
							zap.Int("elements", config.Elements),
							zap.Duration("interval", config.Interval))
						if registry != nil {
							registry.ThrottleDropped.WithLabelValues(name).Inc()
						}
						continue
					}
				default:
					start := time.Now()
					if _, err := sem.Acquire(ctx); err != nil {
						return
					}
					if registry != nil {
						registry.ThrottleWaitTime.WithLabelValues(name).Observe(time.Since(start).Seconds())
					}
				}

				if !flow.Emit(ctx, out, it) {
					return
				}
				if registry != nil {
					registry.ThrottleAllowed.WithLabelValues(config.Strategy.String(), name).Inc()
				}
			}
		}()
		return out
	}
}
