package grouping

import (
	"context"
	"time"

	"github.com/River-Kt/river-sub000/pkg/metrics"
	"github.com/River-Kt/river-sub000/pkg/streaming/flow"
)

// Config configures a chunked flow.
type Config struct {
	// Name labels the flow in metrics. Defaults to "default".
	Name string
	// Metrics enables Prometheus instrumentation.
	Metrics metrics.Config
}

// Strategy decides when an accumulating group is complete. Build one
// with Count or TimeWindow.
type Strategy struct {
	count  int
	window time.Duration
}

// Count completes a group after exactly n items. The final group may
// be smaller if the upstream completes first.
//
// Count panics if n <= 0.
func Count(n int) Strategy {
	if n <= 0 {
		panic("grouping: Count requires n > 0")
	}
	return Strategy{count: n}
}

// TimeWindow completes a group after n items or after d has elapsed
// since the group's first item, whichever happens first. The deadline
// only starts once a group is non-empty, so an idle upstream never
// produces empty groups.
//
// TimeWindow panics if n <= 0 or d <= 0.
func TimeWindow(n int, d time.Duration) Strategy {
	if n <= 0 {
		panic("grouping: TimeWindow requires n > 0")
	}
	if d <= 0 {
		panic("grouping: TimeWindow requires d > 0")
	}
	return Strategy{count: n, window: d}
}

// Chunk partitions the flow into slices under the strategy. Item order
// is preserved within and across chunks, and no chunk is ever empty.
// On upstream completion a non-empty partial chunk is flushed before
// the flow completes; on upstream failure the buffered partial is
// discarded and the failure propagates.
//
// A single goroutine owns the accumulating chunk, so the count,
// deadline and completion triggers are serialized: whichever fires
// first flushes, and the others become no-ops. The deadline timer is
// bound to the consuming context and torn down on every exit path.
//
// Chunk panics on a strategy not built with Count or TimeWindow.
func Chunk[T any](source flow.Flow[T], strategy Strategy) flow.Flow[[]T] {
	return ChunkWithConfig(source, strategy, Config{})
}

// ChunkWithConfig is Chunk with an explicit Config.
//
// ChunkWithConfig panics on a strategy not built with Count or
// TimeWindow.
func ChunkWithConfig[T any](source flow.Flow[T], strategy Strategy, config Config) flow.Flow[[]T] {
	if strategy.count <= 0 {
		panic("grouping: Chunk requires a strategy built with Count or TimeWindow")
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

	return func(ctx context.Context) <-chan flow.Item[[]T] {
		out := make(chan flow.Item[[]T])
		go func() {
			defer close(out)

			runCtx, cancel := context.WithCancel(ctx)
			defer cancel()

			in := source(runCtx)

			var buf []T
			var timer *time.Timer
			var deadline <-chan time.Time

			disarm := func() {
				if timer == nil {
					return
				}
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer = nil
				deadline = nil
			}
			defer disarm()

			flush := func(trigger string) bool {
				disarm()
				chunk := buf
				buf = nil
				if registry != nil {
					registry.ChunksFlushed.WithLabelValues(trigger, name).Inc()
					registry.ChunkSize.WithLabelValues(name).Observe(float64(len(chunk)))
				}
				return flow.Emit(ctx, out, flow.Item[[]T]{Value: chunk})
			}

			for {
				select {
				case it, ok := <-in:
					if !ok {
						if len(buf) > 0 {
							flush("completion")
						}
						return
					}
					if it.Err != nil {
						flow.Emit(ctx, out, flow.Item[[]T]{Err: it.Err})
						return
					}
					buf = append(buf, it.Value)
					if len(buf) == 1 && strategy.window > 0 {
						timer = time.NewTimer(strategy.window)
						deadline = timer.C
					}
					if len(buf) >= strategy.count {
						if !flush("count") {
							return
						}
					}
				case <-deadline:
					// Armed only while the chunk is non-empty.
					timer = nil
					deadline = nil
					if !flush("deadline") {
						return
					}
				case <-ctx.Done():
					return
				}
			}
		}()
		return out
	}
}

// Group partitions the flow into sub-flows under the strategy. Each
// group is a finite, restartable flow over its items; consume with
// flow.ToSlice for eager chunks.
func Group[T any](source flow.Flow[T], strategy Strategy) flow.Flow[flow.Flow[T]] {
	return flow.Map(Chunk(source, strategy), func(chunk []T) flow.Flow[T] {
		return flow.FromSlice(chunk)
	})
}
