/*
Package river provides composable operators for processing unbounded
sequences under explicit concurrency, rate, and resource bounds.

Concurrency Primitives (pkg/concurrency):
  - semaphore: Identified-permit semaphore with optional auto-expiring leases
  - objectpool: Bounded pool of expensive objects with per-object lifetime

Streaming Operators (pkg/streaming):
  - flow: Cold, restartable sequences with backpressure and cancellation
  - mapping: Concurrency-bounded transforms, ordered and unordered
  - polling: Adaptive, stateful, and cron-scheduled pull sources
  - grouping: Count- and time-window chunking
  - throttle: Windowed and token-bucket rate capping
  - broadcast: Fan-out to independent consumers

Example usage:

	import (
		"github.com/River-Kt/river-sub000/pkg/streaming/flow"
		"github.com/River-Kt/river-sub000/pkg/streaming/mapping"
	)

	source := flow.Range(0, 1000)
	doubled := mapping.MapBounded(source, 8, func(ctx context.Context, v int) (int, error) {
		return v * 2, nil
	})
	results, err := flow.ToSlice(ctx, doubled)
*/
package river
