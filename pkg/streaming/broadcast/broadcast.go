package broadcast

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/River-Kt/river-sub000/pkg/metrics"
	"github.com/River-Kt/river-sub000/pkg/streaming/flow"
)

// ErrDownstreamReused is returned by a broadcast downstream that is
// consumed more than once. Downstream flows are hot and single-use,
// unlike ordinary cold flows.
var ErrDownstreamReused = errors.New("broadcast: downstream already consumed")

// Config configures a broadcast fan-out.
type Config struct {
	// Name labels the fan-out in metrics. Defaults to "default".
	Name string
	// Metrics enables Prometheus instrumentation.
	Metrics metrics.Config
}

// Broadcast replicates source to k independent downstreams. A single
// forwarding goroutine reads the upstream once and pushes every item
// into all k hand-off queues concurrently, waiting for all k sends
// before reading the next item, so the slowest downstream throttles
// the whole fan-out. Upstream completion or failure is propagated to
// every downstream.
//
// The forwarder starts immediately and is bound to ctx; cancelling ctx
// tears down the fan-out even if some downstreams were abandoned. The
// returned flows deliver each item exactly once and cannot be
// restarted.
//
// Broadcast panics if k <= 0.
func Broadcast[T any](ctx context.Context, source flow.Flow[T], k int) []flow.Flow[T] {
	return BroadcastWithConfig(ctx, source, k, Config{})
}

// BroadcastWithConfig is Broadcast with an explicit Config.
func BroadcastWithConfig[T any](ctx context.Context, source flow.Flow[T], k int, config Config) []flow.Flow[T] {
	if k <= 0 {
		panic("broadcast: Broadcast requires k > 0")
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

	queues := make([]chan flow.Item[T], k)
	for i := range queues {
		queues[i] = make(chan flow.Item[T])
	}

	go func() {
		defer func() {
			for _, q := range queues {
				close(q)
			}
		}()

		for it := range source(ctx) {
			var wg sync.WaitGroup
			for _, q := range queues {
				wg.Add(1)
				go func(q chan<- flow.Item[T]) {
					defer wg.Done()
					select {
					case q <- it:
					case <-ctx.Done():
					}
				}(q)
			}
			wg.Wait()

			if it.Err != nil {
				return
			}
			if registry != nil {
				registry.BroadcastItems.WithLabelValues(name).Inc()
			}
			select {
			case <-ctx.Done():
				return
			default:
			}
		}
	}()

	downstreams := make([]flow.Flow[T], k)
	for i := range downstreams {
		q := queues[i]
		var used atomic.Bool
		downstreams[i] = func(dctx context.Context) <-chan flow.Item[T] {
			out := make(chan flow.Item[T])
			go func() {
				defer close(out)

				if !used.CompareAndSwap(false, true) {
					flow.Emit(dctx, out, flow.Item[T]{Err: ErrDownstreamReused})
					return
				}

				for it := range q {
					if !flow.Emit(dctx, out, it) {
						return
					}
					if it.Err != nil {
						return
					}
				}
			}()
			return out
		}
	}
	return downstreams
}
