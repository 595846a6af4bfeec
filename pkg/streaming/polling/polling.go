package polling

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/River-Kt/river-sub000/pkg/metrics"
	"github.com/River-Kt/river-sub000/pkg/streaming/flow"
)

// Config configures a polled flow.
type Config struct {
	// Name labels the poller in metrics. Defaults to "default".
	Name string
	// Metrics enables Prometheus instrumentation.
	Metrics metrics.Config
}

// ConcurrencyInfo describes the poller's current position within its
// concurrency range. Producers receive it on every round so they can
// size their fetches to the parallelism actually in effect.
type ConcurrencyInfo struct {
	// Maximum is the upper bound the strategy may never exceed.
	Maximum int
	// Current is the parallelism of the round being executed.
	Current int
}

// Producer fetches one batch of items. An empty batch signals that the
// source is (momentarily) drained; a non-nil error fails the flow.
type Producer[T any] func(ctx context.Context, info ConcurrencyInfo) ([]T, error)

// Strategy controls how polling parallelism reacts to full batches.
//
// A round starts at Initial parallelism. After a round in which no
// producer call returned an empty batch, the next round runs at
// Increase(current), clamped to Maximum. A round that sees an empty
// batch resets parallelism to Initial.
type Strategy struct {
	// Maximum bounds the parallelism. Must be > 0.
	Maximum int
	// Initial is the starting parallelism. Defaults to 1; must not
	// exceed Maximum.
	Initial int
	// Increase maps the current parallelism to the next round's
	// parallelism before clamping. Nil means no growth (fixed).
	Increase func(current int) int
}

// Fixed polls at a constant parallelism of n.
func Fixed(n int) Strategy {
	return Strategy{Maximum: n, Initial: n}
}

// IncreaseByOne grows parallelism by one per fully-productive round,
// from 1 up to maximum.
func IncreaseByOne(maximum int) Strategy {
	return Strategy{
		Maximum:  maximum,
		Initial:  1,
		Increase: func(current int) int { return current + 1 },
	}
}

// MultiplyBy grows parallelism geometrically by factor per
// fully-productive round, from 1 up to maximum.
func MultiplyBy(maximum, factor int) Strategy {
	return Strategy{
		Maximum:  maximum,
		Initial:  1,
		Increase: func(current int) int { return current * factor },
	}
}

// MaxOut jumps straight to maximum after the first fully-productive
// round and stays there.
func MaxOut(maximum int) Strategy {
	return Strategy{
		Maximum:  maximum,
		Initial:  1,
		Increase: func(int) int { return maximum },
	}
}

func (s Strategy) validate() {
	if s.Maximum <= 0 {
		panic("polling: Strategy requires Maximum > 0")
	}
	if s.Initial > s.Maximum {
		panic("polling: Strategy requires Initial <= Maximum")
	}
}

func (s Strategy) initial() int {
	if s.Initial <= 0 {
		return 1
	}
	return s.Initial
}

func (s Strategy) next(current int) int {
	if s.Increase == nil {
		return current
	}
	n := s.Increase(current)
	if n < current {
		n = current
	}
	if n > s.Maximum {
		n = s.Maximum
	}
	return n
}

// Poll repeatedly invokes producer and flattens the returned batches
// into a flow, adapting parallelism with the strategy. A round after
// which no producer call came back empty ramps up via the strategy's
// increase rule; a round with at least one empty batch resets the next
// round to the strategy's initial parallelism, so a transient dry
// spell never caps concurrency permanently. Within a round the
// parallel calls' batches are emitted in call order.
//
// With stopOnEmpty the flow completes once a round (after the first)
// follows one that produced an empty batch; otherwise polling
// continues until the consumer cancels.
//
// Poll panics if the strategy is invalid.
func Poll[T any](strategy Strategy, stopOnEmpty bool, producer Producer[T]) flow.Flow[T] {
	return PollWithConfig(strategy, stopOnEmpty, producer, Config{})
}

// PollWithConfig is Poll with an explicit Config.
func PollWithConfig[T any](strategy Strategy, stopOnEmpty bool, producer Producer[T], config Config) flow.Flow[T] {
	strategy.validate()

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

			current := strategy.initial()
			firstRound := true
			previousHadEmpty := false

			for {
				if stopOnEmpty && !firstRound && previousHadEmpty {
					return
				}
				if firstRound || previousHadEmpty {
					current = strategy.initial()
				} else {
					current = strategy.next(current)
				}

				if registry != nil {
					registry.PollIterations.WithLabelValues(name).Inc()
					registry.PollConcurrency.WithLabelValues(name).Set(float64(current))
				}

				batches := make([][]T, current)
				g, gctx := errgroup.WithContext(ctx)
				info := ConcurrencyInfo{Maximum: strategy.Maximum, Current: current}
				for i := 0; i < current; i++ {
					i := i
					g.Go(func() error {
						batch, err := producer(gctx, info)
						if err != nil {
							return err
						}
						batches[i] = batch
						return nil
					})
				}
				if err := g.Wait(); err != nil {
					flow.Emit(ctx, out, flow.Item[T]{Err: err})
					return
				}

				previousHadEmpty = false
				for _, batch := range batches {
					if registry != nil {
						registry.PollBatchSize.WithLabelValues(name).Observe(float64(len(batch)))
					}
					if len(batch) == 0 {
						previousHadEmpty = true
					}
					for _, v := range batch {
						if !flow.Emit(ctx, out, flow.Item[T]{Value: v}) {
							return
						}
					}
				}
				firstRound = false

				select {
				case <-ctx.Done():
					return
				default:
				}
			}
		}()
		return out
	}
}

// PollWithState drives a producer from an explicit cursor: each call
// receives the current state and returns the next one alongside its
// batch. Polling stops once stop reports true for the upcoming state.
// State-carrying polls are inherently sequential, so each round runs a
// single call.
func PollWithState[S, T any](initial S, stop func(S) bool, step func(ctx context.Context, state S) (S, []T, error)) flow.Flow[T] {
	return func(ctx context.Context) <-chan flow.Item[T] {
		out := make(chan flow.Item[T])
		go func() {
			defer close(out)

			state := initial
			for !stop(state) {
				next, batch, err := step(ctx, state)
				if err != nil {
					flow.Emit(ctx, out, flow.Item[T]{Err: err})
					return
				}
				for _, v := range batch {
					if !flow.Emit(ctx, out, flow.Item[T]{Value: v}) {
						return
					}
				}
				state = next

				select {
				case <-ctx.Done():
					return
				default:
				}
			}
		}()
		return out
	}
}
