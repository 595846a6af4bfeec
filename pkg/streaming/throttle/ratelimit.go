package throttle

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/River-Kt/river-sub000/pkg/streaming/flow"
)

// RateLimit smooths the flow to limit events per second with the given
// burst, using a token bucket instead of Throttle's discrete windows.
// Emission blocks until a token is available, so it always applies
// backpressure rather than loss.
//
// RateLimit panics if burst <= 0.
func RateLimit[T any](source flow.Flow[T], limit rate.Limit, burst int) flow.Flow[T] {
	if burst <= 0 {
		panic("throttle: RateLimit requires burst > 0")
	}

	return func(ctx context.Context) <-chan flow.Item[T] {
		out := make(chan flow.Item[T])
		go func() {
			defer close(out)

			runCtx, cancel := context.WithCancel(ctx)
			defer cancel()

			limiter := rate.NewLimiter(limit, burst)
			for it := range source(runCtx) {
				if it.Err != nil {
					flow.Emit(ctx, out, it)
					return
				}
				if err := limiter.Wait(ctx); err != nil {
					return
				}
				if !flow.Emit(ctx, out, it) {
					return
				}
			}
		}()
		return out
	}
}
