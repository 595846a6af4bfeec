package mapping

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/River-Kt/river-sub000/pkg/streaming/flow"
)

// Transform turns one input value into one output value. A non-nil
// error fails the whole flow and cancels sibling transforms.
type Transform[T, R any] func(ctx context.Context, v T) (R, error)

// MapBounded transforms the flow with up to concurrency transforms
// running at once, emitting results in submission order. A result that
// finishes early waits until it is first in line, so the output is a
// 1:1 order-preserving map of the input regardless of per-item
// latency.
//
// The first failing transform fails the flow; in-flight siblings are
// cancelled and already-emitted results are not retracted.
//
// MapBounded panics if concurrency <= 0.
func MapBounded[T, R any](source flow.Flow[T], concurrency int, fn Transform[T, R]) flow.Flow[R] {
	if concurrency <= 0 {
		panic("mapping: MapBounded requires concurrency > 0")
	}

	return func(ctx context.Context) <-chan flow.Item[R] {
		out := make(chan flow.Item[R])
		go func() {
			defer close(out)

			runCtx, cancel := context.WithCancel(ctx)
			defer cancel()

			g, gctx := errgroup.WithContext(runCtx)
			g.SetLimit(concurrency)

			// One slot per submitted item, read in submission order.
			// The slot queue doubles as the reorder buffer: at most
			// concurrency results can be outstanding.
			slots := make(chan chan flow.Item[R], concurrency)
			feederDone := make(chan struct{})

			go func() {
				defer close(feederDone)
				defer close(slots)

				for it := range source(runCtx) {
					if it.Err != nil {
						rc := make(chan flow.Item[R], 1)
						rc <- flow.Item[R]{Err: it.Err}
						select {
						case slots <- rc:
						case <-runCtx.Done():
						}
						return
					}

					rc := make(chan flow.Item[R], 1)
					select {
					case slots <- rc:
					case <-runCtx.Done():
						return
					}

					v := it.Value
					g.Go(func() error {
						r, err := fn(gctx, v)
						if err != nil {
							rc <- flow.Item[R]{Err: err}
							return err
						}
						rc <- flow.Item[R]{Value: r}
						return nil
					})
				}
			}()

			for rc := range slots {
				it := <-rc
				if it.Err != nil {
					cancel()
					<-feederDone
					// The errgroup records the chronologically first
					// transform failure; a cancelled sibling in an
					// earlier slot must not mask it.
					err := it.Err
					if werr := g.Wait(); werr != nil {
						err = werr
					}
					flow.Emit(ctx, out, flow.Item[R]{Err: err})
					return
				}
				if !flow.Emit(ctx, out, it) {
					cancel()
					<-feederDone
					_ = g.Wait()
					return
				}
			}

			<-feederDone
			_ = g.Wait()
		}()
		return out
	}
}

// MapBoundedUnordered transforms the flow with up to concurrency
// transforms running at once, emitting each result as soon as it
// completes through a bounded hand-off queue of the same capacity.
// Output order follows completion order; the result multiset equals
// the transformed input.
//
// MapBoundedUnordered panics if concurrency <= 0.
func MapBoundedUnordered[T, R any](source flow.Flow[T], concurrency int, fn Transform[T, R]) flow.Flow[R] {
	if concurrency <= 0 {
		panic("mapping: MapBoundedUnordered requires concurrency > 0")
	}

	return func(ctx context.Context) <-chan flow.Item[R] {
		out := make(chan flow.Item[R])
		go func() {
			defer close(out)

			runCtx, cancel := context.WithCancel(ctx)
			defer cancel()

			g, gctx := errgroup.WithContext(runCtx)
			g.SetLimit(concurrency)

			results := make(chan flow.Item[R], concurrency)
			feederDone := make(chan struct{})

			var upstreamErr error
			go func() {
				defer close(feederDone)

				for it := range source(runCtx) {
					if it.Err != nil {
						upstreamErr = it.Err
						return
					}

					v := it.Value
					g.Go(func() error {
						r, err := fn(gctx, v)
						if err != nil {
							return err
						}
						select {
						case results <- flow.Item[R]{Value: r}:
						case <-gctx.Done():
						}
						return nil
					})
				}
			}()

			// Close the hand-off queue once every worker has finished,
			// appending the terminal error if anything failed.
			go func() {
				<-feederDone
				err := g.Wait()
				if err == nil {
					err = upstreamErr
				}
				if err != nil {
					select {
					case results <- flow.Item[R]{Err: err}:
					case <-ctx.Done():
					}
				}
				close(results)
			}()

			for it := range results {
				if !flow.Emit(ctx, out, it) {
					cancel()
					return
				}
				if it.Err != nil {
					cancel()
					return
				}
			}
		}()
		return out
	}
}
