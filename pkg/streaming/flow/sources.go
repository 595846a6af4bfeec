package flow

import (
	"context"
)

// FromSlice creates a flow that emits the elements of slice in order.
func FromSlice[T any](slice []T) Flow[T] {
	return func(ctx context.Context) <-chan Item[T] {
		out := make(chan Item[T])
		go func() {
			defer close(out)
			for _, v := range slice {
				if !Emit(ctx, out, Item[T]{Value: v}) {
					return
				}
			}
		}()
		return out
	}
}

// Of creates a flow that emits the given values in order.
func Of[T any](values ...T) Flow[T] {
	return FromSlice(values)
}

// Range creates a flow emitting count consecutive integers from start.
func Range(start, count int) Flow[int] {
	return func(ctx context.Context) <-chan Item[int] {
		out := make(chan Item[int])
		go func() {
			defer close(out)
			for i := 0; i < count; i++ {
				if !Emit(ctx, out, Item[int]{Value: start + i}) {
					return
				}
			}
		}()
		return out
	}
}

// FromChannel creates a flow that drains ch until it is closed.
// The flow is single-use in practice since the channel is consumed.
func FromChannel[T any](ch <-chan T) Flow[T] {
	return func(ctx context.Context) <-chan Item[T] {
		out := make(chan Item[T])
		go func() {
			defer close(out)
			for {
				select {
				case v, ok := <-ch:
					if !ok {
						return
					}
					if !Emit(ctx, out, Item[T]{Value: v}) {
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

// Empty creates a flow that completes immediately with no values.
func Empty[T any]() Flow[T] {
	return func(context.Context) <-chan Item[T] {
		out := make(chan Item[T])
		close(out)
		return out
	}
}

// Fail creates a flow that fails immediately with err.
func Fail[T any](err error) Flow[T] {
	return func(ctx context.Context) <-chan Item[T] {
		out := make(chan Item[T], 1)
		out <- Item[T]{Err: err}
		close(out)
		return out
	}
}

// Defer creates a flow whose underlying flow is built lazily at
// collection time, once per invocation.
func Defer[T any](build func() Flow[T]) Flow[T] {
	return func(ctx context.Context) <-chan Item[T] {
		return build()(ctx)
	}
}

// Concat emits the values of each flow in sequence, starting the next
// only after the previous completes. A failure in any flow fails the
// concatenation.
func Concat[T any](flows ...Flow[T]) Flow[T] {
	return func(ctx context.Context) <-chan Item[T] {
		out := make(chan Item[T])
		go func() {
			defer close(out)
			for _, f := range flows {
				for it := range f(ctx) {
					if !Emit(ctx, out, it) {
						return
					}
					if it.Err != nil {
						return
					}
				}
			}
		}()
		return out
	}
}
