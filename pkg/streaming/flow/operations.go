package flow

import (
	"context"
)

// Map transforms each value of the flow with fn. The transform runs
// synchronously on the producer side; use the mapping package for
// concurrency-bounded transforms.
func Map[T, R any](f Flow[T], fn func(T) R) Flow[R] {
	return func(ctx context.Context) <-chan Item[R] {
		out := make(chan Item[R])
		go func() {
			defer close(out)
			for it := range f(ctx) {
				if it.Err != nil {
					Emit(ctx, out, Item[R]{Err: it.Err})
					return
				}
				if !Emit(ctx, out, Item[R]{Value: fn(it.Value)}) {
					return
				}
			}
		}()
		return out
	}
}

// Filter keeps only the values matching pred.
func Filter[T any](f Flow[T], pred func(T) bool) Flow[T] {
	return func(ctx context.Context) <-chan Item[T] {
		out := make(chan Item[T])
		go func() {
			defer close(out)
			for it := range f(ctx) {
				if it.Err != nil {
					Emit(ctx, out, it)
					return
				}
				if !pred(it.Value) {
					continue
				}
				if !Emit(ctx, out, it) {
					return
				}
			}
		}()
		return out
	}
}

// Take emits at most n values and then completes, cancelling the
// upstream producer.
func Take[T any](f Flow[T], n int) Flow[T] {
	return func(ctx context.Context) <-chan Item[T] {
		out := make(chan Item[T])
		go func() {
			defer close(out)

			upCtx, cancel := context.WithCancel(ctx)
			defer cancel()

			taken := 0
			for it := range f(upCtx) {
				if it.Err != nil {
					Emit(ctx, out, it)
					return
				}
				if taken >= n {
					return
				}
				if !Emit(ctx, out, it) {
					return
				}
				taken++
				if taken >= n {
					return
				}
			}
		}()
		return out
	}
}

// OnEach invokes fn on each value as it passes through, without
// altering the flow.
func OnEach[T any](f Flow[T], fn func(T)) Flow[T] {
	return func(ctx context.Context) <-chan Item[T] {
		out := make(chan Item[T])
		go func() {
			defer close(out)
			for it := range f(ctx) {
				if it.Err == nil {
					fn(it.Value)
				}
				if !Emit(ctx, out, it) {
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
