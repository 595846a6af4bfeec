package flow

import (
	"context"
)

// Item carries one element of a flow or its terminal error. A flow
// delivers zero or more value items and closes its channel when done;
// a failure is delivered as a final item with Err set.
type Item[T any] struct {
	Value T
	Err   error
}

// Flow is a cold, restartable sequence of values. Invoking the
// function starts a fresh emission into the returned channel.
// Producers stop promptly when ctx is done; every send is paired with
// a ctx select so an abandoned consumer never leaks the producer.
type Flow[T any] func(ctx context.Context) <-chan Item[T]

// Emit sends an item into out, honoring cancellation. It reports
// whether the send happened. Producers implementing custom flows
// should return as soon as Emit reports false.
func Emit[T any](ctx context.Context, out chan<- Item[T], it Item[T]) bool {
	select {
	case out <- it:
		return true
	case <-ctx.Done():
		return false
	}
}

// ForEach runs the flow to completion, invoking fn on each value.
// A non-nil error from fn stops consumption and is returned; the
// producer is cancelled.
func ForEach[T any](ctx context.Context, f Flow[T], fn func(T) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	for it := range f(ctx) {
		if it.Err != nil {
			return it.Err
		}
		if err := fn(it.Value); err != nil {
			return err
		}
	}

	return ctx.Err()
}

// ToSlice runs the flow to completion and collects every value.
func ToSlice[T any](ctx context.Context, f Flow[T]) ([]T, error) {
	var result []T
	err := ForEach(ctx, f, func(v T) error {
		result = append(result, v)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Count runs the flow to completion and returns the number of values.
func Count[T any](ctx context.Context, f Flow[T]) (int64, error) {
	var n int64
	err := ForEach(ctx, f, func(T) error {
		n++
		return nil
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

// First returns the first value of the flow, cancelling the rest.
// The boolean reports whether the flow produced any value.
func First[T any](ctx context.Context, f Flow[T]) (T, bool, error) {
	var zero T

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	for it := range f(ctx) {
		if it.Err != nil {
			return zero, false, it.Err
		}
		return it.Value, true, nil
	}

	if err := ctx.Err(); err != nil {
		return zero, false, err
	}
	return zero, false, nil
}

// Channel runs the flow and returns a plain value channel plus an
// error callback to inspect after the channel closes. Useful for
// adapters that want select-friendly consumption.
func Channel[T any](ctx context.Context, f Flow[T]) (<-chan T, func() error) {
	out := make(chan T)
	var terminal error

	go func() {
		defer close(out)
		for it := range f(ctx) {
			if it.Err != nil {
				terminal = it.Err
				return
			}
			select {
			case out <- it.Value:
			case <-ctx.Done():
				terminal = ctx.Err()
				return
			}
		}
	}()

	return out, func() error { return terminal }
}
