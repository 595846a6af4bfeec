package flow

import (
	"context"
	"errors"
)

// HaltError is the non-failure early-termination signal for Stoppable
// flows. A producer body returning a HaltError ends the flow as a
// normal, successful completion; any other error propagates as a
// genuine failure to the consumer.
type HaltError struct {
	Reason string
}

// Error implements the error interface.
func (e *HaltError) Error() string {
	return "flow halted: " + e.Reason
}

// Halt builds the early-termination signal. Return it from a Stoppable
// body to end the flow successfully.
func Halt(reason string) error {
	return &HaltError{Reason: reason}
}

// IsHalt reports whether err is (or wraps) a halt signal.
func IsHalt(err error) bool {
	var h *HaltError
	return errors.As(err, &h)
}

// EmitFunc delivers one value downstream. It returns the context error
// when the consumer is gone, at which point the body should return.
type EmitFunc[T any] func(T) error

// Stoppable wraps a producer body with a halt escape. The body emits
// values through the provided EmitFunc and may end the flow early by
// returning Halt(reason), which completes the flow successfully.
//
//	evens := flow.Stoppable(func(ctx context.Context, emit flow.EmitFunc[int]) error {
//		for i := 0; ; i += 2 {
//			if i > 1000 {
//				return flow.Halt("limit reached")
//			}
//			if err := emit(i); err != nil {
//				return err
//			}
//		}
//	})
func Stoppable[T any](body func(ctx context.Context, emit EmitFunc[T]) error) Flow[T] {
	return func(ctx context.Context) <-chan Item[T] {
		out := make(chan Item[T])
		go func() {
			defer close(out)

			emit := func(v T) error {
				if !Emit(ctx, out, Item[T]{Value: v}) {
					return ctx.Err()
				}
				return nil
			}

			err := body(ctx, emit)
			switch {
			case err == nil:
			case IsHalt(err):
				// Graceful early termination, not a failure.
			case errors.Is(err, ctx.Err()) && ctx.Err() != nil:
				// Consumer is gone; nothing to deliver to.
			default:
				Emit(ctx, out, Item[T]{Err: err})
			}
		}()
		return out
	}
}
