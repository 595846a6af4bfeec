/*
Package flow provides the cold-sequence abstraction the rest of the
library is built on.

A Flow[T] is a function that, when invoked with a context, starts a
fresh emission of items into a channel. Flows are:
  - Cold: nothing runs until a terminal operation collects the flow,
    and each collection restarts the producer.
  - Backpressured: channels are unbuffered hand-offs, so a slow
    consumer suspends the producer instead of growing a buffer.
  - Cancellation-safe: every producer send selects on ctx, so an
    abandoned consumer never leaks the producer goroutine.

Errors travel in-band: a failing flow delivers a final Item with Err
set and then closes. Terminal operations surface that error to the
caller.

Basic usage:

	doubled, err := flow.ToSlice(ctx, flow.Map(flow.Range(1, 5), func(x int) int {
		return x * 2
	}))

Producers that need a graceful early exit distinct from failure use
Stoppable and Halt:

	f := flow.Stoppable(func(ctx context.Context, emit flow.EmitFunc[int]) error {
		for i := 1; ; i++ {
			if i > 1000 {
				return flow.Halt("collected enough")
			}
			if err := emit(i); err != nil {
				return err
			}
		}
	})

Concurrency-bounded transforms, adaptive polling, grouping, throttling
and fan-out live in the sibling packages mapping, polling, grouping,
throttle and broadcast.
*/
package flow
