package polling

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	rverrors "github.com/River-Kt/river-sub000/pkg/common/errors"
	"github.com/River-Kt/river-sub000/pkg/streaming/flow"
)

// PollSchedule invokes producer on a cron schedule and flattens each
// batch into the flow. It accepts the standard five-field cron
// expressions plus the @every/@hourly style descriptors. The schedule
// timer is bound to the consuming context, so cancelling the consumer
// tears the poller down between firings.
//
// Unlike Poll there is no concurrency ramp: scheduled polls run one
// producer call per firing. An empty batch is emitted as nothing and
// the schedule keeps running.
func PollSchedule[T any](spec string, producer func(ctx context.Context) ([]T, error)) (flow.Flow[T], error) {
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, rverrors.NewValidationError("polling", "spec", spec, err.Error()).
			WithHint("use a five-field cron expression or an @every descriptor")
	}

	f := func(ctx context.Context) <-chan flow.Item[T] {
		out := make(chan flow.Item[T])
		go func() {
			defer close(out)

			timer := time.NewTimer(0)
			defer timer.Stop()

			for {
				next := schedule.Next(time.Now())
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(time.Until(next))

				select {
				case <-timer.C:
				case <-ctx.Done():
					return
				}

				batch, err := producer(ctx)
				if err != nil {
					flow.Emit(ctx, out, flow.Item[T]{Err: err})
					return
				}
				for _, v := range batch {
					if !flow.Emit(ctx, out, flow.Item[T]{Value: v}) {
						return
					}
				}
			}
		}()
		return out
	}
	return f, nil
}
