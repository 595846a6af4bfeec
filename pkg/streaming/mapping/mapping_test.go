package mapping

import (
	"context"
	"errors"
	"sort"
	"sync/atomic"
	"testing"
	"time"

	"github.com/River-Kt/river-sub000/internal/testutil"
	"github.com/River-Kt/river-sub000/pkg/streaming/flow"
)

// delayedDouble sleeps for the value's delay then doubles it, so
// completion order is controlled by the inputs.
func delayedDouble(ctx context.Context, ms int) (int, error) {
	select {
	case <-time.After(time.Duration(ms) * time.Millisecond):
		return ms * 2, nil
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

func TestMapBoundedPreservesOrder(t *testing.T) {
	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	// The 100ms item finishes last but must still emit first.
	f := MapBounded(flow.Of(100, 50, 10), 2, delayedDouble)

	got, err := flow.ToSlice(ctx, f)
	testutil.AssertNoError(t, err)
	testutil.AssertSliceEqual(t, got, []int{200, 100, 20})
}

func TestMapBoundedUnorderedEmitsByCompletion(t *testing.T) {
	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	// With concurrency 2: 100 and 50 start together, 50 finishes first
	// and admits 10, which finishes before 100.
	f := MapBoundedUnordered(flow.Of(100, 50, 10), 2, delayedDouble)

	got, err := flow.ToSlice(ctx, f)
	testutil.AssertNoError(t, err)
	testutil.AssertSliceEqual(t, got, []int{100, 20, 200})
}

func TestMapBoundedConcurrencyLimit(t *testing.T) {
	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	const limit = 3
	var inFlight, peak atomic.Int64

	fn := func(ctx context.Context, v int) (int, error) {
		cur := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			old := peak.Load()
			if cur <= old || peak.CompareAndSwap(old, cur) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		return v, nil
	}

	_, err := flow.ToSlice(ctx, MapBounded(flow.Range(0, 30), limit, fn))
	testutil.AssertNoError(t, err)

	if peak.Load() > limit {
		t.Fatalf("observed %d concurrent transforms, limit %d", peak.Load(), limit)
	}
}

func TestMapBoundedUnorderedMultisetEquality(t *testing.T) {
	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	f := MapBoundedUnordered(flow.Range(0, 100), 8, func(_ context.Context, v int) (int, error) {
		return v * 3, nil
	})

	got, err := flow.ToSlice(ctx, f)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, len(got), 100)

	sort.Ints(got)
	for i, v := range got {
		testutil.AssertEqual(t, v, i*3)
	}
}

func TestMapBoundedFirstFailurePropagates(t *testing.T) {
	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	boom := errors.New("boom")
	var cancelled atomic.Int64

	fn := func(ctx context.Context, v int) (int, error) {
		if v == 5 {
			return 0, boom
		}
		select {
		case <-time.After(200 * time.Millisecond):
			return v, nil
		case <-ctx.Done():
			cancelled.Add(1)
			return 0, ctx.Err()
		}
	}

	start := time.Now()
	_, err := flow.ToSlice(ctx, MapBounded(flow.Range(0, 10), 4, fn))

	testutil.AssertEqual(t, errors.Is(err, boom), true)
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("siblings were not cancelled promptly, took %v", elapsed)
	}
	if cancelled.Load() == 0 {
		t.Fatal("expected at least one sibling transform to observe cancellation")
	}
}

func TestMapBoundedUnorderedFailureCancelsSiblings(t *testing.T) {
	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	boom := errors.New("boom")
	fn := func(ctx context.Context, v int) (int, error) {
		if v == 0 {
			return 0, boom
		}
		select {
		case <-time.After(time.Second):
			return v, nil
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}

	start := time.Now()
	_, err := flow.ToSlice(ctx, MapBoundedUnordered(flow.Range(0, 8), 4, fn))

	testutil.AssertEqual(t, errors.Is(err, boom), true)
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("flow did not fail fast, took %v", elapsed)
	}
}

func TestMapBoundedUpstreamFailure(t *testing.T) {
	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	boom := errors.New("upstream boom")
	source := flow.Concat(flow.Of(1, 2), flow.Fail[int](boom))

	var got []int
	err := flow.ForEach(ctx, MapBounded(source, 2, func(_ context.Context, v int) (int, error) {
		return v * 10, nil
	}), func(v int) error {
		got = append(got, v)
		return nil
	})

	testutil.AssertEqual(t, errors.Is(err, boom), true)
	testutil.AssertSliceEqual(t, got, []int{10, 20})
}

func TestMapBoundedEmptyInput(t *testing.T) {
	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	got, err := flow.ToSlice(ctx, MapBounded(flow.Empty[int](), 4, delayedDouble))
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, len(got), 0)
}

func TestMapBoundedPanicsOnInvalidConcurrency(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for concurrency 0")
		}
	}()
	MapBounded(flow.Empty[int](), 0, delayedDouble)
}
