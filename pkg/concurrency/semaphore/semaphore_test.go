package semaphore

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/River-Kt/river-sub000/internal/testutil"
	rverrors "github.com/River-Kt/river-sub000/pkg/common/errors"
)

func TestAcquireRelease(t *testing.T) {
	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	sem, err := New(2)
	testutil.AssertNoError(t, err)

	testutil.AssertEqual(t, sem.Capacity(), 2)
	testutil.AssertEqual(t, sem.Available(), 2)

	p1, err := sem.Acquire(ctx)
	testutil.AssertNoError(t, err)
	p2, err := sem.Acquire(ctx)
	testutil.AssertNoError(t, err)

	testutil.AssertEqual(t, sem.InUse(), 2)
	testutil.AssertEqual(t, sem.Available(), 0)

	sem.Release(p1)
	testutil.AssertEqual(t, sem.InUse(), 1)
	sem.Release(p2)
	testutil.AssertEqual(t, sem.InUse(), 0)
}

func TestTryAcquire(t *testing.T) {
	sem, err := New(1)
	testutil.AssertNoError(t, err)

	p, ok := sem.TryAcquire()
	testutil.AssertEqual(t, ok, true)

	_, ok = sem.TryAcquire()
	testutil.AssertEqual(t, ok, false)

	sem.Release(p)
	_, ok = sem.TryAcquire()
	testutil.AssertEqual(t, ok, true)
}

func TestDoubleReleaseIsNoOp(t *testing.T) {
	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	sem, err := New(1)
	testutil.AssertNoError(t, err)

	p, err := sem.Acquire(ctx)
	testutil.AssertNoError(t, err)

	sem.Release(p)
	sem.Release(p)
	testutil.AssertEqual(t, sem.Available(), 1)
	testutil.AssertEqual(t, sem.InUse(), 0)
}

func TestAcquireBlocksUntilRelease(t *testing.T) {
	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	sem, err := New(1)
	testutil.AssertNoError(t, err)

	p, err := sem.Acquire(ctx)
	testutil.AssertNoError(t, err)

	acquired := make(chan Permit, 1)
	go func() {
		p2, err := sem.Acquire(ctx)
		if err != nil {
			t.Error("blocked acquire failed:", err)
			return
		}
		acquired <- p2
	}()

	select {
	case <-acquired:
		t.Fatal("acquire must block while no permit is available")
	case <-time.After(50 * time.Millisecond):
	}

	sem.Release(p)
	select {
	case p2 := <-acquired:
		sem.Release(p2)
	case <-time.After(testutil.TestTimeout):
		t.Fatal("blocked acquire never woke after release")
	}
}

func TestAcquireHonorsContextCancellation(t *testing.T) {
	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	sem, err := New(1)
	testutil.AssertNoError(t, err)

	p, err := sem.Acquire(ctx)
	testutil.AssertNoError(t, err)
	defer sem.Release(p)

	waitCtx, waitCancel := context.WithTimeout(ctx, 30*time.Millisecond)
	defer waitCancel()
	_, err = sem.Acquire(waitCtx)
	testutil.AssertEqual(t, errors.Is(err, context.DeadlineExceeded), true)

	// The cancelled waiter must not occupy a queue slot.
	testutil.AssertEqual(t, sem.InUse(), 1)
}

func TestAcquireWithCancelledContext(t *testing.T) {
	sem, err := New(1)
	testutil.AssertNoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = sem.Acquire(ctx)
	testutil.AssertEqual(t, errors.Is(err, context.Canceled), true)
	testutil.AssertEqual(t, sem.Available(), 1)
}

func TestReleaseAllWakesWaiters(t *testing.T) {
	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	sem, err := New(2)
	testutil.AssertNoError(t, err)

	_, err = sem.Acquire(ctx)
	testutil.AssertNoError(t, err)
	_, err = sem.Acquire(ctx)
	testutil.AssertNoError(t, err)

	var wg sync.WaitGroup
	var woken atomic.Int64
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p, err := sem.Acquire(ctx)
			if err != nil {
				t.Error("waiter failed:", err)
				return
			}
			woken.Add(1)
			sem.Release(p)
		}()
	}

	time.Sleep(20 * time.Millisecond)
	sem.ReleaseAll()
	wg.Wait()

	testutil.AssertEqual(t, woken.Load(), int64(2))
	testutil.AssertEqual(t, sem.InUse(), 0)
}

func TestLeaseExpiryAutoReleases(t *testing.T) {
	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	expired := make(chan Permit, 1)
	sem, err := NewWithConfig(Config{
		Capacity:       1,
		LeaseTime:      40 * time.Millisecond,
		OnLeaseExpired: func(p Permit) { expired <- p },
	})
	testutil.AssertNoError(t, err)

	p, err := sem.Acquire(ctx)
	testutil.AssertNoError(t, err)

	select {
	case got := <-expired:
		testutil.AssertEqual(t, got, p)
	case <-time.After(testutil.TestTimeout):
		t.Fatal("lease never expired")
	}
	testutil.AssertEqual(t, sem.Available(), 1)

	// Releasing the already-expired permit is a no-op.
	sem.Release(p)
	testutil.AssertEqual(t, sem.Available(), 1)
}

func TestReleaseBeforeLeaseExpiryCancelsTimer(t *testing.T) {
	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	var expirations atomic.Int64
	sem, err := NewWithConfig(Config{
		Capacity:       1,
		LeaseTime:      40 * time.Millisecond,
		OnLeaseExpired: func(Permit) { expirations.Add(1) },
	})
	testutil.AssertNoError(t, err)

	p, err := sem.Acquire(ctx)
	testutil.AssertNoError(t, err)
	sem.Release(p)

	time.Sleep(80 * time.Millisecond)
	testutil.AssertEqual(t, expirations.Load(), int64(0))
}

func TestLeaseExpiryWakesWaiter(t *testing.T) {
	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	sem, err := NewWithConfig(Config{
		Capacity:  1,
		LeaseTime: 30 * time.Millisecond,
	})
	testutil.AssertNoError(t, err)

	_, err = sem.Acquire(ctx)
	testutil.AssertNoError(t, err)

	// The holder never releases; the lease must free the permit for us.
	p, err := sem.Acquire(ctx)
	testutil.AssertNoError(t, err)
	sem.Release(p)
}

func TestCapacityNeverExceededUnderContention(t *testing.T) {
	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	const capacity = 4
	sem, err := New(capacity)
	testutil.AssertNoError(t, err)

	var inFlight, peak atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p, err := sem.Acquire(ctx)
			if err != nil {
				t.Error("acquire failed:", err)
				return
			}
			cur := inFlight.Add(1)
			for {
				old := peak.Load()
				if cur <= old || peak.CompareAndSwap(old, cur) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			inFlight.Add(-1)
			sem.Release(p)
		}()
	}
	wg.Wait()

	if peak.Load() > capacity {
		t.Fatalf("held %d permits simultaneously, capacity %d", peak.Load(), capacity)
	}
	testutil.AssertEqual(t, sem.InUse(), 0)
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name   string
		config Config
	}{
		{"zero capacity", Config{Capacity: 0}},
		{"negative capacity", Config{Capacity: -1}},
		{"negative lease", Config{Capacity: 1, LeaseTime: -time.Second}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewWithConfig(tt.config)
			testutil.AssertError(t, err)
			testutil.AssertEqual(t, rverrors.IsValidationError(err), true)
		})
	}
}

func TestMetricsSemaphore(t *testing.T) {
	ctx, cancel := testutil.WithTimeout(t)
	defer cancel()

	sem, err := NewWithMetrics(2, "test_semaphore")
	testutil.AssertNoError(t, err)

	ms, ok := sem.(*MetricsSemaphore)
	testutil.AssertEqual(t, ok, true)
	testutil.AssertEqual(t, ms.MetricsEnabled(), true)

	p, err := sem.Acquire(ctx)
	testutil.AssertNoError(t, err)
	testutil.AssertEqual(t, sem.InUse(), 1)

	sem.Release(p)
	sem.Release(p)
	testutil.AssertEqual(t, sem.InUse(), 0)
}
