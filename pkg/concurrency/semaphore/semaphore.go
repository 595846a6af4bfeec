package semaphore

import (
	"context"
	"sync"
	"time"

	"github.com/River-Kt/river-sub000/pkg/common/validation"
)

// Permit is an opaque handle for one unit of allowed concurrency.
// Permits are issued by Acquire/TryAcquire and returned via Release.
type Permit struct {
	id uint64
}

// Semaphore is a bounded pool of permits. Unlike a plain counting
// semaphore, every acquisition is identified by a Permit, which makes
// double-release a harmless no-op and allows permits to carry an
// auto-expiring lease.
type Semaphore interface {
	// Acquire blocks until a permit is available or the context is done.
	Acquire(ctx context.Context) (Permit, error)

	// TryAcquire attempts to take a permit without blocking.
	// It returns false if no permit is available.
	TryAcquire() (Permit, bool)

	// Release returns a permit to the pool. Releasing a permit that is
	// not currently held (already released, or auto-released by lease
	// expiry) is a no-op.
	Release(p Permit)

	// ReleaseAll returns every held permit to the pool.
	ReleaseAll()

	// Available returns the number of permits not currently held.
	Available() int

	// Capacity returns the total number of permits.
	Capacity() int

	// InUse returns the number of permits currently held.
	InUse() int
}

// Config holds configuration options for creating a Semaphore.
type Config struct {
	// Capacity is the total number of permits. Must be positive.
	Capacity int

	// LeaseTime, when positive, auto-releases each permit that is still
	// held after the lease elapses. Zero disables leasing.
	LeaseTime time.Duration

	// OnLeaseExpired is invoked (outside the semaphore lock) whenever a
	// permit is auto-released by lease expiry. Optional.
	OnLeaseExpired func(Permit)
}

// permitSemaphore implements Semaphore with an identified-permit table.
type permitSemaphore struct {
	mu             sync.Mutex
	capacity       int
	leaseTime      time.Duration
	onLeaseExpired func(Permit)

	nextID  uint64
	held    map[uint64]*time.Timer // permit id -> lease timer (nil when unleased)
	waiters []waiter
}

// waiter represents a goroutine blocked in Acquire.
type waiter struct {
	ready  chan Permit
	cancel <-chan struct{}
}

// New creates a Semaphore with the given capacity and no lease.
func New(capacity int) (Semaphore, error) {
	return NewWithConfig(Config{Capacity: capacity})
}

// NewWithConfig creates a Semaphore from the given configuration.
func NewWithConfig(config Config) (Semaphore, error) {
	if err := validation.ValidatePositive("semaphore", "capacity", config.Capacity); err != nil {
		return nil, err
	}
	if err := validation.ValidateNonNegativeDuration("semaphore", "leaseTime", config.LeaseTime); err != nil {
		return nil, err
	}

	return &permitSemaphore{
		capacity:       config.Capacity,
		leaseTime:      config.LeaseTime,
		onLeaseExpired: config.OnLeaseExpired,
		held:           make(map[uint64]*time.Timer),
	}, nil
}

// Acquire blocks until a permit is available or the context is done.
func (s *permitSemaphore) Acquire(ctx context.Context) (Permit, error) {
	select {
	case <-ctx.Done():
		return Permit{}, ctx.Err()
	default:
	}

	s.mu.Lock()

	// Fast path: capacity available right now.
	if len(s.held) < s.capacity {
		p := s.grantLocked()
		s.mu.Unlock()
		return p, nil
	}

	// Slow path: join the waiter queue.
	ready := make(chan Permit, 1)
	s.waiters = append(s.waiters, waiter{ready: ready, cancel: ctx.Done()})
	s.mu.Unlock()

	select {
	case p := <-ready:
		return p, nil
	case <-ctx.Done():
		// A concurrent release may have granted us a permit between the
		// cancellation and our removal from the queue; hand it back.
		if !s.removeWaiter(ready) {
			select {
			case p := <-ready:
				s.Release(p)
			default:
			}
		}
		return Permit{}, ctx.Err()
	}
}

// TryAcquire attempts to take a permit without blocking.
func (s *permitSemaphore) TryAcquire() (Permit, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.held) >= s.capacity {
		return Permit{}, false
	}
	return s.grantLocked(), true
}

// Release returns a permit to the pool. No-op for permits not held.
func (s *permitSemaphore) Release(p Permit) {
	s.mu.Lock()

	timer, ok := s.held[p.id]
	if !ok {
		s.mu.Unlock()
		return
	}
	if timer != nil {
		timer.Stop()
	}
	delete(s.held, p.id)
	s.notifyWaitersLocked()
	s.mu.Unlock()
}

// ReleaseAll returns every held permit to the pool.
func (s *permitSemaphore) ReleaseAll() {
	s.mu.Lock()

	for id, timer := range s.held {
		if timer != nil {
			timer.Stop()
		}
		delete(s.held, id)
	}
	s.notifyWaitersLocked()
	s.mu.Unlock()
}

// Available returns the number of permits not currently held.
func (s *permitSemaphore) Available() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.capacity - len(s.held)
}

// Capacity returns the total number of permits.
func (s *permitSemaphore) Capacity() int {
	return s.capacity
}

// InUse returns the number of permits currently held.
func (s *permitSemaphore) InUse() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.held)
}

// grantLocked issues a fresh permit and schedules its lease expiry.
// Must be called with s.mu held.
func (s *permitSemaphore) grantLocked() Permit {
	s.nextID++
	p := Permit{id: s.nextID}

	var timer *time.Timer
	if s.leaseTime > 0 {
		timer = time.AfterFunc(s.leaseTime, func() {
			s.expire(p)
		})
	}
	s.held[p.id] = timer

	return p
}

// expire auto-releases a leased permit. If the permit was released
// first, the expiry is a no-op.
func (s *permitSemaphore) expire(p Permit) {
	s.mu.Lock()
	if _, ok := s.held[p.id]; !ok {
		s.mu.Unlock()
		return
	}
	delete(s.held, p.id)
	s.notifyWaitersLocked()
	callback := s.onLeaseExpired
	s.mu.Unlock()

	if callback != nil {
		callback(p)
	}
}

// notifyWaitersLocked grants permits to queued waiters while capacity
// allows, skipping waiters whose context is already cancelled.
// Must be called with s.mu held.
func (s *permitSemaphore) notifyWaitersLocked() {
	var remaining []waiter

	for i, w := range s.waiters {
		select {
		case <-w.cancel:
			continue
		default:
		}

		if len(s.held) < s.capacity {
			w.ready <- s.grantLocked()
		} else {
			remaining = append(remaining, s.waiters[i:]...)
			break
		}
	}

	s.waiters = remaining
}

// removeWaiter removes a waiter from the queue, reporting whether it
// was still queued.
func (s *permitSemaphore) removeWaiter(ready chan Permit) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, w := range s.waiters {
		if w.ready == ready {
			s.waiters = append(s.waiters[:i], s.waiters[i+1:]...)
			return true
		}
	}
	return false
}
