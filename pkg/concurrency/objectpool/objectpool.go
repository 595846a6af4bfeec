package objectpool

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	rverrors "github.com/River-Kt/river-sub000/pkg/common/errors"
	"github.com/River-Kt/river-sub000/pkg/common/validation"
)

// ObjectHolder wraps one pooled instance together with its lifetime
// bookkeeping. Holders are handed out by Borrow and must be returned
// with Release exactly once.
type ObjectHolder[T any] struct {
	// Instance is the pooled object.
	Instance T

	createdAt   time.Time
	maxLifetime time.Duration
}

// Expired reports whether the holder has outlived its maximum
// lifetime. Holders from a pool without a lifetime never expire.
func (h *ObjectHolder[T]) Expired() bool {
	if h.maxLifetime <= 0 {
		return false
	}
	return time.Since(h.createdAt) >= h.maxLifetime
}

// Factory creates one pooled instance.
type Factory[T any] func(ctx context.Context) (T, error)

// Config configures a Pool.
type Config[T any] struct {
	// MaxSize is the maximum number of instances in circulation,
	// borrowed and idle combined. Must be > 0.
	MaxSize int
	// MaxLifetime is the per-instance maximum age. An instance past it
	// is disposed instead of being reused. Zero means instances never
	// expire.
	MaxLifetime time.Duration
	// Factory creates instances on demand. Required.
	Factory Factory[T]
	// OnClose disposes an instance leaving circulation. Optional.
	OnClose func(T) error
	// Logger records disposal failures. Defaults to a no-op logger.
	Logger *zap.Logger
}

// Pool is a bounded pool of expensive-to-create objects with an
// optional per-object maximum lifetime. All methods are safe for
// concurrent use.
type Pool[T any] struct {
	config Config[T]
	logger *zap.Logger

	mu      sync.Mutex
	idle    []*ObjectHolder[T]
	size    int
	waiters []chan struct{}
	closed  bool
}

// New creates a Pool from the config.
func New[T any](config Config[T]) (*Pool[T], error) {
	if err := validation.ValidatePositive("objectpool", "MaxSize", config.MaxSize); err != nil {
		return nil, err
	}
	if err := validation.ValidateNonNegativeDuration("objectpool", "MaxLifetime", config.MaxLifetime); err != nil {
		return nil, err
	}
	if config.Factory == nil {
		return nil, rverrors.NewValidationError("objectpool", "Factory", nil, "factory is required").
			WithHint("provide a Factory that creates pooled instances")
	}

	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Pool[T]{config: config, logger: logger}, nil
}

// Borrow returns an idle, non-expired holder if one exists, creates a
// new instance while the pool is below MaxSize, and otherwise blocks
// until a holder is released or ctx is done. Expired idle holders
// found on the way are disposed and replaced.
func (p *Pool[T]) Borrow(ctx context.Context) (*ObjectHolder[T], error) {
	for {
		h, wait, err := p.tryBorrowLocked(ctx, true)
		if err != nil {
			return nil, err
		}
		if h != nil {
			return h, nil
		}

		select {
		case <-wait:
		case <-ctx.Done():
			// A concurrent Release may have buffered our wakeup between
			// the waiter registration and this park; hand it on so the
			// next waiter is not starved.
			if !p.removeWaiter(wait) {
				select {
				case <-wait:
					p.mu.Lock()
					p.notifyLocked()
					p.mu.Unlock()
				default:
				}
			}
			return nil, ctx.Err()
		}
	}
}

// TryBorrow is the non-blocking Borrow. It returns ErrPoolExhausted
// when every holder is in use and the pool is at capacity.
func (p *Pool[T]) TryBorrow(ctx context.Context) (*ObjectHolder[T], error) {
	h, _, err := p.tryBorrowLocked(ctx, false)
	if err != nil {
		return nil, err
	}
	if h == nil {
		return nil, rverrors.ErrPoolExhausted
	}
	return h, nil
}

// tryBorrowLocked attempts one borrow. It returns a holder, or (when
// registerWaiter is set and the pool is exhausted) a signal channel to
// wait on.
func (p *Pool[T]) tryBorrowLocked(ctx context.Context, registerWaiter bool) (*ObjectHolder[T], chan struct{}, error) {
	p.mu.Lock()

	if p.closed {
		p.mu.Unlock()
		return nil, nil, rverrors.ErrClosed
	}

	for len(p.idle) > 0 {
		h := p.idle[len(p.idle)-1]
		p.idle = p.idle[:len(p.idle)-1]
		if !h.Expired() {
			p.mu.Unlock()
			return h, nil, nil
		}
		p.size--
		p.mu.Unlock()
		p.dispose(h)
		p.mu.Lock()
		if p.closed {
			p.mu.Unlock()
			return nil, nil, rverrors.ErrClosed
		}
	}

	if p.size < p.config.MaxSize {
		p.size++
		p.mu.Unlock()

		instance, err := p.config.Factory(ctx)
		if err != nil {
			p.mu.Lock()
			p.size--
			p.notifyLocked()
			p.mu.Unlock()
			return nil, nil, rverrors.NewOperationError("objectpool", "borrow", err)
		}
		return &ObjectHolder[T]{
			Instance:    instance,
			createdAt:   time.Now(),
			maxLifetime: p.config.MaxLifetime,
		}, nil, nil
	}

	if !registerWaiter {
		p.mu.Unlock()
		return nil, nil, nil
	}

	wait := make(chan struct{}, 1)
	p.waiters = append(p.waiters, wait)
	p.mu.Unlock()
	return nil, wait, nil
}

// Release returns a holder to circulation. An expired holder is
// disposed instead, shrinking the pool until the next Borrow recreates
// it. Releasing into a closed pool disposes the holder.
func (p *Pool[T]) Release(h *ObjectHolder[T]) {
	if h == nil {
		return
	}

	p.mu.Lock()
	if p.closed || h.Expired() {
		p.size--
		p.notifyLocked()
		p.mu.Unlock()
		p.dispose(h)
		return
	}
	p.idle = append(p.idle, h)
	p.notifyLocked()
	p.mu.Unlock()
}

// With borrows a holder, runs body with its instance, and releases the
// holder on every exit path, including a panicking body.
func (p *Pool[T]) With(ctx context.Context, body func(T) error) error {
	h, err := p.Borrow(ctx)
	if err != nil {
		return err
	}
	defer p.Release(h)
	return body(h.Instance)
}

// Close shuts the pool down. Idle holders are disposed immediately;
// borrowed holders are disposed as they come back through Release.
// Blocked Borrow calls fail with ErrClosed. Disposal failures are
// logged and do not stop the teardown.
func (p *Pool[T]) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	idle := p.idle
	p.idle = nil
	p.size -= len(idle)
	waiters := p.waiters
	p.waiters = nil
	p.mu.Unlock()

	for _, wait := range waiters {
		select {
		case wait <- struct{}{}:
		default:
		}
	}
	for _, h := range idle {
		p.dispose(h)
	}
}

// Size returns the number of instances in circulation, borrowed and
// idle combined.
func (p *Pool[T]) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.size
}

// Idle returns the number of instances currently available for reuse.
func (p *Pool[T]) Idle() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.idle)
}

func (p *Pool[T]) dispose(h *ObjectHolder[T]) {
	if p.config.OnClose == nil {
		return
	}
	if err := p.config.OnClose(h.Instance); err != nil {
		p.logger.Warn("pooled instance close failed", zap.Error(err))
	}
}

// notifyLocked wakes one blocked Borrow, if any. Callers hold p.mu.
func (p *Pool[T]) notifyLocked() {
	if len(p.waiters) == 0 {
		return
	}
	wait := p.waiters[0]
	p.waiters = p.waiters[1:]
	select {
	case wait <- struct{}{}:
	default:
	}
}

// removeWaiter unregisters wait from the queue, reporting whether it
// was still queued.
func (p *Pool[T]) removeWaiter(wait chan struct{}) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, w := range p.waiters {
		if w == wait {
			p.waiters = append(p.waiters[:i], p.waiters[i+1:]...)
			return true
		}
	}
	return false
}
