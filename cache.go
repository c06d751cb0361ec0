package rxcache

import (
	"context"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// State is a snapshot of a cache's lifecycle epoch.
type State int32

const (
	// Dormant means first access has not happened yet.
	Dormant State = iota
	// Active means production has started and has not been torn down.
	Active
	// Disposed means the scope terminated: either production was torn
	// down, or first access was rejected because the scope was already
	// dead.
	Disposed
)

func (s State) String() string {
	switch s {
	case Dormant:
		return "dormant"
	case Active:
		return "active"
	case Disposed:
		return "disposed"
	default:
		return "unknown"
	}
}

// runFunc bridges an already-claimed producer into a sink. Each shape file
// supplies its own variant with that shape's completion and error fan-out
// semantics.
type runFunc[T any] func(ctx context.Context, s *sink[T])

// materialized is the immutable outcome of the one-time initialization.
// Exactly one of sink/handle or err is set.
type materialized[T any] struct {
	sink   *sink[T]
	handle Disposable
	err    error
}

// core owns the one-time initialization protocol, the scope binding, and
// the teardown wiring shared by all four cache shapes.
//
// The fast path is a single atomic load; the dormant-to-active transition is
// guarded by singleflight so exactly one caller initializes while concurrent
// first callers block on the in-flight initialization.
type core[T any] struct {
	cfg   config
	shape string

	res    atomic.Pointer[materialized[T]]
	flight singleflight.Group

	// scope and run are consumed by the first initialization attempt and
	// released immediately, so the cache retains neither the owning scope
	// nor the producer closure.
	mu    sync.Mutex
	scope Scope
	run   runFunc[T]
}

func newCore[T any](scope Scope, shape string, run runFunc[T], opts ...Option) *core[T] {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &core[T]{
		cfg:   cfg,
		shape: shape,
		scope: scope,
		run:   run,
	}
}

// materialize returns the shared sink, initializing on first access.
//
// It never blocks on the producer's work: the slow path completes as soon as
// production has started. Returns ErrScopeTerminated (sticky) if the scope
// was already dead at first access.
func (c *core[T]) materialize() (*sink[T], error) {
	if m := c.res.Load(); m != nil {
		c.emitEvent(EventReuse, m.err)
		return m.sink, m.err
	}

	v, _, _ := c.flight.Do("init", func() (any, error) {
		// Double-check: a concurrent flight may have stored the result
		// after our fast-path load missed.
		if m := c.res.Load(); m != nil {
			return m, nil
		}
		return c.initialize(), nil
	})

	m := v.(*materialized[T])
	return m.sink, m.err
}

func (c *core[T]) initialize() *materialized[T] {
	c.mu.Lock()
	scope, run := c.scope, c.run
	c.scope, c.run = nil, nil
	c.mu.Unlock()

	if scope.Terminated() {
		m := &materialized[T]{err: ErrScopeTerminated}
		c.res.Store(m)
		c.cfg.logger.Warn("initialization rejected",
			zap.String("shape", c.shape),
			zap.Error(ErrScopeTerminated))
		c.emitEvent(EventReject, ErrScopeTerminated)
		return m
	}

	snk := newSink[T](c.cfg.logger)
	ctx, cancel := context.WithCancel(context.Background())
	handle := newDisposable(func() {
		cancel()
		snk.dispose()
		c.cfg.logger.Debug("production disposed", zap.String("shape", c.shape))
		c.emitEvent(EventDispose, nil)
	})

	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				pe := newPanicError(rec)
				c.cfg.logger.Error("producer panicked",
					zap.String("shape", c.shape),
					zap.Any("panic", rec),
					zap.String("stack", pe.Stack))
				snk.emitError(pe)
			}
		}()
		run(ctx, snk)
	}()

	// If the scope terminated between the liveness check above and this
	// registration, OnTerminate invokes the disposal synchronously, so a
	// started production can never outlive its scope unobserved.
	scope.OnTerminate(handle.Dispose)

	m := &materialized[T]{sink: snk, handle: handle}
	c.res.Store(m)
	c.cfg.logger.Debug("production started", zap.String("shape", c.shape))
	c.emitEvent(EventInit, nil)
	return m
}

func (c *core[T]) state() State {
	m := c.res.Load()
	switch {
	case m == nil:
		return Dormant
	case m.err != nil:
		return Disposed
	case m.handle.IsDisposed():
		return Disposed
	default:
		return Active
	}
}

func (c *core[T]) emitEvent(e Event, err error) {
	if c.cfg.observer == nil {
		return
	}
	c.cfg.observer.On(EventData{Event: e, Shape: c.shape, Err: err})
}
