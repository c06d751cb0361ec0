package rxcache

import (
	"context"
	"sync/atomic"
)

// MaybeProducer produces zero or one value. Returning ok=false with a nil
// error resolves the production as empty.
type MaybeProducer[T any] func(ctx context.Context) (T, bool, error)

// Maybe is the read-only, zero-or-one-value view of a cached production.
// Subscribers resolve to the first value if any, an explicit empty
// completion otherwise, or the production's error.
type Maybe[T any] struct {
	s *sink[T]
}

// MaybeHandlers holds the subscription callbacks for a Maybe.
// Nil callbacks are skipped.
type MaybeHandlers[T any] struct {
	OnSuccess func(T)
	OnEmpty   func()
	OnError   func(error)
}

// Subscribe attaches the handlers and returns a subscription handle.
// Exactly one of the callbacks fires, once the production resolves.
func (v *Maybe[T]) Subscribe(h MaybeHandlers[T]) *Subscription {
	// resolved is touched only by this subscription's delivery goroutine,
	// which dispatches events sequentially.
	var resolved bool
	return v.s.subscribe(handlers[T]{
		onNext: func(val T) {
			resolved = true
			if h.OnSuccess != nil {
				h.OnSuccess(val)
			}
		},
		onError: h.OnError,
		onComplete: func() {
			if !resolved && h.OnEmpty != nil {
				h.OnEmpty()
			}
		},
	})
}

// Wait blocks until the production resolves or ctx is done. ok reports
// whether a value was produced. If the production was torn down before it
// resolved, Wait blocks until ctx is done.
func (v *Maybe[T]) Wait(ctx context.Context) (val T, ok bool, err error) {
	type outcome struct {
		val T
		ok  bool
		err error
	}
	ch := make(chan outcome, 1)

	sub := v.Subscribe(MaybeHandlers[T]{
		OnSuccess: func(val T) { ch <- outcome{val: val, ok: true} },
		OnEmpty:   func() { ch <- outcome{} },
		OnError:   func(err error) { ch <- outcome{err: err} },
	})
	defer sub.Unsubscribe()

	select {
	case <-ctx.Done():
		var zero T
		return zero, false, ctx.Err()
	case o := <-ch:
		return o.val, o.ok, o.err
	}
}

// MaybeCache lazily binds a MaybeProducer to a Scope. Create one with
// NewMaybe, MaybeOf, or MaybeEmpty.
type MaybeCache[T any] struct {
	core *core[T]
	view atomic.Pointer[Maybe[T]]
}

// NewMaybe returns a dormant zero-or-one-value cache. The producer is not
// invoked until the first GetOrCreate call.
func NewMaybe[T any](scope Scope, producer MaybeProducer[T], opts ...Option) *MaybeCache[T] {
	return &MaybeCache[T]{
		core: newCore(scope, "maybe", runMaybe(producer), opts...),
	}
}

// MaybeOf wraps an already-available value so it is lazily bound to a scope
// through the same machinery as NewMaybe.
func MaybeOf[T any](scope Scope, value T, opts ...Option) *MaybeCache[T] {
	return NewMaybe(scope, func(context.Context) (T, bool, error) {
		return value, true, nil
	}, opts...)
}

// MaybeEmpty returns a cache that lazily resolves to empty.
func MaybeEmpty[T any](scope Scope, opts ...Option) *MaybeCache[T] {
	return NewMaybe(scope, func(context.Context) (T, bool, error) {
		var zero T
		return zero, false, nil
	}, opts...)
}

// GetOrCreate starts production on first call and returns the shared view.
// Returns ErrScopeTerminated if the scope was already dead at first access.
func (c *MaybeCache[T]) GetOrCreate() (*Maybe[T], error) {
	s, err := c.core.materialize()
	if err != nil {
		return nil, err
	}
	if v := c.view.Load(); v != nil {
		return v, nil
	}
	c.view.CompareAndSwap(nil, &Maybe[T]{s: s})
	return c.view.Load(), nil
}

// State reports the cache's current lifecycle epoch.
func (c *MaybeCache[T]) State() State {
	return c.core.state()
}

func runMaybe[T any](p MaybeProducer[T]) runFunc[T] {
	return func(ctx context.Context, s *sink[T]) {
		v, ok, err := p(ctx)
		if err != nil {
			s.emitError(err)
			return
		}
		if ok {
			s.emit(v)
		}
		s.emitComplete()
	}
}
