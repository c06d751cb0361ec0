package rxcache

import (
	"context"
	"sync/atomic"
)

// SingleProducer produces exactly one value or an error.
type SingleProducer[T any] func(ctx context.Context) (T, error)

// Single is the read-only, single-value view of a cached production.
// Every subscriber, including late ones, receives the same resolved value
// or the same error.
type Single[T any] struct {
	s *sink[T]
}

// SingleHandlers holds the subscription callbacks for a Single.
// Nil callbacks are skipped.
type SingleHandlers[T any] struct {
	OnSuccess func(T)
	OnError   func(error)
}

// Subscribe attaches the handlers and returns a subscription handle.
// Exactly one of the callbacks fires, once the production resolves.
func (v *Single[T]) Subscribe(h SingleHandlers[T]) *Subscription {
	return v.s.subscribe(handlers[T]{
		onNext:  h.OnSuccess,
		onError: h.OnError,
	})
}

// Wait blocks until the production resolves or ctx is done, and returns the
// resolved value or error. If the production was torn down before it
// resolved, Wait blocks until ctx is done.
func (v *Single[T]) Wait(ctx context.Context) (T, error) {
	type outcome struct {
		val T
		err error
	}
	ch := make(chan outcome, 1)

	sub := v.Subscribe(SingleHandlers[T]{
		OnSuccess: func(val T) { ch <- outcome{val: val} },
		OnError:   func(err error) { ch <- outcome{err: err} },
	})
	defer sub.Unsubscribe()

	select {
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	case o := <-ch:
		return o.val, o.err
	}
}

// SingleCache lazily binds a SingleProducer to a Scope. Create one with
// NewSingle or SingleOf.
type SingleCache[T any] struct {
	core *core[T]
	view atomic.Pointer[Single[T]]
}

// NewSingle returns a dormant single-value cache. The producer is not
// invoked until the first GetOrCreate call.
func NewSingle[T any](scope Scope, producer SingleProducer[T], opts ...Option) *SingleCache[T] {
	return &SingleCache[T]{
		core: newCore(scope, "single", runSingle(producer), opts...),
	}
}

// SingleOf wraps an already-available value so it is lazily bound to a
// scope through the same machinery as NewSingle.
func SingleOf[T any](scope Scope, value T, opts ...Option) *SingleCache[T] {
	return NewSingle(scope, func(context.Context) (T, error) {
		return value, nil
	}, opts...)
}

// GetOrCreate starts production on first call and returns the shared view.
// Returns ErrScopeTerminated if the scope was already dead at first access.
func (c *SingleCache[T]) GetOrCreate() (*Single[T], error) {
	s, err := c.core.materialize()
	if err != nil {
		return nil, err
	}
	if v := c.view.Load(); v != nil {
		return v, nil
	}
	c.view.CompareAndSwap(nil, &Single[T]{s: s})
	return c.view.Load(), nil
}

// State reports the cache's current lifecycle epoch.
func (c *SingleCache[T]) State() State {
	return c.core.state()
}

func runSingle[T any](p SingleProducer[T]) runFunc[T] {
	return func(ctx context.Context, s *sink[T]) {
		v, err := p(ctx)
		if err != nil {
			s.emitError(err)
			return
		}
		s.emit(v)
		s.emitComplete()
	}
}
