package rxcache

import (
	"context"
	"sync/atomic"
)

// CompletableProducer produces a completion signal or an error, no value.
type CompletableProducer func(ctx context.Context) error

// Completable is the read-only, no-value view of a cached production.
// Subscribers resolve to a completion or the production's error; late
// subscribers replay the terminal state.
type Completable struct {
	s *sink[struct{}]
}

// CompletableHandlers holds the subscription callbacks for a Completable.
// Nil callbacks are skipped.
type CompletableHandlers struct {
	OnComplete func()
	OnError    func(error)
}

// Subscribe attaches the handlers and returns a subscription handle.
// Exactly one of the callbacks fires, once the production resolves.
func (v *Completable) Subscribe(h CompletableHandlers) *Subscription {
	return v.s.subscribe(handlers[struct{}]{
		onError:    h.OnError,
		onComplete: h.OnComplete,
	})
}

// Wait blocks until the production resolves or ctx is done. If the
// production was torn down before it resolved, Wait blocks until ctx is
// done.
func (v *Completable) Wait(ctx context.Context) error {
	ch := make(chan error, 1)

	sub := v.Subscribe(CompletableHandlers{
		OnComplete: func() { ch <- nil },
		OnError:    func(err error) { ch <- err },
	})
	defer sub.Unsubscribe()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-ch:
		return err
	}
}

// CompletableCache lazily binds a CompletableProducer to a Scope. Create
// one with NewCompletable or Completed.
type CompletableCache struct {
	core *core[struct{}]
	view atomic.Pointer[Completable]
}

// NewCompletable returns a dormant no-value cache. The producer is not
// invoked until the first GetOrCreate call.
func NewCompletable(scope Scope, producer CompletableProducer, opts ...Option) *CompletableCache {
	return &CompletableCache{
		core: newCore(scope, "completable", runCompletable(producer), opts...),
	}
}

// Completed returns a cache that lazily resolves to completion.
func Completed(scope Scope, opts ...Option) *CompletableCache {
	return NewCompletable(scope, func(context.Context) error {
		return nil
	}, opts...)
}

// GetOrCreate starts production on first call and returns the shared view.
// Returns ErrScopeTerminated if the scope was already dead at first access.
func (c *CompletableCache) GetOrCreate() (*Completable, error) {
	s, err := c.core.materialize()
	if err != nil {
		return nil, err
	}
	if v := c.view.Load(); v != nil {
		return v, nil
	}
	c.view.CompareAndSwap(nil, &Completable{s: s})
	return c.view.Load(), nil
}

// State reports the cache's current lifecycle epoch.
func (c *CompletableCache) State() State {
	return c.core.state()
}

func runCompletable(p CompletableProducer) runFunc[struct{}] {
	return func(ctx context.Context, s *sink[struct{}]) {
		if err := p(ctx); err != nil {
			s.emitError(err)
			return
		}
		s.emitComplete()
	}
}
