package rxcache

import (
	"context"
	"sync/atomic"
)

// StreamProducer produces a multi-value stream by calling next for each
// item. Returning nil completes the stream; returning an error terminates
// it with that error. The producer runs on its own goroutine and should
// honor ctx, which is cancelled when the cache's scope terminates.
type StreamProducer[T any] func(ctx context.Context, next func(T)) error

// Stream is the read-only, multi-value view of a cached production.
//
// Late subscribers replay at most the latest item before receiving live
// events. This is a deliberate bounded-replay policy (buffer size one), not
// a full history log.
type Stream[T any] struct {
	s *sink[T]
}

// StreamHandlers holds the subscription callbacks for a Stream.
// Nil callbacks are skipped.
type StreamHandlers[T any] struct {
	OnNext     func(T)
	OnError    func(error)
	OnComplete func()
}

// Subscribe attaches the handlers and returns a subscription handle.
// Callbacks for one subscription run sequentially, in emission order, on a
// dedicated goroutine.
func (v *Stream[T]) Subscribe(h StreamHandlers[T]) *Subscription {
	return v.s.subscribe(handlers[T]{
		onNext:     h.OnNext,
		onError:    h.OnError,
		onComplete: h.OnComplete,
	})
}

// StreamCache lazily binds a StreamProducer to a Scope. Create one with
// NewStream or StreamOf.
type StreamCache[T any] struct {
	core *core[T]
	view atomic.Pointer[Stream[T]]
}

// NewStream returns a dormant multi-value cache. The producer is not
// invoked until the first GetOrCreate call.
func NewStream[T any](scope Scope, producer StreamProducer[T], opts ...Option) *StreamCache[T] {
	return &StreamCache[T]{
		core: newCore(scope, "stream", runStream(producer), opts...),
	}
}

// StreamOf wraps already-available values so they are lazily bound to a
// scope through the same machinery as NewStream.
func StreamOf[T any](scope Scope, values []T, opts ...Option) *StreamCache[T] {
	return NewStream(scope, func(ctx context.Context, next func(T)) error {
		for _, v := range values {
			if err := ctx.Err(); err != nil {
				return err
			}
			next(v)
		}
		return nil
	}, opts...)
}

// GetOrCreate starts production on first call and returns the shared view.
// Concurrent first callers block until production has started; later calls
// are lock-free. Returns ErrScopeTerminated if the scope was already dead
// at first access.
func (c *StreamCache[T]) GetOrCreate() (*Stream[T], error) {
	s, err := c.core.materialize()
	if err != nil {
		return nil, err
	}
	if v := c.view.Load(); v != nil {
		return v, nil
	}
	c.view.CompareAndSwap(nil, &Stream[T]{s: s})
	return c.view.Load(), nil
}

// State reports the cache's current lifecycle epoch.
func (c *StreamCache[T]) State() State {
	return c.core.state()
}

func runStream[T any](p StreamProducer[T]) runFunc[T] {
	return func(ctx context.Context, s *sink[T]) {
		if err := p(ctx, func(v T) { s.emit(v) }); err != nil {
			s.emitError(err)
			return
		}
		s.emitComplete()
	}
}
