package rxcache

import (
	"context"
	"sync"
)

// Scope is the external lifecycle signal a cache binds to. Termination is
// monotonic: once Terminated reports true it never reports false again.
//
// Implementations must honor the OnTerminate contract exactly:
// the callback fires once, at or immediately after termination, and
// registering on an already-terminated scope invokes the callback
// synchronously before OnTerminate returns. The cache relies on this to
// close the race between its liveness check and its teardown registration.
type Scope interface {
	// Terminated reports whether the scope has already terminated.
	Terminated() bool

	// OnTerminate registers fn to run exactly once when the scope
	// terminates. If the scope is already terminated, fn runs
	// synchronously before OnTerminate returns.
	OnTerminate(fn func())
}

// contextScope adapts a context.Context to the Scope contract.
type contextScope struct {
	ctx context.Context
}

// FromContext returns a Scope that terminates when ctx is done.
//
// Callbacks registered while ctx is still live run on their own goroutine
// once ctx is done; callbacks registered after ctx is done run synchronously.
func FromContext(ctx context.Context) Scope {
	return &contextScope{ctx: ctx}
}

func (s *contextScope) Terminated() bool {
	return s.ctx.Err() != nil
}

func (s *contextScope) OnTerminate(fn func()) {
	select {
	case <-s.ctx.Done():
		fn()
		return
	default:
	}
	go func() {
		<-s.ctx.Done()
		fn()
	}()
}

// Lifetime is a manual Scope for hosts that have no context to hand over.
// The zero value is not usable; create one with NewLifetime.
//
// Terminate is idempotent and may be called from any goroutine.
type Lifetime struct {
	mu         sync.Mutex
	terminated bool
	callbacks  []func()
}

// NewLifetime returns a live Lifetime.
func NewLifetime() *Lifetime {
	return &Lifetime{}
}

// Terminate fires the termination signal. The first call runs all registered
// callbacks, in registration order, on the calling goroutine; subsequent
// calls are no-ops.
func (l *Lifetime) Terminate() {
	l.mu.Lock()
	if l.terminated {
		l.mu.Unlock()
		return
	}
	l.terminated = true
	cbs := l.callbacks
	l.callbacks = nil
	l.mu.Unlock()

	for _, fn := range cbs {
		fn()
	}
}

// Terminated reports whether Terminate has been called.
func (l *Lifetime) Terminated() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.terminated
}

// OnTerminate registers fn per the Scope contract. If the lifetime is
// already terminated, fn runs synchronously.
func (l *Lifetime) OnTerminate(fn func()) {
	l.mu.Lock()
	if l.terminated {
		l.mu.Unlock()
		fn()
		return
	}
	l.callbacks = append(l.callbacks, fn)
	l.mu.Unlock()
}
