package rxcache

import "sync/atomic"

// Disposable is a one-shot cancellation handle for a live production.
// Dispose is idempotent; disposing twice is never an error.
type Disposable interface {
	Dispose()
	IsDisposed() bool
}

type disposable struct {
	disposed atomic.Bool
	fn       func()
}

func newDisposable(fn func()) *disposable {
	return &disposable{fn: fn}
}

func (d *disposable) Dispose() {
	if d.disposed.CompareAndSwap(false, true) {
		d.fn()
		d.fn = nil
	}
}

func (d *disposable) IsDisposed() bool {
	return d.disposed.Load()
}
