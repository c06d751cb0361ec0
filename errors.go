package rxcache

import (
	"errors"
	"fmt"
	"runtime"
)

// ErrScopeTerminated is returned by GetOrCreate when first access happens
// after the cache's scope has already terminated. The error is sticky:
// every subsequent call on the same cache returns it as well.
var ErrScopeTerminated = errors.New("rxcache: scope already terminated")

// PanicError wraps a panic recovered from a producer together with the
// goroutine stack trace captured at the point of the panic. It is delivered
// to subscribers through the normal error path, so a panicking producer
// never crashes the process.
type PanicError struct {
	// Value is the original value passed to panic().
	Value any

	// Stack is the goroutine stack trace at the point of panic.
	Stack string
}

// Error returns a human-readable representation of the panic,
// including the value and the full stack trace.
func (e *PanicError) Error() string {
	return fmt.Sprintf("rxcache: producer panic: %v\n\n%s", e.Value, e.Stack)
}

func newPanicError(v any) *PanicError {
	// 8 KiB is enough for most stack traces. runtime.Stack truncates
	// gracefully if the buffer is too small.
	buf := make([]byte, 8192)
	n := runtime.Stack(buf, false)
	return &PanicError{
		Value: v,
		Stack: string(buf[:n]),
	}
}
