package rxcache

// Observer receives cache lifecycle events. Implementations must be safe
// for concurrent use when the cache is accessed from multiple goroutines.
type Observer interface {
	On(eventData EventData)
}

// Event represents a cache lifecycle event type.
type Event int

const (
	// EventInit is emitted when first access starts production.
	EventInit Event = iota
	// EventReuse is emitted when a call finds the cache already
	// materialized and takes the fast path.
	EventReuse
	// EventReject is emitted when first access is refused because the
	// scope had already terminated.
	EventReject
	// EventDispose is emitted when scope termination tears the
	// production down.
	EventDispose
)

// EventData carries the details of a cache event.
type EventData struct {
	Event Event
	Shape string
	Err   error
}
