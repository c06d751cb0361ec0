// Package rxcache provides lazily-materialized, scope-bound, multicast
// value caches.
//
// A cache wraps an expensive or side-effecting producer and defers it until
// the first call to GetOrCreate. The producer runs exactly once no matter how
// many goroutines race on first access, its output fans out to every current
// and future subscriber, and production is torn down automatically when an
// external lifecycle scope terminates.
//
// Four cache shapes cover the usual stream multiplicities: [Stream] (many
// values, late subscribers replay the latest item), [Single] (exactly one
// value or an error), [Maybe] (zero or one value), and [Completable]
// (completion or error, no value). Each shape has a constructor taking a
// [Scope] and a producer:
//
//	scope := rxcache.FromContext(ctx)
//	users := rxcache.NewSingle(scope, func(ctx context.Context) ([]User, error) {
//	    return loadUsers(ctx) // runs once, off the caller's goroutine
//	})
//
//	view, err := users.GetOrCreate()
//	if err != nil {
//	    // scope already terminated before first access
//	}
//	list, err := view.Wait(ctx)
//
// Concurrent first callers block until production has started (not until it
// has finished); later callers take a lock-free fast path to the shared view.
// When the scope terminates, the producer's context is cancelled and no
// further values reach any subscriber. Subscribing after a terminal result
// replays that result; the producer is never re-run.
package rxcache
