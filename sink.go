package rxcache

import (
	"context"
	"runtime/debug"
	"sync"

	"github.com/smallnest/chanx"
	"go.uber.org/zap"
)

type eventKind uint8

const (
	kindNext eventKind = iota
	kindError
	kindComplete
)

type event[T any] struct {
	kind eventKind
	val  T
	err  error
}

// handlers is the internal callback set a view translates its public
// handler struct into before subscribing.
type handlers[T any] struct {
	onNext     func(T)
	onError    func(error)
	onComplete func()
}

// subscriber owns an unbounded mailbox so emission never blocks on a slow
// consumer and per-subscriber ordering is preserved. A dedicated delivery
// goroutine drains the mailbox into the callbacks.
type subscriber[T any] struct {
	id   uint64
	mail *chanx.UnboundedChan[event[T]]
}

// sink is the multicast hub behind every cache: one writer (the production
// bridge), many subscribers, with latest-value replay for late arrivals.
// The shape views wrap it read-only; only the production side emits.
type sink[T any] struct {
	log *zap.Logger

	mu        sync.Mutex
	subs      map[uint64]*subscriber[T]
	nextID    uint64
	latest    T
	hasLatest bool
	term      *event[T]
	disposed  bool
}

func newSink[T any](log *zap.Logger) *sink[T] {
	return &sink[T]{
		log:  log,
		subs: make(map[uint64]*subscriber[T]),
	}
}

// subscribe attaches a consumer. The latest value (if any) and the terminal
// event (if the sink already terminated) are replayed into the mailbox
// before any live event can interleave, so a late subscriber always sees
// replay first, in emission order.
func (s *sink[T]) subscribe(h handlers[T]) *Subscription {
	s.mu.Lock()
	id := s.nextID
	s.nextID++

	sub := &subscriber[T]{
		id:   id,
		mail: chanx.NewUnboundedChan[event[T]](context.Background(), 4),
	}

	if s.hasLatest {
		sub.mail.In <- event[T]{kind: kindNext, val: s.latest}
	}
	switch {
	case s.term != nil:
		sub.mail.In <- *s.term
		close(sub.mail.In)
	case s.disposed:
		close(sub.mail.In)
	default:
		s.subs[id] = sub
	}
	s.mu.Unlock()

	go s.deliver(sub, h)

	return &Subscription{cancel: func() { s.remove(id) }}
}

func (s *sink[T]) deliver(sub *subscriber[T], h handlers[T]) {
	defer func() {
		if rec := recover(); rec != nil {
			s.log.Error("subscriber callback panicked",
				zap.Any("panic", rec),
				zap.String("stack", string(debug.Stack())))
			s.remove(sub.id)
		}
	}()

	for ev := range sub.mail.Out {
		switch ev.kind {
		case kindNext:
			if h.onNext != nil {
				h.onNext(ev.val)
			}
		case kindError:
			if h.onError != nil {
				h.onError(ev.err)
			}
		case kindComplete:
			if h.onComplete != nil {
				h.onComplete()
			}
		}
		if ev.kind != kindNext {
			s.remove(sub.id)
			return
		}
	}
}

func (s *sink[T]) remove(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub, ok := s.subs[id]
	if !ok {
		return
	}
	delete(s.subs, id)
	close(sub.mail.In)
}

// emit delivers a value to every attached subscriber and remembers it for
// replay. No-op once the sink terminated or was disposed.
func (s *sink[T]) emit(v T) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.disposed || s.term != nil {
		return
	}
	s.latest = v
	s.hasLatest = true
	for _, sub := range s.subs {
		sub.mail.In <- event[T]{kind: kindNext, val: v}
	}
}

// emitError terminates the sink with err. The error is replayed to late
// subscribers.
func (s *sink[T]) emitError(err error) {
	s.terminate(event[T]{kind: kindError, err: err})
}

// emitComplete terminates the sink normally.
func (s *sink[T]) emitComplete() {
	s.terminate(event[T]{kind: kindComplete})
}

func (s *sink[T]) terminate(ev event[T]) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.disposed || s.term != nil {
		return
	}
	s.term = &ev
	for _, sub := range s.subs {
		sub.mail.In <- ev
		close(sub.mail.In)
	}
	s.subs = make(map[uint64]*subscriber[T])
}

// dispose stops the source-to-sink bridge. Idempotent. It does not force a
// terminal event on subscribers; whatever terminal state the producer
// reached before disposal keeps being replayed to late subscribers.
func (s *sink[T]) dispose() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.disposed {
		return
	}
	s.disposed = true
	for _, sub := range s.subs {
		close(sub.mail.In)
	}
	s.subs = make(map[uint64]*subscriber[T])
}

// Subscription detaches a consumer from its view. Unsubscribe is idempotent
// and safe to call concurrently with emissions and disposal.
type Subscription struct {
	once   sync.Once
	cancel func()
}

// Unsubscribe detaches the consumer. Events already queued for delivery may
// still be dispatched.
func (s *Subscription) Unsubscribe() {
	s.once.Do(s.cancel)
}
