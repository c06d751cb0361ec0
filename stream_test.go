package rxcache_test

import (
	"context"
	"errors"
	"testing"

	rxcache "github.com/shostko/rx-cache"
)

func TestStreamMulticast(t *testing.T) {
	emit := make(chan int)
	cache := rxcache.NewStream(rxcache.NewLifetime(), func(ctx context.Context, next func(int)) error {
		for v := range emit {
			next(v)
		}
		return nil
	})

	view, err := cache.GetOrCreate()
	if err != nil {
		t.Fatal(err)
	}

	const m = 5
	chans := make([]chan int, m)
	for i := 0; i < m; i++ {
		chans[i] = make(chan int, 16)
		ch := chans[i]
		view.Subscribe(rxcache.StreamHandlers[int]{
			OnNext: func(v int) { ch <- v },
		})
	}

	for _, v := range []int{10, 20, 30} {
		emit <- v
	}
	close(emit)

	for i := 0; i < m; i++ {
		for _, want := range []int{10, 20, 30} {
			if got := recv(t, chans[i]); got != want {
				t.Fatalf("subscriber %d: got %d, want %d", i, got, want)
			}
		}
	}
}

func TestStreamLateSubscriberReplaysLatestOnly(t *testing.T) {
	emit := make(chan int)
	cache := rxcache.NewStream(rxcache.NewLifetime(), func(ctx context.Context, next func(int)) error {
		for v := range emit {
			next(v)
		}
		return nil
	})

	view, err := cache.GetOrCreate()
	if err != nil {
		t.Fatal(err)
	}

	early := make(chan int, 16)
	view.Subscribe(rxcache.StreamHandlers[int]{
		OnNext: func(v int) { early <- v },
	})

	for _, v := range []int{1, 2, 3} {
		emit <- v
	}
	// Wait until the early subscriber has seen everything, so the latest
	// value is settled before the late subscriber attaches.
	for _, want := range []int{1, 2, 3} {
		if got := recv(t, early); got != want {
			t.Fatalf("early subscriber: got %d, want %d", got, want)
		}
	}

	late := make(chan int, 16)
	view.Subscribe(rxcache.StreamHandlers[int]{
		OnNext: func(v int) { late <- v },
	})

	// Bounded replay: exactly the latest item, not the full history.
	if got := recv(t, late); got != 3 {
		t.Fatalf("late subscriber: got %d, want 3", got)
	}
	expectSilence(t, late)
	close(emit)
}

func TestStreamOrderPreserved(t *testing.T) {
	const n = 200
	cache := rxcache.NewStream(rxcache.NewLifetime(), func(ctx context.Context, next func(int)) error {
		for i := 0; i < n; i++ {
			next(i)
		}
		return nil
	})

	view, err := cache.GetOrCreate()
	if err != nil {
		t.Fatal(err)
	}

	var got []int
	done := make(chan struct{})
	view.Subscribe(rxcache.StreamHandlers[int]{
		OnNext:     func(v int) { got = append(got, v) },
		OnComplete: func() { close(done) },
	})
	waitSignal(t, done)

	// The subscriber attached while the producer was already emitting, so
	// it may have come in mid-stream with a latest-value replay. From that
	// point on the order must be exactly the emission order.
	if len(got) == 0 {
		t.Fatal("no values delivered")
	}
	for i := 1; i < len(got); i++ {
		if got[i] != got[i-1]+1 {
			t.Fatalf("out of order at %d: %d after %d", i, got[i], got[i-1])
		}
	}
	if got[len(got)-1] != n-1 {
		t.Fatalf("last value = %d, want %d", got[len(got)-1], n-1)
	}
}

func TestStreamErrorReachesAllSubscribers(t *testing.T) {
	wantErr := errors.New("producer failed")
	gate := make(chan struct{})
	cache := rxcache.NewStream(rxcache.NewLifetime(), func(ctx context.Context, next func(int)) error {
		next(1)
		<-gate
		return wantErr
	})

	view, err := cache.GetOrCreate()
	if err != nil {
		t.Fatal(err)
	}

	early := make(chan error, 1)
	view.Subscribe(rxcache.StreamHandlers[int]{
		OnError: func(err error) { early <- err },
	})
	close(gate)

	if got := recv(t, early); !errors.Is(got, wantErr) {
		t.Fatalf("early subscriber: got %v, want %v", got, wantErr)
	}

	// A subscriber attaching after the terminal error is still delivered
	// that same error, not silence.
	late := make(chan error, 1)
	view.Subscribe(rxcache.StreamHandlers[int]{
		OnError: func(err error) { late <- err },
	})
	if got := recv(t, late); !errors.Is(got, wantErr) {
		t.Fatalf("late subscriber: got %v, want %v", got, wantErr)
	}
}

func TestStreamUnsubscribeStopsDelivery(t *testing.T) {
	emit := make(chan int)
	cache := rxcache.NewStream(rxcache.NewLifetime(), func(ctx context.Context, next func(int)) error {
		for v := range emit {
			next(v)
		}
		return nil
	})

	view, err := cache.GetOrCreate()
	if err != nil {
		t.Fatal(err)
	}

	got := make(chan int, 16)
	sub := view.Subscribe(rxcache.StreamHandlers[int]{
		OnNext: func(v int) { got <- v },
	})

	emit <- 1
	if v := recv(t, got); v != 1 {
		t.Fatalf("got %d, want 1", v)
	}

	sub.Unsubscribe()
	sub.Unsubscribe() // idempotent

	emit <- 2
	expectSilence(t, got)
	close(emit)
}

func TestStreamOf(t *testing.T) {
	cache := rxcache.StreamOf(rxcache.NewLifetime(), []string{"a", "b"})

	view, err := cache.GetOrCreate()
	if err != nil {
		t.Fatal(err)
	}

	got := make(chan string, 4)
	done := make(chan struct{})
	view.Subscribe(rxcache.StreamHandlers[string]{
		OnNext:     func(v string) { got <- v },
		OnComplete: func() { close(done) },
	})

	// Whether the subscriber attached before, during, or after production,
	// the last value it sees before completion is the latest item.
	waitSignal(t, done)
	last := ""
	for {
		select {
		case v := <-got:
			last = v
			continue
		default:
		}
		break
	}
	if last != "b" {
		t.Fatalf("latest value = %q, want %q", last, "b")
	}
}
