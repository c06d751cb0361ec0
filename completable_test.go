package rxcache_test

import (
	"context"
	"errors"
	"testing"

	rxcache "github.com/shostko/rx-cache"
)

func TestCompletableResolves(t *testing.T) {
	ran := make(chan struct{})
	cache := rxcache.NewCompletable(rxcache.NewLifetime(), func(context.Context) error {
		close(ran)
		return nil
	})

	view, err := cache.GetOrCreate()
	if err != nil {
		t.Fatal(err)
	}
	waitSignal(t, ran)

	if err := view.Wait(context.Background()); err != nil {
		t.Fatalf("got %v, want nil", err)
	}

	// Late subscriber replays the completion.
	done := make(chan struct{})
	view.Subscribe(rxcache.CompletableHandlers{
		OnComplete: func() { close(done) },
	})
	waitSignal(t, done)
}

func TestCompletableError(t *testing.T) {
	wantErr := errors.New("cleanup failed")
	cache := rxcache.NewCompletable(rxcache.NewLifetime(), func(context.Context) error {
		return wantErr
	})

	view, err := cache.GetOrCreate()
	if err != nil {
		t.Fatal(err)
	}

	if err := view.Wait(context.Background()); !errors.Is(err, wantErr) {
		t.Fatalf("got %v, want %v", err, wantErr)
	}

	errs := make(chan error, 1)
	view.Subscribe(rxcache.CompletableHandlers{
		OnError: func(err error) { errs <- err },
	})
	if got := recv(t, errs); !errors.Is(got, wantErr) {
		t.Fatalf("late subscriber: got %v, want %v", got, wantErr)
	}
}

func TestCompleted(t *testing.T) {
	view, err := rxcache.Completed(rxcache.NewLifetime()).GetOrCreate()
	if err != nil {
		t.Fatal(err)
	}
	if err := view.Wait(context.Background()); err != nil {
		t.Fatalf("got %v, want nil", err)
	}
}
