package live

import (
	"context"
	"sync"
	"sync/atomic"
)

// Watch turns a query into a live read. It runs query on its own goroutine
// immediately and again after each Publish to any of topics, delivering the
// results to obs in query order. Notifications that arrive while a query is
// running collapse into a single re-run.
func Watch[T any](hub *Hub, topics []string, query func(context.Context) (T, error), obs Observer[T]) Subscription {
	ctx, cancel := context.WithCancel(context.Background())
	signal := make(chan struct{}, 1)
	notify := func() {
		select {
		case signal <- struct{}{}:
		default:
		}
	}

	listeners := make([]Subscription, 0, len(topics))
	for _, t := range topics {
		listeners = append(listeners, hub.Listen(t, notify))
	}

	var stopped atomic.Bool
	go func() {
		for {
			v, err := query(ctx)
			if stopped.Load() {
				return
			}
			if err != nil {
				obs.Fail(err)
			} else {
				obs.Emit(v)
			}

			select {
			case <-ctx.Done():
				return
			case <-signal:
			}
		}
	}()

	return Func(func() {
		stopped.Store(true)
		for _, l := range listeners {
			l.Release()
		}
		cancel()
	})
}

// First waits for the first emission of a live read, releases it, and
// returns the value or error.
func First[T any](ctx context.Context, watch func(Observer[T]) Subscription) (T, error) {
	type result struct {
		v   T
		err error
	}
	ch := make(chan result, 1)
	var once sync.Once
	sub := watch(Observer[T]{
		Next: func(v T) { once.Do(func() { ch <- result{v: v} }) },
		Err:  func(err error) { once.Do(func() { ch <- result{err: err} }) },
	})
	defer sub.Release()

	select {
	case r := <-ch:
		return r.v, r.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
