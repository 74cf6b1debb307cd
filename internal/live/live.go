// Package live provides the subscription primitives shared by the gateway
// and the view-models: release handles, observers, keyed subscription sets,
// a topic hub, and serial executors.
package live

import "sync"

// Subscription is a handle to a live read. Release stops delivery and is
// safe to call more than once.
type Subscription interface {
	Release()
}

// Func adapts a function to a Subscription. The function runs at most once.
func Func(fn func()) Subscription {
	return &funcSub{fn: fn}
}

type funcSub struct {
	once sync.Once
	fn   func()
}

func (s *funcSub) Release() {
	s.once.Do(func() {
		if s.fn != nil {
			s.fn()
		}
	})
}

// Released is a Subscription with nothing to release.
var Released Subscription = Func(nil)

// Observer receives the emissions of a live read. Either field may be nil.
type Observer[T any] struct {
	Next func(T)
	Err  func(error)
}

// Emit delivers a value.
func (o Observer[T]) Emit(v T) {
	if o.Next != nil {
		o.Next(v)
	}
}

// Fail delivers an error.
func (o Observer[T]) Fail(err error) {
	if o.Err != nil {
		o.Err(err)
	}
}

// Set holds at most one subscription per key. It is not safe for concurrent
// use; the owning view-model serializes access.
type Set[K comparable] struct {
	subs map[K]Subscription
}

// Put stores sub under key, releasing whatever was held there before.
func (s *Set[K]) Put(key K, sub Subscription) {
	if s.subs == nil {
		s.subs = make(map[K]Subscription)
	}
	if old, ok := s.subs[key]; ok {
		old.Release()
	}
	s.subs[key] = sub
}

// Has reports whether key holds a subscription.
func (s *Set[K]) Has(key K) bool {
	_, ok := s.subs[key]
	return ok
}

// Release releases and forgets the subscription under key.
func (s *Set[K]) Release(key K) {
	if sub, ok := s.subs[key]; ok {
		delete(s.subs, key)
		sub.Release()
	}
}

// ReleaseAll releases every held subscription and empties the set.
func (s *Set[K]) ReleaseAll() {
	subs := s.subs
	s.subs = nil
	for _, sub := range subs {
		sub.Release()
	}
}

// Len returns the number of held subscriptions.
func (s *Set[K]) Len() int {
	return len(s.subs)
}

// Keys returns the held keys in no particular order.
func (s *Set[K]) Keys() []K {
	keys := make([]K, 0, len(s.subs))
	for k := range s.subs {
		keys = append(keys, k)
	}
	return keys
}
