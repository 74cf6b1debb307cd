package live

import (
	"sync"

	"github.com/google/uuid"
)

// Hub fans change notifications out to listeners by topic.
type Hub struct {
	mu     sync.Mutex
	topics map[string]map[string]func()
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{topics: make(map[string]map[string]func())}
}

// Listen calls fn on every Publish to topic until the returned subscription
// is released.
func (h *Hub) Listen(topic string, fn func()) Subscription {
	id := uuid.NewString()

	h.mu.Lock()
	listeners, ok := h.topics[topic]
	if !ok {
		listeners = make(map[string]func())
		h.topics[topic] = listeners
	}
	listeners[id] = fn
	h.mu.Unlock()

	return Func(func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if listeners, ok := h.topics[topic]; ok {
			delete(listeners, id)
			if len(listeners) == 0 {
				delete(h.topics, topic)
			}
		}
	})
}

// Publish notifies the listeners of each topic. Listeners run on the
// caller's goroutine, outside the hub lock.
func (h *Hub) Publish(topics ...string) {
	var fns []func()
	h.mu.Lock()
	for _, t := range topics {
		for _, fn := range h.topics[t] {
			fns = append(fns, fn)
		}
	}
	h.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}

// Listeners returns the number of listeners on topic.
func (h *Hub) Listeners(topic string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.topics[topic])
}
