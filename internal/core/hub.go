package core

import (
	"sync"

	"github.com/rs/zerolog/log"
)

type Subscriber interface {
	Notify(e Event)
}

type SubscriberFunc func(e Event)

func (f SubscriberFunc) Notify(e Event) { f(e) }

type subscription struct {
	id  int
	sub Subscriber
}

// Hub delivers events to subscribers synchronously, in registration order.
// Ordering across events is the caller's job: Publish must not be called concurrently
// when the order between two events matters.
type Hub struct {
	mu     sync.RWMutex
	nextID int
	subs   []subscription
}

func NewHub() *Hub {
	return &Hub{}
}

// Subscribe registers s and returns a func that removes it. The func is idempotent.
func (h *Hub) Subscribe(s Subscriber) func() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.nextID++
	id := h.nextID
	h.subs = append(h.subs, subscription{id: id, sub: s})

	var once sync.Once
	return func() {
		once.Do(func() { h.remove(id) })
	}
}

func (h *Hub) remove(id int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i, s := range h.subs {
		if s.id == id {
			h.subs = append(h.subs[:i:i], h.subs[i+1:]...)
			return
		}
	}
}

func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

func (h *Hub) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.subs = nil
}

func (h *Hub) Publish(e Event) {
	h.mu.RLock()
	subs := make([]subscription, len(h.subs))
	copy(subs, h.subs)
	h.mu.RUnlock()

	for _, s := range subs {
		h.notify(s, e)
	}
}

// notify isolates a panicking subscriber so the rest still see the event.
func (h *Hub) notify(s subscription, e Event) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("module", "core.hub").Int("subscriber", s.id).Str("event", e.Kind().String()).Interface("panic", r).Msg("subscriber panicked")
		}
	}()
	s.sub.Notify(e)
}
