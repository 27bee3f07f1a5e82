package scope

import (
	"slices"
	"sync"

	"github.com/verte-zerg/wavescope/internal/viewport"
)

// Events fans pointer events out to subscribers. It implements
// viewport.EventSource.
type Events struct {
	mu       sync.Mutex
	next     int
	handlers map[int]func(viewport.Event)
}

// NewEvents returns an empty event bus.
func NewEvents() *Events {
	return &Events{handlers: map[int]func(viewport.Event){}}
}

// Subscribe registers handler. The returned function removes it and may be
// called more than once.
func (e *Events) Subscribe(handler func(viewport.Event)) func() {
	e.mu.Lock()
	id := e.next
	e.next++
	e.handlers[id] = handler
	e.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			e.mu.Lock()
			delete(e.handlers, id)
			e.mu.Unlock()
		})
	}
}

// Publish delivers ev to every subscriber in subscription order. Each
// handler runs to completion before the next one starts.
func (e *Events) Publish(ev viewport.Event) {
	e.mu.Lock()
	ids := make([]int, 0, len(e.handlers))
	for id := range e.handlers {
		ids = append(ids, id)
	}
	handlers := make([]func(viewport.Event), 0, len(ids))
	slices.Sort(ids)
	for _, id := range ids {
		handlers = append(handlers, e.handlers[id])
	}
	e.mu.Unlock()

	for _, h := range handlers {
		h(ev)
	}
}

// Subscribers returns the number of live subscriptions.
func (e *Events) Subscribers() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.handlers)
}
