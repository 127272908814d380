package provider

import (
	"slices"
	"sync"
)

// Emitter fans events out to subscribers. Handlers run synchronously on the
// emitting goroutine, outside the emitter's lock.
type Emitter struct {
	mu       sync.Mutex
	next     int
	handlers map[int]func(Event)
}

// Subscribe registers fn until the returned subscription is released.
func (e *Emitter) Subscribe(fn func(Event)) Subscription {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.handlers == nil {
		e.handlers = make(map[int]func(Event))
	}
	id := e.next
	e.next++
	e.handlers[id] = fn
	return &subscription{release: func() {
		e.mu.Lock()
		delete(e.handlers, id)
		e.mu.Unlock()
	}}
}

// Emit delivers ev to every current subscriber in subscription order.
func (e *Emitter) Emit(ev Event) {
	e.mu.Lock()
	ids := make([]int, 0, len(e.handlers))
	for id := range e.handlers {
		ids = append(ids, id)
	}
	fns := make([]func(Event), 0, len(ids))
	slices.Sort(ids)
	for _, id := range ids {
		fns = append(fns, e.handlers[id])
	}
	e.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}

// Len returns the number of live subscriptions.
func (e *Emitter) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.handlers)
}

// Reset drops every subscriber.
func (e *Emitter) Reset() {
	e.mu.Lock()
	e.handlers = nil
	e.mu.Unlock()
}

type subscription struct {
	once    sync.Once
	release func()
}

func (s *subscription) Unsubscribe() { s.once.Do(s.release) }
