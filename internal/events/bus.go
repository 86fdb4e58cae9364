// Package events is a typed, in-process publish/subscribe bus.
//
// Dispatch is queued rather than re-entrant: an event published from inside a
// handler is delivered after the current handler returns, by the same drain
// loop that delivered its parent. The outermost Publish call drains the queue
// and returns every event it delivered.
package events

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/shortcut-sensei/backend/internal/clock"
)

// DefaultMaxDispatch bounds the number of events one drain may deliver.
const DefaultMaxDispatch = 512

type Name string

// Payload is implemented by value types; EventName must not depend on the
// receiver's fields.
type Payload interface {
	EventName() Name
}

type Event struct {
	ID      uuid.UUID `json:"id"`
	Name    Name      `json:"name"`
	At      time.Time `json:"at"`
	Payload Payload   `json:"payload"`
}

type Handler func(ctx context.Context, e Event)

type queued struct {
	ctx   context.Context
	event Event
}

// Bus belongs to a single session; callers serialise Publish.
type Bus struct {
	clock       clock.Clock
	MaxDispatch int

	mu          sync.Mutex
	handlers    map[Name][]Handler
	all         []Handler
	queue       []queued
	dispatching bool
}

func NewBus(c clock.Clock) *Bus {
	return &Bus{
		clock:       c,
		MaxDispatch: DefaultMaxDispatch,
		handlers:    make(map[Name][]Handler),
	}
}

// Subscribe registers fn for events whose payload has type P.
func Subscribe[P Payload](b *Bus, fn func(ctx context.Context, e Event, p P)) {
	var zero P
	name := zero.EventName()
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[name] = append(b.handlers[name], func(ctx context.Context, e Event) {
		if p, ok := e.Payload.(P); ok {
			fn(ctx, e, p)
		}
	})
}

// SubscribeAll registers fn for every event, after the typed handlers.
func SubscribeAll(b *Bus, fn Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.all = append(b.all, fn)
}

// Publish queues p. When no dispatch is running it drains the queue and
// returns the delivered events in order; nested calls return nil.
func (b *Bus) Publish(ctx context.Context, p Payload) []Event {
	e := Event{
		ID:      uuid.New(),
		Name:    p.EventName(),
		At:      b.clock.Now(),
		Payload: p,
	}

	b.mu.Lock()
	b.queue = append(b.queue, queued{ctx: ctx, event: e})
	if b.dispatching {
		b.mu.Unlock()
		return nil
	}
	b.dispatching = true
	b.mu.Unlock()

	return b.drain()
}

func (b *Bus) drain() []Event {
	var delivered []Event
	defer func() {
		b.mu.Lock()
		b.dispatching = false
		b.mu.Unlock()
	}()

	limit := b.MaxDispatch
	if limit <= 0 {
		limit = DefaultMaxDispatch
	}

	for {
		b.mu.Lock()
		if len(b.queue) == 0 {
			b.mu.Unlock()
			return delivered
		}
		if len(delivered) >= limit {
			dropped := len(b.queue)
			b.queue = nil
			b.mu.Unlock()
			log.Printf("[events] dispatch limit %d reached, dropped %d queued events", limit, dropped)
			return delivered
		}
		next := b.queue[0]
		b.queue = b.queue[1:]
		hs := make([]Handler, 0, len(b.handlers[next.event.Name])+len(b.all))
		hs = append(hs, b.handlers[next.event.Name]...)
		hs = append(hs, b.all...)
		b.mu.Unlock()

		for _, h := range hs {
			h(next.ctx, next.event)
		}
		delivered = append(delivered, next.event)
	}
}
