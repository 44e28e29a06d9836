// Package events provides the typed synchronous event bus that carries
// trigger fires and mechanic outcomes to external consumers (cinematic and
// audio layers, the web front end via Redis pub/sub).
package events

import (
	"sync"

	"github.com/datableed/decision-engine/pkg/progress"
)

// Type identifies the kind of event being published.
type Type string

const (
	TypeTriggerFired     Type = "trigger.fired"
	TypeAreaVisited      Type = "area.visited"
	TypeStateUpdated     Type = "state.updated"
	TypeSessionStarted   Type = "session.started"
	TypeSessionCompleted Type = "session.completed"
	TypeCorruptionStage  Type = "corruption.stage"
)

// Event is the notification payload. Consumers must treat it as
// fire-and-forget: the Progress snapshot is a clone taken at publish time.
type Event struct {
	Type       Type                      `json:"type"`
	Character  string                    `json:"character"`
	TriggerID  string                    `json:"trigger_id,omitempty"`
	AreaNumber int                       `json:"area_number,omitempty"`
	EventData  map[string]any            `json:"event_data,omitempty"`
	Progress   *progress.SessionProgress `json:"progress,omitempty"`
	Data       map[string]any            `json:"data,omitempty"`
}

// Handler receives published events. Handlers run synchronously on the
// publishing goroutine, in subscription order.
type Handler func(Event)

// UnsubscribeFunc removes a subscription.
type UnsubscribeFunc func()

type subscription struct {
	id      int
	handler Handler
}

// Bus is an in-process synchronous event bus. Dispatch is single and
// synchronous per event, which preserves the ordering guarantee: a trigger
// fired by a state mutation is fully delivered before the mutating call
// returns.
type Bus struct {
	mu     sync.Mutex
	nextID int
	typed  map[Type][]subscription
	all    []subscription
}

// NewBus creates an empty event bus.
func NewBus() *Bus {
	return &Bus{
		typed: make(map[Type][]subscription),
	}
}

// Subscribe registers a handler for one event type.
func (b *Bus) Subscribe(t Type, h Handler) UnsubscribeFunc {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := b.nextID
	b.typed[t] = append(b.typed[t], subscription{id: id, handler: h})
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.typed[t] = removeSub(b.typed[t], id)
	}
}

// SubscribeAll registers a handler for every event type.
func (b *Bus) SubscribeAll(h Handler) UnsubscribeFunc {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := b.nextID
	b.all = append(b.all, subscription{id: id, handler: h})
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		b.all = removeSub(b.all, id)
	}
}

// Publish dispatches the event synchronously to typed subscribers first,
// then broadcast subscribers, in subscription order.
func (b *Bus) Publish(e Event) {
	b.mu.Lock()
	handlers := make([]Handler, 0, len(b.typed[e.Type])+len(b.all))
	for _, s := range b.typed[e.Type] {
		handlers = append(handlers, s.handler)
	}
	for _, s := range b.all {
		handlers = append(handlers, s.handler)
	}
	b.mu.Unlock()

	for _, h := range handlers {
		h(e)
	}
}

func removeSub(subs []subscription, id int) []subscription {
	for i, s := range subs {
		if s.id == id {
			return append(subs[:i], subs[i+1:]...)
		}
	}
	return subs
}
