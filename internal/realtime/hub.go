package realtime

import (
	"log"
	"sync"
)

// Event types mirror the row changes that produced them.
const (
	EventInsert = "INSERT"
	EventUpdate = "UPDATE"
	EventDelete = "DELETE"
)

// Event is a row change fanned out to subscribers.
type Event struct {
	Table string            `json:"table"`
	Type  string            `json:"type"`
	Row   interface{}       `json:"row"`
	Keys  map[string]string `json:"-"`
}

// Filter narrows a subscription to one table, optionally to rows where a
// key column holds a specific value. An empty Column matches every row.
type Filter struct {
	Table  string
	Column string
	Value  string
}

// Matches reports whether an event passes the filter.
func (f Filter) Matches(e Event) bool {
	if f.Table != e.Table {
		return false
	}
	if f.Column == "" {
		return true
	}
	return e.Keys[f.Column] == f.Value
}

// Subscription receives matching events on C until cancelled.
type Subscription struct {
	C       chan Event
	filters []Filter
	id      int64
}

// Hub fans row-change events out to live subscribers. Publishing never
// blocks: a subscriber whose buffer is full misses the event and the drop
// is logged, the slow consumer does not stall the rest.
type Hub struct {
	mu     sync.RWMutex
	subs   map[int64]*Subscription
	nextID int64
	buffer int
	closed bool
}

// NewHub creates a hub whose subscribers each buffer up to buffer events.
func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = 64
	}
	return &Hub{
		subs:   make(map[int64]*Subscription),
		buffer: buffer,
	}
}

// Subscribe registers interest in events matching any of the filters.
func (h *Hub) Subscribe(filters ...Filter) *Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	sub := &Subscription{
		C:       make(chan Event, h.buffer),
		filters: filters,
		id:      h.nextID,
	}
	if h.closed {
		close(sub.C)
		return sub
	}
	h.subs[sub.id] = sub
	return sub
}

// Unsubscribe removes a subscription and closes its channel.
func (h *Hub) Unsubscribe(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.subs[sub.id]; !ok {
		return
	}
	delete(h.subs, sub.id)
	close(sub.C)
}

// Publish delivers an event to every subscription with a matching filter.
func (h *Hub) Publish(e Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.closed {
		return
	}
	for _, sub := range h.subs {
		for _, f := range sub.filters {
			if !f.Matches(e) {
				continue
			}
			select {
			case sub.C <- e:
			default:
				log.Printf("realtime: dropping %s %s event for slow subscriber", e.Type, e.Table)
			}
			break
		}
	}
}

// Close shuts the hub down and closes every subscriber channel.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	for id, sub := range h.subs {
		delete(h.subs, id)
		close(sub.C)
	}
}

// SubscriberCount reports the number of live subscriptions.
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
