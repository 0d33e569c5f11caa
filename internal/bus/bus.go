// Package bus implements the coordinator's internal publish/subscribe
// event bus. Platform signals are bridged into typed events here instead
// of leaking raw listeners into UI adapters.
package bus

import (
	"sync"
	"time"
)

// EventType identifies an observable coordinator signal.
type EventType string

const (
	EventInstallable         EventType = "installable"
	EventUpdateAvailable     EventType = "update_available"
	EventConnectivityChanged EventType = "connectivity_changed"
	EventPermissionChanged   EventType = "permission_changed"
	EventRecordPersisted     EventType = "record_persisted"
	EventSyncFlushed         EventType = "sync_flushed"
)

// Event is one delivered occurrence of a coordinator signal.
type Event struct {
	Type    EventType   `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
	At      time.Time   `json:"at"`
}

// subscriberBuffer bounds each subscriber channel. Publishers never
// block; a subscriber that falls this far behind loses events and the
// drop is counted.
const subscriberBuffer = 64

// Bus fans events out to any number of independent subscribers.
// Delivery order matches publish order per subscriber.
type Bus struct {
	mu      sync.RWMutex
	subs    map[int]chan Event
	next    int
	dropped uint64
}

// New creates an empty bus.
func New() *Bus {
	return &Bus{subs: make(map[int]chan Event)}
}

// Subscribe attaches an observer. The returned cancel function detaches
// it without affecting other subscribers.
func (b *Bus) Subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	id := b.next
	b.next++
	ch := make(chan Event, subscriberBuffer)
	b.subs[id] = ch
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		if sub, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(sub)
		}
		b.mu.Unlock()
	}
	return ch, cancel
}

// Publish delivers an event to every current subscriber.
func (b *Bus) Publish(t EventType, payload interface{}) {
	evt := Event{Type: t, Payload: payload, At: time.Now()}

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- evt:
		default:
			b.dropped++
		}
	}
}

// Subscribers returns the number of attached observers.
func (b *Bus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Dropped returns how many deliveries were lost to full subscriber
// buffers.
func (b *Bus) Dropped() uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.dropped
}
