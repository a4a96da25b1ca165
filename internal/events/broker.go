// Package events fans out client state changes to interested listeners,
// such as SSE connections.
package events

import (
	"sync"
	"time"
)

// Event types
const (
	TypeSelection      = "selection"
	TypeRoute          = "route"
	TypeRouteDiscarded = "route_discarded"
	TypeRouteFailed    = "route_failed"
	TypeBooking        = "booking"
	TypeNotification   = "notification"
	TypeNavigate       = "navigate"
	TypeSession        = "session"
)

type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data,omitempty"`
	Time time.Time   `json:"timestamp"`
}

// Publisher is the write side used by services.
type Publisher interface {
	Publish(eventType string, data interface{})
}

type Broker struct {
	mu      sync.RWMutex
	clients map[chan Event]bool
	buffer  int
}

func NewBroker(buffer int) *Broker {
	return &Broker{
		clients: make(map[chan Event]bool),
		buffer:  buffer,
	}
}

// Subscribe returns a channel of events and a function that closes it.
func (b *Broker) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, b.buffer)

	b.mu.Lock()
	b.clients[ch] = true
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.clients, ch)
			b.mu.Unlock()
			close(ch)
		})
	}
}

func (b *Broker) Publish(eventType string, data interface{}) {
	ev := Event{Type: eventType, Data: data, Time: time.Now()}

	b.mu.RLock()
	defer b.mu.RUnlock()

	for ch := range b.clients {
		select {
		case ch <- ev:
		default:
			// Client too slow, skip
		}
	}
}

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(string, interface{}) {}
