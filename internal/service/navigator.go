package service

import (
	"sync"

	"github.com/carnest/carnest-go/internal/events"
)

// Entry points the client redirects to.
const (
	LoginPath  = "/login"
	SearchPath = "/search"
	BookPath   = "/book"
)

// Navigator moves the presentation layer to another screen.
type Navigator interface {
	Navigate(path string)
}

// EventNavigator remembers the current location and announces every
// change on the event broker.
type EventNavigator struct {
	mu        sync.RWMutex
	current   string
	publisher events.Publisher
}

func NewEventNavigator(initial string, publisher events.Publisher) *EventNavigator {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &EventNavigator{current: initial, publisher: publisher}
}

func (n *EventNavigator) Navigate(path string) {
	n.mu.Lock()
	n.current = path
	n.mu.Unlock()

	n.publisher.Publish(events.TypeNavigate, map[string]string{"path": path})
}

func (n *EventNavigator) Current() string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.current
}
