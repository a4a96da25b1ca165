// Package notify manages transient user-facing notifications.
package notify

import (
	"sort"
	"sync"
	"time"

	"github.com/carnest/carnest-go/internal/events"
	"github.com/carnest/carnest-go/internal/models"
	"github.com/carnest/carnest-go/pkg/utils"
)

// DefaultTTL is how long a notification stays visible unless dismissed.
const DefaultTTL = 6 * time.Second

type stopper interface {
	Stop() bool
}

type entry struct {
	n     models.Notification
	timer stopper
}

type Notifier struct {
	mu        sync.Mutex
	active    map[string]*entry
	ttl       time.Duration
	publisher events.Publisher
	now       func() time.Time
	afterFunc func(time.Duration, func()) stopper
}

func NewNotifier(ttl time.Duration, publisher events.Publisher) *Notifier {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &Notifier{
		active:    make(map[string]*entry),
		ttl:       ttl,
		publisher: publisher,
		now:       time.Now,
		afterFunc: func(d time.Duration, f func()) stopper { return time.AfterFunc(d, f) },
	}
}

// Show displays a notification and schedules its auto-dismissal.
func (n *Notifier) Show(message, severity string) models.Notification {
	if !models.IsValidSeverity(severity) {
		severity = models.SeverityInfo
	}

	note := models.Notification{
		ID:        utils.GenerateID(),
		Message:   message,
		Severity:  severity,
		Visible:   true,
		CreatedAt: n.now(),
	}

	n.mu.Lock()
	e := &entry{n: note}
	n.active[note.ID] = e
	e.timer = n.afterFunc(n.ttl, func() { n.Dismiss(note.ID, models.DismissTimeout) })
	n.mu.Unlock()

	n.publisher.Publish(events.TypeNotification, note)
	return note
}

// Dismiss hides a notification. A clickaway never dismisses; the return
// value reports whether anything was hidden.
func (n *Notifier) Dismiss(id, reason string) bool {
	if reason == models.DismissClickaway {
		return false
	}

	n.mu.Lock()
	e, ok := n.active[id]
	if ok {
		delete(n.active, id)
		if e.timer != nil {
			e.timer.Stop()
		}
	}
	n.mu.Unlock()

	if !ok {
		return false
	}

	hidden := e.n
	hidden.Visible = false
	n.publisher.Publish(events.TypeNotification, hidden)
	return true
}

// Active returns the visible notifications, oldest first.
func (n *Notifier) Active() []models.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()

	out := make([]models.Notification, 0, len(n.active))
	for _, e := range n.active {
		out = append(out, e.n)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}
