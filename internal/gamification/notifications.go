package gamification

import (
	"context"
	"sync"

	"github.com/shortcut-sensei/backend/internal/events"
)

const DefaultNotificationCapacity = 50

// notifiable lists the events a user is told about. Bookkeeping events such
// as ProgressUpdated stay internal.
var notifiable = map[events.Name]bool{
	EventLevelUp:              true,
	EventBadgeUnlocked:        true,
	EventStreakStarted:        true,
	EventStreakExtended:       true,
	EventStreakBroken:         true,
	EventStreakFreezeOffered:  true,
	EventStreakFreezeUsed:     true,
	EventStreakMilestone:      true,
	EventLongestStreakUpdated: true,
	EventDailyGoalsCompleted:  true,
}

// Notifications keeps the most recent user-facing events in a ring buffer.
type Notifications struct {
	mu    sync.Mutex
	buf   []events.Event
	next  int
	count int
}

func NewNotifications(capacity int) *Notifications {
	if capacity <= 0 {
		capacity = DefaultNotificationCapacity
	}
	return &Notifications{buf: make([]events.Event, capacity)}
}

// Record is an events.Handler.
func (n *Notifications) Record(_ context.Context, e events.Event) {
	if !notifiable[e.Name] {
		return
	}
	if b, ok := e.Payload.(StreakBroken); ok && b.Silent {
		return
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.buf[n.next] = e
	n.next = (n.next + 1) % len(n.buf)
	if n.count < len(n.buf) {
		n.count++
	}
}

// Recent returns up to limit events, newest first. limit <= 0 means all.
func (n *Notifications) Recent(limit int) []events.Event {
	n.mu.Lock()
	defer n.mu.Unlock()
	if limit <= 0 || limit > n.count {
		limit = n.count
	}
	out := make([]events.Event, 0, limit)
	for i := 1; i <= limit; i++ {
		idx := (n.next - i + len(n.buf)) % len(n.buf)
		out = append(out, n.buf[idx])
	}
	return out
}

func (n *Notifications) Clear() {
	n.mu.Lock()
	defer n.mu.Unlock()
	clear(n.buf)
	n.next = 0
	n.count = 0
}
