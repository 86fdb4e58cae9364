package gamification

import (
	"context"
	"testing"
	"time"

	"github.com/shortcut-sensei/backend/internal/clock"
	"github.com/shortcut-sensei/backend/internal/events"
	"github.com/shortcut-sensei/backend/internal/identity"
	"github.com/shortcut-sensei/backend/internal/storage"
)

// Wednesday noon.
var testStart = time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)

type fixture struct {
	ctx    context.Context
	clock  *clock.Manual
	mem    *storage.Memory
	ident  *identity.Session
	gw     storage.Gateway
	bus    *events.Bus
	events []events.Event
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		ctx:   context.Background(),
		clock: clock.NewManual(testStart),
		mem:   storage.NewMemory(),
		ident: identity.NewSession(),
	}
	f.gw = storage.NewRouter(f.mem, f.mem, f.ident)
	f.bus = events.NewBus(f.clock)
	events.SubscribeAll(f.bus, func(_ context.Context, e events.Event) {
		f.events = append(f.events, e)
	})
	return f
}

func (f *fixture) ledger() *Ledger {
	return NewLedger(f.clock, NewStore(f.gw, f.ident, KeyProgress), f.bus)
}

func (f *fixture) streak() *StreakTracker {
	return NewStreakTracker(f.clock, NewStore(f.gw, f.ident, KeyStreak), f.bus)
}

func (f *fixture) badges(catalog []Badge) *BadgeEngine {
	return NewBadgeEngine(f.clock, NewStore(f.gw, f.ident, KeyBadges), f.bus, catalog)
}

func (f *fixture) service() *Service {
	return NewService(f.ctx, f.clock, f.gw, f.ident)
}

func (f *fixture) reset() {
	f.events = nil
}

func (f *fixture) names() []events.Name {
	out := make([]events.Name, 0, len(f.events))
	for _, e := range f.events {
		out = append(out, e.Name)
	}
	return out
}

func (f *fixture) count(name events.Name) int {
	return countEvents(f.events, name)
}

func countEvents(evs []events.Event, name events.Name) int {
	n := 0
	for _, e := range evs {
		if e.Name == name {
			n++
		}
	}
	return n
}

func indexOf(evs []events.Event, match func(events.Event) bool) int {
	for i, e := range evs {
		if match(e) {
			return i
		}
	}
	return -1
}

func badgeIDs(badges []Badge) []string {
	out := make([]string, 0, len(badges))
	for _, b := range badges {
		out = append(out, b.ID)
	}
	return out
}

func floatPtr(v float64) *float64 { return &v }
