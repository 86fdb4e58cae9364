package shortcuts

import (
	"context"
	"errors"
	"fmt"
	"log"
	"slices"
	"sync"

	"github.com/shortcut-sensei/backend/internal/clock"
	"github.com/shortcut-sensei/backend/internal/storage"
)

const (
	KeyToday   = "shortcut_of_the_day"
	KeyHistory = "shortcut_history"

	maxHistory = 30
)

var (
	ErrEmptyCatalog = errors.New("shortcut catalog is empty")
	ErrNotToday     = errors.New("shortcut is not today's shortcut")
)

type todayDoc struct {
	Date     string   `json:"date"`
	Shortcut Shortcut `json:"shortcut"`
}

// HistoryEntry records one day's pick, oldest first in the history.
type HistoryEntry struct {
	Date      string   `json:"date"`
	Shortcut  Shortcut `json:"shortcut"`
	Learned   bool     `json:"learned"`
	Practiced bool     `json:"practiced"`
}

// Daily chooses one shortcut per calendar day and keeps the choice in device
// scope so every caller sees the same pick until the date changes.
type Daily struct {
	mu     sync.Mutex
	clock  clock.Clock
	gw     storage.Gateway
	source Source
}

func NewDaily(c clock.Clock, gw storage.Gateway, source Source) *Daily {
	return &Daily{clock: c, gw: gw, source: source}
}

// Today returns today's shortcut, choosing and persisting it on the first
// call of the day.
func (d *Daily) Today(ctx context.Context) (Shortcut, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.clock.Now()
	today := clock.DateString(now)

	var doc todayDoc
	if found, err := storage.GetJSON(ctx, d.gw, storage.ScopeDevice, KeyToday, &doc); err != nil {
		log.Printf("[shortcuts] reading today's pick: %v", err)
	} else if found && doc.Date == today {
		return doc.Shortcut, nil
	}

	catalog, err := d.source.Shortcuts(ctx)
	if err != nil {
		return Shortcut{}, err
	}
	history := d.history(ctx)
	recent := make([]string, 0, len(history))
	for _, h := range history {
		recent = append(recent, h.Shortcut.ID)
	}

	pick, ok := PickForDate(catalog, now, recent)
	if !ok {
		return Shortcut{}, ErrEmptyCatalog
	}

	history = append(history, HistoryEntry{Date: today, Shortcut: pick})
	if len(history) > maxHistory {
		history = history[len(history)-maxHistory:]
	}
	if err := storage.SetJSON(ctx, d.gw, storage.ScopeDevice, KeyHistory, history); err != nil {
		log.Printf("[shortcuts] saving history: %v", err)
	}
	if err := storage.SetJSON(ctx, d.gw, storage.ScopeDevice, KeyToday, todayDoc{Date: today, Shortcut: pick}); err != nil {
		log.Printf("[shortcuts] saving today's pick: %v", err)
	}
	return pick, nil
}

// History returns past picks, oldest first.
func (d *Daily) History(ctx context.Context) []HistoryEntry {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.history(ctx)
}

func (d *Daily) history(ctx context.Context) []HistoryEntry {
	var h []HistoryEntry
	if _, err := storage.GetJSON(ctx, d.gw, storage.ScopeDevice, KeyHistory, &h); err != nil {
		log.Printf("[shortcuts] reading history: %v", err)
		return []HistoryEntry{}
	}
	if h == nil {
		h = []HistoryEntry{}
	}
	return h
}

// MarkLearned flags today's pick as learned. It reports false when the entry
// was already flagged.
func (d *Daily) MarkLearned(ctx context.Context, id string) (bool, error) {
	return d.mark(ctx, id, func(e *HistoryEntry) *bool { return &e.Learned })
}

func (d *Daily) MarkPracticed(ctx context.Context, id string) (bool, error) {
	return d.mark(ctx, id, func(e *HistoryEntry) *bool { return &e.Practiced })
}

func (d *Daily) mark(ctx context.Context, id string, flag func(*HistoryEntry) *bool) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	today := clock.Today(d.clock)
	history := d.history(ctx)
	i := slices.IndexFunc(history, func(e HistoryEntry) bool {
		return e.Date == today && e.Shortcut.ID == id
	})
	if i < 0 {
		return false, fmt.Errorf("%w: %s", ErrNotToday, id)
	}
	f := flag(&history[i])
	if *f {
		return false, nil
	}
	*f = true
	if err := storage.SetJSON(ctx, d.gw, storage.ScopeDevice, KeyHistory, history); err != nil {
		return false, fmt.Errorf("save history: %w", err)
	}
	return true, nil
}
