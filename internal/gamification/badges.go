package gamification

import (
	"context"
	"log"
	"maps"
	"slices"
	"time"

	"github.com/shortcut-sensei/backend/internal/clock"
	"github.com/shortcut-sensei/backend/internal/events"
	"github.com/shortcut-sensei/backend/internal/models"
)

// ProgressData carries the context for a metric update. Fields that do not
// apply to the metric are ignored.
type ProgressData struct {
	App                   string
	Score                 *int
	CompletionTimeSeconds *float64
	Level                 int
	StreakDays            int
}

type BadgeProgress struct {
	Badge      Badge      `json:"badge"`
	Current    float64    `json:"current"`
	Target     float64    `json:"target"`
	Percentage float64    `json:"percentage"`
	Completed  bool       `json:"completed"`
	UnlockedAt *time.Time `json:"unlocked_at,omitempty"`
}

func DefaultBadgeState() models.BadgeState {
	return models.BadgeState{
		Metrics:  map[string]float64{},
		Unlocked: []models.UnlockedBadge{},
	}
}

// BadgeEngine tracks metrics and unlocks catalog badges whose conditions are
// met, each at most once.
type BadgeEngine struct {
	outbox
	clock   clock.Clock
	store   *Store
	catalog []Badge
	byID    map[string]Badge
	state   models.BadgeState
}

// NewBadgeEngine panics if catalog fails ValidateCatalog. A nil catalog
// selects the built-in one.
func NewBadgeEngine(c clock.Clock, store *Store, bus *events.Bus, catalog []Badge) *BadgeEngine {
	if catalog == nil {
		catalog = Catalog
	}
	if err := ValidateCatalog(catalog); err != nil {
		panic("gamification: invalid badge catalog: " + err.Error())
	}

	byID := make(map[string]Badge, len(catalog))
	for _, b := range catalog {
		byID[b.ID] = b
		if _, ok := MetricDirection(b.Condition.Key()); !ok {
			log.Printf("[gamification] badge %s uses unknown metric %q and can never unlock", b.ID, b.Condition.Key())
		}
	}

	return &BadgeEngine{
		outbox:  outbox{bus: bus},
		clock:   c,
		store:   store,
		catalog: slices.Clone(catalog),
		byID:    byID,
		state:   DefaultBadgeState(),
	}
}

func (e *BadgeEngine) Reload(ctx context.Context) error {
	state := DefaultBadgeState()
	if _, err := e.store.Load(ctx, &state); err != nil {
		e.state = DefaultBadgeState()
		return err
	}
	if state.Metrics == nil {
		state.Metrics = map[string]float64{}
	}
	if state.Unlocked == nil {
		state.Unlocked = []models.UnlockedBadge{}
	}
	e.state = state
	return nil
}

func (e *BadgeEngine) Reset() {
	e.state = DefaultBadgeState()
	e.store.forget()
	e.discard()
}

func (e *BadgeEngine) State() models.BadgeState {
	return models.BadgeState{
		Metrics:  maps.Clone(e.state.Metrics),
		Unlocked: slices.Clone(e.state.Unlocked),
	}
}

// ── Metric updates ──────────────────────────────────────

// UpdateProgress applies one update to metric and unlocks every badge that is
// newly satisfied, in catalog order.
func (e *BadgeEngine) UpdateProgress(ctx context.Context, metric string, data ProgressData) []Badge {
	m := e.state.Metrics
	switch metric {
	case MetricShortcutsLearned:
		m[metric]++
		if data.App != "" {
			m[AppMetric(data.App)]++
		}
	case MetricQuizzesCompleted:
		m[metric]++
		if data.Score != nil && *data.Score == 100 {
			m[MetricPerfectQuizScore]++
		}
		if t := data.CompletionTimeSeconds; t != nil && *t > 0 {
			if cur := m[MetricFastQuizCompletion]; cur <= 0 || *t < cur {
				m[MetricFastQuizCompletion] = *t
			}
		}
	case MetricLevelReached:
		m[metric] = max(m[metric], float64(data.Level))
	case MetricStreakDays:
		m[metric] = max(m[metric], float64(data.StreakDays))
	case MetricCommunityJoined:
		m[metric] = 1
	case MetricLearningSession:
		now := e.clock.Now()
		if now.Hour() < 9 {
			m[MetricEarlyLearningSessions]++
		}
		if now.Hour() >= 21 {
			m[MetricLateLearningSessions]++
		}
		if clock.IsWeekend(now) {
			m[MetricWeekendSessions]++
		}
	default:
		m[metric]++
	}

	unlocked := e.scan()
	e.store.Save(ctx, e.state)
	e.flush(ctx)
	return unlocked
}

func (e *BadgeEngine) scan() []Badge {
	var unlocked []Badge
	now := e.clock.Now()
	for _, b := range e.catalog {
		if e.IsUnlocked(b.ID) || !e.satisfied(b.Condition) {
			continue
		}
		e.state.Unlocked = append(e.state.Unlocked, models.UnlockedBadge{BadgeID: b.ID, UnlockedAt: now})
		unlocked = append(unlocked, b)
		e.emit(BadgeUnlocked{Badge: b, UnlockedAt: now})
	}
	return unlocked
}

func (e *BadgeEngine) satisfied(c Condition) bool {
	if _, ok := MetricDirection(c.Key()); !ok {
		return false
	}
	v, ok := e.state.Metrics[c.Key()]
	if !ok {
		return false
	}
	return c.Direction.Satisfied(v, c.Target)
}

// ── Queries ─────────────────────────────────────────────

func (e *BadgeEngine) Catalog() []Badge {
	return slices.Clone(e.catalog)
}

func (e *BadgeEngine) IsUnlocked(id string) bool {
	_, ok := e.unlockedAt(id)
	return ok
}

func (e *BadgeEngine) unlockedAt(id string) (time.Time, bool) {
	for _, u := range e.state.Unlocked {
		if u.BadgeID == id {
			return u.UnlockedAt, true
		}
	}
	return time.Time{}, false
}

func (e *BadgeEngine) Unlocked() []models.UnlockedBadge {
	return slices.Clone(e.state.Unlocked)
}

// Progress reports how close the user is to badge id.
func (e *BadgeEngine) Progress(id string) (BadgeProgress, bool) {
	b, ok := e.byID[id]
	if !ok {
		return BadgeProgress{}, false
	}
	c := b.Condition
	p := BadgeProgress{Badge: b, Target: c.Target}

	if c.Direction == Decreasing {
		if e.satisfied(c) {
			p.Current = c.Target
		}
	} else {
		p.Current = e.state.Metrics[c.Key()]
	}
	p.Percentage = min(p.Current/c.Target*100, 100)

	if at, ok := e.unlockedAt(id); ok {
		p.Completed = true
		p.UnlockedAt = &at
	}
	return p, true
}

// AllProgress lists progress for every badge in catalog order.
func (e *BadgeEngine) AllProgress() []BadgeProgress {
	out := make([]BadgeProgress, 0, len(e.catalog))
	for _, b := range e.catalog {
		p, _ := e.Progress(b.ID)
		out = append(out, p)
	}
	return out
}

func (e *BadgeEngine) ByCategory(category string) []Badge {
	var out []Badge
	for _, b := range e.catalog {
		if b.Category == category {
			out = append(out, b)
		}
	}
	return out
}

func (e *BadgeEngine) CompletionPercentage() float64 {
	if len(e.catalog) == 0 {
		return 0
	}
	return float64(len(e.state.Unlocked)) / float64(len(e.catalog)) * 100
}
