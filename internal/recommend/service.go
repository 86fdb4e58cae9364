package recommend

import (
	"context"
	"fmt"
	"log"

	"github.com/shortcut-sensei/backend/internal/clock"
	"github.com/shortcut-sensei/backend/internal/gamification"
	"github.com/shortcut-sensei/backend/internal/shortcuts"
)

type Result struct {
	SkillBand       string           `json:"skill_band"`
	Recommendations []Recommendation `json:"recommendations"`
	Tip             string           `json:"tip,omitempty"`
}

// Recommender builds a learner profile from their gamification progress and
// today's shortcut, then ranks the catalog for them.
type Recommender struct {
	clock    clock.Clock
	source   shortcuts.Source
	daily    *shortcuts.Daily
	sessions *gamification.Sessions
	coach    *Coach
}

// NewRecommender wires the sources. daily and coach may be nil.
func NewRecommender(c clock.Clock, source shortcuts.Source, daily *shortcuts.Daily, sessions *gamification.Sessions, coach *Coach) *Recommender {
	return &Recommender{clock: c, source: source, daily: daily, sessions: sessions, coach: coach}
}

func (r *Recommender) Profile(ctx context.Context, userID int64, currentApp string) Profile {
	progress := r.sessions.Get(ctx, userID).Progress()

	p := Profile{
		Level:        progress.Level,
		Applications: make(map[string]int, len(progress.Statistics.ApplicationsMastered)),
		CurrentApp:   currentApp,
		Now:          r.clock.Now(),
	}
	for _, app := range progress.Statistics.ApplicationsMastered {
		p.Applications[shortcuts.AppKey(app.Name)] += app.Count
	}
	if r.daily != nil {
		if today, err := r.daily.Today(ctx); err != nil {
			log.Printf("[recommend] today's shortcut: %v", err)
		} else {
			p.Today = &today
		}
	}
	return p
}

// ForUser returns up to count recommendations plus an optional coach tip.
func (r *Recommender) ForUser(ctx context.Context, userID int64, count int, currentApp string) (Result, error) {
	catalog, err := r.source.Shortcuts(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("load catalog: %w", err)
	}

	p := r.Profile(ctx, userID, currentApp)
	recs := Recommend(catalog, p, count)
	return Result{
		SkillBand:       SkillBand(p.Level),
		Recommendations: recs,
		Tip:             r.coach.Tip(ctx, p, recs),
	}, nil
}
