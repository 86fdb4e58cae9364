package gamification

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"strings"

	"github.com/shortcut-sensei/backend/internal/events"
	"github.com/shortcut-sensei/backend/internal/models"
)

var ErrInvalidRequest = errors.New("invalid request")

// Outcome summarises everything one reported action caused.
type Outcome struct {
	XPGained            int            `json:"xp_gained"`
	Level               int            `json:"level"`
	TotalExperience     int            `json:"total_experience"`
	LevelUps            []LevelUp      `json:"level_ups,omitempty"`
	BadgesUnlocked      []Badge        `json:"badges_unlocked,omitempty"`
	CurrentStreak       int            `json:"current_streak"`
	StreakChanged       bool           `json:"streak_changed"`
	FreezeOffered       bool           `json:"freeze_offered"`
	DailyGoalsCompleted bool           `json:"daily_goals_completed"`
	Events              []events.Event `json:"events"`
}

// Coordinator routes events between the ledger, the streak tracker and the
// badge engine. It holds no state and persists nothing itself.
type Coordinator struct {
	bus    *events.Bus
	ledger *Ledger
	streak *StreakTracker
	badges *BadgeEngine
}

func NewCoordinator(bus *events.Bus, ledger *Ledger, streak *StreakTracker, badges *BadgeEngine) *Coordinator {
	c := &Coordinator{bus: bus, ledger: ledger, streak: streak, badges: badges}
	c.subscribe()
	return c
}

func (c *Coordinator) subscribe() {
	b := c.bus

	// Reported actions
	events.Subscribe(b, func(ctx context.Context, _ events.Event, p ShortcutLearned) {
		c.ledger.RecordShortcutLearned(ctx, p.Application, p.Difficulty)
		c.recordActivity(ctx, ActivityShortcutLearned, 1)
		c.badges.UpdateProgress(ctx, MetricShortcutsLearned, ProgressData{App: p.Application})
		c.badges.UpdateProgress(ctx, MetricLearningSession, ProgressData{})
	})
	events.Subscribe(b, func(ctx context.Context, _ events.Event, p QuizCompleted) {
		if _, err := c.ledger.RecordQuizCompleted(ctx, p.Score, p.TotalQuestions, p.CompletionTimeSeconds); err != nil {
			return
		}
		c.recordActivity(ctx, ActivityQuizCompleted, 1)
		score := p.Score
		c.badges.UpdateProgress(ctx, MetricQuizzesCompleted, ProgressData{Score: &score, CompletionTimeSeconds: p.CompletionTimeSeconds})
	})
	events.Subscribe(b, func(ctx context.Context, _ events.Event, _ TutorialCompleted) {
		c.ledger.RecordTutorialCompleted(ctx)
		c.badges.UpdateProgress(ctx, MetricTutorialsCompleted, ProgressData{})
	})
	events.Subscribe(b, func(ctx context.Context, _ events.Event, p StudyTimeRecorded) {
		if err := c.ledger.RecordStudyTime(ctx, p.Minutes); err != nil {
			return
		}
		c.recordActivity(ctx, ActivityStudyTime, p.Minutes)
	})
	events.Subscribe(b, func(ctx context.Context, _ events.Event, _ CommunityJoined) {
		c.badges.UpdateProgress(ctx, MetricCommunityJoined, ProgressData{})
	})
	events.Subscribe(b, func(ctx context.Context, _ events.Event, _ ShortcutShared) {
		c.badges.UpdateProgress(ctx, MetricShortcutsShared, ProgressData{})
	})

	// Engine feedback. Each handler runs after the one that raised it has
	// returned, so badge XP and level checks never recurse.
	events.Subscribe(b, func(ctx context.Context, _ events.Event, p BadgeUnlocked) {
		c.ledger.RecordBadgeEarned(ctx, p.Badge)
	})
	events.Subscribe(b, func(ctx context.Context, _ events.Event, p LevelUp) {
		c.badges.UpdateProgress(ctx, MetricLevelReached, ProgressData{Level: p.NewLevel})
	})
	events.Subscribe(b, func(ctx context.Context, _ events.Event, p StreakStarted) {
		c.ledger.SyncStreak(ctx, p.CurrentStreak, p.LongestStreak)
		c.badges.UpdateProgress(ctx, MetricStreakDays, ProgressData{StreakDays: p.CurrentStreak})
	})
	events.Subscribe(b, func(ctx context.Context, _ events.Event, p StreakExtended) {
		c.ledger.SyncStreak(ctx, p.CurrentStreak, p.LongestStreak)
		c.grant(ctx, StreakBonusXP(p.CurrentStreak), "streak_bonus")
		c.badges.UpdateProgress(ctx, MetricStreakDays, ProgressData{StreakDays: p.CurrentStreak})
	})
	events.Subscribe(b, func(ctx context.Context, _ events.Event, p StreakBroken) {
		c.ledger.SyncStreak(ctx, 0, p.LongestStreak)
	})
	events.Subscribe(b, func(ctx context.Context, _ events.Event, _ StreakFreezeUsed) {
		c.badges.UpdateProgress(ctx, MetricStreakRestored, ProgressData{})
	})
	events.Subscribe(b, func(ctx context.Context, _ events.Event, _ StreakMilestone) {
		c.badges.UpdateProgress(ctx, MetricStreakMilestones, ProgressData{})
	})
	events.Subscribe(b, func(ctx context.Context, _ events.Event, p DailyGoalsCompleted) {
		c.grant(ctx, p.BonusXP, "daily_goals")
		c.badges.UpdateProgress(ctx, MetricDailyGoalsCompleted, ProgressData{})
	})
}

func (c *Coordinator) recordActivity(ctx context.Context, typ ActivityType, amount int) {
	if err := c.streak.RecordActivity(ctx, typ, amount); err != nil {
		log.Printf("[gamification] streak activity %s: %v", typ, err)
	}
}

func (c *Coordinator) grant(ctx context.Context, amount int, source string) {
	if amount <= 0 {
		return
	}
	if _, err := c.ledger.AddExperience(ctx, amount, source); err != nil {
		log.Printf("[gamification] %s bonus: %v", source, err)
	}
}

// ── Reporting ───────────────────────────────────────────

func (c *Coordinator) ReportShortcutLearned(ctx context.Context, req models.LearnShortcutRequest) (Outcome, error) {
	if strings.TrimSpace(req.ShortcutID) == "" {
		return Outcome{}, fmt.Errorf("%w: shortcut_id is required", ErrInvalidRequest)
	}
	return c.report(ctx, ShortcutLearned{
		ShortcutID:  req.ShortcutID,
		Application: strings.TrimSpace(req.Application),
		Difficulty:  strings.ToLower(strings.TrimSpace(req.Difficulty)),
	}), nil
}

func (c *Coordinator) ReportQuizCompleted(ctx context.Context, req models.CompleteQuizRequest) (Outcome, error) {
	if req.Score < 0 || req.Score > 100 {
		return Outcome{}, fmt.Errorf("%w: %d", ErrInvalidScore, req.Score)
	}
	if req.TotalQuestions < 0 {
		return Outcome{}, fmt.Errorf("%w: total_questions must not be negative", ErrInvalidRequest)
	}
	if t := req.CompletionTimeSeconds; t != nil && (*t < 0 || math.IsNaN(*t) || math.IsInf(*t, 0)) {
		return Outcome{}, fmt.Errorf("%w: completion_time_seconds must be a non-negative number", ErrInvalidRequest)
	}
	return c.report(ctx, QuizCompleted{
		QuizID:                req.QuizID,
		Score:                 req.Score,
		TotalQuestions:        req.TotalQuestions,
		CompletionTimeSeconds: req.CompletionTimeSeconds,
	}), nil
}

func (c *Coordinator) ReportTutorialCompleted(ctx context.Context, req models.CompleteTutorialRequest) (Outcome, error) {
	if strings.TrimSpace(req.TutorialID) == "" {
		return Outcome{}, fmt.Errorf("%w: tutorial_id is required", ErrInvalidRequest)
	}
	return c.report(ctx, TutorialCompleted{TutorialID: req.TutorialID}), nil
}

func (c *Coordinator) ReportStudyTime(ctx context.Context, req models.StudyTimeRequest) (Outcome, error) {
	if req.Minutes <= 0 {
		return Outcome{}, fmt.Errorf("%w: %d", ErrInvalidAmount, req.Minutes)
	}
	return c.report(ctx, StudyTimeRecorded{Minutes: req.Minutes}), nil
}

func (c *Coordinator) ReportCommunityJoined(ctx context.Context) Outcome {
	return c.report(ctx, CommunityJoined{})
}

func (c *Coordinator) ReportShortcutShared(ctx context.Context, req models.ShareShortcutRequest) (Outcome, error) {
	if strings.TrimSpace(req.ShortcutID) == "" {
		return Outcome{}, fmt.Errorf("%w: shortcut_id is required", ErrInvalidRequest)
	}
	return c.report(ctx, ShortcutShared{ShortcutID: req.ShortcutID}), nil
}

// report publishes p and folds the drained events into an Outcome.
func (c *Coordinator) report(ctx context.Context, p events.Payload) Outcome {
	return c.summarize(c.bus.Publish(ctx, p))
}

func (c *Coordinator) summarize(evs []events.Event) Outcome {
	out := Outcome{Events: evs}
	for _, e := range evs {
		switch p := e.Payload.(type) {
		case ExperienceGained:
			out.XPGained += p.Amount
		case LevelUp:
			out.XPGained += p.BonusXP
			out.LevelUps = append(out.LevelUps, p)
		case BadgeUnlocked:
			out.BadgesUnlocked = append(out.BadgesUnlocked, p.Badge)
		case StreakStarted, StreakExtended, StreakBroken, StreakFreezeUsed:
			out.StreakChanged = true
		case StreakFreezeOffered:
			out.FreezeOffered = true
		case DailyGoalsCompleted:
			out.DailyGoalsCompleted = true
		}
	}
	progress := c.ledger.State()
	out.Level = progress.Level
	out.TotalExperience = progress.TotalExperience
	out.CurrentStreak = c.streak.State().CurrentStreak
	return out
}
