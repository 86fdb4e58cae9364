package gamification

import (
	"context"
	"errors"
	"fmt"
	"log"
	"slices"
	"strings"

	"github.com/shortcut-sensei/backend/internal/clock"
	"github.com/shortcut-sensei/backend/internal/events"
	"github.com/shortcut-sensei/backend/internal/models"
)

var (
	ErrInvalidExperience = errors.New("experience amount must be positive")
	ErrInvalidScore      = errors.New("quiz score must be between 0 and 100")
)

const maxMilestones = 20

type LevelResult struct {
	NewLevel   int  `json:"new_level"`
	DidLevelUp bool `json:"did_level_up"`
}

type QuizResult struct {
	XPGained        int     `json:"xp_gained"`
	NewLevel        int     `json:"new_level"`
	DidLevelUp      bool    `json:"did_level_up"`
	NewAverageScore float64 `json:"new_average_score"`
}

// LevelProgress is the position inside the current level band.
type LevelProgress struct {
	Current    int     `json:"current"`
	Total      int     `json:"total"`
	Percentage float64 `json:"percentage"`
}

func DefaultProgress() models.ProgressState {
	return models.ProgressState{
		Level: 1,
		Statistics: models.Statistics{
			ApplicationsMastered: []models.AppMastery{},
		},
		Milestones: []models.Milestone{},
	}
}

// Ledger owns level, experience and activity counters. Every mutation
// persists the whole state before any event is published.
type Ledger struct {
	outbox
	clock clock.Clock
	store *Store
	state models.ProgressState
}

func NewLedger(c clock.Clock, store *Store, bus *events.Bus) *Ledger {
	return &Ledger{outbox: outbox{bus: bus}, clock: c, store: store, state: DefaultProgress()}
}

// Reload replaces in-memory state with the stored document, or defaults when
// nothing is stored.
func (l *Ledger) Reload(ctx context.Context) error {
	state := DefaultProgress()
	if _, err := l.store.Load(ctx, &state); err != nil {
		l.state = DefaultProgress()
		return err
	}
	normalizeProgress(&state)
	l.state = state
	return nil
}

// Reset drops in-memory state back to defaults without persisting.
func (l *Ledger) Reset() {
	l.state = DefaultProgress()
	l.store.forget()
	l.discard()
}

func normalizeProgress(s *models.ProgressState) {
	if s.TotalExperience < 0 {
		s.TotalExperience = 0
	}
	s.Level = LevelFromXP(s.TotalExperience)
	s.Experience = s.TotalExperience - CumulativeXPForLevel(s.Level)
	if s.Statistics.ApplicationsMastered == nil {
		s.Statistics.ApplicationsMastered = []models.AppMastery{}
	}
	if s.Milestones == nil {
		s.Milestones = []models.Milestone{}
	}
}

// State returns a copy of the current progress.
func (l *Ledger) State() models.ProgressState {
	s := l.state
	s.Statistics.ApplicationsMastered = slices.Clone(l.state.Statistics.ApplicationsMastered)
	s.Milestones = slices.Clone(l.state.Milestones)
	return s
}

// ── Experience ──────────────────────────────────────────

// AddExperience grants amount XP and applies any level-up bonuses in the same
// call.
func (l *Ledger) AddExperience(ctx context.Context, amount int, source string) (LevelResult, error) {
	if amount <= 0 {
		log.Printf("[gamification] rejected experience amount %d from %q", amount, source)
		return LevelResult{NewLevel: l.state.Level}, fmt.Errorf("%w: %d", ErrInvalidExperience, amount)
	}
	res := l.grant(amount, source)
	l.commit(ctx)
	return res, nil
}

func (l *Ledger) grant(amount int, source string) LevelResult {
	oldLevel := l.state.Level
	l.state.TotalExperience += amount
	l.emit(ExperienceGained{Amount: amount, Source: source, TotalExperience: l.state.TotalExperience})

	// A bonus can itself cross the next threshold, so re-check until stable.
	for {
		next := LevelFromXP(l.state.TotalExperience)
		if next <= l.state.Level {
			break
		}
		prev := l.state.Level
		bonus := LevelUpBonus(next)
		l.state.Level = next
		l.state.TotalExperience += bonus
		l.addMilestone(fmt.Sprintf("Reached level %d", next), "level_up")
		l.emit(LevelUp{OldLevel: prev, NewLevel: next, BonusXP: bonus})
	}

	l.state.Experience = l.state.TotalExperience - CumulativeXPForLevel(l.state.Level)
	return LevelResult{NewLevel: l.state.Level, DidLevelUp: l.state.Level > oldLevel}
}

// LevelProgress reports how far the user is through the current level.
func (l *Ledger) LevelProgress() LevelProgress {
	floor := CumulativeXPForLevel(l.state.Level)
	ceil := CumulativeXPForLevel(l.state.Level + 1)
	p := LevelProgress{Current: l.state.TotalExperience - floor, Total: ceil - floor}
	if p.Total > 0 {
		p.Percentage = min(float64(p.Current)/float64(p.Total)*100, 100)
	}
	return p
}

// XPToNextLevel is the XP still needed to reach the next level.
func (l *Ledger) XPToNextLevel() int {
	return CumulativeXPForLevel(l.state.Level+1) - l.state.TotalExperience
}

// ── Activity ────────────────────────────────────────────

func (l *Ledger) RecordShortcutLearned(ctx context.Context, app, difficulty string) LevelResult {
	l.state.Statistics.ShortcutsLearned++
	if app = strings.TrimSpace(app); app != "" {
		l.masterApp(app)
	}
	l.touch()
	res := l.grant(XPForDifficulty(difficulty), "shortcut_learned")
	l.commit(ctx)
	return res
}

func (l *Ledger) RecordQuizCompleted(ctx context.Context, score, totalQuestions int, completionTimeSeconds *float64) (QuizResult, error) {
	if score < 0 || score > 100 {
		log.Printf("[gamification] rejected quiz score %d", score)
		return QuizResult{NewLevel: l.state.Level, NewAverageScore: l.state.Statistics.AverageQuizScore},
			fmt.Errorf("%w: %d", ErrInvalidScore, score)
	}

	stats := &l.state.Statistics
	stats.QuizzesCompleted++
	stats.AverageQuizScore = RunningAverage(stats.AverageQuizScore, stats.QuizzesCompleted, float64(score))
	if score == 100 {
		stats.PerfectQuizzes++
	}
	l.touch()

	xp := QuizXP(score, completionTimeSeconds)
	res := QuizResult{XPGained: xp, NewAverageScore: stats.AverageQuizScore}
	if xp > 0 {
		lr := l.grant(xp, "quiz_completed")
		res.DidLevelUp = lr.DidLevelUp
	}
	res.NewLevel = l.state.Level
	l.commit(ctx)
	return res, nil
}

func (l *Ledger) RecordTutorialCompleted(ctx context.Context) LevelResult {
	l.state.Statistics.TutorialsCompleted++
	l.touch()
	res := l.grant(TutorialXP, "tutorial_completed")
	l.commit(ctx)
	return res
}

// RecordStudyTime adds minutes of study. It grants no XP.
func (l *Ledger) RecordStudyTime(ctx context.Context, minutes int) error {
	if minutes <= 0 {
		log.Printf("[gamification] rejected study time %d", minutes)
		return fmt.Errorf("%w: %d", ErrInvalidAmount, minutes)
	}
	l.state.Statistics.TotalStudyTimeMs += int64(minutes) * 60_000
	l.touch()
	l.commit(ctx)
	return nil
}

// RecordBadgeEarned counts the badge and grants its reward.
func (l *Ledger) RecordBadgeEarned(ctx context.Context, badge Badge) LevelResult {
	l.state.Statistics.BadgesEarned++
	l.addMilestone("Badge unlocked: "+badge.Name, "badge_unlocked")
	res := LevelResult{NewLevel: l.state.Level}
	if badge.XPReward > 0 {
		res = l.grant(badge.XPReward, "badge:"+badge.ID)
	}
	l.commit(ctx)
	return res
}

// SyncStreak mirrors the streak tracker's counters into the statistics.
func (l *Ledger) SyncStreak(ctx context.Context, current, longest int) {
	stats := &l.state.Statistics
	if stats.CurrentStreak == current && stats.LongestStreak == longest {
		return
	}
	stats.CurrentStreak = current
	stats.LongestStreak = longest
	l.commit(ctx)
}

func (l *Ledger) masterApp(app string) {
	apps := l.state.Statistics.ApplicationsMastered
	for i := range apps {
		if apps[i].Name == app {
			apps[i].Count++
			return
		}
	}
	l.state.Statistics.ApplicationsMastered = append(apps, models.AppMastery{
		Name:        app,
		Count:       1,
		FirstSeenAt: l.clock.Now(),
	})
}

func (l *Ledger) touch() {
	now := l.clock.Now()
	l.state.Statistics.LastActivityAt = &now
}

// addMilestone keeps the newest milestones first.
func (l *Ledger) addMilestone(title, kind string) {
	m := models.Milestone{Title: title, Kind: kind, At: l.clock.Now()}
	l.state.Milestones = append([]models.Milestone{m}, l.state.Milestones...)
	if len(l.state.Milestones) > maxMilestones {
		l.state.Milestones = l.state.Milestones[:maxMilestones]
	}
}

// commit persists, then publishes everything queued during the mutation.
func (l *Ledger) commit(ctx context.Context) {
	l.store.Save(ctx, l.state)
	l.emit(ProgressUpdated{Level: l.state.Level, TotalExperience: l.state.TotalExperience})
	l.flush(ctx)
}
