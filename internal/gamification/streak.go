package gamification

import (
	"context"
	"errors"
	"fmt"
	"log"
	"slices"

	"github.com/shortcut-sensei/backend/internal/clock"
	"github.com/shortcut-sensei/backend/internal/events"
	"github.com/shortcut-sensei/backend/internal/models"
)

type ActivityType string

const (
	ActivityShortcutLearned ActivityType = "shortcut_learned"
	ActivityQuizCompleted   ActivityType = "quiz_completed"
	ActivityStudyTime       ActivityType = "study_time"
)

var (
	ErrInvalidAmount   = errors.New("activity amount must be positive")
	ErrUnknownActivity = errors.New("unknown activity type")
)

const (
	initialStreakFreezes = 3
	minStreakForFreeze   = 3
	maxFreezeGapDays     = 3
	maxStreakHistory     = 50
)

// StreakMilestones fire once each, the first time the streak reaches them.
var StreakMilestones = []int{3, 7, 14, 30, 50, 100, 365}

var freezeMilestones = map[int]bool{7: true, 30: true, 100: true}

func DefaultDailyGoals() models.DailyGoals {
	return models.DailyGoals{ShortcutsLearned: 3, QuizzesCompleted: 1, StudyTimeMinutes: 10}
}

func DefaultStreak() models.StreakState {
	return models.StreakState{
		StreakFreezesAvailable: initialStreakFreezes,
		DailyGoals:             DefaultDailyGoals(),
		MilestoneAchievements:  []int{},
		History:                []models.StreakRecord{},
	}
}

// StreakStatus values.
const (
	StatusNone          = "none"
	StatusActive        = "active"
	StatusFreezeOffered = "freeze_offered"
	StatusBroken        = "broken"
)

type StreakStatus struct {
	Status            string `json:"status"`
	CurrentStreak     int    `json:"current_streak"`
	LongestStreak     int    `json:"longest_streak"`
	DaysSinceActivity int    `json:"days_since_activity"`
	FreezesAvailable  int    `json:"freezes_available"`
	CanUseFreeze      bool   `json:"can_use_freeze"`
}

type GoalsCompleted struct {
	Shortcuts bool `json:"shortcuts"`
	Quizzes   bool `json:"quizzes"`
	StudyTime bool `json:"study_time"`
}

type DailyGoalsResult struct {
	Goals          models.DailyGoals     `json:"goals"`
	Progress       models.TodaysProgress `json:"progress"`
	GoalsCompleted GoalsCompleted        `json:"goals_completed"`
	AllCompleted   bool                  `json:"all_completed"`
}

// StreakTracker owns the daily-activity streak, daily goals and freezes.
type StreakTracker struct {
	outbox
	clock clock.Clock
	store *Store
	state models.StreakState
}

func NewStreakTracker(c clock.Clock, store *Store, bus *events.Bus) *StreakTracker {
	return &StreakTracker{outbox: outbox{bus: bus}, clock: c, store: store, state: DefaultStreak()}
}

func (t *StreakTracker) Reload(ctx context.Context) error {
	state := DefaultStreak()
	if _, err := t.store.Load(ctx, &state); err != nil {
		t.state = DefaultStreak()
		return err
	}
	normalizeStreak(&state)
	t.state = state
	return nil
}

func (t *StreakTracker) Reset() {
	t.state = DefaultStreak()
	t.store.forget()
	t.discard()
}

func normalizeStreak(s *models.StreakState) {
	if s.CurrentStreak < 0 {
		s.CurrentStreak = 0
	}
	if s.CurrentStreak == 0 {
		s.StreakStartDate = ""
	}
	if s.LongestStreak < s.CurrentStreak {
		s.LongestStreak = s.CurrentStreak
	}
	if s.StreakFreezesAvailable < 0 {
		s.StreakFreezesAvailable = 0
	}
	def := DefaultDailyGoals()
	if s.DailyGoals.ShortcutsLearned <= 0 {
		s.DailyGoals.ShortcutsLearned = def.ShortcutsLearned
	}
	if s.DailyGoals.QuizzesCompleted <= 0 {
		s.DailyGoals.QuizzesCompleted = def.QuizzesCompleted
	}
	if s.DailyGoals.StudyTimeMinutes <= 0 {
		s.DailyGoals.StudyTimeMinutes = def.StudyTimeMinutes
	}
	if s.MilestoneAchievements == nil {
		s.MilestoneAchievements = []int{}
	}
	if s.History == nil {
		s.History = []models.StreakRecord{}
	}
}

// State returns a copy of the streak state.
func (t *StreakTracker) State() models.StreakState {
	s := t.state
	s.MilestoneAchievements = slices.Clone(t.state.MilestoneAchievements)
	s.History = slices.Clone(t.state.History)
	return s
}

// ── Activity ────────────────────────────────────────────

// RecordActivity adds amount to today's progress and advances the streak on
// the first activity of a new day.
func (t *StreakTracker) RecordActivity(ctx context.Context, typ ActivityType, amount int) error {
	if amount <= 0 {
		log.Printf("[gamification] rejected %s activity amount %d", typ, amount)
		return fmt.Errorf("%w: %d", ErrInvalidAmount, amount)
	}
	switch typ {
	case ActivityShortcutLearned, ActivityQuizCompleted, ActivityStudyTime:
	default:
		log.Printf("[gamification] rejected activity type %q", typ)
		return fmt.Errorf("%w: %q", ErrUnknownActivity, typ)
	}

	now := t.clock.Now()
	today := clock.DateString(now)
	p := t.todaysProgress(today)
	switch typ {
	case ActivityShortcutLearned:
		p.ShortcutsLearned += amount
	case ActivityQuizCompleted:
		p.QuizzesCompleted += amount
	case ActivityStudyTime:
		p.StudyTimeMinutes += amount
	}
	p.LastUpdatedAt = &now
	t.state.TodaysProgress = p

	t.advance(today)
	t.emit(ActivityRecorded{Type: typ, Amount: amount, Progress: p})
	t.evaluateGoals(today)
	t.commit(ctx)
	return nil
}

// todaysProgress returns the stored progress, or a zeroed one when it belongs
// to another day.
func (t *StreakTracker) todaysProgress(today string) models.TodaysProgress {
	if t.state.TodaysProgress.Date == today {
		return t.state.TodaysProgress
	}
	return models.TodaysProgress{Date: today}
}

func (t *StreakTracker) advance(today string) {
	s := &t.state
	if s.LastActivityDate == "" {
		t.start(today)
		t.markActive(today)
		return
	}

	gap, err := clock.DaysBetween(s.LastActivityDate, today)
	if err != nil {
		log.Printf("[gamification] skipped streak update: %v", err)
		return
	}

	switch {
	case gap <= 0:
		// Same day, or the clock moved backwards.
		return
	case gap == 1:
		if s.CurrentStreak == 0 {
			t.start(today)
		} else {
			t.extend()
		}
		t.markActive(today)
	case s.CurrentStreak == 0:
		// The first active day after a break does not count.
		if s.BrokenOn <= s.LastActivityDate {
			t.start(today)
		}
		t.markActive(today)
	case t.canUseFreeze() && gap <= maxFreezeGapDays:
		t.offerFreeze(today, gap)
	default:
		t.breakStreak(today, false)
		t.markActive(today)
	}
}

func (t *StreakTracker) markActive(today string) {
	if t.state.LastActivityDate == today {
		return
	}
	t.state.LastActivityDate = today
	t.state.TotalActiveDays++
	t.state.FreezeOfferedOn = ""
}

func (t *StreakTracker) start(today string) {
	t.state.CurrentStreak = 1
	t.state.StreakStartDate = today
	t.bumpLongest()
	t.emit(StreakStarted{Date: today, CurrentStreak: 1, LongestStreak: t.state.LongestStreak})
}

func (t *StreakTracker) extend() {
	t.state.CurrentStreak++
	t.bumpLongest()
	t.checkMilestones()
	t.emit(StreakExtended{CurrentStreak: t.state.CurrentStreak, LongestStreak: t.state.LongestStreak})
}

func (t *StreakTracker) bumpLongest() {
	if t.state.CurrentStreak > t.state.LongestStreak {
		t.state.LongestStreak = t.state.CurrentStreak
		t.emit(LongestStreakUpdated{LongestStreak: t.state.LongestStreak})
	}
}

func (t *StreakTracker) checkMilestones() {
	n := t.state.CurrentStreak
	if !slices.Contains(StreakMilestones, n) || slices.Contains(t.state.MilestoneAchievements, n) {
		return
	}
	t.state.MilestoneAchievements = append(t.state.MilestoneAchievements, n)
	award := freezeMilestones[n]
	if award {
		t.state.StreakFreezesAvailable++
	}
	t.emit(StreakMilestone{Days: n, FreezeAwarded: award})
}

func (t *StreakTracker) breakStreak(today string, silent bool) {
	s := &t.state
	prev := s.CurrentStreak
	if prev > 0 {
		s.History = append(s.History, models.StreakRecord{
			Length:     prev,
			StartDate:  s.StreakStartDate,
			EndDate:    s.LastActivityDate,
			BrokenDate: today,
		})
		if len(s.History) > maxStreakHistory {
			s.History = s.History[len(s.History)-maxStreakHistory:]
		}
	}
	s.CurrentStreak = 0
	s.StreakStartDate = ""
	s.FreezeOfferedOn = ""
	s.BrokenOn = today
	t.emit(StreakBroken{PreviousStreak: prev, LongestStreak: s.LongestStreak, Date: today, Silent: silent})
}

// ── Freezes ─────────────────────────────────────────────

func (t *StreakTracker) canUseFreeze() bool {
	return t.state.StreakFreezesAvailable > 0 && t.state.CurrentStreak >= minStreakForFreeze
}

// offerFreeze publishes at most one offer per day.
func (t *StreakTracker) offerFreeze(today string, gap int) {
	if t.state.FreezeOfferedOn == today {
		return
	}
	t.state.FreezeOfferedOn = today
	t.emit(StreakFreezeOffered{
		CurrentStreak:    t.state.CurrentStreak,
		DaysMissed:       gap - 1,
		FreezesAvailable: t.state.StreakFreezesAvailable,
	})
}

// UseStreakFreeze spends one freeze to bridge the gap up to today. The streak
// count is left unchanged.
func (t *StreakTracker) UseStreakFreeze(ctx context.Context) bool {
	if !t.canUseFreeze() {
		return false
	}
	now := t.clock.Now()
	today := clock.DateString(now)

	s := &t.state
	s.StreakFreezesAvailable--
	s.LastFreezeUsedAt = &now
	s.FreezeOfferedOn = ""
	if s.LastActivityDate != today {
		s.LastActivityDate = today
		if t.activeOn(today) {
			s.TotalActiveDays++
		}
	}
	t.emit(StreakFreezeUsed{CurrentStreak: s.CurrentStreak, FreezesRemaining: s.StreakFreezesAvailable})
	t.commit(ctx)
	return true
}

// DeclineStreakFreeze lets a pending streak break. It reports false when no
// freeze decision is pending.
func (t *StreakTracker) DeclineStreakFreeze(ctx context.Context) bool {
	today := clock.Today(t.clock)
	gap, ok := t.gapTo(today)
	if !ok || gap <= 1 || t.state.CurrentStreak == 0 {
		return false
	}
	t.breakStreak(today, false)
	if t.activeOn(today) {
		t.markActive(today)
	}
	t.commit(ctx)
	return true
}

func (t *StreakTracker) activeOn(today string) bool {
	p := t.state.TodaysProgress
	return p.Date == today && (p.ShortcutsLearned > 0 || p.QuizzesCompleted > 0 || p.StudyTimeMinutes > 0)
}

func (t *StreakTracker) gapTo(today string) (int, bool) {
	if t.state.LastActivityDate == "" {
		return 0, false
	}
	gap, err := clock.DaysBetween(t.state.LastActivityDate, today)
	if err != nil {
		log.Printf("[gamification] streak gap: %v", err)
		return 0, false
	}
	return gap, true
}

// ── Reconciliation ──────────────────────────────────────

// CheckStreakStatus reconciles the streak against today's date. It is safe to
// call repeatedly: a streak already at zero is never broken again. When
// suppressNotifications is set, a freeze-eligible gap stays pending instead of
// raising an offer.
func (t *StreakTracker) CheckStreakStatus(ctx context.Context, suppressNotifications bool) StreakStatus {
	today := clock.Today(t.clock)
	status := StreakStatus{Status: StatusNone}

	gap, ok := t.gapTo(today)
	switch {
	case !ok:
	case gap <= 1:
		status.Status = StatusActive
		if t.state.CurrentStreak == 0 {
			status.Status = StatusNone
		}
	case t.state.CurrentStreak == 0:
		status.Status = StatusBroken
	case t.canUseFreeze() && gap <= maxFreezeGapDays:
		status.Status = StatusFreezeOffered
		if !suppressNotifications && t.state.FreezeOfferedOn != today {
			t.offerFreeze(today, gap)
			t.commit(ctx)
		}
	default:
		t.breakStreak(today, suppressNotifications)
		t.commit(ctx)
		status.Status = StatusBroken
	}

	if ok {
		status.DaysSinceActivity = gap
	}
	status.CurrentStreak = t.state.CurrentStreak
	status.LongestStreak = t.state.LongestStreak
	status.FreezesAvailable = t.state.StreakFreezesAvailable
	status.CanUseFreeze = status.Status == StatusFreezeOffered
	return status
}

// ── Daily goals ─────────────────────────────────────────

// CheckDailyGoals compares today's progress with the goals. The completion
// bonus event is raised at most once per date.
func (t *StreakTracker) CheckDailyGoals(ctx context.Context) DailyGoalsResult {
	today := clock.Today(t.clock)
	before := t.state.DailyGoalsCompletedDate
	res := t.evaluateGoals(today)
	if t.state.DailyGoalsCompletedDate != before {
		t.commit(ctx)
	} else {
		t.discard()
	}
	return res
}

func (t *StreakTracker) evaluateGoals(today string) DailyGoalsResult {
	p := t.todaysProgress(today)
	g := t.state.DailyGoals
	res := DailyGoalsResult{
		Goals:    g,
		Progress: p,
		GoalsCompleted: GoalsCompleted{
			Shortcuts: p.ShortcutsLearned >= g.ShortcutsLearned,
			Quizzes:   p.QuizzesCompleted >= g.QuizzesCompleted,
			StudyTime: p.StudyTimeMinutes >= g.StudyTimeMinutes,
		},
	}
	res.AllCompleted = res.GoalsCompleted.Shortcuts && res.GoalsCompleted.Quizzes && res.GoalsCompleted.StudyTime

	if res.AllCompleted && t.state.DailyGoalsCompletedDate != today {
		t.state.DailyGoalsCompletedDate = today
		t.emit(DailyGoalsCompleted{Date: today, BonusXP: DailyGoalsBonusXP})
	}
	return res
}

// UpdateDailyGoals merges the positive fields of goals into the current goals.
func (t *StreakTracker) UpdateDailyGoals(ctx context.Context, goals models.DailyGoals) models.DailyGoals {
	g := &t.state.DailyGoals
	if goals.ShortcutsLearned > 0 {
		g.ShortcutsLearned = goals.ShortcutsLearned
	}
	if goals.QuizzesCompleted > 0 {
		g.QuizzesCompleted = goals.QuizzesCompleted
	}
	if goals.StudyTimeMinutes > 0 {
		g.StudyTimeMinutes = goals.StudyTimeMinutes
	}
	t.emit(DailyGoalsUpdated{Goals: *g})
	t.evaluateGoals(clock.Today(t.clock))
	t.commit(ctx)
	return *g
}

func (t *StreakTracker) commit(ctx context.Context) {
	t.store.Save(ctx, t.state)
	t.flush(ctx)
}
