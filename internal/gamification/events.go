package gamification

import (
	"context"
	"time"

	"github.com/shortcut-sensei/backend/internal/events"
	"github.com/shortcut-sensei/backend/internal/models"
)

// Event names published on the session bus.
const (
	EventShortcutLearned      events.Name = "shortcut_learned"
	EventQuizCompleted        events.Name = "quiz_completed"
	EventTutorialCompleted    events.Name = "tutorial_completed"
	EventStudyTimeRecorded    events.Name = "study_time_recorded"
	EventCommunityJoined      events.Name = "community_joined"
	EventShortcutShared       events.Name = "shortcut_shared"
	EventExperienceGained     events.Name = "experience_gained"
	EventLevelUp              events.Name = "level_up"
	EventProgressUpdated      events.Name = "progress_updated"
	EventBadgeUnlocked        events.Name = "badge_unlocked"
	EventActivityRecorded     events.Name = "activity_recorded"
	EventStreakStarted        events.Name = "streak_started"
	EventStreakExtended       events.Name = "streak_extended"
	EventStreakBroken         events.Name = "streak_broken"
	EventStreakFreezeOffered  events.Name = "streak_freeze_offered"
	EventStreakFreezeUsed     events.Name = "streak_freeze_used"
	EventStreakMilestone      events.Name = "streak_milestone"
	EventLongestStreakUpdated events.Name = "longest_streak_updated"
	EventDailyGoalsUpdated    events.Name = "daily_goals_updated"
	EventDailyGoalsCompleted  events.Name = "daily_goals_completed"
)

// ── Reported actions ────────────────────────────────────

type ShortcutLearned struct {
	ShortcutID  string `json:"shortcut_id"`
	Application string `json:"application"`
	Difficulty  string `json:"difficulty"`
}

func (ShortcutLearned) EventName() events.Name { return EventShortcutLearned }

type QuizCompleted struct {
	QuizID                string   `json:"quiz_id"`
	Score                 int      `json:"score"`
	TotalQuestions        int      `json:"total_questions"`
	CompletionTimeSeconds *float64 `json:"completion_time_seconds,omitempty"`
}

func (QuizCompleted) EventName() events.Name { return EventQuizCompleted }

type TutorialCompleted struct {
	TutorialID string `json:"tutorial_id"`
}

func (TutorialCompleted) EventName() events.Name { return EventTutorialCompleted }

type StudyTimeRecorded struct {
	Minutes int `json:"minutes"`
}

func (StudyTimeRecorded) EventName() events.Name { return EventStudyTimeRecorded }

type CommunityJoined struct{}

func (CommunityJoined) EventName() events.Name { return EventCommunityJoined }

type ShortcutShared struct {
	ShortcutID string `json:"shortcut_id"`
}

func (ShortcutShared) EventName() events.Name { return EventShortcutShared }

// ── Progress ledger ─────────────────────────────────────

type ExperienceGained struct {
	Amount          int    `json:"amount"`
	Source          string `json:"source"`
	TotalExperience int    `json:"total_experience"`
}

func (ExperienceGained) EventName() events.Name { return EventExperienceGained }

type LevelUp struct {
	OldLevel int `json:"old_level"`
	NewLevel int `json:"new_level"`
	BonusXP  int `json:"bonus_xp"`
}

func (LevelUp) EventName() events.Name { return EventLevelUp }

type ProgressUpdated struct {
	Level           int `json:"level"`
	TotalExperience int `json:"total_experience"`
}

func (ProgressUpdated) EventName() events.Name { return EventProgressUpdated }

// ── Badge engine ────────────────────────────────────────

type BadgeUnlocked struct {
	Badge      Badge     `json:"badge"`
	UnlockedAt time.Time `json:"unlocked_at"`
}

func (BadgeUnlocked) EventName() events.Name { return EventBadgeUnlocked }

// ── Streak tracker ──────────────────────────────────────

type ActivityRecorded struct {
	Type     ActivityType          `json:"type"`
	Amount   int                   `json:"amount"`
	Progress models.TodaysProgress `json:"todays_progress"`
}

func (ActivityRecorded) EventName() events.Name { return EventActivityRecorded }

type StreakStarted struct {
	Date          string `json:"date"`
	CurrentStreak int    `json:"current_streak"`
	LongestStreak int    `json:"longest_streak"`
}

func (StreakStarted) EventName() events.Name { return EventStreakStarted }

type StreakExtended struct {
	CurrentStreak int `json:"current_streak"`
	LongestStreak int `json:"longest_streak"`
}

func (StreakExtended) EventName() events.Name { return EventStreakExtended }

// StreakBroken is Silent when raised by a reconciliation that suppresses
// notifications.
type StreakBroken struct {
	PreviousStreak int    `json:"previous_streak"`
	LongestStreak  int    `json:"longest_streak"`
	Date           string `json:"date"`
	Silent         bool   `json:"silent,omitempty"`
}

func (StreakBroken) EventName() events.Name { return EventStreakBroken }

type StreakFreezeOffered struct {
	CurrentStreak    int `json:"current_streak"`
	DaysMissed       int `json:"days_missed"`
	FreezesAvailable int `json:"freezes_available"`
}

func (StreakFreezeOffered) EventName() events.Name { return EventStreakFreezeOffered }

type StreakFreezeUsed struct {
	CurrentStreak    int `json:"current_streak"`
	FreezesRemaining int `json:"freezes_remaining"`
}

func (StreakFreezeUsed) EventName() events.Name { return EventStreakFreezeUsed }

type StreakMilestone struct {
	Days          int  `json:"days"`
	FreezeAwarded bool `json:"freeze_awarded"`
}

func (StreakMilestone) EventName() events.Name { return EventStreakMilestone }

type LongestStreakUpdated struct {
	LongestStreak int `json:"longest_streak"`
}

func (LongestStreakUpdated) EventName() events.Name { return EventLongestStreakUpdated }

type DailyGoalsUpdated struct {
	Goals models.DailyGoals `json:"goals"`
}

func (DailyGoalsUpdated) EventName() events.Name { return EventDailyGoalsUpdated }

type DailyGoalsCompleted struct {
	Date    string `json:"date"`
	BonusXP int    `json:"bonus_xp"`
}

func (DailyGoalsCompleted) EventName() events.Name { return EventDailyGoalsCompleted }

// outbox holds events raised during a mutation until its state is persisted.
type outbox struct {
	bus     *events.Bus
	pending []events.Payload
}

func (o *outbox) emit(p events.Payload) {
	o.pending = append(o.pending, p)
}

func (o *outbox) discard() {
	o.pending = nil
}

func (o *outbox) flush(ctx context.Context) {
	pending := o.pending
	o.pending = nil
	if o.bus == nil {
		return
	}
	for _, p := range pending {
		o.bus.Publish(ctx, p)
	}
}
