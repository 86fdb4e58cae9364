package models

import "time"

// ── Progress Ledger State ─────────────────────────────────

type ProgressState struct {
	Level           int         `json:"level"`
	Experience      int         `json:"experience"`
	TotalExperience int         `json:"total_experience"`
	Statistics      Statistics  `json:"statistics"`
	Milestones      []Milestone `json:"milestones"`
}

type Statistics struct {
	ShortcutsLearned     int          `json:"shortcuts_learned"`
	QuizzesCompleted     int          `json:"quizzes_completed"`
	TutorialsCompleted   int          `json:"tutorials_completed"`
	TotalStudyTimeMs     int64        `json:"total_study_time_ms"`
	AverageQuizScore     float64      `json:"average_quiz_score"`
	CurrentStreak        int          `json:"current_streak"`
	LongestStreak        int          `json:"longest_streak"`
	BadgesEarned         int          `json:"badges_earned"`
	PerfectQuizzes       int          `json:"perfect_quizzes"`
	ApplicationsMastered []AppMastery `json:"applications_mastered"`
	LastActivityAt       *time.Time   `json:"last_activity_at,omitempty"`
}

type AppMastery struct {
	Name        string    `json:"name"`
	Count       int       `json:"count"`
	FirstSeenAt time.Time `json:"first_seen_at"`
}

// Milestone is a notable progress moment (level-up, badge) kept for display.
type Milestone struct {
	Title string    `json:"title"`
	Kind  string    `json:"kind"`
	At    time.Time `json:"at"`
}

// ── Streak Tracker State ──────────────────────────────────

// StreakState dates are YYYY-MM-DD strings; "" means unset.
type StreakState struct {
	CurrentStreak           int            `json:"current_streak"`
	LongestStreak           int            `json:"longest_streak"`
	LastActivityDate        string         `json:"last_activity_date,omitempty"`
	StreakStartDate         string         `json:"streak_start_date,omitempty"`
	TotalActiveDays         int            `json:"total_active_days"`
	StreakFreezesAvailable  int            `json:"streak_freezes_available"`
	LastFreezeUsedAt        *time.Time     `json:"last_freeze_used_at,omitempty"`
	FreezeOfferedOn         string         `json:"freeze_offered_on,omitempty"`
	BrokenOn                string         `json:"broken_on,omitempty"`
	DailyGoals              DailyGoals     `json:"daily_goals"`
	TodaysProgress          TodaysProgress `json:"todays_progress"`
	DailyGoalsCompletedDate string         `json:"daily_goals_completed_date,omitempty"`
	MilestoneAchievements   []int          `json:"milestone_achievements"`
	History                 []StreakRecord `json:"history"`
}

type DailyGoals struct {
	ShortcutsLearned int `json:"shortcuts_learned"`
	QuizzesCompleted int `json:"quizzes_completed"`
	StudyTimeMinutes int `json:"study_time_minutes"`
}

type TodaysProgress struct {
	Date             string     `json:"date,omitempty"`
	ShortcutsLearned int        `json:"shortcuts_learned"`
	QuizzesCompleted int        `json:"quizzes_completed"`
	StudyTimeMinutes int        `json:"study_time_minutes"`
	LastUpdatedAt    *time.Time `json:"last_updated_at,omitempty"`
}

// StreakRecord describes a streak that has ended.
type StreakRecord struct {
	Length     int    `json:"length"`
	StartDate  string `json:"start_date,omitempty"`
	EndDate    string `json:"end_date,omitempty"`
	BrokenDate string `json:"broken_date"`
}

// ── Badge Engine State ────────────────────────────────────

type BadgeState struct {
	Metrics  map[string]float64 `json:"metrics"`
	Unlocked []UnlockedBadge    `json:"unlocked"`
}

type UnlockedBadge struct {
	BadgeID    string    `json:"badge_id"`
	UnlockedAt time.Time `json:"unlocked_at"`
}

// ── Request Types ─────────────────────────────────────────

type LearnShortcutRequest struct {
	ShortcutID  string `json:"shortcut_id"`
	Application string `json:"application"`
	Difficulty  string `json:"difficulty"`
}

type CompleteQuizRequest struct {
	QuizID                string   `json:"quiz_id"`
	Score                 int      `json:"score"`
	TotalQuestions        int      `json:"total_questions"`
	CompletionTimeSeconds *float64 `json:"completion_time_seconds,omitempty"`
}

type CompleteTutorialRequest struct {
	TutorialID string `json:"tutorial_id"`
}

type StudyTimeRequest struct {
	Minutes int `json:"minutes"`
}

type ShareShortcutRequest struct {
	ShortcutID string `json:"shortcut_id"`
}

// SetDailyGoalsRequest fields left at zero keep their current value.
type SetDailyGoalsRequest struct {
	ShortcutsLearned int `json:"shortcuts_learned"`
	QuizzesCompleted int `json:"quizzes_completed"`
	StudyTimeMinutes int `json:"study_time_minutes"`
}
