package gamification

import (
	"errors"
	"fmt"
	"strings"
)

// Direction says how a metric's value compares against a badge target.
type Direction int

const (
	// Increasing counters unlock once value >= target.
	Increasing Direction = iota
	// HighWaterMark values only ever rise to max(old, new); value >= target.
	HighWaterMark
	// Decreasing values are best when small; unlock once 0 < value < target.
	Decreasing
)

func (d Direction) String() string {
	switch d {
	case Increasing:
		return "increasing"
	case HighWaterMark:
		return "high_water_mark"
	case Decreasing:
		return "decreasing"
	default:
		return fmt.Sprintf("direction(%d)", int(d))
	}
}

func (d Direction) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Satisfied reports whether value meets target in direction d.
func (d Direction) Satisfied(value, target float64) bool {
	switch d {
	case Decreasing:
		return value > 0 && value < target
	default:
		return value >= target
	}
}

// Metric names produced by the ledger, the streak tracker and the coordinator.
const (
	MetricTutorialsCompleted    = "tutorials_completed"
	MetricShortcutsLearned      = "shortcuts_learned"
	MetricQuizzesCompleted      = "quizzes_completed"
	MetricPerfectQuizScore      = "perfect_quiz_score"
	MetricFastQuizCompletion    = "fast_quiz_completion"
	MetricStreakDays            = "streak_days"
	MetricStreakRestored        = "streak_restored"
	MetricStreakMilestones      = "streak_milestones"
	MetricLevelReached          = "level_reached"
	MetricCommunityJoined       = "community_joined"
	MetricShortcutsShared       = "shortcuts_shared"
	MetricLearningSession       = "learning_session"
	MetricEarlyLearningSessions = "early_learning_sessions"
	MetricLateLearningSessions  = "late_learning_sessions"
	MetricWeekendSessions       = "weekend_sessions"
	MetricDailyGoalsCompleted   = "daily_goals_completed"

	appMetricPrefix = "app_shortcuts_"
)

// metricDirections is the registry of known metrics. App-scoped metrics
// (app_shortcuts_<app>) are Increasing and resolved by prefix.
var metricDirections = map[string]Direction{
	MetricTutorialsCompleted:    Increasing,
	MetricShortcutsLearned:      Increasing,
	MetricQuizzesCompleted:      Increasing,
	MetricPerfectQuizScore:      Increasing,
	MetricFastQuizCompletion:    Decreasing,
	MetricStreakDays:            HighWaterMark,
	MetricStreakRestored:        Increasing,
	MetricStreakMilestones:      Increasing,
	MetricLevelReached:          HighWaterMark,
	MetricCommunityJoined:       Increasing,
	MetricShortcutsShared:       Increasing,
	MetricEarlyLearningSessions: Increasing,
	MetricLateLearningSessions:  Increasing,
	MetricWeekendSessions:       Increasing,
	MetricDailyGoalsCompleted:   Increasing,
}

// AppMetric returns the metric key counting shortcuts learned in app.
func AppMetric(app string) string {
	return appMetricPrefix + strings.ToLower(strings.TrimSpace(app))
}

// MetricDirection looks up a metric in the registry.
func MetricDirection(metric string) (Direction, bool) {
	if d, ok := metricDirections[metric]; ok {
		return d, true
	}
	if strings.HasPrefix(metric, appMetricPrefix) && len(metric) > len(appMetricPrefix) {
		return Increasing, true
	}
	return 0, false
}

// Tier is a badge's difficulty tier.
type Tier string

const (
	TierBronze   Tier = "bronze"
	TierSilver   Tier = "silver"
	TierGold     Tier = "gold"
	TierPlatinum Tier = "platinum"
)

// Condition unlocks a badge once Metric reaches Target in Direction. When App
// is set the condition reads the app-scoped counter instead of Metric.
type Condition struct {
	Metric    string    `json:"metric"`
	Target    float64   `json:"target"`
	App       string    `json:"app,omitempty"`
	Direction Direction `json:"direction"`
}

// Key is the metric key the condition is evaluated against.
func (c Condition) Key() string {
	if c.App != "" {
		return AppMetric(c.App)
	}
	return c.Metric
}

type Badge struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Icon        string    `json:"icon"`
	Category    string    `json:"category"`
	Tier        Tier      `json:"tier"`
	Condition   Condition `json:"condition"`
	XPReward    int       `json:"xp_reward"`
}

// ── Catalog ─────────────────────────────────────────────

// Catalog lists every badge in evaluation order.
var Catalog = []Badge{
	// Learning
	{ID: "first_steps", Name: "First Steps", Description: "Complete your first tutorial", Icon: "👶", Category: "learning", Tier: TierBronze,
		Condition: Condition{Metric: MetricTutorialsCompleted, Target: 1}, XPReward: 50},
	{ID: "knowledge_seeker", Name: "Knowledge Seeker", Description: "Complete 5 tutorials", Icon: "📚", Category: "learning", Tier: TierSilver,
		Condition: Condition{Metric: MetricTutorialsCompleted, Target: 5}, XPReward: 150},
	{ID: "tutorial_master", Name: "Tutorial Master", Description: "Complete all available tutorials", Icon: "🎓", Category: "learning", Tier: TierGold,
		Condition: Condition{Metric: MetricTutorialsCompleted, Target: 10}, XPReward: 500},

	// Shortcuts
	{ID: "shortcut_novice", Name: "Shortcut Novice", Description: "Learn your first 5 shortcuts", Icon: "⌨️", Category: "shortcuts", Tier: TierBronze,
		Condition: Condition{Metric: MetricShortcutsLearned, Target: 5}, XPReward: 100},
	{ID: "shortcut_apprentice", Name: "Shortcut Apprentice", Description: "Learn 25 shortcuts", Icon: "🔑", Category: "shortcuts", Tier: TierSilver,
		Condition: Condition{Metric: MetricShortcutsLearned, Target: 25}, XPReward: 250},
	{ID: "shortcut_expert", Name: "Shortcut Expert", Description: "Learn 50 shortcuts", Icon: "⚡", Category: "shortcuts", Tier: TierGold,
		Condition: Condition{Metric: MetricShortcutsLearned, Target: 50}, XPReward: 500},
	{ID: "shortcut_sensei", Name: "Shortcut Sensei", Description: "Master 100 shortcuts", Icon: "🥷", Category: "shortcuts", Tier: TierPlatinum,
		Condition: Condition{Metric: MetricShortcutsLearned, Target: 100}, XPReward: 1000},

	// Quizzes
	{ID: "quiz_starter", Name: "Quiz Starter", Description: "Complete your first quiz", Icon: "🎯", Category: "quizzes", Tier: TierBronze,
		Condition: Condition{Metric: MetricQuizzesCompleted, Target: 1}, XPReward: 75},
	{ID: "quiz_champion", Name: "Quiz Champion", Description: "Complete 10 quizzes", Icon: "🏆", Category: "quizzes", Tier: TierSilver,
		Condition: Condition{Metric: MetricQuizzesCompleted, Target: 10}, XPReward: 300},
	{ID: "perfect_score", Name: "Perfect Score", Description: "Get 100% on any quiz", Icon: "💯", Category: "quizzes", Tier: TierGold,
		Condition: Condition{Metric: MetricPerfectQuizScore, Target: 1}, XPReward: 200},
	{ID: "quiz_perfectionist", Name: "Quiz Perfectionist", Description: "Get perfect scores on 5 quizzes", Icon: "🌟", Category: "quizzes", Tier: TierPlatinum,
		Condition: Condition{Metric: MetricPerfectQuizScore, Target: 5}, XPReward: 750},

	// Streaks
	{ID: "dedication_starter", Name: "Dedication Starter", Description: "Maintain a 3-day learning streak", Icon: "🔥", Category: "streaks", Tier: TierBronze,
		Condition: Condition{Metric: MetricStreakDays, Target: 3, Direction: HighWaterMark}, XPReward: 100},
	{ID: "consistent_learner", Name: "Consistent Learner", Description: "Maintain a 7-day learning streak", Icon: "📅", Category: "streaks", Tier: TierSilver,
		Condition: Condition{Metric: MetricStreakDays, Target: 7, Direction: HighWaterMark}, XPReward: 250},
	{ID: "streak_warrior", Name: "Streak Warrior", Description: "Maintain a 30-day learning streak", Icon: "⚔️", Category: "streaks", Tier: TierGold,
		Condition: Condition{Metric: MetricStreakDays, Target: 30, Direction: HighWaterMark}, XPReward: 1000},
	{ID: "streak_legend", Name: "Streak Legend", Description: "Maintain a 100-day learning streak", Icon: "👑", Category: "streaks", Tier: TierPlatinum,
		Condition: Condition{Metric: MetricStreakDays, Target: 100, Direction: HighWaterMark}, XPReward: 2500},

	// Time of day
	{ID: "early_bird", Name: "Early Bird", Description: "Learn shortcuts before 9 AM", Icon: "🐦", Category: "time", Tier: TierSilver,
		Condition: Condition{Metric: MetricEarlyLearningSessions, Target: 5}, XPReward: 150},
	{ID: "night_owl", Name: "Night Owl", Description: "Learn shortcuts after 9 PM", Icon: "🦉", Category: "time", Tier: TierSilver,
		Condition: Condition{Metric: MetricLateLearningSessions, Target: 5}, XPReward: 150},
	{ID: "weekend_warrior", Name: "Weekend Warrior", Description: "Complete learning sessions on weekends", Icon: "🏋️", Category: "time", Tier: TierBronze,
		Condition: Condition{Metric: MetricWeekendSessions, Target: 5}, XPReward: 100},

	// Applications
	{ID: "chrome_expert", Name: "Chrome Expert", Description: "Master 10 Chrome shortcuts", Icon: "🌐", Category: "applications", Tier: TierSilver,
		Condition: Condition{Metric: "app_shortcuts", App: "chrome", Target: 10}, XPReward: 200},
	{ID: "vscode_ninja", Name: "VS Code Ninja", Description: "Master 15 VS Code shortcuts", Icon: "💻", Category: "applications", Tier: TierGold,
		Condition: Condition{Metric: "app_shortcuts", App: "vscode", Target: 15}, XPReward: 300},
	{ID: "windows_wizard", Name: "Windows Wizard", Description: "Master 20 Windows shortcuts", Icon: "🪟", Category: "applications", Tier: TierGold,
		Condition: Condition{Metric: "app_shortcuts", App: "windows", Target: 20}, XPReward: 350},

	// Social
	{ID: "community_member", Name: "Community Member", Description: "Join the Shortcut Sensei community", Icon: "👥", Category: "social", Tier: TierBronze,
		Condition: Condition{Metric: MetricCommunityJoined, Target: 1}, XPReward: 50},
	{ID: "helpful_contributor", Name: "Helpful Contributor", Description: "Share 5 shortcuts with the community", Icon: "🤝", Category: "social", Tier: TierSilver,
		Condition: Condition{Metric: MetricShortcutsShared, Target: 5}, XPReward: 200},

	// Special
	{ID: "speed_demon", Name: "Speed Demon", Description: "Complete a quiz in under 30 seconds", Icon: "💨", Category: "special", Tier: TierGold,
		Condition: Condition{Metric: MetricFastQuizCompletion, Target: 30, Direction: Decreasing}, XPReward: 300},
	{ID: "comeback_kid", Name: "Comeback Kid", Description: "Restore a broken streak", Icon: "🔄", Category: "special", Tier: TierSilver,
		Condition: Condition{Metric: MetricStreakRestored, Target: 1}, XPReward: 150},
	{ID: "milestone_crusher", Name: "Milestone Crusher", Description: "Reach level 10", Icon: "🎖️", Category: "special", Tier: TierGold,
		Condition: Condition{Metric: MetricLevelReached, Target: 10, Direction: HighWaterMark}, XPReward: 500},
}

var (
	ErrDuplicateBadge    = errors.New("duplicate badge id")
	ErrInvalidCondition  = errors.New("invalid badge condition")
	ErrDirectionMismatch = errors.New("badge direction does not match metric")
)

// ValidateCatalog checks a catalog for programmer errors. A condition on a
// metric missing from the registry is allowed; it can never be satisfied.
func ValidateCatalog(badges []Badge) error {
	seen := make(map[string]bool, len(badges))
	for _, b := range badges {
		if b.ID == "" {
			return fmt.Errorf("%w: empty id", ErrInvalidCondition)
		}
		if seen[b.ID] {
			return fmt.Errorf("%w: %s", ErrDuplicateBadge, b.ID)
		}
		seen[b.ID] = true

		c := b.Condition
		if c.Metric == "" {
			return fmt.Errorf("%w: %s has no metric", ErrInvalidCondition, b.ID)
		}
		if c.Target <= 0 {
			return fmt.Errorf("%w: %s target %v", ErrInvalidCondition, b.ID, c.Target)
		}
		if b.XPReward < 0 {
			return fmt.Errorf("%w: %s negative xp reward", ErrInvalidCondition, b.ID)
		}
		if d, ok := MetricDirection(c.Key()); ok && d != c.Direction {
			return fmt.Errorf("%w: %s uses %s, %s is %s", ErrDirectionMismatch, b.ID, c.Direction, c.Key(), d)
		}
	}
	return nil
}
