package gamification

import "math"

// Difficulty levels a shortcut can carry.
const (
	DifficultyBeginner     = "beginner"
	DifficultyIntermediate = "intermediate"
	DifficultyAdvanced     = "advanced"
	DifficultyExpert       = "expert"
)

const (
	TutorialXP        = 75
	DailyGoalsBonusXP = 100
	quizBaseXP        = 100
	quizFastBonusXP   = 25
	quizFastSeconds   = 60
	levelBonusPerLvl  = 50
	maxStreakBonusXP  = 100
)

// CumulativeXPForLevel returns the total XP needed to reach level n.
// Level n requires Σ_{i=2..n} i*100: level 2 at 100, 3 at 300, 4 at 600.
func CumulativeXPForLevel(n int) int {
	if n <= 1 {
		return 0
	}
	// Σ_{i=2..n} i = n(n+1)/2 - 1
	return (n*(n+1)/2 - 1) * 100
}

// LevelFromXP returns the greatest level whose cumulative requirement is
// covered by totalXP. Level 1 needs nothing.
func LevelFromXP(totalXP int) int {
	if totalXP < 0 {
		return 1
	}
	level := 1
	for CumulativeXPForLevel(level+1) <= totalXP {
		level++
	}
	return level
}

// LevelUpBonus is the XP granted on reaching newLevel.
func LevelUpBonus(newLevel int) int {
	return newLevel * levelBonusPerLvl
}

// XPForDifficulty returns XP for learning a shortcut of the given difficulty.
func XPForDifficulty(difficulty string) int {
	switch difficulty {
	case DifficultyIntermediate:
		return 50
	case DifficultyAdvanced:
		return 100
	case DifficultyExpert:
		return 150
	default:
		return 25
	}
}

// QuizXP rewards the score and adds a bonus for quizzes finished in under a
// minute. A nil or non-positive time earns no bonus.
func QuizXP(score int, completionTimeSeconds *float64) int {
	xp := int(math.Round(float64(quizBaseXP) * float64(score) / 100))
	if completionTimeSeconds != nil && *completionTimeSeconds > 0 && *completionTimeSeconds < quizFastSeconds {
		xp += quizFastBonusXP
	}
	return xp
}

// StreakBonusXP is awarded each time a streak is extended.
func StreakBonusXP(currentStreak int) int {
	bonus := currentStreak * 5
	if bonus > maxStreakBonusXP {
		return maxStreakBonusXP
	}
	return bonus
}

// RunningAverage folds score into an average over n values, where n counts
// the new value.
func RunningAverage(oldAvg float64, n int, score float64) float64 {
	if n <= 0 {
		return 0
	}
	return (oldAvg*float64(n-1) + score) / float64(n)
}
