package recommend

import (
	"cmp"
	"math"
	"slices"
	"time"

	"github.com/shortcut-sensei/backend/internal/shortcuts"
)

type Source string

const (
	SourceSkill      Source = "skill"
	SourceContent    Source = "content"
	SourceContextual Source = "contextual"
	SourceSequence   Source = "sequence"
)

// Weights scale each source's score before candidates are combined.
var Weights = map[Source]float64{
	SourceSkill:      0.25,
	SourceContent:    0.25,
	SourceContextual: 0.2,
	SourceSequence:   0.3,
}

// Candidate is one source's opinion of one shortcut.
type Candidate struct {
	Shortcut shortcuts.Shortcut
	Source   Source
	Score    float64
}

// Profile is what the sources know about the learner.
type Profile struct {
	Level int
	// Applications counts learned shortcuts per application, keyed by
	// shortcuts.AppKey.
	Applications map[string]int
	Today        *shortcuts.Shortcut
	CurrentApp   string
	Now          time.Time
}

// ── Skill ───────────────────────────────────────────────

var difficulties = []string{"beginner", "intermediate", "advanced", "expert"}

// difficultyScores place each difficulty on the same 0-100 scale as Ability.
var difficultyScores = map[string]int{
	"beginner":     15,
	"intermediate": 40,
	"advanced":     65,
	"expert":       90,
}

// SkillBand maps a level to the difficulty the learner is comfortable with.
func SkillBand(level int) string {
	switch {
	case level >= 20:
		return "expert"
	case level >= 10:
		return "advanced"
	case level >= 5:
		return "intermediate"
	default:
		return "beginner"
	}
}

// NextDifficulty is one step above band, capped at expert.
func NextDifficulty(band string) string {
	i := slices.Index(difficulties, band)
	if i < 0 {
		return "intermediate"
	}
	return difficulties[min(i+1, len(difficulties)-1)]
}

// Ability converts a level to a 0-100 score.
func Ability(level int) int {
	return min(max(level*5, 0), 100)
}

// ExpectedAccuracy returns the probability a learner with the given ability
// recalls a shortcut with the given difficulty score.
// Uses a sigmoid centered on 0 with scaling factor 12.5.
func ExpectedAccuracy(ability, difficultyScore int) float64 {
	x := float64(ability-difficultyScore) / 12.5
	return 1.0 / (1.0 + math.Exp(-x))
}

// skillCandidates proposes shortcuts one difficulty above the learner's band.
func skillCandidates(catalog []shortcuts.Shortcut, p Profile) []Candidate {
	target := NextDifficulty(SkillBand(p.Level))
	score := 0.5 + 0.5*ExpectedAccuracy(Ability(p.Level), difficultyScores[target])

	var out []Candidate
	for _, s := range catalog {
		if s.Difficulty == target {
			out = append(out, Candidate{Shortcut: s, Source: SourceSkill, Score: score})
		}
	}
	return out
}

// ── Content ─────────────────────────────────────────────

func difficultyGap(a, b string) int {
	i, j := slices.Index(difficulties, a), slices.Index(difficulties, b)
	if i < 0 {
		i = 1
	}
	if j < 0 {
		j = 1
	}
	if i > j {
		return i - j
	}
	return j - i
}

// contentCandidates proposes more shortcuts for applications the learner
// already practises.
func contentCandidates(catalog []shortcuts.Shortcut, p Profile) []Candidate {
	band := SkillBand(p.Level)

	var out []Candidate
	for _, s := range catalog {
		count := p.Applications[shortcuts.AppKey(s.Application)]
		if count == 0 {
			continue
		}
		score := 0.5 + math.Min(float64(count)*0.01, 0.3)
		if difficultyGap(s.Difficulty, band) <= 1 {
			score += 0.2
		}
		out = append(out, Candidate{Shortcut: s, Source: SourceContent, Score: math.Min(score, 1)})
	}
	return out
}

// ── Contextual ──────────────────────────────────────────

var weekendBoosted = []string{"browsing", "communication"}

// contextualCandidates scores shortcuts against the time of day and the
// application the learner is in, when known.
func contextualCandidates(catalog []shortcuts.Shortcut, p Profile) []Candidate {
	current := shortcuts.AppKey(p.CurrentApp)
	hour := p.Now.Hour()
	weekend := p.Now.Weekday() == time.Saturday || p.Now.Weekday() == time.Sunday

	var out []Candidate
	for _, s := range catalog {
		score := 0.5
		if current != "" {
			if shortcuts.AppKey(s.Application) != current {
				continue
			}
			score += 0.3
		}
		if !weekend && hour >= 9 && hour <= 17 && s.Category == "productivity" {
			score += 0.2
		}
		if weekend && slices.Contains(weekendBoosted, s.Category) {
			score += 0.2
		}
		out = append(out, Candidate{Shortcut: s, Source: SourceContextual, Score: math.Min(score, 1)})
	}
	return out
}

// ── Sequence ────────────────────────────────────────────

// sequenceCandidates follows on from today's shortcut: its related shortcuts
// first, then others from the same application and category.
func sequenceCandidates(catalog []shortcuts.Shortcut, p Profile) []Candidate {
	if p.Today == nil {
		return nil
	}
	today := *p.Today

	var out []Candidate
	for _, s := range shortcuts.RelatedTo(catalog, today) {
		out = append(out, Candidate{Shortcut: s, Source: SourceSequence, Score: 0.8})
	}
	for _, s := range catalog {
		if s.ID == today.ID || slices.Contains(today.Related, s.ID) {
			continue
		}
		if s.Application == today.Application && s.Category == today.Category {
			out = append(out, Candidate{Shortcut: s, Source: SourceSequence, Score: 0.6})
		}
	}
	return out
}

// top sorts by score, highest first with ties by id, and keeps n.
func top(cands []Candidate, n int) []Candidate {
	slices.SortStableFunc(cands, func(a, b Candidate) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.Shortcut.ID, b.Shortcut.ID)
	})
	if len(cands) > n {
		cands = cands[:n]
	}
	return cands
}
