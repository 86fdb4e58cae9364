package recommend

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shortcut-sensei/backend/internal/shortcuts"
)

var (
	wednesdayMorning = time.Date(2026, 10, 14, 10, 0, 0, 0, time.UTC)
	wednesdayNight   = time.Date(2026, 10, 14, 22, 0, 0, 0, time.UTC)
	saturdayMorning  = time.Date(2026, 10, 17, 10, 0, 0, 0, time.UTC)
)

func sc(id, app, category, difficulty string, related ...string) shortcuts.Shortcut {
	return shortcuts.Shortcut{ID: id, Application: app, Category: category, Difficulty: difficulty, Related: related}
}

func candidateIDs(cands []Candidate) []string {
	out := make([]string, 0, len(cands))
	for _, c := range cands {
		out = append(out, c.Shortcut.ID)
	}
	return out
}

func recIDs(recs []Recommendation) []string {
	out := make([]string, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.Shortcut.ID)
	}
	return out
}

func TestSkillBands(t *testing.T) {
	tests := []struct {
		level int
		band  string
		next  string
	}{
		{1, "beginner", "intermediate"},
		{4, "beginner", "intermediate"},
		{5, "intermediate", "advanced"},
		{10, "advanced", "expert"},
		{25, "expert", "expert"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.band, SkillBand(tt.level), "level %d", tt.level)
		assert.Equal(t, tt.next, NextDifficulty(SkillBand(tt.level)), "level %d", tt.level)
	}
	assert.Equal(t, "intermediate", NextDifficulty("unknown"))
}

func TestExpectedAccuracy(t *testing.T) {
	assert.InDelta(t, 0.5, ExpectedAccuracy(50, 50), 1e-9)
	assert.Greater(t, ExpectedAccuracy(80, 40), 0.9)
	assert.Less(t, ExpectedAccuracy(5, 40), 0.1)
	assert.Equal(t, 100, Ability(40))
	assert.Equal(t, 5, Ability(1))
}

func TestSkillCandidatesTargetNextDifficulty(t *testing.T) {
	catalog := []shortcuts.Shortcut{
		sc("a", "Chrome", "browsing", "beginner"),
		sc("b", "Chrome", "browsing", "intermediate"),
		sc("c", "Word", "text", "advanced"),
	}

	cands := skillCandidates(catalog, Profile{Level: 1})
	require.Len(t, cands, 1)
	assert.Equal(t, "b", cands[0].Shortcut.ID)
	assert.InDelta(t, 0.5+0.5*ExpectedAccuracy(5, 40), cands[0].Score, 1e-9)

	assert.Equal(t, []string{"c"}, candidateIDs(skillCandidates(catalog, Profile{Level: 7})))
}

func TestContentCandidatesFollowKnownApps(t *testing.T) {
	catalog := []shortcuts.Shortcut{
		sc("easy", "Chrome", "browsing", "beginner"),
		sc("hard", "Chrome", "browsing", "advanced"),
		sc("other", "Word", "text", "beginner"),
	}
	p := Profile{Level: 1, Applications: map[string]int{"chrome": 10}}

	cands := contentCandidates(catalog, p)
	require.Len(t, cands, 2)
	assert.Equal(t, "easy", cands[0].Shortcut.ID)
	assert.InDelta(t, 0.8, cands[0].Score, 1e-9)
	assert.Equal(t, "hard", cands[1].Shortcut.ID)
	assert.InDelta(t, 0.6, cands[1].Score, 1e-9, "two difficulties away earns no skill bonus")

	p.Applications["chrome"] = 500
	assert.InDelta(t, 1.0, contentCandidates(catalog, p)[0].Score, 1e-9)
}

func TestContextualCandidates(t *testing.T) {
	catalog := []shortcuts.Shortcut{
		sc("prod", "Windows", "productivity", "beginner"),
		sc("web", "Chrome", "browsing", "beginner"),
		sc("code", "VS Code", "navigation", "intermediate"),
	}

	scores := func(p Profile) map[string]float64 {
		out := map[string]float64{}
		for _, c := range contextualCandidates(catalog, p) {
			out[c.Shortcut.ID] = c.Score
		}
		return out
	}

	work := scores(Profile{Now: wednesdayMorning})
	assert.InDelta(t, 0.7, work["prod"], 1e-9)
	assert.InDelta(t, 0.5, work["web"], 1e-9)

	evening := scores(Profile{Now: wednesdayNight})
	assert.InDelta(t, 0.5, evening["prod"], 1e-9)

	weekend := scores(Profile{Now: saturdayMorning})
	assert.InDelta(t, 0.5, weekend["prod"], 1e-9)
	assert.InDelta(t, 0.7, weekend["web"], 1e-9)

	inEditor := scores(Profile{Now: wednesdayNight, CurrentApp: "vs code"})
	require.Len(t, inEditor, 1)
	assert.InDelta(t, 0.8, inEditor["code"], 1e-9)
}

func TestSequenceCandidatesFollowToday(t *testing.T) {
	today := sc("t", "Chrome", "browsing", "beginner", "w", "missing")
	catalog := []shortcuts.Shortcut{
		today,
		sc("w", "Chrome", "browsing", "beginner"),
		sc("y", "Chrome", "browsing", "beginner"),
		sc("z", "Chrome", "text", "beginner"),
	}

	assert.Nil(t, sequenceCandidates(catalog, Profile{}))

	cands := sequenceCandidates(catalog, Profile{Today: &today})
	require.Len(t, cands, 2)
	assert.Equal(t, "w", cands[0].Shortcut.ID)
	assert.Equal(t, 0.8, cands[0].Score)
	assert.Equal(t, "y", cands[1].Shortcut.ID)
	assert.Equal(t, 0.6, cands[1].Score)
}

func TestEnsembleCombinesSources(t *testing.T) {
	a, b, c := sc("a", "", "", ""), sc("b", "", "", ""), sc("c", "", "", "")
	cands := []Candidate{
		{Shortcut: c, Source: SourceContent, Score: 0.8},
		{Shortcut: a, Source: SourceSkill, Score: 0.8},
		{Shortcut: b, Source: SourceContextual, Score: 1.0},
		{Shortcut: a, Source: SourceSequence, Score: 0.6},
	}

	recs := Ensemble(cands, 10)
	require.Equal(t, []string{"a", "b", "c"}, recIDs(recs), "ties break by id")

	assert.InDelta(t, 0.38, recs[0].Score, 1e-9)
	assert.Equal(t, 0.5, recs[0].Confidence)
	assert.Equal(t, []Source{SourceSkill, SourceSequence}, recs[0].Sources)
	assert.Equal(t, "Builds on today's shortcut, Appropriate for your skill level", recs[0].Reasoning)

	assert.Equal(t, 0.25, recs[1].Confidence)
	assert.Equal(t, "Relevant to current context", recs[1].Reasoning)

	assert.Equal(t, []string{"a", "b"}, recIDs(Ensemble(cands, 2)))
	assert.Empty(t, Ensemble(nil, 5))
}

func TestRecommendEndToEnd(t *testing.T) {
	today := sc("t", "Chrome", "browsing", "beginner", "w")
	catalog := []shortcuts.Shortcut{
		today,
		sc("w", "Chrome", "browsing", "intermediate"),
		sc("y", "Chrome", "browsing", "beginner"),
		sc("p", "Word", "productivity", "intermediate"),
	}
	p := Profile{
		Level:        1,
		Applications: map[string]int{"chrome": 10},
		Today:        &today,
		Now:          wednesdayMorning,
	}

	recs := Recommend(catalog, p, 4)
	require.Equal(t, []string{"w", "y", "p"}, recIDs(recs))

	skill := 0.5 + 0.5*ExpectedAccuracy(5, 40)
	assert.InDelta(t, 0.8*0.3+0.8*0.25+skill*0.25+0.5*0.2, recs[0].Score, 1e-9)
	assert.Equal(t, 1.0, recs[0].Confidence)
	assert.Equal(t, "Builds on today's shortcut, Matches apps you already use, Appropriate for your skill level, Relevant to current context", recs[0].Reasoning)
	assert.InDelta(t, 0.6*0.3+0.8*0.25, recs[1].Score, 1e-9)
	assert.InDelta(t, skill*0.25+0.7*0.2, recs[2].Score, 1e-9)

	assert.Len(t, catalog, 4, "catalog is not modified")
	assert.Empty(t, Recommend(catalog, p, 0))
}
