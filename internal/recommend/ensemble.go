package recommend

import (
	"cmp"
	"math"
	"slices"
	"strings"

	"github.com/shortcut-sensei/backend/internal/shortcuts"
)

type Recommendation struct {
	Shortcut   shortcuts.Shortcut `json:"shortcut"`
	Score      float64            `json:"score"`
	Confidence float64            `json:"confidence"`
	Reasoning  string             `json:"reasoning"`
	Sources    []Source           `json:"sources"`
}

var reasons = []struct {
	source Source
	text   string
}{
	{SourceSequence, "Builds on today's shortcut"},
	{SourceContent, "Matches apps you already use"},
	{SourceSkill, "Appropriate for your skill level"},
	{SourceContextual, "Relevant to current context"},
}

// Ensemble merges candidates per shortcut. Each candidate adds
// score*weight; confidence grows by 0.25 per distinct source.
func Ensemble(cands []Candidate, count int) []Recommendation {
	byID := map[string]*Recommendation{}
	var order []string
	for _, c := range cands {
		rec, ok := byID[c.Shortcut.ID]
		if !ok {
			rec = &Recommendation{Shortcut: c.Shortcut}
			byID[c.Shortcut.ID] = rec
			order = append(order, c.Shortcut.ID)
		}
		rec.Score += c.Score * Weights[c.Source]
		if !slices.Contains(rec.Sources, c.Source) {
			rec.Sources = append(rec.Sources, c.Source)
		}
	}

	out := make([]Recommendation, 0, len(order))
	for _, id := range order {
		rec := byID[id]
		rec.Confidence = math.Min(float64(len(rec.Sources))*0.25, 1)
		rec.Reasoning = reasoning(rec.Sources)
		out = append(out, *rec)
	}

	slices.SortStableFunc(out, func(a, b Recommendation) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.Shortcut.ID, b.Shortcut.ID)
	})
	if count >= 0 && len(out) > count {
		out = out[:count]
	}
	return out
}

func reasoning(sources []Source) string {
	var parts []string
	for _, r := range reasons {
		if slices.Contains(sources, r.source) {
			parts = append(parts, r.text)
		}
	}
	return strings.Join(parts, ", ")
}

// Recommend runs every source over the catalog and combines the results.
// Each source contributes at most max(count/2, 1) candidates. Today's
// shortcut itself is never recommended.
func Recommend(catalog []shortcuts.Shortcut, p Profile, count int) []Recommendation {
	if count <= 0 {
		return []Recommendation{}
	}
	if p.Today != nil {
		todayID := p.Today.ID
		catalog = slices.DeleteFunc(slices.Clone(catalog), func(s shortcuts.Shortcut) bool {
			return s.ID == todayID
		})
	}

	perSource := max(count/2, 1)
	var cands []Candidate
	for _, source := range []func([]shortcuts.Shortcut, Profile) []Candidate{
		sequenceCandidates,
		contentCandidates,
		skillCandidates,
		contextualCandidates,
	} {
		cands = append(cands, top(source(catalog, p), perSource)...)
	}
	return Ensemble(cands, count)
}
