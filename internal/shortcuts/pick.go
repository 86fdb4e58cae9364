package shortcuts

import (
	"slices"
	"time"

	"github.com/shortcut-sensei/backend/internal/clock"
)

const (
	// RecentWindow is how many previous picks are excluded from selection.
	RecentWindow = 7
	// minWeekendPool is the smallest weekend-themed pool used before falling
	// back to the full catalog.
	minWeekendPool = 10
)

var (
	weekendCategories = []string{"communication", "productivity", "browsing"}
	fridayCategories  = []string{"productivity", "files", "email"}
)

// Candidates narrows catalog to the shortcuts eligible on date. recent holds
// previously picked ids, oldest first; only the last RecentWindow count. The
// result is never empty unless catalog is.
func Candidates(catalog []Shortcut, date time.Time, recent []string) []Shortcut {
	pool := slices.Clone(catalog)

	if clock.IsWeekend(date) {
		weekend := inCategories(pool, weekendCategories)
		if len(weekend) >= minWeekendPool {
			pool = weekend
		}
	}
	switch date.Weekday() {
	case time.Monday:
		pool = slices.DeleteFunc(pool, func(s Shortcut) bool { return s.Difficulty != "beginner" })
	case time.Friday:
		pool = inCategories(pool, fridayCategories)
	}

	if len(recent) > RecentWindow {
		recent = recent[len(recent)-RecentWindow:]
	}
	pool = slices.DeleteFunc(pool, func(s Shortcut) bool { return slices.Contains(recent, s.ID) })

	if len(pool) == 0 {
		return slices.Clone(catalog)
	}
	return pool
}

// PickForDate deterministically chooses the shortcut for date.
func PickForDate(catalog []Shortcut, date time.Time, recent []string) (Shortcut, bool) {
	pool := Candidates(catalog, date, recent)
	if len(pool) == 0 {
		return Shortcut{}, false
	}
	return pool[clock.DayOfYear(date)%len(pool)], true
}

func inCategories(catalog []Shortcut, categories []string) []Shortcut {
	var out []Shortcut
	for _, s := range catalog {
		if slices.Contains(categories, s.Category) {
			out = append(out, s)
		}
	}
	return out
}
