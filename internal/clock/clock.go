package clock

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// DateLayout is the calendar-day format used for every stored date.
const DateLayout = "2006-01-02"

var ErrMalformedDate = errors.New("malformed date")

// Clock supplies the current time. Engines never call time.Now directly.
type Clock interface {
	Now() time.Time
}

// System is the wall clock, reported in Location (UTC when nil).
type System struct {
	Location *time.Location
}

func (s System) Now() time.Time {
	if s.Location == nil {
		return time.Now().UTC()
	}
	return time.Now().In(s.Location)
}

// Manual is a settable clock for tests.
type Manual struct {
	mu  sync.Mutex
	now time.Time
}

func NewManual(t time.Time) *Manual {
	return &Manual{now: t}
}

func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

func (m *Manual) Set(t time.Time) {
	m.mu.Lock()
	m.now = t
	m.mu.Unlock()
}

// Advance moves the clock forward by d.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	m.now = m.now.Add(d)
	m.mu.Unlock()
}

// AddDays moves the clock forward by n calendar days.
func (m *Manual) AddDays(n int) {
	m.mu.Lock()
	m.now = m.now.AddDate(0, 0, n)
	m.mu.Unlock()
}

// DateString returns the calendar day of t in t's own location.
func DateString(t time.Time) string {
	return t.Format(DateLayout)
}

// Today is shorthand for DateString(c.Now()).
func Today(c Clock) string {
	return DateString(c.Now())
}

// ParseDate parses a YYYY-MM-DD string as a UTC midnight.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrMalformedDate, s)
	}
	return t, nil
}

// DaysBetween returns the signed number of calendar days from `from` to `to`.
// Both dates parse as UTC midnights so DST transitions never skew the result.
func DaysBetween(from, to string) (int, error) {
	a, err := ParseDate(from)
	if err != nil {
		return 0, err
	}
	b, err := ParseDate(to)
	if err != nil {
		return 0, err
	}
	return int(b.Sub(a).Hours() / 24), nil
}

// DayOfYear returns 1 for January 1st.
func DayOfYear(t time.Time) int {
	return t.YearDay()
}

// IsWeekend reports whether t falls on Saturday or Sunday.
func IsWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}
