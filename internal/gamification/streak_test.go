package gamification

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shortcut-sensei/backend/internal/clock"
	"github.com/shortcut-sensei/backend/internal/models"
)

// withStreak returns a tracker whose last activity was daysAgo days before
// the fixture's current date.
func withStreak(f *fixture, current, freezes, daysAgo int) *StreakTracker {
	tr := f.streak()
	last := clock.DateString(f.clock.Now().AddDate(0, 0, -daysAgo))
	start := clock.DateString(f.clock.Now().AddDate(0, 0, -daysAgo-current+1))
	tr.state.CurrentStreak = current
	tr.state.LongestStreak = current
	tr.state.LastActivityDate = last
	tr.state.StreakStartDate = start
	tr.state.StreakFreezesAvailable = freezes
	tr.state.TotalActiveDays = current
	return tr
}

func TestFirstActivityStartsStreak(t *testing.T) {
	f := newFixture(t)
	tr := f.streak()

	require.NoError(t, tr.RecordActivity(f.ctx, ActivityShortcutLearned, 1))

	st := tr.State()
	today := clock.Today(f.clock)
	assert.Equal(t, 1, st.CurrentStreak)
	assert.Equal(t, 1, st.LongestStreak)
	assert.Equal(t, today, st.LastActivityDate)
	assert.Equal(t, today, st.StreakStartDate)
	assert.Equal(t, 1, st.TotalActiveDays)
	assert.Equal(t, 1, st.TodaysProgress.ShortcutsLearned)
	assert.Equal(t, 1, f.count(EventStreakStarted))
	assert.Equal(t, 1, f.count(EventActivityRecorded))
}

func TestConsecutiveDayExtendsStreak(t *testing.T) {
	f := newFixture(t)
	tr := f.streak()

	require.NoError(t, tr.RecordActivity(f.ctx, ActivityShortcutLearned, 1))
	f.clock.AddDays(1)
	require.NoError(t, tr.RecordActivity(f.ctx, ActivityQuizCompleted, 1))
	assert.Equal(t, 2, tr.State().CurrentStreak)

	// Same day again: no change.
	require.NoError(t, tr.RecordActivity(f.ctx, ActivityShortcutLearned, 1))
	st := tr.State()
	assert.Equal(t, 2, st.CurrentStreak)
	assert.Equal(t, 2, st.TotalActiveDays)
	assert.Equal(t, 1, f.count(EventStreakExtended))
	assert.Equal(t, 1, st.TodaysProgress.ShortcutsLearned)
	assert.Equal(t, 1, st.TodaysProgress.QuizzesCompleted)
}

func TestTwoDayGapWithoutFreezesBreaksStreak(t *testing.T) {
	f := newFixture(t)
	tr := withStreak(f, 5, 0, 2)

	require.NoError(t, tr.RecordActivity(f.ctx, ActivityShortcutLearned, 1))

	st := tr.State()
	assert.Equal(t, 0, st.CurrentStreak)
	assert.Equal(t, "", st.StreakStartDate)
	assert.Equal(t, 5, st.LongestStreak)
	assert.Equal(t, clock.Today(f.clock), st.LastActivityDate)
	require.Len(t, st.History, 1)
	assert.Equal(t, 5, st.History[0].Length)
	assert.Equal(t, clock.Today(f.clock), st.History[0].BrokenDate)
	assert.Equal(t, 1, f.count(EventStreakBroken))

	// The next consecutive day starts a new streak.
	f.clock.AddDays(1)
	require.NoError(t, tr.RecordActivity(f.ctx, ActivityShortcutLearned, 1))
	assert.Equal(t, 1, tr.State().CurrentStreak)
}

func TestBreakingDayNeverCounts(t *testing.T) {
	tests := []struct {
		name      string
		reconcile bool
	}{
		{"activity first", false},
		{"reconciled first", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			tr := withStreak(f, 5, 0, 2)
			if tt.reconcile {
				require.Equal(t, StatusBroken, tr.CheckStreakStatus(f.ctx, true).Status)
			}

			require.NoError(t, tr.RecordActivity(f.ctx, ActivityShortcutLearned, 1))
			st := tr.State()
			assert.Equal(t, 0, st.CurrentStreak)
			assert.Equal(t, clock.Today(f.clock), st.LastActivityDate)
			assert.Equal(t, 6, st.TotalActiveDays)
			assert.Len(t, st.History, 1)
			assert.Equal(t, 0, f.count(EventStreakStarted))

			f.clock.AddDays(1)
			require.NoError(t, tr.RecordActivity(f.ctx, ActivityShortcutLearned, 1))
			assert.Equal(t, 1, tr.State().CurrentStreak)
		})
	}
}

func TestActivityAfterReconciledBreakWaitsADay(t *testing.T) {
	f := newFixture(t)
	tr := withStreak(f, 5, 0, 3)
	tr.CheckStreakStatus(f.ctx, false)

	// A quiet day passes before the learner comes back.
	f.clock.AddDays(1)
	require.NoError(t, tr.RecordActivity(f.ctx, ActivityShortcutLearned, 1))
	assert.Equal(t, 0, tr.State().CurrentStreak)

	f.clock.AddDays(1)
	require.NoError(t, tr.RecordActivity(f.ctx, ActivityShortcutLearned, 1))
	assert.Equal(t, 1, tr.State().CurrentStreak)
}

func TestShortStreakIsNotFreezeEligible(t *testing.T) {
	f := newFixture(t)
	tr := withStreak(f, 2, 3, 2)

	require.NoError(t, tr.RecordActivity(f.ctx, ActivityShortcutLearned, 1))

	assert.Equal(t, 0, tr.State().CurrentStreak)
	assert.Equal(t, 0, f.count(EventStreakFreezeOffered))
	assert.Equal(t, 3, tr.State().StreakFreezesAvailable)
}

func TestLongGapBreaksEvenWithFreezes(t *testing.T) {
	f := newFixture(t)
	tr := withStreak(f, 10, 3, 4)

	require.NoError(t, tr.RecordActivity(f.ctx, ActivityShortcutLearned, 1))

	assert.Equal(t, 0, tr.State().CurrentStreak)
	assert.Equal(t, 0, f.count(EventStreakFreezeOffered))
}

func TestFreezeBridgesGap(t *testing.T) {
	f := newFixture(t)
	tr := withStreak(f, 5, 1, 2)
	lastBefore := tr.State().LastActivityDate

	require.NoError(t, tr.RecordActivity(f.ctx, ActivityShortcutLearned, 1))
	require.NoError(t, tr.RecordActivity(f.ctx, ActivityShortcutLearned, 1))

	assert.Equal(t, 1, f.count(EventStreakFreezeOffered), "offer is made once per day")
	assert.Equal(t, lastBefore, tr.State().LastActivityDate)
	assert.Equal(t, 5, tr.State().CurrentStreak)

	require.True(t, tr.UseStreakFreeze(f.ctx))

	st := tr.State()
	assert.Equal(t, 0, st.StreakFreezesAvailable)
	assert.Equal(t, clock.Today(f.clock), st.LastActivityDate)
	assert.Equal(t, 5, st.CurrentStreak)
	assert.NotNil(t, st.LastFreezeUsedAt)
	assert.Equal(t, 1, f.count(EventStreakFreezeUsed))

	f.clock.AddDays(1)
	require.NoError(t, tr.RecordActivity(f.ctx, ActivityShortcutLearned, 1))
	assert.Equal(t, 6, tr.State().CurrentStreak)
}

func TestUseStreakFreezeRequiresFreezeAndStreak(t *testing.T) {
	tests := []struct {
		name    string
		streak  int
		freezes int
	}{
		{"no freezes", 5, 0},
		{"streak too short", 2, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			tr := withStreak(f, tt.streak, tt.freezes, 2)
			before := tr.State()

			assert.False(t, tr.UseStreakFreeze(f.ctx))
			assert.Equal(t, before, tr.State())
			assert.Empty(t, f.events)
		})
	}
}

func TestDeclineStreakFreeze(t *testing.T) {
	f := newFixture(t)
	tr := withStreak(f, 5, 1, 2)
	require.NoError(t, tr.RecordActivity(f.ctx, ActivityShortcutLearned, 1))

	require.True(t, tr.DeclineStreakFreeze(f.ctx))

	st := tr.State()
	assert.Equal(t, 0, st.CurrentStreak)
	assert.Equal(t, 1, st.StreakFreezesAvailable)
	assert.Equal(t, clock.Today(f.clock), st.LastActivityDate)
	assert.False(t, tr.DeclineStreakFreeze(f.ctx), "nothing pending after the break")
}

func TestCheckStreakStatusNeverDoubleBreaks(t *testing.T) {
	f := newFixture(t)
	tr := withStreak(f, 5, 0, 5)
	lastBefore := tr.State().LastActivityDate

	first := tr.CheckStreakStatus(f.ctx, false)
	second := tr.CheckStreakStatus(f.ctx, false)

	assert.Equal(t, StatusBroken, first.Status)
	assert.Equal(t, StatusBroken, second.Status)
	assert.Equal(t, 5, first.DaysSinceActivity)
	assert.Equal(t, 0, tr.State().CurrentStreak)
	assert.Equal(t, lastBefore, tr.State().LastActivityDate)
	assert.Equal(t, 1, f.count(EventStreakBroken))
	assert.Len(t, tr.State().History, 1)
}

func TestCheckStreakStatusSuppressedLeavesOfferPending(t *testing.T) {
	f := newFixture(t)
	tr := withStreak(f, 5, 2, 2)

	st := tr.CheckStreakStatus(f.ctx, true)
	assert.Equal(t, StatusFreezeOffered, st.Status)
	assert.True(t, st.CanUseFreeze)
	assert.Equal(t, 5, tr.State().CurrentStreak)
	assert.Empty(t, f.events)

	st = tr.CheckStreakStatus(f.ctx, false)
	assert.Equal(t, StatusFreezeOffered, st.Status)
	tr.CheckStreakStatus(f.ctx, false)
	assert.Equal(t, 1, f.count(EventStreakFreezeOffered))
}

func TestCheckStreakStatusSuppressedBreakIsSilent(t *testing.T) {
	f := newFixture(t)
	tr := withStreak(f, 5, 0, 3)

	tr.CheckStreakStatus(f.ctx, true)

	require.Equal(t, 1, f.count(EventStreakBroken))
	broken, ok := f.events[0].Payload.(StreakBroken)
	require.True(t, ok)
	assert.True(t, broken.Silent)
}

func TestCheckStreakStatusActive(t *testing.T) {
	f := newFixture(t)
	tr := withStreak(f, 4, 0, 1)

	st := tr.CheckStreakStatus(f.ctx, false)
	assert.Equal(t, StatusActive, st.Status)
	assert.Equal(t, 4, st.CurrentStreak)
	assert.Empty(t, f.events)

	assert.Equal(t, StatusNone, f.streak().CheckStreakStatus(f.ctx, false).Status)
}

func TestStreakMilestonesFireOnce(t *testing.T) {
	f := newFixture(t)
	tr := withStreak(f, 6, 3, 1)

	require.NoError(t, tr.RecordActivity(f.ctx, ActivityShortcutLearned, 1))

	st := tr.State()
	assert.Equal(t, 7, st.CurrentStreak)
	assert.Equal(t, 4, st.StreakFreezesAvailable)
	assert.Equal(t, []int{7}, st.MilestoneAchievements)
	require.Equal(t, 1, f.count(EventStreakMilestone))

	// Reaching 7 again later does not re-fire.
	tr.state.CurrentStreak = 6
	f.clock.AddDays(1)
	require.NoError(t, tr.RecordActivity(f.ctx, ActivityShortcutLearned, 1))
	assert.Equal(t, 1, f.count(EventStreakMilestone))
	assert.Equal(t, 4, tr.State().StreakFreezesAvailable)
}

func TestMilestoneWithoutFreezeAward(t *testing.T) {
	f := newFixture(t)
	tr := withStreak(f, 2, 3, 1)

	require.NoError(t, tr.RecordActivity(f.ctx, ActivityShortcutLearned, 1))

	assert.Equal(t, 3, tr.State().StreakFreezesAvailable)
	require.Equal(t, 1, f.count(EventStreakMilestone))
	for _, e := range f.events {
		if m, ok := e.Payload.(StreakMilestone); ok {
			assert.Equal(t, StreakMilestone{Days: 3, FreezeAwarded: false}, m)
		}
	}
}

func TestDailyGoalsCompleteOncePerDate(t *testing.T) {
	f := newFixture(t)
	tr := f.streak()

	complete := func() {
		require.NoError(t, tr.RecordActivity(f.ctx, ActivityShortcutLearned, 3))
		require.NoError(t, tr.RecordActivity(f.ctx, ActivityQuizCompleted, 1))
		require.NoError(t, tr.RecordActivity(f.ctx, ActivityStudyTime, 10))
	}

	complete()
	complete()
	res := tr.CheckDailyGoals(f.ctx)

	assert.True(t, res.AllCompleted)
	assert.Equal(t, 1, f.count(EventDailyGoalsCompleted))

	// A new day resets today's progress and allows another bonus.
	f.clock.AddDays(1)
	res = tr.CheckDailyGoals(f.ctx)
	assert.False(t, res.AllCompleted)
	assert.Equal(t, 0, res.Progress.ShortcutsLearned)
	complete()
	assert.Equal(t, 2, f.count(EventDailyGoalsCompleted))
}

func TestUpdateDailyGoalsMergesPositiveFields(t *testing.T) {
	f := newFixture(t)
	tr := f.streak()

	goals := tr.UpdateDailyGoals(f.ctx, models.DailyGoals{QuizzesCompleted: 2})

	assert.Equal(t, models.DailyGoals{ShortcutsLearned: 3, QuizzesCompleted: 2, StudyTimeMinutes: 10}, goals)
	assert.Equal(t, 1, f.count(EventDailyGoalsUpdated))
}

func TestRecordActivityRejectsInvalidInput(t *testing.T) {
	f := newFixture(t)
	tr := f.streak()

	assert.ErrorIs(t, tr.RecordActivity(f.ctx, ActivityShortcutLearned, 0), ErrInvalidAmount)
	assert.ErrorIs(t, tr.RecordActivity(f.ctx, "dancing", 1), ErrUnknownActivity)
	assert.Equal(t, DefaultStreak(), tr.State())
	assert.Empty(t, f.events)
}

func TestMalformedStoredDateLeavesStreakAlone(t *testing.T) {
	f := newFixture(t)
	tr := f.streak()
	tr.state.CurrentStreak = 4
	tr.state.LastActivityDate = "not-a-date"

	require.NoError(t, tr.RecordActivity(f.ctx, ActivityShortcutLearned, 1))

	st := tr.State()
	assert.Equal(t, 4, st.CurrentStreak)
	assert.Equal(t, "not-a-date", st.LastActivityDate)
	assert.Equal(t, 1, st.TodaysProgress.ShortcutsLearned)
}

func TestStreakPersistsAndReloads(t *testing.T) {
	f := newFixture(t)
	tr := f.streak()
	require.NoError(t, tr.RecordActivity(f.ctx, ActivityShortcutLearned, 2))

	fresh := f.streak()
	require.NoError(t, fresh.Reload(f.ctx))
	assert.Equal(t, tr.State(), fresh.State())
}
