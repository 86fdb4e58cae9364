package gamification

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shortcut-sensei/backend/internal/identity"
	"github.com/shortcut-sensei/backend/internal/models"
	"github.com/shortcut-sensei/backend/internal/storage"
)

func TestServiceFollowsIdentity(t *testing.T) {
	f := newFixture(t)
	svc := f.service()
	defer svc.Close()

	_, err := svc.LearnShortcut(f.ctx, learn("chrome"))
	require.NoError(t, err)
	assert.Equal(t, 25, svc.Progress().TotalExperience)
	assert.Contains(t, f.mem.Keys(storage.DeviceOwner), KeyProgress)

	f.ident.SignIn(42)
	assert.Equal(t, 0, svc.Progress().TotalExperience, "a new user starts from defaults")

	_, err = svc.LearnShortcut(f.ctx, learn("chrome"))
	require.NoError(t, err)
	assert.Contains(t, f.mem.Keys(storage.UserOwner(42)), KeyProgress)

	f.ident.SignOut()
	assert.Equal(t, DefaultProgress(), svc.Progress())
	assert.Empty(t, svc.Notifications(0))

	f.ident.SignIn(42)
	progress := svc.Progress()
	assert.Equal(t, 25, progress.TotalExperience)
	assert.Equal(t, 1, progress.Statistics.ShortcutsLearned)
}

func TestServiceReloadBreaksSilently(t *testing.T) {
	f := newFixture(t)
	svc := f.service()
	_, err := svc.LearnShortcut(f.ctx, learn("chrome"))
	require.NoError(t, err)
	svc.Close()

	f.clock.AddDays(5)
	reopened := f.service()
	defer reopened.Close()

	assert.Equal(t, 0, reopened.Snapshot().Streak.CurrentStreak)
	assert.Equal(t, 0, reopened.Progress().Statistics.CurrentStreak)
	assert.Empty(t, reopened.Notifications(0), "a streak broken on load is not announced")
}

func TestSnapshotSummarisesBadges(t *testing.T) {
	f := newFixture(t)
	svc := f.service()

	svc.JoinCommunity(f.ctx)
	f.clock.Advance(time.Minute)
	_, err := svc.CompleteTutorial(f.ctx, models.CompleteTutorialRequest{TutorialID: "intro"})
	require.NoError(t, err)

	snap := svc.Snapshot()
	assert.Equal(t, 2, snap.Badges.Unlocked)
	assert.Equal(t, len(Catalog), snap.Badges.Total)
	require.Len(t, snap.Badges.Recent, 2)
	assert.Equal(t, "first_steps", snap.Badges.Recent[0].BadgeID)
	assert.Equal(t, "community_member", snap.Badges.Recent[1].BadgeID)
	assert.Equal(t, snap.Progress.Level, LevelFromXP(snap.Progress.TotalExperience))
	assert.Equal(t, snap.XPToNextLevel, CumulativeXPForLevel(snap.Progress.Level+1)-snap.Progress.TotalExperience)

	assert.Len(t, svc.Badges(""), len(Catalog))
	social := svc.Badges("social")
	require.Len(t, social, 2)
	assert.True(t, social[0].Completed)
}

func TestSessionsReuseServices(t *testing.T) {
	f := newFixture(t)
	ss := NewSessions(f.clock, f.mem, f.mem)

	a := ss.Get(f.ctx, 1)
	assert.Same(t, a, ss.Get(f.ctx, 1))
	assert.NotSame(t, a, ss.Get(f.ctx, 2))
	assert.Equal(t, 2, ss.Len())

	_, err := a.LearnShortcut(f.ctx, learn("chrome"))
	require.NoError(t, err)
	assert.Contains(t, f.mem.Keys(storage.UserOwner(1)), KeyStreak)
	assert.Empty(t, f.mem.Keys(storage.UserOwner(2)))
}

func TestRunStreakCheckBreaksStaleStreaks(t *testing.T) {
	f := newFixture(t)
	ss := NewSessions(f.clock, f.mem, f.mem)
	svc := ss.Get(f.ctx, 1)

	_, err := svc.LearnShortcut(f.ctx, learn("chrome"))
	require.NoError(t, err)
	require.Equal(t, 1, svc.Snapshot().Streak.CurrentStreak)

	f.clock.AddDays(3)
	ss.RunStreakCheck(f.ctx)

	assert.Equal(t, 0, svc.Snapshot().Streak.CurrentStreak)
	recent := svc.Notifications(1)
	require.Len(t, recent, 1)
	assert.Equal(t, EventStreakBroken, recent[0].Name)
}

func TestEvictIdleSessions(t *testing.T) {
	f := newFixture(t)
	ss := NewSessions(f.clock, f.mem, f.mem)

	first := ss.Get(f.ctx, 1)
	_, err := first.LearnShortcut(f.ctx, learn("chrome"))
	require.NoError(t, err)
	ss.Get(f.ctx, 2)

	f.clock.Advance(DefaultSessionIdleTTL - time.Hour)
	assert.Equal(t, 0, ss.EvictIdle(DefaultSessionIdleTTL))
	ss.Get(f.ctx, 2)

	f.clock.Advance(2 * time.Hour)
	assert.Equal(t, 1, ss.EvictIdle(DefaultSessionIdleTTL))
	assert.Equal(t, 1, ss.Len())

	reloaded := ss.Get(f.ctx, 1)
	assert.NotSame(t, first, reloaded)
	assert.Equal(t, 25, reloaded.Progress().TotalExperience)
	assert.Equal(t, 2, ss.Len())
}

func TestStreakWorkerStopsOnCancel(t *testing.T) {
	f := newFixture(t)
	ss := NewSessions(f.clock, f.mem, f.mem)

	ctx, cancel := context.WithCancel(f.ctx)
	cancel()

	done := make(chan struct{})
	go func() {
		ss.StartDailyStreakWorker(ctx, time.Hour)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}

// flakyBackend fails the next failLoads loads.
type flakyBackend struct {
	storage.Backend
	failLoads int
}

func (b *flakyBackend) Load(ctx context.Context, owner, key string) ([]byte, error) {
	if b.failLoads > 0 {
		b.failLoads--
		return nil, errors.New("connection reset")
	}
	return b.Backend.Load(ctx, owner, key)
}

func storedProgress(t *testing.T, backend storage.Backend, userID int64) models.ProgressState {
	t.Helper()
	var state models.ProgressState
	gw := storage.NewRouter(backend, backend, identity.NewSignedIn(userID))
	found, err := storage.GetJSON(context.Background(), gw, storage.ScopeUser, KeyProgress, &state)
	require.NoError(t, err)
	require.True(t, found)
	return state
}

func seedLearner(t *testing.T, f *fixture, userID int64, learned int) models.ProgressState {
	t.Helper()
	svc := NewSessions(f.clock, f.mem, f.mem).Get(f.ctx, userID)
	for i := 0; i < learned; i++ {
		_, err := svc.LearnShortcut(f.ctx, learn("chrome"))
		require.NoError(t, err)
	}
	return storedProgress(t, f.mem, userID)
}

func TestFailedLoadRetriesBeforeWriting(t *testing.T) {
	f := newFixture(t)
	seeded := seedLearner(t, f, 7, 10)
	require.Equal(t, 10, seeded.Statistics.ShortcutsLearned)

	flaky := &flakyBackend{Backend: f.mem, failLoads: 3}
	svc := NewSessions(f.clock, flaky, flaky).Get(f.ctx, 7)
	assert.Equal(t, 0, svc.Progress().TotalExperience, "nothing could be read")

	_, err := svc.CompleteTutorial(f.ctx, models.CompleteTutorialRequest{TutorialID: "intro"})
	require.NoError(t, err)

	stored := storedProgress(t, f.mem, 7)
	assert.Equal(t, 10, stored.Statistics.ShortcutsLearned)
	assert.Equal(t, 1, stored.Statistics.TutorialsCompleted)
	assert.GreaterOrEqual(t, stored.TotalExperience, seeded.TotalExperience+TutorialXP)
	assert.Equal(t, stored.TotalExperience, svc.Progress().TotalExperience)
}

func TestFailedLoadNeverOverwritesDocument(t *testing.T) {
	f := newFixture(t)
	seeded := seedLearner(t, f, 7, 10)

	flaky := &flakyBackend{Backend: f.mem, failLoads: 1000}
	svc := NewSessions(f.clock, flaky, flaky).Get(f.ctx, 7)

	_, err := svc.CompleteTutorial(f.ctx, models.CompleteTutorialRequest{TutorialID: "intro"})
	require.NoError(t, err)
	svc.JoinCommunity(f.ctx)

	assert.Equal(t, seeded, storedProgress(t, f.mem, 7))
}
