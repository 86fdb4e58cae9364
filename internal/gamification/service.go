package gamification

import (
	"context"
	"log"
	"slices"
	"sync"
	"time"

	"github.com/shortcut-sensei/backend/internal/clock"
	"github.com/shortcut-sensei/backend/internal/events"
	"github.com/shortcut-sensei/backend/internal/identity"
	"github.com/shortcut-sensei/backend/internal/models"
	"github.com/shortcut-sensei/backend/internal/storage"
)

// Service is one session's gamification state: the three engines, the
// coordinator wiring them and the notification sink. Calls are serialised.
type Service struct {
	mu            sync.Mutex
	clock         clock.Clock
	ident         identity.Provider
	bus           *events.Bus
	ledger        *Ledger
	streak        *StreakTracker
	badges        *BadgeEngine
	coordinator   *Coordinator
	notifications *Notifications

	capturing   bool
	captured    []events.Event
	unsubscribe func()
}

func NewService(ctx context.Context, c clock.Clock, gw storage.Gateway, ident identity.Provider) *Service {
	bus := events.NewBus(c)
	s := &Service{
		clock:         c,
		ident:         ident,
		bus:           bus,
		ledger:        NewLedger(c, NewStore(gw, ident, KeyProgress), bus),
		streak:        NewStreakTracker(c, NewStore(gw, ident, KeyStreak), bus),
		badges:        NewBadgeEngine(c, NewStore(gw, ident, KeyBadges), bus, nil),
		notifications: NewNotifications(DefaultNotificationCapacity),
	}
	s.coordinator = NewCoordinator(bus, s.ledger, s.streak, s.badges)
	events.SubscribeAll(bus, s.notifications.Record)
	events.SubscribeAll(bus, s.capture)

	s.reload(ctx)
	if ident != nil {
		s.unsubscribe = ident.OnChange(s.identityChanged)
	}
	return s
}

func (s *Service) identityChanged(_ int64, signedIn bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if signedIn {
		s.reload(context.Background())
		return
	}
	s.ledger.Reset()
	s.streak.Reset()
	s.badges.Reset()
	s.notifications.Clear()
}

func (s *Service) reload(ctx context.Context) {
	if err := s.ledger.Reload(ctx); err != nil {
		log.Printf("[gamification] reload progress: %v", err)
	}
	if err := s.streak.Reload(ctx); err != nil {
		log.Printf("[gamification] reload streak: %v", err)
	}
	if err := s.badges.Reload(ctx); err != nil {
		log.Printf("[gamification] reload badges: %v", err)
	}
	s.streak.CheckStreakStatus(ctx, true)
}

// retryLoad reloads the engines when an earlier load failed.
func (s *Service) retryLoad(ctx context.Context) {
	if s.ledger.store.Stale() || s.streak.store.Stale() || s.badges.store.Stale() {
		log.Println("[gamification] retrying load of unread documents")
		s.reload(ctx)
	}
}

// Close detaches the service from its identity provider.
func (s *Service) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
}

func (s *Service) capture(_ context.Context, e events.Event) {
	if s.capturing {
		s.captured = append(s.captured, e)
	}
}

// observe runs fn and summarises every event it caused.
func (s *Service) observe(fn func()) Outcome {
	s.capturing = true
	s.captured = nil
	defer func() {
		s.capturing = false
		s.captured = nil
	}()
	fn()
	return s.coordinator.summarize(s.captured)
}

// ── Reported actions ────────────────────────────────────

func (s *Service) LearnShortcut(ctx context.Context, req models.LearnShortcutRequest) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.retryLoad(ctx)
	return s.coordinator.ReportShortcutLearned(ctx, req)
}

func (s *Service) CompleteQuiz(ctx context.Context, req models.CompleteQuizRequest) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.retryLoad(ctx)
	return s.coordinator.ReportQuizCompleted(ctx, req)
}

func (s *Service) CompleteTutorial(ctx context.Context, req models.CompleteTutorialRequest) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.retryLoad(ctx)
	return s.coordinator.ReportTutorialCompleted(ctx, req)
}

func (s *Service) RecordStudyTime(ctx context.Context, req models.StudyTimeRequest) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.retryLoad(ctx)
	return s.coordinator.ReportStudyTime(ctx, req)
}

func (s *Service) JoinCommunity(ctx context.Context) Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.retryLoad(ctx)
	return s.coordinator.ReportCommunityJoined(ctx)
}

func (s *Service) ShareShortcut(ctx context.Context, req models.ShareShortcutRequest) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.retryLoad(ctx)
	return s.coordinator.ReportShortcutShared(ctx, req)
}

// ── Streak ──────────────────────────────────────────────

func (s *Service) CheckStreak(ctx context.Context, suppressNotifications bool) StreakStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.retryLoad(ctx)
	return s.streak.CheckStreakStatus(ctx, suppressNotifications)
}

func (s *Service) UseStreakFreeze(ctx context.Context) (Outcome, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.retryLoad(ctx)
	var ok bool
	out := s.observe(func() { ok = s.streak.UseStreakFreeze(ctx) })
	return out, ok
}

func (s *Service) DeclineStreakFreeze(ctx context.Context) (Outcome, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.retryLoad(ctx)
	var ok bool
	out := s.observe(func() { ok = s.streak.DeclineStreakFreeze(ctx) })
	return out, ok
}

func (s *Service) DailyGoals(ctx context.Context) DailyGoalsResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.retryLoad(ctx)
	return s.streak.CheckDailyGoals(ctx)
}

func (s *Service) SetDailyGoals(ctx context.Context, req models.SetDailyGoalsRequest) DailyGoalsResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.retryLoad(ctx)
	s.streak.UpdateDailyGoals(ctx, models.DailyGoals{
		ShortcutsLearned: req.ShortcutsLearned,
		QuizzesCompleted: req.QuizzesCompleted,
		StudyTimeMinutes: req.StudyTimeMinutes,
	})
	return s.streak.CheckDailyGoals(ctx)
}

// ── Queries ─────────────────────────────────────────────

type BadgeSummary struct {
	Unlocked   int                    `json:"unlocked"`
	Total      int                    `json:"total"`
	Completion float64                `json:"completion_percentage"`
	Recent     []models.UnlockedBadge `json:"recent"`
}

type Snapshot struct {
	Progress      models.ProgressState `json:"progress"`
	LevelProgress LevelProgress        `json:"level_progress"`
	XPToNextLevel int                  `json:"xp_to_next_level"`
	Streak        models.StreakState   `json:"streak"`
	Badges        BadgeSummary         `json:"badges"`
}

const recentBadgeCount = 5

func (s *Service) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	unlocked := s.badges.Unlocked()
	slices.SortStableFunc(unlocked, func(a, b models.UnlockedBadge) int {
		return b.UnlockedAt.Compare(a.UnlockedAt)
	})
	if len(unlocked) > recentBadgeCount {
		unlocked = unlocked[:recentBadgeCount]
	}

	return Snapshot{
		Progress:      s.ledger.State(),
		LevelProgress: s.ledger.LevelProgress(),
		XPToNextLevel: s.ledger.XPToNextLevel(),
		Streak:        s.streak.State(),
		Badges: BadgeSummary{
			Unlocked:   len(s.badges.Unlocked()),
			Total:      len(s.badges.Catalog()),
			Completion: s.badges.CompletionPercentage(),
			Recent:     unlocked,
		},
	}
}

func (s *Service) Progress() models.ProgressState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.State()
}

// Badges lists badge progress, optionally restricted to one category.
func (s *Service) Badges(category string) []BadgeProgress {
	s.mu.Lock()
	defer s.mu.Unlock()
	all := s.badges.AllProgress()
	if category == "" {
		return all
	}
	var out []BadgeProgress
	for _, p := range all {
		if p.Badge.Category == category {
			out = append(out, p)
		}
	}
	return out
}

func (s *Service) Notifications(limit int) []events.Event {
	return s.notifications.Recent(limit)
}

// ── Sessions ────────────────────────────────────────────

// DefaultSessionIdleTTL is how long an unused session stays cached.
const DefaultSessionIdleTTL = 24 * time.Hour

// Sessions lazily creates one Service per signed-in user. Idle sessions are
// dropped by EvictIdle and reload from storage on next use.
type Sessions struct {
	mu       sync.Mutex
	clock    clock.Clock
	device   storage.Backend
	user     storage.Backend
	sessions map[int64]*session
}

type session struct {
	svc      *Service
	lastUsed time.Time
}

func NewSessions(c clock.Clock, device, user storage.Backend) *Sessions {
	return &Sessions{
		clock:    c,
		device:   device,
		user:     user,
		sessions: make(map[int64]*session),
	}
}

// Get returns the user's session, loading its state on first use.
func (ss *Sessions) Get(ctx context.Context, userID int64) *Service {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	now := ss.clock.Now()
	if sess, ok := ss.sessions[userID]; ok {
		sess.lastUsed = now
		return sess.svc
	}
	ident := identity.NewSignedIn(userID)
	svc := NewService(ctx, ss.clock, storage.NewRouter(ss.device, ss.user, ident), ident)
	ss.sessions[userID] = &session{svc: svc, lastUsed: now}
	return svc
}

func (ss *Sessions) loaded() []*Service {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	out := make([]*Service, 0, len(ss.sessions))
	for _, sess := range ss.sessions {
		out = append(out, sess.svc)
	}
	return out
}

func (ss *Sessions) Len() int {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	return len(ss.sessions)
}

// EvictIdle closes and forgets sessions not used for longer than maxIdle.
// It returns the number evicted.
func (ss *Sessions) EvictIdle(maxIdle time.Duration) int {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	now := ss.clock.Now()
	evicted := 0
	for userID, sess := range ss.sessions {
		if now.Sub(sess.lastUsed) <= maxIdle {
			continue
		}
		sess.svc.Close()
		delete(ss.sessions, userID)
		evicted++
	}
	return evicted
}

// ── Background Workers ──────────────────────────────────

func (ss *Sessions) StartDailyStreakWorker(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Println("[gamification] Daily streak worker started")

	for {
		select {
		case <-ctx.Done():
			log.Println("[gamification] Daily streak worker shutting down")
			return
		case <-ticker.C:
			ss.RunStreakCheck(ctx)
			if n := ss.EvictIdle(DefaultSessionIdleTTL); n > 0 {
				log.Printf("[gamification] evicted %d idle sessions", n)
			}
		}
	}
}

// RunStreakCheck reconciles every loaded session's streak.
func (ss *Sessions) RunStreakCheck(ctx context.Context) {
	broken := 0
	for _, svc := range ss.loaded() {
		if st := svc.CheckStreak(ctx, false); st.Status == StatusBroken && st.DaysSinceActivity > 1 {
			broken++
		}
	}
	if broken > 0 {
		log.Printf("[gamification] streak check: %d sessions without an active streak", broken)
	}
}
