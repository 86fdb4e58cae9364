package gamification

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shortcut-sensei/backend/internal/models"
)

func newTestRouter(t *testing.T) (*mux.Router, *fixture) {
	t.Helper()
	f := newFixture(t)
	r := mux.NewRouter()
	NewHandler(NewSessions(f.clock, f.mem, f.mem)).RegisterRoutes(r)
	return r, f
}

func do(r http.Handler, method, path, body string, userID int64) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if userID != 0 {
		req = req.WithContext(context.WithValue(req.Context(), "user_id", userID))
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestHandlerRequiresUser(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := do(r, "GET", "/gamification", "", 0)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	var resp models.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "Authentication required", resp.Error)
}

func TestHandlerLearnShortcut(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := do(r, "POST", "/gamification/shortcuts/learned",
		`{"shortcut_id":"ctrl-t","application":"chrome","difficulty":"intermediate"}`, 7)
	require.Equal(t, http.StatusOK, rec.Code)

	var out struct {
		XPGained      int `json:"xp_gained"`
		Level         int `json:"level"`
		CurrentStreak int `json:"current_streak"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	assert.Equal(t, 50, out.XPGained)
	assert.Equal(t, 1, out.Level)
	assert.Equal(t, 1, out.CurrentStreak)

	rec = do(r, "GET", "/gamification", "", 7)
	require.Equal(t, http.StatusOK, rec.Code)
	var snap Snapshot
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&snap))
	assert.Equal(t, 50, snap.Progress.TotalExperience)
	assert.Equal(t, 1, snap.Streak.CurrentStreak)

	rec = do(r, "GET", "/gamification", "", 8)
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&snap))
	assert.Equal(t, 0, snap.Progress.TotalExperience, "users are isolated")
}

func TestHandlerValidation(t *testing.T) {
	r, _ := newTestRouter(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
	}{
		{"malformed body", "POST", "/gamification/shortcuts/learned", `{`},
		{"missing shortcut", "POST", "/gamification/shortcuts/learned", `{}`},
		{"score out of range", "POST", "/gamification/quizzes/completed", `{"quiz_id":"q","score":101}`},
		{"negative time", "POST", "/gamification/quizzes/completed", `{"quiz_id":"q","score":50,"completion_time_seconds":-3}`},
		{"missing tutorial", "POST", "/gamification/tutorials/completed", `{}`},
		{"zero study time", "POST", "/gamification/study-time", `{"minutes":0}`},
		{"negative goals", "PUT", "/gamification/daily-goals", `{"shortcuts_learned":-1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(r, tt.method, tt.path, tt.body, 1)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}

	rec := do(r, "GET", "/gamification/notifications", "", 1)
	require.Equal(t, http.StatusOK, rec.Code)
	var notes []json.RawMessage
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&notes))
	assert.Empty(t, notes)
}

func TestHandlerStreakFreezeConflict(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := do(r, "POST", "/gamification/streak/freeze", "", 3)
	assert.Equal(t, http.StatusConflict, rec.Code)
	rec = do(r, "POST", "/gamification/streak/freeze/decline", "", 3)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(r, "GET", "/gamification/streak/status", "", 3)
	require.Equal(t, http.StatusOK, rec.Code)
	var status StreakStatus
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&status))
	assert.Equal(t, StatusNone, status.Status)
	assert.False(t, status.CanUseFreeze)
}

func TestHandlerDailyGoals(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := do(r, "PUT", "/gamification/daily-goals", `{"quizzes_completed":2}`, 4)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(r, "GET", "/gamification/daily-goals", "", 4)
	require.Equal(t, http.StatusOK, rec.Code)
	var res DailyGoalsResult
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&res))
	assert.Equal(t, models.DailyGoals{ShortcutsLearned: 3, QuizzesCompleted: 2, StudyTimeMinutes: 10}, res.Goals)
	assert.False(t, res.AllCompleted)
}

func TestHandlerBadgesByCategory(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := do(r, "POST", "/gamification/community/joined", "", 5)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(r, "GET", "/gamification/badges?category=social", "", 5)
	require.Equal(t, http.StatusOK, rec.Code)
	var badges []struct {
		Badge     struct{ ID string } `json:"badge"`
		Completed bool                `json:"completed"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&badges))
	require.Len(t, badges, 2)
	assert.Equal(t, "community_member", badges[0].Badge.ID)
	assert.True(t, badges[0].Completed)
	assert.False(t, badges[1].Completed)

	rec = do(r, "GET", "/gamification/notifications?limit=1", "", 5)
	var notes []struct {
		Name string `json:"name"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&notes))
	require.Len(t, notes, 1)
	assert.Equal(t, string(EventBadgeUnlocked), notes[0].Name)
}
