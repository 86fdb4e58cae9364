package gamification

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/shortcut-sensei/backend/internal/models"
)

type Handler struct {
	sessions *Sessions
}

func NewHandler(sessions *Sessions) *Handler {
	return &Handler{sessions: sessions}
}

// RegisterRoutes mounts the gamification API on an authenticated router.
func (h *Handler) RegisterRoutes(r *mux.Router) {
	g := r.PathPrefix("/gamification").Subrouter()
	g.HandleFunc("", h.GetGamification).Methods("GET")
	g.HandleFunc("/shortcuts/learned", h.LearnShortcut).Methods("POST")
	g.HandleFunc("/shortcuts/shared", h.ShareShortcut).Methods("POST")
	g.HandleFunc("/quizzes/completed", h.CompleteQuiz).Methods("POST")
	g.HandleFunc("/tutorials/completed", h.CompleteTutorial).Methods("POST")
	g.HandleFunc("/study-time", h.RecordStudyTime).Methods("POST")
	g.HandleFunc("/community/joined", h.JoinCommunity).Methods("POST")
	g.HandleFunc("/streak/status", h.StreakStatus).Methods("GET")
	g.HandleFunc("/streak/freeze", h.UseStreakFreeze).Methods("POST")
	g.HandleFunc("/streak/freeze/decline", h.DeclineStreakFreeze).Methods("POST")
	g.HandleFunc("/daily-goals", h.GetDailyGoals).Methods("GET")
	g.HandleFunc("/daily-goals", h.SetDailyGoals).Methods("PUT")
	g.HandleFunc("/badges", h.ListBadges).Methods("GET")
	g.HandleFunc("/notifications", h.ListNotifications).Methods("GET")
}

func getUserID(r *http.Request) (int64, bool) {
	uid, ok := r.Context().Value("user_id").(int64)
	return uid, ok
}

// session resolves the caller's Service, writing a 401 when unauthenticated.
func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*Service, bool) {
	userID, ok := getUserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Authentication required"})
		return nil, false
	}
	return h.sessions.Get(r.Context(), userID), true
}

// ── Gamification State ──────────────────────────────────

func (h *Handler) GetGamification(w http.ResponseWriter, r *http.Request) {
	svc, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, svc.Snapshot())
}

// ── Reported Actions ────────────────────────────────────

func (h *Handler) LearnShortcut(w http.ResponseWriter, r *http.Request) {
	svc, ok := h.session(w, r)
	if !ok {
		return
	}
	var req models.LearnShortcutRequest
	if !decode(w, r, &req) {
		return
	}
	out, err := svc.LearnShortcut(r.Context(), req)
	writeOutcome(w, out, err)
}

func (h *Handler) CompleteQuiz(w http.ResponseWriter, r *http.Request) {
	svc, ok := h.session(w, r)
	if !ok {
		return
	}
	var req models.CompleteQuizRequest
	if !decode(w, r, &req) {
		return
	}
	out, err := svc.CompleteQuiz(r.Context(), req)
	writeOutcome(w, out, err)
}

func (h *Handler) CompleteTutorial(w http.ResponseWriter, r *http.Request) {
	svc, ok := h.session(w, r)
	if !ok {
		return
	}
	var req models.CompleteTutorialRequest
	if !decode(w, r, &req) {
		return
	}
	out, err := svc.CompleteTutorial(r.Context(), req)
	writeOutcome(w, out, err)
}

func (h *Handler) RecordStudyTime(w http.ResponseWriter, r *http.Request) {
	svc, ok := h.session(w, r)
	if !ok {
		return
	}
	var req models.StudyTimeRequest
	if !decode(w, r, &req) {
		return
	}
	out, err := svc.RecordStudyTime(r.Context(), req)
	writeOutcome(w, out, err)
}

func (h *Handler) JoinCommunity(w http.ResponseWriter, r *http.Request) {
	svc, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, svc.JoinCommunity(r.Context()))
}

func (h *Handler) ShareShortcut(w http.ResponseWriter, r *http.Request) {
	svc, ok := h.session(w, r)
	if !ok {
		return
	}
	var req models.ShareShortcutRequest
	if !decode(w, r, &req) {
		return
	}
	out, err := svc.ShareShortcut(r.Context(), req)
	writeOutcome(w, out, err)
}

// ── Streak ──────────────────────────────────────────────

func (h *Handler) StreakStatus(w http.ResponseWriter, r *http.Request) {
	svc, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, svc.CheckStreak(r.Context(), false))
}

func (h *Handler) UseStreakFreeze(w http.ResponseWriter, r *http.Request) {
	svc, ok := h.session(w, r)
	if !ok {
		return
	}
	out, used := svc.UseStreakFreeze(r.Context())
	if !used {
		writeJSON(w, http.StatusConflict, models.ErrorResponse{Error: "No streak freeze can be used"})
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) DeclineStreakFreeze(w http.ResponseWriter, r *http.Request) {
	svc, ok := h.session(w, r)
	if !ok {
		return
	}
	out, declined := svc.DeclineStreakFreeze(r.Context())
	if !declined {
		writeJSON(w, http.StatusConflict, models.ErrorResponse{Error: "No streak freeze decision is pending"})
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// ── Daily Goals ─────────────────────────────────────────

func (h *Handler) GetDailyGoals(w http.ResponseWriter, r *http.Request) {
	svc, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, svc.DailyGoals(r.Context()))
}

func (h *Handler) SetDailyGoals(w http.ResponseWriter, r *http.Request) {
	svc, ok := h.session(w, r)
	if !ok {
		return
	}
	var req models.SetDailyGoalsRequest
	if !decode(w, r, &req) {
		return
	}
	if req.ShortcutsLearned < 0 || req.QuizzesCompleted < 0 || req.StudyTimeMinutes < 0 {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Daily goals must not be negative"})
		return
	}
	writeJSON(w, http.StatusOK, svc.SetDailyGoals(r.Context(), req))
}

// ── Badges & Notifications ──────────────────────────────

func (h *Handler) ListBadges(w http.ResponseWriter, r *http.Request) {
	svc, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, svc.Badges(r.URL.Query().Get("category")))
}

func (h *Handler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	svc, ok := h.session(w, r)
	if !ok {
		return
	}
	limit := intQueryParam(r.URL.Query(), "limit", 20)
	writeJSON(w, http.StatusOK, svc.Notifications(limit))
}

// ── Helpers ─────────────────────────────────────────────

func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "Invalid request body"})
		return false
	}
	return true
}

func writeOutcome(w http.ResponseWriter, out Outcome, err error) {
	if err != nil {
		status := http.StatusInternalServerError
		if isValidationError(err) {
			status = http.StatusBadRequest
		}
		writeJSON(w, status, models.ErrorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func isValidationError(err error) bool {
	return errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, ErrInvalidScore) ||
		errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrInvalidExperience)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func intQueryParam(query url.Values, key string, defaultVal int) int {
	s := query.Get(key)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	return v
}
