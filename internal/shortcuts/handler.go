package shortcuts

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/shortcut-sensei/backend/internal/gamification"
	"github.com/shortcut-sensei/backend/internal/models"
)

type Handler struct {
	source   Source
	daily    *Daily
	sessions *gamification.Sessions
}

// NewHandler serves the catalog and today's shortcut. sessions may be nil, in
// which case learning today's shortcut earns no progress.
func NewHandler(source Source, daily *Daily, sessions *gamification.Sessions) *Handler {
	return &Handler{source: source, daily: daily, sessions: sessions}
}

func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/shortcuts", h.ListShortcuts).Methods("GET")
	r.HandleFunc("/shortcuts/today", h.GetToday).Methods("GET")
	r.HandleFunc("/shortcuts/today/learned", h.MarkLearned).Methods("POST")
	r.HandleFunc("/shortcuts/today/practiced", h.MarkPracticed).Methods("POST")
	r.HandleFunc("/shortcuts/history", h.GetHistory).Methods("GET")
	r.HandleFunc("/shortcuts/{id}", h.GetShortcut).Methods("GET")
}

func getUserID(r *http.Request) (int64, bool) {
	uid, ok := r.Context().Value("user_id").(int64)
	return uid, ok
}

// AppKey normalises an application name to the form used in badge metrics,
// e.g. "VS Code" becomes "vscode".
func AppKey(application string) string {
	return strings.ToLower(strings.Join(strings.Fields(application), ""))
}

// ── Catalog ─────────────────────────────────────────────

func (h *Handler) ListShortcuts(w http.ResponseWriter, r *http.Request) {
	catalog, err := h.source.Shortcuts(r.Context())
	if err != nil {
		log.Printf("[shortcuts] list: %v", err)
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to load shortcuts"})
		return
	}
	q := r.URL.Query()
	writeJSON(w, http.StatusOK, Filter(catalog, q.Get("category"), q.Get("application")))
}

func (h *Handler) GetShortcut(w http.ResponseWriter, r *http.Request) {
	catalog, err := h.source.Shortcuts(r.Context())
	if err != nil {
		log.Printf("[shortcuts] get: %v", err)
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to load shortcuts"})
		return
	}
	s, ok := Find(catalog, mux.Vars(r)["id"])
	if !ok {
		writeJSON(w, http.StatusNotFound, models.ErrorResponse{Error: "Shortcut not found"})
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// ── Shortcut of the Day ─────────────────────────────────

type todayResponse struct {
	Shortcut Shortcut   `json:"shortcut"`
	Related  []Shortcut `json:"related"`
}

func (h *Handler) GetToday(w http.ResponseWriter, r *http.Request) {
	s, err := h.daily.Today(r.Context())
	if err != nil {
		log.Printf("[shortcuts] today: %v", err)
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to pick today's shortcut"})
		return
	}
	catalog, _ := h.source.Shortcuts(r.Context())
	related := RelatedTo(catalog, s)
	if related == nil {
		related = []Shortcut{}
	}
	writeJSON(w, http.StatusOK, todayResponse{Shortcut: s, Related: related})
}

func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.daily.History(r.Context()))
}

type learnedResponse struct {
	Shortcut Shortcut              `json:"shortcut"`
	Outcome  *gamification.Outcome `json:"outcome,omitempty"`
}

// MarkLearned flags today's shortcut as learned and, for a signed-in caller,
// reports it to their gamification session.
func (h *Handler) MarkLearned(w http.ResponseWriter, r *http.Request) {
	s, ok := h.markToday(w, r, h.daily.MarkLearned)
	if !ok {
		return
	}

	resp := learnedResponse{Shortcut: s}
	if userID, signedIn := getUserID(r); signedIn && h.sessions != nil {
		out, err := h.sessions.Get(r.Context(), userID).LearnShortcut(r.Context(), models.LearnShortcutRequest{
			ShortcutID:  s.ID,
			Application: AppKey(s.Application),
			Difficulty:  s.Difficulty,
		})
		if err != nil {
			log.Printf("[shortcuts] report learned %s: %v", s.ID, err)
		} else {
			resp.Outcome = &out
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) MarkPracticed(w http.ResponseWriter, r *http.Request) {
	s, ok := h.markToday(w, r, h.daily.MarkPracticed)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, learnedResponse{Shortcut: s})
}

func (h *Handler) markToday(w http.ResponseWriter, r *http.Request, mark func(ctx context.Context, id string) (bool, error)) (Shortcut, bool) {
	s, err := h.daily.Today(r.Context())
	if err != nil {
		log.Printf("[shortcuts] today: %v", err)
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to pick today's shortcut"})
		return Shortcut{}, false
	}
	if _, err := mark(r.Context(), s.ID); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, ErrNotToday) {
			status = http.StatusConflict
		}
		writeJSON(w, status, models.ErrorResponse{Error: err.Error()})
		return Shortcut{}, false
	}
	return s, true
}

// ── Helpers ─────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
