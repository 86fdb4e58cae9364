package recommend

import (
	"encoding/json"
	"log"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/shortcut-sensei/backend/internal/models"
)

const (
	defaultCount = 5
	maxCount     = 20
)

type Handler struct {
	recommender *Recommender
}

func NewHandler(recommender *Recommender) *Handler {
	return &Handler{recommender: recommender}
}

func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/recommendations", h.GetRecommendations).Methods("GET")
}

func getUserID(r *http.Request) (int64, bool) {
	uid, ok := r.Context().Value("user_id").(int64)
	return uid, ok
}

// GetRecommendations accepts ?count=N (1-20, default 5) and ?app=<name> to
// favour the application the caller is currently in.
func (h *Handler) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	userID, ok := getUserID(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, models.ErrorResponse{Error: "Authentication required"})
		return
	}

	q := r.URL.Query()
	count := intQueryParam(q, "count", defaultCount)
	if count < 1 || count > maxCount {
		writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: "count must be between 1 and 20"})
		return
	}

	result, err := h.recommender.ForUser(r.Context(), userID, count, q.Get("app"))
	if err != nil {
		log.Printf("[recommend] user %d: %v", userID, err)
		writeJSON(w, http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to build recommendations"})
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// ── Helpers ─────────────────────────────────────────────

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
