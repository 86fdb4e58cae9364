package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/shortcut-sensei/backend/internal/auth"
	"github.com/shortcut-sensei/backend/internal/models"
)

// AuthMiddleware rejects requests without a valid bearer token and stores
// the caller's id under "user_id" (int64) in the request context.
func AuthMiddleware(secret string) func(http.Handler) http.Handler {
	key := []byte(secret)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				writeError(w, "Authorization header must be 'Bearer <token>'")
				return
			}
			userID, err := auth.ParseToken(key, token)
			if err != nil {
				writeError(w, "Invalid or expired token")
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), "user_id", userID)))
		})
	}
}

// OptionalAuth sets "user_id" when a valid bearer token is present and lets
// every request through.
func OptionalAuth(secret string) func(http.Handler) http.Handler {
	key := []byte(secret)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token, ok := bearerToken(r); ok {
				if userID, err := auth.ParseToken(key, token); err == nil {
					r = r.WithContext(context.WithValue(r.Context(), "user_id", userID))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if len(header) <= 7 || !strings.EqualFold(header[:7], "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(header[7:])
	return token, token != ""
}

func writeError(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(models.ErrorResponse{Error: msg})
}
