package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shortcut-sensei/backend/internal/auth"
)

const testSecret = "test-secret"

// echoUser writes the user_id seen by the handler, or "anonymous".
var echoUser = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	uid, ok := r.Context().Value("user_id").(int64)
	if !ok {
		w.Write([]byte("anonymous"))
		return
	}
	w.Write([]byte(strconv.FormatInt(uid, 10)))
})

func request(h http.Handler, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", "/", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func token(t *testing.T, secret string, userID int64, issued time.Time) string {
	t.Helper()
	tok, err := auth.GenerateToken([]byte(secret), userID, issued)
	require.NoError(t, err)
	return tok
}

func TestAuthMiddleware(t *testing.T) {
	h := AuthMiddleware(testSecret)(echoUser)
	now := time.Now()

	none := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"user_id": 42, "exp": now.Add(time.Hour).Unix()})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		code   int
		body   string
	}{
		{"valid token", "Bearer " + token(t, testSecret, 42, now), http.StatusOK, "42"},
		{"lowercase scheme", "bearer " + token(t, testSecret, 7, now), http.StatusOK, "7"},
		{"missing header", "", http.StatusUnauthorized, ""},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized, ""},
		{"wrong secret", "Bearer " + token(t, "other", 42, now), http.StatusUnauthorized, ""},
		{"expired", "Bearer " + token(t, testSecret, 42, now.Add(-auth.TokenTTL-time.Minute)), http.StatusUnauthorized, ""},
		{"alg none", "Bearer " + unsigned, http.StatusUnauthorized, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := request(h, tt.header)
			assert.Equal(t, tt.code, rec.Code)
			if tt.body != "" {
				assert.Equal(t, tt.body, rec.Body.String())
			} else {
				assert.Contains(t, rec.Body.String(), `"error"`)
			}
		})
	}
}

func TestOptionalAuth(t *testing.T) {
	h := OptionalAuth(testSecret)(echoUser)

	assert.Equal(t, "anonymous", request(h, "").Body.String())
	assert.Equal(t, "anonymous", request(h, "Bearer garbage").Body.String())
	assert.Equal(t, "9", request(h, "Bearer "+token(t, testSecret, 9, time.Now())).Body.String())
}

func TestParseTokenRequiresUserID(t *testing.T) {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"exp": time.Now().Add(time.Hour).Unix()})
	signed, err := tok.SignedString([]byte(testSecret))
	require.NoError(t, err)

	_, err = auth.ParseToken([]byte(testSecret), signed)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}
