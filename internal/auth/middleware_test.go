package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hputnam/tutordesk/internal/models"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	tm := NewTokenManager(testSecret, 4*time.Hour)
	token, err := tm.GenerateSessionToken("account-1", "alice", models.RoleManager)
	require.NoError(t, err)

	var got *models.TokenClaims
	handler := AuthMiddleware(tm)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = GetUserFromContext(r)
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/students", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, got)
	assert.Equal(t, "alice", got.Username)
	assert.Equal(t, models.RoleManager, got.Role)
}

func TestAuthMiddleware_MissingHeader(t *testing.T) {
	tm := NewTokenManager(testSecret, 4*time.Hour)
	handler := AuthMiddleware(tm)(okHandler())

	req := httptest.NewRequest("GET", "/students", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddleware_MalformedHeader(t *testing.T) {
	tm := NewTokenManager(testSecret, 4*time.Hour)
	handler := AuthMiddleware(tm)(okHandler())

	req := httptest.NewRequest("GET", "/students", nil)
	req.Header.Set("Authorization", "Token abc123")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireRole(t *testing.T) {
	tm := NewTokenManager(testSecret, 4*time.Hour)

	tests := []struct {
		name       string
		role       models.Role
		allowed    []models.Role
		wantStatus int
	}{
		{"admin allowed", models.RoleAdmin, []models.Role{models.RoleAdmin}, http.StatusOK},
		{"manager allowed on shared route", models.RoleManager, []models.Role{models.RoleAdmin, models.RoleManager}, http.StatusOK},
		{"user forbidden on admin route", models.RoleUser, []models.Role{models.RoleAdmin}, http.StatusForbidden},
		{"teacher forbidden on admin route", models.RoleTeacher, []models.Role{models.RoleAdmin, models.RoleManager}, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := tm.GenerateSessionToken("account-1", "alice", tt.role)
			require.NoError(t, err)

			handler := AuthMiddleware(tm)(RequireRole(tt.allowed...)(okHandler()))

			req := httptest.NewRequest("POST", "/admin/unlock", nil)
			req.Header.Set("Authorization", "Bearer "+token)
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestRequireRole_NoClaims(t *testing.T) {
	handler := RequireRole(models.RoleAdmin)(okHandler())

	req := httptest.NewRequest("POST", "/admin/unlock", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
