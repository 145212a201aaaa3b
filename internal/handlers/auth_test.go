package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/hputnam/tutordesk/internal/handlers"
	"github.com/hputnam/tutordesk/internal/models"
	"github.com/hputnam/tutordesk/internal/services"
)

func TestLogin_Success(t *testing.T) {
	guard := &handlers.MockLoginGuard{
		AttemptLoginFunc: func(ctx context.Context, username, password, ipAddress, userAgent string) (*services.LoginResult, error) {
			assert.Equal(t, "alice", username)
			return &services.LoginResult{
				Token: "token_123",
				User: &services.AccountResponse{
					ID:       "acc-1",
					Username: "alice",
					Role:     models.RoleManager,
				},
			}, nil
		},
	}

	handler := handlers.NewAuthHandler(guard, nil, nil)
	req := handlers.NewTestRequest(t, "POST", "/auth/login", handlers.LoginRequest{
		Username: "Alice ", // normalized before the guard sees it
		Password: "password123",
	})

	w := httptest.NewRecorder()
	handler.Login(w, req)

	var resp services.LoginResult
	handlers.AssertJSONResponse(t, w, 200, &resp)
	assert.Equal(t, "token_123", resp.Token)
	assert.Equal(t, "alice", resp.User.Username)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	guard := &handlers.MockLoginGuard{
		AttemptLoginFunc: func(ctx context.Context, username, password, ipAddress, userAgent string) (*services.LoginResult, error) {
			return nil, &models.InvalidCredentialsError{RemainingAttempts: 1}
		},
	}

	handler := handlers.NewAuthHandler(guard, nil, nil)
	req := handlers.NewTestRequest(t, "POST", "/auth/login", handlers.LoginRequest{
		Username: "alice",
		Password: "wrongpassword",
	})

	w := httptest.NewRecorder()
	handler.Login(w, req)

	var resp handlers.RejectedResponse
	handlers.AssertJSONResponse(t, w, http.StatusUnauthorized, &resp)
	assert.Equal(t, "invalid_credentials", resp.Error)
	assert.Equal(t, 1, resp.RemainingAttempts)
}

func TestLogin_AccountLocked(t *testing.T) {
	guard := &handlers.MockLoginGuard{
		AttemptLoginFunc: func(ctx context.Context, username, password, ipAddress, userAgent string) (*services.LoginResult, error) {
			return nil, &models.AccountLockedError{RemainingMinutes: 42}
		},
	}

	handler := handlers.NewAuthHandler(guard, nil, nil)
	req := handlers.NewTestRequest(t, "POST", "/auth/login", handlers.LoginRequest{
		Username: "alice",
		Password: "password123",
	})

	w := httptest.NewRecorder()
	handler.Login(w, req)

	var resp handlers.LockedResponse
	handlers.AssertJSONResponse(t, w, http.StatusLocked, &resp)
	assert.Equal(t, "account_locked", resp.Error)
	assert.Equal(t, 42, resp.RemainingMinutes)
}

func TestLogin_UnknownUserIndistinguishable(t *testing.T) {
	// Both outcomes flow through the same error type, so the handler must
	// produce byte-identical bodies for an unknown user and a wrong password.
	guard := &handlers.MockLoginGuard{
		AttemptLoginFunc: func(ctx context.Context, username, password, ipAddress, userAgent string) (*services.LoginResult, error) {
			return nil, &models.InvalidCredentialsError{RemainingAttempts: 2}
		},
	}
	handler := handlers.NewAuthHandler(guard, nil, nil)

	bodies := make([]string, 0, 2)
	for _, username := range []string{"alice", "no-such-user"} {
		req := handlers.NewTestRequest(t, "POST", "/auth/login", handlers.LoginRequest{
			Username: username,
			Password: "whatever",
		})
		w := httptest.NewRecorder()
		handler.Login(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		bodies = append(bodies, w.Body.String())
	}

	assert.Equal(t, bodies[0], bodies[1])
}

func TestLogin_MissingFields(t *testing.T) {
	handler := handlers.NewAuthHandler(&handlers.MockLoginGuard{}, nil, nil)
	req := handlers.NewTestRequest(t, "POST", "/auth/login", handlers.LoginRequest{
		Username: "alice",
	})

	w := httptest.NewRecorder()
	handler.Login(w, req)

	handlers.AssertErrorResponse(t, w, http.StatusBadRequest, "bad_request")
}

func TestLogin_MalformedBody(t *testing.T) {
	handler := handlers.NewAuthHandler(&handlers.MockLoginGuard{}, nil, nil)
	req := httptest.NewRequest("POST", "/auth/login", nil)

	w := httptest.NewRecorder()
	handler.Login(w, req)

	handlers.AssertErrorResponse(t, w, http.StatusBadRequest, "bad_request")
}

func TestLockStatus_Locked(t *testing.T) {
	unlockAt := time.Now().Add(30 * time.Minute).UTC()
	guard := &handlers.MockLoginGuard{
		CheckLockStatusFunc: func(ctx context.Context, username string) (*models.LockStatus, error) {
			assert.Equal(t, "alice", username)
			return &models.LockStatus{
				IsLocked:         true,
				RemainingMinutes: 30,
				UnlockTime:       &unlockAt,
				FailedAttempts:   3,
			}, nil
		},
	}

	handler := handlers.NewAuthHandler(guard, nil, nil)
	req := httptest.NewRequest("GET", "/auth/accounts/alice/lock-status", nil)
	req = handlers.WithChiRouteContext(req, map[string]string{"username": "alice"})

	w := httptest.NewRecorder()
	handler.LockStatus(w, req)

	var resp models.LockStatus
	handlers.AssertJSONResponse(t, w, 200, &resp)
	assert.True(t, resp.IsLocked)
	assert.Equal(t, 30, resp.RemainingMinutes)
	assert.Equal(t, 3, resp.FailedAttempts)
}

func TestLockStatus_NotFound(t *testing.T) {
	handler := handlers.NewAuthHandler(&handlers.MockLoginGuard{}, nil, nil)
	req := httptest.NewRequest("GET", "/auth/accounts/ghost/lock-status", nil)
	req = handlers.WithChiRouteContext(req, map[string]string{"username": "ghost"})

	w := httptest.NewRecorder()
	handler.LockStatus(w, req)

	handlers.AssertErrorResponse(t, w, http.StatusNotFound, "not_found")
}

func TestUnlock_Success(t *testing.T) {
	var gotUsername, gotRequestedBy string
	var gotRole models.Role
	guard := &handlers.MockLoginGuard{
		UnlockAccountFunc: func(ctx context.Context, username, requestedBy string, requestedByRole models.Role) error {
			gotUsername = username
			gotRequestedBy = requestedBy
			gotRole = requestedByRole
			return nil
		},
	}

	handler := handlers.NewAuthHandler(guard, nil, nil)
	req := httptest.NewRequest("POST", "/auth/accounts/alice/unlock", nil)
	req = handlers.WithChiRouteContext(req, map[string]string{"username": "alice"})
	req = handlers.WithAuthContext(req, "root", models.RoleAdmin)

	w := httptest.NewRecorder()
	handler.Unlock(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "alice", gotUsername)
	assert.Equal(t, "root", gotRequestedBy)
	assert.Equal(t, models.RoleAdmin, gotRole)
}

func TestUnlock_Forbidden(t *testing.T) {
	guard := &handlers.MockLoginGuard{
		UnlockAccountFunc: func(ctx context.Context, username, requestedBy string, requestedByRole models.Role) error {
			return models.ErrForbidden
		},
	}

	handler := handlers.NewAuthHandler(guard, nil, nil)
	req := httptest.NewRequest("POST", "/auth/accounts/alice/unlock", nil)
	req = handlers.WithChiRouteContext(req, map[string]string{"username": "alice"})
	req = handlers.WithAuthContext(req, "bob", models.RoleManager)

	w := httptest.NewRecorder()
	handler.Unlock(w, req)

	handlers.AssertErrorResponse(t, w, http.StatusForbidden, "forbidden")
}

func TestUnlock_NotLocked(t *testing.T) {
	guard := &handlers.MockLoginGuard{
		UnlockAccountFunc: func(ctx context.Context, username, requestedBy string, requestedByRole models.Role) error {
			return models.ErrNotLocked
		},
	}

	handler := handlers.NewAuthHandler(guard, nil, nil)
	req := httptest.NewRequest("POST", "/auth/accounts/alice/unlock", nil)
	req = handlers.WithChiRouteContext(req, map[string]string{"username": "alice"})
	req = handlers.WithAuthContext(req, "root", models.RoleAdmin)

	w := httptest.NewRecorder()
	handler.Unlock(w, req)

	handlers.AssertErrorResponse(t, w, http.StatusConflict, "conflict")
}

func TestUnlock_NoClaims(t *testing.T) {
	handler := handlers.NewAuthHandler(&handlers.MockLoginGuard{}, nil, nil)
	req := httptest.NewRequest("POST", "/auth/accounts/alice/unlock", nil)
	req = handlers.WithChiRouteContext(req, map[string]string{"username": "alice"})

	w := httptest.NewRecorder()
	handler.Unlock(w, req)

	handlers.AssertErrorResponse(t, w, http.StatusUnauthorized, "unauthorized")
}

func TestLockStatus_ResponseShape(t *testing.T) {
	guard := &handlers.MockLoginGuard{
		CheckLockStatusFunc: func(ctx context.Context, username string) (*models.LockStatus, error) {
			return &models.LockStatus{IsLocked: false, FailedAttempts: 1}, nil
		},
	}

	handler := handlers.NewAuthHandler(guard, nil, nil)
	req := httptest.NewRequest("GET", "/auth/accounts/alice/lock-status", nil)
	req = handlers.WithChiRouteContext(req, map[string]string{"username": "alice"})

	w := httptest.NewRecorder()
	handler.LockStatus(w, req)

	var raw map[string]json.RawMessage
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &raw))
	assert.Contains(t, raw, "is_locked")
	assert.Contains(t, raw, "remaining_minutes")
	assert.Contains(t, raw, "failed_attempts")
	// unlock_time is omitted while the account is unlocked
	assert.NotContains(t, raw, "unlock_time")
}

func TestLoginHistory_Success(t *testing.T) {
	lastSuccess := time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)
	var gotLimit int
	audit := &handlers.MockAttemptAudit{
		ListByUsernameFunc: func(ctx context.Context, username string, limit int) ([]*models.LoginAttempt, error) {
			gotLimit = limit
			reason := "invalid_credentials"
			return []*models.LoginAttempt{
				{Username: username, IPAddress: "203.0.113.7", Success: false, FailureReason: &reason},
				{Username: username, IPAddress: "203.0.113.7", Success: true},
			}, nil
		},
		GetLastSuccessTimeFunc: func(ctx context.Context, username string) (*time.Time, error) {
			return &lastSuccess, nil
		},
	}

	handler := handlers.NewAuthHandler(&handlers.MockLoginGuard{}, audit, nil)
	req := httptest.NewRequest("GET", "/auth/accounts/Alice/attempts?limit=5", nil)
	req = handlers.WithChiRouteContext(req, map[string]string{"username": "Alice"})

	w := httptest.NewRecorder()
	handler.LoginHistory(w, req)

	var resp handlers.LoginHistoryResponse
	handlers.AssertJSONResponse(t, w, http.StatusOK, &resp)
	assert.Equal(t, 5, gotLimit)
	assert.Equal(t, "alice", resp.Username)
	assert.Equal(t, 2, resp.Total)
	assert.NotNil(t, resp.LastSuccess)
	assert.True(t, resp.LastSuccess.Equal(lastSuccess))
}

func TestLoginHistory_LimitClamped(t *testing.T) {
	var gotLimit int
	audit := &handlers.MockAttemptAudit{
		ListByUsernameFunc: func(ctx context.Context, username string, limit int) ([]*models.LoginAttempt, error) {
			gotLimit = limit
			return nil, nil
		},
	}

	handler := handlers.NewAuthHandler(&handlers.MockLoginGuard{}, audit, nil)
	req := httptest.NewRequest("GET", "/auth/accounts/alice/attempts?limit=9999", nil)
	req = handlers.WithChiRouteContext(req, map[string]string{"username": "alice"})

	w := httptest.NewRecorder()
	handler.LoginHistory(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	// out-of-range limits fall back to the default
	assert.Equal(t, 20, gotLimit)
}
