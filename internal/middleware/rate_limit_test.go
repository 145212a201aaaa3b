package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hputnam/tutordesk/internal/auth"
	"github.com/hputnam/tutordesk/internal/models"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func requestAs(username string, role models.Role) *http.Request {
	req := httptest.NewRequest("GET", "/test", nil)
	claims := &models.TokenClaims{Username: username, Role: role}
	return req.WithContext(context.WithValue(req.Context(), auth.UserContextKey, claims))
}

// TestRateLimitByUserID_EnforcesLimit verifies the per-user bucket blocks the
// request after the configured count
func TestRateLimitByUserID_EnforcesLimit(t *testing.T) {
	config := AuthenticatedRateLimitConfig{
		ReadOperationsPerMinute: 10,
	}
	handler := RateLimitByUserID(config, "read")(okHandler())

	for i := 0; i < 10; i++ {
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, requestAs("alice", models.RoleUser))
		if recorder.Code != http.StatusOK {
			t.Errorf("request %d failed with status %d, expected 200", i+1, recorder.Code)
		}
	}

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, requestAs("alice", models.RoleUser))
	if recorder.Code != http.StatusTooManyRequests {
		t.Errorf("expected status 429 after limit, got %d", recorder.Code)
	}
}

// TestRateLimitByUserID_UsesOperationLimit verifies the write limit is picked
// for write operations
func TestRateLimitByUserID_UsesOperationLimit(t *testing.T) {
	config := AuthenticatedRateLimitConfig{
		ReadOperationsPerMinute:  100,
		WriteOperationsPerMinute: 1,
	}
	handler := RateLimitByUserID(config, "write")(okHandler())

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, requestAs("bob", models.RoleManager))
	if recorder.Code != http.StatusOK {
		t.Errorf("first request failed with status %d", recorder.Code)
	}

	recorder = httptest.NewRecorder()
	handler.ServeHTTP(recorder, requestAs("bob", models.RoleManager))
	if recorder.Code != http.StatusTooManyRequests {
		t.Errorf("expected 429, got %d", recorder.Code)
	}

	if ct := recorder.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected Content-Type application/json, got %s", ct)
	}
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(recorder.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
	if body.Error != "rate_limit_exceeded" {
		t.Errorf("expected error code rate_limit_exceeded, got %s", body.Error)
	}
}

// TestRateLimitByUserID_IsolatesUserBuckets verifies separate rate limits per user
func TestRateLimitByUserID_IsolatesUserBuckets(t *testing.T) {
	config := AuthenticatedRateLimitConfig{
		ReadOperationsPerMinute: 5,
	}
	handler := RateLimitByUserID(config, "read")(okHandler())

	for i := 0; i < 5; i++ {
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, requestAs("carol", models.RoleUser))
		if recorder.Code != http.StatusOK {
			t.Errorf("carol request %d failed", i+1)
		}
	}

	// dave has an independent bucket
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, requestAs("dave", models.RoleUser))
	if recorder.Code != http.StatusOK {
		t.Errorf("expected independent rate limit per user, got status %d", recorder.Code)
	}
}

// TestRateLimitByUserID_FallbackToIPWhenAnonymous verifies fallback to
// IP-based keys when no claims are present
func TestRateLimitByUserID_FallbackToIPWhenAnonymous(t *testing.T) {
	config := AuthenticatedRateLimitConfig{
		ReadOperationsPerMinute: 5,
	}
	handler := RateLimitByUserID(config, "read")(okHandler())

	req := httptest.NewRequest("GET", "/test", nil)
	req.RemoteAddr = "192.168.1.1:8080"
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, req)

	if recorder.Code != http.StatusOK {
		t.Errorf("expected status 200 for anonymous request, got %d", recorder.Code)
	}
}

// TestRateLimitByIP_EnforcesLimit verifies the anonymous login limiter
func TestRateLimitByIP_EnforcesLimit(t *testing.T) {
	config := RateLimitConfig{RequestsPerMinute: 3}
	handler := RateLimitByIP(config)(okHandler())

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest("POST", "/auth/login", nil)
		req.RemoteAddr = "10.0.0.9:1234"
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, req)
		if recorder.Code != http.StatusOK {
			t.Errorf("request %d failed with status %d", i+1, recorder.Code)
		}
	}

	req := httptest.NewRequest("POST", "/auth/login", nil)
	req.RemoteAddr = "10.0.0.9:1234"
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, req)
	if recorder.Code != http.StatusTooManyRequests {
		t.Errorf("expected 429 after limit, got %d", recorder.Code)
	}
}
