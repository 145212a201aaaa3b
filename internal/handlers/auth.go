package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hputnam/tutordesk/internal/auth"
	"github.com/hputnam/tutordesk/internal/models"
	"github.com/hputnam/tutordesk/internal/services"
	pkghttp "github.com/hputnam/tutordesk/pkg/http"
)

// LoginGuardService defines the interface for the login guard business logic
type LoginGuardService interface {
	AttemptLogin(ctx context.Context, username, password, ipAddress, userAgent string) (*services.LoginResult, error)
	CheckLockStatus(ctx context.Context, username string) (*models.LockStatus, error)
	UnlockAccount(ctx context.Context, username, requestedBy string, requestedByRole models.Role) error
}

// AttemptAuditReader reads the durable login-attempt trail
type AttemptAuditReader interface {
	ListByUsername(ctx context.Context, username string, limit int) ([]*models.LoginAttempt, error)
	GetLastSuccessTime(ctx context.Context, username string) (*time.Time, error)
}

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	guard    LoginGuardService
	audit    AttemptAuditReader
	ipConfig *pkghttp.IPConfig
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(guard LoginGuardService, audit AttemptAuditReader, ipConfig *pkghttp.IPConfig) *AuthHandler {
	return &AuthHandler{
		guard:    guard,
		audit:    audit,
		ipConfig: ipConfig,
	}
}

// LoginRequest represents the request body for login
type LoginRequest struct {
	Username string `json:"username" validate:"required,min=1,max=64"`
	Password string `json:"password" validate:"required"`
}

// RejectedResponse is the 401 body for a failed attempt. RemainingAttempts
// counts down to the lock threshold; unknown usernames produce the same
// body as wrong passwords.
type RejectedResponse struct {
	Error             string `json:"error"`
	Message           string `json:"message"`
	RemainingAttempts int    `json:"remaining_attempts"`
}

// LockedResponse is the 423 body returned while an account is locked.
type LockedResponse struct {
	Error            string `json:"error"`
	Message          string `json:"message"`
	RemainingMinutes int    `json:"remaining_minutes"`
}

// Login handles a sign-in attempt
// @Summary Sign in
// @Accept json
// @Param request body LoginRequest true "Login request"
// @Produce json
// @Success 200 {object} services.LoginResult
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} RejectedResponse
// @Failure 423 {object} LockedResponse
// @Failure 500 {object} ErrorResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	req.Username = strings.ToLower(strings.TrimSpace(req.Username))

	ipAddress := pkghttp.ExtractClientIP(r, h.ipConfig)
	userAgent := r.Header.Get("User-Agent")

	result, err := h.guard.AttemptLogin(r.Context(), req.Username, req.Password, ipAddress, userAgent)
	if err != nil {
		var invalidCreds *models.InvalidCredentialsError
		var locked *models.AccountLockedError
		switch {
		case errors.As(err, &invalidCreds):
			writeJSON(w, http.StatusUnauthorized, RejectedResponse{
				Error:             "invalid_credentials",
				Message:           "Invalid username or password",
				RemainingAttempts: invalidCreds.RemainingAttempts,
			})
		case errors.As(err, &locked):
			writeJSON(w, http.StatusLocked, LockedResponse{
				Error:            "account_locked",
				Message:          "Account is temporarily locked due to repeated failed attempts",
				RemainingMinutes: locked.RemainingMinutes,
			})
		case errors.Is(err, models.ErrBadRequest):
			pkghttp.WriteBadRequest(w, "Username and password are required")
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// LockStatus reports whether an account is locked and for how much longer
// @Summary Account lock status
// @Param username path string true "Account username"
// @Produce json
// @Success 200 {object} models.LockStatus
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /auth/accounts/{username}/lock-status [get]
func (h *AuthHandler) LockStatus(w http.ResponseWriter, r *http.Request) {
	username := strings.ToLower(strings.TrimSpace(chi.URLParam(r, "username")))
	if username == "" {
		pkghttp.WriteBadRequest(w, "Username is required")
		return
	}

	status, err := h.guard.CheckLockStatus(r.Context(), username)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			pkghttp.WriteNotFound(w, "Account not found")
			return
		}
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, status)
}

// Unlock clears an account lock ahead of its deadline
// @Summary Unlock account
// @Param username path string true "Account username"
// @Produce json
// @Success 204
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /auth/accounts/{username}/unlock [post]
func (h *AuthHandler) Unlock(w http.ResponseWriter, r *http.Request) {
	username := strings.ToLower(strings.TrimSpace(chi.URLParam(r, "username")))
	if username == "" {
		pkghttp.WriteBadRequest(w, "Username is required")
		return
	}

	claims := auth.GetUserFromContext(r)
	if claims == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	err := h.guard.UnlockAccount(r.Context(), username, claims.Username, claims.Role)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrForbidden):
			pkghttp.WriteForbidden(w, "Forbidden: administrator role required")
		case errors.Is(err, models.ErrNotFound):
			pkghttp.WriteNotFound(w, "Account not found")
		case errors.Is(err, models.ErrNotLocked):
			pkghttp.WriteConflict(w, "Account is not locked")
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// LoginHistoryResponse is the attempt-trail page for one account
type LoginHistoryResponse struct {
	Username    string                 `json:"username"`
	LastSuccess *time.Time             `json:"last_success,omitempty"`
	Attempts    []*models.LoginAttempt `json:"attempts"`
	Total       int                    `json:"total"`
}

// LoginHistory returns the recent durable attempt trail for an account.
// Operator forensics only; the trail never feeds lock decisions.
// @Summary Login attempt history
// @Param username path string true "Account username"
// @Param limit query int false "Max attempts to return (default 20)"
// @Produce json
// @Success 200 {object} LoginHistoryResponse
// @Failure 500 {object} ErrorResponse
// @Router /auth/accounts/{username}/attempts [get]
func (h *AuthHandler) LoginHistory(w http.ResponseWriter, r *http.Request) {
	username := strings.ToLower(strings.TrimSpace(chi.URLParam(r, "username")))
	if username == "" {
		pkghttp.WriteBadRequest(w, "Username is required")
		return
	}

	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}

	attempts, err := h.audit.ListByUsername(r.Context(), username, limit)
	if err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	lastSuccess, err := h.audit.GetLastSuccessTime(r.Context(), username)
	if err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, LoginHistoryResponse{
		Username:    username,
		LastSuccess: lastSuccess,
		Attempts:    attempts,
		Total:       len(attempts),
	})
}

// writeJSON writes a JSON response body with the given status code
func writeJSON(w http.ResponseWriter, statusCode int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(body)
}
