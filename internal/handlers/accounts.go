package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/hputnam/tutordesk/internal/models"
	"github.com/hputnam/tutordesk/internal/services"
	pkghttp "github.com/hputnam/tutordesk/pkg/http"
)

// AccountServiceInterface defines the interface for account administration
type AccountServiceInterface interface {
	CreateAccount(ctx context.Context, input services.CreateAccountInput) (*models.Account, error)
	GetAccount(ctx context.Context, id string) (*models.Account, error)
	ListAccounts(ctx context.Context, limit, offset int) ([]*models.Account, error)
	UpdateAccount(ctx context.Context, id string, input services.UpdateAccountInput) (*models.Account, error)
	ChangePassword(ctx context.Context, id, newPassword string) error
	DeleteAccount(ctx context.Context, id string) error
}

// AccountHandler handles account administration HTTP requests
type AccountHandler struct {
	service AccountServiceInterface
}

// NewAccountHandler creates a new AccountHandler
func NewAccountHandler(service AccountServiceInterface) *AccountHandler {
	return &AccountHandler{service: service}
}

// CreateAccountRequest represents the request body for creating an account
type CreateAccountRequest struct {
	Username    string `json:"username" validate:"required,min=1,max=64"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required"`
	DisplayName string `json:"display_name" validate:"required,min=1,max=128"`
	Role        string `json:"role" validate:"required,oneof=admin manager teacher user"`
}

// UpdateAccountRequest represents the request body for updating an account
type UpdateAccountRequest struct {
	Email         string `json:"email" validate:"required,email"`
	DisplayName   string `json:"display_name" validate:"required,min=1,max=128"`
	Role          string `json:"role" validate:"required,oneof=admin manager teacher user"`
	Active        bool   `json:"active"`
	EmailVerified bool   `json:"email_verified"`
}

// ChangePasswordRequest represents the request body for a password change
type ChangePasswordRequest struct {
	Password string `json:"password" validate:"required"`
}

// ListAccountsResponse represents a page of accounts
type ListAccountsResponse struct {
	Accounts []*models.Account `json:"accounts"`
	Total    int               `json:"total"`
}

// RegisterRoutes registers all account routes with the chi router
func (h *AccountHandler) RegisterRoutes(router chi.Router) {
	router.Route("/accounts", func(r chi.Router) {
		r.Post("/", h.CreateAccount)              // POST /accounts
		r.Get("/", h.ListAccounts)                // GET /accounts
		r.Get("/{id}", h.GetAccount)              // GET /accounts/{id}
		r.Put("/{id}", h.UpdateAccount)           // PUT /accounts/{id}
		r.Put("/{id}/password", h.ChangePassword) // PUT /accounts/{id}/password
		r.Delete("/{id}", h.DeleteAccount)        // DELETE /accounts/{id}
	})
}

// CreateAccount creates an account
//
// @Summary Create account
// @Accept json
// @Param request body CreateAccountRequest true "Account"
// @Produce json
// @Success 201 {object} models.Account
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /accounts [post]
func (h *AccountHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req CreateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	account, err := h.service.CreateAccount(r.Context(), services.CreateAccountInput{
		Username:    strings.ToLower(strings.TrimSpace(req.Username)),
		Email:       strings.ToLower(strings.TrimSpace(req.Email)),
		Password:    req.Password,
		DisplayName: strings.TrimSpace(req.DisplayName),
		Role:        models.Role(req.Role),
	})
	if err != nil {
		switch {
		case errors.Is(err, models.ErrConflict):
			pkghttp.WriteConflict(w, "Username already exists")
		case errors.Is(err, models.ErrBadRequest):
			pkghttp.WriteBadRequest(w, "Invalid account fields")
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	writeJSON(w, http.StatusCreated, account)
}

// GetAccount retrieves an account by ID
func (h *AccountHandler) GetAccount(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		pkghttp.WriteBadRequest(w, "Account ID is required")
		return
	}

	account, err := h.service.GetAccount(r.Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			pkghttp.WriteNotFound(w, "Account not found")
			return
		}
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, account)
}

// ListAccounts retrieves a page of accounts
//
// @Summary List accounts
// @Param limit query int false "Limit (default 10)" default(10)
// @Param offset query int false "Offset (default 0)" default(0)
// @Produce json
// @Success 200 {object} ListAccountsResponse
// @Router /accounts [get]
func (h *AccountHandler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := parsePagination(r)
	if err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	accounts, err := h.service.ListAccounts(r.Context(), limit, offset)
	if err != nil {
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, ListAccountsResponse{
		Accounts: accounts,
		Total:    len(accounts),
	})
}

// UpdateAccount updates profile fields, role and the active flag
func (h *AccountHandler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		pkghttp.WriteBadRequest(w, "Account ID is required")
		return
	}

	var req UpdateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	account, err := h.service.UpdateAccount(r.Context(), id, services.UpdateAccountInput{
		Email:         strings.ToLower(strings.TrimSpace(req.Email)),
		DisplayName:   strings.TrimSpace(req.DisplayName),
		Role:          models.Role(req.Role),
		Active:        req.Active,
		EmailVerified: req.EmailVerified,
	})
	if err != nil {
		switch {
		case errors.Is(err, models.ErrNotFound):
			pkghttp.WriteNotFound(w, "Account not found")
		case errors.Is(err, models.ErrBadRequest):
			pkghttp.WriteBadRequest(w, "Invalid account fields")
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	writeJSON(w, http.StatusOK, account)
}

// ChangePassword replaces an account's password
func (h *AccountHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		pkghttp.WriteBadRequest(w, "Account ID is required")
		return
	}

	var req ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	if err := h.service.ChangePassword(r.Context(), id, req.Password); err != nil {
		switch {
		case errors.Is(err, models.ErrNotFound):
			pkghttp.WriteNotFound(w, "Account not found")
		case errors.Is(err, models.ErrBadRequest):
			pkghttp.WriteBadRequest(w, "Password does not meet requirements")
		default:
			pkghttp.WriteInternalError(w, "Internal server error")
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DeleteAccount removes an account
func (h *AccountHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		pkghttp.WriteBadRequest(w, "Account ID is required")
		return
	}

	if err := h.service.DeleteAccount(r.Context(), id); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			pkghttp.WriteNotFound(w, "Account not found")
			return
		}
		pkghttp.WriteInternalError(w, "Internal server error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
