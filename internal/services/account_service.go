package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/hputnam/tutordesk/internal/models"
	pkgauth "github.com/hputnam/tutordesk/pkg/auth"
	pkglogger "github.com/hputnam/tutordesk/pkg/logger"
)

// AccountAdminRepository extends the guard's repository view with the
// administrative operations.
type AccountAdminRepository interface {
	AccountRepository
	List(ctx context.Context, limit, offset int) ([]*models.Account, error)
	Create(ctx context.Context, account *models.Account) (*models.Account, error)
	Update(ctx context.Context, id string, account *models.Account) (*models.Account, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	Delete(ctx context.Context, id string) error
}

// AccountService handles administrative account management. Only the login
// guard issues tokens; account creation never does.
type AccountService struct {
	repo        AccountAdminRepository
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger
}

// NewAccountService creates a new AccountService
func NewAccountService(repo AccountAdminRepository, logger *slog.Logger, auditLogger *pkglogger.AuditLogger) *AccountService {
	return &AccountService{
		repo:        repo,
		logger:      logger,
		auditLogger: auditLogger,
	}
}

// CreateAccountInput carries validated account creation fields.
type CreateAccountInput struct {
	Username    string
	Email       string
	Password    string
	DisplayName string
	Role        models.Role
}

// CreateAccount creates an account with a hashed password.
func (s *AccountService) CreateAccount(ctx context.Context, input CreateAccountInput) (*models.Account, error) {
	input.Username = strings.ToLower(strings.TrimSpace(input.Username))

	if !models.IsValidRole(input.Role) {
		return nil, models.ErrBadRequest
	}

	if err := pkgauth.ValidatePassword(input.Password); err != nil {
		return nil, models.ErrBadRequest
	}

	if _, err := s.repo.GetByUsername(ctx, input.Username); err == nil {
		return nil, models.ErrConflict
	} else if !errors.Is(err, models.ErrNotFound) {
		s.logger.Error("failed to check username", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	hash, err := pkgauth.HashPassword(input.Password)
	if err != nil {
		s.logger.Error("failed to hash password", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	account := &models.Account{
		Username:     input.Username,
		Email:        strings.TrimSpace(input.Email),
		PasswordHash: hash,
		DisplayName:  strings.TrimSpace(input.DisplayName),
		Role:         input.Role,
		Active:       true,
	}

	created, err := s.repo.Create(ctx, account)
	if err != nil {
		if errors.Is(err, models.ErrConflict) {
			return nil, models.ErrConflict
		}
		s.logger.Error("failed to create account", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.auditLogger.LogAccountAction("account_created", created.Username, "", map[string]string{
		"role": string(created.Role),
	})

	return created, nil
}

// GetAccount retrieves an account by ID
func (s *AccountService) GetAccount(ctx context.Context, id string) (*models.Account, error) {
	account, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to get account", slog.String("account_id", id), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return account, nil
}

// ListAccounts retrieves accounts with pagination
func (s *AccountService) ListAccounts(ctx context.Context, limit, offset int) ([]*models.Account, error) {
	accounts, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		s.logger.Error("failed to list accounts", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return accounts, nil
}

// UpdateAccountInput carries mutable account fields.
type UpdateAccountInput struct {
	Email         string
	DisplayName   string
	Role          models.Role
	Active        bool
	EmailVerified bool
}

// UpdateAccount updates profile, role and active flag.
func (s *AccountService) UpdateAccount(ctx context.Context, id string, input UpdateAccountInput) (*models.Account, error) {
	if !models.IsValidRole(input.Role) {
		return nil, models.ErrBadRequest
	}

	account := &models.Account{
		Email:         strings.TrimSpace(input.Email),
		DisplayName:   strings.TrimSpace(input.DisplayName),
		Role:          input.Role,
		Active:        input.Active,
		EmailVerified: input.EmailVerified,
	}

	updated, err := s.repo.Update(ctx, id, account)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to update account", slog.String("account_id", id), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return updated, nil
}

// ChangePassword rehashes and stores a new password.
func (s *AccountService) ChangePassword(ctx context.Context, id, newPassword string) error {
	if err := pkgauth.ValidatePassword(newPassword); err != nil {
		return models.ErrBadRequest
	}

	hash, err := pkgauth.HashPassword(newPassword)
	if err != nil {
		s.logger.Error("failed to hash password", slog.Any("error", err))
		return models.ErrInternalServer
	}

	if err := s.repo.UpdatePassword(ctx, id, hash); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrNotFound
		}
		s.logger.Error("failed to update password", slog.String("account_id", id), slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.auditLogger.LogAccountAction("password_changed", id, "", nil)
	return nil
}

// DeleteAccount removes an account
func (s *AccountService) DeleteAccount(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrNotFound
		}
		s.logger.Error("failed to delete account", slog.String("account_id", id), slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.auditLogger.LogAccountAction("account_deleted", id, "", nil)
	return nil
}
