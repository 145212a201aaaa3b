package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/hputnam/tutordesk/internal/auth"
	"github.com/hputnam/tutordesk/internal/guard"
	"github.com/hputnam/tutordesk/internal/models"
	pkgauth "github.com/hputnam/tutordesk/pkg/auth"
	pkglogger "github.com/hputnam/tutordesk/pkg/logger"
)

// AccountRepository defines the persistence operations the guard depends on.
// Lock transitions are conditional writes so racing workers cannot double-lock
// an account or move an unlock deadline backwards.
type AccountRepository interface {
	GetByID(ctx context.Context, id string) (*models.Account, error)
	GetByUsername(ctx context.Context, username string) (*models.Account, error)
	GetActiveByUsername(ctx context.Context, username string) (*models.Account, error)
	Lock(ctx context.Context, id string, unlockAt time.Time) error
	ClearExpiredLock(ctx context.Context, id string) error
	Unlock(ctx context.Context, id string) error
	RecordLogin(ctx context.Context, id string, loginAt time.Time) error
}

// AttemptRecorder persists the forensic trail of attempts. Best-effort: a
// failed write never changes the guard's decision.
type AttemptRecorder interface {
	RecordAttempt(ctx context.Context, attempt *models.LoginAttempt) error
}

// LockNotifier sends out-of-band notice that an account got locked.
type LockNotifier interface {
	SendLockNotification(ctx context.Context, email, username string, unlockAt time.Time) error
}

// GuardConfig holds the lockout policy knobs.
type GuardConfig struct {
	MaxFailedAttempts  int           // consecutive failures before a lock (default 3)
	LockoutDuration    time.Duration // timed-lock length (default 1h)
	SessionTokenExpiry time.Duration // issued token validity (default 4h)
	AttemptRetention   time.Duration // audit row lifetime
}

// LoginResult is the success outcome of an attempt.
type LoginResult struct {
	Token string           `json:"token"`
	User  *AccountResponse `json:"user"`
}

// AccountResponse is the sanitized account view returned to callers. It never
// carries the password hash.
type AccountResponse struct {
	ID            string      `json:"id"`
	Username      string      `json:"username"`
	Email         string      `json:"email"`
	DisplayName   string      `json:"display_name"`
	Role          models.Role `json:"role"`
	EmailVerified bool        `json:"email_verified"`
}

// LoginGuard decides login outcomes. Per-call state is read fresh from the
// account row; the only cross-request state is the transient failure counter.
type LoginGuard struct {
	accounts    AccountRepository
	counters    guard.CounterStore
	attempts    AttemptRecorder
	notifier    LockNotifier
	tm          *auth.TokenManager
	config      GuardConfig
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger
	now         func() time.Time
}

// NewLoginGuard creates a LoginGuard. notifier may be nil when lock emails
// are disabled.
func NewLoginGuard(
	accounts AccountRepository,
	counters guard.CounterStore,
	attempts AttemptRecorder,
	notifier LockNotifier,
	tm *auth.TokenManager,
	config GuardConfig,
	logger *slog.Logger,
	auditLogger *pkglogger.AuditLogger,
) *LoginGuard {
	return &LoginGuard{
		accounts:    accounts,
		counters:    counters,
		attempts:    attempts,
		notifier:    notifier,
		tm:          tm,
		config:      config,
		logger:      logger,
		auditLogger: auditLogger,
		now:         time.Now,
	}
}

// SetClock replaces the guard's time source. Tests use this to drive the
// unlock deadline without sleeping.
func (g *LoginGuard) SetClock(now func() time.Time) {
	g.now = now
}

// AttemptLogin runs the full guard decision for one credential pair.
//
// Outcomes: (*LoginResult, nil) on success; *models.InvalidCredentialsError
// for an unknown identifier or wrong secret (indistinguishable);
// *models.AccountLockedError while locked; models.ErrInternalServer when the
// store or verifier fails.
func (g *LoginGuard) AttemptLogin(ctx context.Context, username, password, ipAddress, userAgent string) (*LoginResult, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" || password == "" {
		return nil, models.ErrBadRequest
	}

	account, err := g.accounts.GetActiveByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			// The rejection must be byte-identical to a wrong-password
			// rejection, so unknown identifiers consume a transient attempt
			// too. No account row exists, so the count can never escalate to
			// a durable lock; the sweep evicts these entries.
			count, cerr := g.counters.Increment(ctx, username)
			if cerr != nil {
				g.logger.Error("failed to increment attempt counter", slog.String("username", username), slog.Any("error", cerr))
				return nil, models.ErrInternalServer
			}

			g.recordAttempt(ctx, username, ipAddress, userAgent, false, "unknown_account")
			g.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
				EventType:     "login_failed",
				FailureReason: "invalid_credentials",
				IPAddress:     ipAddress,
				Success:       false,
			})

			remaining := g.config.MaxFailedAttempts - count
			if remaining < 0 {
				remaining = 0
			}
			return nil, &models.InvalidCredentialsError{RemainingAttempts: remaining}
		}
		g.logger.Error("failed to fetch account", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	// Lock state is re-derived from the durable record on every call.
	if account.Locked {
		if account.UnlockAt == nil {
			// Permanent administrative lock. Never auto-unlocks.
			g.recordAttempt(ctx, username, ipAddress, userAgent, false, "account_locked")
			return nil, &models.AccountLockedError{RemainingMinutes: 0}
		}

		if g.now().Before(*account.UnlockAt) {
			// Short-circuit: no hash comparison, no counter side effects.
			remaining := g.remainingMinutes(*account.UnlockAt)
			g.recordAttempt(ctx, username, ipAddress, userAgent, false, "account_locked")
			return nil, &models.AccountLockedError{RemainingMinutes: remaining}
		}

		// Deadline passed: reconcile the stored flag before proceeding.
		if err := g.accounts.ClearExpiredLock(ctx, account.ID); err != nil {
			g.logger.Error("failed to clear expired lock", slog.String("account_id", account.ID), slog.Any("error", err))
			return nil, models.ErrInternalServer
		}
		g.auditLogger.LogLockEvent("implicit_unlock", account.Username, nil)
	}

	// The only computationally expensive step, intentionally so.
	if err := pkgauth.ComparePassword(account.PasswordHash, password); err != nil {
		return nil, g.handleFailure(ctx, account, ipAddress, userAgent)
	}

	return g.handleSuccess(ctx, account, ipAddress, userAgent)
}

// handleFailure increments the transient counter and escalates to a timed
// lock at the threshold. The escalation write is conditional, so retrying
// after a store failure is safe: the count is re-derived fresh each call.
func (g *LoginGuard) handleFailure(ctx context.Context, account *models.Account, ipAddress, userAgent string) error {
	g.recordAttempt(ctx, account.Username, ipAddress, userAgent, false, "invalid_password")

	count, err := g.counters.Increment(ctx, account.Username)
	if err != nil {
		g.logger.Error("failed to increment attempt counter", slog.String("username", account.Username), slog.Any("error", err))
		return models.ErrInternalServer
	}

	if count >= g.config.MaxFailedAttempts {
		unlockAt := g.now().Add(g.config.LockoutDuration)

		if err := g.accounts.Lock(ctx, account.ID, unlockAt); err != nil {
			// Account stays in its prior state; the next failure re-derives
			// the count and retries the escalation.
			g.logger.Error("failed to lock account", slog.String("account_id", account.ID), slog.Any("error", err))
			return models.ErrInternalServer
		}

		if err := g.counters.Reset(ctx, account.Username); err != nil {
			g.logger.Error("failed to reset attempt counter", slog.String("username", account.Username), slog.Any("error", err))
		}

		g.auditLogger.LogLockEvent("account_locked", account.Username, &unlockAt)
		g.notifyLock(account, unlockAt)

		return &models.AccountLockedError{
			RemainingMinutes: int(g.config.LockoutDuration.Minutes()),
		}
	}

	g.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
		EventType:     "login_failed",
		Username:      account.Username,
		IPAddress:     ipAddress,
		UserAgent:     userAgent,
		FailureReason: "invalid_credentials",
		Success:       false,
	})

	return &models.InvalidCredentialsError{
		RemainingAttempts: g.config.MaxFailedAttempts - count,
	}
}

func (g *LoginGuard) handleSuccess(ctx context.Context, account *models.Account, ipAddress, userAgent string) (*LoginResult, error) {
	if err := g.counters.Reset(ctx, account.Username); err != nil {
		g.logger.Error("failed to reset attempt counter", slog.String("username", account.Username), slog.Any("error", err))
	}

	now := g.now()
	if err := g.accounts.RecordLogin(ctx, account.ID, now); err != nil {
		g.logger.Error("failed to record login", slog.String("account_id", account.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	token, err := g.tm.GenerateSessionToken(account.ID, account.Username, account.Role)
	if err != nil {
		g.logger.Error("failed to generate session token", slog.String("account_id", account.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	g.recordAttempt(ctx, account.Username, ipAddress, userAgent, true, "")
	g.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
		EventType: "login_success",
		Username:  account.Username,
		IPAddress: ipAddress,
		UserAgent: userAgent,
		Success:   true,
	})

	return &LoginResult{
		Token: token,
		User:  accountToResponse(account),
	}, nil
}

// CheckLockStatus is the read-only variant of the lock check. It never
// consumes an attempt, but performs the same implicit-unlock write a real
// attempt would.
func (g *LoginGuard) CheckLockStatus(ctx context.Context, username string) (*models.LockStatus, error) {
	username = strings.ToLower(strings.TrimSpace(username))

	account, err := g.accounts.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		g.logger.Error("failed to fetch account", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if account.Locked {
		if account.UnlockAt == nil {
			// Lock only occurs at the threshold, so report the full count.
			return &models.LockStatus{
				IsLocked:       true,
				FailedAttempts: g.config.MaxFailedAttempts,
			}, nil
		}

		if g.now().Before(*account.UnlockAt) {
			unlockAt := *account.UnlockAt
			return &models.LockStatus{
				IsLocked:         true,
				RemainingMinutes: g.remainingMinutes(unlockAt),
				UnlockTime:       &unlockAt,
				FailedAttempts:   g.config.MaxFailedAttempts,
			}, nil
		}

		if err := g.accounts.ClearExpiredLock(ctx, account.ID); err != nil {
			g.logger.Error("failed to clear expired lock", slog.String("account_id", account.ID), slog.Any("error", err))
			return nil, models.ErrInternalServer
		}
		g.auditLogger.LogLockEvent("implicit_unlock", account.Username, nil)
	}

	count, err := g.counters.Get(ctx, username)
	if err != nil {
		g.logger.Error("failed to read attempt counter", slog.String("username", username), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return &models.LockStatus{
		IsLocked:       false,
		FailedAttempts: count,
	}, nil
}

// UnlockAccount is the administrative override. requestedBy must hold the
// admin capability; the handler verifies that from token claims and passes
// the role through for the capability check here.
func (g *LoginGuard) UnlockAccount(ctx context.Context, username string, requestedBy string, requestedByRole models.Role) error {
	if !requestedByRole.CanManageAccounts() {
		return models.ErrForbidden
	}

	username = strings.ToLower(strings.TrimSpace(username))

	account, err := g.accounts.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrNotFound
		}
		g.logger.Error("failed to fetch account", slog.Any("error", err))
		return models.ErrInternalServer
	}

	if err := g.accounts.Unlock(ctx, account.ID); err != nil {
		if errors.Is(err, models.ErrNotLocked) {
			return models.ErrNotLocked
		}
		g.logger.Error("failed to unlock account", slog.String("account_id", account.ID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	if err := g.counters.Reset(ctx, username); err != nil {
		g.logger.Error("failed to reset attempt counter", slog.String("username", username), slog.Any("error", err))
	}

	g.auditLogger.LogAccountAction("account_unlocked", username, "", map[string]string{
		"requested_by": requestedBy,
	})

	return nil
}

// remainingMinutes rounds the time to the unlock deadline up to whole minutes.
func (g *LoginGuard) remainingMinutes(unlockAt time.Time) int {
	remaining := unlockAt.Sub(g.now())
	minutes := int((remaining + time.Minute - 1) / time.Minute)
	if minutes < 1 {
		minutes = 1
	}
	return minutes
}

func (g *LoginGuard) recordAttempt(ctx context.Context, username, ipAddress, userAgent string, success bool, failureReason string) {
	var reason *string
	if failureReason != "" {
		reason = &failureReason
	}

	attempt := &models.LoginAttempt{
		Username:      username,
		IPAddress:     ipAddress,
		UserAgent:     userAgent,
		Success:       success,
		FailureReason: reason,
		ExpiresAt:     g.now().Add(g.config.AttemptRetention),
	}

	if err := g.attempts.RecordAttempt(ctx, attempt); err != nil {
		g.logger.Error("failed to record login attempt", slog.String("username", username), slog.Any("error", err))
	}
}

// notifyLock fires the lockout email without blocking the login path.
func (g *LoginGuard) notifyLock(account *models.Account, unlockAt time.Time) {
	if g.notifier == nil || account.Email == "" {
		return
	}

	email := account.Email
	username := account.Username

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := g.notifier.SendLockNotification(ctx, email, username, unlockAt); err != nil {
			g.logger.Error("failed to send lock notification", slog.String("username", username), slog.Any("error", err))
		}
	}()
}

func accountToResponse(account *models.Account) *AccountResponse {
	return &AccountResponse{
		ID:            account.ID,
		Username:      account.Username,
		Email:         account.Email,
		DisplayName:   account.DisplayName,
		Role:          account.Role,
		EmailVerified: account.EmailVerified,
	}
}
