package services_test

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hputnam/tutordesk/internal/auth"
	"github.com/hputnam/tutordesk/internal/guard"
	"github.com/hputnam/tutordesk/internal/models"
	"github.com/hputnam/tutordesk/internal/services"
	pkgauth "github.com/hputnam/tutordesk/pkg/auth"
	pkglogger "github.com/hputnam/tutordesk/pkg/logger"
)

// MockAccountRepository implements services.AccountRepository in memory
type MockAccountRepository struct {
	mu       sync.Mutex
	accounts map[string]*models.Account // keyed by username
}

func NewMockAccountRepository() *MockAccountRepository {
	return &MockAccountRepository{accounts: make(map[string]*models.Account)}
}

func (m *MockAccountRepository) add(account *models.Account) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[account.Username] = account
}

func (m *MockAccountRepository) byID(id string) *models.Account {
	for _, a := range m.accounts {
		if a.ID == id {
			return a
		}
	}
	return nil
}

func (m *MockAccountRepository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a := m.byID(id); a != nil {
		copied := *a
		return &copied, nil
	}
	return nil, models.ErrNotFound
}

func (m *MockAccountRepository) GetByUsername(ctx context.Context, username string) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a, ok := m.accounts[username]; ok {
		copied := *a
		return &copied, nil
	}
	return nil, models.ErrNotFound
}

func (m *MockAccountRepository) GetActiveByUsername(ctx context.Context, username string) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a, ok := m.accounts[username]; ok && a.Active {
		copied := *a
		return &copied, nil
	}
	return nil, models.ErrNotFound
}

func (m *MockAccountRepository) Lock(ctx context.Context, id string, unlockAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a := m.byID(id)
	if a == nil {
		return models.ErrNotFound
	}
	// Conditional write: a concurrent lock wins, deadline never moves backwards
	if a.Locked {
		return nil
	}
	a.Locked = true
	a.UnlockAt = &unlockAt
	return nil
}

func (m *MockAccountRepository) ClearExpiredLock(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a := m.byID(id)
	if a == nil {
		return models.ErrNotFound
	}
	// The guard only calls this after its clock passed the deadline
	if a.Locked && a.UnlockAt != nil {
		a.Locked = false
		a.UnlockAt = nil
	}
	return nil
}

func (m *MockAccountRepository) Unlock(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a := m.byID(id)
	if a == nil {
		return models.ErrNotFound
	}
	if !a.Locked {
		return models.ErrNotLocked
	}
	a.Locked = false
	a.UnlockAt = nil
	return nil
}

func (m *MockAccountRepository) RecordLogin(ctx context.Context, id string, loginAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a := m.byID(id)
	if a == nil {
		return models.ErrNotFound
	}
	a.LastLoginAt = &loginAt
	a.LoginCount++
	a.Locked = false
	a.UnlockAt = nil
	return nil
}

// MockAttemptRecorder records attempts in memory
type MockAttemptRecorder struct {
	mu       sync.Mutex
	attempts []*models.LoginAttempt
}

func (m *MockAttemptRecorder) RecordAttempt(ctx context.Context, attempt *models.LoginAttempt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attempts = append(m.attempts, attempt)
	return nil
}

type guardFixture struct {
	guard    *services.LoginGuard
	accounts *MockAccountRepository
	counters *guard.MemoryCounterStore
	attempts *MockAttemptRecorder
	clock    *time.Time
}

func newGuardFixture(t *testing.T) *guardFixture {
	t.Helper()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	accounts := NewMockAccountRepository()
	counters := guard.NewMemoryCounterStore()
	attempts := &MockAttemptRecorder{}
	tm := auth.NewTokenManager("test-secret-32-characters-long!!", 4*time.Hour)

	config := services.GuardConfig{
		MaxFailedAttempts:  3,
		LockoutDuration:    1 * time.Hour,
		SessionTokenExpiry: 4 * time.Hour,
		AttemptRetention:   24 * time.Hour,
	}

	g := services.NewLoginGuard(accounts, counters, attempts, nil, tm, config, logger, pkglogger.NewAuditLogger(logger))

	current := time.Now()
	g.SetClock(func() time.Time { return current })

	hash, err := pkgauth.HashPassword("Corr3ctHorse!")
	require.NoError(t, err)

	accounts.add(&models.Account{
		ID:           "acct-alice",
		Username:     "alice",
		Email:        "alice@example.com",
		PasswordHash: hash,
		DisplayName:  "Alice",
		Role:         models.RoleManager,
		Active:       true,
	})

	return &guardFixture{guard: g, accounts: accounts, counters: counters, attempts: attempts, clock: &current}
}

func (f *guardFixture) advance(d time.Duration) {
	*f.clock = f.clock.Add(d)
}

func TestAttemptLogin_Success(t *testing.T) {
	f := newGuardFixture(t)
	ctx := context.Background()

	result, err := f.guard.AttemptLogin(ctx, "alice", "Corr3ctHorse!", "10.0.0.1", "test-agent")
	require.NoError(t, err)

	assert.NotEmpty(t, result.Token)
	assert.Equal(t, "alice", result.User.Username)
	assert.Equal(t, models.RoleManager, result.User.Role)

	// Audit fields updated, lock fields clear
	account, err := f.accounts.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 1, account.LoginCount)
	assert.NotNil(t, account.LastLoginAt)
	assert.False(t, account.Locked)
}

func TestAttemptLogin_FailureCountdownThenLock(t *testing.T) {
	f := newGuardFixture(t)
	ctx := context.Background()

	// First wrong secret: remainingAttempts=2
	_, err := f.guard.AttemptLogin(ctx, "alice", "wrong", "10.0.0.1", "test-agent")
	var invalid *models.InvalidCredentialsError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, 2, invalid.RemainingAttempts)

	// Second: remainingAttempts=1
	_, err = f.guard.AttemptLogin(ctx, "alice", "wrong", "10.0.0.1", "test-agent")
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, 1, invalid.RemainingAttempts)

	// Third: locked for 60 minutes
	_, err = f.guard.AttemptLogin(ctx, "alice", "wrong", "10.0.0.1", "test-agent")
	var locked *models.AccountLockedError
	require.ErrorAs(t, err, &locked)
	assert.Equal(t, 60, locked.RemainingMinutes)

	account, err := f.accounts.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, account.Locked)
	require.NotNil(t, account.UnlockAt)
	assert.WithinDuration(t, f.clock.Add(1*time.Hour), *account.UnlockAt, time.Second)

	// Counter was consumed by the lock escalation
	count, err := f.counters.Get(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestAttemptLogin_CorrectSecretWhileLockedStillLocked(t *testing.T) {
	f := newGuardFixture(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, _ = f.guard.AttemptLogin(ctx, "alice", "wrong", "10.0.0.1", "test-agent")
	}

	// 10 seconds later the correct secret is still rejected, no auth performed
	f.advance(10 * time.Second)
	_, err := f.guard.AttemptLogin(ctx, "alice", "Corr3ctHorse!", "10.0.0.1", "test-agent")
	var locked *models.AccountLockedError
	require.ErrorAs(t, err, &locked)
	assert.Equal(t, 60, locked.RemainingMinutes)

	// Short-circuit: the counter stays untouched by attempts while locked
	count, err := f.counters.Get(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestAttemptLogin_RemainingMinutesDecreases(t *testing.T) {
	f := newGuardFixture(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, _ = f.guard.AttemptLogin(ctx, "alice", "wrong", "10.0.0.1", "test-agent")
	}

	f.advance(25 * time.Minute)
	_, err := f.guard.AttemptLogin(ctx, "alice", "Corr3ctHorse!", "10.0.0.1", "test-agent")
	var locked *models.AccountLockedError
	require.ErrorAs(t, err, &locked)
	assert.Equal(t, 35, locked.RemainingMinutes)

	f.advance(30 * time.Minute)
	_, err = f.guard.AttemptLogin(ctx, "alice", "Corr3ctHorse!", "10.0.0.1", "test-agent")
	require.ErrorAs(t, err, &locked)
	assert.Equal(t, 5, locked.RemainingMinutes)
}

func TestAttemptLogin_ImplicitUnlockAfterDeadline(t *testing.T) {
	f := newGuardFixture(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, _ = f.guard.AttemptLogin(ctx, "alice", "wrong", "10.0.0.1", "test-agent")
	}

	f.advance(61 * time.Minute)

	result, err := f.guard.AttemptLogin(ctx, "alice", "Corr3ctHorse!", "10.0.0.1", "test-agent")
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)

	account, err := f.accounts.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, account.Locked)
	assert.Nil(t, account.UnlockAt)
}

func TestAttemptLogin_SuccessResetsCounter(t *testing.T) {
	f := newGuardFixture(t)
	ctx := context.Background()

	_, _ = f.guard.AttemptLogin(ctx, "alice", "wrong", "10.0.0.1", "test-agent")
	_, _ = f.guard.AttemptLogin(ctx, "alice", "wrong", "10.0.0.1", "test-agent")

	_, err := f.guard.AttemptLogin(ctx, "alice", "Corr3ctHorse!", "10.0.0.1", "test-agent")
	require.NoError(t, err)

	// The countdown starts over at remainingAttempts=2, not 0
	_, err = f.guard.AttemptLogin(ctx, "alice", "wrong", "10.0.0.1", "test-agent")
	var invalid *models.InvalidCredentialsError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, 2, invalid.RemainingAttempts)
}

func TestAttemptLogin_UnknownIdentifierMatchesWrongSecret(t *testing.T) {
	f := newGuardFixture(t)
	ctx := context.Background()

	_, unknownErr := f.guard.AttemptLogin(ctx, "nobody", "whatever", "10.0.0.1", "test-agent")
	_, wrongErr := f.guard.AttemptLogin(ctx, "alice", "wrong", "10.0.0.1", "test-agent")

	var unknown, wrong *models.InvalidCredentialsError
	require.ErrorAs(t, unknownErr, &unknown)
	require.ErrorAs(t, wrongErr, &wrong)

	// Byte-identical rejections: same message, same countdown
	assert.Equal(t, wrong.Error(), unknown.Error())
	assert.Equal(t, wrong.RemainingAttempts, unknown.RemainingAttempts)
}

func TestAttemptLogin_InactiveAccountRejectedLikeUnknown(t *testing.T) {
	f := newGuardFixture(t)
	ctx := context.Background()

	hash, err := pkgauth.HashPassword("Corr3ctHorse!")
	require.NoError(t, err)
	f.accounts.add(&models.Account{
		ID:           "acct-bob",
		Username:     "bob",
		PasswordHash: hash,
		Role:         models.RoleUser,
		Active:       false,
	})

	_, err = f.guard.AttemptLogin(ctx, "bob", "Corr3ctHorse!", "10.0.0.1", "test-agent")
	var invalid *models.InvalidCredentialsError
	require.ErrorAs(t, err, &invalid)
}

func TestAttemptLogin_EmptyInput(t *testing.T) {
	f := newGuardFixture(t)
	ctx := context.Background()

	_, err := f.guard.AttemptLogin(ctx, "", "secret", "10.0.0.1", "test-agent")
	assert.ErrorIs(t, err, models.ErrBadRequest)

	_, err = f.guard.AttemptLogin(ctx, "alice", "", "10.0.0.1", "test-agent")
	assert.ErrorIs(t, err, models.ErrBadRequest)
}

func TestAttemptLogin_PermanentLockNeverAutoUnlocks(t *testing.T) {
	f := newGuardFixture(t)
	ctx := context.Background()

	hash, err := pkgauth.HashPassword("Corr3ctHorse!")
	require.NoError(t, err)
	f.accounts.add(&models.Account{
		ID:           "acct-mallory",
		Username:     "mallory",
		PasswordHash: hash,
		Role:         models.RoleUser,
		Active:       true,
		Locked:       true, // no UnlockAt: administrative permanent lock
	})

	_, err = f.guard.AttemptLogin(ctx, "mallory", "Corr3ctHorse!", "10.0.0.1", "test-agent")
	var locked *models.AccountLockedError
	require.ErrorAs(t, err, &locked)
	assert.Equal(t, 0, locked.RemainingMinutes)

	f.advance(48 * time.Hour)
	_, err = f.guard.AttemptLogin(ctx, "mallory", "Corr3ctHorse!", "10.0.0.1", "test-agent")
	require.ErrorAs(t, err, &locked)
}

func TestCheckLockStatus(t *testing.T) {
	f := newGuardFixture(t)
	ctx := context.Background()

	status, err := f.guard.CheckLockStatus(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, status.IsLocked)
	assert.Equal(t, 0, status.FailedAttempts)

	_, _ = f.guard.AttemptLogin(ctx, "alice", "wrong", "10.0.0.1", "test-agent")

	status, err = f.guard.CheckLockStatus(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, status.IsLocked)
	assert.Equal(t, 1, status.FailedAttempts)

	// Side-effect free with respect to the counter
	count, err := f.counters.Get(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	for i := 0; i < 2; i++ {
		_, _ = f.guard.AttemptLogin(ctx, "alice", "wrong", "10.0.0.1", "test-agent")
	}

	status, err = f.guard.CheckLockStatus(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, status.IsLocked)
	assert.Equal(t, 3, status.FailedAttempts)
	assert.Equal(t, 60, status.RemainingMinutes)
	require.NotNil(t, status.UnlockTime)
}

func TestCheckLockStatus_PerformsImplicitUnlock(t *testing.T) {
	f := newGuardFixture(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, _ = f.guard.AttemptLogin(ctx, "alice", "wrong", "10.0.0.1", "test-agent")
	}

	f.advance(61 * time.Minute)

	status, err := f.guard.CheckLockStatus(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, status.IsLocked)

	// The reconciliation was written through, not just reported
	account, err := f.accounts.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.False(t, account.Locked)
	assert.Nil(t, account.UnlockAt)
}

func TestCheckLockStatus_UnknownAccount(t *testing.T) {
	f := newGuardFixture(t)

	_, err := f.guard.CheckLockStatus(context.Background(), "nobody")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestUnlockAccount(t *testing.T) {
	f := newGuardFixture(t)
	ctx := context.Background()

	// Unlocking an unlocked account fails with ErrNotLocked
	err := f.guard.UnlockAccount(ctx, "alice", "admin-1", models.RoleAdmin)
	assert.ErrorIs(t, err, models.ErrNotLocked)

	for i := 0; i < 3; i++ {
		_, _ = f.guard.AttemptLogin(ctx, "alice", "wrong", "10.0.0.1", "test-agent")
	}

	// Non-admin callers are refused
	err = f.guard.UnlockAccount(ctx, "alice", "manager-1", models.RoleManager)
	assert.ErrorIs(t, err, models.ErrForbidden)

	// Unknown target
	err = f.guard.UnlockAccount(ctx, "nobody", "admin-1", models.RoleAdmin)
	assert.ErrorIs(t, err, models.ErrNotFound)

	// Admin unlock clears the lock; login immediately succeeds
	err = f.guard.UnlockAccount(ctx, "alice", "admin-1", models.RoleAdmin)
	require.NoError(t, err)

	result, err := f.guard.AttemptLogin(ctx, "alice", "Corr3ctHorse!", "10.0.0.1", "test-agent")
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)
}

func TestAttemptLogin_RecordsAuditTrail(t *testing.T) {
	f := newGuardFixture(t)
	ctx := context.Background()

	_, _ = f.guard.AttemptLogin(ctx, "alice", "wrong", "10.0.0.1", "test-agent")
	_, err := f.guard.AttemptLogin(ctx, "alice", "Corr3ctHorse!", "10.0.0.1", "test-agent")
	require.NoError(t, err)

	require.Len(t, f.attempts.attempts, 2)
	assert.False(t, f.attempts.attempts[0].Success)
	assert.True(t, f.attempts.attempts[1].Success)
	assert.Equal(t, "10.0.0.1", f.attempts.attempts[0].IPAddress)
}
