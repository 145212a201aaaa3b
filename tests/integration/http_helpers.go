package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/hputnam/tutordesk/internal/auth"
	"github.com/hputnam/tutordesk/internal/guard"
	"github.com/hputnam/tutordesk/internal/handlers"
	"github.com/hputnam/tutordesk/internal/repositories"
	"github.com/hputnam/tutordesk/internal/routes"
	"github.com/hputnam/tutordesk/internal/services"
	pkghttp "github.com/hputnam/tutordesk/pkg/http"
	pkglogger "github.com/hputnam/tutordesk/pkg/logger"
)

// LockNotification is a captured lockout email
type LockNotification struct {
	Email    string
	Username string
	UnlockAt time.Time
}

// MockLockNotifier captures lockout notifications for test assertions
type MockLockNotifier struct {
	mu            sync.Mutex
	Notifications []LockNotification
}

func (m *MockLockNotifier) SendLockNotification(ctx context.Context, email, username string, unlockAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Notifications = append(m.Notifications, LockNotification{
		Email:    email,
		Username: username,
		UnlockAt: unlockAt,
	})
	return nil
}

// Last returns the most recent notification, or nil
func (m *MockLockNotifier) Last() *LockNotification {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Notifications) == 0 {
		return nil
	}
	return &m.Notifications[len(m.Notifications)-1]
}

// GuardSettings are the lockout policy knobs used by the test server
type GuardSettings struct {
	MaxFailedAttempts int
	LockoutDuration   time.Duration
}

// DefaultGuardSettings mirrors the production defaults
func DefaultGuardSettings() GuardSettings {
	return GuardSettings{
		MaxFailedAttempts: 3,
		LockoutDuration:   1 * time.Hour,
	}
}

// TestServer wraps httptest.Server with real database wiring and a mocked
// lock notifier
type TestServer struct {
	Server       *httptest.Server
	TokenManager *auth.TokenManager
	Counters     *guard.MemoryCounterStore
	Notifier     *MockLockNotifier
	Guard        *services.LoginGuard
}

// NewTestServer builds the full router against the given database
func NewTestServer(testDB *TestDB, settings GuardSettings) *TestServer {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	auditLogger := pkglogger.NewAuditLogger(logger)

	accountRepo := repositories.NewAccountRepository(testDB.DB)
	loginAttemptRepo := repositories.NewLoginAttemptRepository(testDB.DB)
	studentRepo := repositories.NewStudentRepository(testDB.DB)
	teacherRepo := repositories.NewTeacherRepository(testDB.DB)
	courseRepo := repositories.NewCourseRepository(testDB.DB)
	scheduleRepo := repositories.NewScheduleRepository(testDB.DB)

	counterStore := guard.NewMemoryCounterStore()
	tokenManager := auth.NewTokenManager("integration-test-secret-0123456789", 4*time.Hour)
	notifier := &MockLockNotifier{}

	loginGuard := services.NewLoginGuard(
		accountRepo,
		counterStore,
		loginAttemptRepo,
		notifier,
		tokenManager,
		services.GuardConfig{
			MaxFailedAttempts:  settings.MaxFailedAttempts,
			LockoutDuration:    settings.LockoutDuration,
			SessionTokenExpiry: 4 * time.Hour,
			AttemptRetention:   30 * 24 * time.Hour,
		},
		logger,
		auditLogger,
	)
	accountService := services.NewAccountService(accountRepo, logger, auditLogger)
	rosterService := services.NewRosterService(studentRepo, teacherRepo, courseRepo, scheduleRepo, logger)

	authHandler := handlers.NewAuthHandler(loginGuard, loginAttemptRepo, &pkghttp.IPConfig{})
	accountHandler := handlers.NewAccountHandler(accountService)
	rosterHandler := handlers.NewRosterHandler(rosterService)

	// Lift the login rate limit so lockout scenarios can hammer the endpoint
	// from a single IP without tripping the IP limiter first.
	routeCfg := routes.DefaultConfig()
	routeCfg.LoginRateLimit.RequestsPerMinute = 1000

	router := chi.NewRouter()
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Recoverer)
	routes.RegisterRoutes(router, authHandler, accountHandler, rosterHandler, tokenManager, routeCfg)

	return &TestServer{
		Server:       httptest.NewServer(router),
		TokenManager: tokenManager,
		Counters:     counterStore,
		Notifier:     notifier,
		Guard:        loginGuard,
	}
}

// Close shuts the HTTP server down
func (ts *TestServer) Close() {
	ts.Server.Close()
}

// PostJSON sends a JSON POST. token may be empty for public endpoints.
func (ts *TestServer) PostJSON(path, token string, body interface{}) (*http.Response, []byte, error) {
	return ts.do("POST", path, token, body)
}

// GetJSON sends a GET with an optional bearer token
func (ts *TestServer) GetJSON(path, token string) (*http.Response, []byte, error) {
	return ts.do("GET", path, token, nil)
}

func (ts *TestServer) do(method, path, token string, body interface{}) (*http.Response, []byte, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, nil, fmt.Errorf("failed to encode request body: %w", err)
		}
	}

	req, err := http.NewRequest(method, ts.Server.URL+path, &buf)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := ts.Server.Client().Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, err
	}

	return resp, respBody, nil
}
