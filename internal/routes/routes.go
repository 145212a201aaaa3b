package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/hputnam/tutordesk/internal/auth"
	"github.com/hputnam/tutordesk/internal/handlers"
	"github.com/hputnam/tutordesk/internal/middleware"
	"github.com/hputnam/tutordesk/internal/models"
)

// Config carries the per-route rate limit policy
type Config struct {
	LoginRateLimit middleware.RateLimitConfig
	UserRateLimit  middleware.AuthenticatedRateLimitConfig
}

// DefaultConfig returns the production rate limit policy
func DefaultConfig() Config {
	return Config{
		LoginRateLimit: middleware.DefaultAuthRateLimit(),
		UserRateLimit:  middleware.DefaultAuthenticatedRateLimit(),
	}
}

// RegisterRoutes registers all application routes
func RegisterRoutes(
	router chi.Router,
	authHandler *handlers.AuthHandler,
	accountHandler *handlers.AccountHandler,
	rosterHandler *handlers.RosterHandler,
	tokenManager *auth.TokenManager,
	cfg Config,
) {
	loginRateLimit := cfg.LoginRateLimit
	userRateLimit := cfg.UserRateLimit

	// Public routes - no authentication required
	router.With(middleware.RateLimitByIP(loginRateLimit)).Post("/auth/login", authHandler.Login)

	// Protected routes - authentication required
	router.Group(func(r chi.Router) {
		r.Use(auth.AuthMiddleware(tokenManager))

		// Any authenticated role can read the roster
		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimitByUserID(userRateLimit, "read"))
			rosterHandler.RegisterReadRoutes(r)
		})

		// Managers and admins maintain the roster and see lock state
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireRole(models.RoleAdmin, models.RoleManager))
			r.With(middleware.RateLimitByUserID(userRateLimit, "read")).
				Get("/auth/accounts/{username}/lock-status", authHandler.LockStatus)
			r.Group(func(r chi.Router) {
				r.Use(middleware.RateLimitByUserID(userRateLimit, "write"))
				rosterHandler.RegisterWriteRoutes(r)
			})
		})

		// Admin-only routes
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireRole(models.RoleAdmin))
			r.Use(middleware.RateLimitByUserID(userRateLimit, "admin"))
			r.Post("/auth/accounts/{username}/unlock", authHandler.Unlock)
			r.Get("/auth/accounts/{username}/attempts", authHandler.LoginHistory)
			accountHandler.RegisterRoutes(r)
		})
	})
}
