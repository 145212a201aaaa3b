package models

import (
	"time"
)

// Account is the durable identity record for anyone who can sign in:
// staff, teachers with portal access, and administrators.
type Account struct {
	ID            string     `json:"id"`
	Username      string     `json:"username"`
	Email         string     `json:"email"`
	PasswordHash  string     `json:"-"` // Never exposed
	DisplayName   string     `json:"display_name"`
	Role          Role       `json:"role"`
	Active        bool       `json:"active"` // inactive accounts never authenticate
	EmailVerified bool       `json:"email_verified"`
	Locked        bool       `json:"locked"`
	UnlockAt      *time.Time `json:"unlock_at,omitempty"` // nil while locked means an administrative permanent lock
	LastLoginAt   *time.Time `json:"last_login_at,omitempty"`
	LoginCount    int        `json:"login_count"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// LockStatus is the read-only view of an account's lock state.
type LockStatus struct {
	IsLocked         bool       `json:"is_locked"`
	RemainingMinutes int        `json:"remaining_minutes"`
	UnlockTime       *time.Time `json:"unlock_time,omitempty"`
	FailedAttempts   int        `json:"failed_attempts"`
}
