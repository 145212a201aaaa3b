package models

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure conditions
var (
	ErrNotFound       = errors.New("resource not found")
	ErrConflict       = errors.New("resource already exists")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrBadRequest     = errors.New("bad request")
	ErrInternalServer = errors.New("internal server error")

	// Guard state errors
	ErrNotLocked = errors.New("account is not locked")
)

// InvalidCredentialsError is returned for an unknown identifier or a wrong
// secret. The message is identical in both cases so callers cannot tell
// which accounts exist. RemainingAttempts counts down to the lock threshold.
type InvalidCredentialsError struct {
	RemainingAttempts int
}

func (e *InvalidCredentialsError) Error() string {
	return "invalid credentials"
}

// AccountLockedError is returned while an account is locked.
// RemainingMinutes is 0 for a permanent (administrative) lock.
type AccountLockedError struct {
	RemainingMinutes int
}

func (e *AccountLockedError) Error() string {
	if e.RemainingMinutes <= 0 {
		return "account is locked"
	}
	return fmt.Sprintf("account is locked for %d more minutes", e.RemainingMinutes)
}
