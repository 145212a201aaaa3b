package models

import "time"

// LoginAttempt is the durable audit record of a single login attempt. It
// exists for operator forensics only; lock decisions are driven by the
// account row and the transient counter, never by this table.
type LoginAttempt struct {
	ID            int64     `json:"id"`
	Username      string    `json:"username"`
	IPAddress     string    `json:"ip_address"`
	UserAgent     string    `json:"user_agent"`
	AttemptTime   time.Time `json:"attempt_time"`
	Success       bool      `json:"success"`
	FailureReason *string   `json:"failure_reason,omitempty"`
	ExpiresAt     time.Time `json:"-"`
}
