package models

import "time"

// Teacher is a tutoring-center instructor. AccountID links to a portal
// account when the teacher has login access; it is nil otherwise.
type Teacher struct {
	ID        string    `json:"id"`
	AccountID *string   `json:"account_id,omitempty"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Subjects  []string  `json:"subjects"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
