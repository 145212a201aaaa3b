package models

import "time"

// Course is a tutoring offering with a per-hour rate.
type Course struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Subject     string    `json:"subject"`
	Description string    `json:"description"`
	HourlyRate  int       `json:"hourly_rate"` // cents
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
