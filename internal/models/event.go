package models

import "time"

// Event represents an audit entry: a signup, a failed login, a report created or deleted.
type Event struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`  // e.g., "report.create", "user.login.fail"
	Level     string    `json:"level"` // e.g., "info", "warn", "error"
	Message   string    `json:"message"`
	Username  *string   `json:"username,omitempty"` // Nullable for system-wide events
	CreatedAt time.Time `json:"createdAt"`
}
