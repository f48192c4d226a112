package models

import "time"

// User is an account as exposed to clients. The password hash never leaves the
// auth and index packages.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

// Notification levels.
const (
	LevelInfo    = "info"
	LevelSuccess = "success"
	LevelError   = "error"
)

// Notification is a user-facing toast. OwnerID scopes delivery; SessionID
// links it to a wizard session when there is one.
type Notification struct {
	OwnerID   string `json:"-"`
	SessionID string `json:"session_id,omitempty"`
	Level     string `json:"level"`
	Title     string `json:"title"`
	Message   string `json:"message"`
}
