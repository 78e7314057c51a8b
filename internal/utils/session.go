package utils

import "time"

// SessionData is the middleware-facing view of a session row.
type SessionData struct {
	UserID    string
	ExpiresAt time.Time
}
