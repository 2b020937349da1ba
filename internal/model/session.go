package model

import "time"

// Session is the client-held proof of authentication.
type Session struct {
	ID        string
	User      User
	Token     string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Expired reports whether the session has reached its expiry at now.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}
