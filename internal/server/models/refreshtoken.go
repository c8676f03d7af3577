package models

import "time"

// RefreshToken is the persisted, revocable record of an issued refresh token.
// IsValid only ever moves from true to false; rows are kept for audit.
type RefreshToken struct {
	ID        string
	Token     string
	UserID    string
	IP        string
	UserAgent string
	IsValid   bool
	CreatedAt time.Time
}
