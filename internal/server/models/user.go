package models

import "time"

// User is an account able to sign in. Email uniqueness is enforced by storage;
// normalization (trim, lower-case) is the caller's job.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}
