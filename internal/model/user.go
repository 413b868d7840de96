package model

import "time"

// EmailUserPasswordHash is the placeholder credential assigned to reporter
// accounts created from inbound email. It is not a valid bcrypt hash, so
// these accounts cannot log in until an admin sets a real password.
const EmailUserPasswordHash = "!email-user-no-login"

// User is an account that can report or be assigned tickets. Email is the
// natural key: at most one user exists per email address.
type User struct {
	ID           string    `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Email        string    `json:"email" db:"email"`
	AvatarURL    string    `json:"avatar_url" db:"avatar_url"`
	PasswordHash string    `json:"-" db:"password_hash"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}
