package store

import "time"

type User struct {
	ID           string
	Username     string
	PasswordHash string // argon2 encoded
	Roles        []string
	CreatedAt    time.Time
}

// RefreshToken is one link in a session's rotation chain. Only the
// fingerprint of the opaque token is stored.
type RefreshToken struct {
	ID        string
	UserID    string
	ClientID  string
	TokenHash string
	SessionID string // shared by every token rotated from the same login
	Device    Device
	ExpiresAt time.Time
	Revoked   bool
	CreatedAt time.Time
}

// Device is what the client reported about itself at login.
type Device struct {
	Type  string
	ID    string
	Model string
	OS    string
}
