package store

import (
	"context"
	"errors"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface for the dev auth server. It exposes
// sub-repositories so handlers and services only see the queries they need.
type Store interface {
	Repos

	ApplyMigrations() error

	// WithTx executes fn within a transaction. If fn returns an error the
	// transaction is rolled back, otherwise it is committed. Transactions do
	// not nest, so fn only gets the repositories.
	WithTx(ctx context.Context, fn func(tx Repos) error) error

	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Repos groups the repositories available inside and outside a transaction.
type Repos interface {
	Users() Users
	RefreshTokens() RefreshTokens
}

type Users interface {
	GetUserByID(ctx context.Context, id string) (User, error)

	// GetUserByUsername is used during login.
	GetUserByUsername(ctx context.Context, username string) (User, error)

	// CreateUser inserts a new user. Returns ErrAlreadyExists when the
	// username is taken.
	CreateUser(ctx context.Context, u User) error

	// IsEmpty returns true if there are no users.
	IsEmpty(ctx context.Context) (bool, error)
}

type RefreshTokens interface {
	CreateRefreshToken(ctx context.Context, t RefreshToken) error

	// GetRefreshTokenByHash returns the token by its fingerprint, including
	// revoked and expired rows so callers can detect reuse.
	GetRefreshTokenByHash(ctx context.Context, hash string) (RefreshToken, error)

	// RevokeRefreshToken marks one token revoked. Revoking twice is not an
	// error.
	RevokeRefreshToken(ctx context.Context, hash string) error

	// RevokeSession revokes every token in a rotation chain.
	RevokeSession(ctx context.Context, sessionID string) error

	// DeleteExpiredRefreshTokens removes rows whose expiry is before now and
	// reports how many were deleted.
	DeleteExpiredRefreshTokens(ctx context.Context, now int64) (int64, error)
}
