// Package keychain holds small named secrets for a single local user.
//
// SecretStore is the narrow contract the token lifecycle code persists
// through. MemoryStore suits tests, SQLiteStore gives durable storage in a
// single file and EncryptedStore seals values at rest on top of either.
package keychain

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned by Get when no value is stored under the key.
	ErrNotFound = errors.New("keychain: not found")

	// ErrCorrupt is returned by Get when a stored value cannot be recovered.
	ErrCorrupt = errors.New("keychain: corrupt entry")
)

// SecretStore is a key/value store for secrets.
//
// Set overwrites, Delete of a missing key is not an error.
type SecretStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
