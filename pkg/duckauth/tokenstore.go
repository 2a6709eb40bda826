package duckauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aussiebroadwan/duckauth/pkg/keychain"
)

// TokensKey is the secret store entry holding the JSON encoded TokenPair.
const TokensKey = "DuckAuth:tokens"

// TokenStore persists a single TokenPair in a secret store.
type TokenStore struct {
	secrets keychain.SecretStore
}

func NewTokenStore(secrets keychain.SecretStore) *TokenStore {
	return &TokenStore{secrets: secrets}
}

// Save overwrites the stored pair.
func (s *TokenStore) Save(ctx context.Context, pair TokenPair) error {
	data, err := json.Marshal(pair)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStorageWriteFailed, err)
	}

	if err := s.secrets.Set(ctx, TokensKey, data); err != nil {
		return fmt.Errorf("%w: %w", ErrStorageWriteFailed, err)
	}
	return nil
}

// Load returns the stored pair, or nil when nothing is stored.
func (s *TokenStore) Load(ctx context.Context) (*TokenPair, error) {
	data, err := s.secrets.Get(ctx, TokensKey)
	switch {
	case errors.Is(err, keychain.ErrNotFound):
		return nil, nil
	case errors.Is(err, keychain.ErrCorrupt):
		return nil, fmt.Errorf("%w: %w", ErrStorageCorrupt, err)
	case err != nil:
		return nil, fmt.Errorf("%w: %w", ErrStorageRead, err)
	}

	var pair TokenPair
	if err := json.Unmarshal(data, &pair); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorageCorrupt, err)
	}
	if !pair.valid() {
		return nil, fmt.Errorf("%w: missing token", ErrStorageCorrupt)
	}

	return &pair, nil
}

// Clear removes the stored pair. Clearing an empty store is not an error.
func (s *TokenStore) Clear(ctx context.Context) error {
	if err := s.secrets.Delete(ctx, TokensKey); err != nil {
		return fmt.Errorf("%w: %w", ErrStorageWriteFailed, err)
	}
	return nil
}
