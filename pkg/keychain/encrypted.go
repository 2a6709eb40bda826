package keychain

import (
	"context"
	"errors"
	"fmt"

	"github.com/aussiebroadwan/duckauth/pkg/cryptox"
)

// EncryptedStore seals values with AES-256-GCM before handing them to the
// underlying store. The key name is bound as additional data, so a blob
// copied under another name fails to open.
type EncryptedStore struct {
	inner  SecretStore
	sealer *cryptox.Sealer
}

var _ SecretStore = (*EncryptedStore)(nil)

func NewEncryptedStore(inner SecretStore, sealer *cryptox.Sealer) *EncryptedStore {
	return &EncryptedStore{inner: inner, sealer: sealer}
}

func (e *EncryptedStore) Get(ctx context.Context, key string) ([]byte, error) {
	sealed, err := e.inner.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	plain, err := e.sealer.Open(sealed, []byte(key))
	if err != nil {
		if errors.Is(err, cryptox.ErrOpen) {
			return nil, fmt.Errorf("%w: %q: %w", ErrCorrupt, key, err)
		}
		return nil, err
	}
	return plain, nil
}

func (e *EncryptedStore) Set(ctx context.Context, key string, value []byte) error {
	sealed, err := e.sealer.Seal(value, []byte(key))
	if err != nil {
		return fmt.Errorf("keychain: seal %q: %w", key, err)
	}
	return e.inner.Set(ctx, key, sealed)
}

func (e *EncryptedStore) Delete(ctx context.Context, key string) error {
	return e.inner.Delete(ctx, key)
}
