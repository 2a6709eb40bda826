//go:build e2e

package authserver_test

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aussiebroadwan/duckauth/pkg/duckauth"
	"github.com/aussiebroadwan/duckauth/pkg/keychain"
	"github.com/stretchr/testify/require"
)

// TestTokenLifecycle signs in, lets the access token expire, refreshes it
// from concurrent callers and signs out again.
func TestTokenLifecycle(t *testing.T) {
	baseURL := setupAuthContainer(t, nil)
	ctx := t.Context()

	var callbacks atomic.Int32
	m := newManager(t, baseURL, keychain.NewMemoryStore(), func() { callbacks.Add(1) })

	require.ErrorIs(t, m.Login(ctx, seedUsername, "wrong"), duckauth.ErrInvalidCredentials)
	require.NoError(t, m.Login(ctx, seedUsername, seedPassword))

	first, err := m.CurrentTokens(ctx)
	require.NoError(t, err)

	claims, err := m.CurrentClaims(ctx)
	require.NoError(t, err)
	require.Equal(t, seedUsername, claims.Username)
	require.ElementsMatch(t, []string{"staff", "admin"}, claims.Roles)

	// AUTH_ACCESS_TTL is 2s.
	time.Sleep(3 * time.Second)

	const callers = 5
	results := make([]duckauth.TokenPair, callers)
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], errs[i] = m.CurrentTokens(ctx)
		}()
	}
	wg.Wait()

	for i := range callers {
		require.NoError(t, errs[i])
		require.Equal(t, results[0], results[i])
	}
	require.NotEqual(t, first.RefreshToken, results[0].RefreshToken)

	require.NoError(t, m.Logout(ctx))
	require.NoError(t, m.Wait(ctx))

	_, err = m.CurrentTokens(ctx)
	require.ErrorIs(t, err, duckauth.ErrNotSignedIn)
	require.Equal(t, int32(1), callbacks.Load())
}

// TestRevokedSessionIsRejected replays a pair that was logged out elsewhere
// and checks that the refresh is refused and the session cleared.
func TestRevokedSessionIsRejected(t *testing.T) {
	baseURL := setupAuthContainer(t, nil)
	ctx := t.Context()

	a := newManager(t, baseURL, keychain.NewMemoryStore(), nil)
	require.NoError(t, a.Login(ctx, seedUsername, seedPassword))
	pair, err := a.CurrentTokens(ctx)
	require.NoError(t, err)

	require.NoError(t, a.Logout(ctx))
	require.NoError(t, a.Wait(ctx))

	// A second installation still holding the revoked pair.
	secrets := keychain.NewMemoryStore()
	require.NoError(t, duckauth.NewTokenStore(secrets).Save(ctx, pair))

	var calls atomic.Int32
	b := newManager(t, baseURL, secrets, func() { calls.Add(1) })

	time.Sleep(3 * time.Second)

	_, err = b.CurrentTokens(ctx)
	require.ErrorIs(t, err, duckauth.ErrRefreshUnauthorized)
	require.Equal(t, int32(1), calls.Load())
	require.False(t, b.IsSignedIn(ctx))
}
