package duckauth_test

import (
	"context"
	"encoding/base64"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/duckauth/pkg/duckauth"
	"github.com/aussiebroadwan/duckauth/pkg/jwtx"
	"github.com/aussiebroadwan/duckauth/pkg/keychain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestNewValidatesOptions(t *testing.T) {
	srv := newFakeServer(newFakeClock())
	store := keychain.NewMemoryStore()

	_, err := duckauth.New(duckauth.Options{Secrets: store, ClientID: "c"})
	require.Error(t, err)

	_, err = duckauth.New(duckauth.Options{Transport: srv, ClientID: "c"})
	require.Error(t, err)

	_, err = duckauth.New(duckauth.Options{Transport: srv, Secrets: store})
	require.Error(t, err)

	m, err := duckauth.New(duckauth.Options{Transport: srv, Secrets: store, ClientID: "c"})
	require.NoError(t, err)
	require.NotNil(t, m)
}

func TestClientAuthorization(t *testing.T) {
	got := duckauth.ClientAuthorization("mobile", "s3cret")
	require.Equal(t, "Basic "+base64.StdEncoding.EncodeToString([]byte("mobile:s3cret")), got)
}

func TestLoginPersistsTokens(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	require.NoError(t, h.m.Login(ctx, testUsername, testPassword))

	pair := h.stored(t)
	require.NotNil(t, pair)
	require.Equal(t, "refresh-1", pair.RefreshToken)
	require.True(t, h.m.IsSignedIn(ctx))

	req := h.srv.lastLogin()
	require.Equal(t, testUsername, req.Username)
	require.Equal(t, "test", req.Device.DeviceType)
	require.Equal(t, "unit", req.Device.Model)
	require.Equal(t, "go", req.Device.OS)
	require.NoError(t, uuid.Validate(req.Device.DeviceID))

	require.Equal(t, []string{duckauth.ClientAuthorization(testClientID, testClientSecret)}, h.srv.authHeaders)
}

func TestLoginDeviceIDIsStable(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	require.NoError(t, h.m.Login(ctx, testUsername, testPassword))
	first := h.srv.lastLogin().Device.DeviceID

	stored, err := h.store.Get(ctx, duckauth.DeviceIDKey)
	require.NoError(t, err)
	require.Equal(t, first, string(stored))

	// A second manager over the same store reuses the id.
	other, err := duckauth.New(duckauth.Options{
		Transport: h.srv,
		Secrets:   h.store,
		ClientID:  testClientID,
		Now:       h.clock.Now,
	})
	require.NoError(t, err)
	require.NoError(t, other.Login(ctx, testUsername, testPassword))
	require.Equal(t, first, h.srv.lastLogin().Device.DeviceID)
}

func TestLoginFailures(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(h *harness)
		password string
		want     error
	}{
		{
			name:     "wrong password",
			password: "nope",
			want:     duckauth.ErrInvalidCredentials,
		},
		{
			name:     "bad request",
			setup:    func(h *harness) { h.srv.setLoginStatus(400) },
			password: testPassword,
			want:     duckauth.ErrInvalidCredentials,
		},
		{
			name:     "rate limited",
			setup:    func(h *harness) { h.srv.setLoginStatus(429) },
			password: testPassword,
			want:     duckauth.ErrRateLimited,
		},
		{
			name:     "server error",
			setup:    func(h *harness) { h.srv.setLoginStatus(503) },
			password: testPassword,
			want:     duckauth.ErrServer,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			if tt.setup != nil {
				tt.setup(h)
			}

			err := h.m.Login(context.Background(), testUsername, tt.password)
			require.ErrorIs(t, err, tt.want)
			require.True(t, duckauth.IsRecoverable(err))
			require.Nil(t, h.stored(t))
			require.Zero(t, h.callbacks.Load())
		})
	}
}

func TestLoginNetworkError(t *testing.T) {
	boom := errors.New("connection refused")
	transport := duckauth.TransportFunc(func(ctx context.Context, req *duckauth.Request) (*duckauth.Response, error) {
		return nil, boom
	})

	m, err := duckauth.New(duckauth.Options{Transport: transport, Secrets: keychain.NewMemoryStore(), ClientID: "c"})
	require.NoError(t, err)

	err = m.Login(context.Background(), testUsername, testPassword)
	require.ErrorIs(t, err, duckauth.ErrNetwork)
	require.ErrorIs(t, err, boom)
	require.True(t, duckauth.IsRecoverable(err))
}

func TestLoginRejectsMalformedResponse(t *testing.T) {
	bodies := map[string]string{
		"not json":        `<html>`,
		"missing refresh": `{"accessToken":"a.b.c"}`,
		"bad access":      `{"accessToken":"nope","refreshToken":"r"}`,
		"access without exp": `{"accessToken":"` +
			tokenWithPayload(`{"userId":"u1","username":"alice","roles":[],"iat":1}`) + `","refreshToken":"r"}`,
	}

	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			transport := duckauth.TransportFunc(func(ctx context.Context, req *duckauth.Request) (*duckauth.Response, error) {
				return &duckauth.Response{StatusCode: 200, Body: []byte(body)}, nil
			})
			store := keychain.NewMemoryStore()
			m, err := duckauth.New(duckauth.Options{Transport: transport, Secrets: store, ClientID: "c"})
			require.NoError(t, err)

			err = m.Login(context.Background(), testUsername, testPassword)
			require.ErrorIs(t, err, duckauth.ErrServer)

			_, err = store.Get(context.Background(), duckauth.TokensKey)
			require.ErrorIs(t, err, keychain.ErrNotFound)
		})
	}
}

func TestCurrentTokensNotSignedIn(t *testing.T) {
	h := newHarness(t)

	_, err := h.m.CurrentTokens(context.Background())
	require.ErrorIs(t, err, duckauth.ErrNotSignedIn)
	require.False(t, duckauth.IsRecoverable(err))
	require.Equal(t, int32(1), h.callbacks.Load())
	require.False(t, h.m.IsSignedIn(context.Background()))
}

func TestCurrentTokensFreshTokenIsReturnedAsIs(t *testing.T) {
	h := newHarness(t)
	pair := h.login(t)

	for range 3 {
		got, err := h.m.CurrentTokens(context.Background())
		require.NoError(t, err)
		require.Equal(t, pair, got)
	}
	require.Zero(t, h.srv.refreshCalls.Load())
}

func TestCurrentTokensExpiryBoundary(t *testing.T) {
	tests := []struct {
		name        string
		offset      int64
		wantRefresh bool
	}{
		{name: "expires in one second", offset: 1, wantRefresh: false},
		{name: "expires now", offset: 0, wantRefresh: false},
		{name: "expired one second ago", offset: -1, wantRefresh: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			stored := h.storePair(t, h.clock.Now().Unix()+tt.offset, "seed-refresh")

			got, err := h.m.CurrentTokens(context.Background())
			require.NoError(t, err)

			if tt.wantRefresh {
				require.Equal(t, int32(1), h.srv.refreshCalls.Load())
				require.NotEqual(t, stored, got)
				require.Equal(t, got, *h.stored(t))
			} else {
				require.Zero(t, h.srv.refreshCalls.Load())
				require.Equal(t, stored, got)
			}
		})
	}
}

// runConcurrently calls CurrentTokens n times in parallel, releasing the
// blocked refresh once every caller has attached to it.
func runConcurrently(t *testing.T, h *harness, n int) ([]duckauth.TokenPair, []error) {
	t.Helper()

	pairs := make([]duckauth.TokenPair, n)
	errs := make([]error, n)

	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			pairs[i], errs[i] = h.m.CurrentTokens(context.Background())
		}()
	}

	require.Eventually(t, func() bool { return h.m.RefreshesInFlight() == n }, 5*time.Second, time.Millisecond)
	h.srv.releaseRefresh()
	wg.Wait()

	return pairs, errs
}

func TestCurrentTokensSingleFlightRefresh(t *testing.T) {
	h := newHarness(t)
	before := h.login(t)

	h.srv.blockRefresh()
	h.clock.Advance(testAccessTTL + time.Second)

	pairs, errs := runConcurrently(t, h, 32)

	require.Equal(t, int32(1), h.srv.refreshCalls.Load(), "exactly one refresh request")
	for i := range pairs {
		require.NoError(t, errs[i])
		require.Equal(t, pairs[0], pairs[i])
	}
	require.NotEqual(t, before, pairs[0])
	require.Equal(t, pairs[0], *h.stored(t))
	require.Zero(t, h.callbacks.Load())
}

func TestCurrentTokensSingleFlightSharesErrors(t *testing.T) {
	h := newHarness(t)
	h.login(t)
	before := h.storedRaw(t)

	h.srv.blockRefresh()
	h.srv.setRefreshFailure(500, nil)
	h.clock.Advance(testAccessTTL + time.Second)

	_, errs := runConcurrently(t, h, 8)

	require.Equal(t, int32(1), h.srv.refreshCalls.Load())
	for _, err := range errs {
		require.ErrorIs(t, err, duckauth.ErrServer)
		require.Equal(t, errs[0].Error(), err.Error())
	}
	require.Equal(t, before, h.storedRaw(t))
}

func TestRefreshUnauthorizedEndsSession(t *testing.T) {
	h := newHarness(t)
	h.login(t)

	h.srv.blockRefresh()
	h.srv.setRefreshFailure(401, nil)
	h.clock.Advance(testAccessTTL + time.Second)

	_, errs := runConcurrently(t, h, 8)

	for _, err := range errs {
		require.ErrorIs(t, err, duckauth.ErrRefreshUnauthorized)
		require.True(t, duckauth.IsUnauthorized(err))
		require.False(t, duckauth.IsRecoverable(err))
	}
	require.Equal(t, int32(1), h.callbacks.Load(), "callback fires exactly once")
	require.Nil(t, h.stored(t))

	_, err := h.m.CurrentTokens(context.Background())
	require.ErrorIs(t, err, duckauth.ErrNotSignedIn)
}

func TestRefreshRecoverableFailuresKeepSession(t *testing.T) {
	tests := []struct {
		name   string
		status int
		err    error
		want   error
	}{
		{name: "server error", status: 500, want: duckauth.ErrServer},
		{name: "bad gateway", status: 502, want: duckauth.ErrServer},
		{name: "forbidden", status: 403, want: duckauth.ErrServer},
		{name: "rate limited", status: 429, want: duckauth.ErrRateLimited},
		{name: "network", err: errors.New("i/o timeout"), want: duckauth.ErrNetwork},
		{name: "deadline", err: context.DeadlineExceeded, want: duckauth.ErrNetwork},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.login(t)
			before := h.storedRaw(t)

			h.srv.setRefreshFailure(tt.status, tt.err)
			h.clock.Advance(testAccessTTL + time.Second)

			_, err := h.m.CurrentTokens(context.Background())
			require.ErrorIs(t, err, tt.want)
			require.True(t, duckauth.IsRecoverable(err))
			require.False(t, duckauth.IsUnauthorized(err))

			require.Equal(t, before, h.storedRaw(t), "stored pair must be byte-identical")
			require.Zero(t, h.callbacks.Load())

			// Once the server recovers the same refresh token still works.
			h.srv.setRefreshFailure(0, nil)
			got, err := h.m.CurrentTokens(context.Background())
			require.NoError(t, err)
			require.Equal(t, "refresh-2", got.RefreshToken)
		})
	}
}

func TestLogoutClearsBeforeRevokeCompletes(t *testing.T) {
	h := newHarness(t)
	pair := h.login(t)

	// The revoke never answers on its own.
	gate := make(chan struct{})
	h.srv.mu.Lock()
	h.srv.revokeGate = gate
	h.srv.mu.Unlock()

	require.NoError(t, h.m.Logout(context.Background()))

	_, err := h.m.CurrentTokens(context.Background())
	require.ErrorIs(t, err, duckauth.ErrNotSignedIn)
	require.Nil(t, h.stored(t))

	require.Eventually(t, func() bool { return h.srv.revokeCalls.Load() == 1 }, 5*time.Second, time.Millisecond)
	require.Empty(t, h.srv.revokedTokens(), "revoke is still pending")

	// Let the revoke through and make sure it was for the old token.
	close(gate)
	require.NoError(t, h.m.Wait(context.Background()))
	require.Equal(t, []string{pair.RefreshToken}, h.srv.revokedTokens())
}

func TestLogoutRevokeFailureIsIgnored(t *testing.T) {
	transport := duckauth.TransportFunc(func(ctx context.Context, req *duckauth.Request) (*duckauth.Response, error) {
		return nil, errors.New("offline")
	})
	store := keychain.NewMemoryStore()
	clock := newFakeClock()
	require.NoError(t, duckauth.NewTokenStore(store).Save(context.Background(), duckauth.TokenPair{
		AccessToken:  accessToken(t, clock.Now().Unix()+60),
		RefreshToken: "r",
	}))

	m, err := duckauth.New(duckauth.Options{Transport: transport, Secrets: store, ClientID: "c", Now: clock.Now})
	require.NoError(t, err)

	require.NoError(t, m.Logout(context.Background()))
	require.NoError(t, m.Wait(context.Background()))
	require.False(t, m.IsSignedIn(context.Background()))
}

func TestLogoutWithoutSessionIsNoop(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.m.Logout(context.Background()))
	require.NoError(t, h.m.Wait(context.Background()))
	require.Zero(t, h.srv.revokeCalls.Load())
	require.Zero(t, h.callbacks.Load())
}

func TestRefreshCompletingAfterLogoutIsDiscarded(t *testing.T) {
	h := newHarness(t)
	old := h.login(t)

	h.srv.blockRefresh()
	h.clock.Advance(testAccessTTL + time.Second)

	done := make(chan error, 1)
	go func() {
		_, err := h.m.CurrentTokens(context.Background())
		done <- err
	}()

	// The server has rotated the token and is holding the response.
	require.Eventually(t, func() bool { return h.srv.refreshCalls.Load() == 1 }, 5*time.Second, time.Millisecond)

	require.NoError(t, h.m.Logout(context.Background()))
	h.srv.releaseRefresh()

	err := <-done
	require.ErrorIs(t, err, duckauth.ErrSessionEnded)
	require.ErrorIs(t, err, duckauth.ErrNotSignedIn)

	require.NoError(t, h.m.Wait(context.Background()))
	require.Nil(t, h.stored(t), "late refresh must not revive the session")
	require.ElementsMatch(t, []string{old.RefreshToken, "refresh-2"}, h.srv.revokedTokens())
	require.Zero(t, h.callbacks.Load())
}

func TestStaleUnauthorizedDoesNotEndNewSession(t *testing.T) {
	h := newHarness(t)
	h.login(t)

	h.srv.blockRefresh()
	h.srv.setRefreshFailure(401, nil)
	h.clock.Advance(testAccessTTL + time.Second)

	done := make(chan error, 1)
	go func() {
		_, err := h.m.CurrentTokens(context.Background())
		done <- err
	}()
	require.Eventually(t, func() bool { return h.srv.refreshCalls.Load() == 1 }, 5*time.Second, time.Millisecond)

	// The user signs out and back in while the refresh is pending.
	require.NoError(t, h.m.Logout(context.Background()))
	fresh := h.login(t)
	h.srv.releaseRefresh()

	require.NoError(t, <-done)
	require.Equal(t, fresh, *h.stored(t))
	require.Zero(t, h.callbacks.Load())
}

func TestRefreshCompletingAfterReloginReturnsNewSession(t *testing.T) {
	h := newHarness(t)
	old := h.login(t)

	h.srv.blockRefresh()
	h.clock.Advance(testAccessTTL + time.Second)

	const callers = 4
	results := make(chan duckauth.TokenPair, callers)
	errs := make(chan error, callers)
	for range callers {
		go func() {
			pair, err := h.m.CurrentTokens(context.Background())
			results <- pair
			errs <- err
		}()
	}
	require.Eventually(t, func() bool { return h.m.RefreshesInFlight() == callers }, 5*time.Second, time.Millisecond)

	require.NoError(t, h.m.Logout(context.Background()))
	fresh := h.login(t)
	h.srv.releaseRefresh()

	for range callers {
		require.NoError(t, <-errs)
		require.Equal(t, fresh, <-results)
	}

	require.NoError(t, h.m.Wait(context.Background()))
	require.Equal(t, fresh, *h.stored(t))
	require.Equal(t, int32(1), h.srv.refreshCalls.Load())
	require.ElementsMatch(t, []string{old.RefreshToken, "refresh-2"}, h.srv.revokedTokens())
	require.Zero(t, h.callbacks.Load())
}

func TestRefreshAfterReloginWithExpiredPairIsRecoverable(t *testing.T) {
	h := newHarness(t)
	h.login(t)

	h.srv.blockRefresh()
	h.clock.Advance(testAccessTTL + time.Second)

	done := make(chan error, 1)
	go func() {
		_, err := h.m.CurrentTokens(context.Background())
		done <- err
	}()
	require.Eventually(t, func() bool { return h.srv.refreshCalls.Load() == 1 }, 5*time.Second, time.Millisecond)

	// Another login stored a pair that is already expired by our clock.
	require.NoError(t, h.m.Logout(context.Background()))
	require.NoError(t, h.m.Login(context.Background(), testUsername, testPassword))
	h.storePair(t, h.clock.Now().Unix()-1, "expired-relogin")
	h.srv.releaseRefresh()

	err := <-done
	require.ErrorIs(t, err, duckauth.ErrRefreshSuperseded)
	require.NotErrorIs(t, err, duckauth.ErrNotSignedIn)
	require.True(t, duckauth.IsRecoverable(err))
	require.NotNil(t, h.stored(t))
	require.Zero(t, h.callbacks.Load())
}

func TestUnauthorizedAfterRotationElsewhereIsSuperseded(t *testing.T) {
	h := newHarness(t)
	h.login(t)

	h.srv.blockRefresh()
	h.srv.setRefreshFailure(401, nil)
	h.clock.Advance(testAccessTTL + time.Second)

	done := make(chan error, 1)
	go func() {
		_, err := h.m.CurrentTokens(context.Background())
		done <- err
	}()
	require.Eventually(t, func() bool { return h.srv.refreshCalls.Load() == 1 }, 5*time.Second, time.Millisecond)

	// Another process sharing the keychain rotated the pair.
	rotated := h.storePair(t, h.clock.Now().Unix()+600, "rotated-elsewhere")
	h.srv.releaseRefresh()

	err := <-done
	require.ErrorIs(t, err, duckauth.ErrRefreshSuperseded)
	require.True(t, duckauth.IsRecoverable(err))
	require.Equal(t, rotated, *h.stored(t))
	require.Zero(t, h.callbacks.Load())

	h.srv.setRefreshFailure(0, nil)
	got, err := h.m.CurrentTokens(context.Background())
	require.NoError(t, err)
	require.Equal(t, rotated, got)
}

func TestStaleJoinReusesRotatedPair(t *testing.T) {
	h := newHarness(t)
	h.storePair(t, h.clock.Now().Unix()-10, "old-refresh")

	// The pair is rotated by someone else right after our first read.
	var once sync.Once
	var rotated duckauth.TokenPair
	h.store.setAfterGet(func(key string) {
		if key != duckauth.TokensKey {
			return
		}
		once.Do(func() {
			rotated = duckauth.TokenPair{AccessToken: accessToken(t, h.clock.Now().Unix()+600), RefreshToken: "new-refresh"}
			require.NoError(t, duckauth.NewTokenStore(h.store.MemoryStore).Save(context.Background(), rotated))
		})
	})

	got, err := h.m.CurrentTokens(context.Background())
	require.NoError(t, err)
	require.Equal(t, rotated, got)
	require.Zero(t, h.srv.refreshCalls.Load(), "rotated token must not be spent again")
}

func TestCallerCancellationDoesNotAbortRefresh(t *testing.T) {
	h := newHarness(t)
	h.login(t)

	h.srv.blockRefresh()
	h.clock.Advance(testAccessTTL + time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := h.m.CurrentTokens(ctx)
		done <- err
	}()
	require.Eventually(t, func() bool { return h.m.RefreshesInFlight() == 1 }, 5*time.Second, time.Millisecond)

	cancel()
	require.ErrorIs(t, <-done, context.Canceled)

	h.srv.releaseRefresh()
	require.NoError(t, h.m.Wait(context.Background()))
	require.Equal(t, "refresh-2", h.stored(t).RefreshToken)
}

func TestCorruptStorageEndsSession(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.store.Set(context.Background(), duckauth.TokensKey, []byte("{not json")))

	_, err := h.m.CurrentTokens(context.Background())
	require.ErrorIs(t, err, duckauth.ErrNotSignedIn)
	require.ErrorIs(t, err, duckauth.ErrStorageCorrupt)
	require.Equal(t, int32(1), h.callbacks.Load())

	_, err = h.store.MemoryStore.Get(context.Background(), duckauth.TokensKey)
	require.ErrorIs(t, err, keychain.ErrNotFound, "corrupt entry is cleared")
}

func TestUndecodableAccessTokenEndsSession(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, duckauth.NewTokenStore(h.store).Save(context.Background(), duckauth.TokenPair{
		AccessToken:  "only.two",
		RefreshToken: "r",
	}))

	_, err := h.m.CurrentTokens(context.Background())
	require.ErrorIs(t, err, duckauth.ErrNotSignedIn)
	require.Equal(t, int32(1), h.callbacks.Load())
	require.Nil(t, h.stored(t))
	require.Zero(t, h.srv.refreshCalls.Load())
}

func TestStoredTokenWithoutClaimsEndsSession(t *testing.T) {
	for name, payload := range map[string]string{
		"empty object": `{}`,
		"missing exp":  `{"userId":"u1","username":"alice","roles":["staff"],"iat":1}`,
	} {
		t.Run(name, func(t *testing.T) {
			h := newHarness(t)
			require.NoError(t, duckauth.NewTokenStore(h.store).Save(context.Background(), duckauth.TokenPair{
				AccessToken:  tokenWithPayload(payload),
				RefreshToken: "r",
			}))

			_, err := h.m.CurrentTokens(context.Background())
			require.ErrorIs(t, err, duckauth.ErrNotSignedIn)
			require.ErrorIs(t, err, jwtx.ErrPayloadDecode)
			require.Equal(t, int32(1), h.callbacks.Load())
			require.Nil(t, h.stored(t))
			require.Zero(t, h.srv.refreshCalls.Load())
			require.False(t, h.m.IsSignedIn(context.Background()))
		})
	}
}

func TestStorageReadFailureKeepsEntry(t *testing.T) {
	h := newHarness(t)
	h.login(t)
	before := h.storedRaw(t)

	h.store.setGetErr(errors.New("keychain locked"))

	_, err := h.m.CurrentTokens(context.Background())
	require.ErrorIs(t, err, duckauth.ErrNotSignedIn)
	require.ErrorIs(t, err, duckauth.ErrStorageRead)
	require.Equal(t, int32(1), h.callbacks.Load())

	h.store.setGetErr(nil)
	require.Equal(t, before, h.storedRaw(t))
}

func TestCurrentClaims(t *testing.T) {
	h := newHarness(t)
	h.login(t)

	claims, err := h.m.CurrentClaims(context.Background())
	require.NoError(t, err)
	require.Equal(t, "u1", claims.UserID)
	require.Equal(t, testUsername, claims.Username)
	require.True(t, claims.HasRole("staff"))
	require.Equal(t, h.clock.Now().Add(testAccessTTL).Unix(), claims.Exp)
}

// Login, use, expire, refresh once, logout.
func TestLifecycleScenario(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	require.NoError(t, h.m.Login(ctx, testUsername, testPassword))
	issued := *h.stored(t)

	got, err := h.m.CurrentTokens(ctx)
	require.NoError(t, err)
	require.Equal(t, issued, got)
	require.Zero(t, h.srv.refreshCalls.Load())

	h.clock.Advance(testAccessTTL + time.Minute)

	refreshed, err := h.m.CurrentTokens(ctx)
	require.NoError(t, err)
	require.Equal(t, int32(1), h.srv.refreshCalls.Load())
	require.NotEqual(t, issued, refreshed)

	again, err := h.m.CurrentTokens(ctx)
	require.NoError(t, err)
	require.Equal(t, refreshed, again)
	require.Equal(t, int32(1), h.srv.refreshCalls.Load())

	require.NoError(t, h.m.Logout(ctx))

	_, err = h.m.CurrentTokens(ctx)
	require.ErrorIs(t, err, duckauth.ErrNotSignedIn)

	require.NoError(t, h.m.Wait(ctx))
	require.Equal(t, []string{refreshed.RefreshToken}, h.srv.revokedTokens())
}
