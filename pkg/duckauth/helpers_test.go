package duckauth_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aussiebroadwan/duckauth/pkg/duckauth"
	"github.com/aussiebroadwan/duckauth/pkg/jwtx"
	"github.com/aussiebroadwan/duckauth/pkg/keychain"
	"github.com/stretchr/testify/require"
)

const (
	testClientID     = "mobile"
	testClientSecret = "s3cret"
	testUsername     = "alice"
	testPassword     = "hunter2"
	testAccessTTL    = 15 * time.Minute
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(1_700_000_000, 0)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// accessToken builds an unsigned JWT expiring at exp.
func accessToken(t *testing.T, exp int64) string {
	t.Helper()
	return mintAccessToken(exp)
}

func mintAccessToken(exp int64) string {
	claims := jwtx.AccessTokenClaims{
		UserID:   "u1",
		Username: testUsername,
		Roles:    []string{"staff"},
		Exp:      exp,
		Iat:      exp - int64(testAccessTTL/time.Second),
	}
	body, _ := json.Marshal(claims)

	enc := base64.RawURLEncoding
	return enc.EncodeToString([]byte(`{"alg":"none"}`)) + "." + enc.EncodeToString(body) + ".sig"
}

// tokenWithPayload wraps a raw JSON payload in an unsigned JWT.
func tokenWithPayload(payload string) string {
	enc := base64.RawURLEncoding
	return enc.EncodeToString([]byte(`{"alg":"none"}`)) + "." + enc.EncodeToString([]byte(payload)) + ".sig"
}

// fakeServer implements the auth service endpoints as a Transport. Refresh
// tokens rotate on use.
type fakeServer struct {
	clock *fakeClock

	refreshCalls atomic.Int32
	revokeCalls  atomic.Int32
	loginCalls   atomic.Int32

	mu            sync.Mutex
	seq           int
	active        map[string]bool
	revoked       []string
	authHeaders   []string
	logins        []duckauth.AuthorizeRequest
	loginStatus   int
	refreshStatus int
	refreshErr    error
	refreshGate   chan struct{}
	revokeGate    chan struct{}
}

func newFakeServer(clock *fakeClock) *fakeServer {
	return &fakeServer{clock: clock, active: make(map[string]bool)}
}

func (s *fakeServer) Send(ctx context.Context, req *duckauth.Request) (*duckauth.Response, error) {
	if req.Method != http.MethodPost {
		return respond(http.StatusMethodNotAllowed, duckauth.ErrorResponse{Error: "invalid_request"}), nil
	}

	s.mu.Lock()
	s.authHeaders = append(s.authHeaders, req.Header.Get("Authorization"))
	s.mu.Unlock()

	switch req.Path {
	case duckauth.AuthorizePath:
		return s.authorize(req)
	case duckauth.RefreshPath:
		return s.refresh(ctx, req)
	case duckauth.RevokePath:
		return s.revoke(ctx, req)
	default:
		return respond(http.StatusNotFound, duckauth.ErrorResponse{Error: "not_found"}), nil
	}
}

func (s *fakeServer) authorize(req *duckauth.Request) (*duckauth.Response, error) {
	s.loginCalls.Add(1)

	var body duckauth.AuthorizeRequest
	if err := json.Unmarshal(req.Body, &body); err != nil {
		return respond(http.StatusBadRequest, duckauth.ErrorResponse{Error: "invalid_request"}), nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.logins = append(s.logins, body)
	if s.loginStatus != 0 {
		return respond(s.loginStatus, duckauth.ErrorResponse{Error: "forced"}), nil
	}
	if body.Username != testUsername || body.Password != testPassword {
		return respond(http.StatusUnauthorized, duckauth.ErrorResponse{Error: "invalid_grant"}), nil
	}
	return respond(http.StatusOK, s.issueLocked()), nil
}

func (s *fakeServer) refresh(ctx context.Context, req *duckauth.Request) (*duckauth.Response, error) {
	s.refreshCalls.Add(1)

	var body duckauth.RefreshTokenRequest
	if err := json.Unmarshal(req.Body, &body); err != nil {
		return respond(http.StatusBadRequest, duckauth.ErrorResponse{Error: "invalid_request"}), nil
	}

	// The server decides on receipt, the response is held back by the gate.
	s.mu.Lock()
	var resp *duckauth.Response
	err := s.refreshErr
	switch {
	case err != nil:
	case s.refreshStatus != 0:
		resp = respond(s.refreshStatus, duckauth.ErrorResponse{Error: "forced"})
	case !s.active[body.RefreshToken]:
		resp = respond(http.StatusUnauthorized, duckauth.ErrorResponse{Error: "invalid_grant"})
	default:
		delete(s.active, body.RefreshToken)
		resp = respond(http.StatusOK, s.issueLocked())
	}
	gate := s.refreshGate
	s.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return resp, err
}

func (s *fakeServer) revoke(ctx context.Context, req *duckauth.Request) (*duckauth.Response, error) {
	s.revokeCalls.Add(1)

	var body duckauth.RefreshTokenRequest
	if err := json.Unmarshal(req.Body, &body); err != nil {
		return respond(http.StatusBadRequest, duckauth.ErrorResponse{Error: "invalid_request"}), nil
	}

	s.mu.Lock()
	gate := s.revokeGate
	s.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.active, body.RefreshToken)
	s.revoked = append(s.revoked, body.RefreshToken)
	return &duckauth.Response{StatusCode: http.StatusOK}, nil
}

func (s *fakeServer) issueLocked() duckauth.TokenPair {
	s.seq++
	refresh := fmt.Sprintf("refresh-%d", s.seq)
	s.active[refresh] = true

	return duckauth.TokenPair{
		AccessToken:  mintAccessToken(s.clock.Now().Add(testAccessTTL).Unix()),
		RefreshToken: refresh,
	}
}

// activate registers an externally minted refresh token.
func (s *fakeServer) activate(refresh string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active[refresh] = true
}

func (s *fakeServer) blockRefresh() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshGate = make(chan struct{})
}

func (s *fakeServer) releaseRefresh() {
	s.mu.Lock()
	defer s.mu.Unlock()
	close(s.refreshGate)
	s.refreshGate = nil
}

func (s *fakeServer) setRefreshFailure(status int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshStatus = status
	s.refreshErr = err
}

func (s *fakeServer) setLoginStatus(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loginStatus = status
}

func (s *fakeServer) revokedTokens() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.revoked...)
}

func (s *fakeServer) lastLogin() duckauth.AuthorizeRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.logins[len(s.logins)-1]
}

func respond(status int, v any) *duckauth.Response {
	body, _ := json.Marshal(v)
	return &duckauth.Response{StatusCode: status, Body: body}
}

// hookStore wraps a MemoryStore with injectable read failures and a hook run
// after each read.
type hookStore struct {
	*keychain.MemoryStore

	mu       sync.Mutex
	getErr   error
	afterGet func(key string)
}

func (s *hookStore) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	getErr, hook := s.getErr, s.afterGet
	s.mu.Unlock()

	if getErr != nil {
		return nil, getErr
	}
	v, err := s.MemoryStore.Get(ctx, key)
	if hook != nil {
		hook(key)
	}
	return v, err
}

func (s *hookStore) setGetErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.getErr = err
}

func (s *hookStore) setAfterGet(fn func(key string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.afterGet = fn
}

type harness struct {
	m         *duckauth.Manager
	srv       *fakeServer
	clock     *fakeClock
	store     *hookStore
	callbacks atomic.Int32
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	h := &harness{clock: newFakeClock()}
	h.srv = newFakeServer(h.clock)
	h.store = &hookStore{MemoryStore: keychain.NewMemoryStore()}

	m, err := duckauth.New(duckauth.Options{
		Transport:             h.srv,
		Secrets:               h.store,
		ClientID:              testClientID,
		ClientSecret:          testClientSecret,
		Device:                duckauth.DeviceInfo{DeviceType: "test", Model: "unit", OS: "go"},
		Now:                   h.clock.Now,
		RevokeTimeout:         5 * time.Second,
		OnNonRecoverableError: func() { h.callbacks.Add(1) },
	})
	require.NoError(t, err)
	h.m = m

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		require.NoError(t, m.Wait(ctx))
	})
	return h
}

func (h *harness) login(t *testing.T) duckauth.TokenPair {
	t.Helper()

	require.NoError(t, h.m.Login(context.Background(), testUsername, testPassword))
	pair := h.stored(t)
	require.NotNil(t, pair)
	return *pair
}

func (h *harness) stored(t *testing.T) *duckauth.TokenPair {
	t.Helper()

	pair, err := duckauth.NewTokenStore(h.store.MemoryStore).Load(context.Background())
	require.NoError(t, err)
	return pair
}

func (h *harness) storedRaw(t *testing.T) []byte {
	t.Helper()

	raw, err := h.store.MemoryStore.Get(context.Background(), duckauth.TokensKey)
	require.NoError(t, err)
	return raw
}

// storePair writes a session whose access token expires at exp and whose
// refresh token the server will accept.
func (h *harness) storePair(t *testing.T, exp int64, refresh string) duckauth.TokenPair {
	t.Helper()

	pair := duckauth.TokenPair{AccessToken: accessToken(t, exp), RefreshToken: refresh}
	require.NoError(t, duckauth.NewTokenStore(h.store.MemoryStore).Save(context.Background(), pair))
	h.srv.activate(refresh)
	return pair
}
