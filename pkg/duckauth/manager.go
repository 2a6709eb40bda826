package duckauth

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/aussiebroadwan/duckauth/pkg/jwtx"
	"github.com/aussiebroadwan/duckauth/pkg/keychain"
	"github.com/aussiebroadwan/duckauth/pkg/singleflight"
	"github.com/aussiebroadwan/duckauth/pkg/slogx"
)

// DefaultRevokeTimeout bounds the background revoke call made by Logout.
const DefaultRevokeTimeout = 10 * time.Second

// Options configures a Manager.
type Options struct {
	// Transport reaches the auth service. Required.
	Transport Transport

	// Secrets persists the token pair and the device id. Required.
	Secrets keychain.SecretStore

	// ClientID and ClientSecret identify the application to the auth service.
	ClientID     string
	ClientSecret string

	// Device is sent on login. Empty fields are filled in, an empty DeviceID
	// is generated once and persisted.
	Device DeviceInfo

	Logger *slog.Logger

	// Now defaults to time.Now.
	Now func() time.Time

	// RevokeTimeout defaults to DefaultRevokeTimeout.
	RevokeTimeout time.Duration

	// OnNonRecoverableError is called synchronously when the session is gone
	// and the user has to sign in again.
	OnNonRecoverableError func()
}

// Manager owns the persisted token pair. It is safe for concurrent use.
type Manager struct {
	transport     Transport
	secrets       keychain.SecretStore
	tokens        *TokenStore
	authorization string
	log           *slog.Logger
	now           func() time.Time
	revokeTimeout time.Duration
	onNonRecov    func()

	deviceMu sync.Mutex
	device   DeviceInfo

	refreshes  singleflight.Group[TokenPair]
	background singleflight.Group[struct{}]

	// mu orders token store writes against session changes. generation is
	// bumped whenever a session starts or ends.
	mu         sync.RWMutex
	generation uint64
}

// New validates opts and returns a Manager.
func New(opts Options) (*Manager, error) {
	if opts.Transport == nil {
		return nil, errors.New("duckauth: transport is required")
	}
	if opts.Secrets == nil {
		return nil, errors.New("duckauth: secret store is required")
	}
	if opts.ClientID == "" {
		return nil, errors.New("duckauth: client id is required")
	}

	m := &Manager{
		transport:     opts.Transport,
		secrets:       opts.Secrets,
		tokens:        NewTokenStore(opts.Secrets),
		authorization: ClientAuthorization(opts.ClientID, opts.ClientSecret),
		log:           opts.Logger,
		now:           opts.Now,
		revokeTimeout: opts.RevokeTimeout,
		onNonRecov:    opts.OnNonRecoverableError,
		device:        withDeviceDefaults(opts.Device),
	}
	if m.log == nil {
		m.log = slogx.Discard()
	}
	if m.now == nil {
		m.now = time.Now
	}
	if m.revokeTimeout <= 0 {
		m.revokeTimeout = DefaultRevokeTimeout
	}

	return m, nil
}

// ClientAuthorization returns the Authorization header value identifying the
// client: "Basic " followed by base64(clientID:clientSecret).
func ClientAuthorization(clientID, clientSecret string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(clientID+":"+clientSecret))
}

// CurrentTokens returns a usable token pair, refreshing it when the access
// token has expired.
//
// When no session exists, or the stored session cannot be used, the
// non-recoverable callback fires and the error matches ErrNotSignedIn.
func (m *Manager) CurrentTokens(ctx context.Context) (TokenPair, error) {
	pair, claims, gen, err := m.loadSession(ctx)
	if err != nil {
		return TokenPair{}, err
	}

	// exp == now is still usable, only a negative remainder refreshes.
	if claims.ExpiresIn(m.now()) >= 0 {
		return pair, nil
	}

	refreshed, shared, err := m.refreshes.Do(ctx, pair.RefreshToken, func(ctx context.Context) (TokenPair, error) {
		return m.refresh(ctx, pair, gen)
	})
	if shared {
		m.log.DebugContext(ctx, "token_refresh_joined")
	}
	return refreshed, err
}

// CurrentClaims returns the claims of a usable access token.
func (m *Manager) CurrentClaims(ctx context.Context) (jwtx.AccessTokenClaims, error) {
	pair, err := m.CurrentTokens(ctx)
	if err != nil {
		return jwtx.AccessTokenClaims{}, err
	}
	return jwtx.DecodePayload(pair.AccessToken)
}

// IsSignedIn reports whether a decodable session is stored. It does not
// refresh, touch the network or fire the non-recoverable callback.
func (m *Manager) IsSignedIn(ctx context.Context) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	pair, err := m.tokens.Load(ctx)
	if err != nil || pair == nil {
		return false
	}
	_, err = jwtx.DecodePayload(pair.AccessToken)
	return err == nil
}

// Wait blocks until in-flight refreshes and background revokes finish.
func (m *Manager) Wait(ctx context.Context) error {
	if err := m.refreshes.Wait(ctx); err != nil {
		return err
	}
	return m.background.Wait(ctx)
}

// loadSession reads the stored pair together with the generation it belongs
// to. Every failure ends in ErrNotSignedIn and the callback.
func (m *Manager) loadSession(ctx context.Context) (TokenPair, jwtx.AccessTokenClaims, uint64, error) {
	m.mu.RLock()
	gen := m.generation
	pair, err := m.tokens.Load(ctx)
	m.mu.RUnlock()

	switch {
	case errors.Is(err, ErrStorageCorrupt):
		m.log.WarnContext(ctx, "stored_tokens_corrupt", "err", err)
		m.endSession(ctx, gen, "", "storage_corrupt")
		return TokenPair{}, jwtx.AccessTokenClaims{}, gen, fmt.Errorf("%w: %w", ErrNotSignedIn, err)

	case err != nil:
		// The entry may be fine, so it is left in place.
		m.log.ErrorContext(ctx, "stored_tokens_unreadable", "err", err)
		m.fireNonRecoverable()
		return TokenPair{}, jwtx.AccessTokenClaims{}, gen, fmt.Errorf("%w: %w", ErrNotSignedIn, err)

	case pair == nil:
		m.fireNonRecoverable()
		return TokenPair{}, jwtx.AccessTokenClaims{}, gen, ErrNotSignedIn
	}

	claims, err := jwtx.DecodePayload(pair.AccessToken)
	if err != nil {
		m.log.WarnContext(ctx, "stored_access_token_undecodable", "err", err)
		m.endSession(ctx, gen, "", "access_token_undecodable")
		return TokenPair{}, jwtx.AccessTokenClaims{}, gen, fmt.Errorf("%w: %w", ErrNotSignedIn, err)
	}

	return *pair, claims, gen, nil
}

// endSession clears the stored pair and fires the callback, unless the
// session observed at generation gen has already been replaced. A non-empty
// rejected token additionally requires the store to still hold that token.
// It reports whether the session was ended.
func (m *Manager) endSession(ctx context.Context, gen uint64, rejected, reason string) bool {
	m.mu.Lock()
	if m.generation != gen {
		m.mu.Unlock()
		m.log.InfoContext(ctx, "session_end_skipped", "reason", reason, "cause", "generation_changed")
		return false
	}

	if rejected != "" {
		stored, err := m.tokens.Load(ctx)
		if err == nil && stored != nil && stored.RefreshToken != rejected {
			m.mu.Unlock()
			m.log.InfoContext(ctx, "session_end_skipped", "reason", reason, "cause", "tokens_rotated")
			return false
		}
	}

	if err := m.tokens.Clear(ctx); err != nil {
		m.log.ErrorContext(ctx, "token_clear_failed", "err", err)
	}
	m.generation++
	m.mu.Unlock()

	m.log.InfoContext(ctx, "session_ended", "reason", reason)
	m.fireNonRecoverable()
	return true
}

func (m *Manager) fireNonRecoverable() {
	if m.onNonRecov != nil {
		m.onNonRecov()
	}
}

// post sends body as JSON with the client authorization header.
func (m *Manager) post(ctx context.Context, path string, body any) ([]byte, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	header := make(http.Header)
	header.Set("Authorization", m.authorization)
	header.Set("Content-Type", "application/json")
	header.Set("Accept", "application/json")

	return send(ctx, m.transport, &Request{
		Method: http.MethodPost,
		Path:   path,
		Header: header,
		Body:   data,
	})
}

// decodePair parses and checks a token response.
func decodePair(body []byte) (TokenPair, error) {
	var pair TokenPair
	if err := json.Unmarshal(body, &pair); err != nil {
		return TokenPair{}, fmt.Errorf("%w: invalid token response: %w", ErrServer, err)
	}
	if !pair.valid() {
		return TokenPair{}, fmt.Errorf("%w: token response missing tokens", ErrServer)
	}
	if _, err := jwtx.DecodePayload(pair.AccessToken); err != nil {
		return TokenPair{}, fmt.Errorf("%w: issued access token: %w", ErrServer, err)
	}
	return pair, nil
}
