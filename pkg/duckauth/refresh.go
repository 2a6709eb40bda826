package duckauth

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aussiebroadwan/duckauth/pkg/jwtx"
	"github.com/aussiebroadwan/duckauth/pkg/redact"
)

// refresh exchanges stale.RefreshToken for a new pair. It runs at most once
// per refresh token value at a time, all callers waiting on it share the
// result. gen is the session generation stale was loaded under.
func (m *Manager) refresh(ctx context.Context, stale TokenPair, gen uint64) (TokenPair, error) {
	log := m.log.With("refresh_id", redact.Fingerprint(stale.RefreshToken))

	// A caller that loaded the pair just before another refresh finished
	// would otherwise spend a refresh token the server already rotated.
	if current, ok := m.rotatedElsewhere(ctx, stale); ok {
		log.DebugContext(ctx, "token_refresh_skipped", "cause", "already_rotated")
		return current, nil
	}

	log.InfoContext(ctx, "token_refresh_started")

	body, err := m.post(ctx, RefreshPath, RefreshTokenRequest{RefreshToken: stale.RefreshToken})
	if err != nil {
		if IsUnauthorized(err) {
			return m.refreshRejected(ctx, log, stale, gen, err)
		}

		err = classifyRefresh(err)
		log.WarnContext(ctx, "token_refresh_failed", "err", err)
		return TokenPair{}, err
	}

	pair, err := decodePair(body)
	if err != nil {
		log.WarnContext(ctx, "token_refresh_failed", "err", err)
		return TokenPair{}, err
	}

	m.mu.Lock()
	if m.generation != gen {
		m.mu.Unlock()

		// The user signed out, or in again, while the request was in
		// flight. The new refresh token is live on the server, so it is
		// revoked too.
		log.InfoContext(ctx, "token_refresh_discarded", "cause", "generation_changed")
		m.revokeInBackground(ctx, pair.RefreshToken)
		return m.replacingSession(ctx)
	}
	err = m.tokens.Save(ctx, pair)
	m.mu.Unlock()

	if err != nil {
		log.ErrorContext(ctx, "token_refresh_persist_failed", "err", err)
		return TokenPair{}, err
	}

	log.InfoContext(ctx, "token_refresh_succeeded")
	return pair, nil
}

// refreshRejected handles a 401 from the refresh endpoint. The session is
// only ended when it is still the one the rejected token belonged to.
func (m *Manager) refreshRejected(ctx context.Context, log *slog.Logger, stale TokenPair, gen uint64, cause error) (TokenPair, error) {
	log.WarnContext(ctx, "token_refresh_unauthorized", "err", cause)

	if m.endSession(ctx, gen, stale.RefreshToken, "refresh_unauthorized") {
		return TokenPair{}, fmt.Errorf("%w: %w", ErrRefreshUnauthorized, cause)
	}

	m.mu.RLock()
	changed := m.generation != gen
	m.mu.RUnlock()
	if changed {
		return m.replacingSession(ctx)
	}
	return TokenPair{}, fmt.Errorf("%w: %w", ErrRefreshSuperseded, cause)
}

// replacingSession settles a refresh whose session was logged out while it
// ran. A pair stored since by a new login is returned when its access token
// is usable. A stored pair that is not usable yet yields ErrRefreshSuperseded
// so the caller retries. Without a stored pair the session has ended.
func (m *Manager) replacingSession(ctx context.Context) (TokenPair, error) {
	m.mu.RLock()
	stored, err := m.tokens.Load(ctx)
	m.mu.RUnlock()

	if err != nil || stored == nil {
		return TokenPair{}, ErrSessionEnded
	}

	claims, err := jwtx.DecodePayload(stored.AccessToken)
	if err != nil || claims.ExpiresIn(m.now()) < 0 {
		return TokenPair{}, fmt.Errorf("%w: session replaced during refresh", ErrRefreshSuperseded)
	}
	return *stored, nil
}

// rotatedElsewhere reports the stored pair when it has already replaced stale
// and its access token is still usable.
func (m *Manager) rotatedElsewhere(ctx context.Context, stale TokenPair) (TokenPair, bool) {
	m.mu.RLock()
	stored, err := m.tokens.Load(ctx)
	m.mu.RUnlock()

	if err != nil || stored == nil || stored.RefreshToken == stale.RefreshToken {
		return TokenPair{}, false
	}

	claims, err := jwtx.DecodePayload(stored.AccessToken)
	if err != nil || claims.ExpiresIn(m.now()) < 0 {
		return TokenPair{}, false
	}
	return *stored, true
}
