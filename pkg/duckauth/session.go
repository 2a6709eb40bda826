package duckauth

import (
	"context"

	"github.com/aussiebroadwan/duckauth/pkg/redact"
)

// Login exchanges credentials for a token pair and persists it, replacing any
// existing session.
func (m *Manager) Login(ctx context.Context, username, password string) error {
	log := m.log.With("username", redact.Username(username))

	device, err := m.resolveDevice(ctx)
	if err != nil {
		log.ErrorContext(ctx, "login_failed", "err", err)
		return err
	}

	body, err := m.post(ctx, AuthorizePath, AuthorizeRequest{
		Username: username,
		Password: password,
		Device:   device,
	})
	if err != nil {
		err = classifyLogin(err)
		log.WarnContext(ctx, "login_failed", "err", err)
		return err
	}

	pair, err := decodePair(body)
	if err != nil {
		log.WarnContext(ctx, "login_failed", "err", err)
		return err
	}

	m.mu.Lock()
	err = m.tokens.Save(ctx, pair)
	if err == nil {
		m.generation++
	}
	m.mu.Unlock()

	if err != nil {
		log.ErrorContext(ctx, "login_persist_failed", "err", err)
		return err
	}

	log.InfoContext(ctx, "login_succeeded", "device_id", device.DeviceID)
	return nil
}

// Logout clears the stored session and then revokes its refresh token in the
// background. The local session is gone when Logout returns, whatever the
// outcome of the revoke. Logging out without a session is a no-op.
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.Lock()
	pair, loadErr := m.tokens.Load(ctx)
	clearErr := m.tokens.Clear(ctx)
	if clearErr == nil {
		m.generation++
	}
	m.mu.Unlock()

	if clearErr != nil {
		m.log.ErrorContext(ctx, "logout_failed", "err", clearErr)
		return clearErr
	}

	switch {
	case loadErr != nil:
		m.log.WarnContext(ctx, "logged_out", "revoke", false, "err", loadErr)
	case pair == nil:
		m.log.DebugContext(ctx, "logout_not_signed_in")
	default:
		m.log.InfoContext(ctx, "logged_out", "revoke", true)
		m.revokeInBackground(ctx, pair.RefreshToken)
	}

	return nil
}

// revokeInBackground asks the server to revoke refreshToken without blocking
// the caller. Failures are logged and otherwise ignored.
func (m *Manager) revokeInBackground(ctx context.Context, refreshToken string) {
	m.background.Go(ctx, "revoke:"+refreshToken, func(ctx context.Context) (struct{}, error) {
		ctx, cancel := context.WithTimeout(ctx, m.revokeTimeout)
		defer cancel()

		_, err := m.post(ctx, RevokePath, RefreshTokenRequest{RefreshToken: refreshToken})
		if err != nil {
			m.log.WarnContext(ctx, "token_revoke_failed",
				"refresh_id", redact.Fingerprint(refreshToken),
				"err", err,
			)
		}
		return struct{}{}, nil
	})
}
