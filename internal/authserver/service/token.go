package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/aussiebroadwan/duckauth/internal/authserver/store"
	"github.com/aussiebroadwan/duckauth/pkg/cryptox"
	"github.com/aussiebroadwan/duckauth/pkg/duckauth"
	"github.com/aussiebroadwan/duckauth/pkg/idx"
	"github.com/aussiebroadwan/duckauth/pkg/jwtx"
	"github.com/aussiebroadwan/duckauth/pkg/redact"
	"github.com/aussiebroadwan/duckauth/pkg/slogx"
)

var (
	ErrInvalidRequest     = errors.New("invalid_request")
	ErrInvalidClient      = errors.New("invalid_client")
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrInvalidGrant       = errors.New("invalid_grant")
)

// TokenService issues, rotates and revokes token pairs.
type TokenService struct {
	Store  store.Store
	Signer jwtx.Signer

	// Clients maps client id to the argon2 hash of its secret.
	Clients map[string]string

	Audience   string
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	// Now defaults to time.Now.
	Now func() time.Time
}

// AuthenticateClient checks the client id and secret sent in the
// Authorization header.
func (s *TokenService) AuthenticateClient(clientID, clientSecret string) error {
	hash, ok := s.Clients[clientID]
	if !ok {
		return ErrInvalidClient
	}
	if err := cryptox.VerifyPassword(clientSecret, hash); err != nil {
		return ErrInvalidClient
	}
	return nil
}

// Authorize signs a user in with username and password and starts a new
// session for the reporting device.
func (s *TokenService) Authorize(
	ctx context.Context,
	clientID, clientSecret string,
	req duckauth.AuthorizeRequest,
) (duckauth.TokenPair, error) {
	l := slogx.FromContext(ctx)

	if err := s.AuthenticateClient(clientID, clientSecret); err != nil {
		l.Info("authorize client authentication failed", slog.String("client_id", clientID))
		return duckauth.TokenPair{}, err
	}

	username := strings.TrimSpace(req.Username)
	if username == "" || req.Password == "" {
		return duckauth.TokenPair{}, ErrInvalidRequest
	}

	user, err := s.Store.Users().GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Burn the same time as a real check so usernames can't be probed.
			_ = cryptox.VerifyPassword(req.Password, dummyHash)
			l.Info("authorize unknown user", slog.String("username", redact.Username(username)))
			return duckauth.TokenPair{}, ErrInvalidCredentials
		}
		return duckauth.TokenPair{}, err
	}

	if err := cryptox.VerifyPassword(req.Password, user.PasswordHash); err != nil {
		l.Info("authorize wrong password", slog.String("username", redact.Username(username)))
		return duckauth.TokenPair{}, ErrInvalidCredentials
	}

	now := s.now()
	device := store.Device{
		Type:  req.Device.DeviceType,
		ID:    req.Device.DeviceID,
		Model: req.Device.Model,
		OS:    req.Device.OS,
	}

	pair, refresh, err := s.issue(user, clientID, idx.New(), device, now)
	if err != nil {
		return duckauth.TokenPair{}, err
	}
	if err := s.Store.RefreshTokens().CreateRefreshToken(ctx, refresh); err != nil {
		return duckauth.TokenPair{}, err
	}

	l.Info("session started",
		slog.String("user_id", user.ID),
		slog.String("session_id", refresh.SessionID),
		slog.String("device_id", device.ID),
	)
	return pair, nil
}

// Refresh rotates a refresh token. The presented token is revoked and a new
// pair is issued in the same session. Presenting an already rotated token is
// treated as theft and ends the whole session.
func (s *TokenService) Refresh(
	ctx context.Context,
	clientID, clientSecret, refreshOpaque string,
) (duckauth.TokenPair, error) {
	l := slogx.FromContext(ctx)

	if err := s.AuthenticateClient(clientID, clientSecret); err != nil {
		return duckauth.TokenPair{}, err
	}
	if refreshOpaque == "" {
		return duckauth.TokenPair{}, ErrInvalidRequest
	}

	now := s.now()
	fp := cryptox.Fingerprint(refreshOpaque)

	var (
		pair   duckauth.TokenPair
		reused string
	)
	err := s.Store.WithTx(ctx, func(tx store.Repos) error {
		rt, err := tx.RefreshTokens().GetRefreshTokenByHash(ctx, fp)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrInvalidGrant
			}
			return err
		}

		if rt.ClientID != clientID || now.After(rt.ExpiresAt) {
			return ErrInvalidGrant
		}

		// Commit the session revocation, the caller still gets invalid_grant.
		if rt.Revoked {
			reused = rt.SessionID
			return tx.RefreshTokens().RevokeSession(ctx, rt.SessionID)
		}

		user, err := tx.Users().GetUserByID(ctx, rt.UserID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrInvalidGrant
			}
			return err
		}

		next, refresh, err := s.issue(user, clientID, rt.SessionID, rt.Device, now)
		if err != nil {
			return err
		}
		if err := tx.RefreshTokens().RevokeRefreshToken(ctx, fp); err != nil {
			return err
		}
		if err := tx.RefreshTokens().CreateRefreshToken(ctx, refresh); err != nil {
			return err
		}

		pair = next
		return nil
	})
	if err != nil {
		return duckauth.TokenPair{}, err
	}

	if reused != "" {
		l.Warn("refresh token reuse detected, session revoked",
			slog.String("session_id", reused),
			slog.String("refresh_token", redact.Fingerprint(refreshOpaque)),
		)
		return duckauth.TokenPair{}, ErrInvalidGrant
	}
	return pair, nil
}

// Revoke ends the session the refresh token belongs to. Unknown tokens and
// tokens of other clients are ignored.
func (s *TokenService) Revoke(ctx context.Context, clientID, clientSecret, refreshOpaque string) error {
	if err := s.AuthenticateClient(clientID, clientSecret); err != nil {
		return err
	}
	if refreshOpaque == "" {
		return ErrInvalidRequest
	}

	rt, err := s.Store.RefreshTokens().GetRefreshTokenByHash(ctx, cryptox.Fingerprint(refreshOpaque))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return err
	}
	if rt.ClientID != clientID {
		return nil
	}

	if err := s.Store.RefreshTokens().RevokeSession(ctx, rt.SessionID); err != nil {
		return err
	}

	slogx.FromContext(ctx).Info("session revoked", slog.String("session_id", rt.SessionID))
	return nil
}

// issue signs an access token and mints the matching refresh token record.
func (s *TokenService) issue(
	user store.User,
	clientID, sessionID string,
	device store.Device,
	now time.Time,
) (duckauth.TokenPair, store.RefreshToken, error) {
	claims := jwtx.NewAccessClaims(user.ID, user.Username, user.Roles, s.Audience, s.AccessTTL, now)
	access, err := s.Signer.Sign(claims)
	if err != nil {
		return duckauth.TokenPair{}, store.RefreshToken{}, err
	}

	opaque, err := cryptox.NewOpaqueToken()
	if err != nil {
		return duckauth.TokenPair{}, store.RefreshToken{}, err
	}

	refresh := store.RefreshToken{
		ID:        idx.NewAt(now),
		UserID:    user.ID,
		ClientID:  clientID,
		TokenHash: cryptox.Fingerprint(opaque),
		SessionID: sessionID,
		Device:    device,
		ExpiresAt: now.Add(s.RefreshTTL),
		CreatedAt: now,
	}

	return duckauth.TokenPair{AccessToken: access, RefreshToken: opaque}, refresh, nil
}

func (s *TokenService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// dummyHash is verified against when the username is unknown.
var dummyHash = func() string {
	h, err := cryptox.HashPassword("duckauth-timing-equaliser")
	if err != nil {
		panic(err)
	}
	return h
}()
