package sqlite

import (
	"context"

	"github.com/aussiebroadwan/duckauth/internal/authserver/store"
)

type refreshTokensRepo struct {
	q querier
}

func (r *refreshTokensRepo) CreateRefreshToken(ctx context.Context, t store.RefreshToken) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO refresh_tokens (
			id, user_id, client_id, token_hash, session_id,
			device_type, device_id, device_model, device_os,
			expires_at, revoked, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.UserID, t.ClientID, t.TokenHash, t.SessionID,
		t.Device.Type, t.Device.ID, t.Device.Model, t.Device.OS,
		unix(t.ExpiresAt), t.Revoked, unix(t.CreatedAt),
	)
	return mapConstraint(err)
}

func (r *refreshTokensRepo) GetRefreshTokenByHash(ctx context.Context, hash string) (store.RefreshToken, error) {
	var (
		t                store.RefreshToken
		expires, created int64
	)
	err := r.q.QueryRowContext(ctx, `
		SELECT id, user_id, client_id, token_hash, session_id,
		       device_type, device_id, device_model, device_os,
		       expires_at, revoked, created_at
		FROM refresh_tokens WHERE token_hash = ?`, hash,
	).Scan(
		&t.ID, &t.UserID, &t.ClientID, &t.TokenHash, &t.SessionID,
		&t.Device.Type, &t.Device.ID, &t.Device.Model, &t.Device.OS,
		&expires, &t.Revoked, &created,
	)
	if err != nil {
		return store.RefreshToken{}, mapNotFound(err)
	}

	t.ExpiresAt = fromUnix(expires)
	t.CreatedAt = fromUnix(created)
	return t, nil
}

func (r *refreshTokensRepo) RevokeRefreshToken(ctx context.Context, hash string) error {
	_, err := r.q.ExecContext(ctx, `UPDATE refresh_tokens SET revoked = 1 WHERE token_hash = ?`, hash)
	return err
}

func (r *refreshTokensRepo) RevokeSession(ctx context.Context, sessionID string) error {
	_, err := r.q.ExecContext(ctx, `UPDATE refresh_tokens SET revoked = 1 WHERE session_id = ?`, sessionID)
	return err
}

func (r *refreshTokensRepo) DeleteExpiredRefreshTokens(ctx context.Context, now int64) (int64, error) {
	res, err := r.q.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE expires_at < ?`, now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
