package sqlite

import (
	"context"

	"github.com/aussiebroadwan/duckauth/internal/authserver/store"
)

type usersRepo struct {
	q querier
}

const userColumns = `id, username, password_hash, roles, created_at`

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (store.User, error) {
	return r.scanOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
}

func (r *usersRepo) GetUserByUsername(ctx context.Context, username string) (store.User, error) {
	return r.scanOne(ctx, `SELECT `+userColumns+` FROM users WHERE username = ?`, username)
}

func (r *usersRepo) CreateUser(ctx context.Context, u store.User) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?)`,
		u.ID, u.Username, u.PasswordHash, joinFields(u.Roles), unix(u.CreatedAt),
	)
	return mapConstraint(err)
}

func (r *usersRepo) IsEmpty(ctx context.Context) (bool, error) {
	var count int64
	if err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return false, err
	}
	return count == 0, nil
}

func (r *usersRepo) scanOne(ctx context.Context, query string, arg any) (store.User, error) {
	var (
		u       store.User
		roles   string
		created int64
	)
	err := r.q.QueryRowContext(ctx, query, arg).Scan(&u.ID, &u.Username, &u.PasswordHash, &roles, &created)
	if err != nil {
		return store.User{}, mapNotFound(err)
	}

	u.Roles = splitFields(roles)
	u.CreatedAt = fromUnix(created)
	return u, nil
}
