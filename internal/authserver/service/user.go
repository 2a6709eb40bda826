package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/aussiebroadwan/duckauth/internal/authserver/store"
	"github.com/aussiebroadwan/duckauth/pkg/cryptox"
	"github.com/aussiebroadwan/duckauth/pkg/idx"
	"github.com/aussiebroadwan/duckauth/pkg/redact"
	"github.com/aussiebroadwan/duckauth/pkg/slogx"
)

var ErrUserExists = errors.New("user already exists")

type UserService struct {
	Store store.Store
}

// CreateUser hashes the password and stores a new user.
func (s *UserService) CreateUser(ctx context.Context, username, password string, roles []string) (store.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return store.User{}, ErrInvalidRequest
	}

	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return store.User{}, err
	}

	u := store.User{
		ID:           idx.New(),
		Username:     username,
		PasswordHash: hash,
		Roles:        roles,
		CreatedAt:    time.Now().UTC().Truncate(time.Second),
	}
	if err := s.Store.Users().CreateUser(ctx, u); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return store.User{}, ErrUserExists
		}
		return store.User{}, err
	}
	return u, nil
}

// Seed creates the configured development user on an empty database. It is a
// no-op when username is empty or users already exist.
func (s *UserService) Seed(ctx context.Context, username, password string, roles []string) error {
	l := slogx.FromContext(ctx)
	if username == "" {
		return nil
	}

	empty, err := s.Store.Users().IsEmpty(ctx)
	if err != nil {
		return err
	}
	if !empty {
		l.Debug("user store not empty, skipping seed")
		return nil
	}

	u, err := s.CreateUser(ctx, username, password, roles)
	if err != nil {
		return err
	}

	l.Info("seeded development user",
		slog.String("user_id", u.ID),
		slog.String("username", redact.Username(u.Username)),
	)
	return nil
}
