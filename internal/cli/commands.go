package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/aussiebroadwan/duckauth/pkg/duckauth"
)

func (a *App) login(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	username := fs.String("u", "", "username")
	passwordStdin := fs.Bool("password-stdin", false, "read the password from stdin")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %w", errUsage, err)
	}

	if *username == "" && !*passwordStdin {
		name, err := readLine(a.stdin, a.stderr, "Username: ")
		if err != nil {
			return fmt.Errorf("failed to read username: %w", err)
		}
		*username = name
	}
	if *username == "" {
		return fmt.Errorf("%w: a username is required", errUsage)
	}

	var (
		password string
		err      error
	)
	if *passwordStdin {
		password, err = readLine(a.stdin, a.stderr, "")
	} else {
		password, err = promptPassword(a.stderr)
	}
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}

	if err := a.manager.Login(ctx, *username, password); err != nil {
		if errors.Is(err, duckauth.ErrInvalidCredentials) {
			return errors.New("login failed: username or password is incorrect")
		}
		return fmt.Errorf("login failed: %w", err)
	}

	fmt.Fprintf(a.stdout, "Signed in as %s\n", *username)
	return nil
}

func (a *App) logout(ctx context.Context) error {
	if err := a.manager.Logout(ctx); err != nil {
		return fmt.Errorf("logout failed: %w", err)
	}

	// The process is about to exit, give the server side revoke a chance.
	waitCtx, cancel := context.WithTimeout(ctx, a.cfg.RevokeTimeout)
	defer cancel()
	if err := a.manager.Wait(waitCtx); err != nil {
		a.logger.WarnContext(ctx, "revoke_not_confirmed", "err", err)
	}

	fmt.Fprintln(a.stdout, "Signed out")
	return nil
}

func (a *App) token(ctx context.Context) error {
	pair, err := a.manager.CurrentTokens(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.stdout, pair.AccessToken)
	return nil
}

func (a *App) whoami(ctx context.Context) error {
	claims, err := a.manager.CurrentClaims(ctx)
	if err != nil {
		return err
	}

	roles := "-"
	if len(claims.Roles) > 0 {
		roles = strings.Join(claims.Roles, ", ")
	}

	fmt.Fprintf(a.stdout, "%s (%s)\n", claims.Username, claims.UserID)
	fmt.Fprintf(a.stdout, "roles:   %s\n", roles)
	fmt.Fprintf(a.stdout, "expires: %s\n", claims.ExpiresAt().Local().Format(time.RFC3339))
	return nil
}
