package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/aussiebroadwan/duckauth/pkg/cryptox"
	"github.com/aussiebroadwan/duckauth/pkg/duckauth"
	"github.com/aussiebroadwan/duckauth/pkg/keychain"
	"github.com/aussiebroadwan/duckauth/pkg/slogx"
)

// BuildVersion is overridden at build time via -ldflags.
var BuildVersion = "v0.1.0"

// App is the duckauth command line client.
type App struct {
	cfg    Config
	logger *slog.Logger

	manager *duckauth.Manager
	closer  io.Closer

	stdin  *bufio.Reader
	stdout io.Writer
	stderr io.Writer

	signInRequired atomic.Bool
}

// NewApp opens the sealed keychain and builds the token manager.
func NewApp(cfg Config) (*App, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.KeychainFile), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create keychain directory: %w", err)
	}

	masterKey, err := cryptox.LoadOrCreateMasterKey(cfg.MasterKeyFile)
	if err != nil {
		return nil, err
	}
	sealer, err := cryptox.NewSealer(masterKey)
	if err != nil {
		return nil, err
	}

	db, err := keychain.OpenSQLite(cfg.KeychainFile)
	if err != nil {
		return nil, err
	}
	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply keychain migrations: %w", err)
	}

	transport := duckauth.NewHTTPTransport(cfg.ServerURL, &http.Client{Timeout: cfg.HTTPTimeout})

	app, err := newApp(cfg, keychain.NewEncryptedStore(db, sealer), transport)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	app.closer = db
	return app, nil
}

func newApp(cfg Config, secrets keychain.SecretStore, transport duckauth.Transport) (*App, error) {
	app := &App{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "duckauth-cli",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
			Output:  os.Stderr,
		}),
		stdin:  bufio.NewReader(os.Stdin),
		stdout: os.Stdout,
		stderr: os.Stderr,
	}

	manager, err := duckauth.New(duckauth.Options{
		Transport:     transport,
		Secrets:       secrets,
		ClientID:      cfg.ClientID,
		ClientSecret:  cfg.ClientSecret,
		Logger:        app.logger,
		RevokeTimeout: cfg.RevokeTimeout,
		OnNonRecoverableError: func() {
			app.signInRequired.Store(true)
		},
	})
	if err != nil {
		return nil, err
	}
	app.manager = manager

	return app, nil
}

// Close waits for background work and releases the keychain.
func (a *App) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.RevokeTimeout)
	defer cancel()

	if err := a.manager.Wait(ctx); err != nil {
		a.logger.Warn("background_work_abandoned", "err", err)
	}

	if a.closer != nil {
		return a.closer.Close()
	}
	return nil
}

// Run executes the command named by args[0].
func (a *App) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		a.usage()
		return errUsage
	}

	ctx = slogx.WithContext(ctx, a.logger)

	var err error
	switch args[0] {
	case "login":
		err = a.login(ctx, args[1:])
	case "logout":
		err = a.logout(ctx)
	case "token":
		err = a.token(ctx)
	case "whoami":
		err = a.whoami(ctx)
	case "help", "-h", "--help":
		a.usage()
		return nil
	default:
		a.usage()
		return fmt.Errorf("%w: unknown command %q", errUsage, args[0])
	}

	if err != nil && a.signInRequired.Load() {
		fmt.Fprintln(a.stderr, "Run 'duckauth login' to sign in.")
	}
	return err
}

var errUsage = errors.New("usage")

// IsUsageError reports whether err came from bad command line arguments.
func IsUsageError(err error) bool {
	return errors.Is(err, errUsage)
}

func (a *App) usage() {
	fmt.Fprint(a.stderr, `Usage: duckauth <command> [flags]

Commands:
  login    sign in and store the session
  logout   end the session and revoke it on the server
  token    print a valid access token, refreshing it if needed
  whoami   show the signed in user
`)
}
