/*
Package duckauth manages the lifecycle of a user's access and refresh tokens.

# Overview

A Manager signs a user in against the auth service, persists the issued
TokenPair in a keychain.SecretStore and hands out valid tokens on demand.
When the stored access token has expired, CurrentTokens refreshes it. Many
goroutines may discover the expiry at the same moment, so refreshes are
collapsed per refresh token value: only one refresh request is in flight for
a given token and every waiting caller receives the same pair or the same
error.

	m, err := duckauth.New(duckauth.Options{
		Transport:    duckauth.NewHTTPTransport("https://api.example.com", nil),
		Secrets:      keychain.NewMemoryStore(),
		ClientID:     "mobile",
		ClientSecret: secret,
		OnNonRecoverableError: func() {
			// route the user back to the login screen
		},
	})

	if err := m.Login(ctx, username, password); err != nil {
		// errors.Is(err, duckauth.ErrInvalidCredentials) ...
	}

	pair, err := m.CurrentTokens(ctx)

# Failure classification

Errors are matched with errors.Is against the sentinels in this package.
A 401 from the refresh endpoint means the refresh token is dead: the stored
pair is cleared and OnNonRecoverableError fires. Network failures, 5xx
responses and rate limiting leave the stored pair untouched so a later call
can retry. IsRecoverable groups the sentinels for UI layers.

# Sessions and generations

Login and Logout bump a session generation. A refresh that completes after
the session it started in has ended is discarded, its freshly issued refresh
token is revoked in the background and the caller receives ErrSessionEnded.
A late refresh therefore never revives a session the user ended.

Access tokens are decoded without verifying their signature. The server
verifies every token it receives, the client only reads exp.
*/
package duckauth
