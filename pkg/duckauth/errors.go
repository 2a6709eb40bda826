package duckauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/aussiebroadwan/duckauth/pkg/jwtx"
)

var (
	// ErrNotSignedIn means there is no usable session. The user must log in.
	ErrNotSignedIn = errors.New("duckauth: not signed in")

	// ErrSessionEnded is returned by a refresh that completed after the
	// session it belonged to was logged out and no new session was stored.
	// It matches ErrNotSignedIn.
	ErrSessionEnded = fmt.Errorf("%w: session ended during refresh", ErrNotSignedIn)

	// ErrInvalidCredentials is returned when the server rejects a login.
	ErrInvalidCredentials = errors.New("duckauth: invalid credentials")

	// ErrRefreshUnauthorized is returned when the server answers a refresh
	// with 401. The session has been cleared.
	ErrRefreshUnauthorized = errors.New("duckauth: refresh token rejected")

	// ErrRefreshSuperseded is returned when the stored session moved on while
	// a refresh ran, either rotated elsewhere or replaced by a login, and the
	// newer pair is not usable as is. Retrying picks it up.
	ErrRefreshSuperseded = errors.New("duckauth: refresh superseded")

	// ErrNetwork wraps transport failures.
	ErrNetwork = errors.New("duckauth: network error")

	// ErrServer covers unexpected status codes and malformed responses.
	ErrServer = errors.New("duckauth: server error")

	// ErrRateLimited is returned for 429 responses.
	ErrRateLimited = errors.New("duckauth: rate limited")

	// ErrStorageCorrupt is returned when the stored pair cannot be decoded.
	ErrStorageCorrupt = errors.New("duckauth: stored tokens are corrupt")

	// ErrStorageRead is returned when the secret store cannot be read.
	ErrStorageRead = errors.New("duckauth: token storage read failed")

	// ErrStorageWriteFailed is returned when tokens cannot be written or
	// cleared.
	ErrStorageWriteFailed = errors.New("duckauth: token storage write failed")
)

// StatusError is a non-2xx response from the auth service.
type StatusError struct {
	StatusCode  int
	Code        string
	Description string
}

func (e *StatusError) Error() string {
	if e.Description == "" {
		return fmt.Sprintf("http %d: %s", e.StatusCode, e.Code)
	}
	return fmt.Sprintf("http %d: %s: %s", e.StatusCode, e.Code, e.Description)
}

// IsUnauthorized reports whether err carries an HTTP 401 response.
func IsUnauthorized(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == http.StatusUnauthorized
}

// IsRecoverable reports whether the caller may retry the operation without
// the user signing in again.
func IsRecoverable(err error) bool {
	switch {
	case err == nil:
		return true
	case errors.Is(err, ErrNotSignedIn),
		errors.Is(err, ErrRefreshUnauthorized),
		errors.Is(err, ErrStorageCorrupt),
		errors.Is(err, jwtx.ErrMalformed),
		errors.Is(err, jwtx.ErrPayloadDecode):
		return false
	case errors.Is(err, ErrNetwork),
		errors.Is(err, ErrServer),
		errors.Is(err, ErrRateLimited),
		errors.Is(err, ErrInvalidCredentials),
		errors.Is(err, ErrRefreshSuperseded),
		errors.Is(err, ErrStorageRead),
		errors.Is(err, ErrStorageWriteFailed),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return true
	default:
		return false
	}
}

// parseErrorResponse builds a StatusError from a response body, falling back
// to the status text when the body is not the JSON error shape.
func parseErrorResponse(status int, body []byte) *StatusError {
	var resp ErrorResponse
	if err := json.Unmarshal(body, &resp); err == nil && resp.Error != "" {
		return &StatusError{StatusCode: status, Code: resp.Error, Description: resp.ErrorDescription}
	}

	return &StatusError{
		StatusCode:  status,
		Code:        "http_error",
		Description: http.StatusText(status),
	}
}

// classifyLogin maps a login failure onto the error taxonomy.
func classifyLogin(err error) error {
	var se *StatusError
	if !errors.As(err, &se) {
		return err
	}

	switch {
	case se.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %w", ErrRateLimited, err)
	case se.StatusCode >= 400 && se.StatusCode < 500:
		return fmt.Errorf("%w: %w", ErrInvalidCredentials, err)
	default:
		return fmt.Errorf("%w: %w", ErrServer, err)
	}
}

// classifyRefresh maps a non-401 refresh failure onto the error taxonomy.
// 401 is handled by the caller because it ends the session.
func classifyRefresh(err error) error {
	var se *StatusError
	if !errors.As(err, &se) {
		return err
	}

	if se.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("%w: %w", ErrRateLimited, err)
	}
	return fmt.Errorf("%w: %w", ErrServer, err)
}
