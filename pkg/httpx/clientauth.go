package httpx

import (
	"encoding/base64"
	"errors"
	"net/http"
	"strings"
)

// ErrNoClientAuth is returned when a request carries no usable client
// credentials.
var ErrNoClientAuth = errors.New("httpx: missing client authorization")

// ClientCredentials extracts the client id and secret from the Authorization
// header. Both "Basic <b64>" and a bare "<b64>" value are accepted because
// older clients sent the encoded pair without a scheme.
func ClientCredentials(r *http.Request) (id, secret string, err error) {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if raw == "" {
		return "", "", ErrNoClientAuth
	}
	if scheme, rest, ok := strings.Cut(raw, " "); ok {
		if !strings.EqualFold(scheme, "Basic") {
			return "", "", ErrNoClientAuth
		}
		raw = strings.TrimSpace(rest)
	}

	decoded, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return "", "", ErrNoClientAuth
	}

	id, secret, ok := strings.Cut(string(decoded), ":")
	if !ok || id == "" {
		return "", "", ErrNoClientAuth
	}
	return id, secret, nil
}
