package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aussiebroadwan/duckauth/internal/authserver/service"
	"github.com/aussiebroadwan/duckauth/pkg/httpx"
)

const maxBodyBytes = 64 << 10

var errBadBody = errors.New("invalid request body")

// decodeJSON reads a bounded JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	if ct := r.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "application/json") {
		return errBadBody
	}

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return errBadBody
	}
	return nil
}

// writeServiceError maps service errors onto the wire error codes.
func writeServiceError(w http.ResponseWriter, log *slog.Logger, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidRequest):
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "The request is missing a required field")
	case errors.Is(err, service.ErrInvalidClient):
		w.Header().Set("WWW-Authenticate", `Basic realm="duckauth"`)
		httpx.WriteError(w, http.StatusUnauthorized, "invalid_client", "Client authentication failed")
	case errors.Is(err, service.ErrInvalidCredentials):
		httpx.WriteError(w, http.StatusUnauthorized, "invalid_credentials", "Username or password is incorrect")
	case errors.Is(err, service.ErrInvalidGrant):
		httpx.WriteError(w, http.StatusUnauthorized, "invalid_grant", "The refresh token is invalid, expired or revoked")
	default:
		log.Error("request failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "Internal server error")
	}
}
