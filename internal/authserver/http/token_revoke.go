package http

import (
	"net/http"

	"github.com/aussiebroadwan/duckauth/internal/authserver/service"
	"github.com/aussiebroadwan/duckauth/pkg/duckauth"
	"github.com/aussiebroadwan/duckauth/pkg/httpx"
	"github.com/aussiebroadwan/duckauth/pkg/slogx"
)

// RevokeHandler serves POST /auth/token/revoke. Any well formed request gets
// 200 OK, including unknown or already revoked tokens, so the endpoint can't
// be used to probe for valid tokens.
type RevokeHandler struct {
	TokenService *service.TokenService
}

// ServeHTTP godoc
//
//	@Summary		Revoke Session
//	@Description	Revokes the session a refresh token belongs to.
//	@Description	Idempotent, returns 200 OK even for invalid or unknown tokens.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Security		ClientBasic
//	@Param			body	body	duckauth.RefreshTokenRequest	true	"Refresh token"
//	@Success		200		"Session revoked (or was already invalid)"
//	@Failure		400		{object}	duckauth.ErrorResponse	"error, error_description"
//	@Header			200		{string}	Cache-Control			"no-store"
//	@Router			/auth/token/revoke [post].
func (h *RevokeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req duckauth.RefreshTokenRequest
	if err := decodeJSON(w, r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	clientID, clientSecret, err := httpx.ClientCredentials(r)
	if err == nil {
		err = h.TokenService.Revoke(ctx, clientID, clientSecret, req.RefreshToken)
	}
	if err != nil {
		log.Warn("revoke refresh failed", "err", err)
	}

	httpx.NoCache(w)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("{}"))
}
