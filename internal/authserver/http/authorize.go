package http

import (
	"net/http"

	"github.com/aussiebroadwan/duckauth/internal/authserver/service"
	"github.com/aussiebroadwan/duckauth/pkg/duckauth"
	"github.com/aussiebroadwan/duckauth/pkg/httpx"
	"github.com/aussiebroadwan/duckauth/pkg/slogx"
)

// AuthorizeHandler serves POST /auth/authorize.
type AuthorizeHandler struct {
	TokenService *service.TokenService
}

// ServeHTTP godoc
//
//	@Summary		Sign In
//	@Description	Exchanges a username and password for a new access and refresh token pair.
//	@Description	The client identifies itself with HTTP Basic credentials and reports the device signing in.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Security		ClientBasic
//	@Param			body	body		duckauth.AuthorizeRequest	true	"Credentials and device"
//	@Success		200		{object}	duckauth.TokenPair			"accessToken, refreshToken"
//	@Failure		400		{object}	duckauth.ErrorResponse		"error, error_description"
//	@Failure		401		{object}	duckauth.ErrorResponse		"error, error_description"
//	@Failure		429		{object}	duckauth.ErrorResponse		"error, error_description"
//	@Failure		500		{object}	duckauth.ErrorResponse		"error, error_description"
//	@Header			200		{string}	Cache-Control				"no-store"
//	@Router			/auth/authorize [post].
func (h *AuthorizeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	clientID, clientSecret, err := httpx.ClientCredentials(r)
	if err != nil {
		writeServiceError(w, log, service.ErrInvalidClient)
		return
	}

	var req duckauth.AuthorizeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	pair, err := h.TokenService.Authorize(ctx, clientID, clientSecret, req)
	if err != nil {
		writeServiceError(w, log, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, pair)
}
