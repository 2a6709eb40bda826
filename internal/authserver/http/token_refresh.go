package http

import (
	"net/http"

	"github.com/aussiebroadwan/duckauth/internal/authserver/service"
	"github.com/aussiebroadwan/duckauth/pkg/duckauth"
	"github.com/aussiebroadwan/duckauth/pkg/httpx"
	"github.com/aussiebroadwan/duckauth/pkg/slogx"
)

// RefreshHandler serves POST /auth/token/refresh. The presented refresh token
// is rotated, so each one is good for exactly one successful call.
type RefreshHandler struct {
	TokenService *service.TokenService
}

// ServeHTTP godoc
//
//	@Summary		Refresh Tokens
//	@Description	Rotates a refresh token and returns a new token pair in the same session.
//	@Description	Replaying a refresh token that was already rotated revokes the whole session.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Security		ClientBasic
//	@Param			body	body		duckauth.RefreshTokenRequest	true	"Refresh token"
//	@Success		200		{object}	duckauth.TokenPair				"accessToken, refreshToken"
//	@Failure		400		{object}	duckauth.ErrorResponse			"error, error_description"
//	@Failure		401		{object}	duckauth.ErrorResponse			"error, error_description"
//	@Failure		429		{object}	duckauth.ErrorResponse			"error, error_description"
//	@Failure		500		{object}	duckauth.ErrorResponse			"error, error_description"
//	@Header			200		{string}	Cache-Control					"no-store"
//	@Router			/auth/token/refresh [post].
func (h *RefreshHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	clientID, clientSecret, err := httpx.ClientCredentials(r)
	if err != nil {
		writeServiceError(w, log, service.ErrInvalidClient)
		return
	}

	var req duckauth.RefreshTokenRequest
	if err := decodeJSON(w, r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	pair, err := h.TokenService.Refresh(ctx, clientID, clientSecret, req.RefreshToken)
	if err != nil {
		writeServiceError(w, log, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, pair)
}
