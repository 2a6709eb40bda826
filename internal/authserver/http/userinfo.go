package http

import (
	"net/http"

	"github.com/aussiebroadwan/duckauth/pkg/httpx"
)

// UserInfoHandler godoc
//
//	@Summary		Current User
//	@Description	Returns the verified claims of the bearer access token.
//	@Tags			Auth
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	jwtx.AccessTokenClaims	"userId, username, roles, exp, iat, aud"
//	@Failure		401	"Missing, invalid or expired access token"
//	@Router			/auth/userinfo [get].
func UserInfoHandler(w http.ResponseWriter, r *http.Request) {
	claims, ok := httpx.ClaimsFromContext(r.Context())
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, claims)
}
