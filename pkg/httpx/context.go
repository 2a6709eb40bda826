package httpx

import (
	"context"

	"github.com/aussiebroadwan/duckauth/pkg/jwtx"
)

type ctxKey string

const (
	CtxKeyUserID ctxKey = "user_id"
	CtxKeyClaims ctxKey = "claims"
)

// ClaimsFromContext returns the verified access token claims injected by
// AuthnMiddleware.
func ClaimsFromContext(ctx context.Context) (jwtx.AccessTokenClaims, bool) {
	c, ok := ctx.Value(CtxKeyClaims).(jwtx.AccessTokenClaims)
	return c, ok
}
