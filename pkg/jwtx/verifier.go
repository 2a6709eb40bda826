package jwtx

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Verifier validates a JWT and gives you back the claims if it's legit.
type Verifier interface {
	Verify(token string) (AccessTokenClaims, error)
}

var (
	ErrUnknownKID = errors.New("jwtx: unknown kid")
	ErrInvalidSig = errors.New("jwtx: invalid signature")
	ErrAudience   = errors.New("jwtx: audience mismatch")
	ErrExpired    = errors.New("jwtx: token expired")
)

// EdDSAVerifier validates tokens minted by an EdDSASigner.
type EdDSAVerifier struct {
	kid      string
	pub      ed25519.PublicKey
	audience string
	leeway   time.Duration
	now      func() time.Time
}

// NewVerifierEdDSA creates a verifier for a single Ed25519 key. An empty
// audience disables the aud check.
func NewVerifierEdDSA(kid string, pub ed25519.PublicKey, audience string) *EdDSAVerifier {
	return &EdDSAVerifier{kid: kid, pub: pub, audience: audience, now: time.Now}
}

// WithLeeway allows small clock skew when validating exp.
func (v *EdDSAVerifier) WithLeeway(d time.Duration) *EdDSAVerifier {
	v.leeway = d
	return v
}

// WithClock swaps the time source, used by tests.
func (v *EdDSAVerifier) WithClock(now func() time.Time) *EdDSAVerifier {
	v.now = now
	return v
}

// Verify checks the signature, kid, exp and aud and returns the claims.
func (v *EdDSAVerifier) Verify(tokenStr string) (AccessTokenClaims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodEdDSA.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(v.leeway),
		jwt.WithTimeFunc(v.now),
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}

	var claims AccessTokenClaims
	_, err := jwt.NewParser(opts...).ParseWithClaims(tokenStr, &claims, func(t *jwt.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		if kid != v.kid {
			return nil, fmt.Errorf("%w: %q", ErrUnknownKID, kid)
		}
		return v.pub, nil
	})

	switch {
	case err == nil:
		return claims, nil
	case errors.Is(err, jwt.ErrTokenMalformed):
		return AccessTokenClaims{}, fmt.Errorf("%w: %w", ErrMalformed, err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return AccessTokenClaims{}, ErrExpired
	case errors.Is(err, jwt.ErrTokenInvalidAudience):
		return AccessTokenClaims{}, ErrAudience
	case errors.Is(err, ErrUnknownKID):
		return AccessTokenClaims{}, err
	default:
		return AccessTokenClaims{}, fmt.Errorf("%w: %w", ErrInvalidSig, err)
	}
}
