package jwtx

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Default token TTL constants used by the development auth server.
const (
	// DefaultAccessTokenTTL is the default lifetime for access tokens.
	DefaultAccessTokenTTL = 15 * time.Minute

	// DefaultRefreshTokenTTL is the default lifetime for refresh tokens.
	DefaultRefreshTokenTTL = 30 * 24 * time.Hour
)

// AccessTokenClaims is the payload carried by DuckAuth access tokens.
//
// Only Exp drives lifecycle decisions on the client, everything else is
// passed through to the application layer untouched.
type AccessTokenClaims struct {
	UserID   string   `json:"userId"`
	Username string   `json:"username"`
	Roles    []string `json:"roles"`
	Exp      int64    `json:"exp"` // unix seconds
	Iat      int64    `json:"iat"` // unix seconds

	// Audience is optional and single-valued.
	Aud string `json:"aud,omitempty"`
}

// NewAccessClaims builds claims for a token issued at now and valid for ttl.
func NewAccessClaims(
	userID, username string,
	roles []string,
	audience string,
	ttl time.Duration,
	now time.Time,
) AccessTokenClaims {
	if roles == nil {
		roles = []string{}
	}

	return AccessTokenClaims{
		UserID:   userID,
		Username: username,
		Roles:    roles,
		Exp:      now.Add(ttl).Unix(),
		Iat:      now.Unix(),
		Aud:      audience,
	}
}

// ExpiresIn returns the whole seconds remaining until exp, relative to now.
// A negative value means the token has already expired.
func (c AccessTokenClaims) ExpiresIn(now time.Time) int64 {
	return c.Exp - now.Unix()
}

// ExpiresAt returns exp as a UTC time.
func (c AccessTokenClaims) ExpiresAt() time.Time {
	return time.Unix(c.Exp, 0).UTC()
}

// IssuedAt returns iat as a UTC time.
func (c AccessTokenClaims) IssuedAt() time.Time {
	return time.Unix(c.Iat, 0).UTC()
}

// HasRole reports whether role is present in the roles claim.
func (c AccessTokenClaims) HasRole(role string) bool {
	for _, r := range c.Roles {
		if r == role {
			return true
		}
	}
	return false
}

/* jwt.Claims implementation, lets the signer hand these claims to golang-jwt */

func (c AccessTokenClaims) GetExpirationTime() (*jwt.NumericDate, error) {
	if c.Exp == 0 {
		return nil, nil
	}
	return jwt.NewNumericDate(time.Unix(c.Exp, 0)), nil
}

func (c AccessTokenClaims) GetIssuedAt() (*jwt.NumericDate, error) {
	if c.Iat == 0 {
		return nil, nil
	}
	return jwt.NewNumericDate(time.Unix(c.Iat, 0)), nil
}

func (c AccessTokenClaims) GetNotBefore() (*jwt.NumericDate, error) { return nil, nil }
func (c AccessTokenClaims) GetIssuer() (string, error)              { return "", nil }
func (c AccessTokenClaims) GetSubject() (string, error)             { return c.UserID, nil }

func (c AccessTokenClaims) GetAudience() (jwt.ClaimStrings, error) {
	if c.Aud == "" {
		return nil, nil
	}
	return jwt.ClaimStrings{c.Aud}, nil
}
