package jwtx

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMalformed is returned when a token does not have exactly three segments.
	ErrMalformed = errors.New("jwtx: malformed token")

	// ErrPayloadDecode is returned when the payload segment is not valid
	// base64url, is not a JSON object or lacks a required claim.
	ErrPayloadDecode = errors.New("jwtx: payload decode failure")
)

// DecodePayload decodes the payload of a compact JWT into AccessTokenClaims.
//
// The signature is NOT verified. The server verifies every token it receives,
// the client only needs exp to decide when to refresh. userId, username,
// roles, exp and iat must all be present and non-null; aud is optional.
func DecodePayload(token string) (AccessTokenClaims, error) {
	segments := strings.Split(token, ".")
	if len(segments) != 3 {
		return AccessTokenClaims{}, fmt.Errorf("%w: expected 3 segments, got %d", ErrMalformed, len(segments))
	}

	raw, err := decodeSegment(segments[1])
	if err != nil {
		return AccessTokenClaims{}, fmt.Errorf("%w: %w", ErrPayloadDecode, err)
	}

	// A JSON null would unmarshal into the zero value without complaint.
	if len(raw) == 0 || raw[0] != '{' {
		return AccessTokenClaims{}, fmt.Errorf("%w: payload is not a JSON object", ErrPayloadDecode)
	}

	var p payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return AccessTokenClaims{}, fmt.Errorf("%w: %w", ErrPayloadDecode, err)
	}
	return p.claims()
}

// payload mirrors AccessTokenClaims with the required claims as pointers, so
// an absent or null claim is told apart from a zero value.
type payload struct {
	UserID   *string   `json:"userId"`
	Username *string   `json:"username"`
	Roles    *[]string `json:"roles"`
	Exp      *int64    `json:"exp"`
	Iat      *int64    `json:"iat"`
	Aud      string    `json:"aud"`
}

func (p payload) claims() (AccessTokenClaims, error) {
	var missing []string
	if p.UserID == nil {
		missing = append(missing, "userId")
	}
	if p.Username == nil {
		missing = append(missing, "username")
	}
	if p.Roles == nil {
		missing = append(missing, "roles")
	}
	if p.Exp == nil {
		missing = append(missing, "exp")
	}
	if p.Iat == nil {
		missing = append(missing, "iat")
	}
	if len(missing) > 0 {
		return AccessTokenClaims{}, fmt.Errorf("%w: missing claims %s", ErrPayloadDecode, strings.Join(missing, ", "))
	}

	return AccessTokenClaims{
		UserID:   *p.UserID,
		Username: *p.Username,
		Roles:    *p.Roles,
		Exp:      *p.Exp,
		Iat:      *p.Iat,
		Aud:      p.Aud,
	}, nil
}

// decodeSegment maps the base64url alphabet onto standard base64, restores
// any stripped padding and decodes.
func decodeSegment(seg string) ([]byte, error) {
	s := strings.NewReplacer("-", "+", "_", "/").Replace(seg)
	if rem := len(s) % 4; rem != 0 {
		s += strings.Repeat("=", 4-rem)
	}
	return base64.StdEncoding.DecodeString(s)
}
