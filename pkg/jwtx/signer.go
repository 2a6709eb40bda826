package jwtx

import (
	"crypto/ed25519"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Signer mints access tokens. Only the development auth server signs,
// clients just decode.
type Signer interface {
	KID() string
	Sign(AccessTokenClaims) (string, error)
}

// EdDSASigner signs access tokens with an Ed25519 key.
type EdDSASigner struct {
	kid string
	key ed25519.PrivateKey
}

var _ Signer = (*EdDSASigner)(nil)

// NewSignerEdDSA parses a PKCS8 PEM encoded Ed25519 private key. kid is put
// in the header of every token.
func NewSignerEdDSA(kid string, pemKey []byte) (*EdDSASigner, error) {
	if kid == "" {
		return nil, errors.New("jwtx: key id is required")
	}

	block, _ := pem.Decode(pemKey)
	if block == nil || block.Type != "PRIVATE KEY" {
		return nil, errors.New("jwtx: expected a PKCS8 PRIVATE KEY PEM block")
	}

	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("jwtx: parse PKCS8: %w", err)
	}

	key, ok := parsed.(ed25519.PrivateKey)
	if !ok || len(key) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("jwtx: %T is not an Ed25519 private key", parsed)
	}

	return &EdDSASigner{kid: kid, key: key}, nil
}

func (s *EdDSASigner) KID() string { return s.kid }

// PublicKey returns the key tokens are verified with.
func (s *EdDSASigner) PublicKey() ed25519.PublicKey {
	return s.key.Public().(ed25519.PublicKey)
}

// Verifier returns a verifier accepting this signer's tokens for audience.
func (s *EdDSASigner) Verifier(audience string) *EdDSAVerifier {
	return NewVerifierEdDSA(s.kid, s.PublicKey(), audience)
}

// Sign returns the claims as a compact EdDSA JWT with a kid header.
func (s *EdDSASigner) Sign(claims AccessTokenClaims) (string, error) {
	tok := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	tok.Header["kid"] = s.kid

	signed, err := tok.SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("jwtx: sign: %w", err)
	}
	return signed, nil
}
