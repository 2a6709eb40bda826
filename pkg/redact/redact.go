// Package redact keeps credentials out of log output while leaving enough
// context to correlate entries.
package redact

import "github.com/aussiebroadwan/duckauth/pkg/cryptox"

const (
	tokenPlaceholder    = "[REDACTED_TOKEN]"
	passwordPlaceholder = "[REDACTED_PASSWORD]"
	fingerprintLen      = 8
)

// Username masks all but the first two runes of a username.
//
//	"alice" -> "al***"
//	"ab"    -> "***"
func Username(s string) string {
	r := []rune(s)
	if len(r) <= 2 {
		return "***"
	}
	return string(r[:2]) + "***"
}

// Token returns a placeholder for a token value.
func Token() string { return tokenPlaceholder }

// Password returns a placeholder for a password value.
func Password() string { return passwordPlaceholder }

// Fingerprint returns a short, stable identifier for a token that is safe to
// log. Equal tokens give equal fingerprints. Empty input gives "".
func Fingerprint(token string) string {
	if token == "" {
		return ""
	}
	return cryptox.Fingerprint(token)[:fingerprintLen]
}
