// Package pkce generates Proof Key for Code Exchange parameters (RFC 7636).
package pkce

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

// Method is the only challenge transformation kauth offers. Plain is
// deliberately unsupported.
const Method = "S256"

// Pair holds the ephemeral verifier/challenge for one login attempt.
// It is never persisted.
type Pair struct {
	Verifier  string
	Challenge string
}

// Generate creates a new PKCE pair from 32 bytes of cryptographically
// secure randomness. The base64url verifier is 43 characters, within the
// 43-128 range required by RFC 7636, and uses only unreserved characters.
func Generate() (*Pair, error) {
	verifierBytes := make([]byte, 32)
	if _, err := rand.Read(verifierBytes); err != nil {
		return nil, fmt.Errorf("failed to generate code verifier: %w", err)
	}
	verifier := base64.RawURLEncoding.EncodeToString(verifierBytes)

	hash := sha256.Sum256([]byte(verifier))
	challenge := base64.RawURLEncoding.EncodeToString(hash[:])

	return &Pair{
		Verifier:  verifier,
		Challenge: challenge,
	}, nil
}
