package pkce

import (
	"crypto/sha256"
	"encoding/base64"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RFC 7636 unreserved character set for code verifiers.
var verifierCharset = regexp.MustCompile(`^[A-Za-z0-9\-._~]+$`)

func TestGenerate(t *testing.T) {
	t.Parallel()

	pair, err := Generate()
	require.NoError(t, err)

	assert.GreaterOrEqual(t, len(pair.Verifier), 43)
	assert.LessOrEqual(t, len(pair.Verifier), 128)
	assert.Regexp(t, verifierCharset, pair.Verifier)

	// challenge = base64url_nopad(sha256(verifier))
	hash := sha256.Sum256([]byte(pair.Verifier))
	assert.Equal(t, base64.RawURLEncoding.EncodeToString(hash[:]), pair.Challenge)
	assert.NotContains(t, pair.Challenge, "=")
}

func TestGenerateIsRandom(t *testing.T) {
	t.Parallel()

	seen := make(map[string]bool)
	for i := 0; i < 32; i++ {
		pair, err := Generate()
		require.NoError(t, err)
		assert.False(t, seen[pair.Verifier], "verifier repeated")
		seen[pair.Verifier] = true
	}
}
