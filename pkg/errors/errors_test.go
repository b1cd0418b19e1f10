package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorString(t *testing.T) {
	t.Parallel()

	cause := errors.New("connection refused")
	err := NewNetworkError("identity provider unreachable", cause)
	assert.Equal(t, "network: identity provider unreachable: connection refused", err.Error())

	noCause := NewNotAuthenticatedError("no session", nil)
	assert.Equal(t, "not_authenticated: no session", noCause.Error())
}

func TestUnwrap(t *testing.T) {
	t.Parallel()

	cause := errors.New("boom")
	err := NewTimeoutError("login timed out", cause)
	require.ErrorIs(t, err, cause)
}

func TestPredicatesMatchWrappedErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		err   error
		check func(error) bool
	}{
		{"network", NewNetworkError("n", nil), IsNetwork},
		{"provider_rejected", NewProviderRejectedError("p", nil), IsProviderRejected},
		{"port_in_use", NewPortInUseError("p", nil), IsPortInUse},
		{"timeout", NewTimeoutError("t", nil), IsTimeout},
		{"invalid_grant", NewInvalidGrantError("i", nil), IsInvalidGrant},
		{"not_authenticated", NewNotAuthenticatedError("n", nil), IsNotAuthenticated},
		{"login_in_progress", NewLoginInProgressError("l", nil), IsLoginInProgress},
		{"malformed", NewMalformedError("m", nil), IsMalformed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.True(t, tt.check(tt.err))
			// Predicates must see through fmt.Errorf wrapping.
			assert.True(t, tt.check(fmt.Errorf("context: %w", tt.err)))
			assert.False(t, tt.check(errors.New("plain")))
		})
	}
}

func TestPredicatesDoNotCrossMatch(t *testing.T) {
	t.Parallel()

	err := NewInvalidGrantError("refresh token revoked", nil)
	assert.False(t, IsNetwork(err))
	assert.False(t, IsNotAuthenticated(err))
	assert.False(t, IsTimeout(err))
}
