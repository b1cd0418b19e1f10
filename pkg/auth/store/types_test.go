package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestExpiryBookkeeping(t *testing.T) {
	t.Parallel()

	issued := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	ctx := &AuthContext{
		AccessToken:      "at",
		RefreshToken:     "rt",
		ExpiresIn:        300,
		RefreshExpiresIn: 1800,
		IssuedAt:         issued,
	}

	assert.Equal(t, issued.Add(5*time.Minute), ctx.ExpiresAt())
	assert.Equal(t, issued.Add(30*time.Minute), ctx.RefreshExpiresAt())
}

func TestAccessTokenValid(t *testing.T) {
	t.Parallel()

	issued := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	ctx := &AuthContext{AccessToken: "at", ExpiresIn: 600, IssuedAt: issued}
	margin := 5 * time.Minute

	tests := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"fresh", issued.Add(1 * time.Minute), true},
		{"inside margin", issued.Add(6 * time.Minute), false},
		{"expired", issued.Add(11 * time.Minute), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ctx.AccessTokenValid(tt.now, margin))
		})
	}

	empty := &AuthContext{ExpiresIn: 600, IssuedAt: issued}
	assert.False(t, empty.AccessTokenValid(issued, margin))
}

func TestRefreshTokenUsable(t *testing.T) {
	t.Parallel()

	issued := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	withWindow := &AuthContext{RefreshToken: "rt", RefreshExpiresIn: 1800, IssuedAt: issued}
	assert.True(t, withWindow.RefreshTokenUsable(issued.Add(10*time.Minute)))
	assert.False(t, withWindow.RefreshTokenUsable(issued.Add(31*time.Minute)))

	// No reported window: assume usable, the provider has the final say.
	noWindow := &AuthContext{RefreshToken: "rt", IssuedAt: issued}
	assert.True(t, noWindow.RefreshTokenUsable(issued.Add(24*time.Hour)))

	absent := &AuthContext{IssuedAt: issued}
	assert.False(t, absent.RefreshTokenUsable(issued))
}
