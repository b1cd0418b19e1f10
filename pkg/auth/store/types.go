// Package store persists the authentication context between CLI invocations.
package store

import (
	"time"
)

// AuthContext is the persisted session record. Exactly one context exists at
// a time; a new login fully replaces it.
//
// Expiry windows are stored as captured from the provider (seconds from
// issuance) together with the issuance timestamp, so absolute expiry can be
// computed across process restarts.
type AuthContext struct {
	Realm            string    `json:"realm"`
	IssuerURL        string    `json:"issuer_url"`
	AccessToken      string    `json:"access_token"`
	RefreshToken     string    `json:"refresh_token,omitempty"`
	IDToken          string    `json:"id_token,omitempty"`
	TokenType        string    `json:"token_type"`
	ExpiresIn        int64     `json:"expires_in"`
	RefreshExpiresIn int64     `json:"refresh_expires_in,omitempty"`
	Scope            string    `json:"scope,omitempty"`
	IssuedAt         time.Time `json:"issued_at"`
}

// ExpiresAt returns the absolute access token expiry.
func (c *AuthContext) ExpiresAt() time.Time {
	return c.IssuedAt.Add(time.Duration(c.ExpiresIn) * time.Second)
}

// RefreshExpiresAt returns the absolute refresh token expiry, or the zero
// time when the provider did not report a refresh window.
func (c *AuthContext) RefreshExpiresAt() time.Time {
	if c.RefreshExpiresIn == 0 {
		return time.Time{}
	}
	return c.IssuedAt.Add(time.Duration(c.RefreshExpiresIn) * time.Second)
}

// AccessTokenValid reports whether the access token is still usable at the
// given instant, keeping a safety margin before the real expiry.
func (c *AuthContext) AccessTokenValid(now time.Time, margin time.Duration) bool {
	if c.AccessToken == "" {
		return false
	}
	return now.Add(margin).Before(c.ExpiresAt())
}

// RefreshTokenUsable reports whether a refresh token is present and, by its
// own window, still valid.
func (c *AuthContext) RefreshTokenUsable(now time.Time) bool {
	if c.RefreshToken == "" {
		return false
	}
	refreshExpiry := c.RefreshExpiresAt()
	if refreshExpiry.IsZero() {
		// No window reported; assume usable and let the provider decide.
		return true
	}
	return now.Before(refreshExpiry)
}

// Store is the persistence boundary for the single authentication context.
//
// Load returns (nil, nil) when no context exists; missing, empty, or
// malformed storage is "not logged in", never a fatal error. Save fully
// replaces the previous context. Clear is idempotent.
//
// The store is last-writer-wins across concurrent CLI invocations; it is a
// best-effort single-user local store, not a linearizable one.
type Store interface {
	Load() (*AuthContext, error)
	Save(ctx *AuthContext) error
	Clear() error
}
