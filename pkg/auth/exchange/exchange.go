// Package exchange performs the two stateless HTTP operations against the
// identity provider's token endpoint: code-for-token and refresh.
//
// The exchanger does not retry. An authorization code can be redeemed
// exactly once, so retries are left to the orchestrator, which only retries
// the idempotent refresh call and only on network-level failures.
package exchange

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	kautherr "github.com/kauth-dev/kauth/pkg/errors"
	"github.com/kauth-dev/kauth/pkg/logger"
)

// TokenResponse mirrors the provider's token endpoint JSON, including the
// Keycloak-specific refresh_expires_in field.
type TokenResponse struct {
	AccessToken      string
	RefreshToken     string
	IDToken          string
	TokenType        string
	ExpiresIn        int64
	RefreshExpiresIn int64
	Scope            string
}

// Exchanger wraps an oauth2.Config for a single client/realm pair.
type Exchanger struct {
	config *oauth2.Config
}

// New creates an Exchanger for the given OAuth2 client configuration.
func New(config *oauth2.Config) *Exchanger {
	return &Exchanger{config: config}
}

// ExchangeCode redeems an authorization code together with its PKCE
// verifier. The code is sent exactly once; any failure is classified and
// returned without retrying.
func (e *Exchanger) ExchangeCode(ctx context.Context, code, codeVerifier string) (*TokenResponse, error) {
	token, err := e.config.Exchange(ctx, code,
		oauth2.SetAuthURLParam("code_verifier", codeVerifier),
	)
	if err != nil {
		return nil, classify(err, "code exchange")
	}
	return fromToken(token)
}

// Refresh exchanges a refresh token for a new token set. An invalid_grant
// result means the refresh token itself is dead and the caller needs a
// fresh interactive login.
func (e *Exchanger) Refresh(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	ts := e.config.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	token, err := ts.Token()
	if err != nil {
		return nil, classify(err, "token refresh")
	}
	return fromToken(token)
}

// classify maps transport and provider failures onto the typed error
// taxonomy. Provider error bodies are not echoed into the message; the raw
// code is enough to act on and bodies may carry tokens.
func classify(err error, op string) error {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		switch retrieveErr.ErrorCode {
		case "invalid_grant":
			return kautherr.NewInvalidGrantError(
				fmt.Sprintf("%s rejected: grant is expired or revoked, log in again", op), err)
		case "":
			logger.Debugf("%s returned HTTP %d without an OAuth2 error body", op, retrieveErr.Response.StatusCode)
			return kautherr.NewMalformedError(
				fmt.Sprintf("%s returned HTTP %d with an unrecognized body", op, retrieveErr.Response.StatusCode), err)
		default:
			return kautherr.NewProviderRejectedError(
				fmt.Sprintf("%s rejected by provider: %s", op, retrieveErr.ErrorCode), err)
		}
	}

	var urlErr *url.Error
	var netErr net.Error
	if errors.As(err, &urlErr) || errors.As(err, &netErr) {
		return kautherr.NewNetworkError(
			fmt.Sprintf("%s failed: identity provider unreachable", op), err)
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return kautherr.NewNetworkError(fmt.Sprintf("%s aborted", op), err)
	}

	// Remaining oauth2 errors are response-shape problems (unparseable JSON,
	// missing access_token) rather than transport or provider rejections.
	if strings.HasPrefix(err.Error(), "oauth2:") {
		return kautherr.NewMalformedError(fmt.Sprintf("%s returned an unexpected response", op), err)
	}

	return kautherr.NewInternalError(fmt.Sprintf("%s failed", op), err)
}

// fromToken converts the oauth2 token and its extra fields into a
// TokenResponse, validating the shape the engine depends on.
func fromToken(token *oauth2.Token) (*TokenResponse, error) {
	if token.AccessToken == "" {
		return nil, kautherr.NewMalformedError("token response is missing access_token", nil)
	}

	resp := &TokenResponse{
		AccessToken:      token.AccessToken,
		RefreshToken:     token.RefreshToken,
		TokenType:        token.TokenType,
		ExpiresIn:        token.ExpiresIn,
		RefreshExpiresIn: extraInt64(token, "refresh_expires_in"),
	}
	if resp.TokenType == "" {
		resp.TokenType = "Bearer"
	}
	if resp.ExpiresIn == 0 && !token.Expiry.IsZero() {
		resp.ExpiresIn = int64(time.Until(token.Expiry).Seconds())
	}
	if idToken, ok := token.Extra("id_token").(string); ok {
		resp.IDToken = idToken
	}
	if scope, ok := token.Extra("scope").(string); ok {
		resp.Scope = scope
	}
	return resp, nil
}

// extraInt64 reads a numeric extra field, which the JSON decoder may have
// produced as a float.
func extraInt64(token *oauth2.Token, key string) int64 {
	switch v := token.Extra(key).(type) {
	case float64:
		return int64(v)
	case int64:
		return v
	case int:
		return int64(v)
	default:
		return 0
	}
}
