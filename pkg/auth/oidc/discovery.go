// Package oidc resolves a realm's OAuth2 endpoints from the issuer's
// OIDC discovery document.
package oidc

import (
	"context"
	"errors"
	"net/url"
	"strings"

	gooidc "github.com/coreos/go-oidc/v3/oidc"

	kautherr "github.com/kauth-dev/kauth/pkg/errors"
)

// Endpoints is the subset of the discovery document the login flow needs.
type Endpoints struct {
	Issuer       string
	AuthURL      string
	TokenURL     string
	UserInfoURL  string
	SupportsS256 bool
}

// Discover fetches and validates the issuer's well-known configuration.
// The issuer for a Keycloak realm is <server>/realms/<realm>; go-oidc
// verifies that the document's issuer matches.
func Discover(ctx context.Context, issuer string) (*Endpoints, error) {
	if err := validateIssuerURL(issuer); err != nil {
		return nil, err
	}

	provider, err := gooidc.NewProvider(ctx, issuer)
	if err != nil {
		var urlErr *url.Error
		if errors.As(err, &urlErr) {
			return nil, kautherr.NewNetworkError("identity provider unreachable, check the server URL and realm", err)
		}
		return nil, kautherr.NewMalformedError("issuer returned an invalid discovery document", err)
	}

	var extra struct {
		UserinfoEndpoint              string   `json:"userinfo_endpoint"`
		CodeChallengeMethodsSupported []string `json:"code_challenge_methods_supported"`
	}
	if err := provider.Claims(&extra); err != nil {
		return nil, kautherr.NewMalformedError("issuer returned an invalid discovery document", err)
	}

	endpoint := provider.Endpoint()
	return &Endpoints{
		Issuer:       issuer,
		AuthURL:      endpoint.AuthURL,
		TokenURL:     endpoint.TokenURL,
		UserInfoURL:  extra.UserinfoEndpoint,
		SupportsS256: supportsS256(extra.CodeChallengeMethodsSupported),
	}, nil
}

func supportsS256(methods []string) bool {
	for _, m := range methods {
		if m == "S256" {
			return true
		}
	}
	return false
}

// validateIssuerURL requires HTTPS except for localhost development setups.
func validateIssuerURL(issuer string) error {
	u, err := url.Parse(issuer)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return kautherr.NewInternalError("issuer is not a well-formed URL: "+issuer, err)
	}
	if u.Scheme != "https" && !isLocalhost(u.Host) {
		return kautherr.NewInternalError("issuer must use HTTPS: "+issuer, nil)
	}
	return nil
}

// isLocalhost checks if a host is localhost (for development)
func isLocalhost(host string) bool {
	return strings.HasPrefix(host, "localhost:") ||
		strings.HasPrefix(host, "127.0.0.1:") ||
		strings.HasPrefix(host, "[::1]:") ||
		host == "localhost" ||
		host == "127.0.0.1" ||
		host == "[::1]"
}
