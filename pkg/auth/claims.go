package auth

import (
	"github.com/golang-jwt/jwt/v5"

	kautherr "github.com/kauth-dev/kauth/pkg/errors"
)

// Identity describes the logged-in user, derived from token claims.
type Identity struct {
	Subject     string `json:"subject"`
	Username    string `json:"username,omitempty"`
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
	Realm       string `json:"realm"`
	Issuer      string `json:"issuer"`
}

// Whoami reports who the persisted session belongs to. Claims are read from
// the ID token when present, falling back to the access token. The token is
// decoded without signature verification: it was received directly from the
// issuer over the token endpoint, and the only consumer is a local display.
func (e *Engine) Whoami() (*Identity, error) {
	authCtx, err := e.store.Load()
	if err != nil {
		return nil, kautherr.NewInternalError("unable to load session", err)
	}
	if authCtx == nil {
		return nil, kautherr.NewNotAuthenticatedError("not logged in, run login first", nil)
	}

	raw := authCtx.IDToken
	if raw == "" {
		raw = authCtx.AccessToken
	}
	claims, err := parseClaims(raw)
	if err != nil {
		return nil, err
	}

	identity := &Identity{
		Realm:  authCtx.Realm,
		Issuer: authCtx.IssuerURL,
	}
	identity.Subject, _ = claims["sub"].(string)
	identity.Username, _ = claims["preferred_username"].(string)
	identity.Email, _ = claims["email"].(string)
	identity.DisplayName, _ = claims["name"].(string)
	return identity, nil
}

func parseClaims(raw string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(raw, claims); err != nil {
		return nil, kautherr.NewMalformedError("stored token is not a decodable JWT", err)
	}
	return claims, nil
}
