package exchange

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/kauth-dev/kauth/pkg/errors"
)

// tokenEndpoint builds an Exchanger pointed at a test token endpoint.
func tokenEndpoint(t *testing.T, handler http.HandlerFunc) *Exchanger {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return New(&oauth2.Config{
		ClientID:    "kauth-cli",
		RedirectURL: "http://localhost:8765/callback",
		Endpoint: oauth2.Endpoint{
			AuthURL:  srv.URL + "/auth",
			TokenURL: srv.URL + "/token",
		},
	})
}

func keycloakTokenBody() map[string]any {
	return map[string]any{
		"access_token":       "at-123",
		"refresh_token":      "rt-456",
		"id_token":           "id-789",
		"token_type":         "Bearer",
		"expires_in":         300,
		"refresh_expires_in": 1800,
		"scope":              "openid profile email",
	}
}

func TestExchangeCodeSuccess(t *testing.T) {
	t.Parallel()

	var gotForm map[string]string
	e := tokenEndpoint(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		gotForm = map[string]string{
			"grant_type":    r.Form.Get("grant_type"),
			"code":          r.Form.Get("code"),
			"code_verifier": r.Form.Get("code_verifier"),
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(keycloakTokenBody())
	})

	resp, err := e.ExchangeCode(t.Context(), "the-code", "the-verifier")
	require.NoError(t, err)

	assert.Equal(t, "authorization_code", gotForm["grant_type"])
	assert.Equal(t, "the-code", gotForm["code"])
	assert.Equal(t, "the-verifier", gotForm["code_verifier"])

	assert.Equal(t, "at-123", resp.AccessToken)
	assert.Equal(t, "rt-456", resp.RefreshToken)
	assert.Equal(t, "id-789", resp.IDToken)
	assert.Equal(t, "Bearer", resp.TokenType)
	assert.EqualValues(t, 300, resp.ExpiresIn)
	assert.EqualValues(t, 1800, resp.RefreshExpiresIn)
	assert.Equal(t, "openid profile email", resp.Scope)
}

func TestExchangeCodeWithoutRefreshToken(t *testing.T) {
	t.Parallel()

	e := tokenEndpoint(t, func(w http.ResponseWriter, _ *http.Request) {
		body := keycloakTokenBody()
		delete(body, "refresh_token")
		delete(body, "refresh_expires_in")
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(body)
	})

	resp, err := e.ExchangeCode(t.Context(), "the-code", "the-verifier")
	require.NoError(t, err)
	assert.Empty(t, resp.RefreshToken)
	assert.Zero(t, resp.RefreshExpiresIn)
}

func TestRefreshSuccess(t *testing.T) {
	t.Parallel()

	var gotGrant, gotRefresh string
	e := tokenEndpoint(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		gotGrant = r.Form.Get("grant_type")
		gotRefresh = r.Form.Get("refresh_token")
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(keycloakTokenBody())
	})

	resp, err := e.Refresh(t.Context(), "rt-old")
	require.NoError(t, err)

	assert.Equal(t, "refresh_token", gotGrant)
	assert.Equal(t, "rt-old", gotRefresh)
	assert.Equal(t, "at-123", resp.AccessToken)
}

func TestRefreshInvalidGrant(t *testing.T) {
	t.Parallel()

	e := tokenEndpoint(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"error":             "invalid_grant",
			"error_description": "Token is not active",
		})
	})

	_, err := e.Refresh(t.Context(), "rt-dead")
	require.Error(t, err)
	assert.True(t, errors.IsInvalidGrant(err))
}

func TestExchangeCodeProviderRejected(t *testing.T) {
	t.Parallel()

	e := tokenEndpoint(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "invalid_client"})
	})

	_, err := e.ExchangeCode(t.Context(), "the-code", "the-verifier")
	require.Error(t, err)
	assert.True(t, errors.IsProviderRejected(err))
	assert.Contains(t, err.Error(), "invalid_client")
}

func TestNetworkErrorClassification(t *testing.T) {
	t.Parallel()

	// A server that is immediately closed leaves a connection-refused port.
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	e := New(&oauth2.Config{
		ClientID: "kauth-cli",
		Endpoint: oauth2.Endpoint{AuthURL: url + "/auth", TokenURL: url + "/token"},
	})

	_, err := e.Refresh(t.Context(), "rt")
	require.Error(t, err)
	assert.True(t, errors.IsNetwork(err))
}

func TestMalformedResponseClassification(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "500 with html body",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "text/html")
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte("<html>oops</html>"))
			},
		},
		{
			name: "200 missing access_token",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_ = json.NewEncoder(w).Encode(map[string]any{"token_type": "Bearer"})
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			e := tokenEndpoint(t, tt.handler)
			_, err := e.ExchangeCode(t.Context(), "code", "verifier")
			require.Error(t, err)
			assert.True(t, errors.IsMalformed(err), "got: %v", err)
		})
	}
}
