// Package auth implements the interactive authentication engine: a
// browser-based authorization code flow with PKCE against a Keycloak-style
// identity provider, with a persisted context and transparent refresh.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net/url"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/pkg/browser"
	"golang.org/x/oauth2"

	"github.com/kauth-dev/kauth/pkg/auth/callback"
	"github.com/kauth-dev/kauth/pkg/auth/exchange"
	"github.com/kauth-dev/kauth/pkg/auth/oidc"
	"github.com/kauth-dev/kauth/pkg/auth/pkce"
	"github.com/kauth-dev/kauth/pkg/auth/store"
	kautherr "github.com/kauth-dev/kauth/pkg/errors"
	"github.com/kauth-dev/kauth/pkg/logger"
)

const (
	// RefreshMargin is the remaining validity below which GetToken refreshes
	// the access token instead of returning the cached one.
	RefreshMargin = 5 * time.Minute

	// DefaultCallbackPort is used when Options does not set one.
	DefaultCallbackPort = 8765

	// DefaultLoginTimeout bounds a single interactive login attempt.
	DefaultLoginTimeout = 5 * time.Minute

	maxRefreshAttempts = 3
)

// Options configures an Engine.
type Options struct {
	// ServerURL is the base URL of the identity provider instance.
	ServerURL string

	// Realm is the provider tenant to authenticate against.
	Realm string

	// IssuerURL overrides the issuer derived from ServerURL and Realm, for
	// providers that do not use the /realms/<realm> layout.
	IssuerURL string

	// ClientID is the OAuth client registered for this CLI.
	ClientID string

	// ClientSecret is set only for confidential clients. Public clients,
	// the usual shape for a CLI, leave it empty and rely on PKCE.
	ClientSecret string

	// Scopes are the OAuth scopes requested at login.
	Scopes []string

	// CallbackPort is the fixed local port for the OAuth redirect.
	CallbackPort int

	// LoginTimeout bounds how long Login waits for the browser callback.
	LoginTimeout time.Duration

	// Store persists the authentication context. Required.
	Store store.Store

	// SkipBrowser prints the authorization URL instead of opening a browser.
	SkipBrowser bool

	// OpenBrowser overrides the default browser opener. Used in tests.
	OpenBrowser func(url string) error

	// Now overrides the clock. Used in tests.
	Now func() time.Time
}

// Engine orchestrates login, transparent refresh, and logout over a single
// persisted authentication context.
type Engine struct {
	serverURL    string
	realm        string
	issuerURL    string
	clientID     string
	clientSecret string
	scopes       []string
	callbackPort int
	loginTimeout time.Duration
	skipBrowser  bool

	store       store.Store
	openBrowser func(url string) error
	now         func() time.Time

	// loginActive guards against a second concurrent login binding a
	// conflicting listener port.
	loginActive atomic.Bool
}

// New creates an Engine. ServerURL must be a well-formed URL; realm,
// client ID, and store are required.
func New(opts Options) (*Engine, error) {
	if _, err := url.ParseRequestURI(opts.ServerURL); err != nil {
		return nil, kautherr.NewInternalError("server URL is not a well-formed URL: "+opts.ServerURL, err)
	}
	if opts.Realm == "" {
		return nil, kautherr.NewInternalError("realm is required", nil)
	}
	if opts.ClientID == "" {
		return nil, kautherr.NewInternalError("client ID is required", nil)
	}
	if opts.Store == nil {
		return nil, kautherr.NewInternalError("context store is required", nil)
	}

	e := &Engine{
		serverURL:    opts.ServerURL,
		realm:        opts.Realm,
		issuerURL:    opts.IssuerURL,
		clientID:     opts.ClientID,
		clientSecret: opts.ClientSecret,
		scopes:       opts.Scopes,
		callbackPort: opts.CallbackPort,
		loginTimeout: opts.LoginTimeout,
		skipBrowser:  opts.SkipBrowser,
		store:        opts.Store,
		openBrowser:  opts.OpenBrowser,
		now:          opts.Now,
	}
	if len(e.scopes) == 0 {
		e.scopes = []string{"openid", "profile", "email"}
	}
	if e.callbackPort == 0 {
		e.callbackPort = DefaultCallbackPort
	}
	if e.loginTimeout == 0 {
		e.loginTimeout = DefaultLoginTimeout
	}
	if e.openBrowser == nil {
		e.openBrowser = browser.OpenURL
	}
	if e.now == nil {
		e.now = time.Now
	}
	return e, nil
}

// Issuer returns the OIDC issuer URL for the engine's realm.
func (e *Engine) Issuer() string {
	if e.issuerURL != "" {
		return e.issuerURL
	}
	return fmt.Sprintf("%s/realms/%s", trimSlash(e.serverURL), e.realm)
}

func trimSlash(s string) string {
	for len(s) > 0 && s[len(s)-1] == '/' {
		s = s[:len(s)-1]
	}
	return s
}

// Login performs the interactive browser login and persists the resulting
// context. The previous context is replaced only on success, so a failed
// login (or a failed switch to another realm) never loses a working session.
//
// A second Login while one is awaiting its callback fails fast with a
// login_in_progress error instead of binding a conflicting listener.
func (e *Engine) Login(ctx context.Context) (*store.AuthContext, error) {
	if !e.loginActive.CompareAndSwap(false, true) {
		return nil, kautherr.NewLoginInProgressError("another login is already waiting for its browser callback", nil)
	}
	defer e.loginActive.Store(false)

	issuer := e.Issuer()
	logger.Infof("Starting interactive login for realm %q", e.realm)

	eps, err := oidc.Discover(ctx, issuer)
	if err != nil {
		return nil, err
	}
	if !eps.SupportsS256 {
		logger.Debug("issuer does not advertise S256 support, sending PKCE anyway")
	}

	pair, err := pkce.Generate()
	if err != nil {
		// Entropy source unavailability is fatal for the process.
		return nil, kautherr.NewInternalError("unable to generate PKCE parameters", err)
	}
	state, err := generateState()
	if err != nil {
		return nil, kautherr.NewInternalError("unable to generate state parameter", err)
	}

	// The listener must be bound before the authorization URL is handed to
	// the browser, or the provider could redirect into the void.
	listener, err := callback.Start(e.callbackPort, state)
	if err != nil {
		return nil, err
	}
	defer listener.Stop()

	oauthCfg := &oauth2.Config{
		ClientID:     e.clientID,
		ClientSecret: e.clientSecret,
		RedirectURL:  listener.RedirectURI(),
		Scopes:       e.scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:  eps.AuthURL,
			TokenURL: eps.TokenURL,
			// Keycloak expects public-client credentials in the form body.
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
	authURL := oauthCfg.AuthCodeURL(state,
		oauth2.SetAuthURLParam("code_challenge", pair.Challenge),
		oauth2.SetAuthURLParam("code_challenge_method", pkce.Method),
	)

	if e.skipBrowser {
		logger.Infof("Open this URL in your browser to log in:\n\n    %s\n", authURL)
	} else {
		logger.Info("Opening browser to complete login...")
		if err := e.openBrowser(authURL); err != nil {
			logger.Warnf("Failed to open browser: %v", err)
		}
		logger.Infof("If the browser does not open, visit:\n\n    %s\n", authURL)
	}

	loginCtx, cancel := context.WithTimeout(ctx, e.loginTimeout)
	defer cancel()

	logger.Info("Waiting for authentication callback...")
	result, err := listener.Await(loginCtx)
	if err != nil {
		// Nothing was persisted; the previous context (if any) is intact.
		return nil, err
	}

	token, err := exchange.New(oauthCfg).ExchangeCode(ctx, result.Code, pair.Verifier)
	if err != nil {
		return nil, err
	}

	authCtx := newContext(e.realm, issuer, token, e.now())
	if err := e.store.Save(authCtx); err != nil {
		return nil, kautherr.NewInternalError("login succeeded but the session could not be persisted", err)
	}

	logger.Infof("Logged in to realm %q", e.realm)
	return authCtx, nil
}

// GetToken returns a valid access token, refreshing transparently when the
// cached one is within the safety margin of expiry. No network call is made
// while the cached token is fresh.
func (e *Engine) GetToken(ctx context.Context) (string, error) {
	authCtx, err := e.store.Load()
	if err != nil {
		return "", kautherr.NewInternalError("unable to load session", err)
	}
	if authCtx == nil {
		return "", kautherr.NewNotAuthenticatedError("not logged in, run login first", nil)
	}

	now := e.now()
	if authCtx.AccessTokenValid(now, RefreshMargin) {
		return authCtx.AccessToken, nil
	}
	if !authCtx.RefreshTokenUsable(now) {
		return "", kautherr.NewNotAuthenticatedError("session expired, log in again", nil)
	}

	refreshed, err := e.refresh(ctx, authCtx)
	if err != nil {
		if kautherr.IsInvalidGrant(err) {
			// The refresh token is dead; drop the session so subsequent
			// calls report not_authenticated.
			if clearErr := e.store.Clear(); clearErr != nil {
				logger.Warnf("Failed to clear expired session: %v", clearErr)
			}
		}
		return "", err
	}
	return refreshed.AccessToken, nil
}

// Refresh forces a refresh of the current context regardless of remaining
// validity and persists the result.
func (e *Engine) Refresh(ctx context.Context) (*store.AuthContext, error) {
	authCtx, err := e.store.Load()
	if err != nil {
		return nil, kautherr.NewInternalError("unable to load session", err)
	}
	if authCtx == nil {
		return nil, kautherr.NewNotAuthenticatedError("not logged in, run login first", nil)
	}
	if !authCtx.RefreshTokenUsable(e.now()) {
		return nil, kautherr.NewNotAuthenticatedError("session has no usable refresh token, log in again", nil)
	}
	return e.refresh(ctx, authCtx)
}

// refresh performs one logical refresh, retrying only network-level
// failures, and persists the updated context in place.
func (e *Engine) refresh(ctx context.Context, authCtx *store.AuthContext) (*store.AuthContext, error) {
	eps, err := oidc.Discover(ctx, authCtx.IssuerURL)
	if err != nil {
		return nil, err
	}
	exchanger := exchange.New(&oauth2.Config{
		ClientID:     e.clientID,
		ClientSecret: e.clientSecret,
		Endpoint: oauth2.Endpoint{
			AuthURL:   eps.AuthURL,
			TokenURL:  eps.TokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	})

	operation := func() (*exchange.TokenResponse, error) {
		token, err := exchanger.Refresh(ctx, authCtx.RefreshToken)
		if err != nil {
			if kautherr.IsNetwork(err) {
				return nil, err
			}
			return nil, backoff.Permanent(err)
		}
		return token, nil
	}
	token, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(maxRefreshAttempts),
	)
	if err != nil {
		return nil, err
	}

	updated := refreshedContext(authCtx, token, e.now())
	if err := e.store.Save(updated); err != nil {
		return nil, kautherr.NewInternalError("refresh succeeded but the session could not be persisted", err)
	}
	logger.Debug("access token refreshed")
	return updated, nil
}

// Logout clears the persisted context. Logging out twice is not an error.
func (e *Engine) Logout() error {
	if err := e.store.Clear(); err != nil {
		return kautherr.NewInternalError("unable to clear session", err)
	}
	return nil
}

// CurrentContext returns the persisted context, or nil when not logged in.
func (e *Engine) CurrentContext() (*store.AuthContext, error) {
	authCtx, err := e.store.Load()
	if err != nil {
		return nil, kautherr.NewInternalError("unable to load session", err)
	}
	return authCtx, nil
}

// newContext builds the persisted record for a fresh login.
func newContext(realm, issuer string, token *exchange.TokenResponse, issuedAt time.Time) *store.AuthContext {
	return &store.AuthContext{
		Realm:            realm,
		IssuerURL:        issuer,
		AccessToken:      token.AccessToken,
		RefreshToken:     token.RefreshToken,
		IDToken:          token.IDToken,
		TokenType:        token.TokenType,
		ExpiresIn:        token.ExpiresIn,
		RefreshExpiresIn: token.RefreshExpiresIn,
		Scope:            token.Scope,
		IssuedAt:         issuedAt,
	}
}

// refreshedContext derives the updated session record, retaining fields the
// provider did not resend.
func refreshedContext(prev *store.AuthContext, token *exchange.TokenResponse, issuedAt time.Time) *store.AuthContext {
	next := *prev
	next.AccessToken = token.AccessToken
	next.TokenType = token.TokenType
	next.ExpiresIn = token.ExpiresIn
	next.IssuedAt = issuedAt
	if token.RefreshToken != "" {
		next.RefreshToken = token.RefreshToken
	}
	if token.RefreshExpiresIn != 0 {
		next.RefreshExpiresIn = token.RefreshExpiresIn
	}
	if token.IDToken != "" {
		next.IDToken = token.IDToken
	}
	if token.Scope != "" {
		next.Scope = token.Scope
	}
	return &next
}

// generateState generates a random anti-CSRF state parameter.
func generateState() (string, error) {
	stateBytes := make([]byte, 16)
	if _, err := rand.Read(stateBytes); err != nil {
		return "", fmt.Errorf("failed to generate state: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(stateBytes), nil
}
