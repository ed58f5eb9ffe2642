// Package keycloak implements identity.Provider against a Keycloak realm using
// OpenID Connect: authorization-code flow with PKCE, silent session restore from a
// persisted refresh token, userinfo profiles and back-channel logout.
package keycloak

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/jrsteele09/go-counterparty-client/identity"
	"github.com/jrsteele09/go-counterparty-client/identity/keycloak/authflow"
	"github.com/jrsteele09/go-counterparty-client/kvstore"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

var (
	_ identity.Provider       = (*Provider)(nil)
	_ identity.LoginCompleter = (*Provider)(nil)
)

// Provider is a Keycloak relying party. Safe for concurrent use.
type Provider struct {
	config     Config
	tokens     *TokenStore
	flows      authflow.Repo
	httpClient *http.Client
	nowTime    func() time.Time

	lock          sync.RWMutex
	oidcProvider  *oidc.Provider
	oauth2Config  *oauth2.Config
	verifier      *oidc.IDTokenVerifier
	endSessionURL string
	token         *oauth2.Token
	authenticated bool
}

// Option customises a Provider.
type Option func(*Provider)

// WithHTTPClient sets the client used for every call to Keycloak.
func WithHTTPClient(client *http.Client) Option {
	return func(p *Provider) {
		p.httpClient = client
	}
}

// WithFlowRepo replaces the in-memory store of pending logins.
func WithFlowRepo(repo authflow.Repo) Option {
	return func(p *Provider) {
		p.flows = repo
	}
}

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) Option {
	return func(p *Provider) {
		p.nowTime = nowFunc
	}
}

// New validates config and returns a Provider. No network call is made until Init.
func New(config Config, tokens *TokenStore, options ...Option) (*Provider, error) {
	config.setDefaults()
	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("[keycloak New] invalid configuration: %w", err)
	}
	if tokens == nil {
		return nil, errors.New("[keycloak New] token store is required")
	}

	p := &Provider{
		config:  config,
		tokens:  tokens,
		flows:   authflow.NewInMemoryRepo(),
		nowTime: time.Now,
	}
	for _, opt := range options {
		opt(p)
	}
	return p, nil
}

// Init discovers the realm and silently restores a persisted session ("check-sso").
// Only discovery failures are errors; a session that cannot be restored leaves the
// provider unauthenticated.
func (p *Provider) Init(ctx context.Context) error {
	ctx = p.clientContext(ctx)

	provider, err := oidc.NewProvider(ctx, p.config.Issuer())
	if err != nil {
		p.setUnauthenticated()
		return fmt.Errorf("[keycloak Init] failed to discover %s: %w", p.config.Issuer(), err)
	}

	var metadata struct {
		EndSessionEndpoint string `json:"end_session_endpoint"`
	}
	if err := provider.Claims(&metadata); err != nil {
		log.Warn().Err(err).Msg("Failed to read end_session_endpoint from discovery document")
	}

	p.lock.Lock()
	p.oidcProvider = provider
	p.oauth2Config = &oauth2.Config{
		ClientID:    p.config.ClientID,
		Endpoint:    provider.Endpoint(),
		RedirectURL: p.config.RedirectURL,
		Scopes:      p.config.Scopes,
	}
	p.verifier = provider.Verifier(&oidc.Config{ClientID: p.config.ClientID})
	p.endSessionURL = metadata.EndSessionEndpoint
	p.lock.Unlock()

	p.restoreSession(ctx)
	return nil
}

// restoreSession exchanges the persisted refresh token for a fresh token set.
func (p *Provider) restoreSession(ctx context.Context) {
	stored, err := p.tokens.Load(ctx)
	if errors.Is(err, kvstore.ErrNotFound) {
		p.setUnauthenticated()
		return
	}
	if err != nil {
		log.Err(err).Msg("Failed to load persisted session")
		p.dropSession(ctx)
		return
	}

	if stored.RefreshToken == "" || refreshTokenExpired(stored.RefreshToken, p.nowTime()) {
		log.Info().Msg("Persisted session has expired")
		p.dropSession(ctx)
		return
	}

	p.lock.RLock()
	oauth2Config, verifier := p.oauth2Config, p.verifier
	p.lock.RUnlock()

	// No access token forces the token source to refresh
	token, err := oauth2Config.TokenSource(ctx, &oauth2.Token{RefreshToken: stored.RefreshToken}).Token()
	if err != nil {
		log.Warn().Err(err).Msg("Persisted session could not be refreshed")
		p.dropSession(ctx)
		return
	}

	rawIDToken, _ := token.Extra("id_token").(string)
	if rawIDToken != "" {
		if _, err := verifier.Verify(ctx, rawIDToken); err != nil {
			log.Warn().Err(err).Msg("Refreshed ID token failed verification")
			p.dropSession(ctx)
			return
		}
	}

	p.setSession(ctx, token, rawIDToken)
}

func (p *Provider) Authenticated() bool {
	p.lock.RLock()
	defer p.lock.RUnlock()
	return p.authenticated
}

// LoadProfile fetches the userinfo document and the realm roles of the current user.
func (p *Provider) LoadProfile(ctx context.Context) (*identity.Profile, error) {
	p.lock.RLock()
	provider, oauth2Config, token, authenticated := p.oidcProvider, p.oauth2Config, p.token, p.authenticated
	p.lock.RUnlock()

	if provider == nil {
		return nil, identity.ErrNotInitialised
	}
	if !authenticated || token == nil {
		return nil, identity.ErrNotAuthenticated
	}

	ctx = p.clientContext(ctx)
	current, err := oauth2Config.TokenSource(ctx, token).Token()
	if err != nil {
		return nil, fmt.Errorf("[keycloak LoadProfile] failed to refresh access token: %w", err)
	}
	if current.AccessToken != token.AccessToken {
		p.setSession(ctx, current, "")
	}

	userInfo, err := provider.UserInfo(ctx, oauth2.StaticTokenSource(current))
	if err != nil {
		return nil, fmt.Errorf("[keycloak LoadProfile] userinfo request failed: %w", err)
	}

	var claims struct {
		PreferredUsername string `json:"preferred_username"`
		GivenName         string `json:"given_name"`
		FamilyName        string `json:"family_name"`
	}
	if err := userInfo.Claims(&claims); err != nil {
		return nil, fmt.Errorf("[keycloak LoadProfile] failed to decode userinfo: %w", err)
	}

	username := claims.PreferredUsername
	if username == "" {
		username = userInfo.Email
	}

	return &identity.Profile{
		ID:            userInfo.Subject,
		Username:      username,
		Email:         userInfo.Email,
		EmailVerified: userInfo.EmailVerified,
		FirstName:     claims.GivenName,
		LastName:      claims.FamilyName,
		Roles:         realmRoles(current.AccessToken),
	}, nil
}

// setSession records an authenticated token set and persists it.
// An empty rawIDToken keeps the previously persisted ID token.
func (p *Provider) setSession(ctx context.Context, token *oauth2.Token, rawIDToken string) {
	p.lock.Lock()
	p.token = token
	p.authenticated = true
	p.lock.Unlock()

	if rawIDToken == "" {
		if stored, err := p.tokens.Load(ctx); err == nil {
			rawIDToken = stored.IDToken
		}
	}
	if err := p.tokens.Save(ctx, newStoredToken(token, rawIDToken)); err != nil {
		log.Err(err).Msg("Failed to persist session token")
	}
}

func (p *Provider) dropSession(ctx context.Context) {
	p.setUnauthenticated()
	if err := p.tokens.Clear(ctx); err != nil {
		log.Err(err).Msg("Failed to clear persisted session")
	}
}

func (p *Provider) setUnauthenticated() {
	p.lock.Lock()
	p.token = nil
	p.authenticated = false
	p.lock.Unlock()
}

func (p *Provider) clientContext(ctx context.Context) context.Context {
	if p.httpClient == nil {
		return ctx
	}
	return oidc.ClientContext(ctx, p.httpClient)
}

func (p *Provider) client() *http.Client {
	if p.httpClient != nil {
		return p.httpClient
	}
	return http.DefaultClient
}
