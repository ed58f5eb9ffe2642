package keycloak

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/jrsteele09/go-counterparty-client/identity"
	"github.com/jrsteele09/go-counterparty-client/identity/keycloak/authflow"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

// generateRandomString creates a base64url string from length random bytes
func generateRandomString(length int) (string, error) {
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("[keycloak generateRandomString] %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// Login runs the authorization-code flow with PKCE. The authorization URL is given
// to the context's identity.URLOpener and Login then waits for CompleteLogin.
func (p *Provider) Login(ctx context.Context) error {
	p.lock.RLock()
	oauth2Config, verifier := p.oauth2Config, p.verifier
	p.lock.RUnlock()
	if oauth2Config == nil {
		return identity.ErrNotInitialised
	}

	state, err := generateRandomString(32)
	if err != nil {
		return err
	}
	nonce, err := generateRandomString(16)
	if err != nil {
		return err
	}
	codeVerifier := oauth2.GenerateVerifier()

	flow := authflow.NewFlow(state, codeVerifier, nonce, p.nowTime())
	if err := p.flows.Upsert(state, flow); err != nil {
		return fmt.Errorf("[keycloak Login] failed to store login state: %w", err)
	}
	defer func() {
		if err := p.flows.Delete(state); err != nil {
			log.Err(err).Msg("Failed to delete login state")
		}
	}()

	authURL := oauth2Config.AuthCodeURL(state, oauth2.S256ChallengeOption(codeVerifier), oidc.Nonce(nonce))
	if err := identity.URLOpenerFrom(ctx)(ctx, authURL); err != nil {
		return fmt.Errorf("[keycloak Login] failed to open authorization URL: %w", err)
	}

	timer := time.NewTimer(p.config.LoginTimeout)
	defer timer.Stop()

	var result authflow.Result
	select {
	case result = <-flow.Result():
	case <-timer.C:
		return identity.ErrLoginTimeout
	case <-ctx.Done():
		return ctx.Err()
	}
	if result.Err != nil {
		return result.Err
	}

	ctx = p.clientContext(ctx)
	token, err := oauth2Config.Exchange(ctx, result.Code, oauth2.VerifierOption(codeVerifier))
	if err != nil {
		return fmt.Errorf("[keycloak Login] token exchange failed: %w", err)
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return errors.New("[keycloak Login] no ID token in response")
	}
	idToken, err := verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return fmt.Errorf("[keycloak Login] ID token verification failed: %w", err)
	}
	// Validate nonce to prevent replay attacks
	if idToken.Nonce != nonce {
		return errors.New("[keycloak Login] invalid nonce")
	}

	p.setSession(ctx, token, rawIDToken)
	return nil
}

// CompleteLogin delivers the authorization callback to the Login waiting on state.
func (p *Provider) CompleteLogin(_ context.Context, state, code, errorParam string) error {
	if state == "" {
		return fmt.Errorf("[keycloak CompleteLogin] missing state: %w", identity.ErrUnknownLoginState)
	}
	flow, err := p.flows.Get(state)
	if err != nil {
		return fmt.Errorf("[keycloak CompleteLogin] %w", identity.ErrUnknownLoginState)
	}

	result := authflow.Result{Code: code}
	switch {
	case errorParam != "":
		result = authflow.Result{Err: fmt.Errorf("%w: %s", identity.ErrLoginDenied, errorParam)}
	case code == "":
		result = authflow.Result{Err: fmt.Errorf("%w: missing authorization code", identity.ErrLoginDenied)}
	}

	if !flow.Deliver(result) {
		return fmt.Errorf("[keycloak CompleteLogin] callback already received: %w", identity.ErrUnknownLoginState)
	}
	return result.Err
}
