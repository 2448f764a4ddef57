// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package oauth implements OpenID Connect login against external identity providers.

Each configured provider is discovered through its issuer's
/.well-known/openid-configuration. The authorization code flow always runs
with PKCE (S256) and a nonce; the verifier, nonce and CSRF state travel in a
short-lived signed cookie (see [FlowCookies]) instead of server memory.
*/
package oauth

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	"github.com/taibuivan/sessiongate/internal/platform/apperr"
	"github.com/taibuivan/sessiongate/internal/platform/config"
	"github.com/taibuivan/sessiongate/internal/platform/sec"
)

var (
	// ErrUnknownProvider is returned for a provider name that is not configured.
	ErrUnknownProvider = apperr.NotFound("Identity provider")

	// ErrStateMismatch means the callback does not belong to the pending flow.
	ErrStateMismatch = apperr.Unauthorized("Login attempt expired, please try again")
)

// Identity is the verified subset of ID token claims used to find or create an account.
type Identity struct {
	Provider      string
	Subject       string
	Email         string
	EmailVerified bool
	Name          string
	Picture       string
}

// Provider wraps the OIDC provider and OAuth2 configuration of one issuer.
type Provider struct {
	name         string
	oauth2Config *oauth2.Config
	verifier     *oidc.IDTokenVerifier
}

// NewProvider performs OIDC discovery for cfg.Issuer and prepares the code flow.
func NewProvider(ctx context.Context, name string, cfg config.OAuth) (*Provider, error) {
	discovered, err := oidc.NewProvider(ctx, cfg.Issuer)
	if err != nil {
		return nil, fmt.Errorf("oauth_discovery_failed(%s): %w", name, err)
	}

	scopes := cfg.Scopes
	if !slices.Contains(scopes, oidc.ScopeOpenID) {
		scopes = append([]string{oidc.ScopeOpenID}, scopes...)
	}

	return &Provider{
		name: name,
		oauth2Config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     discovered.Endpoint(),
			Scopes:       scopes,
		},
		verifier: discovered.Verifier(&oidc.Config{ClientID: cfg.ClientID}),
	}, nil
}

// Name returns the configured provider name.
func (provider *Provider) Name() string {
	return provider.name
}

/*
Begin starts an authorization code flow.

Parameters:
  - returnTo: site-relative path to resume after login

Returns:
  - Flow: state to persist in the flow cookie, including the authorization URL
  - error: Random source failures
*/
func (provider *Provider) Begin(returnTo string) (Flow, error) {
	state, err := sec.GenerateSecureToken(16)
	if err != nil {
		return Flow{}, fmt.Errorf("oauth_state_failed: %w", err)
	}
	nonce, err := sec.GenerateSecureToken(16)
	if err != nil {
		return Flow{}, fmt.Errorf("oauth_nonce_failed: %w", err)
	}
	verifier := oauth2.GenerateVerifier()

	return Flow{
		Provider: provider.name,
		State:    state,
		Verifier: verifier,
		Nonce:    nonce,
		ReturnTo: returnTo,
		AuthURL: provider.oauth2Config.AuthCodeURL(state,
			oauth2.S256ChallengeOption(verifier),
			oidc.Nonce(nonce),
		),
	}, nil
}

type idTokenClaims struct {
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

/*
Complete finishes the flow started by [Provider.Begin].

The callback state must match the flow, the code is exchanged with the PKCE
verifier, and the ID token is verified (signature, issuer, audience, expiry,
nonce) before any claim is trusted.

Parameters:
  - ctx: context.Context
  - flow: Flow (read back from the flow cookie)
  - state: string (callback 'state' parameter)
  - code: string (callback 'code' parameter)

Returns:
  - Identity: Verified provider identity
  - error: ErrStateMismatch, apperr.Unauthorized, or exchange failures
*/
func (provider *Provider) Complete(ctx context.Context, flow Flow, state, code string) (Identity, error) {
	if flow.Provider != provider.name || flow.State == "" || flow.State != state {
		return Identity{}, ErrStateMismatch
	}
	if code == "" {
		return Identity{}, apperr.Unauthorized("Provider did not return an authorization code")
	}

	token, err := provider.oauth2Config.Exchange(ctx, code, oauth2.VerifierOption(flow.Verifier))
	if err != nil {
		return Identity{}, fmt.Errorf("oauth_exchange_failed: %w", err)
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok || rawIDToken == "" {
		return Identity{}, errors.New("oauth_exchange_failed: no id_token in token response")
	}

	idToken, err := provider.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return Identity{}, apperr.Unauthorized("Identity token rejected")
	}
	if idToken.Nonce != flow.Nonce {
		return Identity{}, apperr.Unauthorized("Identity token rejected")
	}

	var claims idTokenClaims
	if err := idToken.Claims(&claims); err != nil {
		return Identity{}, fmt.Errorf("oauth_claims_failed: %w", err)
	}

	return Identity{
		Provider:      provider.name,
		Subject:       idToken.Subject,
		Email:         strings.TrimSpace(claims.Email),
		EmailVerified: claims.EmailVerified,
		Name:          claims.Name,
		Picture:       claims.Picture,
	}, nil
}

// # Registry

// Registry holds every configured provider by name.
type Registry struct {
	providers map[string]*Provider
}

// NewRegistry discovers each configured provider. One failing issuer aborts startup.
func NewRegistry(ctx context.Context, configs map[string]config.OAuth) (*Registry, error) {
	registry := &Registry{providers: make(map[string]*Provider, len(configs))}
	for name, cfg := range configs {
		provider, err := NewProvider(ctx, name, cfg)
		if err != nil {
			return nil, err
		}
		registry.providers[name] = provider
	}
	return registry, nil
}

// Get returns the named provider or [ErrUnknownProvider].
func (registry *Registry) Get(name string) (*Provider, error) {
	if registry == nil {
		return nil, ErrUnknownProvider
	}
	provider, ok := registry.providers[strings.ToLower(name)]
	if !ok {
		return nil, ErrUnknownProvider
	}
	return provider, nil
}

// Names lists configured providers in sorted order.
func (registry *Registry) Names() []string {
	if registry == nil {
		return nil
	}
	names := make([]string, 0, len(registry.providers))
	for name := range registry.providers {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
