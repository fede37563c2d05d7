package oidc

// Package oidc implements the IdentityProvider port against the Microsoft
// identity platform (Entra ID) v2.0 endpoints. Token signature and issuer
// validation are delegated to the discovery-fed verifier during the
// exchange; everything downstream only sees parsed claims.

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	gooidc "github.com/coreos/go-oidc/v3/oidc"
	"github.com/hashicorp/go-cleanhttp"
	"golang.org/x/oauth2"

	domainauth "github.com/entragate/entragate/internal/domain/auth"
	"github.com/entragate/entragate/internal/domain/tokencache"
	"github.com/entragate/entragate/internal/ports"
)

// reservedScopes are added to every request the way MSAL does implicitly.
// offline_access is what makes silent acquisition possible at all.
var reservedScopes = []string{gooidc.ScopeOpenID, "profile", "email", gooidc.ScopeOfflineAccess}

// Provider implements ports.IdentityProvider for an Entra ID tenant.
type Provider struct {
	config     *oauth2.Config
	authority  string
	verifier   *gooidc.IDTokenVerifier
	httpClient *http.Client
	timeout    time.Duration
}

var _ ports.IdentityProvider = (*Provider)(nil)

// ProviderConfig holds construction inputs for the Entra provider.
type ProviderConfig struct {
	// Authority is the tenant authority base URL, as built by
	// config.AuthConfig.Authority().
	Authority    string
	ClientID     string
	ClientSecret string
	Scopes       []string      // resource scopes; reserved OIDC scopes are added automatically
	Timeout      time.Duration // per-call cap on provider round trips; default 3m
	HTTPClient   *http.Client  // optional, defaults to a cleanhttp client
}

// NewProvider performs OIDC discovery against the tenant authority and
// builds the provider. Missing configuration is a construction-time
// failure; the process must not start without it.
func NewProvider(cfg ProviderConfig) (*Provider, error) {
	if cfg.Authority == "" {
		return nil, errors.New("authority is required")
	}
	if cfg.ClientID == "" {
		return nil, errors.New("client ID is required")
	}
	if cfg.ClientSecret == "" {
		return nil, errors.New("client secret is required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = cleanhttp.DefaultClient()
		httpClient.Timeout = 30 * time.Second
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 3 * time.Minute
	}

	authority := strings.TrimSuffix(cfg.Authority, "/")

	// Single discovery fetch at startup. The v2.0 issuer requires the
	// tenant to be the directory GUID, not a vanity domain.
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, httpClient)
	op, err := gooidc.NewProvider(ctx, authority+"/v2.0")
	if err != nil {
		return nil, fmt.Errorf("oidc discovery: %w", err)
	}

	return &Provider{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     op.Endpoint(),
			Scopes:       withReservedScopes(cfg.Scopes),
		},
		authority:  authority,
		verifier:   op.Verifier(&gooidc.Config{ClientID: cfg.ClientID}),
		httpClient: httpClient,
		timeout:    timeout,
	}, nil
}

// AuthCodeURL builds the authorization URL. prompt=select_account forces
// the account picker so a stale provider-side session cannot silently sign
// in the wrong user.
func (p *Provider) AuthCodeURL(state, redirectURI string) string {
	return p.config.AuthCodeURL(state,
		oauth2.SetAuthURLParam("redirect_uri", redirectURI),
		oauth2.SetAuthURLParam("prompt", "select_account"),
	)
}

// Exchange trades the authorization code for tokens and extracts the
// identity claims from the verified ID token. The redirect URI must be the
// exact value used when building the authorization URL or the provider
// rejects the exchange.
func (p *Provider) Exchange(ctx context.Context, code, redirectURI string) (ports.ExchangeResult, error) {
	ctx, cancel := p.callContext(ctx)
	defer cancel()

	tok, err := p.config.Exchange(ctx, code, oauth2.SetAuthURLParam("redirect_uri", redirectURI))
	if err != nil {
		var rerr *oauth2.RetrieveError
		if errors.As(err, &rerr) {
			return ports.ExchangeResult{}, &domainauth.ProviderError{
				Code:        rerr.ErrorCode,
				Description: rerr.ErrorDescription,
			}
		}
		return ports.ExchangeResult{}, fmt.Errorf("exchange code for token: %w", err)
	}

	rawID, ok := tok.Extra("id_token").(string)
	if !ok || rawID == "" {
		return ports.ExchangeResult{}, errors.New("missing id_token in token response")
	}

	idTok, err := p.verifier.Verify(ctx, rawID)
	if err != nil {
		return ports.ExchangeResult{}, fmt.Errorf("verify id_token: %w", err)
	}

	var claims domainauth.Claims
	if claimsErr := idTok.Claims(&claims); claimsErr != nil {
		return ports.ExchangeResult{}, fmt.Errorf("parse id_token claims: %w", claimsErr)
	}

	account, err := accountFromIDToken(idTok, claims)
	if err != nil {
		return ports.ExchangeResult{}, err
	}

	return ports.ExchangeResult{Claims: claims, Token: tok, Account: account}, nil
}

// AcquireSilent returns a token for the scopes from the cache without user
// interaction. A still-valid cached token is returned as-is; otherwise the
// cached refresh token drives a refresh grant and the cache is updated.
// Any dead end is domainauth.ErrSilentAuthFailed — the caller decides
// whether to force an interactive login.
func (p *Provider) AcquireSilent(ctx context.Context, cache *tokencache.Cache, scopes []string) (*oauth2.Token, error) {
	if len(cache.Accounts()) == 0 {
		return nil, domainauth.ErrSilentAuthFailed
	}

	cached, ok := cache.Lookup(scopes)
	if !ok {
		return nil, domainauth.ErrSilentAuthFailed
	}
	if cached.Valid() {
		return cached, nil
	}
	if cached.RefreshToken == "" {
		return nil, domainauth.ErrSilentAuthFailed
	}

	ctx, cancel := p.callContext(ctx)
	defer cancel()

	fresh, err := p.config.TokenSource(ctx, cached).Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domainauth.ErrSilentAuthFailed, err)
	}

	// The provider may omit the refresh token on renewal; keep the old one.
	if fresh.RefreshToken == "" {
		fresh.RefreshToken = cached.RefreshToken
	}
	cache.Update(scopes, fresh)

	return fresh, nil
}

// LogoutURL builds the tenant logout URL with a post-logout redirect back
// to the application.
func (p *Provider) LogoutURL(postLogoutRedirectURI string) string {
	logoutURL := p.authority + "/oauth2/v2.0/logout"
	if postLogoutRedirectURI == "" {
		return logoutURL
	}
	q := url.Values{}
	q.Set("post_logout_redirect_uri", postLogoutRedirectURI)
	return logoutURL + "?" + q.Encode()
}

// callContext applies the provider timeout and pins the HTTP client used
// by the oauth2 machinery.
func (p *Provider) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
	return context.WithTimeout(ctx, p.timeout)
}

// accountFromIDToken derives the cache account from the token's object and
// tenant IDs, in the home-account form the Microsoft platform uses.
func accountFromIDToken(idTok *gooidc.IDToken, claims domainauth.Claims) (tokencache.Account, error) {
	var ids struct {
		OID string `json:"oid"`
		TID string `json:"tid"`
	}
	if err := idTok.Claims(&ids); err != nil {
		return tokencache.Account{}, fmt.Errorf("parse account claims: %w", err)
	}

	homeAccountID := idTok.Subject
	if ids.OID != "" && ids.TID != "" {
		homeAccountID = ids.OID + "." + ids.TID
	}

	return tokencache.Account{
		HomeAccountID: homeAccountID,
		Username:      claims.PreferredUsername,
	}, nil
}

func withReservedScopes(scopes []string) []string {
	merged := append([]string(nil), scopes...)
	for _, reserved := range reservedScopes {
		if !containsScope(merged, reserved) {
			merged = append(merged, reserved)
		}
	}
	return merged
}

func containsScope(scopes []string, want string) bool {
	for _, sc := range scopes {
		if sc == want {
			return true
		}
	}
	return false
}
