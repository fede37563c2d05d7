package ports

// Package ports defines interfaces (hexagonal ports) for auth-related behavior.
// Implementations live in internal/adapters; orchestration in internal/service.

import (
	"context"
	"errors"

	"golang.org/x/oauth2"

	domainauth "github.com/entragate/entragate/internal/domain/auth"
	"github.com/entragate/entragate/internal/domain/tokencache"
)

// ExchangeResult is what a completed code exchange yields: the decoded
// identity claims, the provider tokens, and the account the tokens belong
// to. Signature and issuer validation happen inside the exchange; callers
// only see parsed claims.
type ExchangeResult struct {
	Claims  domainauth.Claims
	Token   *oauth2.Token
	Account tokencache.Account
}

// IdentityProvider is the black-box contract for the external identity
// provider. Any compliant OIDC client library can sit behind it; the flow
// controller's correctness does not depend on a specific SDK.
type IdentityProvider interface {
	// AuthCodeURL builds the provider authorization URL binding the given
	// CSRF state and callback redirect URI.
	AuthCodeURL(state, redirectURI string) string

	// Exchange trades the authorization code for tokens and claims. The
	// redirect URI must match the one used in AuthCodeURL exactly.
	Exchange(ctx context.Context, code, redirectURI string) (ExchangeResult, error)

	// AcquireSilent returns a token for the scopes from the cache, using a
	// cached refresh token when needed. It never triggers a redirect;
	// failure is domainauth.ErrSilentAuthFailed.
	AcquireSilent(ctx context.Context, cache *tokencache.Cache, scopes []string) (*oauth2.Token, error)

	// LogoutURL builds the provider logout URL with a post-logout redirect.
	LogoutURL(postLogoutRedirectURI string) string
}

// ErrSessionNotFound is returned by SessionStore implementations when no
// record exists for the given identifier.
var ErrSessionNotFound = errors.New("session not found")

// SessionStore persists and retrieves per-browser-session records
// addressed by the opaque session identifier from the cookie.
type SessionStore interface {
	Save(ctx context.Context, rec domainauth.SessionRecord) error
	Get(ctx context.Context, id string) (domainauth.SessionRecord, error)
	Delete(ctx context.Context, id string) error
}
