package auth

// Package auth contains simple hand-written test doubles for the auth
// ports. Lightweight, deterministic, no codegen.

import (
	"context"
	"errors"
	"time"

	"golang.org/x/oauth2"

	domainauth "github.com/entragate/entragate/internal/domain/auth"
	"github.com/entragate/entragate/internal/domain/tokencache"
	"github.com/entragate/entragate/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.IdentityProvider = (*MockIdentityProvider)(nil)
	_ ports.SessionStore     = (*MemorySessionStore)(nil)
)

// MockIdentityProvider simulates the IdP. Call counters let tests assert
// that forged callbacks never reach the token exchange.
type MockIdentityProvider struct {
	AuthCodeURLFunc   func(state, redirectURI string) string
	ExchangeFunc      func(ctx context.Context, code, redirectURI string) (ports.ExchangeResult, error)
	AcquireSilentFunc func(ctx context.Context, cache *tokencache.Cache, scopes []string) (*oauth2.Token, error)
	LogoutURLFunc     func(postLogoutRedirectURI string) string

	ExchangeCalls      int
	AcquireSilentCalls int

	// DefaultClaims is returned by the default Exchange behavior.
	DefaultClaims domainauth.Claims
}

// NewMockIdentityProvider creates a provider double with a read-access user.
func NewMockIdentityProvider() *MockIdentityProvider {
	return &MockIdentityProvider{
		DefaultClaims: domainauth.Claims{
			Name:              "Mock User",
			PreferredUsername: "mock.user@example.com",
			Roles:             []string{"Portal.Read"},
		},
	}
}

func (m *MockIdentityProvider) AuthCodeURL(state, redirectURI string) string {
	if m.AuthCodeURLFunc != nil {
		return m.AuthCodeURLFunc(state, redirectURI)
	}
	return "https://mock-idp/authorize?state=" + state + "&redirect_uri=" + redirectURI
}

func (m *MockIdentityProvider) Exchange(ctx context.Context, code, redirectURI string) (ports.ExchangeResult, error) {
	m.ExchangeCalls++
	if m.ExchangeFunc != nil {
		return m.ExchangeFunc(ctx, code, redirectURI)
	}
	return ports.ExchangeResult{
		Claims: m.DefaultClaims,
		Token: &oauth2.Token{
			AccessToken:  "mock-access-token",
			RefreshToken: "mock-refresh-token",
			Expiry:       time.Now().Add(time.Hour),
		},
		Account: tokencache.Account{
			HomeAccountID: "mock-oid.mock-tid",
			Username:      m.DefaultClaims.PreferredUsername,
		},
	}, nil
}

func (m *MockIdentityProvider) AcquireSilent(ctx context.Context, cache *tokencache.Cache, scopes []string) (*oauth2.Token, error) {
	m.AcquireSilentCalls++
	if m.AcquireSilentFunc != nil {
		return m.AcquireSilentFunc(ctx, cache, scopes)
	}
	if len(cache.Accounts()) == 0 {
		return nil, domainauth.ErrSilentAuthFailed
	}
	tok, ok := cache.Lookup(scopes)
	if !ok {
		return nil, domainauth.ErrSilentAuthFailed
	}
	return tok, nil
}

func (m *MockIdentityProvider) LogoutURL(postLogoutRedirectURI string) string {
	if m.LogoutURLFunc != nil {
		return m.LogoutURLFunc(postLogoutRedirectURI)
	}
	return "https://mock-idp/logout?post_logout_redirect_uri=" + postLogoutRedirectURI
}

// MemorySessionStore is an in-memory session store for unit tests. It
// counts writes so tests can assert that an unchanged token cache causes
// no session write.
type MemorySessionStore struct {
	sessions map[string]domainauth.SessionRecord

	SaveCalls   int
	DeleteCalls int
}

// NewMemorySessionStore creates a new in-memory session store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string]domainauth.SessionRecord)}
}

func (m *MemorySessionStore) Save(_ context.Context, rec domainauth.SessionRecord) error {
	if rec.ID == "" {
		return errors.New("session ID cannot be empty")
	}
	m.SaveCalls++
	m.sessions[rec.ID] = rec
	return nil
}

func (m *MemorySessionStore) Get(_ context.Context, id string) (domainauth.SessionRecord, error) {
	if id == "" {
		return domainauth.SessionRecord{}, ports.ErrSessionNotFound
	}
	rec, ok := m.sessions[id]
	if !ok {
		return domainauth.SessionRecord{}, ports.ErrSessionNotFound
	}
	return rec, nil
}

func (m *MemorySessionStore) Delete(_ context.Context, id string) error {
	if id == "" {
		return nil
	}
	m.DeleteCalls++
	delete(m.sessions, id)
	return nil
}

// Record returns the stored record directly, for assertions.
func (m *MemorySessionStore) Record(id string) (domainauth.SessionRecord, bool) {
	rec, ok := m.sessions[id]
	return rec, ok
}
