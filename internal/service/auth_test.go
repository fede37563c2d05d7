package service

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/entragate/entragate/internal/domain/auth"
	mocks "github.com/entragate/entragate/internal/mocks/auth"
	"github.com/entragate/entragate/internal/ports"
)

const (
	testSessionID   = "11111111-2222-3333-4444-555555555555"
	testRedirectURI = "https://portal.example.com/auth/signin-oidc"
)

func newTestService(t *testing.T) (*AuthService, *mocks.MockIdentityProvider, *mocks.MemorySessionStore) {
	t.Helper()
	provider := mocks.NewMockIdentityProvider()
	sessions := mocks.NewMemorySessionStore()
	svc := NewAuthService(AuthServiceOptions{
		Provider: provider,
		Sessions: sessions,
	})
	return svc, provider, sessions
}

// beginLogin runs the start of the flow and returns the state the service
// stored for the session.
func beginLogin(t *testing.T, svc *AuthService, sessions *mocks.MemorySessionStore) string {
	t.Helper()
	_, err := svc.BeginLogin(context.Background(), testSessionID, testRedirectURI)
	require.NoError(t, err)

	rec, ok := sessions.Record(testSessionID)
	require.True(t, ok)
	require.NotEmpty(t, rec.CSRFState)
	return rec.CSRFState
}

func TestNewAuthServiceDefaults(t *testing.T) {
	svc, _, _ := newTestService(t)

	assert.Equal(t, []string{"User.Read"}, svc.scopes)
	assert.Equal(t, 8*time.Hour, svc.sessionDuration)
	assert.Equal(t, 10*time.Minute, svc.loginStateTTL)
}

func TestBeginLoginStoresStateAndBuildsURL(t *testing.T) {
	svc, _, sessions := newTestService(t)

	authURL, err := svc.BeginLogin(context.Background(), testSessionID, testRedirectURI)
	require.NoError(t, err)

	rec, ok := sessions.Record(testSessionID)
	require.True(t, ok)
	assert.NotEmpty(t, rec.CSRFState)
	assert.Nil(t, rec.User)
	assert.True(t, rec.ExpiresAt.After(time.Now()))

	parsed, err := url.Parse(authURL)
	require.NoError(t, err)
	assert.Equal(t, rec.CSRFState, parsed.Query().Get("state"))
	assert.Equal(t, testRedirectURI, parsed.Query().Get("redirect_uri"))
}

func TestBeginLoginRotatesState(t *testing.T) {
	svc, _, sessions := newTestService(t)

	first := beginLogin(t, svc, sessions)
	second := beginLogin(t, svc, sessions)
	assert.NotEqual(t, first, second)
}

func TestBeginLoginEmptySessionID(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.BeginLogin(context.Background(), "", testRedirectURI)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "session ID is required")
}

func TestBeginLoginEmptyRedirectURI(t *testing.T) {
	svc, _, _ := newTestService(t)

	_, err := svc.BeginLogin(context.Background(), testSessionID, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redirect URI is required")
}

func TestCompleteLoginSuccess(t *testing.T) {
	svc, _, sessions := newTestService(t)
	state := beginLogin(t, svc, sessions)

	result, err := svc.CompleteLogin(context.Background(), testSessionID, CompleteLoginInput{
		Code:        "auth-code",
		State:       state,
		RedirectURI: testRedirectURI,
	})
	require.NoError(t, err)
	assert.Equal(t, "Mock User", result.Claims.Name)

	rec, ok := sessions.Record(testSessionID)
	require.True(t, ok)
	require.NotNil(t, rec.User)
	assert.Equal(t, "mock.user@example.com", rec.User.PreferredUsername)
	assert.NotEmpty(t, rec.TokenCache)
	assert.Empty(t, rec.CSRFState, "nonce must be consumed")
	assert.True(t, rec.ExpiresAt.After(time.Now().Add(7*time.Hour)))
}

func TestCompleteLoginStateMismatchSkipsExchange(t *testing.T) {
	svc, provider, sessions := newTestService(t)
	beginLogin(t, svc, sessions)

	_, err := svc.CompleteLogin(context.Background(), testSessionID, CompleteLoginInput{
		Code:        "auth-code",
		State:       "forged-state",
		RedirectURI: testRedirectURI,
	})
	assert.ErrorIs(t, err, domainauth.ErrStateMismatch)
	assert.Equal(t, 0, provider.ExchangeCalls, "forged callbacks must never reach the exchange")
}

func TestCompleteLoginUnknownSession(t *testing.T) {
	svc, provider, _ := newTestService(t)

	_, err := svc.CompleteLogin(context.Background(), "no-such-session", CompleteLoginInput{
		Code:  "auth-code",
		State: "whatever",
	})
	assert.ErrorIs(t, err, domainauth.ErrStateMismatch)
	assert.Equal(t, 0, provider.ExchangeCalls)
}

func TestCompleteLoginStateIsSingleUse(t *testing.T) {
	svc, provider, sessions := newTestService(t)
	state := beginLogin(t, svc, sessions)

	in := CompleteLoginInput{Code: "auth-code", State: state, RedirectURI: testRedirectURI}
	_, err := svc.CompleteLogin(context.Background(), testSessionID, in)
	require.NoError(t, err)

	// Replaying the same callback must fail without a second exchange.
	_, err = svc.CompleteLogin(context.Background(), testSessionID, in)
	assert.ErrorIs(t, err, domainauth.ErrStateMismatch)
	assert.Equal(t, 1, provider.ExchangeCalls)
}

func TestCompleteLoginProviderErrorParameter(t *testing.T) {
	svc, provider, sessions := newTestService(t)
	beginLogin(t, svc, sessions)

	_, err := svc.CompleteLogin(context.Background(), testSessionID, CompleteLoginInput{
		ErrorCode:        "access_denied",
		ErrorDescription: "AADSTS65004: User declined consent.",
	})

	var provErr *domainauth.ProviderError
	require.ErrorAs(t, err, &provErr)
	assert.Equal(t, "access_denied", provErr.Code)
	assert.Contains(t, provErr.Description, "AADSTS65004")
	assert.Equal(t, 0, provider.ExchangeCalls)
}

func TestCompleteLoginMissingCode(t *testing.T) {
	svc, _, sessions := newTestService(t)
	state := beginLogin(t, svc, sessions)

	_, err := svc.CompleteLogin(context.Background(), testSessionID, CompleteLoginInput{
		State:       state,
		RedirectURI: testRedirectURI,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "authorization code is required")
}

func TestCompleteLoginExchangeProviderError(t *testing.T) {
	svc, provider, sessions := newTestService(t)
	state := beginLogin(t, svc, sessions)

	provider.ExchangeFunc = func(_ context.Context, _, _ string) (ports.ExchangeResult, error) {
		return ports.ExchangeResult{}, &domainauth.ProviderError{
			Code:        "invalid_grant",
			Description: "AADSTS70008: The provided authorization code is expired.",
		}
	}

	_, err := svc.CompleteLogin(context.Background(), testSessionID, CompleteLoginInput{
		Code:        "stale-code",
		State:       state,
		RedirectURI: testRedirectURI,
	})

	var provErr *domainauth.ProviderError
	require.ErrorAs(t, err, &provErr)
	assert.Equal(t, "invalid_grant", provErr.Code)
}

func TestCompleteLoginAccessDenied(t *testing.T) {
	svc, provider, sessions := newTestService(t)
	state := beginLogin(t, svc, sessions)

	provider.DefaultClaims = domainauth.Claims{
		Name:              "No Roles",
		PreferredUsername: "noroles@example.com",
		Roles:             nil,
	}

	_, err := svc.CompleteLogin(context.Background(), testSessionID, CompleteLoginInput{
		Code:        "auth-code",
		State:       state,
		RedirectURI: testRedirectURI,
	})

	var denied *domainauth.AccessDeniedError
	require.ErrorAs(t, err, &denied)
	assert.Contains(t, denied.Reason, "read access")

	// The session must stay unauthenticated.
	rec, ok := sessions.Record(testSessionID)
	require.True(t, ok)
	assert.Nil(t, rec.User)
}

func TestCurrentUser(t *testing.T) {
	svc, _, sessions := newTestService(t)
	ctx := context.Background()

	claims, err := svc.CurrentUser(ctx, "")
	require.NoError(t, err)
	assert.Nil(t, claims)

	claims, err = svc.CurrentUser(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, claims)

	state := beginLogin(t, svc, sessions)

	// Pending login is not authenticated yet.
	claims, err = svc.CurrentUser(ctx, testSessionID)
	require.NoError(t, err)
	assert.Nil(t, claims)

	_, err = svc.CompleteLogin(ctx, testSessionID, CompleteLoginInput{
		Code: "auth-code", State: state, RedirectURI: testRedirectURI,
	})
	require.NoError(t, err)

	claims, err = svc.CurrentUser(ctx, testSessionID)
	require.NoError(t, err)
	require.NotNil(t, claims)
	assert.Equal(t, "Mock User", claims.Name)
}

func TestLogoutDeletesSession(t *testing.T) {
	svc, _, sessions := newTestService(t)
	ctx := context.Background()
	state := beginLogin(t, svc, sessions)

	_, err := svc.CompleteLogin(ctx, testSessionID, CompleteLoginInput{
		Code: "auth-code", State: state, RedirectURI: testRedirectURI,
	})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, testSessionID))

	_, ok := sessions.Record(testSessionID)
	assert.False(t, ok)
	assert.Equal(t, 1, sessions.DeleteCalls)
}

func TestLogoutEmptySessionID(t *testing.T) {
	svc, _, sessions := newTestService(t)

	require.NoError(t, svc.Logout(context.Background(), ""))
	assert.Equal(t, 0, sessions.DeleteCalls)
}

func TestLogoutURLDelegatesToProvider(t *testing.T) {
	svc, _, _ := newTestService(t)

	u := svc.LogoutURL("https://portal.example.com/auth/logout-complete")
	assert.True(t, strings.HasPrefix(u, "https://mock-idp/logout?"))
	assert.Contains(t, u, "logout-complete")
}

func TestCompleteLoginSessionStoreError(t *testing.T) {
	provider := mocks.NewMockIdentityProvider()
	storeErr := errors.New("redis down")
	svc := NewAuthService(AuthServiceOptions{
		Provider: provider,
		Sessions: &mockSessionStore{
			getFunc: func(context.Context, string) (domainauth.SessionRecord, error) {
				return domainauth.SessionRecord{}, storeErr
			},
		},
	})

	_, err := svc.CompleteLogin(context.Background(), testSessionID, CompleteLoginInput{
		Code: "auth-code", State: "state",
	})
	assert.ErrorIs(t, err, storeErr)
}

// mockSessionStore is a test helper for injecting session store errors.
type mockSessionStore struct {
	saveFunc   func(context.Context, domainauth.SessionRecord) error
	getFunc    func(context.Context, string) (domainauth.SessionRecord, error)
	deleteFunc func(context.Context, string) error
}

func (m *mockSessionStore) Save(ctx context.Context, rec domainauth.SessionRecord) error {
	if m.saveFunc != nil {
		return m.saveFunc(ctx, rec)
	}
	return nil
}

func (m *mockSessionStore) Get(ctx context.Context, id string) (domainauth.SessionRecord, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, id)
	}
	return domainauth.SessionRecord{}, nil
}

func (m *mockSessionStore) Delete(ctx context.Context, id string) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, id)
	}
	return nil
}
