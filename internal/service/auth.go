package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	domainauth "github.com/entragate/entragate/internal/domain/auth"
	"github.com/entragate/entragate/internal/domain/tokencache"
	"github.com/entragate/entragate/internal/ports"
)

// AuthServiceOptions groups dependencies for AuthService.
type AuthServiceOptions struct {
	Provider ports.IdentityProvider
	Sessions ports.SessionStore

	// Scopes are the resource scopes requested at login and used as the
	// token cache key. Defaults to User.Read.
	Scopes []string

	// SessionDuration bounds authenticated records; default 8h.
	SessionDuration time.Duration

	// LoginStateTTL bounds pre-auth records holding only the CSRF state;
	// default 10m.
	LoginStateTTL time.Duration
}

// AuthService orchestrates the login flow: redirect construction, callback
// validation, code exchange, role check, session establishment, logout.
// It renders nothing; handlers translate its results into redirects and
// error views.
type AuthService struct {
	provider        ports.IdentityProvider
	sessions        ports.SessionStore
	scopes          []string
	sessionDuration time.Duration
	loginStateTTL   time.Duration
}

// NewAuthService constructs a new AuthService.
func NewAuthService(opts AuthServiceOptions) *AuthService {
	scopes := opts.Scopes
	if len(scopes) == 0 {
		scopes = []string{"User.Read"}
	}
	sessionDuration := opts.SessionDuration
	if sessionDuration <= 0 {
		sessionDuration = 8 * time.Hour
	}
	loginStateTTL := opts.LoginStateTTL
	if loginStateTTL <= 0 {
		loginStateTTL = 10 * time.Minute
	}
	return &AuthService{
		provider:        opts.Provider,
		sessions:        opts.Sessions,
		scopes:          scopes,
		sessionDuration: sessionDuration,
		loginStateTTL:   loginStateTTL,
	}
}

// BeginLogin stores a fresh CSRF state in the session record and returns
// the provider authorization URL to redirect to. redirectURI must be the
// absolute URL of the signin-oidc callback; the exchange later repeats it.
func (s *AuthService) BeginLogin(ctx context.Context, sessionID, redirectURI string) (string, error) {
	if sessionID == "" {
		return "", errors.New("session ID is required")
	}
	if redirectURI == "" {
		return "", errors.New("redirect URI is required")
	}

	rec, err := s.sessions.Get(ctx, sessionID)
	switch {
	case errors.Is(err, ports.ErrSessionNotFound):
		rec = domainauth.SessionRecord{ID: sessionID}
	case err != nil:
		return "", fmt.Errorf("get session: %w", err)
	}

	state := uuid.NewString()
	rec.CSRFState = state
	if time.Until(rec.ExpiresAt) < s.loginStateTTL {
		rec.ExpiresAt = time.Now().Add(s.loginStateTTL)
	}

	if saveErr := s.sessions.Save(ctx, rec); saveErr != nil {
		return "", fmt.Errorf("save session: %w", saveErr)
	}

	return s.provider.AuthCodeURL(state, redirectURI), nil
}

// CompleteLoginInput groups the callback query parameters. RedirectURI
// must be the exact value passed to BeginLogin.
type CompleteLoginInput struct {
	Code             string
	State            string
	ErrorCode        string
	ErrorDescription string
	RedirectURI      string
}

// CompleteLoginResult contains the claims of the now-authenticated user.
type CompleteLoginResult struct {
	Claims domainauth.Claims
}

// CompleteLogin validates the callback and establishes the session:
//
//  1. A provider error parameter short-circuits as *ProviderError.
//  2. The state must match the stored CSRF nonce or the exchange is never
//     attempted (ErrStateMismatch).
//  3. The code is exchanged; exchange-level provider errors pass through.
//  4. The identity must hold at least read access (*AccessDeniedError).
//  5. Claims and the updated token cache are persisted in one Save.
//
// Two tabs completing callbacks for the same session race last-write-wins
// on the record; the store does not coordinate them.
func (s *AuthService) CompleteLogin(ctx context.Context, sessionID string, in CompleteLoginInput) (*CompleteLoginResult, error) {
	if in.ErrorCode != "" {
		return nil, &domainauth.ProviderError{Code: in.ErrorCode, Description: in.ErrorDescription}
	}
	if sessionID == "" {
		return nil, domainauth.ErrStateMismatch
	}

	rec, err := s.sessions.Get(ctx, sessionID)
	switch {
	case errors.Is(err, ports.ErrSessionNotFound):
		// No record means no stored nonce; a forged or replayed callback.
		return nil, domainauth.ErrStateMismatch
	case err != nil:
		return nil, fmt.Errorf("get session: %w", err)
	}

	if rec.CSRFState == "" || in.State != rec.CSRFState {
		return nil, domainauth.ErrStateMismatch
	}
	if in.Code == "" {
		return nil, errors.New("authorization code is required")
	}

	cache, err := tokencache.Deserialize(rec.TokenCache)
	if err != nil {
		// A corrupted cache must not block an interactive login.
		cache = tokencache.New()
	}

	result, err := s.provider.Exchange(ctx, in.Code, in.RedirectURI)
	if err != nil {
		return nil, err
	}

	claims := result.Claims
	if !claims.HasReadAccess() {
		return nil, &domainauth.AccessDeniedError{
			Reason: "user does not have at least read access to this application",
		}
	}

	cache.SetAccount(result.Account)
	cache.Put(s.scopes, result.Token)
	serialized, err := cache.Serialize()
	if err != nil {
		return nil, err
	}

	rec.User = &claims
	rec.TokenCache = serialized
	rec.CSRFState = "" // single-use nonce, consumed
	rec.ExpiresAt = time.Now().Add(s.sessionDuration)

	if saveErr := s.sessions.Save(ctx, rec); saveErr != nil {
		return nil, fmt.Errorf("save session: %w", saveErr)
	}

	return &CompleteLoginResult{Claims: claims}, nil
}

// CurrentUser returns the session's claims, or nil when the session does
// not exist or has not completed a login.
func (s *AuthService) CurrentUser(ctx context.Context, sessionID string) (*domainauth.Claims, error) {
	if sessionID == "" {
		return nil, nil
	}
	rec, err := s.sessions.Get(ctx, sessionID)
	switch {
	case errors.Is(err, ports.ErrSessionNotFound):
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("get session: %w", err)
	}
	if !rec.Authenticated() {
		return nil, nil
	}
	return rec.User, nil
}

// Logout destroys the entire session record: claims, CSRF state, and the
// token cache all go at once.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil // Nothing to log out
	}
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// LogoutURL builds the provider logout URL with a post-logout redirect
// back to the logout-complete page.
func (s *AuthService) LogoutURL(postLogoutRedirectURI string) string {
	return s.provider.LogoutURL(postLogoutRedirectURI)
}
