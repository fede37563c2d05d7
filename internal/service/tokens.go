package service

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/oauth2"

	domainauth "github.com/entragate/entragate/internal/domain/auth"
	"github.com/entragate/entragate/internal/domain/tokencache"
	"github.com/entragate/entragate/internal/ports"
)

// AcquireToken performs a cache-first, silent token acquisition for the
// session. The cache is written back afterward regardless of the attempt's
// outcome — but only when it actually changed, so repeated silent calls
// against a warm cache cost no session writes.
//
// It never triggers a redirect; domainauth.ErrSilentAuthFailed tells the
// caller to force a fresh interactive login.
func (s *AuthService) AcquireToken(ctx context.Context, sessionID string, scopes []string) (*oauth2.Token, error) {
	if sessionID == "" {
		return nil, domainauth.ErrSilentAuthFailed
	}
	if len(scopes) == 0 {
		scopes = s.scopes
	}

	rec, err := s.sessions.Get(ctx, sessionID)
	switch {
	case errors.Is(err, ports.ErrSessionNotFound):
		return nil, domainauth.ErrSilentAuthFailed
	case err != nil:
		return nil, fmt.Errorf("get session: %w", err)
	}

	cache, err := tokencache.Deserialize(rec.TokenCache)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domainauth.ErrSilentAuthFailed, err)
	}

	tok, acquireErr := s.provider.AcquireSilent(ctx, cache, scopes)

	if saveErr := s.saveCache(ctx, rec, cache); saveErr != nil {
		if acquireErr != nil {
			return nil, acquireErr
		}
		return nil, fmt.Errorf("save token cache: %w", saveErr)
	}

	return tok, acquireErr
}

// saveCache writes the serialized cache into the session record. A cache
// whose changed flag is clear produces no session write at all.
func (s *AuthService) saveCache(ctx context.Context, rec domainauth.SessionRecord, cache *tokencache.Cache) error {
	if !cache.HasChanged() {
		return nil
	}
	serialized, err := cache.Serialize()
	if err != nil {
		return err
	}
	rec.TokenCache = serialized
	return s.sessions.Save(ctx, rec)
}
