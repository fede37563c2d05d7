package bootstrap

import (
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/entragate/entragate/config"
	"github.com/entragate/entragate/internal/adapters/oidc"
	redisadapter "github.com/entragate/entragate/internal/adapters/redis"
	"github.com/entragate/entragate/internal/apiclient"
	"github.com/entragate/entragate/internal/service"
)

// AuthDeps contains dependencies for building the auth service.
type AuthDeps struct {
	Auth        config.AuthConfig
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

// BuildAuthService wires the identity provider and session store into the
// auth service. Misconfiguration is fatal: login is the whole point of the
// service, so there is no degraded mode.
func BuildAuthService(deps AuthDeps) (*service.AuthService, error) {
	if deps.RedisClient == nil {
		return nil, fmt.Errorf("redis client is required")
	}

	provider, err := oidc.NewProvider(oidc.ProviderConfig{
		Authority:    deps.Auth.Authority(),
		ClientID:     deps.Auth.ClientID,
		ClientSecret: deps.Auth.ClientSecret,
		Scopes:       deps.Auth.Scopes,
		Timeout:      deps.Auth.ProviderTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("create identity provider: %w", err)
	}

	sessionStore := redisadapter.NewSessionStore(deps.RedisClient)

	return service.NewAuthService(service.AuthServiceOptions{
		Provider:        provider,
		Sessions:        sessionStore,
		Scopes:          deps.Auth.Scopes,
		SessionDuration: deps.Auth.SessionDuration,
		LoginStateTTL:   deps.Auth.LoginStateTTL,
	}), nil
}

// BuildGraphClient creates the authenticated downstream API client when the
// Graph integration is enabled. Returns nil when disabled.
func BuildGraphClient(cfg config.GraphConfig, authSvc *service.AuthService) (*apiclient.Client, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	client, err := apiclient.New(apiclient.Options{
		Tokens:  authSvc,
		Timeout: cfg.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("create graph client: %w", err)
	}
	return client, nil
}
