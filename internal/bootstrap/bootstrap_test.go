package bootstrap

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entragate/entragate/config"
	"github.com/entragate/entragate/internal/testutil"
)

func TestLoadConfig(t *testing.T) {
	t.Setenv("MSAL_TENANT", "contoso.onmicrosoft.com")
	t.Setenv("MSAL_CLIENT_ID", "client-id")
	t.Setenv("MSAL_CLIENT_SECRET", "secret")
	t.Setenv("MSAL_HTTPS_SCHEME", "https")
	t.Setenv("APP_LANDING_PATH", "no-leading-slash")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "contoso.onmicrosoft.com", cfg.Auth.Tenant)
	assert.Equal(t, "/", cfg.HTTP.LandingPath, "Sanitize must reject unrooted paths")
}

func TestLoadConfigMissingRequired(t *testing.T) {
	t.Setenv("MSAL_TENANT", "contoso.onmicrosoft.com")
	t.Setenv("MSAL_CLIENT_ID", "")
	t.Setenv("MSAL_CLIENT_SECRET", "secret")
	t.Setenv("MSAL_HTTPS_SCHEME", "https")

	_, err := LoadConfig()
	require.Error(t, err)
}

func TestConnectRedis(t *testing.T) {
	_, mr := testutil.SetupTestRedis(t)

	client, err := ConnectRedis(config.RedisConfig{Addr: mr.Addr()}, slog.Default())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	assert.NoError(t, client.Ping(t.Context()).Err())
}

func TestConnectRedisUnreachable(t *testing.T) {
	_, err := ConnectRedis(config.RedisConfig{Addr: "127.0.0.1:1"}, slog.Default())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ping redis")
}

func TestBuildAuthServiceRequiresRedis(t *testing.T) {
	_, err := BuildAuthService(AuthDeps{Auth: config.AuthConfig{Tenant: "t"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis client is required")
}

func TestBuildGraphClientDisabled(t *testing.T) {
	client, err := BuildGraphClient(config.GraphConfig{Enabled: false}, nil)
	require.NoError(t, err)
	assert.Nil(t, client)
}

func TestBuildServer(t *testing.T) {
	cfg := &config.AppConfig{
		Auth: config.AuthConfig{ProviderTimeout: 3 * time.Minute},
		HTTP: config.HTTPConfig{Addr: ":9090", LandingPath: "/"},
	}

	server, err := BuildServer(ServerDeps{Config: cfg, Logger: slog.Default()})
	require.NoError(t, err)
	assert.Equal(t, ":9090", server.Addr)
	assert.NotNil(t, server.Handler)
	assert.Greater(t, server.WriteTimeout, cfg.Auth.ProviderTimeout)
}

func TestBuildServerDefaultAddr(t *testing.T) {
	cfg := &config.AppConfig{}
	server, err := BuildServer(ServerDeps{Config: cfg, Logger: slog.Default()})
	require.NoError(t, err)
	assert.Equal(t, ":8080", server.Addr)
}
