package config

// AppConfig is the main application configuration struct that composes
// domain-specific configuration from separate files.
//
// Configuration is loaded from environment variables using the
// github.com/caarlos0/env library. See individual domain config
// files for details on available environment variables:
//   - auth.go: Entra ID authentication configuration (MSAL_*)
//   - redis.go: session store configuration (REDIS_*)
//   - http.go: HTTP server configuration
//   - graph.go: downstream Graph call configuration
type AppConfig struct {
	// IsDev relaxes cookie security for plain-http local development.
	IsDev bool `env:"DEV" envDefault:"false"`

	// Auth holds the identity provider settings. Any missing value is a
	// startup-time configuration error, never a runtime one.
	Auth AuthConfig `envPrefix:"MSAL_"`

	// Redis holds the session store connection settings.
	Redis RedisConfig `envPrefix:"REDIS_"`

	// HTTP server configuration.
	HTTP HTTPConfig

	// Graph downstream call configuration.
	Graph GraphConfig
}

// Sanitize applies guardrails to configuration values loaded from env.
// This should be called after loading configuration from environment variables.
func (c *AppConfig) Sanitize() {
	c.HTTP.Sanitize()
}
