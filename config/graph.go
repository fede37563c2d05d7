package config

import "time"

// GraphConfig controls the authenticated downstream call made by the
// userinfo page. Disabled by default so the portal works without Graph
// API permissions on the app registration.
type GraphConfig struct {
	// Enabled turns on the Graph /me fetch on the userinfo page.
	Enabled bool `env:"GRAPH_ENABLED" envDefault:"false"`

	// MeURL is the protected resource queried with the bearer token.
	MeURL string `env:"GRAPH_ME_URL" envDefault:"https://graph.microsoft.com/v1.0/me"`

	// Timeout covers connect and read for the downstream call.
	Timeout time.Duration `env:"GRAPH_TIMEOUT" envDefault:"3m"`
}
