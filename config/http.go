package config

import "strings"

// HTTPConfig contains HTTP server configuration.
type HTTPConfig struct {
	// Addr is the address to bind the HTTP server to.
	Addr string `env:"HTTP_ADDR" envDefault:":8080"`

	// CookieDomain is the domain for session cookies.
	// Leave empty to use the request domain.
	CookieDomain string `env:"APP_COOKIE_DOMAIN" envDefault:""`

	// LandingPath is where successful logins land. The originally requested
	// URL is not restored after login; every login ends at this fixed path.
	LandingPath string `env:"APP_LANDING_PATH" envDefault:"/"`
}

// Sanitize applies guardrails to HTTP configuration values.
func (h *HTTPConfig) Sanitize() {
	if !strings.HasPrefix(h.LandingPath, "/") {
		h.LandingPath = "/"
	}
}
