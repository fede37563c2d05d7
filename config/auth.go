package config

import (
	"fmt"
	"strings"
	"time"
)

// Scheme is the URL scheme used when building the signin-oidc redirect URI.
type Scheme string

const (
	SchemeHTTP  Scheme = "http"
	SchemeHTTPS Scheme = "https"
)

// UnmarshalText implements encoding.TextUnmarshaler for Scheme.
func (s *Scheme) UnmarshalText(text []byte) error {
	v := strings.ToLower(string(text))
	switch v {
	case "http", "https":
		*s = Scheme(v)
		return nil
	default:
		return fmt.Errorf("invalid Scheme: %q (valid options: http, https)", v)
	}
}

// AuthConfig contains the Microsoft identity platform (Entra ID) settings.
// The four MSAL_* values are required; the process refuses to start without them.
type AuthConfig struct {
	// Tenant is the Entra ID tenant (directory), a GUID or domain name.
	Tenant string `env:"TENANT,required,notEmpty"`

	// ClientID is the app registration's application (client) ID.
	ClientID string `env:"CLIENT_ID,required,notEmpty"`

	// ClientSecret is the app registration's client secret.
	ClientSecret string `env:"CLIENT_SECRET,required,notEmpty"`

	// Scheme should always be https outside local development.
	Scheme Scheme `env:"HTTPS_SCHEME,required,notEmpty"`

	// Scopes are the resource scopes requested at login.
	// User.Read is enough to receive the app roles for the registration.
	Scopes []string `env:"SCOPES" envDefault:"User.Read" envSeparator:" "`

	// SessionDuration bounds how long an authenticated session record lives.
	SessionDuration time.Duration `env:"SESSION_DURATION" envDefault:"8h"`

	// LoginStateTTL bounds the pre-auth record that holds the CSRF state.
	LoginStateTTL time.Duration `env:"LOGIN_STATE_TTL" envDefault:"10m"`

	// ProviderTimeout caps outbound calls to the identity provider.
	ProviderTimeout time.Duration `env:"PROVIDER_TIMEOUT" envDefault:"3m"`
}

// Authority returns the tenant's authorization authority base URL.
func (c AuthConfig) Authority() string {
	return "https://login.microsoftonline.com/" + c.Tenant
}
