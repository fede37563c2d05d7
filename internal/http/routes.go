package httpx

import (
	"log/slog"
	"net/http"

	"github.com/entragate/entragate/config"
	domainauth "github.com/entragate/entragate/internal/domain/auth"
)

// RouterServices holds everything the HTTP router needs.
type RouterServices struct {
	Auth         AuthServiceInterface
	Graph        GraphClient
	GraphEnabled bool
	GraphMeURL   string
	Scheme       config.Scheme
	CookieDomain string
	LandingPath  string
	IsDev        bool
	Logger       *slog.Logger
}

// NewRouter wires the auth flow endpoints, the guarded pages, and health.
func NewRouter(services RouterServices) (http.Handler, error) {
	renderer, err := NewTemplateRenderer(services.Logger)
	if err != nil {
		return nil, err
	}

	authHandlers := &AuthHandlers{
		Svc:          services.Auth,
		Renderer:     renderer,
		Scheme:       services.Scheme,
		CookieDomain: services.CookieDomain,
		LandingPath:  services.LandingPath,
		IsDev:        services.IsDev,
		Logger:       services.Logger,
	}
	pageHandlers := &PageHandlers{
		Renderer:     renderer,
		Graph:        services.Graph,
		GraphEnabled: services.GraphEnabled,
		GraphMeURL:   services.GraphMeURL,
		Logger:       services.Logger,
	}

	mux := http.NewServeMux()

	mux.Handle("GET /auth/login", http.HandlerFunc(authHandlers.Login))
	mux.Handle("GET /auth/signin-oidc", http.HandlerFunc(authHandlers.Callback))
	mux.Handle("GET /auth/logout", http.HandlerFunc(authHandlers.Logout))
	mux.Handle("GET /auth/logout-complete", http.HandlerFunc(authHandlers.LogoutComplete))
	mux.Handle("GET /auth/ping", http.HandlerFunc(authHandlers.Ping))

	guard := RequireSession(services.Auth)
	adminGuard := RequireRole(services.Auth, domainauth.Claims.HasAdminAccess)

	mux.Handle("GET /{$}", http.HandlerFunc(pageHandlers.Index))
	mux.Handle("GET /protected", guard(http.HandlerFunc(pageHandlers.Protected)))
	mux.Handle("GET /userinfo", guard(http.HandlerFunc(pageHandlers.UserInfo)))
	mux.Handle("GET /admin/", adminGuard(http.HandlerFunc(pageHandlers.Admin)))

	mux.Handle("GET /healthz", http.HandlerFunc(healthHandler))
	mux.Handle("HEAD /healthz", http.HandlerFunc(healthHandler))

	return mux, nil
}
