package httpx

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/entragate/entragate/config"
	domainauth "github.com/entragate/entragate/internal/domain/auth"
	"github.com/entragate/entragate/internal/service"
)

const (
	callbackPath       = "/auth/signin-oidc"
	logoutCompletePath = "/auth/logout-complete"
)

// AuthServiceInterface defines the auth service operations the handlers
// and guards consume.
type AuthServiceInterface interface {
	BeginLogin(ctx context.Context, sessionID, redirectURI string) (string, error)
	CompleteLogin(ctx context.Context, sessionID string, in service.CompleteLoginInput) (*service.CompleteLoginResult, error)
	CurrentUser(ctx context.Context, sessionID string) (*domainauth.Claims, error)
	Logout(ctx context.Context, sessionID string) error
	LogoutURL(postLogoutRedirectURI string) string
}

// AuthHandlers provides HTTP handlers for the login flow endpoints.
type AuthHandlers struct {
	Svc          AuthServiceInterface
	Renderer     *TemplateRenderer
	Scheme       config.Scheme
	CookieDomain string
	LandingPath  string

	// IsDev relaxes cookie security: the configured https scheme stops
	// forcing the Secure attribute, so plain-http local logins work.
	IsDev  bool
	Logger *slog.Logger
}

func (h *AuthHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

func (h *AuthHandlers) landingPath() string {
	if h.LandingPath == "" {
		return "/"
	}
	return h.LandingPath
}

// externalURL builds an absolute URL for a path using the configured
// scheme and the request host. The callback redirect URI must come out
// byte-identical at login and at the exchange, or the provider rejects it.
func (h *AuthHandlers) externalURL(r *http.Request, path string) string {
	scheme := string(h.Scheme)
	if scheme == "" {
		scheme = "https"
	}
	return scheme + "://" + r.Host + path
}

// cookieSecure decides the session cookie's Secure attribute. An https
// deployment always marks the cookie Secure, even when a proxy strips the
// forwarding header; otherwise the request itself is inspected.
func (h *AuthHandlers) cookieSecure(r *http.Request) bool {
	if !h.IsDev && h.Scheme == config.SchemeHTTPS {
		return true
	}
	return isSecureRequest(r)
}

// Login handles GET /auth/login: mint a session if needed, stash a fresh
// CSRF state in it, and send the browser to the identity provider.
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	sid := ensureSessionID(w, r, h.CookieDomain, h.cookieSecure(r))

	authURL, err := h.Svc.BeginLogin(r.Context(), sid, h.externalURL(r, callbackPath))
	if err != nil {
		h.logger().ErrorContext(r.Context(), "begin login failed", "error", err)
		h.renderError(w, http.StatusInternalServerError, errorView{
			Code:        "login_failed",
			Description: "Could not start the sign-in flow. Please try again.",
		})
		return
	}

	// 307 keeps the redirect method-preserving.
	http.Redirect(w, r, authURL, http.StatusTemporaryRedirect)
}

// Callback handles GET /auth/signin-oidc, the redirect back from the
// provider with code/state (or error) query parameters. Success lands on
// the configured landing path; every failure variant gets its own view.
func (h *AuthHandlers) Callback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	result, err := h.Svc.CompleteLogin(r.Context(), sessionIDFromRequest(r), service.CompleteLoginInput{
		Code:             q.Get("code"),
		State:            q.Get("state"),
		ErrorCode:        q.Get("error"),
		ErrorDescription: q.Get("error_description"),
		RedirectURI:      h.externalURL(r, callbackPath),
	})
	if err != nil {
		h.renderCallbackError(w, r, err)
		return
	}

	h.logger().InfoContext(r.Context(), "user authentication successful",
		"name", result.Claims.Name,
		"preferred_username", result.Claims.PreferredUsername,
	)
	http.Redirect(w, r, h.landingPath(), http.StatusFound)
}

// Logout handles GET /auth/logout: destroy the server-side session record,
// clear the cookie, and send the browser to the tenant logout endpoint so
// the provider-side web session ends too.
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	h.logger().InfoContext(r.Context(), "logout requested")

	if sid := sessionIDFromRequest(r); sid != "" {
		if err := h.Svc.Logout(r.Context(), sid); err != nil {
			h.logger().WarnContext(r.Context(), "logout failed", "error", err)
		}
	}
	clearSessionCookie(w, r, h.CookieDomain, h.cookieSecure(r))

	http.Redirect(w, r, h.Svc.LogoutURL(h.externalURL(r, logoutCompletePath)), http.StatusFound)
}

// LogoutComplete handles GET /auth/logout-complete, the provider's
// post-logout redirect target.
func (h *AuthHandlers) LogoutComplete(w http.ResponseWriter, r *http.Request) {
	h.logger().InfoContext(r.Context(), "logout complete")
	h.Renderer.Render(w, http.StatusOK, "auth_logout.html", logoutView{LandingPath: h.landingPath()})
}

// Ping handles GET /auth/ping, a liveness check for the auth routes.
func (h *AuthHandlers) Ping(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if _, err := w.Write([]byte("auth routes are up\n")); err != nil {
		return
	}
}

// errorView feeds the auth_error.html template.
type errorView struct {
	Code        string
	Description string
	LandingPath string
}

type logoutView struct {
	LandingPath string
}

func (h *AuthHandlers) renderError(w http.ResponseWriter, code int, view errorView) {
	view.LandingPath = h.landingPath()
	h.Renderer.Render(w, code, "auth_error.html", view)
}

// renderCallbackError maps the callback error taxonomy to views: forged
// state, provider failures, and role denials each read differently.
func (h *AuthHandlers) renderCallbackError(w http.ResponseWriter, r *http.Request, err error) {
	var provider *domainauth.ProviderError
	var denied *domainauth.AccessDeniedError

	switch {
	case errors.Is(err, domainauth.ErrStateMismatch):
		h.logger().WarnContext(r.Context(), "callback state mismatch")
		h.renderError(w, http.StatusBadRequest, errorView{
			Code:        "state_mismatch",
			Description: "The sign-in response did not match this browser session. Please sign in again.",
		})
	case errors.As(err, &provider):
		h.logger().WarnContext(r.Context(), "identity provider returned error",
			"code", provider.Code, "description", provider.Description)
		h.renderError(w, http.StatusBadGateway, errorView{
			Code:        provider.Code,
			Description: provider.Description,
		})
	case errors.As(err, &denied):
		h.logger().WarnContext(r.Context(), "login denied", "reason", denied.Reason)
		h.renderError(w, http.StatusForbidden, errorView{
			Code:        "access_denied",
			Description: denied.Reason,
		})
	default:
		h.logger().ErrorContext(r.Context(), "login completion failed", "error", err)
		h.renderError(w, http.StatusInternalServerError, errorView{
			Code:        "login_failed",
			Description: "Authentication failed. Please try again.",
		})
	}
}
