package httpx

import (
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	domainauth "github.com/entragate/entragate/internal/domain/auth"
)

// Logging returns a middleware that logs HTTP requests and responses.
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			const defaultHTTPStatus = 200
			ww := &respWriter{ResponseWriter: w, status: defaultHTTPStatus}
			next.ServeHTTP(ww, r)
			logger.Info("http",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.status),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}

type respWriter struct {
	http.ResponseWriter
	status int
}

func (w *respWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Recover returns a middleware that recovers from panics and logs them.
func Recover(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.Error("panic",
						slog.Any("error", err),
						slog.String("path", r.URL.Path),
						slog.String("method", r.Method),
						slog.String("stack", string(debug.Stack())))
					http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// loginPath is where unauthenticated browsers are sent. The originally
// requested URL is not carried along; after login everyone lands on the
// configured landing path.
const loginPath = "/auth/login"

// RequireSession returns the access guard: if the session has no
// authenticated user it short-circuits with a redirect to the login entry,
// otherwise the claims go into the request context and the wrapped handler
// runs. It checks presence only; role sufficiency is RequireRole's job.
func RequireSession(authSvc AuthServiceInterface) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := claimsFromRequest(r, authSvc)
			if claims == nil {
				unauthenticated(w, r)
				return
			}

			ctx := SetClaimsInContext(r.Context(), claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole layers a role predicate on top of the session guard for
// routes that need more than presence, e.g. admin-only pages.
func RequireRole(authSvc AuthServiceInterface, allowed func(domainauth.Claims) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := claimsFromRequest(r, authSvc)
			if claims == nil {
				unauthenticated(w, r)
				return
			}

			if !allowed(*claims) {
				if wantsJSON(r) {
					WriteError(w, ErrorParams{
						Code:    http.StatusForbidden,
						ErrCode: "insufficient_role",
						Err:     errors.New("you don't have permission to access this resource"),
					})
					return
				}
				http.Error(w, "Access Denied: You don't have permission to access this resource", http.StatusForbidden)
				return
			}

			ctx := SetClaimsInContext(r.Context(), claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// unauthenticated answers a missing or signed-out session: browsers get
// the login redirect, JSON clients get a 401 body they can act on.
func unauthenticated(w http.ResponseWriter, r *http.Request) {
	if wantsJSON(r) {
		WriteError(w, ErrorParams{
			Code:    http.StatusUnauthorized,
			ErrCode: "authentication_required",
			Err:     errors.New("sign in to access this resource"),
		})
		return
	}
	http.Redirect(w, r, loginPath, http.StatusFound)
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

// claimsFromRequest resolves the session cookie to authenticated claims,
// or nil when there is no usable session.
func claimsFromRequest(r *http.Request, authSvc AuthServiceInterface) *domainauth.Claims {
	sid := sessionIDFromRequest(r)
	if sid == "" {
		return nil
	}

	claims, err := authSvc.CurrentUser(r.Context(), sid)
	if err != nil {
		return nil
	}
	return claims
}
