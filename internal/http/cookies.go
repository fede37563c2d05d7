package httpx

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// sessionCookieName carries the opaque session identifier. The identifier
// is the only thing the browser holds; everything else lives server-side.
const sessionCookieName = "session_id"

// sessionIDFromRequest returns the session identifier from the cookie, or
// empty when the browser has none yet.
func sessionIDFromRequest(r *http.Request) string {
	c, err := r.Cookie(sessionCookieName)
	if err != nil {
		return ""
	}
	return c.Value
}

// ensureSessionID returns the request's session identifier, minting and
// setting a fresh one when the browser has none. The record TTL in the
// store, not the cookie, bounds the session's validity.
func ensureSessionID(w http.ResponseWriter, r *http.Request, cookieDomain string, secure bool) string {
	if sid := sessionIDFromRequest(r); sid != "" {
		return sid
	}

	sid := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    sid,
		Path:     "/",
		Domain:   cookieDomain,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
	return sid
}

// clearSessionCookie expires the session cookie, mirroring the attributes
// used when setting it so browsers actually delete it.
func clearSessionCookie(w http.ResponseWriter, r *http.Request, cookieDomain string, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		Domain:   cookieDomain,
		HttpOnly: true,
		Secure:   secure,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0).UTC(),
		SameSite: http.SameSiteLaxMode,
	})
}

// isSecureRequest detects TLS on the request itself or via the usual
// proxy header. Used as a fallback when the configured scheme is not
// https; a proxy stripping the header must not downgrade the cookie.
func isSecureRequest(r *http.Request) bool {
	return r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}
