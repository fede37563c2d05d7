package auth

import (
	"errors"
	"fmt"
)

// The callback outcome is expressed as an error taxonomy: the success path
// returns Claims, every other variant is a distinct error type so handlers
// can render provider failures, role denials, and forged callbacks
// differently (errors.As / errors.Is).

// ErrStateMismatch is returned when the state query parameter does not
// match the session's stored CSRF nonce. The token exchange must not be
// attempted once this is detected.
var ErrStateMismatch = errors.New("auth state does not match session")

// ErrSilentAuthFailed is returned when a token cannot be acquired from the
// cache without user interaction (no account, or the refresh token is
// expired or revoked). It is not a user-facing failure; the caller should
// force a fresh interactive login.
var ErrSilentAuthFailed = errors.New("silent token acquisition failed")

// ProviderError carries an error code and description returned by the
// identity provider, either as callback query parameters or inside the
// token exchange result. It is surfaced verbatim and never retried.
type ProviderError struct {
	Code        string
	Description string
}

func (e *ProviderError) Error() string {
	if e.Description == "" {
		return "identity provider error: " + e.Code
	}
	return fmt.Sprintf("identity provider error: %s: %s", e.Code, e.Description)
}

// AccessDeniedError means the identity is valid but the assigned roles do
// not meet the minimum (read) requirement. Kept distinct from
// ProviderError so the UI can explain role requirements separately from
// provider failures.
type AccessDeniedError struct {
	Reason string
}

func (e *AccessDeniedError) Error() string {
	return "access denied: " + e.Reason
}

// UpstreamHTTPError is a non-2xx response from a downstream
// bearer-authenticated call. Propagated to the caller without retry.
type UpstreamHTTPError struct {
	StatusCode int
	URL        string
}

func (e *UpstreamHTTPError) Error() string {
	return fmt.Sprintf("upstream request to %s returned status %d", e.URL, e.StatusCode)
}
