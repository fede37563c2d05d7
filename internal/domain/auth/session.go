package auth

import (
	"encoding/json"
	"time"
)

// SessionRecord is the server-side record keyed by the opaque session
// identifier carried in the browser cookie. It is created empty when a
// login begins, gains User and TokenCache on a successful callback, and
// is destroyed wholesale on logout.
//
// User is set if and only if the holder completed a successful code
// exchange and passed the minimum (read) role check.
type SessionRecord struct {
	ID string `json:"id"`

	// CSRFState is the single-use login nonce. Set when the login redirect
	// is issued, compared at the callback, superseded by the next login.
	CSRFState string `json:"csrf_state,omitempty"`

	// User holds the identity claims of the authenticated holder.
	User *Claims `json:"user,omitempty"`

	// TokenCache is the serialized provider token cache owned by this
	// session. Opaque at this layer; the tokencache package gives it shape.
	TokenCache json.RawMessage `json:"token_cache,omitempty"`

	// ExpiresAt bounds the record's lifetime in the store.
	ExpiresAt time.Time `json:"expires_at"`
}

// Authenticated reports whether the record belongs to a signed-in user.
func (s SessionRecord) Authenticated() bool { return s.User != nil }
