package tokencache

// Package tokencache holds the per-session provider token cache. One cache
// belongs to exactly one browser session and is persisted inside that
// session's record; caches are never shared across sessions.

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/oauth2"
)

// Account identifies the single provider account bound to a session.
// Multi-account sessions are out of scope.
type Account struct {
	HomeAccountID string `json:"home_account_id"`
	Username      string `json:"username"`
}

// Cache is a serializable container of provider tokens keyed by scope set.
// Mutations flip an internal changed flag so callers can skip persisting a
// cache that repeated silent-auth calls did not actually touch.
type Cache struct {
	account *Account
	tokens  map[string]*oauth2.Token
	changed bool
}

// snapshot is the JSON wire form stored in the session record.
type snapshot struct {
	Account *Account                 `json:"account,omitempty"`
	Tokens  map[string]*oauth2.Token `json:"tokens,omitempty"`
}

// New returns an empty cache.
func New() *Cache {
	return &Cache{tokens: make(map[string]*oauth2.Token)}
}

// Deserialize restores a cache from its serialized form. Empty or absent
// input yields an empty cache — a first-time visitor is a normal state,
// not an error. The restored cache starts with the changed flag cleared.
func Deserialize(data []byte) (*Cache, error) {
	c := New()
	if len(data) == 0 {
		return c, nil
	}
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("deserialize token cache: %w", err)
	}
	c.account = snap.Account
	if snap.Tokens != nil {
		c.tokens = snap.Tokens
	}
	return c, nil
}

// Serialize renders the cache for storage in the session record.
func (c *Cache) Serialize() ([]byte, error) {
	snap := snapshot{Account: c.account, Tokens: c.tokens}
	data, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("serialize token cache: %w", err)
	}
	return data, nil
}

// HasChanged reports whether the cache was mutated since it was built.
func (c *Cache) HasChanged() bool { return c.changed }

// Accounts returns the account bound to this cache, if any.
func (c *Cache) Accounts() []Account {
	if c.account == nil {
		return nil
	}
	return []Account{*c.account}
}

// SetAccount binds the cache to an account and marks the cache changed.
func (c *Cache) SetAccount(a Account) {
	c.account = &a
	c.changed = true
}

// Put stores the token for a scope set and marks the cache changed.
func (c *Cache) Put(scopes []string, tok *oauth2.Token) {
	c.tokens[Key(scopes)] = tok
	c.changed = true
}

// Lookup returns the cached token for a scope set, possibly expired —
// refreshing is the provider adapter's concern.
func (c *Cache) Lookup(scopes []string) (*oauth2.Token, bool) {
	tok, ok := c.tokens[Key(scopes)]
	return tok, ok
}

// Update replaces the stored token for a scope set, marking the cache
// changed only when the token actually differs. Silent acquisitions call
// this after every attempt so an unchanged token costs no session write.
func (c *Cache) Update(scopes []string, tok *oauth2.Token) {
	key := Key(scopes)
	if prev, ok := c.tokens[key]; ok && sameToken(prev, tok) {
		return
	}
	c.tokens[key] = tok
	c.changed = true
}

func sameToken(a, b *oauth2.Token) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.AccessToken == b.AccessToken &&
		a.RefreshToken == b.RefreshToken &&
		a.Expiry.Equal(b.Expiry)
}

// Key canonicalizes a scope set so lookup order does not matter.
func Key(scopes []string) string {
	sorted := append([]string(nil), scopes...)
	sort.Strings(sorted)
	return strings.Join(sorted, " ")
}
