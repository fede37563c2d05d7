package auth

// Package auth contains domain-level types for authentication and sessions.
// It is pure and free of framework/adapter concerns.

import "strings"

// Claims is the decoded identity-token payload for the signed-in user.
// JSON tags follow the Entra ID v2.0 ID-token claim names. Roles are the
// app roles assigned to the user on the app registration; an absent roles
// claim simply means no roles, not an error.
type Claims struct {
	Name              string   `json:"name"`
	PreferredUsername string   `json:"preferred_username"`
	Roles             []string `json:"roles"`
}

// HasAdminAccess reports whether any role names admin access.
// Matching is a case-insensitive substring check so role-name variants
// from the directory ("SuperAdmin", "admin-1") all qualify.
func (c Claims) HasAdminAccess() bool {
	return c.anyRoleContains("ADMIN")
}

// HasWriteAccess reports whether the user may write. Admin implies write.
func (c Claims) HasWriteAccess() bool {
	return c.HasAdminAccess() || c.anyRoleContains("WRITE")
}

// HasReadAccess reports whether the user may read. Write implies read;
// this is the minimum bar for completing a login.
func (c Claims) HasReadAccess() bool {
	return c.HasWriteAccess() || c.anyRoleContains("READ")
}

func (c Claims) anyRoleContains(marker string) bool {
	for _, role := range c.Roles {
		if strings.Contains(strings.ToUpper(role), marker) {
			return true
		}
	}
	return false
}
