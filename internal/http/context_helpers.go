package httpx

import (
	"context"

	domainauth "github.com/entragate/entragate/internal/domain/auth"
)

// claimsContextKey is an unexported context key type for the signed-in
// user's claims.
type claimsContextKey struct{}

// SetClaimsInContext stores the claims in the request context so guarded
// handlers can read them without another session lookup.
func SetClaimsInContext(ctx context.Context, claims *domainauth.Claims) context.Context {
	return context.WithValue(ctx, claimsContextKey{}, claims)
}

// ClaimsFromContext retrieves the claims placed by the session guard.
func ClaimsFromContext(ctx context.Context) (*domainauth.Claims, bool) {
	claims, ok := ctx.Value(claimsContextKey{}).(*domainauth.Claims)
	if !ok || claims == nil {
		return nil, false
	}
	return claims, true
}
