package middleware

import (
	"context"

	"github.com/upb/studio-auth/services"
)

// Context key type to avoid collisions
type contextKey string

// PrincipalKey is the context key for the authenticated principal
const PrincipalKey contextKey = "principal"

// CurrentPrincipal returns the principal established for this request, if any
func CurrentPrincipal(ctx context.Context) (*services.Principal, bool) {
	principal, ok := ctx.Value(PrincipalKey).(*services.Principal)
	return principal, ok && principal != nil
}

// WithPrincipal stores the authenticated principal on the context
func WithPrincipal(ctx context.Context, principal *services.Principal) context.Context {
	return context.WithValue(ctx, PrincipalKey, principal)
}
