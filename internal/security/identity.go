package security

import (
	"context"

	"github.com/aryan0dhankhar/outreach/internal/domain"
)

// CallerIdentity is who is making a request. It is resolved once per request
// from the session and never persisted.
type CallerIdentity struct {
	Actor string
}

// IsAdmin reports whether the caller is the administrator
func (c CallerIdentity) IsAdmin() bool {
	return c.Actor == domain.AdminActor
}

type identityKey struct{}

// WithIdentity attaches the caller to ctx
func WithIdentity(ctx context.Context, caller CallerIdentity) context.Context {
	return context.WithValue(ctx, identityKey{}, caller)
}

// IdentityFromContext returns the caller attached by the session middleware
func IdentityFromContext(ctx context.Context) (CallerIdentity, bool) {
	caller, ok := ctx.Value(identityKey{}).(CallerIdentity)
	return caller, ok && caller.Actor != ""
}
