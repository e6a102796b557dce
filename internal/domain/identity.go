package domain

import "context"

type identityKey struct{}

// WithIdentity attaches the authenticated caller to ctx.
func WithIdentity(ctx context.Context, id UserID) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext returns the authenticated caller, if any.
func IdentityFromContext(ctx context.Context) (UserID, bool) {
	id, ok := ctx.Value(identityKey{}).(UserID)
	return id, ok && id != ""
}
