package auth

import "context"

type identityCtxKey struct{}

// WithIdentity attaches the authenticated identity to the context.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityCtxKey{}, &id)
}

// IdentityFromContext extracts the authenticated identity, if any. Anonymous
// requests simply have no identity attached.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	v, ok := ctx.Value(identityCtxKey{}).(*Identity)
	if !ok || v == nil {
		return Identity{}, false
	}
	return *v, true
}
