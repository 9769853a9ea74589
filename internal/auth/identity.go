package auth

import "context"

// Identity is the resolved caller: who the session belongs to. Every
// protected handler reads it from the request context.
type Identity struct {
	UserID string
	Email  string
	Name   string
	Role   string
}

type identityKey struct{}

// WithIdentity returns a context carrying the resolved identity.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFrom returns the identity resolved for this request, or ok=false
// when the request carried no valid session. Absence is a normal outcome,
// not an error; callers decide whether it matters.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}
