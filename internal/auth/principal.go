package auth

import "context"

// Principal is the authenticated user a request acts on behalf of.
type Principal struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

type principalKey struct{}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	if !ok || p.UserID == "" {
		return Principal{}, false
	}
	return p, true
}

// ContextSource reads the principal that Middleware attached to the context.
type ContextSource struct{}

func (ContextSource) CurrentPrincipal(ctx context.Context) (Principal, bool) {
	return PrincipalFromContext(ctx)
}
