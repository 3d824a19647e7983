package audit

import "context"

// Principal is the authenticated identity of the current request.
type Principal struct {
	ID        string
	Name      string
	Anonymous bool
}

type principalKey struct{}

// WithPrincipal attaches the request principal to ctx.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom returns the request principal stored in ctx, if any.
func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	if !ok || p.Anonymous || p.ID == "" {
		return Principal{}, false
	}
	return p, true
}

// ActorContext is the fallback identity used outside of an authenticated request,
// e.g. self-registration or background jobs.
type ActorContext struct {
	UserID   string
	UserName string
}

func (a *ActorContext) Set(userID, userName string) {
	a.UserID = userID
	a.UserName = userName
}

// ResolveActor picks the request principal first and the fallback second. Either
// result may be nil; a write without any actor is still audited.
func ResolveActor(ctx context.Context, fallback *ActorContext) (id, name *string) {
	if p, ok := PrincipalFrom(ctx); ok {
		return &p.ID, optional(p.Name)
	}
	if fallback == nil {
		return nil, nil
	}
	return optional(fallback.UserID), optional(fallback.UserName)
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
