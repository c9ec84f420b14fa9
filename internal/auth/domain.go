package auth

import (
	"context"
	"time"
)

// Principal is the authenticated console or API caller.
type Principal struct {
	ID    string
	Email string
}

// Credentials is the outcome of a successful sign-in.
type Credentials struct {
	AccessToken string
	ExpiresAt   time.Time
	Principal   Principal
}

// Provider issues and verifies access tokens. The remote provider delegates to
// the hosted auth service; the local provider serves a single configured admin.
type Provider interface {
	SignIn(ctx context.Context, email, password string) (Credentials, error)
	Verify(ctx context.Context, token string) (Principal, error)
	SignOut(ctx context.Context, token string) error
}

// State is the outcome of the session check run before a protected page.
type State int

const (
	StateChecking State = iota
	StateAuthenticated
	StateUnauthenticated
)

func (s State) String() string {
	switch s {
	case StateAuthenticated:
		return "authenticated"
	case StateUnauthenticated:
		return "unauthenticated"
	default:
		return "checking"
	}
}

type principalContextKey struct{}

// ContextWithPrincipal stores p in ctx.
func ContextWithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// PrincipalFromContext returns the principal placed by the guard.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalContextKey{}).(Principal)
	return p, ok
}
