package auth

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"time"
)

var (
	// ErrUnauthorized means no usable token was presented.
	ErrUnauthorized = errors.New("auth: authentication required")

	// ErrForbidden means the token is valid but its role is not allowed.
	ErrForbidden = errors.New("auth: role not allowed")

	// ErrTokenExpired means the token's exp claim is in the past.
	ErrTokenExpired = errors.New("auth: token expired")
)

// Principal is the identity carried by a bearer token.
type Principal struct {
	ID        string
	Name      string
	Email     string
	Role      string
	ExpiresAt time.Time
}

// HasRole reports whether p's role is one of roles.
func (p Principal) HasRole(roles ...string) bool {
	return p.Role != "" && slices.Contains(roles, p.Role)
}

// Provider authenticates HTTP requests.
type Provider interface {
	// Middleware validates requests and populates their context.
	Middleware() func(http.Handler) http.Handler

	// Principal extracts the identity stored by Middleware.
	Principal(ctx context.Context) (Principal, bool)
}

type principalKey struct{}

type tokenKey struct{}

// WithPrincipal returns ctx carrying p and its raw token.
func WithPrincipal(ctx context.Context, p Principal, token string) context.Context {
	ctx = context.WithValue(ctx, principalKey{}, p)
	return context.WithValue(ctx, tokenKey{}, token)
}

// FromContext returns the principal stored by WithPrincipal.
func FromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

// TokenFromContext returns the raw bearer token stored by WithPrincipal.
func TokenFromContext(ctx context.Context) (string, bool) {
	tok, ok := ctx.Value(tokenKey{}).(string)
	return tok, ok && tok != ""
}
