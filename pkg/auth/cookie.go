package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/clinicdesk/console/pkg/apiclient"
)

// CookieProvider reads a JWT from a cookie, falling back to the
// Authorization header.
type CookieProvider struct {
	cookie    string
	roleClaim string
	secret    []byte
	now       func() time.Time
	logger    *slog.Logger
}

// Option configures a CookieProvider.
type Option func(*CookieProvider)

// WithRoleClaim sets the claim holding the user's role. Default "role".
func WithRoleClaim(name string) Option {
	return func(p *CookieProvider) {
		if name != "" {
			p.roleClaim = name
		}
	}
}

// WithSecret enables HMAC signature verification.
func WithSecret(secret []byte) Option {
	return func(p *CookieProvider) {
		p.secret = secret
	}
}

// WithClock overrides time.Now for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(p *CookieProvider) {
		p.now = now
	}
}

// WithLogger sets the logger for rejected tokens.
func WithLogger(l *slog.Logger) Option {
	return func(p *CookieProvider) {
		p.logger = l
	}
}

// NewCookieProvider creates a provider reading the named cookie.
func NewCookieProvider(cookie string, opts ...Option) *CookieProvider {
	p := &CookieProvider{
		cookie:    cookie,
		roleClaim: "role",
		now:       time.Now,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Middleware stores the principal and token of requests carrying a valid
// token. Requests without one pass through anonymous; Gate decides what
// they may see.
func (p *CookieProvider) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := p.tokenFrom(r)
			if raw == "" {
				next.ServeHTTP(w, r)
				return
			}
			principal, err := p.Parse(raw)
			if err != nil {
				p.logger.Debug("auth: token rejected", "error", err, "path", r.URL.Path)
				next.ServeHTTP(w, r)
				return
			}
			ctx := WithPrincipal(r.Context(), principal, raw)
			ctx = apiclient.WithToken(ctx, raw)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Principal implements Provider.
func (p *CookieProvider) Principal(ctx context.Context) (Principal, bool) {
	return FromContext(ctx)
}

// Parse decodes raw into a Principal. Expired tokens return ErrTokenExpired.
func (p *CookieProvider) Parse(raw string) (Principal, error) {
	claims := jwt.MapClaims{}
	if len(p.secret) > 0 {
		parser := jwt.NewParser(
			jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}),
			jwt.WithoutClaimsValidation(),
		)
		if _, err := parser.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
			return p.secret, nil
		}); err != nil {
			return Principal{}, fmt.Errorf("%w: %w", ErrUnauthorized, err)
		}
	} else {
		if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
			return Principal{}, fmt.Errorf("%w: %w", ErrUnauthorized, err)
		}
	}

	var principal Principal
	exp, err := claims.GetExpirationTime()
	if err != nil {
		return Principal{}, fmt.Errorf("%w: %w", ErrUnauthorized, err)
	}
	if exp != nil {
		principal.ExpiresAt = exp.Time
		if !p.now().Before(exp.Time) {
			return Principal{}, ErrTokenExpired
		}
	}

	principal.ID, _ = claims.GetSubject()
	if principal.ID == "" {
		principal.ID = stringClaim(claims, "id")
	}
	principal.Name = stringClaim(claims, "name")
	principal.Email = stringClaim(claims, "email")
	principal.Role = roleClaim(claims[p.roleClaim])
	return principal, nil
}

func (p *CookieProvider) tokenFrom(r *http.Request) string {
	if c, err := r.Cookie(p.cookie); err == nil && c.Value != "" {
		return c.Value
	}
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(h[len("Bearer "):])
	}
	return ""
}

func stringClaim(claims jwt.MapClaims, name string) string {
	s, _ := claims[name].(string)
	return s
}

// roleClaim accepts a single role or a list, taking the first entry.
func roleClaim(v any) string {
	switch v := v.(type) {
	case string:
		return v
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}

// IsExpired reports whether err is or wraps ErrTokenExpired.
func IsExpired(err error) bool {
	return errors.Is(err, ErrTokenExpired)
}
