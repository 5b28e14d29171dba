package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicdesk/console/pkg/apiclient"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func sign(t *testing.T, key string, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(key))
	require.NoError(t, err)
	return tok
}

func ownerToken(t *testing.T) string {
	return sign(t, "backend-key", jwt.MapClaims{
		"sub":   "u-1",
		"name":  "Dr. Rana",
		"email": "rana@clinic.test",
		"role":  "owner",
		"exp":   now.Add(time.Hour).Unix(),
	})
}

func TestParseUnverified(t *testing.T) {
	p := NewCookieProvider("token", WithClock(func() time.Time { return now }))

	got, err := p.Parse(ownerToken(t))
	require.NoError(t, err)
	assert.Equal(t, Principal{
		ID:        "u-1",
		Name:      "Dr. Rana",
		Email:     "rana@clinic.test",
		Role:      "owner",
		ExpiresAt: time.Unix(now.Add(time.Hour).Unix(), 0),
	}, got)
}

func TestParseExpired(t *testing.T) {
	p := NewCookieProvider("token", WithClock(func() time.Time { return now }))
	raw := sign(t, "k", jwt.MapClaims{"role": "owner", "exp": now.Add(-time.Second).Unix()})

	_, err := p.Parse(raw)
	assert.True(t, IsExpired(err))
}

func TestParseRoleList(t *testing.T) {
	p := NewCookieProvider("token", WithRoleClaim("roles"), WithClock(func() time.Time { return now }))
	raw := sign(t, "k", jwt.MapClaims{"id": "7", "roles": []string{"staff", "owner"}})

	got, err := p.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "7", got.ID)
	assert.Equal(t, "staff", got.Role)
	assert.True(t, got.ExpiresAt.IsZero())
}

func TestParseWithSecret(t *testing.T) {
	p := NewCookieProvider("token", WithSecret([]byte("backend-key")), WithClock(func() time.Time { return now }))

	_, err := p.Parse(ownerToken(t))
	require.NoError(t, err)

	forged := sign(t, "other-key", jwt.MapClaims{"role": "owner"})
	_, err = p.Parse(forged)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestParseGarbage(t *testing.T) {
	_, err := NewCookieProvider("token").Parse("not-a-jwt")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestMiddlewareStoresPrincipalAndToken(t *testing.T) {
	p := NewCookieProvider("token", WithClock(func() time.Time { return now }))
	raw := ownerToken(t)

	var gotCtx context.Context
	h := p.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCtx = r.Context()
	}))

	req := httptest.NewRequest(http.MethodGet, "/en/dashboard/owner", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: raw})
	h.ServeHTTP(httptest.NewRecorder(), req)

	principal, ok := p.Principal(gotCtx)
	require.True(t, ok)
	assert.Equal(t, "owner", principal.Role)

	tok, ok := TokenFromContext(gotCtx)
	require.True(t, ok)
	assert.Equal(t, raw, tok)

	apiTok, err := apiclient.ContextToken.Token(gotCtx)
	require.NoError(t, err)
	assert.Equal(t, raw, apiTok)
}

func TestMiddlewareBearerHeader(t *testing.T) {
	p := NewCookieProvider("token", WithClock(func() time.Time { return now }))

	var ok bool
	h := p.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, ok = FromContext(r.Context())
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+ownerToken(t))
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.True(t, ok)
}

func TestMiddlewareAnonymous(t *testing.T) {
	p := NewCookieProvider("token", WithClock(func() time.Time { return now.Add(2 * time.Hour) }))

	called := false
	h := p.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		_, ok := FromContext(r.Context())
		assert.False(t, ok)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: ownerToken(t)}) // expired by now
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.True(t, called)
}

func TestGate(t *testing.T) {
	gate := Gate{
		Roles:    []string{"owner"},
		LoginURL: func(*http.Request) string { return "/en/login" },
	}
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	h := gate.Handler(ok)

	serve := func(p *Principal, mutate func(*http.Request)) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/en/dashboard/owner?page=2&lang=ar", nil)
		if p != nil {
			req = req.WithContext(WithPrincipal(req.Context(), *p, "tok"))
		}
		if mutate != nil {
			mutate(req)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	t.Run("owner passes", func(t *testing.T) {
		rec := serve(&Principal{Role: "owner"}, nil)
		assert.Equal(t, http.StatusTeapot, rec.Code)
	})

	t.Run("anonymous redirects to login", func(t *testing.T) {
		rec := serve(nil, nil)
		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/en/login?next=%2Fen%2Fdashboard%2Fowner%3Fpage%3D2%26lang%3Dar", rec.Header().Get("Location"))
	})

	t.Run("anonymous websocket gets 401", func(t *testing.T) {
		rec := serve(nil, func(r *http.Request) {
			r.Header.Set("Connection", "Upgrade")
			r.Header.Set("Upgrade", "websocket")
		})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("staff forbidden", func(t *testing.T) {
		rec := serve(&Principal{Role: "staff"}, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("custom forbidden handler", func(t *testing.T) {
		g := gate
		g.Forbidden = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte("owners only"))
		})
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(WithPrincipal(req.Context(), Principal{Role: "staff"}, "tok"))
		rec := httptest.NewRecorder()
		g.Handler(ok).ServeHTTP(rec, req)
		assert.Equal(t, "owners only", rec.Body.String())
	})
}
