// Package auth turns the backend-issued bearer token into a Principal and
// gates routes by role.
//
// The console never verifies the token's signature itself unless a shared
// secret is configured: the backend does that on every API call. The
// console only needs the token's expiry and role to decide whether to render
// the dashboard or send the visitor to the login page.
//
//	provider := auth.NewCookieProvider("token")
//	r.Use(provider.Middleware())
//	r.With(auth.Gate{Roles: []string{"owner"}, LoginURL: login}.Handler).
//	    Get("/{locale}/dashboard/owner", dashboard)
//
// Middleware also stores the raw token with apiclient.WithToken so backend
// calls made under the request context are authorized as the visitor.
package auth
