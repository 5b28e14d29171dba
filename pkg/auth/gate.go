package auth

import (
	"net/http"
	"net/url"

	"github.com/gorilla/websocket"
)

// Gate admits only principals holding one of Roles.
//
// Anonymous page requests are redirected to LoginURL with a next parameter.
// Anonymous WebSocket upgrades get 401. Authenticated principals with the
// wrong role get Forbidden, or a plain 403.
type Gate struct {
	Roles     []string
	LoginURL  func(r *http.Request) string
	Forbidden http.Handler
}

// Handler wraps next with the gate.
func (g Gate) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := FromContext(r.Context())
		switch {
		case !ok:
			g.unauthorized(w, r)
		case !p.HasRole(g.Roles...):
			if g.Forbidden != nil {
				g.Forbidden.ServeHTTP(w, r)
				return
			}
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		default:
			next.ServeHTTP(w, r)
		}
	})
}

func (g Gate) unauthorized(w http.ResponseWriter, r *http.Request) {
	if websocket.IsWebSocketUpgrade(r) || g.LoginURL == nil || r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}
	login, err := url.Parse(g.LoginURL(r))
	if err != nil {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}
	q := login.Query()
	q.Set("next", r.URL.RequestURI())
	login.RawQuery = q.Encode()
	http.Redirect(w, r, login.String(), http.StatusSeeOther)
}
