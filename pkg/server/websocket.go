package server

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
)

// LivePath is the WebSocket endpoint.
const LivePath = "/live"

// live upgrades the request and serves a session until it ends. The
// request context carries the caller's token for backend fetches.
func (s *Server) live(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("websocket upgrade failed", "error", err)
		s.metrics.RecordWebSocketError(err)
		return
	}

	params := r.URL.Query()
	tag := s.bundle.Match(params.Get("locale"), r.Header.Get("Accept-Language"))
	sess := newSession(r.Context(), uuid.NewString(), conn, s, s.bundle.Printer(tag))

	if err := s.sessions.Add(sess); err != nil {
		s.logger.Warn("session refused", "error", err)
		sess.reject(err)
		return
	}
	defer s.sessions.Remove(sess.ID)

	sess.logger.Debug("session opened", "locale", tag.String())
	if err := sess.Run(r.Context(), params.Get("q")); err != nil {
		sess.logger.Warn("session ended with error", "error", err)
		return
	}
	sess.logger.Debug("session closed")
}

// checkOrigin admits same-host pages and Config.AllowedOrigins.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	if strings.EqualFold(u.Host, r.Host) {
		return true
	}
	for _, allowed := range s.cfg.AllowedOrigins {
		if allowed == "*" || strings.EqualFold(strings.TrimSuffix(allowed, "/"), origin) {
			return true
		}
	}
	return false
}
