package server

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"golang.org/x/text/language"

	"github.com/clinicdesk/console/pkg/tablectl"
	"github.com/clinicdesk/console/pkg/tablestate"
	"github.com/clinicdesk/console/pkg/users"
	"github.com/clinicdesk/console/pkg/view"
)

// dashboard renders the first paint. The table shows its loading state;
// the live session fetches the page.
func (s *Server) dashboard(w http.ResponseWriter, r *http.Request) {
	tag := s.bundle.Match(chi.URLParam(r, "locale"))
	p := s.bundle.Printer(tag)

	query, err := tablestate.ParseQuery(r.URL.RawQuery)
	if err != nil {
		s.logger.Debug("malformed query, using defaults", "query", r.URL.RawQuery, "error", err)
		query = url.Values{}
	}
	snap := tablectl.Pending[users.Row](s.codec, query)
	m := view.NewModel(s.table, snap, p)

	live := url.URL{Path: LivePath, RawQuery: url.Values{"locale": {tag.String()}}.Encode()}
	title := p.Sprintf("dashboard.title")
	doc := view.Document{
		Lang:      tag.String(),
		Title:     title,
		Heading:   title,
		LiveURL:   live.String(),
		ScriptURL: ThinClientPath,
		Toolbar:   view.Toolbar(m),
		Table:     view.TableFragment(m),
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := view.Page(doc).Render(r.Context(), w); err != nil {
		s.logger.Error("render dashboard", "error", err)
	}
}

// requireLocale redirects a path with an unsupported locale prefix to the
// same page in the best locale for the request.
func (s *Server) requireLocale(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		locale := chi.URLParam(r, "locale")
		if s.bundle.Supports(locale) {
			next.ServeHTTP(w, r)
			return
		}
		tag := s.bundle.Match(r.Header.Get("Accept-Language"))
		rest := strings.TrimPrefix(r.URL.Path, "/"+locale)
		if rest == "" {
			rest = DashboardPath
		}
		http.Redirect(w, r, localized(tag, rest, r.URL.RawQuery), http.StatusFound)
	})
}

func (s *Server) redirectRoot(w http.ResponseWriter, r *http.Request) {
	tag := s.bundle.Match(r.Header.Get("Accept-Language"))
	http.Redirect(w, r, localized(tag, DashboardPath, ""), http.StatusFound)
}

func localized(tag language.Tag, path, rawQuery string) string {
	u := url.URL{Path: "/" + tag.String() + path, RawQuery: rawQuery}
	return u.String()
}

func (s *Server) loginURL(r *http.Request) string {
	login := s.cfg.LoginPath
	if u, err := url.Parse(login); err == nil && u.IsAbs() {
		return login
	}
	if locale := chi.URLParam(r, "locale"); locale != "" && s.bundle.Supports(locale) {
		return "/" + locale + login
	}
	return login
}

// forbidden answers a signed-in user whose role is not admitted.
func (s *Server) forbidden(w http.ResponseWriter, r *http.Request) {
	tag := s.bundle.Match(chi.URLParam(r, "locale"), r.URL.Query().Get("locale"), r.Header.Get("Accept-Language"))
	p := s.bundle.Printer(tag)
	msg := p.Sprintf("auth.forbidden")

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusForbidden)
	doc := view.Document{
		Lang:    tag.String(),
		Title:   msg,
		Heading: msg,
	}
	if err := view.Page(doc).Render(r.Context(), w); err != nil {
		s.logger.Error("render forbidden", "error", err)
	}
}
