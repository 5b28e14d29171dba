package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/clinicdesk/console/pkg/auth"
	"github.com/clinicdesk/console/pkg/datasource"
	"github.com/clinicdesk/console/pkg/i18n"
	"github.com/clinicdesk/console/pkg/middleware"
	"github.com/clinicdesk/console/pkg/tablestate"
	"github.com/clinicdesk/console/pkg/users"
	"github.com/clinicdesk/console/pkg/view"
)

// Server serves the dashboard page, its script and the live socket.
type Server struct {
	cfg      Config
	codec    *tablestate.Codec
	source   datasource.Source[users.Row]
	table    view.Table[users.Row]
	bundle   *i18n.Bundle
	auth     auth.Provider
	metrics  *middleware.Metrics
	gatherer prometheus.Gatherer
	tracing  []middleware.OTelOption
	logger   *slog.Logger

	sessions *SessionManager
	upgrader websocket.Upgrader
	router   chi.Router
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// WithBundle sets the message catalogs. Default: i18n.Default().
func WithBundle(b *i18n.Bundle) Option {
	return func(s *Server) {
		s.bundle = b
	}
}

// WithAuth sets how requests are authenticated. Default: a JWT read
// from the "token" cookie without signature verification.
func WithAuth(p auth.Provider) Option {
	return func(s *Server) {
		s.auth = p
	}
}

// WithMetrics records request and session metrics into m and, when
// Config.MetricsPath is set, serves g there.
func WithMetrics(m *middleware.Metrics, g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.metrics = m
		s.gatherer = g
	}
}

// WithTracing passes options to the tracing middleware.
func WithTracing(opts ...middleware.OTelOption) Option {
	return func(s *Server) {
		s.tracing = append(s.tracing, opts...)
	}
}

// New creates a server showing rows from source.
func New(cfg Config, codec *tablestate.Codec, source datasource.Source[users.Row], opts ...Option) *Server {
	s := &Server{
		cfg:    cfg,
		codec:  codec,
		source: source,
		table:  users.Table(cfg.PageSizes),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.bundle == nil {
		s.bundle = i18n.Default()
	}
	if s.auth == nil {
		s.auth = auth.NewCookieProvider("token", auth.WithLogger(s.logger))
	}
	s.sessions = NewSessionManager(cfg.Session.MaxSessions, s.metrics)
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin:     s.checkOrigin,
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(s.logger))
	r.Use(chimw.Recoverer)
	r.Use(middleware.Tracing(s.tracing...))
	if s.metrics != nil {
		r.Use(s.metrics.Handler)
	}
	r.Use(s.auth.Middleware())

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	if s.metrics != nil && s.gatherer != nil && s.cfg.MetricsPath != "" {
		r.Handle(s.cfg.MetricsPath, promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	r.Get(ThinClientPath, s.serveThinClient)
	r.Head(ThinClientPath, s.serveThinClient)
	r.Get("/", s.redirectRoot)

	gate := auth.Gate{
		Roles:     s.cfg.AllowedRoles,
		LoginURL:  s.loginURL,
		Forbidden: http.HandlerFunc(s.forbidden),
	}
	r.Route("/{locale}", func(r chi.Router) {
		r.Use(s.requireLocale)
		r.With(gate.Handler).Get(DashboardPath, s.dashboard)
	})
	r.With(gate.Handler).Get(LivePath, s.live)
	return r
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Sessions returns the session manager.
func (s *Server) Sessions() *SessionManager {
	return s.sessions
}

// Run listens on Config.Addr and serves until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done, then shuts down gracefully
// within Config.ShutdownTimeout.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: s.cfg.ReadHeaderTimeout,
		ErrorLog:          slog.NewLogLogger(s.logger.Handler(), slog.LevelWarn),
	}
	s.logger.Info("listening", "addr", ln.Addr().String())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		timeout := s.cfg.ShutdownTimeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		sctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return s.shutdown(sctx, srv)
	})
	return g.Wait()
}

// shutdown stops srv and closes every live session.
func (s *Server) shutdown(ctx context.Context, srv *http.Server) error {
	s.logger.Info("shutting down", "sessions", s.sessions.Count())
	var errs []error
	if srv != nil {
		errs = append(errs, srv.Shutdown(ctx))
	}
	errs = append(errs, s.sessions.Shutdown(ctx))
	return errors.Join(errs...)
}
