package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/clinicdesk/console/internal/config"
	cerrors "github.com/clinicdesk/console/internal/errors"
	"github.com/clinicdesk/console/internal/telemetry"
	"github.com/clinicdesk/console/pkg/apiclient"
	"github.com/clinicdesk/console/pkg/auth"
	"github.com/clinicdesk/console/pkg/datasource"
	"github.com/clinicdesk/console/pkg/i18n"
	"github.com/clinicdesk/console/pkg/middleware"
	"github.com/clinicdesk/console/pkg/server"
	"github.com/clinicdesk/console/pkg/users"
)

func serveCmd(a *app) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the owner dashboard",
		Long: `Serve the owner dashboard at /{locale}/dashboard/owner.

Each visitor's token cookie is forwarded to the backend, so the console
itself holds no credentials.

Examples:
  console serve
  console serve --addr :9000
  CONSOLE_BACKEND_BASE_URL=https://api.clinic.example/api console serve`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				a.cfg.Server.Addr = addr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, a)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config)")
	return cmd
}

func runServe(ctx context.Context, a *app) error {
	cfg := a.cfg

	shutdownTracing, err := telemetry.SetupTracing(ctx, cfg.Tracing, version)
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			a.logger.Warn("tracing shutdown", "error", err)
		}
	}()

	client, err := backendClient(cfg.Backend, apiclient.ContextToken)
	if err != nil {
		return err
	}
	codec := tableCodec(cfg.Table)
	source := datasource.NewHTTPSource[users.Row](client, cfg.Backend.UsersResource, codec)

	authOpts := authOptions(cfg.Auth, a.logger)

	bundle, err := i18n.Embedded(cfg.I18n.DefaultLocale, cfg.I18n.Locales...)
	if err != nil {
		return cerrors.New("C105").Wrap(err)
	}

	opts := []server.Option{
		server.WithLogger(a.logger),
		server.WithBundle(bundle),
		server.WithAuth(auth.NewCookieProvider(cfg.Auth.TokenCookie, authOpts...)),
	}
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		opts = append(opts, server.WithMetrics(middleware.NewMetrics(middleware.WithRegistry(reg)), reg))
	}

	srv := server.New(serverConfig(cfg), codec, source, opts...)
	a.logger.Info("starting console",
		"version", version,
		"addr", cfg.Server.Addr,
		"backend", client.BaseURL())
	return srv.Run(ctx)
}

func serverConfig(cfg *config.Config) server.Config {
	return server.Config{
		Addr:              cfg.Server.Addr,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		ShutdownTimeout:   cfg.Server.ShutdownTimeout,
		AllowedOrigins:    cfg.Server.AllowedOrigins,
		LoginPath:         cfg.Auth.LoginPath,
		AllowedRoles:      cfg.Auth.AllowedRoles,
		MetricsPath:       cfg.Metrics.Path,
		PageSizes:         cfg.Table.PageSizes,
		SearchDelay:       cfg.Table.SearchDelay,
		SortCycle:         sortCycle(cfg.Table),
		Session: server.SessionConfig{
			MaxSessions:    cfg.Session.MaxSessions,
			EventQueue:     cfg.Session.EventQueue,
			ReadTimeout:    cfg.Session.ReadTimeout,
			WriteTimeout:   cfg.Session.WriteTimeout,
			PingInterval:   cfg.Session.PingInterval,
			MaxMessageSize: cfg.Session.MaxMessageSize,
		},
	}
}
