package main

import (
	"log/slog"

	"github.com/clinicdesk/console/internal/config"
	"github.com/clinicdesk/console/pkg/apiclient"
	"github.com/clinicdesk/console/pkg/auth"
	"github.com/clinicdesk/console/pkg/tablectl"
	"github.com/clinicdesk/console/pkg/tablestate"
	"github.com/clinicdesk/console/pkg/users"
)

// tableCodec builds the user table's codec. Configured filter keys and
// sortable columns extend the built-in ones.
func tableCodec(cfg config.TableConfig) *tablestate.Codec {
	opts := append(users.CodecOptions(),
		tablestate.WithPageSizes(cfg.PageSizes...),
		tablestate.WithDefaultPageSize(cfg.DefaultPageSize),
		tablestate.WithFilterKeys(cfg.FilterKeys...),
		tablestate.WithSortableColumns(cfg.SortableColumns...),
	)
	return tablestate.NewCodec(opts...)
}

func sortCycle(cfg config.TableConfig) tablectl.SortCycle {
	c, _ := tablectl.ParseSortCycle(cfg.SortCycle)
	return c
}

func backendClient(cfg config.BackendConfig, tokens apiclient.TokenSource) (*apiclient.Client, error) {
	return apiclient.New(cfg.BaseURL,
		apiclient.WithTimeout(cfg.Timeout),
		apiclient.WithTokenSource(tokens),
		apiclient.WithUserAgent("clinic-console/"+version),
	)
}

// authOptions configures the dashboard's token check. Without a secret the
// role claim of any well-formed token is trusted, so say so at startup.
func authOptions(cfg config.AuthConfig, logger *slog.Logger) []auth.Option {
	opts := []auth.Option{auth.WithRoleClaim(cfg.RoleClaim), auth.WithLogger(logger)}
	if cfg.Secret == "" {
		logger.Warn("auth secret not set; token signatures are not verified, the backend remains the only check",
			"env", "CONSOLE_AUTH_SECRET")
		return opts
	}
	return append(opts, auth.WithSecret([]byte(cfg.Secret)))
}
