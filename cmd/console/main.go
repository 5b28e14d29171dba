package main

import (
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/clinicdesk/console/internal/config"
	cerrors "github.com/clinicdesk/console/internal/errors"
	"github.com/clinicdesk/console/internal/telemetry"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// app is the state shared by subcommands after the root's pre-run.
type app struct {
	configPath string
	logFormat  string
	logLevel   string

	cfg    *config.Config
	logger *slog.Logger
	out    io.Writer
}

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		cerrors.Print(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	a := &app{out: out}

	root := &cobra.Command{
		Use:   "console",
		Short: "Clinic owner console",
		Long: `console serves the clinic owner's user-access dashboard and offers
command-line access to the same backend.

Configuration is read from console.yaml, then CONSOLE_* environment
variables.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			return a.setup(cmd)
		},
	}
	root.SetOut(out)

	flags := root.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", config.FileName, "Config file")
	flags.StringVar(&a.logFormat, "log-format", "", "Log format: text or json (default from config)")
	flags.StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn, error (default from config)")

	root.AddCommand(
		serveCmd(a),
		usersCmd(a),
		onboardingCmd(a),
		versionCmd(),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.logFormat != "" {
		cfg.Log.Format = a.logFormat
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	logger, err := telemetry.NewLogger(cmd.ErrOrStderr(), cfg.Log.Format, cfg.Log.Level)
	if err != nil {
		return cerrors.New("C400").WithField("--log-format/--log-level").Wrap(err)
	}
	slog.SetDefault(logger)

	a.cfg = cfg
	a.logger = logger
	return nil
}
