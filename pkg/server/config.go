package server

import (
	"time"

	"github.com/clinicdesk/console/pkg/tablectl"
)

// DashboardPath is the table page, below the locale prefix.
const DashboardPath = "/dashboard/owner"

// Config holds server settings.
type Config struct {
	// Addr is the listen address for Run.
	Addr string

	ReadHeaderTimeout time.Duration

	// ShutdownTimeout bounds Run's graceful stop.
	ShutdownTimeout time.Duration

	// AllowedOrigins lists extra origins allowed to open /live. The page's
	// own host is always allowed. "*" allows any.
	AllowedOrigins []string

	// LoginPath receives anonymous visitors. A relative path is put under
	// the request's locale.
	LoginPath string

	// AllowedRoles are the roles admitted to the dashboard.
	AllowedRoles []string

	// MetricsPath serves Prometheus metrics when set and metrics are
	// configured.
	MetricsPath string

	// PageSizes are offered in the rows-per-page select.
	PageSizes []int

	SearchDelay time.Duration
	SortCycle   tablectl.SortCycle

	Session SessionConfig
}

// SessionConfig holds per-connection settings.
type SessionConfig struct {
	// MaxSessions caps open sockets. Zero means no limit.
	MaxSessions int

	// EventQueue is the capacity of each session's event loop.
	EventQueue int

	// ReadTimeout closes a socket that sends nothing, not even a pong.
	ReadTimeout time.Duration

	WriteTimeout time.Duration

	// PingInterval is how often the server pings. Zero disables pings.
	PingInterval time.Duration

	MaxMessageSize int64
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		Addr:              ":8080",
		ReadHeaderTimeout: 10 * time.Second,
		ShutdownTimeout:   10 * time.Second,
		LoginPath:         "/login",
		AllowedRoles:      []string{"owner"},
		MetricsPath:       "/metrics",
		PageSizes:         []int{10, 20, 30, 50},
		SearchDelay:       time.Second,
		SortCycle:         tablectl.SortCycleTriState,
		Session:           DefaultSessionConfig(),
	}
}

// DefaultSessionConfig returns the default per-connection settings.
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		MaxSessions:    1000,
		EventQueue:     64,
		ReadTimeout:    60 * time.Second,
		WriteTimeout:   10 * time.Second,
		PingInterval:   30 * time.Second,
		MaxMessageSize: 16 * 1024,
	}
}

func (c SessionConfig) withDefaults() SessionConfig {
	d := DefaultSessionConfig()
	if c.EventQueue <= 0 {
		c.EventQueue = d.EventQueue
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = d.ReadTimeout
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = d.WriteTimeout
	}
	if c.MaxMessageSize <= 0 {
		c.MaxMessageSize = d.MaxMessageSize
	}
	return c
}
