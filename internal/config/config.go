package config

import (
	"net/url"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/clinicdesk/console/internal/errors"
)

const (
	// FileName is the default configuration file.
	FileName = "console.yaml"

	// EnvPrefix prefixes every environment override.
	EnvPrefix = "CONSOLE_"

	DefaultAddr          = ":8080"
	DefaultBackendURL    = "http://localhost:4000/api"
	DefaultUsersResource = "/user-access"
	DefaultLocale        = "en"
)

// Config is the complete console configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server" envPrefix:"SERVER_"`
	Backend BackendConfig `yaml:"backend" envPrefix:"BACKEND_"`
	Table   TableConfig   `yaml:"table" envPrefix:"TABLE_"`
	Auth    AuthConfig    `yaml:"auth" envPrefix:"AUTH_"`
	Session SessionConfig `yaml:"session" envPrefix:"SESSION_"`
	Metrics MetricsConfig `yaml:"metrics" envPrefix:"METRICS_"`
	Tracing TracingConfig `yaml:"tracing" envPrefix:"TRACING_"`
	I18n    I18nConfig    `yaml:"i18n" envPrefix:"I18N_"`
	Log     LogConfig     `yaml:"log" envPrefix:"LOG_"`

	path string
}

// ServerConfig is the HTTP listener.
type ServerConfig struct {
	Addr              string        `yaml:"addr" env:"ADDR"`
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout" env:"READ_HEADER_TIMEOUT"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
	// AllowedOrigins lists extra WebSocket origins. The request host is
	// always allowed.
	AllowedOrigins []string `yaml:"allowed_origins" env:"ALLOWED_ORIGINS" envSeparator:","`
}

// BackendConfig is the clinic API the console reads from.
type BackendConfig struct {
	BaseURL          string        `yaml:"base_url" env:"BASE_URL"`
	Timeout          time.Duration `yaml:"timeout" env:"TIMEOUT"`
	UsersResource    string        `yaml:"users_resource" env:"USERS_RESOURCE"`
	OnboardingPrefix string        `yaml:"onboarding_prefix" env:"ONBOARDING_PREFIX"`
	// Token is used by CLI commands; the server forwards each visitor's own.
	Token string `yaml:"-" env:"TOKEN"`
}

// TableConfig shapes the user table.
type TableConfig struct {
	PageSizes       []int         `yaml:"page_sizes" env:"PAGE_SIZES" envSeparator:","`
	DefaultPageSize int           `yaml:"default_page_size" env:"DEFAULT_PAGE_SIZE"`
	SearchDelay     time.Duration `yaml:"search_delay" env:"SEARCH_DELAY"`
	SortCycle       string        `yaml:"sort_cycle" env:"SORT_CYCLE"`
	FilterKeys      []string      `yaml:"filter_keys" env:"FILTER_KEYS" envSeparator:","`
	SortableColumns []string      `yaml:"sortable_columns" env:"SORTABLE_COLUMNS" envSeparator:","`
}

// AuthConfig controls who may open the dashboard.
type AuthConfig struct {
	TokenCookie  string   `yaml:"token_cookie" env:"TOKEN_COOKIE"`
	LoginPath    string   `yaml:"login_path" env:"LOGIN_PATH"`
	AllowedRoles []string `yaml:"allowed_roles" env:"ALLOWED_ROLES" envSeparator:","`
	RoleClaim    string   `yaml:"role_claim" env:"ROLE_CLAIM"`
	// Secret verifies HMAC token signatures when set. Without it tokens
	// are decoded only, and the backend rejects forged ones.
	Secret string `yaml:"-" env:"SECRET"`
}

// SessionConfig tunes live WebSocket sessions.
type SessionConfig struct {
	MaxSessions    int           `yaml:"max_sessions" env:"MAX_SESSIONS"`
	EventQueue     int           `yaml:"event_queue" env:"EVENT_QUEUE"`
	ReadTimeout    time.Duration `yaml:"read_timeout" env:"READ_TIMEOUT"`
	WriteTimeout   time.Duration `yaml:"write_timeout" env:"WRITE_TIMEOUT"`
	PingInterval   time.Duration `yaml:"ping_interval" env:"PING_INTERVAL"`
	MaxMessageSize int64         `yaml:"max_message_size" env:"MAX_MESSAGE_SIZE"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" env:"ENABLED"`
	Path    string `yaml:"path" env:"PATH"`
}

// TracingConfig controls OTLP trace export.
type TracingConfig struct {
	Enabled     bool    `yaml:"enabled" env:"ENABLED"`
	Endpoint    string  `yaml:"endpoint" env:"ENDPOINT"`
	Insecure    bool    `yaml:"insecure" env:"INSECURE"`
	ServiceName string  `yaml:"service_name" env:"SERVICE_NAME"`
	SampleRatio float64 `yaml:"sample_ratio" env:"SAMPLE_RATIO"`
}

// I18nConfig lists the UI locales.
type I18nConfig struct {
	DefaultLocale string   `yaml:"default_locale" env:"DEFAULT_LOCALE"`
	Locales       []string `yaml:"locales" env:"LOCALES" envSeparator:","`
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string `yaml:"level" env:"LEVEL"`
	Format string `yaml:"format" env:"FORMAT"`
}

// New returns the default configuration.
func New() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:              DefaultAddr,
			ReadHeaderTimeout: 10 * time.Second,
			ShutdownTimeout:   15 * time.Second,
		},
		Backend: BackendConfig{
			BaseURL:          DefaultBackendURL,
			Timeout:          30 * time.Second,
			UsersResource:    DefaultUsersResource,
			OnboardingPrefix: "/onboarding",
		},
		Table: TableConfig{
			PageSizes:       []int{10, 20, 30, 50},
			DefaultPageSize: 10,
			SearchDelay:     time.Second,
			SortCycle:       "tristate",
			FilterKeys:      []string{"role", "status"},
			SortableColumns: []string{"userName", "role", "userType"},
		},
		Auth: AuthConfig{
			TokenCookie:  "token",
			LoginPath:    "/login",
			AllowedRoles: []string{"owner"},
			RoleClaim:    "role",
		},
		Session: SessionConfig{
			MaxSessions:    1000,
			EventQueue:     64,
			ReadTimeout:    60 * time.Second,
			WriteTimeout:   10 * time.Second,
			PingInterval:   30 * time.Second,
			MaxMessageSize: 16 << 10,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
		Tracing: TracingConfig{
			ServiceName: "clinic-console",
			SampleRatio: 1,
		},
		I18n: I18nConfig{
			DefaultLocale: DefaultLocale,
			Locales:       []string{"en", "ar"},
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads path (if it exists), applies CONSOLE_* overrides from the
// process environment and validates the result. A missing file is only an
// error when path is not the default file name.
func Load(path string) (*Config, error) {
	return load(path, env.Options{Prefix: EnvPrefix})
}

// LoadWithEnv is Load with an explicit environment instead of the process's.
func LoadWithEnv(path string, environ map[string]string) (*Config, error) {
	return load(path, env.Options{Prefix: EnvPrefix, Environment: environ})
}

func load(path string, opts env.Options) (*Config, error) {
	cfg := New()
	// Derived from table.page_sizes unless set explicitly.
	cfg.Table.DefaultPageSize = 0

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, errors.New("C100").WithField(path).Wrap(err)
			}
			cfg.path = path
		case os.IsNotExist(err) && path == FileName:
		default:
			return nil, errors.New("C100").WithField(path).Wrap(err)
		}
	}

	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, errors.New("C106").Wrap(err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Path returns the file the config was read from, if any.
func (c *Config) Path() string {
	return c.path
}

// applyDefaults fills zero values left by a sparse file.
func (c *Config) applyDefaults() {
	d := New()
	if c.Server.Addr == "" {
		c.Server.Addr = d.Server.Addr
	}
	if c.Backend.UsersResource == "" {
		c.Backend.UsersResource = d.Backend.UsersResource
	}
	if c.Backend.OnboardingPrefix == "" {
		c.Backend.OnboardingPrefix = d.Backend.OnboardingPrefix
	}
	if c.Backend.Timeout == 0 {
		c.Backend.Timeout = d.Backend.Timeout
	}
	if len(c.Table.PageSizes) == 0 {
		c.Table.PageSizes = d.Table.PageSizes
	}
	if c.Table.DefaultPageSize == 0 {
		c.Table.DefaultPageSize = c.Table.PageSizes[0]
	}
	if c.Table.SortCycle == "" {
		c.Table.SortCycle = d.Table.SortCycle
	}
	if c.Auth.TokenCookie == "" {
		c.Auth.TokenCookie = d.Auth.TokenCookie
	}
	if c.Auth.LoginPath == "" {
		c.Auth.LoginPath = d.Auth.LoginPath
	}
	if c.Auth.RoleClaim == "" {
		c.Auth.RoleClaim = d.Auth.RoleClaim
	}
	if c.Session.EventQueue <= 0 {
		c.Session.EventQueue = d.Session.EventQueue
	}
	if c.Session.MaxMessageSize <= 0 {
		c.Session.MaxMessageSize = d.Session.MaxMessageSize
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = d.Metrics.Path
	}
	if c.Tracing.ServiceName == "" {
		c.Tracing.ServiceName = d.Tracing.ServiceName
	}
	if c.I18n.DefaultLocale == "" {
		c.I18n.DefaultLocale = DefaultLocale
	}
	if len(c.I18n.Locales) == 0 {
		c.I18n.Locales = []string{c.I18n.DefaultLocale}
	}
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = d.Log.Format
	}
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error

	if u, err := url.Parse(c.Backend.BaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, errors.New("C101").WithField("backend.base_url").
			WithDetail("backend.base_url " + quote(c.Backend.BaseURL) + " must be an absolute http or https URL."))
	}
	if !strings.HasPrefix(c.Backend.UsersResource, "/") {
		errs = append(errs, errors.New("C107").WithField("backend.users_resource").
			WithDetail("The users resource must be an absolute path such as /user-access."))
	}

	for _, n := range c.Table.PageSizes {
		if n <= 0 {
			errs = append(errs, errors.New("C102").WithField("table.page_sizes"))
			break
		}
	}
	if !slices.Contains(c.Table.PageSizes, c.Table.DefaultPageSize) {
		errs = append(errs, errors.New("C102").WithField("table.default_page_size"))
	}
	if c.Table.SortCycle != "tristate" && c.Table.SortCycle != "toggle" {
		errs = append(errs, errors.New("C103").WithField("table.sort_cycle"))
	}

	durations := map[string]time.Duration{
		"backend.timeout":            c.Backend.Timeout,
		"table.search_delay":         c.Table.SearchDelay,
		"server.read_header_timeout": c.Server.ReadHeaderTimeout,
		"server.shutdown_timeout":    c.Server.ShutdownTimeout,
		"session.read_timeout":       c.Session.ReadTimeout,
		"session.write_timeout":      c.Session.WriteTimeout,
		"session.ping_interval":      c.Session.PingInterval,
	}
	keys := make([]string, 0, len(durations))
	for k := range durations {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		if durations[k] < 0 {
			errs = append(errs, errors.New("C104").WithField(k))
		}
	}

	if len(c.Auth.AllowedRoles) == 0 {
		errs = append(errs, errors.New("C107").WithField("auth.allowed_roles").
			WithDetail("At least one role must be allowed to open the dashboard."))
	}
	if !slices.Contains(c.I18n.Locales, c.I18n.DefaultLocale) {
		errs = append(errs, errors.New("C105").WithField("i18n.default_locale"))
	}
	if c.Tracing.Enabled && c.Tracing.Endpoint == "" {
		errs = append(errs, errors.New("C107").WithField("tracing.endpoint").
			WithDetail("Tracing is enabled but no OTLP endpoint is set."))
	}

	return errors.Join(errs...)
}

func quote(s string) string {
	return `"` + s + `"`
}
