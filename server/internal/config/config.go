package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/netviz/netviz/pkg/types"
)

// Default values for the server configuration.
const (
	DefaultBindAddress      = "0.0.0.0:8201"
	DefaultSchedule         = "0 0 0 * * *"
	DefaultBaseURL          = "https://www.peeringdb.com/api/"
	DefaultDataDir          = "data/peeringdb"
	DefaultDataset          = "net"
	DefaultFetchTimeout     = 10 * time.Second
	DefaultUserAgent        = "NetViz/1.0.0"
	DefaultAPIKeyEnv        = "PEERINGDB_API_KEY"
	DefaultStreamInterval   = 30 * time.Second
	DefaultFailureThreshold = 1
	DefaultNotifyCooldown   = 15 * time.Minute
)

// Environment variables that override file values.
const (
	EnvBindAddress = "BIND_ADDRESS"
	EnvSchedule    = "REFRESH_CRON"
)

// Config is the top-level server configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Refresh RefreshConfig `yaml:"refresh"`
	Fetch   FetchConfig   `yaml:"fetch"`
	Cache   CacheConfig   `yaml:"cache"`
	Notify  NotifyConfig  `yaml:"notify"`
	Log     LogConfig     `yaml:"log"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	// BindAddress is the host:port the HTTP server listens on.
	BindAddress string `yaml:"bind_address"`

	// Auth protects the admin endpoints (manual refresh).
	Auth AuthConfig `yaml:"auth"`

	// StreamInterval is how often websocket clients receive a status frame
	// when nothing else happens.
	StreamInterval time.Duration `yaml:"stream_interval"`
}

// AuthConfig controls client authentication for admin endpoints.
type AuthConfig struct {
	// Mode is one of: apikey | none.
	Mode string `yaml:"mode"`

	// KeyEnv is the name of the environment variable that holds the expected API key.
	KeyEnv string `yaml:"key_env"`

	// Header is the HTTP header to read the key from. Defaults to "x-api-key".
	Header string `yaml:"header"`
}

// Key returns the expected API key resolved from the environment.
func (a AuthConfig) Key() string {
	if a.KeyEnv == "" {
		return ""
	}
	return os.Getenv(a.KeyEnv)
}

// EffectiveHeader returns the configured header name, or the default "x-api-key".
func (a AuthConfig) EffectiveHeader() string {
	if a.Header != "" {
		return a.Header
	}
	return "x-api-key"
}

// RefreshConfig controls the background refresh schedule.
type RefreshConfig struct {
	// Schedule is a cron expression with a leading seconds field, or a
	// descriptor such as "@daily" / "@every 6h".
	Schedule string `yaml:"schedule"`
}

// FetchConfig describes where the dataset comes from and where it is cached.
type FetchConfig struct {
	// BaseURL is the PeeringDB API index URL.
	BaseURL string `yaml:"base_url"`

	// DataDir is where fetched endpoint payloads are written as <name>.json.
	DataDir string `yaml:"data_dir"`

	// Dataset is the endpoint whose file is loaded into the store.
	Dataset string `yaml:"dataset"`

	// Endpoints restricts which index entries are downloaded. Empty means all.
	Endpoints []string `yaml:"endpoints"`

	// Timeout bounds every single HTTP request.
	Timeout time.Duration `yaml:"timeout"`

	// UserAgent is sent with every request.
	UserAgent string `yaml:"user_agent"`

	// KeyEnv names the environment variable holding the PeeringDB API key.
	// When the variable is empty requests are unauthenticated.
	KeyEnv string `yaml:"key_env"`
}

// APIKey returns the PeeringDB credential resolved from the environment.
func (f FetchConfig) APIKey() string {
	if f.KeyEnv == "" {
		return ""
	}
	return os.Getenv(f.KeyEnv)
}

// DatasetPath is the cache file the store is loaded from.
func (f FetchConfig) DatasetPath() string {
	return filepath.Join(f.DataDir, f.Dataset+".json")
}

// CacheConfig controls how the on-disk cache is observed.
type CacheConfig struct {
	// Watch reloads the store when the dataset file is rewritten by someone
	// else (for example an external fetch job).
	Watch bool `yaml:"watch"`
}

// NotifyConfig holds refresh failure alerting.
type NotifyConfig struct {
	// FailureThreshold is the number of consecutive failed refresh cycles
	// after which an alert fires.
	FailureThreshold int `yaml:"failure_threshold"`

	// Cooldown suppresses re-fires for this duration after an alert fires.
	Cooldown time.Duration `yaml:"cooldown"`

	Webhooks []WebhookConfig `yaml:"webhooks"`
}

// WebhookConfig defines one webhook delivery target.
type WebhookConfig struct {
	// Type is one of: teams | slack | http.
	Type string `yaml:"type"`

	// URLEnv is the name of the environment variable that holds the webhook URL.
	URLEnv string `yaml:"url_env"`
}

// URL returns the webhook URL resolved from the environment.
func (w WebhookConfig) URL() string {
	if w.URLEnv == "" {
		return ""
	}
	return os.Getenv(w.URLEnv)
}

// LogConfig selects the minimum log level.
type LogConfig struct {
	Level string `yaml:"level"`
}

// SlogLevel maps Level to a slog.Level; unknown values mean info.
func (l LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(l.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Load reads and parses the config file at path. A missing file yields the
// defaults. Environment overrides are applied before validation.
func Load(path string) (*Config, error) {
	cfg := defaults()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		// Run on defaults and environment only.
	case err != nil:
		return nil, fmt.Errorf("config: read %q: %w: %w", path, types.ErrConfig, err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse yaml: %w: %w", types.ErrConfig, err)
		}
	}

	applyEnv(cfg)
	fillZero(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w: %w", types.ErrConfig, err)
	}
	return cfg, nil
}

// defaults returns a Config pre-populated with default values.
func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			BindAddress:    DefaultBindAddress,
			StreamInterval: DefaultStreamInterval,
		},
		Refresh: RefreshConfig{Schedule: DefaultSchedule},
		Fetch: FetchConfig{
			BaseURL:   DefaultBaseURL,
			DataDir:   DefaultDataDir,
			Dataset:   DefaultDataset,
			Timeout:   DefaultFetchTimeout,
			UserAgent: DefaultUserAgent,
			KeyEnv:    DefaultAPIKeyEnv,
		},
		Cache: CacheConfig{Watch: true},
		Notify: NotifyConfig{
			FailureThreshold: DefaultFailureThreshold,
			Cooldown:         DefaultNotifyCooldown,
		},
		Log: LogConfig{Level: "info"},
	}
}

func applyEnv(cfg *Config) {
	if v := os.Getenv(EnvBindAddress); v != "" {
		cfg.Server.BindAddress = v
	}
	if v := os.Getenv(EnvSchedule); v != "" {
		cfg.Refresh.Schedule = v
	}
}

// fillZero restores defaults for keys present in the file but left empty.
func fillZero(cfg *Config) {
	if cfg.Refresh.Schedule == "" {
		cfg.Refresh.Schedule = DefaultSchedule
	}
	if cfg.Fetch.Timeout == 0 {
		cfg.Fetch.Timeout = DefaultFetchTimeout
	}
	if cfg.Fetch.UserAgent == "" {
		cfg.Fetch.UserAgent = DefaultUserAgent
	}
	if cfg.Server.StreamInterval == 0 {
		cfg.Server.StreamInterval = DefaultStreamInterval
	}
	if cfg.Notify.FailureThreshold == 0 {
		cfg.Notify.FailureThreshold = DefaultFailureThreshold
	}
	if cfg.Notify.Cooldown == 0 {
		cfg.Notify.Cooldown = DefaultNotifyCooldown
	}
}

// validate checks structural constraints on the parsed configuration.
func validate(cfg *Config) error {
	if _, _, err := net.SplitHostPort(cfg.Server.BindAddress); err != nil {
		return fmt.Errorf("server.bind_address %q: %v", cfg.Server.BindAddress, err)
	}
	switch cfg.Server.Auth.Mode {
	case "apikey", "none", "":
	default:
		return fmt.Errorf("server.auth.mode %q unknown: want apikey|none", cfg.Server.Auth.Mode)
	}
	if cfg.Server.StreamInterval < 0 {
		return fmt.Errorf("server.stream_interval must not be negative")
	}
	u, err := url.Parse(cfg.Fetch.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("fetch.base_url %q is not an absolute URL", cfg.Fetch.BaseURL)
	}
	if cfg.Fetch.DataDir == "" {
		return fmt.Errorf("fetch.data_dir must not be empty")
	}
	if cfg.Fetch.Dataset == "" || strings.ContainsAny(cfg.Fetch.Dataset, `/\`) {
		return fmt.Errorf("fetch.dataset %q must be a bare endpoint name", cfg.Fetch.Dataset)
	}
	if len(cfg.Fetch.Endpoints) > 0 && !contains(cfg.Fetch.Endpoints, cfg.Fetch.Dataset) {
		return fmt.Errorf("fetch.endpoints must include the dataset %q", cfg.Fetch.Dataset)
	}
	if cfg.Fetch.Timeout < 0 {
		return fmt.Errorf("fetch.timeout must not be negative")
	}
	if cfg.Notify.FailureThreshold < 0 {
		return fmt.Errorf("notify.failure_threshold must not be negative")
	}
	for i, wh := range cfg.Notify.Webhooks {
		switch wh.Type {
		case "slack", "teams", "http":
		default:
			return fmt.Errorf("notify.webhooks[%d].type %q unknown: want slack|teams|http", i, wh.Type)
		}
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
