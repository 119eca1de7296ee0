package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Policy failure modes. FailOpen lets a check-in proceed to Gympass validation
// when the abuse policy cannot produce a decision; FailClosed declines it.
const (
	FailOpen   = "fail_open"
	FailClosed = "fail_closed"
)

// Policy evaluator modes.
const (
	PolicyModeWindow = "window"
	PolicyModeRemote = "remote"
)

// Config represents the overall application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	App      AppConfig      `yaml:"app"`
	Gympass  GympassConfig  `yaml:"gympass"`
	Policy   PolicyConfig   `yaml:"policy"`
	Webhook  WebhookConfig  `yaml:"webhook"`
	Database DatabaseConfig `yaml:"database"`
}

// ServerConfig holds the server-related configuration.
type ServerConfig struct {
	Port            int     `yaml:"port"`
	LogLevel        string  `yaml:"log_level"`
	RequestIPHeader string  `yaml:"request_ip_header"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec"`
	RateLimitBurst  int     `yaml:"rate_limit_burst"`
}

// AppConfig holds the externally visible application settings. PublicURL is
// the base of both the QR-encoded check-in URL and the status redirect.
type AppConfig struct {
	PublicURL string `yaml:"public_url"`
}

// GympassConfig holds the partner API credentials and endpoint settings.
// APIKey may be overridden by the GYMPASS_API_KEY environment variable.
type GympassConfig struct {
	APIKey         string        `yaml:"api_key"`
	BaseURL        string        `yaml:"base_url"`
	GymID          int           `yaml:"gym_id"`
	TimeoutSeconds int           `yaml:"timeout_seconds"`
	Timeout        time.Duration `yaml:"-"`
}

// PolicyConfig holds the abuse policy evaluator settings.
type PolicyConfig struct {
	Mode                 string        `yaml:"mode"`
	FailMode             string        `yaml:"fail_mode"`
	MaxAttempts          int           `yaml:"max_attempts"`
	WindowSeconds        int           `yaml:"window_seconds"`
	Window               time.Duration `yaml:"-"`
	MaxUsersPerDevice    int           `yaml:"max_users_per_device"`
	RemoteURL            string        `yaml:"remote_url"`
	RemoteTimeoutSeconds int           `yaml:"remote_timeout_seconds"`
	RemoteTimeout        time.Duration `yaml:"-"`
}

// WebhookConfig holds the Gympass webhook intake settings. Secret may be
// overridden by the GYMPASS_WEBHOOK_SECRET environment variable.
type WebhookConfig struct {
	Secret               string        `yaml:"secret"`
	WorkerPoolSize       int           `yaml:"worker_pool_size"`
	PendingTTLMinutes    int           `yaml:"pending_ttl_minutes"`
	PendingTTL           time.Duration `yaml:"-"`
	SweepIntervalSeconds int           `yaml:"sweep_interval_seconds"`
	SweepInterval        time.Duration `yaml:"-"`
}

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
}

// Load reads the configuration from the given path and applies defaults.
// A missing Gympass API key is deliberately not an error here: the check-in
// route declines every request with a configuration error until it is set.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}

	applyEnvOverrides(&cfg)
	applyDefaults(&cfg)

	if cfg.Policy.FailMode != FailOpen && cfg.Policy.FailMode != FailClosed {
		return nil, fmt.Errorf("invalid policy.fail_mode %q: must be %q or %q", cfg.Policy.FailMode, FailOpen, FailClosed)
	}
	if cfg.Policy.Mode != PolicyModeWindow && cfg.Policy.Mode != PolicyModeRemote {
		return nil, fmt.Errorf("invalid policy.mode %q: must be %q or %q", cfg.Policy.Mode, PolicyModeWindow, PolicyModeRemote)
	}
	if cfg.Policy.Mode == PolicyModeRemote && cfg.Policy.RemoteURL == "" {
		return nil, fmt.Errorf("policy.remote_url is required when policy.mode is %q", PolicyModeRemote)
	}

	return &cfg, nil
}

// applyEnvOverrides lets secrets come from the environment instead of the
// config file.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("GYMPASS_API_KEY"); v != "" {
		cfg.Gympass.APIKey = v
	}
	if v := os.Getenv("GYMPASS_WEBHOOK_SECRET"); v != "" {
		cfg.Webhook.Secret = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.LogLevel == "" {
		cfg.Server.LogLevel = "info"
	}
	if cfg.Server.RateLimitPerSec <= 0 {
		cfg.Server.RateLimitPerSec = 10
	}
	if cfg.Server.RateLimitBurst <= 0 {
		cfg.Server.RateLimitBurst = 5
	}

	if cfg.App.PublicURL == "" {
		cfg.App.PublicURL = "http://localhost:9002"
	}

	if cfg.Gympass.BaseURL == "" {
		// Sandbox endpoint; production deployments must set base_url.
		cfg.Gympass.BaseURL = "https://api.partners.stg.gympass.com"
	}
	if cfg.Gympass.TimeoutSeconds <= 0 {
		cfg.Gympass.TimeoutSeconds = 10
	}
	cfg.Gympass.Timeout = time.Duration(cfg.Gympass.TimeoutSeconds) * time.Second

	if cfg.Policy.Mode == "" {
		cfg.Policy.Mode = PolicyModeWindow
	}
	if cfg.Policy.FailMode == "" {
		cfg.Policy.FailMode = FailOpen
	}
	if cfg.Policy.MaxAttempts <= 0 {
		cfg.Policy.MaxAttempts = 3
	}
	if cfg.Policy.WindowSeconds <= 0 {
		cfg.Policy.WindowSeconds = 300
	}
	cfg.Policy.Window = time.Duration(cfg.Policy.WindowSeconds) * time.Second
	if cfg.Policy.MaxUsersPerDevice <= 0 {
		cfg.Policy.MaxUsersPerDevice = 3
	}
	if cfg.Policy.RemoteTimeoutSeconds <= 0 {
		cfg.Policy.RemoteTimeoutSeconds = 5
	}
	cfg.Policy.RemoteTimeout = time.Duration(cfg.Policy.RemoteTimeoutSeconds) * time.Second

	if cfg.Webhook.WorkerPoolSize <= 0 {
		cfg.Webhook.WorkerPoolSize = 1
	}
	if cfg.Webhook.PendingTTLMinutes <= 0 {
		cfg.Webhook.PendingTTLMinutes = 30
	}
	cfg.Webhook.PendingTTL = time.Duration(cfg.Webhook.PendingTTLMinutes) * time.Minute
	if cfg.Webhook.SweepIntervalSeconds <= 0 {
		cfg.Webhook.SweepIntervalSeconds = 60
	}
	cfg.Webhook.SweepInterval = time.Duration(cfg.Webhook.SweepIntervalSeconds) * time.Second
}
