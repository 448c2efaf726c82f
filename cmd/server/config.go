// Package main provides the HeartPath server CLI.
package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix prefixes every environment override. A double underscore
// separates sections: HEARTPATH_SERVER__HTTP_ADDRESS sets server.http_address.
const EnvPrefix = "HEARTPATH_"

// Config represents the server configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Auth     AuthConfig     `koanf:"auth"`
	Alerts   AlertsConfig   `koanf:"alerts"`
	Wearable WearableConfig `koanf:"wearable"`
	Notify   NotifyConfig   `koanf:"notify"`

	// Secrets, read from the environment only.
	JWTSecret string `koanf:"-"`
	MasterKey string `koanf:"-"`
	Verbose   bool   `koanf:"-"` // set via CLI flag
}

// ServerConfig contains listener settings.
type ServerConfig struct {
	HTTPAddress    string    `koanf:"http_address"`    // API listen address (default: :8080)
	MetricsAddress string    `koanf:"metrics_address"` // Prometheus listen address, empty disables
	AllowedOrigins []string  `koanf:"allowed_origins"` // Websocket origins
	TLS            TLSConfig `koanf:"tls"`
}

// TLSConfig contains HTTPS settings for the API listener.
type TLSConfig struct {
	Enabled  bool   `koanf:"enabled"`
	CertFile string `koanf:"cert_file"`
	KeyFile  string `koanf:"key_file"`
}

// DatabaseConfig contains SQLite settings.
type DatabaseConfig struct {
	Path string `koanf:"path"`
}

// AuthConfig contains token, lockout and rate-limit settings.
type AuthConfig struct {
	AccessTokenTTL   time.Duration `koanf:"access_token_ttl"`
	RefreshTokenTTL  time.Duration `koanf:"refresh_token_ttl"`
	LockoutThreshold int           `koanf:"lockout_threshold"`
	LockoutDuration  time.Duration `koanf:"lockout_duration"`
	RateLimitPerIP   int           `koanf:"rate_limit_per_ip"`
	RateLimitPerUser int           `koanf:"rate_limit_per_user"`
	WebhookRateLimit int           `koanf:"webhook_rate_limit"`
}

// AlertsConfig contains custom alert rule settings.
type AlertsConfig struct {
	RulesFile  string `koanf:"rules_file"` // Empty disables custom rules
	WatchRules bool   `koanf:"watch_rules"`
}

// WearableConfig contains wearable vendor settings.
type WearableConfig struct {
	APIURL         string        `koanf:"api_url"`
	WidgetURL      string        `koanf:"widget_url"`
	APIKey         string        `koanf:"api_key"`
	DevID          string        `koanf:"dev_id"`
	SigningSecret  string        `koanf:"signing_secret"`
	ConnectTimeout time.Duration `koanf:"connect_timeout"`
}

// NotifyConfig contains care-team notification channels.
type NotifyConfig struct {
	SlackWebhookURL string        `koanf:"slack_webhook_url"`
	TeamsWebhookURL string        `koanf:"teams_webhook_url"`
	Email           EmailConfig   `koanf:"email"`
	MaxPerWindow    int           `koanf:"max_per_window"`
	Window          time.Duration `koanf:"window"`
}

// EmailConfig contains SMTP settings.
type EmailConfig struct {
	Enabled    bool     `koanf:"enabled"`
	Host       string   `koanf:"host"`
	Port       int      `koanf:"port"`
	Username   string   `koanf:"username"`
	Password   string   `koanf:"password"`
	From       string   `koanf:"from"`
	Recipients []string `koanf:"recipients"`
}

// envKey maps HEARTPATH_AUTH__ACCESS_TOKEN_TTL to auth.access_token_ttl.
func envKey(s string) string {
	s = strings.TrimPrefix(s, EnvPrefix)
	return strings.ReplaceAll(strings.ToLower(s), "__", ".")
}

// LoadConfig layers the optional YAML file at path and HEARTPATH_ variables,
// then applies defaults and validates.
func LoadConfig(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applySecrets()
	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.setDefaults()
	return cfg
}

// applySecrets reads secrets that have flat, documented variable names.
func (c *Config) applySecrets() {
	c.JWTSecret = os.Getenv(EnvPrefix + "JWT_SECRET")
	c.MasterKey = os.Getenv(EnvPrefix + "MASTER_KEY")
	if v := os.Getenv(EnvPrefix + "WEARABLE_API_KEY"); v != "" {
		c.Wearable.APIKey = v
	}
	if v := os.Getenv(EnvPrefix + "WEARABLE_DEV_ID"); v != "" {
		c.Wearable.DevID = v
	}
	if v := os.Getenv(EnvPrefix + "WEARABLE_SIGNING_SECRET"); v != "" {
		c.Wearable.SigningSecret = v
	}
	if v := os.Getenv(EnvPrefix + "SMTP_PASSWORD"); v != "" {
		c.Notify.Email.Password = v
	}
}

// setDefaults sets default values for missing config fields.
func (c *Config) setDefaults() {
	if c.Server.HTTPAddress == "" {
		c.Server.HTTPAddress = ":8080"
	}
	if c.Database.Path == "" {
		c.Database.Path = "data/heartpath.db"
	}
	if c.Auth.AccessTokenTTL == 0 {
		c.Auth.AccessTokenTTL = 15 * time.Minute
	}
	if c.Auth.RefreshTokenTTL == 0 {
		c.Auth.RefreshTokenTTL = 7 * 24 * time.Hour
	}
	if c.Auth.LockoutThreshold == 0 {
		c.Auth.LockoutThreshold = 5
	}
	if c.Auth.LockoutDuration == 0 {
		c.Auth.LockoutDuration = 30 * time.Minute
	}
	if c.Wearable.ConnectTimeout == 0 {
		c.Wearable.ConnectTimeout = 15 * time.Second
	}
	if c.Notify.MaxPerWindow == 0 {
		c.Notify.MaxPerWindow = 10
	}
	if c.Notify.Window == 0 {
		c.Notify.Window = time.Minute
	}
	if c.Notify.Email.Port == 0 {
		c.Notify.Email.Port = 587
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if len(c.JWTSecret) < 32 {
		return fmt.Errorf("%sJWT_SECRET must be at least 32 characters", EnvPrefix)
	}
	if c.MasterKey == "" {
		return fmt.Errorf("%sMASTER_KEY is required", EnvPrefix)
	}
	if c.Server.HTTPAddress == "" {
		return fmt.Errorf("server.http_address is required")
	}
	if c.Server.TLS.Enabled {
		if c.Server.TLS.CertFile == "" {
			return fmt.Errorf("server.tls.cert_file is required when TLS is enabled")
		}
		if c.Server.TLS.KeyFile == "" {
			return fmt.Errorf("server.tls.key_file is required when TLS is enabled")
		}
	}
	if c.Server.MetricsAddress != "" && c.Server.MetricsAddress == c.Server.HTTPAddress {
		return fmt.Errorf("server.metrics_address must differ from server.http_address")
	}
	if c.Auth.AccessTokenTTL < time.Minute {
		return fmt.Errorf("auth.access_token_ttl must be at least 1m")
	}
	if c.Auth.RefreshTokenTTL <= c.Auth.AccessTokenTTL {
		return fmt.Errorf("auth.refresh_token_ttl must exceed auth.access_token_ttl")
	}
	if c.Alerts.WatchRules && c.Alerts.RulesFile == "" {
		return fmt.Errorf("alerts.rules_file is required when alerts.watch_rules is set")
	}
	if c.Notify.Email.Enabled {
		if c.Notify.Email.Host == "" || c.Notify.Email.From == "" || len(c.Notify.Email.Recipients) == 0 {
			return fmt.Errorf("notify.email requires host, from and recipients when enabled")
		}
	}
	return nil
}
