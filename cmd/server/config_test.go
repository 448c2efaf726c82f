package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const testJWTSecret = "0123456789abcdef0123456789abcdef"

func validConfig() *Config {
	cfg := DefaultConfig()
	cfg.JWTSecret = testJWTSecret
	cfg.MasterKey = "master"
	return cfg
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"short jwt secret", func(c *Config) { c.JWTSecret = "short" }, "JWT_SECRET"},
		{"missing master key", func(c *Config) { c.MasterKey = "" }, "MASTER_KEY"},
		{"tls without cert", func(c *Config) { c.Server.TLS.Enabled = true }, "cert_file"},
		{"metrics on api port", func(c *Config) { c.Server.MetricsAddress = ":8080" }, "metrics_address"},
		{"refresh shorter than access", func(c *Config) { c.Auth.RefreshTokenTTL = time.Minute }, "refresh_token_ttl"},
		{"watch without file", func(c *Config) { c.Alerts.WatchRules = true }, "rules_file"},
		{"email without host", func(c *Config) { c.Notify.Email.Enabled = true }, "notify.email"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(cfg)
			err := cfg.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("Validate() = %v, want error containing %q", err, tc.wantErr)
			}
		})
	}
}

func TestEnvKey(t *testing.T) {
	tests := map[string]string{
		"HEARTPATH_SERVER__HTTP_ADDRESS":   "server.http_address",
		"HEARTPATH_AUTH__ACCESS_TOKEN_TTL": "auth.access_token_ttl",
		"HEARTPATH_NOTIFY__EMAIL__HOST":    "notify.email.host",
	}
	for in, want := range tests {
		if got := envKey(in); got != want {
			t.Errorf("envKey(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLoadConfig_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "heartpath.yaml")
	yaml := `
server:
  http_address: ":9090"
auth:
  access_token_ttl: 10m
alerts:
  rules_file: rules.yaml
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("HEARTPATH_JWT_SECRET", testJWTSecret)
	t.Setenv("HEARTPATH_MASTER_KEY", "master")
	t.Setenv("HEARTPATH_SERVER__METRICS_ADDRESS", ":9100")
	t.Setenv("HEARTPATH_WEARABLE_API_KEY", "key-from-env")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Server.HTTPAddress != ":9090" {
		t.Errorf("http_address = %q, want :9090", cfg.Server.HTTPAddress)
	}
	if cfg.Server.MetricsAddress != ":9100" {
		t.Errorf("metrics_address = %q, want :9100", cfg.Server.MetricsAddress)
	}
	if cfg.Auth.AccessTokenTTL != 10*time.Minute {
		t.Errorf("access_token_ttl = %v, want 10m", cfg.Auth.AccessTokenTTL)
	}
	if cfg.Auth.RefreshTokenTTL != 7*24*time.Hour {
		t.Errorf("refresh_token_ttl = %v, want default", cfg.Auth.RefreshTokenTTL)
	}
	if cfg.Wearable.APIKey != "key-from-env" {
		t.Errorf("wearable api key = %q", cfg.Wearable.APIKey)
	}
	if cfg.Alerts.RulesFile != "rules.yaml" {
		t.Errorf("rules_file = %q", cfg.Alerts.RulesFile)
	}
}

func TestLoadConfig_RequiresSecrets(t *testing.T) {
	t.Setenv("HEARTPATH_JWT_SECRET", "")
	t.Setenv("HEARTPATH_MASTER_KEY", "")
	if _, err := LoadConfig(""); err == nil {
		t.Fatal("expected error without secrets")
	}
}
