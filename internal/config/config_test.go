package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// cliWithPath returns a CLI struct pointing at the given config file.
func cliWithPath(path string) *CLI {
	return &CLI{Config: path}
}

func writeConfig(t *testing.T, data string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_ValidConfig(t *testing.T) {
	path := writeConfig(t, `
[server]
host = "127.0.0.1"
port = 9000
body_max_bytes = 5242880

[gateway]
forward_path = "/fetch"
relay_prefix = "/fetchWs"
static_dir = "www"
unlock_cookie = "gate"
unlock_secret = "s3cret"

[upstream]
timeout_seconds = 60
idle_connections = 50

[log]
level = "debug"
format = "text"
`)

	cfg, err := Load(cliWithPath(path))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("Server.Host = %q, want %q", cfg.Server.Host, "127.0.0.1")
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, 9000)
	}
	if cfg.Gateway.StaticDir != "www" {
		t.Errorf("Gateway.StaticDir = %q, want %q", cfg.Gateway.StaticDir, "www")
	}
	if cfg.Gateway.UnlockSecret != "s3cret" {
		t.Errorf("Gateway.UnlockSecret = %q, want %q", cfg.Gateway.UnlockSecret, "s3cret")
	}
	if cfg.Upstream.TimeoutSeconds != 60 {
		t.Errorf("Upstream.TimeoutSeconds = %d, want %d", cfg.Upstream.TimeoutSeconds, 60)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want %q", cfg.Log.Level, "debug")
	}
}

func TestLoad_NoConfigFileUsesDefaults(t *testing.T) {
	cfg, err := Load(&CLI{})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want %d", cfg.Server.Port, 8080)
	}
	if cfg.Gateway.ForwardPath != "/fetch" {
		t.Errorf("Gateway.ForwardPath = %q, want %q", cfg.Gateway.ForwardPath, "/fetch")
	}
	if cfg.Gateway.RelayPrefix != "/fetchWs" {
		t.Errorf("Gateway.RelayPrefix = %q, want %q", cfg.Gateway.RelayPrefix, "/fetchWs")
	}
	if cfg.Gateway.UnlockCookie != "unlock" {
		t.Errorf("Gateway.UnlockCookie = %q, want %q", cfg.Gateway.UnlockCookie, "unlock")
	}
	if cfg.Gateway.UnlockSecret != "" {
		t.Errorf("Gateway.UnlockSecret = %q, want empty (gate open by default)", cfg.Gateway.UnlockSecret)
	}
	if cfg.Log.Format != "json" {
		t.Errorf("Log.Format = %q, want %q", cfg.Log.Format, "json")
	}
	if cfg.Metrics.Path != "/metrics" {
		t.Errorf("Metrics.Path = %q, want %q", cfg.Metrics.Path, "/metrics")
	}
}

func TestLoad_CLIOverrides(t *testing.T) {
	path := writeConfig(t, `
[server]
host = "0.0.0.0"
port = 9000
`)

	cli := &CLI{
		Config:       path,
		Host:         "127.0.0.1",
		Port:         7000,
		UnlockSecret: "cli-secret",
		LogLevel:     "warn",
	}

	cfg, err := Load(cli)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("Server.Host = %q, want CLI override %q", cfg.Server.Host, "127.0.0.1")
	}
	if cfg.Server.Port != 7000 {
		t.Errorf("Server.Port = %d, want CLI override %d", cfg.Server.Port, 7000)
	}
	if cfg.Gateway.UnlockSecret != "cli-secret" {
		t.Errorf("Gateway.UnlockSecret = %q, want CLI override", cfg.Gateway.UnlockSecret)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("Log.Level = %q, want CLI override %q", cfg.Log.Level, "warn")
	}
}

func TestLoad_InvalidLogLevel(t *testing.T) {
	path := writeConfig(t, `
[log]
level = "verbose"
`)

	if _, err := Load(cliWithPath(path)); err == nil {
		t.Fatal("Load() expected error for invalid log level")
	}
}

func TestLoad_RouteShadowing(t *testing.T) {
	tests := []struct {
		name        string
		forwardPath string
		relayPrefix string
	}{
		{"identical", "/fetch", "/fetch"},
		{"forward under relay prefix", "/fetchWs/http", "/fetchWs"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, `
[gateway]
forward_path = "`+tt.forwardPath+`"
relay_prefix = "`+tt.relayPrefix+`"
`)
			if _, err := Load(cliWithPath(path)); err == nil {
				t.Fatal("Load() expected shadowing error")
			}
		})
	}
}

func TestLoad_RoutesMustStartWithSlash(t *testing.T) {
	path := writeConfig(t, `
[gateway]
forward_path = "fetch"
`)

	_, err := Load(cliWithPath(path))
	if err == nil {
		t.Fatal("Load() expected error for route without leading slash")
	}
	if !strings.Contains(err.Error(), "gateway") {
		t.Errorf("error = %v, want gateway validation error", err)
	}
}

func TestLoad_RateLimitRequiresPositiveRPS(t *testing.T) {
	path := writeConfig(t, `
[server.rate_limit]
enabled = true
requests_per_second = 0
`)

	if _, err := Load(cliWithPath(path)); err == nil {
		t.Fatal("Load() expected error for zero rate limit")
	}
}

func TestLoad_MetricsPathConflict(t *testing.T) {
	path := writeConfig(t, `
[metrics]
enabled = true
path = "/fetch"
`)

	if _, err := Load(cliWithPath(path)); err == nil {
		t.Fatal("Load() expected error for metrics path conflicting with forward path")
	}
}

func TestLoad_MissingExplicitConfig(t *testing.T) {
	if _, err := Load(cliWithPath("/nonexistent/config.toml")); err == nil {
		t.Fatal("Load() expected error for missing explicit config file")
	}
}

func TestServerConfig_Addr(t *testing.T) {
	sc := &ServerConfig{Host: "127.0.0.1", Port: 8080}
	if got := sc.Addr(); got != "127.0.0.1:8080" {
		t.Errorf("Addr() = %q, want %q", got, "127.0.0.1:8080")
	}
}
