// Package config handles TOML configuration loading and validation.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	toml "github.com/pelletier/go-toml/v2"
)

// configSearchPaths lists paths checked in order when no explicit config is given.
var configSearchPaths = []string{
	"/etc/fetch-gateway/config.toml",
	"configs/config.toml",
}

var routePattern = regexp.MustCompile(`^/\S*$`)

// CLI holds command-line arguments parsed by Kong.
type CLI struct {
	Config       string `kong:"short='c',help='Path to TOML config file.',env='CONFIG_PATH'"`
	Host         string `kong:"help='Listen host (overrides config).',env='HOST'"`
	Port         int    `kong:"short='p',help='Listen port (overrides config).',env='PORT'"`
	UnlockSecret string `kong:"help='Shared secret for the static-tree unlock cookie (overrides config).',env='UNLOCK_SECRET'"`
	LogLevel     string `kong:"help='Log level: debug|info|warn|error (overrides config).',env='LOG_LEVEL'"`
}

// Config is the top-level application configuration.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Gateway  GatewayConfig  `toml:"gateway"`
	Upstream UpstreamConfig `toml:"upstream"`
	Log      LogConfig      `toml:"log"`
	Metrics  MetricsConfig  `toml:"metrics"`

	filePath string // resolved config file path (unexported)
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host         string          `toml:"host"`
	Port         int             `toml:"port"` // 0 means "use default" (8080); TOML cannot distinguish 0 from unset
	BodyMaxBytes int64           `toml:"body_max_bytes"`
	RateLimit    RateLimitConfig `toml:"rate_limit"`
}

// RateLimitConfig controls per-IP request rate limiting.
type RateLimitConfig struct {
	Enabled           bool    `toml:"enabled"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
}

// GatewayConfig holds the routing and unlock-gate settings.
type GatewayConfig struct {
	ForwardPath  string `toml:"forward_path"`
	RelayPrefix  string `toml:"relay_prefix"`
	StaticDir    string `toml:"static_dir"`
	UnlockCookie string `toml:"unlock_cookie"`
	UnlockSecret string `toml:"unlock_secret"`
}

// UpstreamConfig holds outbound connection settings.
type UpstreamConfig struct {
	TimeoutSeconds  int `toml:"timeout_seconds"`
	IdleConnections int `toml:"idle_connections"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// MetricsConfig holds Prometheus metrics settings.
type MetricsConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Load reads the TOML config file and applies CLI overrides.
// When no explicit path is given (via --config or CONFIG_PATH), it searches
// /etc/fetch-gateway/config.toml then configs/config.toml. A missing config
// file is not an error: the gateway runs entirely on defaults.
func Load(cli *CLI) (*Config, error) {
	var cfg Config

	path := cli.Config
	if path == "" {
		path = findConfig()
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
		cfg.filePath = path
	}

	cfg.applyCLI(cli)
	cfg.setDefaults()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}

	return &cfg, nil
}

// applyCLI overrides config values with non-zero CLI flags.
func (c *Config) applyCLI(cli *CLI) {
	if cli.Host != "" {
		c.Server.Host = cli.Host
	}
	if cli.Port != 0 {
		c.Server.Port = cli.Port
	}
	if cli.UnlockSecret != "" {
		c.Gateway.UnlockSecret = cli.UnlockSecret
	}
	if cli.LogLevel != "" {
		c.Log.Level = cli.LogLevel
	}
}

func (c *Config) validate() error {
	if err := validation.ValidateStruct(&c.Server,
		validation.Field(&c.Server.Port, validation.Min(1), validation.Max(65535)),
		validation.Field(&c.Server.BodyMaxBytes, validation.Min(int64(0))),
	); err != nil {
		return fmt.Errorf("server: %w", err)
	}

	if err := validation.ValidateStruct(&c.Gateway,
		validation.Field(&c.Gateway.ForwardPath, validation.Required,
			validation.Match(routePattern).Error("must start with '/'")),
		validation.Field(&c.Gateway.RelayPrefix, validation.Required,
			validation.Match(routePattern).Error("must start with '/'")),
		validation.Field(&c.Gateway.UnlockCookie, validation.Required, is.PrintableASCII),
	); err != nil {
		return fmt.Errorf("gateway: %w", err)
	}

	// The dispatcher checks the forward path before the relay prefix, so the
	// two routes must not shadow each other.
	if c.Gateway.ForwardPath == c.Gateway.RelayPrefix {
		return fmt.Errorf("gateway: forward_path and relay_prefix must differ; both are %q", c.Gateway.ForwardPath)
	}
	if strings.HasPrefix(c.Gateway.ForwardPath, c.Gateway.RelayPrefix) {
		return fmt.Errorf("gateway: forward_path %q is shadowed by relay_prefix %q", c.Gateway.ForwardPath, c.Gateway.RelayPrefix)
	}

	if err := validation.ValidateStruct(&c.Upstream,
		validation.Field(&c.Upstream.TimeoutSeconds, validation.Min(0)),
		validation.Field(&c.Upstream.IdleConnections, validation.Min(0)),
	); err != nil {
		return fmt.Errorf("upstream: %w", err)
	}

	if err := validation.ValidateStruct(&c.Log,
		validation.Field(&c.Log.Level, validation.In("debug", "info", "warn", "error")),
		validation.Field(&c.Log.Format, validation.In("json", "text")),
	); err != nil {
		return fmt.Errorf("log: %w", err)
	}

	if c.Server.RateLimit.Enabled && c.Server.RateLimit.RequestsPerSecond <= 0 {
		return fmt.Errorf("server.rate_limit.requests_per_second must be > 0 when rate limiting is enabled; got %v", c.Server.RateLimit.RequestsPerSecond)
	}

	// Metrics path validation (only when metrics are enabled).
	if c.Metrics.Enabled {
		p := c.Metrics.Path
		if !strings.HasPrefix(p, "/") {
			return fmt.Errorf("metrics.path must start with '/'; got %q", p)
		}
		for _, reserved := range []string{c.Gateway.ForwardPath, c.Gateway.RelayPrefix, "/healthz", "/status"} {
			if p == reserved || strings.HasPrefix(p, reserved+"/") {
				return fmt.Errorf("metrics.path %q conflicts with reserved route %q", p, reserved)
			}
		}
	}

	return nil
}

// setDefaults fills zero-valued fields with sensible defaults.
// For integer fields (Port, BodyMaxBytes, etc.), zero means "unset" because TOML
// cannot distinguish between an explicit 0 and an omitted key.
func (c *Config) setDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.BodyMaxBytes == 0 {
		c.Server.BodyMaxBytes = 10 * 1024 * 1024 // 10 MB
	}
	if c.Gateway.ForwardPath == "" {
		c.Gateway.ForwardPath = "/fetch"
	}
	if c.Gateway.RelayPrefix == "" {
		c.Gateway.RelayPrefix = "/fetchWs"
	}
	if c.Gateway.StaticDir == "" {
		c.Gateway.StaticDir = "public"
	}
	if c.Gateway.UnlockCookie == "" {
		c.Gateway.UnlockCookie = "unlock"
	}
	if c.Upstream.TimeoutSeconds == 0 {
		c.Upstream.TimeoutSeconds = 120
	}
	if c.Upstream.IdleConnections == 0 {
		c.Upstream.IdleConnections = 100
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
}

// findConfig returns the first config path that exists, or empty string.
func findConfig() string {
	return findConfigInPaths(configSearchPaths)
}

// findConfigInPaths returns the first path that exists on disk, or empty string.
func findConfigInPaths(paths []string) string {
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// Addr returns the server listen address as host:port.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// WarnPermissions logs a warning if the config file is readable by group or
// others. The unlock secret lives in this file.
func (c *Config) WarnPermissions(logger *slog.Logger) {
	if c.filePath == "" {
		return
	}
	info, err := os.Stat(c.filePath)
	if err != nil {
		return
	}
	if perm := info.Mode().Perm(); perm&0o077 != 0 {
		logger.Warn("config file is readable by group/others; consider chmod 600",
			"path", c.filePath,
			"mode", fmt.Sprintf("%04o", perm),
		)
	}
}
