package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Server defaults used when neither a flag, the environment nor the policy
// file supplies a value.
const (
	DefaultHost           = "0.0.0.0"
	DefaultPort           = 8000
	DefaultStartupTimeout = 30 * time.Second
)

// Config holds process configuration read from the environment.
type Config struct {
	Server    ServerConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
	Audit     AuditConfig
	// PolicyFile is the whitelist and policy document.
	PolicyFile string `envconfig:"POLICY_FILE" default:"config.json"`
}

// ServerConfig holds HTTP server configuration. Zero values mean "not set"
// so the policy file can fill them in.
type ServerConfig struct {
	Host           string        `envconfig:"HOST"`
	Port           int           `envconfig:"PORT"`
	StartupTimeout time.Duration `envconfig:"STARTUP_TIMEOUT"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds per-actor rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"20"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"40"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// AuditConfig locates the audit sinks. An empty DBPath disables the SQLite
// mirror.
type AuditConfig struct {
	LogPath      string `envconfig:"AUDIT_LOG_PATH" default:"logs/security.log"`
	DBPath       string `envconfig:"AUDIT_DB_PATH"`
	MemoryEvents int    `envconfig:"AUDIT_MEMORY_EVENTS" default:"1000"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		PolicyFile: "config.json",
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 20,
			Burst:             40,
			Enabled:           true,
		},
		Audit: AuditConfig{
			LogPath:      "logs/security.log",
			MemoryEvents: 1000,
		},
	}
}

// ApplyPolicy fills server settings that the environment left unset from
// the policy file, then from the package defaults.
func (c *Config) ApplyPolicy(p *Policy) {
	if c.Server.Host == "" {
		c.Server.Host = p.ServerHost
	}
	if c.Server.Port == 0 {
		c.Server.Port = p.ServerPort
	}
	if c.Server.StartupTimeout == 0 && p.ServerStartupTimeoutSeconds > 0 {
		c.Server.StartupTimeout = time.Duration(p.ServerStartupTimeoutSeconds) * time.Second
	}

	if c.Server.Host == "" {
		c.Server.Host = DefaultHost
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	if c.Server.StartupTimeout == 0 {
		c.Server.StartupTimeout = DefaultStartupTimeout
	}
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
