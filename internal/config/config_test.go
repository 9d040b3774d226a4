package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "config.json", cfg.PolicyFile)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.Logging.Development)
	assert.Equal(t, 20, cfg.RateLimit.RequestsPerSecond)
	assert.Equal(t, 40, cfg.RateLimit.Burst)
	assert.True(t, cfg.RateLimit.Enabled)
	assert.Equal(t, "logs/security.log", cfg.Audit.LogPath)
	assert.Empty(t, cfg.Audit.DBPath)
}

func TestLoadWithEnvironmentVariables(t *testing.T) {
	envVars := map[string]string{
		"PORT":               "9000",
		"HOST":               "127.0.0.1",
		"STARTUP_TIMEOUT":    "5s",
		"LOG_LEVEL":          "debug",
		"LOG_DEV":            "true",
		"RATE_LIMIT_RPS":     "500",
		"RATE_LIMIT_BURST":   "1000",
		"RATE_LIMIT_ENABLED": "false",
		"POLICY_FILE":        "/etc/filemaster/policy.yaml",
		"AUDIT_LOG_PATH":     "/var/log/fm.log",
		"AUDIT_DB_PATH":      "/var/lib/fm.db",
	}
	for key, value := range envVars {
		t.Setenv(key, value)
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 5*time.Second, cfg.Server.StartupTimeout)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Logging.Development)
	assert.Equal(t, 500, cfg.RateLimit.RequestsPerSecond)
	assert.Equal(t, 1000, cfg.RateLimit.Burst)
	assert.False(t, cfg.RateLimit.Enabled)
	assert.Equal(t, "/etc/filemaster/policy.yaml", cfg.PolicyFile)
	assert.Equal(t, "/var/log/fm.log", cfg.Audit.LogPath)
	assert.Equal(t, "/var/lib/fm.db", cfg.Audit.DBPath)
}

func TestLoadInvalidEnvironment(t *testing.T) {
	t.Setenv("PORT", "not-a-number")

	_, err := Load()
	assert.Error(t, err)

	cfg := LoadOrDefault()
	assert.Equal(t, Default(), cfg)
}

func TestApplyPolicyPrecedence(t *testing.T) {
	tests := []struct {
		name    string
		server  ServerConfig
		policy  Policy
		want    ServerConfig
		wantStr string
	}{
		{
			name:    "defaults",
			want:    ServerConfig{Host: DefaultHost, Port: DefaultPort, StartupTimeout: DefaultStartupTimeout},
			wantStr: "0.0.0.0:8000",
		},
		{
			name:    "policy fills unset values",
			policy:  Policy{ServerHost: "127.0.0.1", ServerPort: 8765, ServerStartupTimeoutSeconds: 10},
			want:    ServerConfig{Host: "127.0.0.1", Port: 8765, StartupTimeout: 10 * time.Second},
			wantStr: "127.0.0.1:8765",
		},
		{
			name:    "environment wins",
			server:  ServerConfig{Host: "localhost", Port: 9000, StartupTimeout: time.Second},
			policy:  Policy{ServerHost: "127.0.0.1", ServerPort: 8765, ServerStartupTimeoutSeconds: 10},
			want:    ServerConfig{Host: "localhost", Port: 9000, StartupTimeout: time.Second},
			wantStr: "localhost:9000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Server = tt.server
			cfg.ApplyPolicy(&tt.policy)
			assert.Equal(t, tt.want, cfg.Server)
			assert.Equal(t, tt.wantStr, cfg.Server.Addr())
		})
	}
}
