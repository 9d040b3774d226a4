// Package config loads process configuration from the environment and the
// whitelist policy from a JSON, YAML or TOML file.
//
// Environment configuration follows 12-factor conventions with envconfig.
// The policy file is decoded strictly: unknown keys, wrong types and missing
// required keys fail startup. Server settings resolve in order flag,
// environment, policy file, default.
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	policy, err := config.LoadPolicy(cfg.PolicyFile)
//	settings, err := policy.Settings()
//	cfg.ApplyPolicy(policy)
//
// Environment Variables:
//   - HOST, PORT, STARTUP_TIMEOUT
//   - LOG_LEVEL, LOG_DEV
//   - RATE_LIMIT_RPS, RATE_LIMIT_BURST, RATE_LIMIT_ENABLED
//   - POLICY_FILE, AUDIT_LOG_PATH, AUDIT_DB_PATH, AUDIT_MEMORY_EVENTS
package config
