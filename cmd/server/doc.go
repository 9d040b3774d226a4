// Package main is the entry point for the FileMaster server.
//
// FileMaster gives a tool-calling agent file and directory operations
// confined to an administrator-defined set of directories. Every mutation
// and every refusal is written to the security audit log.
//
// The server provides:
//   - REST API for tool listing and execution
//   - WebSocket streaming search
//   - MCP over SSE, or over stdio with --stdio
//   - Prometheus metrics
//
// Configuration:
//   - Policy file (JSON, YAML or TOML): whitelist, size limit, extensions, delete switch
//   - Environment variables (12-factor)
//   - CLI flags (override both)
//
// Usage:
//
//	# Serve HTTP
//	filemaster serve --config config.json
//
//	# Serve MCP to a client that spawns the process
//	filemaster serve --config config.yaml --stdio
//
//	# Validate a policy, then test paths against it
//	filemaster check-config --config config.toml
//	filemaster check-path --config config.json /srv/data/report.txt
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main
