// Package logging provides structured operational logging using uber/zap.
//
// Two modes:
//   - Production: JSON output for machine parsing
//   - Development: colored console output
//
// Operational logs are separate from the security audit trail, which has its
// own sinks in internal/infrastructure/auditstore. When the MCP server runs
// over stdio, StdioConfig routes logs to stderr so stdout carries only the
// protocol.
//
// Example Usage:
//
//	logger, err := logging.New(logging.DefaultConfig())
//	logger.Info("Server starting", zap.String("addr", ":8000"))
//	logger.Error("Failed to open audit log", zap.Error(err))
package logging
