// Package server assembles and runs FileMaster.
//
// This package orchestrates all components:
//   - Audit chain: security log, optional SQLite store, in-memory ring, metrics
//   - File service and the filesystem tool provider
//   - HTTP routing with Gin (REST, WebSocket search, MCP over SSE, /metrics)
//   - Middleware stack (request IDs, actors, logging, CORS, rate limiting)
//
// Server Lifecycle:
//  1. Load configuration from environment and the policy file
//  2. Build settings from the policy; fail fast on a bad whitelist
//  3. Open audit sinks
//  4. Register the filesystem provider
//  5. Setup HTTP routes and middleware
//  6. Listen within the startup timeout and serve
//  7. Graceful shutdown when the context ends
//
// Example Usage:
//
//	srv, err := server.NewServer(ctx, cfg, policy, logger)
//	if err != nil {
//	    return err
//	}
//	defer srv.Close()
//	return srv.Run(ctx)
package server
