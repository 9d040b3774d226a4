// Package http provides HTTP handlers and routing for the FileMaster REST API.
//
// Endpoints:
//   - Health: / and /health
//   - Services: /services, /services/discover
//   - Tools: /tools, /tools/execute
//   - Audit: /audit/events
//
// Tool failures such as a path outside the whitelist are reported with
// status 200 and a Result whose success field is false; error statuses are
// reserved for malformed requests and unknown tools.
//
// Example Usage:
//
//	handlers := http.NewHandlers(registry, fileService, querier, metrics, logger)
//	handlers.Register(router)
package http
