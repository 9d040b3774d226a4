// Package middleware provides the HTTP middleware stack for the file server.
//
// Middleware stack includes:
//   - RequestID: ULID request IDs, echoed in X-Request-ID
//   - Actor: caller attribution from X-Actor or the client IP
//   - Logger: one zap line per request
//   - CORS: Cross-origin resource sharing with configurable origins
//   - RateLimit: per-actor token bucket rate limiting with idle cleanup
//
// Example Usage:
//
//	router.Use(middleware.RequestID(), middleware.Actor())
//	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
//	router.Use(middleware.RateLimit(middleware.DefaultRateLimitConfig()))
package middleware
