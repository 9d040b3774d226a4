package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/FileMaster/internal/logging"
	"github.com/GriffinCanCode/FileMaster/internal/shared/id"
)

// Header and context keys shared with the handlers.
const (
	HeaderRequestID = "X-Request-ID"
	HeaderActor     = "X-Actor"

	requestIDKey = "request_id"
	actorKey     = "actor"

	// maxActorLen bounds caller-supplied actor names.
	maxActorLen = 128
)

// RequestID assigns every request an ID, reusing a well-formed incoming
// X-Request-ID, and echoes it in the response.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := c.GetHeader(HeaderRequestID)
		if !id.IsValid(reqID) {
			reqID = id.NewRequestID().String()
		}
		c.Set(requestIDKey, reqID)
		c.Header(HeaderRequestID, reqID)
		c.Next()
	}
}

// RequestIDFrom returns the ID set by RequestID, or "".
func RequestIDFrom(c *gin.Context) string {
	return c.GetString(requestIDKey)
}

// Actor resolves the caller identity recorded in the audit trail: the
// X-Actor header when present and printable, else "http:" plus the client IP.
// It attributes calls; it does not authenticate them.
func Actor() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(actorKey, resolveActor(c))
		c.Next()
	}
}

// ActorFrom returns the actor set by Actor, resolving it on demand when the
// middleware did not run.
func ActorFrom(c *gin.Context) string {
	if actor := c.GetString(actorKey); actor != "" {
		return actor
	}
	return resolveActor(c)
}

func resolveActor(c *gin.Context) string {
	actor := strings.TrimSpace(c.GetHeader(HeaderActor))
	if actor == "" || len(actor) > maxActorLen || strings.IndexFunc(actor, notPrintable) >= 0 {
		return "http:" + c.ClientIP()
	}
	return actor
}

func notPrintable(r rune) bool {
	return r < 0x20 || r == 0x7f
}

// Logger logs one line per request with zap.
func Logger(logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
			zap.String("request_id", RequestIDFrom(c)),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		switch {
		case c.Writer.Status() >= 500:
			logger.Error("Request failed", fields...)
		case c.Writer.Status() >= 400:
			logger.Warn("Request rejected", fields...)
		default:
			logger.Debug("Request handled", fields...)
		}
	}
}
