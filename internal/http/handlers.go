package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/FileMaster/internal/domain/audit"
	"github.com/GriffinCanCode/FileMaster/internal/domain/files"
	"github.com/GriffinCanCode/FileMaster/internal/infrastructure/auditstore"
	"github.com/GriffinCanCode/FileMaster/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/FileMaster/internal/logging"
	"github.com/GriffinCanCode/FileMaster/internal/middleware"
	"github.com/GriffinCanCode/FileMaster/internal/service"
	"github.com/GriffinCanCode/FileMaster/internal/types"
	"github.com/GriffinCanCode/FileMaster/internal/utils"
)

// Version is reported by the root endpoint.
const Version = "1.0.0"

// maxAuditLimit caps the events returned by one audit query.
const maxAuditLimit = 1000

// Handlers contains all HTTP handlers
type Handlers struct {
	registry *service.Registry
	files    *files.Service
	audit    auditstore.Querier
	metrics  *monitoring.Metrics
	logger   *logging.Logger

	bodyLimit int64
}

// NewHandlers creates a new handler set. metrics may be nil.
func NewHandlers(
	registry *service.Registry,
	fileService *files.Service,
	querier auditstore.Querier,
	metrics *monitoring.Metrics,
	logger *logging.Logger,
) *Handlers {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Handlers{
		registry:  registry,
		files:     fileService,
		audit:     querier,
		metrics:   metrics,
		logger:    logger.Named("http"),
		bodyLimit: bodyLimit(fileService.Settings().MaxFileSize()),
	}
}

// Root handles health check
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "FileMaster",
		"version": Version,
	})
}

// Health handles detailed health check
func (h *Handlers) Health(c *gin.Context) {
	settings := h.files.Settings()
	body := gin.H{
		"status":           "healthy",
		"service_registry": h.registry.Stats(),
		"access": gin.H{
			"allowed_directories": len(settings.AllowedDirectories()),
			"extensions":          len(settings.Extensions()),
			"delete_enabled":      settings.DeleteEnabled(),
		},
	}
	if h.metrics != nil {
		body["metrics"] = h.metrics.Snapshot()
	}
	c.JSON(http.StatusOK, body)
}

// ListServices lists all services, optionally filtered by category
func (h *Handlers) ListServices(c *gin.Context) {
	category := c.Query("category")
	if err := utils.ValidateCategory(category, false); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var services []types.Service
	if category != "" {
		cat := types.Category(category)
		services = h.registry.List(&cat)
	} else {
		services = h.registry.List(nil)
	}

	c.JSON(http.StatusOK, gin.H{
		"services": services,
		"stats":    h.registry.Stats(),
	})
}

// ListTools lists every tool across services
func (h *Handlers) ListTools(c *gin.Context) {
	tools := h.registry.Tools()
	c.JSON(http.StatusOK, gin.H{
		"tools": tools,
		"count": len(tools),
	})
}

// DiscoverRequest is the body of a discovery query.
type DiscoverRequest struct {
	Intent string `json:"intent" binding:"required"`
	Limit  int    `json:"limit"`
}

// DiscoverServices discovers relevant services for an intent
func (h *Handlers) DiscoverServices(c *gin.Context) {
	var req DiscoverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := utils.ValidateMessage(req.Intent); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	limit := req.Limit
	if limit <= 0 {
		limit = 5
	}

	services := h.registry.Discover(req.Intent, limit)
	c.JSON(http.StatusOK, gin.H{
		"services": services,
		"count":    len(services),
	})
}

// ExecuteTool runs one tool call. Tool failures are reported with 200 and
// success=false; only calls that never reach a tool get an error status.
func (h *Handlers) ExecuteTool(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.bodyLimit)

	var req types.ExecuteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "request body too large"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := utils.ValidateToolID(req.ToolID, "tool_id", true); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := utils.ValidateJSONDepth(req.Params, utils.MaxParamsDepth); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Params == nil {
		req.Params = map[string]any{}
	}

	appCtx := &types.Context{
		Actor:     middleware.ActorFrom(c),
		RequestID: middleware.RequestIDFrom(c),
		Transport: "http",
	}

	result, err := h.registry.Execute(c.Request.Context(), req.ToolID, req.Params, appCtx)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, service.ErrToolNotFound) || errors.Is(err, service.ErrServiceNotFound) {
			status = http.StatusNotFound
		}
		h.logger.Debug("Tool call rejected",
			zap.String("tool_id", req.ToolID),
			zap.String("request_id", appCtx.RequestID),
			zap.Error(err))
		c.JSON(status, result)
		return
	}

	c.JSON(http.StatusOK, result)
}

// AuditEvents returns recorded security events, newest first.
func (h *Handlers) AuditEvents(c *gin.Context) {
	filter, err := auditFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	events, err := h.audit.Query(c.Request.Context(), filter)
	if err != nil {
		h.logger.Error("Audit query failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "audit query failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"events": events,
		"count":  len(events),
	})
}

func auditFilter(c *gin.Context) (auditstore.Filter, error) {
	f := auditstore.Filter{
		Operation: c.Query("operation"),
		Outcome:   audit.Outcome(c.Query("outcome")),
		Actor:     c.Query("actor"),
	}
	if f.Operation != "" {
		if err := utils.ValidateToolID(f.Operation, "operation", false); err != nil {
			return f, err
		}
	}
	if f.Outcome != "" && !f.Outcome.Valid() {
		return f, errors.New("outcome must be one of success, denied, not_found, conflict, io_failure")
	}
	if err := utils.ValidateString(f.Actor, "actor", 1, utils.MaxIDLength, false); err != nil {
		return f, err
	}
	if since := c.Query("since"); since != "" {
		t, err := time.Parse(time.RFC3339, since)
		if err != nil {
			return f, errors.New("since must be an RFC3339 timestamp")
		}
		f.Since = t
	}
	if limit := c.Query("limit"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n <= 0 {
			return f, errors.New("limit must be a positive integer")
		}
		f.Limit = min(n, maxAuditLimit)
	}
	return f, nil
}

// bodyLimit sizes the request cap so a create_file call carrying a full
// size file with JSON escaping still fits.
func bodyLimit(maxFileSize int64) int64 {
	return utils.MaxJSONSize + 6*maxFileSize
}
