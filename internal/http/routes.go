package http

import "github.com/gin-gonic/gin"

// Register mounts every REST endpoint on r.
func (h *Handlers) Register(r gin.IRouter) {
	r.GET("/", h.Root)
	r.GET("/health", h.Health)

	r.GET("/services", h.ListServices)
	r.POST("/services/discover", h.DiscoverServices)

	r.GET("/tools", h.ListTools)
	r.POST("/tools/execute", h.ExecuteTool)

	r.GET("/audit/events", h.AuditEvents)
}
