package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ncobase/passport/data"
	"github.com/ncobase/passport/resp"
)

// HealthHandler reports service liveness and dependency reachability.
type HealthHandler struct {
	data *data.Data
}

// NewHealthHandler creates the health handler.
func NewHealthHandler(d *data.Data) *HealthHandler {
	return &HealthHandler{data: d}
}

// Check handles GET /health.
func (h *HealthHandler) Check(c *gin.Context) {
	status := "UP"
	if err := h.data.Ping(c.Request.Context()); err != nil {
		status = "DEGRADED"
	}
	resp.Success(c.Writer, c.Request, "Health check", gin.H{
		"status":    status,
		"timestamp": time.Now().UTC(),
	})
}
