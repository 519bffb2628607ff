package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-failurelog-api/internal/http/response"
)

// Health godoc
// @ID          health
// @Summary     Liveness check
// @Tags        Health
// @Produce     json
// @Success     200  {object}  handlers.Envelope{data=handlers.HealthStatus}
// @Router      /health [get]
func (h *Handlers) Health(c *gin.Context) {
	response.OK(c, "API is running successfully", HealthStatus{
		Status:      "running",
		Timestamp:   response.Timestamp(time.Now()),
		Environment: h.env,
	})
}
