package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"dropout-risk-service/internal/adapters/primary/http/dto"
)

// Health always answers 200 so the process stays routable while degraded.
func (h *Handler) Health(c *gin.Context) {
	report := h.predictionSvc.Health(c.Request.Context())
	c.JSON(http.StatusOK, dto.ToHealthResponse(report))
}
