package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"dropout-risk-service/internal/adapters/primary/http/dto"
)

func (h *Handler) GetModelInfo(c *gin.Context) {
	info, err := h.predictionSvc.ModelInfo()
	if err != nil {
		mapDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToModelInfoResponse(info))
}

func (h *Handler) ReloadModel(c *gin.Context) {
	info, err := h.predictionSvc.Reload(c.Request.Context())
	if err != nil {
		log.WithError(err).Error("model reload failed")
		mapDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToModelInfoResponse(info))
}
