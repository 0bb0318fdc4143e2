package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"dropout-risk-service/internal/adapters/primary/http/dto"
	"dropout-risk-service/internal/adapters/primary/http/middleware"
	"dropout-risk-service/internal/core/domain"
)

// decodeBody keeps numbers as json.Number so feature literals survive into
// factor descriptions ("4.0 past failures").
func decodeBody(c *gin.Context, v any) error {
	dec := json.NewDecoder(c.Request.Body)
	dec.UseNumber()
	return dec.Decode(v)
}

func (h *Handler) Predict(c *gin.Context) {
	if !h.predictionSvc.Ready() {
		mapDomainError(c, domain.ErrModelNotLoaded)
		return
	}

	var raw map[string]any
	if err := decodeBody(c, &raw); err != nil || len(raw) == 0 {
		mapDomainError(c, domain.ErrNoStudentData)
		return
	}

	prediction, err := h.predictionSvc.Predict(c.Request.Context(), raw)
	if err != nil {
		log.WithError(err).WithField("request_id", c.GetString(middleware.ContextKeyRequestID)).Error("predict failed")
		mapDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToPredictionResponse(prediction))
}

func (h *Handler) PredictBatch(c *gin.Context) {
	if !h.predictionSvc.Ready() {
		mapDomainError(c, domain.ErrModelNotLoaded)
		return
	}

	var req dto.BatchPredictRequest
	if err := decodeBody(c, &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	result, err := h.predictionSvc.PredictBatch(c.Request.Context(), req.Students)
	if err != nil {
		log.WithError(err).WithField("request_id", c.GetString(middleware.ContextKeyRequestID)).Error("batch predict failed")
		mapDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToBatchPredictionResponse(result))
}
