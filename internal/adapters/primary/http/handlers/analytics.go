package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"dropout-risk-service/internal/adapters/primary/http/dto"
	"dropout-risk-service/internal/core/domain"
	output "dropout-risk-service/internal/core/ports/output"
)

func (h *Handler) GetStats(c *gin.Context) {
	var filter domain.StatsFilter

	if dept := c.Query("department"); dept != "" {
		code, err := strconv.Atoi(dept)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "department must be an integer code"})
			return
		}
		filter.Department = &code
	}
	if since := c.Query("since"); since != "" {
		t, err := parseSince(since)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "since must be RFC3339 or YYYY-MM-DD"})
			return
		}
		filter.Since = t
	}

	stats, err := h.analyticsSvc.Stats(c.Request.Context(), filter)
	if err != nil {
		log.WithError(err).Error("get stats failed")
		mapDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToStatsResponse(stats, filter))
}

func (h *Handler) ListStudentPredictions(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	filter := output.HistoryFilter{
		StudentID: c.Param("student_id"),
		Limit:     limit,
		Offset:    offset,
	}

	items, total, err := h.analyticsSvc.History(c.Request.Context(), filter)
	if err != nil {
		log.WithError(err).Error("list student predictions failed")
		mapDomainError(c, err)
		return
	}

	resp := make([]dto.StoredPredictionResponse, 0, len(items))
	for _, p := range items {
		resp = append(resp, dto.ToStoredPredictionResponse(p))
	}

	c.JSON(http.StatusOK, dto.ListPredictionsResponse{
		Items:    resp,
		Total:    total,
		PageSize: len(resp),
	})
}

func parseSince(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse(time.DateOnly, s)
}
