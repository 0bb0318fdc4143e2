package handlers

import (
	"dropout-risk-service/internal/adapters/primary/http/middleware"
	"dropout-risk-service/internal/core/services"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	predictionSvc *services.PredictionService
	analyticsSvc  *services.AnalyticsService
	auth          *middleware.Auth
}

func New(
	predictionSvc *services.PredictionService,
	analyticsSvc *services.AnalyticsService,
	auth *middleware.Auth,
) *Handler {
	return &Handler{
		predictionSvc: predictionSvc,
		analyticsSvc:  analyticsSvc,
		auth:          auth,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	scorers := []string{middleware.RoleTeacher, middleware.RoleHOD, middleware.RoleAdmin}
	authn := h.auth.Authenticate()

	r.GET("/health", h.Health)

	// Unversioned paths kept for existing dashboard clients
	r.POST("/predict", authn, h.auth.RequireRoles(scorers...), h.Predict)
	r.POST("/predict_batch", authn, h.auth.RequireRoles(scorers...), h.PredictBatch)

	api := r.Group("/api/v1", authn)

	// Predictions
	api.POST("/predict", h.auth.RequireRoles(scorers...), h.Predict)
	api.POST("/predict_batch", h.auth.RequireRoles(scorers...), h.PredictBatch)

	// Model
	api.GET("/model", h.GetModelInfo)
	api.POST("/model/reload", h.auth.RequireRoles(middleware.RoleAdmin), h.ReloadModel)

	// Analytics
	api.GET("/analytics/stats", h.auth.RequireRoles(middleware.RoleHOD, middleware.RoleAdmin), h.GetStats)
	api.GET("/students/:student_id/predictions", h.auth.RequireRoles(scorers...), h.ListStudentPredictions)
}
