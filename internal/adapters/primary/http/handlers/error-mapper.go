package handlers

import (
	"errors"
	"net/http"

	"dropout-risk-service/internal/core/domain"

	"github.com/gin-gonic/gin"
)

// Messages existing dashboard clients match on.
var publicMessages = map[error]string{
	domain.ErrModelNotLoaded: "Model not loaded",
	domain.ErrNoStudentData:  "No student data provided",
	domain.ErrNoStudentsData: "No students data provided",
}

func errorMessage(err error) string {
	for target, msg := range publicMessages {
		if errors.Is(err, target) {
			return msg
		}
	}
	return err.Error()
}

func mapDomainError(c *gin.Context, err error) {
	switch {
	// Not found errors
	case errors.Is(err, domain.ErrPredictionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})

	// Bad request / validation errors
	case errors.Is(err, domain.ErrNoStudentData),
		errors.Is(err, domain.ErrNoStudentsData),
		errors.Is(err, domain.ErrBatchTooLarge),
		errors.Is(err, domain.ErrInvalidFeature),
		errors.Is(err, domain.ErrInvalidRiskLevel):
		c.JSON(http.StatusBadRequest, gin.H{"error": errorMessage(err)})

	// Auth errors
	case errors.Is(err, domain.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})

	// Service unavailable errors
	case errors.Is(err, domain.ErrPersistenceDisabled),
		errors.Is(err, domain.ErrModelSourceUnavailable),
		errors.Is(err, domain.ErrModelReloadNotSupported):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})

	// Model errors
	case errors.Is(err, domain.ErrModelNotLoaded):
		c.JSON(http.StatusInternalServerError, gin.H{"error": errorMessage(err)})
	case errors.Is(err, domain.ErrModelSelfTestFailed),
		errors.Is(err, domain.ErrFeatureMismatch),
		errors.Is(err, domain.ErrUnsupportedModelFormat):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})

	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
