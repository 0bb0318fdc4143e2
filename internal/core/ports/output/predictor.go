package ports

import (
	"context"

	"dropout-risk-service/internal/core/domain"
)

// Predictor scores an aligned feature vector.
type Predictor interface {
	// PredictProba returns the probability of the positive (dropout) class.
	PredictProba(features []float64) (float64, error)

	// Info describes the loaded ensemble.
	Info() domain.ModelInfo
}

// PredictorLoader builds a Predictor from the configured model source.
type PredictorLoader interface {
	Load(ctx context.Context) (Predictor, error)
}
