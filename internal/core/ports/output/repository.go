package ports

import (
	"context"

	"dropout-risk-service/internal/core/domain"
)

type HistoryFilter struct {
	StudentID string
	Limit     int
	Offset    int
}

type PredictionRepository interface {
	Save(ctx context.Context, p *domain.StoredPrediction) error
	ListByStudent(ctx context.Context, filter HistoryFilter) ([]*domain.StoredPrediction, int, error)
	Stats(ctx context.Context, filter domain.StatsFilter) (*domain.RiskStats, error)
	Ping(ctx context.Context) error
}
