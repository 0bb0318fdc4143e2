package services

import (
	"context"
	"fmt"

	"dropout-risk-service/internal/core/domain"
	output "dropout-risk-service/internal/core/ports/output"
)

type AnalyticsService struct {
	repo output.PredictionRepository
}

func NewAnalyticsService(repo output.PredictionRepository) *AnalyticsService {
	return &AnalyticsService{repo: repo}
}

func (s *AnalyticsService) Stats(ctx context.Context, filter domain.StatsFilter) (*domain.RiskStats, error) {
	if s.repo == nil {
		return nil, domain.ErrPersistenceDisabled
	}
	stats, err := s.repo.Stats(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("prediction stats: %w", err)
	}
	return stats, nil
}

// History lists a student's stored predictions, newest first.
func (s *AnalyticsService) History(ctx context.Context, filter output.HistoryFilter) ([]*domain.StoredPrediction, int, error) {
	if s.repo == nil {
		return nil, 0, domain.ErrPersistenceDisabled
	}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}
	if filter.Limit > 100 {
		filter.Limit = 100
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	items, total, err := s.repo.ListByStudent(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return nil, 0, domain.ErrPredictionNotFound
	}
	return items, total, nil
}
