package ports

import (
	"context"
	"time"
)

// PredictionScoredEvent is emitted for predictions at or above the configured tier.
type PredictionScoredEvent struct {
	EventID            string    `json:"event_id"`
	StudentID          string    `json:"student_id"`
	RiskLevel          string    `json:"risk_level"`
	DropoutProbability float64   `json:"dropout_probability"`
	ModelVersion       string    `json:"model_version"`
	Source             string    `json:"source"`
	Factors            []string  `json:"factors"`
	OccurredAt         time.Time `json:"occurred_at"`
}

type EventPublisher interface {
	PublishPredictionScored(ctx context.Context, event PredictionScoredEvent) error
	Close() error
}
