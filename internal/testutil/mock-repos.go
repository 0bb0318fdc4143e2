package testutil

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"dropout-risk-service/internal/core/domain"
	"dropout-risk-service/internal/core/ports/output"
)

// MockPredictionRepo is a mock of PredictionRepository.
type MockPredictionRepo struct {
	mock.Mock
}

func (m *MockPredictionRepo) Save(ctx context.Context, p *domain.StoredPrediction) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockPredictionRepo) ListByStudent(ctx context.Context, filter ports.HistoryFilter) ([]*domain.StoredPrediction, int, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]*domain.StoredPrediction), args.Int(1), args.Error(2)
}

func (m *MockPredictionRepo) Stats(ctx context.Context, filter domain.StatsFilter) (*domain.RiskStats, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RiskStats), args.Error(1)
}

func (m *MockPredictionRepo) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockProbabilityCache is a mock of ProbabilityCache.
type MockProbabilityCache struct {
	mock.Mock
}

func (m *MockProbabilityCache) Get(ctx context.Context, key string) (float64, error) {
	args := m.Called(ctx, key)
	return args.Get(0).(float64), args.Error(1)
}

func (m *MockProbabilityCache) Set(ctx context.Context, key string, probability float64, ttl time.Duration) error {
	args := m.Called(ctx, key, probability, ttl)
	return args.Error(0)
}

// MockEventPublisher is a mock of EventPublisher.
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) PublishPredictionScored(ctx context.Context, event ports.PredictionScoredEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockEventPublisher) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockPredictorLoader is a mock of PredictorLoader.
type MockPredictorLoader struct {
	mock.Mock
}

func (m *MockPredictorLoader) Load(ctx context.Context) (ports.Predictor, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(ports.Predictor), args.Error(1)
}

// MockModelSource is a mock of ModelSource.
type MockModelSource struct {
	mock.Mock
}

func (m *MockModelSource) Fetch(ctx context.Context) ([]byte, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockModelSource) Describe() string {
	args := m.Called()
	return args.String(0)
}
