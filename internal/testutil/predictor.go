package testutil

import (
	"sync"

	"dropout-risk-service/internal/core/domain"
)

// StubPredictor returns Probability for every vector, or Err when set.
// Fn takes precedence over Probability.
type StubPredictor struct {
	Probability float64
	Err         error
	Fn          func(features []float64) float64
	Version     string
	Digest      string

	mu    sync.Mutex
	calls [][]float64
}

func (p *StubPredictor) PredictProba(features []float64) (float64, error) {
	p.mu.Lock()
	p.calls = append(p.calls, append([]float64(nil), features...))
	p.mu.Unlock()

	if p.Err != nil {
		return 0, p.Err
	}
	if p.Fn != nil {
		return p.Fn(features), nil
	}
	return p.Probability, nil
}

func (p *StubPredictor) Info() domain.ModelInfo {
	version := p.Version
	if version == "" {
		version = "stub-v1"
	}
	return domain.ModelInfo{
		Name:      "stub",
		Format:    "stub",
		Version:   version,
		Digest:    p.Digest,
		Source:    "memory",
		NFeatures: domain.NumFeatures,
	}
}

// Calls returns every vector the stub has scored.
func (p *StubPredictor) Calls() [][]float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([][]float64(nil), p.calls...)
}

// MetricsSpy counts recorder calls.
type MetricsSpy struct {
	mu          sync.Mutex
	Predictions map[string]int
	Errors      map[string]int
	BatchSizes  []int
	Loaded      bool
}

func NewMetricsSpy() *MetricsSpy {
	return &MetricsSpy{Predictions: map[string]int{}, Errors: map[string]int{}}
}

func (s *MetricsSpy) RecordPrediction(riskLevel, source string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Predictions[riskLevel+"/"+source]++
}

func (s *MetricsSpy) RecordPredictionError(stage string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Errors[stage]++
}

func (s *MetricsSpy) RecordBatchSize(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.BatchSizes = append(s.BatchSizes, n)
}

func (s *MetricsSpy) SetModelLoaded(loaded bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Loaded = loaded
}
