package domain

import (
	"time"

	"github.com/google/uuid"
)

type PredictionSource string

const (
	SourceModel    PredictionSource = "model"
	SourceFallback PredictionSource = "fallback"
)

type ContributingFactor struct {
	Factor      string  `json:"factor" yaml:"factor"`
	Weight      float64 `json:"weight" yaml:"weight"`
	Description string  `json:"description" yaml:"description"`
}

type Recommendation struct {
	Action      string `json:"action" yaml:"action"`
	Priority    string `json:"priority" yaml:"priority"`
	Description string `json:"description" yaml:"description"`
}

// Prediction is the scored outcome for one student.
type Prediction struct {
	StudentID           string
	RiskLevel           RiskLevel
	DropoutProbability  float64
	ContributingFactors []ContributingFactor
	Recommendations     []Recommendation
	ModelVersion        string
	Source              PredictionSource
	Warning             string
	Error               string
	PredictedAt         time.Time
}

// Failed reports whether the prediction is an error placeholder.
func (p *Prediction) Failed() bool {
	return p.Error != ""
}

type BatchSummary struct {
	Total      int `json:"total" yaml:"total"`
	Successful int `json:"successful" yaml:"successful"`
	Failed     int `json:"failed" yaml:"failed"`
	HighRisk   int `json:"high_risk" yaml:"high_risk"`
	MediumRisk int `json:"medium_risk" yaml:"medium_risk"`
	LowRisk    int `json:"low_risk" yaml:"low_risk"`
}

// Add folds a prediction into the summary counters.
func (s *BatchSummary) Add(p *Prediction) {
	s.Total++
	if p.Failed() {
		s.Failed++
		return
	}
	s.Successful++
	switch p.RiskLevel {
	case RiskLevelHigh:
		s.HighRisk++
	case RiskLevelMedium:
		s.MediumRisk++
	case RiskLevelLow:
		s.LowRisk++
	}
}

type BatchResult struct {
	Predictions    []*Prediction
	TotalProcessed int
	ModelVersion   string
	Summary        BatchSummary
	Warning        string
}

// ModelInfo describes the ensemble currently serving predictions.
type ModelInfo struct {
	Name        string
	Format      string
	Version     string
	Source      string
	NFeatures   int
	NEstimators int
	LoadedAt    time.Time
	// Digest is the sha256 of the loaded artifact, empty for in-memory models.
	Digest string
}

// StoredPrediction is the persisted form of a prediction.
type StoredPrediction struct {
	ID                 uuid.UUID          `json:"id"`
	StudentID          string             `json:"student_id"`
	RiskLevel          RiskLevel          `json:"risk_level"`
	DropoutProbability float64            `json:"dropout_probability"`
	ModelVersion       string             `json:"model_version"`
	Source             PredictionSource   `json:"source"`
	Department         int                `json:"department"`
	Features           map[string]float64 `json:"features"`
	CreatedAt          time.Time          `json:"created_at"`
}

// NewStoredPrediction captures a prediction and the record it was made from.
func NewStoredPrediction(rec *StudentRecord, p *Prediction) *StoredPrediction {
	return &StoredPrediction{
		ID:                 uuid.New(),
		StudentID:          p.StudentID,
		RiskLevel:          p.RiskLevel,
		DropoutProbability: p.DropoutProbability,
		ModelVersion:       p.ModelVersion,
		Source:             p.Source,
		Department:         rec.Department(),
		Features:           rec.Features(),
		CreatedAt:          p.PredictedAt,
	}
}

// RiskStats aggregates stored predictions.
type RiskStats struct {
	Total          int
	AvgProbability float64
	HighRisk       int
	MediumRisk     int
	LowRisk        int
}

// StatsFilter narrows RiskStats; zero values mean no filter.
type StatsFilter struct {
	Department *int
	Since      time.Time
}
