package dto

import (
	"time"

	"github.com/google/uuid"

	"dropout-risk-service/internal/core/domain"
	"dropout-risk-service/internal/core/services"
)

// ============================================================================
// Prediction DTOs
// ============================================================================

type BatchPredictRequest struct {
	Students []map[string]any `json:"students" yaml:"students"`
}

type PredictionResponse struct {
	StudentID           string                      `json:"student_id" yaml:"student_id"`
	RiskLevel           string                      `json:"risk_level" yaml:"risk_level"`
	DropoutProbability  float64                     `json:"dropout_probability" yaml:"dropout_probability"`
	ContributingFactors []domain.ContributingFactor `json:"contributing_factors" yaml:"contributing_factors"`
	Recommendations     []domain.Recommendation     `json:"recommendations" yaml:"recommendations"`
	ModelVersion        string                      `json:"model_version,omitempty" yaml:"model_version,omitempty"`
	Source              string                      `json:"source,omitempty" yaml:"source,omitempty"`
	Warning             string                      `json:"warning,omitempty" yaml:"warning,omitempty"`
	Error               string                      `json:"error,omitempty" yaml:"error,omitempty"`
	Timestamp           time.Time                   `json:"timestamp" yaml:"timestamp"`
}

type BatchPredictionResponse struct {
	Predictions    []PredictionResponse `json:"predictions" yaml:"predictions"`
	TotalProcessed int                  `json:"total_processed" yaml:"total_processed"`
	ModelVersion   string               `json:"model_version" yaml:"model_version"`
	Summary        domain.BatchSummary  `json:"summary" yaml:"summary"`
	Warning        string               `json:"warning,omitempty" yaml:"warning,omitempty"`
}

func ToPredictionResponse(p *domain.Prediction) PredictionResponse {
	factors := p.ContributingFactors
	if factors == nil {
		factors = []domain.ContributingFactor{}
	}
	recs := p.Recommendations
	if recs == nil {
		recs = []domain.Recommendation{}
	}
	return PredictionResponse{
		StudentID:           p.StudentID,
		RiskLevel:           p.RiskLevel.String(),
		DropoutProbability:  p.DropoutProbability,
		ContributingFactors: factors,
		Recommendations:     recs,
		ModelVersion:        p.ModelVersion,
		Source:              string(p.Source),
		Warning:             p.Warning,
		Error:               p.Error,
		Timestamp:           p.PredictedAt,
	}
}

func ToBatchPredictionResponse(r *domain.BatchResult) BatchPredictionResponse {
	items := make([]PredictionResponse, len(r.Predictions))
	for i, p := range r.Predictions {
		items[i] = ToPredictionResponse(p)
		// Per-item model version is carried once at the top level.
		items[i].ModelVersion = ""
	}
	return BatchPredictionResponse{
		Predictions:    items,
		TotalProcessed: r.TotalProcessed,
		ModelVersion:   r.ModelVersion,
		Summary:        r.Summary,
		Warning:        r.Warning,
	}
}

// ============================================================================
// Health / Model DTOs
// ============================================================================

type HealthResponse struct {
	Status          string            `json:"status" yaml:"status"`
	ModelLoaded     bool              `json:"model_loaded" yaml:"model_loaded"`
	ModelVersion    string            `json:"model_version,omitempty" yaml:"model_version,omitempty"`
	FallbackEnabled bool              `json:"fallback_enabled" yaml:"fallback_enabled"`
	Checks          map[string]string `json:"checks,omitempty" yaml:"checks,omitempty"`
}

func ToHealthResponse(r *services.HealthReport) HealthResponse {
	resp := HealthResponse{
		Status:          r.Status,
		ModelLoaded:     r.ModelLoaded,
		ModelVersion:    r.ModelVersion,
		FallbackEnabled: r.FallbackEnabled,
	}
	if len(r.Checks) > 0 {
		resp.Checks = r.Checks
	}
	return resp
}

type ModelInfoResponse struct {
	Name        string             `json:"name"`
	Format      string             `json:"format"`
	Version     string             `json:"version"`
	Digest      string             `json:"digest,omitempty"`
	Source      string             `json:"source"`
	NFeatures   int                `json:"n_features"`
	NEstimators int                `json:"n_estimators,omitempty"`
	LoadedAt    *time.Time         `json:"loaded_at,omitempty"`
	Features    []string           `json:"features"`
	Thresholds  map[string]float64 `json:"thresholds"`
}

func ToModelInfoResponse(info *domain.ModelInfo) ModelInfoResponse {
	resp := ModelInfoResponse{
		Name:        info.Name,
		Format:      info.Format,
		Version:     info.Version,
		Digest:      info.Digest,
		Source:      info.Source,
		NFeatures:   info.NFeatures,
		NEstimators: info.NEstimators,
		Features:    domain.FeatureNames,
		Thresholds: map[string]float64{
			string(domain.RiskLevelHigh):   domain.HighRiskThreshold,
			string(domain.RiskLevelMedium): domain.MediumRiskThreshold,
		},
	}
	if !info.LoadedAt.IsZero() {
		loadedAt := info.LoadedAt
		resp.LoadedAt = &loadedAt
	}
	return resp
}

// ============================================================================
// Analytics DTOs
// ============================================================================

type StatsResponse struct {
	Total          int        `json:"total"`
	AvgProbability float64    `json:"avg_probability"`
	HighRisk       int        `json:"high_risk"`
	MediumRisk     int        `json:"medium_risk"`
	LowRisk        int        `json:"low_risk"`
	Department     string     `json:"department,omitempty"`
	Since          *time.Time `json:"since,omitempty"`
}

func ToStatsResponse(s *domain.RiskStats, filter domain.StatsFilter) StatsResponse {
	resp := StatsResponse{
		Total:          s.Total,
		AvgProbability: domain.RoundProbability(s.AvgProbability),
		HighRisk:       s.HighRisk,
		MediumRisk:     s.MediumRisk,
		LowRisk:        s.LowRisk,
	}
	if filter.Department != nil {
		resp.Department = domain.DepartmentLabel(*filter.Department)
	}
	if !filter.Since.IsZero() {
		since := filter.Since
		resp.Since = &since
	}
	return resp
}

type StoredPredictionResponse struct {
	ID                 uuid.UUID          `json:"id"`
	StudentID          string             `json:"student_id"`
	RiskLevel          string             `json:"risk_level"`
	DropoutProbability float64            `json:"dropout_probability"`
	ModelVersion       string             `json:"model_version"`
	Source             string             `json:"source"`
	Department         string             `json:"department"`
	Features           map[string]float64 `json:"features"`
	CreatedAt          time.Time          `json:"created_at"`
}

type ListPredictionsResponse struct {
	Items    []StoredPredictionResponse `json:"items"`
	Total    int                        `json:"total"`
	PageSize int                        `json:"page_size"`
}

func ToStoredPredictionResponse(p *domain.StoredPrediction) StoredPredictionResponse {
	return StoredPredictionResponse{
		ID:                 p.ID,
		StudentID:          p.StudentID,
		RiskLevel:          p.RiskLevel.String(),
		DropoutProbability: p.DropoutProbability,
		ModelVersion:       p.ModelVersion,
		Source:             string(p.Source),
		Department:         domain.DepartmentLabel(p.Department),
		Features:           p.Features,
		CreatedAt:          p.CreatedAt,
	}
}
