package services

import (
	"math"

	"dropout-risk-service/internal/core/domain"
)

const (
	FallbackModelVersion = "Fallback Rule Model v1.0"
	FallbackWarning      = "Using fallback prediction logic - model unavailable"
)

// FallbackScorer estimates dropout probability from threshold rules when no
// ensemble is loaded. Each triggered rule adds its score; the sum is capped at 1.
type FallbackScorer struct {
	rules []factorRule
}

func NewFallbackScorer() *FallbackScorer {
	return &FallbackScorer{rules: fallbackFactorRules}
}

func (f *FallbackScorer) Score(rec *domain.StudentRecord) (float64, []domain.ContributingFactor) {
	var score float64
	for _, r := range f.rules {
		if r.Triggered(rec.Value(r.Feature)) {
			score += r.Score
		}
	}
	return math.Min(score, 1.0), explain(rec, f.rules)
}
