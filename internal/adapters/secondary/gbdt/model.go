package gbdt

import (
	"fmt"
	"math"
	"time"

	"dropout-risk-service/internal/core/domain"
)

// ensemble is the subset of *leaves.Ensemble the model needs.
type ensemble interface {
	Predict(fvals []float64, nEstimators int, predictions []float64) error
	NFeatures() int
	NOutputGroups() int
	NEstimators() int
	Name() string
}

// Model serves probabilities from a parsed tree ensemble. Safe for concurrent use.
type Model struct {
	ens  ensemble
	info domain.ModelInfo
}

// NewModel validates the ensemble against the student feature layout and runs
// the reference self-test before returning it.
func NewModel(ens ensemble, format, version, source string) (*Model, error) {
	if ens.NFeatures() > domain.NumFeatures {
		return nil, fmt.Errorf("%w: model wants %d, record has %d",
			domain.ErrFeatureMismatch, ens.NFeatures(), domain.NumFeatures)
	}
	if ens.NOutputGroups() < 1 {
		return nil, fmt.Errorf("%w: model has no output groups", domain.ErrModelSelfTestFailed)
	}

	m := &Model{
		ens: ens,
		info: domain.ModelInfo{
			Name:        ens.Name(),
			Format:      format,
			Version:     version,
			Source:      source,
			NFeatures:   ens.NFeatures(),
			NEstimators: ens.NEstimators(),
			LoadedAt:    time.Now().UTC(),
		},
	}

	if _, err := m.PredictProba(domain.ReferenceVector); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrModelSelfTestFailed, err)
	}
	return m, nil
}

// PredictProba returns the dropout-class probability. Single-output models
// report it directly; multi-class models report it at index 1.
func (m *Model) PredictProba(features []float64) (float64, error) {
	preds := make([]float64, m.ens.NOutputGroups())
	if err := m.ens.Predict(features, 0, preds); err != nil {
		return 0, fmt.Errorf("ensemble predict: %w", err)
	}

	p := preds[0]
	if len(preds) > 1 {
		p = preds[1]
	}
	if math.IsNaN(p) || p < 0 || p > 1 {
		return 0, fmt.Errorf("ensemble output %v is not a probability", p)
	}
	return p, nil
}

func (m *Model) Info() domain.ModelInfo {
	return m.info
}
