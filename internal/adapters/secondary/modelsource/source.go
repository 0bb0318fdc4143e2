package modelsource

import (
	"fmt"

	"dropout-risk-service/internal/config"
	"dropout-risk-service/internal/core/domain"
	ports "dropout-risk-service/internal/core/ports/output"
)

const (
	KindFile      = "file"
	KindConfigMap = "configmap"
)

// New selects the model source named by MODEL_SOURCE.
func New(cfg *config.Config) (ports.ModelSource, error) {
	switch cfg.Model.Source {
	case KindFile, "":
		return NewFile(cfg.Model.Path), nil
	case KindConfigMap:
		return NewConfigMap(&cfg.Kubernetes)
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedModelSource, cfg.Model.Source)
	}
}
