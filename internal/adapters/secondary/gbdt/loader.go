package gbdt

import (
	"bufio"
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/dmitryikh/leaves"
	log "github.com/sirupsen/logrus"

	"dropout-risk-service/internal/core/domain"
	ports "dropout-risk-service/internal/core/ports/output"
)

// Supported serialization formats.
const (
	FormatXGBoost      = "xgboost"
	FormatLightGBM     = "lightgbm"
	FormatLightGBMJSON = "lightgbm-json"
	FormatSklearn      = "sklearn"
)

// Parse decodes model bytes with the output transformation applied, so
// predictions come back as probabilities.
func Parse(data []byte, format string) (*leaves.Ensemble, error) {
	switch strings.ToLower(format) {
	case FormatXGBoost, "":
		return leaves.XGEnsembleFromReader(bufio.NewReader(bytes.NewReader(data)), true)
	case FormatLightGBM:
		return leaves.LGEnsembleFromReader(bufio.NewReader(bytes.NewReader(data)), true)
	case FormatLightGBMJSON:
		return leaves.LGEnsembleFromJSON(bytes.NewReader(data), true)
	case FormatSklearn:
		return leaves.SKEnsembleFromReader(bufio.NewReader(bytes.NewReader(data)), true)
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedModelFormat, format)
	}
}

// Loader fetches, parses and self-tests a model from a ModelSource.
type Loader struct {
	source  ports.ModelSource
	format  string
	version string
}

// NewLoader creates a loader. An empty version is derived from the artifact digest.
func NewLoader(source ports.ModelSource, format, version string) *Loader {
	return &Loader{source: source, format: format, version: version}
}

func (l *Loader) Load(ctx context.Context) (ports.Predictor, error) {
	data, err := l.source.Fetch(ctx)
	if err != nil {
		return nil, err
	}

	ens, err := Parse(data, l.format)
	if err != nil {
		return nil, fmt.Errorf("parse model from %s: %w", l.source.Describe(), err)
	}

	sum := sha256.Sum256(data)
	digest := hex.EncodeToString(sum[:])
	version := l.version
	if version == "" {
		version = fmt.Sprintf("%s-%s", ens.Name(), digest[:12])
	}

	model, err := NewModel(ens, l.format, version, l.source.Describe())
	if err != nil {
		return nil, err
	}
	model.info.Digest = digest

	log.WithFields(log.Fields{
		"name":       ens.Name(),
		"format":     l.format,
		"version":    version,
		"features":   ens.NFeatures(),
		"estimators": ens.NEstimators(),
		"source":     l.source.Describe(),
	}).Info("model loaded")

	return model, nil
}
