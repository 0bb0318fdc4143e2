package gbdt

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"dropout-risk-service/internal/adapters/secondary/modelsource"
	"dropout-risk-service/internal/core/domain"
	"dropout-risk-service/internal/testutil"
)

type fakeEnsemble struct {
	nFeatures int
	outputs   []float64
	err       error
	seen      []float64
}

func (f *fakeEnsemble) Predict(fvals []float64, _ int, predictions []float64) error {
	if f.err != nil {
		return f.err
	}
	f.seen = fvals
	copy(predictions, f.outputs)
	return nil
}

func (f *fakeEnsemble) NFeatures() int     { return f.nFeatures }
func (f *fakeEnsemble) NOutputGroups() int { return len(f.outputs) }
func (f *fakeEnsemble) NEstimators() int   { return 100 }
func (f *fakeEnsemble) Name() string       { return "xgboost.gbtree" }

func TestNewModel_SelfTestUsesReferenceVector(t *testing.T) {
	ens := &fakeEnsemble{nFeatures: 15, outputs: []float64{0.23}}

	m, err := NewModel(ens, FormatXGBoost, "v1", "file:/models/m.bin")
	require.NoError(t, err)
	assert.Equal(t, domain.ReferenceVector, ens.seen)

	info := m.Info()
	assert.Equal(t, "xgboost.gbtree", info.Name)
	assert.Equal(t, "v1", info.Version)
	assert.Equal(t, 15, info.NFeatures)
	assert.Equal(t, 100, info.NEstimators)
	assert.False(t, info.LoadedAt.IsZero())
}

func TestNewModel_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		ens     *fakeEnsemble
		wantErr error
	}{
		{"too many features", &fakeEnsemble{nFeatures: 16, outputs: []float64{0.1}}, domain.ErrFeatureMismatch},
		{"predict error", &fakeEnsemble{nFeatures: 15, outputs: []float64{0.1}, err: errors.New("bad tree")}, domain.ErrModelSelfTestFailed},
		{"raw margin output", &fakeEnsemble{nFeatures: 15, outputs: []float64{2.7}}, domain.ErrModelSelfTestFailed},
		{"no outputs", &fakeEnsemble{nFeatures: 15}, domain.ErrModelSelfTestFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewModel(tt.ens, FormatXGBoost, "v1", "test")
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestModel_PredictProba_OutputGroups(t *testing.T) {
	single, err := NewModel(&fakeEnsemble{nFeatures: 15, outputs: []float64{0.81}}, FormatXGBoost, "v1", "test")
	require.NoError(t, err)
	p, err := single.PredictProba(make([]float64, 15))
	require.NoError(t, err)
	assert.Equal(t, 0.81, p)

	multi, err := NewModel(&fakeEnsemble{nFeatures: 12, outputs: []float64{0.35, 0.65}}, FormatSklearn, "v1", "test")
	require.NoError(t, err)
	p, err = multi.PredictProba(make([]float64, 15))
	require.NoError(t, err)
	assert.Equal(t, 0.65, p)
}

func TestParse_UnsupportedFormat(t *testing.T) {
	_, err := Parse([]byte("anything"), "onnx")
	assert.ErrorIs(t, err, domain.ErrUnsupportedModelFormat)
}

func TestLoader_Load_Errors(t *testing.T) {
	source := new(testutil.MockModelSource)
	source.On("Describe").Return("file:/tmp/model.json")
	source.On("Fetch", mock.Anything).Return(nil, domain.ErrModelSourceUnavailable).Once()

	loader := NewLoader(source, FormatLightGBMJSON, "")
	_, err := loader.Load(context.Background())
	assert.ErrorIs(t, err, domain.ErrModelSourceUnavailable)

	source.On("Fetch", mock.Anything).Return([]byte("not json"), nil).Once()
	_, err = loader.Load(context.Background())
	assert.Error(t, err)
}

func TestLoader_Load_LightGBMJSON(t *testing.T) {
	loader := NewLoader(modelsource.NewFile("testdata/dropout_lgbm.json"), FormatLightGBMJSON, "")
	predictor, err := loader.Load(context.Background())
	require.NoError(t, err)

	info := predictor.Info()
	assert.Equal(t, FormatLightGBMJSON, info.Format)
	assert.Equal(t, 15, info.NFeatures)
	assert.Equal(t, 1, info.NEstimators)
	assert.Len(t, info.Digest, 64)
	assert.Equal(t, info.Name+"-"+info.Digest[:12], info.Version)

	p, err := predictor.PredictProba(domain.ReferenceVector)
	require.NoError(t, err)
	assert.InDelta(t, 0.2, p, 1e-9)

	struggling := domain.NewStudentRecordFromValues("S1", map[string]float64{
		domain.FeatureCGPA:           3.1,
		domain.FeatureAttendanceRate: 55,
	})
	p, err = predictor.PredictProba(struggling.Vector())
	require.NoError(t, err)
	assert.InDelta(t, 0.8, p, 1e-9)
}

func TestLoader_Load_ExplicitVersionKeepsDigest(t *testing.T) {
	loader := NewLoader(modelsource.NewFile("testdata/dropout_lgbm.json"), FormatLightGBMJSON, "1.0.0")
	predictor, err := loader.Load(context.Background())
	require.NoError(t, err)

	info := predictor.Info()
	assert.Equal(t, "1.0.0", info.Version)
	assert.NotEmpty(t, info.Digest)
}
