package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"dropout-risk-service/internal/adapters/secondary/memcache"
	"dropout-risk-service/internal/core/domain"
	"dropout-risk-service/internal/core/ports/output"
	"dropout-risk-service/internal/testutil"
)

func atRiskStudent() map[string]any {
	return map[string]any{
		"student_id":      "S1",
		"cgpa":            4.2,
		"attendance_rate": 60.0,
		"past_failures":   4.0,
	}
}

func TestPredictionService_Predict_HighRisk(t *testing.T) {
	predictor := &testutil.StubPredictor{Probability: 0.8567}
	metrics := testutil.NewMetricsSpy()
	svc := NewPredictionService(predictor, nil, nil, nil, nil, metrics, PredictionConfig{})

	p, err := svc.Predict(context.Background(), atRiskStudent())
	require.NoError(t, err)

	assert.Equal(t, "S1", p.StudentID)
	assert.Equal(t, domain.RiskLevelHigh, p.RiskLevel)
	assert.Equal(t, 0.857, p.DropoutProbability)
	assert.Equal(t, "stub-v1", p.ModelVersion)
	assert.Equal(t, domain.SourceModel, p.Source)
	assert.False(t, p.PredictedAt.IsZero())

	require.Len(t, p.ContributingFactors, 3)
	assert.Equal(t, domain.ContributingFactor{Factor: "Low CGPA", Weight: 0.8, Description: "CGPA of 4.20 is below average"}, p.ContributingFactors[0])
	assert.Equal(t, "Attendance rate of 60.0% is concerning", p.ContributingFactors[1].Description)
	assert.Equal(t, "4 past failures indicate academic struggles", p.ContributingFactors[2].Description)

	require.Len(t, p.Recommendations, 2)
	assert.Equal(t, "Immediate Academic Intervention", p.Recommendations[0].Action)
	assert.Equal(t, "Attendance Monitoring", p.Recommendations[1].Action)

	assert.Equal(t, 1, metrics.Predictions["high/model"])
	assert.True(t, metrics.Loaded)
}

func TestPredictionService_Predict_AlignsFeatures(t *testing.T) {
	predictor := &testutil.StubPredictor{Probability: 0.1}
	svc := NewPredictionService(predictor, nil, nil, nil, nil, nil, PredictionConfig{})

	_, err := svc.Predict(context.Background(), map[string]any{
		"department": 6.0,
		"age":        21.0,
		"cgpa":       nil,
		"unknown":    "ignored",
	})
	require.NoError(t, err)

	calls := predictor.Calls()
	require.Len(t, calls, 1)
	want := make([]float64, domain.NumFeatures)
	want[0] = 21
	want[14] = 6
	assert.Equal(t, want, calls[0])
}

func TestPredictionService_Predict_Tiers(t *testing.T) {
	tests := []struct {
		name      string
		prob      float64
		wantLevel domain.RiskLevel
		wantProb  float64
		wantRecs  int
	}{
		{"high boundary", 0.7, domain.RiskLevelHigh, 0.7, 2},
		{"medium boundary", 0.4, domain.RiskLevelMedium, 0.4, 2},
		{"rounds up but tiers on raw value", 0.39996, domain.RiskLevelLow, 0.4, 1},
		{"low", 0.12345, domain.RiskLevelLow, 0.123, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewPredictionService(&testutil.StubPredictor{Probability: tt.prob}, nil, nil, nil, nil, nil, PredictionConfig{})
			p, err := svc.Predict(context.Background(), map[string]any{"cgpa": 8.0, "attendance_rate": 90.0})
			require.NoError(t, err)
			assert.Equal(t, tt.wantLevel, p.RiskLevel)
			assert.Equal(t, tt.wantProb, p.DropoutProbability)
			assert.Len(t, p.Recommendations, tt.wantRecs)
			assert.Empty(t, p.ContributingFactors)
		})
	}
}

func TestPredictionService_Predict_InferenceErrorUsesSafeDefault(t *testing.T) {
	metrics := testutil.NewMetricsSpy()
	predictor := &testutil.StubPredictor{Err: errors.New("tree walk failed")}
	svc := NewPredictionService(predictor, nil, nil, nil, nil, metrics, PredictionConfig{})

	p, err := svc.Predict(context.Background(), map[string]any{"cgpa": 8.0, "attendance_rate": 90.0})
	require.NoError(t, err)
	assert.Equal(t, SafeProbability, p.DropoutProbability)
	assert.Equal(t, domain.RiskLevelMedium, p.RiskLevel)
	assert.Equal(t, 1, metrics.Errors["inference"])
}

func TestPredictionService_Predict_Errors(t *testing.T) {
	svc := NewPredictionService(&testutil.StubPredictor{}, nil, nil, nil, nil, nil, PredictionConfig{})

	_, err := svc.Predict(context.Background(), map[string]any{})
	assert.ErrorIs(t, err, domain.ErrNoStudentData)

	_, err = svc.Predict(context.Background(), map[string]any{"cgpa": []any{1}})
	assert.ErrorIs(t, err, domain.ErrInvalidFeature)
}

func TestPredictionService_Predict_ModelNotLoaded(t *testing.T) {
	svc := NewPredictionService(nil, nil, nil, nil, nil, nil, PredictionConfig{})

	_, err := svc.Predict(context.Background(), atRiskStudent())
	assert.ErrorIs(t, err, domain.ErrModelNotLoaded)
	assert.False(t, svc.ModelLoaded())

	_, err = svc.ModelInfo()
	assert.ErrorIs(t, err, domain.ErrModelNotLoaded)
}

func TestPredictionService_Predict_Fallback(t *testing.T) {
	svc := NewPredictionService(nil, nil, nil, nil, nil, nil, PredictionConfig{FallbackEnabled: true})

	p, err := svc.Predict(context.Background(), map[string]any{
		"cgpa":                 4.0,
		"attendance_rate":      60.0,
		"past_failures":        4.0,
		"study_hours_per_week": 5.0,
	})
	require.NoError(t, err)
	assert.Equal(t, 1.0, p.DropoutProbability)
	assert.Equal(t, domain.RiskLevelHigh, p.RiskLevel)
	assert.Equal(t, domain.SourceFallback, p.Source)
	assert.Equal(t, FallbackModelVersion, p.ModelVersion)
	assert.Equal(t, FallbackWarning, p.Warning)
	require.Len(t, p.ContributingFactors, 4)
	assert.Equal(t, "CGPA of 4 is below average", p.ContributingFactors[0].Description)
	assert.Equal(t, "Attendance rate of 60% is concerning", p.ContributingFactors[1].Description)
	assert.Equal(t, "Only 5 hours of study per week", p.ContributingFactors[3].Description)
	require.Len(t, p.Recommendations, 2)
	assert.Equal(t, "Schedule one-on-one tutoring and academic counseling", p.Recommendations[0].Description)
	assert.Equal(t, "Implement daily attendance tracking", p.Recommendations[1].Description)

	p, err = svc.Predict(context.Background(), map[string]any{"cgpa": 4.0, "attendance_rate": 95.0, "study_hours_per_week": 20.0})
	require.NoError(t, err)
	assert.Equal(t, 0.4, p.DropoutProbability)
	assert.Equal(t, domain.RiskLevelMedium, p.RiskLevel)

	info, err := svc.ModelInfo()
	require.NoError(t, err)
	assert.Equal(t, FallbackModelVersion, info.Version)
}

func TestPredictionService_Predict_SideEffects(t *testing.T) {
	repo := new(testutil.MockPredictionRepo)
	events := new(testutil.MockEventPublisher)
	svc := NewPredictionService(&testutil.StubPredictor{Probability: 0.9}, nil, repo, nil, events, nil, PredictionConfig{})

	repo.On("Save", mock.Anything, mock.MatchedBy(func(sp *domain.StoredPrediction) bool {
		return sp.StudentID == "S1" && sp.RiskLevel == domain.RiskLevelHigh && sp.Features["cgpa"] == 4.2
	})).Return(errors.New("db down"))
	events.On("PublishPredictionScored", mock.Anything, mock.MatchedBy(func(e ports.PredictionScoredEvent) bool {
		return e.StudentID == "S1" && e.RiskLevel == "high" && len(e.Factors) == 3 && e.EventID != ""
	})).Return(nil)

	p, err := svc.Predict(context.Background(), atRiskStudent())
	require.NoError(t, err)
	assert.Equal(t, domain.RiskLevelHigh, p.RiskLevel)

	repo.AssertExpectations(t)
	events.AssertExpectations(t)
}

func TestPredictionService_Predict_NoEventBelowMinimumTier(t *testing.T) {
	events := new(testutil.MockEventPublisher)
	svc := NewPredictionService(&testutil.StubPredictor{Probability: 0.5}, nil, nil, nil, events, nil, PredictionConfig{})

	_, err := svc.Predict(context.Background(), atRiskStudent())
	require.NoError(t, err)
	events.AssertNotCalled(t, "PublishPredictionScored", mock.Anything, mock.Anything)
}

func TestPredictionService_Predict_Cache(t *testing.T) {
	cache := new(testutil.MockProbabilityCache)
	predictor := &testutil.StubPredictor{Probability: 0.2}
	svc := NewPredictionService(predictor, nil, nil, cache, nil, nil, PredictionConfig{})

	rec := domain.NewStudentRecordFromValues("S1", map[string]float64{"cgpa": 9})
	key := CacheKey("stub-v1@1", rec.Vector())

	cache.On("Get", mock.Anything, key).Return(0.0, domain.ErrCacheMiss).Once()
	cache.On("Set", mock.Anything, key, 0.2, mock.Anything).Return(nil).Once()
	p, err := svc.PredictRecord(context.Background(), rec)
	require.NoError(t, err)
	assert.Equal(t, 0.2, p.DropoutProbability)

	cache.On("Get", mock.Anything, key).Return(0.75, nil).Once()
	p, err = svc.PredictRecord(context.Background(), rec)
	require.NoError(t, err)
	assert.Equal(t, 0.75, p.DropoutProbability)
	assert.Len(t, predictor.Calls(), 1)

	cache.AssertExpectations(t)
}

func TestPredictionService_ReloadSameVersionBypassesCache(t *testing.T) {
	loader := new(testutil.MockPredictorLoader)
	cache := memcache.NewProbabilityCache(time.Hour, time.Hour)
	svc := NewPredictionService(&testutil.StubPredictor{Probability: 0.2}, loader, nil, cache, nil, nil, PredictionConfig{})

	rec := domain.NewStudentRecordFromValues("S1", map[string]float64{"cgpa": 9})
	p, err := svc.PredictRecord(context.Background(), rec)
	require.NoError(t, err)
	assert.Equal(t, 0.2, p.DropoutProbability)

	retrained := &testutil.StubPredictor{Probability: 0.9}
	loader.On("Load", mock.Anything).Return(retrained, nil).Once()
	_, err = svc.Reload(context.Background())
	require.NoError(t, err)

	p, err = svc.PredictRecord(context.Background(), rec)
	require.NoError(t, err)
	assert.Equal(t, 0.9, p.DropoutProbability)
	assert.Equal(t, "stub-v1", p.ModelVersion)
	assert.Len(t, retrained.Calls(), 1)
}

func TestPredictionService_CacheIdentityPrefersDigest(t *testing.T) {
	cache := new(testutil.MockProbabilityCache)
	predictor := &testutil.StubPredictor{Probability: 0.3, Digest: "abc123"}
	svc := NewPredictionService(predictor, nil, nil, cache, nil, nil, PredictionConfig{})

	rec := domain.NewStudentRecordFromValues("S1", map[string]float64{"cgpa": 9})
	key := CacheKey("abc123", rec.Vector())
	cache.On("Get", mock.Anything, key).Return(0.0, domain.ErrCacheMiss).Once()
	cache.On("Set", mock.Anything, key, 0.3, mock.Anything).Return(nil).Once()

	_, err := svc.PredictRecord(context.Background(), rec)
	require.NoError(t, err)
	cache.AssertExpectations(t)
}

func TestCacheKey(t *testing.T) {
	a := CacheKey("v1", []float64{1, 2, 3})
	assert.Equal(t, a, CacheKey("v1", []float64{1, 2, 3}))
	assert.NotEqual(t, a, CacheKey("v2", []float64{1, 2, 3}))
	assert.NotEqual(t, a, CacheKey("v1", []float64{1, 2, 4}))
	assert.Contains(t, a, "dropout:prob:v1:")
}

func TestPredictionService_PredictBatch(t *testing.T) {
	predictor := &testutil.StubPredictor{Fn: func(f []float64) float64 {
		return 1 - f[1]/10
	}}
	metrics := testutil.NewMetricsSpy()
	svc := NewPredictionService(predictor, nil, nil, nil, nil, metrics, PredictionConfig{BatchConcurrency: 2})

	result, err := svc.PredictBatch(context.Background(), []map[string]any{
		{"student_id": "A", "cgpa": 2.0, "attendance_rate": 50.0, "past_failures": 5.0},
		{"student_id": "B", "cgpa": 5.0, "attendance_rate": 90.0},
		{"student_id": "C", "cgpa": "oops"},
		{"student_id": 42.0, "cgpa": 9.0, "attendance_rate": 90.0},
	})
	require.NoError(t, err)

	require.Len(t, result.Predictions, 4)
	assert.Equal(t, 4, result.TotalProcessed)
	assert.Equal(t, "stub-v1", result.ModelVersion)

	a := result.Predictions[0]
	assert.Equal(t, "A", a.StudentID)
	assert.Equal(t, domain.RiskLevelHigh, a.RiskLevel)
	assert.Len(t, a.ContributingFactors, 2)
	require.Len(t, a.Recommendations, 1)
	assert.Equal(t, "Immediate Intervention", a.Recommendations[0].Action)

	b := result.Predictions[1]
	assert.Equal(t, domain.RiskLevelMedium, b.RiskLevel)
	assert.Equal(t, "Monitor Progress", b.Recommendations[0].Action)

	c := result.Predictions[2]
	assert.Equal(t, "C", c.StudentID)
	assert.Equal(t, domain.RiskLevelUnknown, c.RiskLevel)
	assert.Equal(t, 0.0, c.DropoutProbability)
	assert.Empty(t, c.ContributingFactors)
	assert.Empty(t, c.Recommendations)
	assert.Contains(t, c.Error, "Prediction failed: ")

	d := result.Predictions[3]
	assert.Equal(t, "42", d.StudentID)
	assert.Equal(t, domain.RiskLevelLow, d.RiskLevel)
	assert.Equal(t, "Maintain Performance", d.Recommendations[0].Action)

	assert.Equal(t, domain.BatchSummary{Total: 4, Successful: 3, Failed: 1, HighRisk: 1, MediumRisk: 1, LowRisk: 1}, result.Summary)
	assert.Equal(t, []int{4}, metrics.BatchSizes)
	assert.Equal(t, 1, metrics.Errors["batch_item"])
}

func TestPredictionService_PredictBatch_SideEffectsRunConcurrently(t *testing.T) {
	events := new(testutil.MockEventPublisher)
	var inFlight, peak int32
	events.On("PublishPredictionScored", mock.Anything, mock.Anything).Run(func(mock.Arguments) {
		n := atomic.AddInt32(&inFlight, 1)
		for {
			old := atomic.LoadInt32(&peak)
			if n <= old || atomic.CompareAndSwapInt32(&peak, old, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
	}).Return(nil)

	svc := NewPredictionService(&testutil.StubPredictor{Probability: 0.9}, nil, nil, nil, events, nil, PredictionConfig{BatchConcurrency: 4})

	students := make([]map[string]any, 8)
	for i := range students {
		students[i] = atRiskStudent()
	}
	result, err := svc.PredictBatch(context.Background(), students)
	require.NoError(t, err)
	assert.Equal(t, 8, result.Summary.HighRisk)

	events.AssertNumberOfCalls(t, "PublishPredictionScored", 8)
	assert.Greater(t, atomic.LoadInt32(&peak), int32(1))
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(4))
}

func TestPredictionService_PredictBatch_OneModelPerBatch(t *testing.T) {
	loader := new(testutil.MockPredictorLoader)
	loader.On("Load", mock.Anything).Return(&testutil.StubPredictor{Probability: 0.9, Version: "v2"}, nil)

	var once sync.Once
	var svc *PredictionService
	first := &testutil.StubPredictor{Version: "v1", Fn: func([]float64) float64 {
		once.Do(func() {
			_, err := svc.Reload(context.Background())
			assert.NoError(t, err)
		})
		return 0.1
	}}
	svc = NewPredictionService(first, loader, nil, nil, nil, nil, PredictionConfig{BatchConcurrency: 1})

	result, err := svc.PredictBatch(context.Background(), []map[string]any{
		{"student_id": "A", "cgpa": 8.0},
		{"student_id": "B", "cgpa": 8.0},
		{"student_id": "C", "cgpa": 8.0},
	})
	require.NoError(t, err)

	assert.Equal(t, "v1", result.ModelVersion)
	for _, p := range result.Predictions {
		assert.Equal(t, "v1", p.ModelVersion)
		assert.Equal(t, 0.1, p.DropoutProbability)
	}
	assert.Len(t, first.Calls(), 3)

	p, err := svc.Predict(context.Background(), map[string]any{"cgpa": 8.0})
	require.NoError(t, err)
	assert.Equal(t, "v2", p.ModelVersion)
}

func TestPredictionService_Ready(t *testing.T) {
	assert.False(t, NewPredictionService(nil, nil, nil, nil, nil, nil, PredictionConfig{}).Ready())
	assert.True(t, NewPredictionService(nil, nil, nil, nil, nil, nil, PredictionConfig{FallbackEnabled: true}).Ready())
	assert.True(t, NewPredictionService(&testutil.StubPredictor{}, nil, nil, nil, nil, nil, PredictionConfig{}).Ready())
}

func TestPredictionService_PredictBatch_Validation(t *testing.T) {
	svc := NewPredictionService(&testutil.StubPredictor{}, nil, nil, nil, nil, nil, PredictionConfig{BatchMaxSize: 2})

	_, err := svc.PredictBatch(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrNoStudentsData)

	_, err = svc.PredictBatch(context.Background(), []map[string]any{{}, {}, {}})
	assert.ErrorIs(t, err, domain.ErrBatchTooLarge)

	noModel := NewPredictionService(nil, nil, nil, nil, nil, nil, PredictionConfig{})
	_, err = noModel.PredictBatch(context.Background(), []map[string]any{{"cgpa": 1.0}})
	assert.ErrorIs(t, err, domain.ErrModelNotLoaded)
}

func TestPredictionService_PredictBatch_Fallback(t *testing.T) {
	svc := NewPredictionService(nil, nil, nil, nil, nil, nil, PredictionConfig{FallbackEnabled: true})

	result, err := svc.PredictBatch(context.Background(), []map[string]any{{"cgpa": 4.0}})
	require.NoError(t, err)
	assert.Equal(t, FallbackModelVersion, result.ModelVersion)
	assert.Equal(t, FallbackWarning, result.Warning)
	assert.Equal(t, domain.SourceFallback, result.Predictions[0].Source)
}

func TestPredictionService_Reload(t *testing.T) {
	loader := new(testutil.MockPredictorLoader)
	metrics := testutil.NewMetricsSpy()
	svc := NewPredictionService(nil, loader, nil, nil, nil, metrics, PredictionConfig{})
	assert.False(t, metrics.Loaded)

	loader.On("Load", mock.Anything).Return(&testutil.StubPredictor{Probability: 0.9, Version: "v2"}, nil).Once()
	info, err := svc.Reload(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "v2", info.Version)
	assert.True(t, svc.ModelLoaded())
	assert.True(t, metrics.Loaded)

	loader.On("Load", mock.Anything).Return(nil, domain.ErrModelSelfTestFailed).Once()
	_, err = svc.Reload(context.Background())
	assert.ErrorIs(t, err, domain.ErrModelSelfTestFailed)

	p, err := svc.Predict(context.Background(), atRiskStudent())
	require.NoError(t, err)
	assert.Equal(t, "v2", p.ModelVersion)
}

func TestPredictionService_Reload_NotConfigured(t *testing.T) {
	svc := NewPredictionService(&testutil.StubPredictor{}, nil, nil, nil, nil, nil, PredictionConfig{})

	_, err := svc.Reload(context.Background())
	assert.ErrorIs(t, err, domain.ErrModelReloadNotSupported)
}

func TestPredictionService_Health(t *testing.T) {
	repo := new(testutil.MockPredictionRepo)
	repo.On("Ping", mock.Anything).Return(errors.New("connection refused"))
	svc := NewPredictionService(&testutil.StubPredictor{Version: "v3"}, nil, repo, nil, nil, nil, PredictionConfig{})

	report := svc.Health(context.Background())
	assert.Equal(t, "degraded", report.Status)
	assert.True(t, report.ModelLoaded)
	assert.Equal(t, "v3", report.ModelVersion)
	assert.Contains(t, report.Checks["database"], "connection refused")

	bare := NewPredictionService(nil, nil, nil, nil, nil, nil, PredictionConfig{})
	report = bare.Health(context.Background())
	assert.Equal(t, "healthy", report.Status)
	assert.False(t, report.ModelLoaded)
}
