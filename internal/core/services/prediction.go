package services

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"dropout-risk-service/internal/core/domain"
	output "dropout-risk-service/internal/core/ports/output"
)

// SafeProbability is returned when the ensemble fails on a vector.
const SafeProbability = 0.5

const (
	defaultBatchMaxSize     = 1000
	defaultBatchConcurrency = 8
)

type PredictionConfig struct {
	FallbackEnabled   bool
	CacheTTL          time.Duration
	BatchMaxSize      int
	BatchConcurrency  int
	EventMinRiskLevel domain.RiskLevel
}

// servingModel pairs a predictor with the identity its cached outputs are
// stored under. The identity changes on every load, even when the reported
// version label does not.
type servingModel struct {
	predictor output.Predictor
	cacheID   string
}

type PredictionService struct {
	mu         sync.RWMutex
	model      *servingModel
	generation uint64

	loader   output.PredictorLoader
	repo     output.PredictionRepository
	cache    output.ProbabilityCache
	events   output.EventPublisher
	metrics  output.MetricsRecorder
	fallback *FallbackScorer
	cfg      PredictionConfig
}

// NewPredictionService wires the scoring pipeline. Every port except metrics may
// be nil; a nil predictor means the service starts without a model.
func NewPredictionService(
	predictor output.Predictor,
	loader output.PredictorLoader,
	repo output.PredictionRepository,
	cache output.ProbabilityCache,
	events output.EventPublisher,
	metrics output.MetricsRecorder,
	cfg PredictionConfig,
) *PredictionService {
	if cfg.BatchMaxSize <= 0 {
		cfg.BatchMaxSize = defaultBatchMaxSize
	}
	if cfg.BatchConcurrency <= 0 {
		cfg.BatchConcurrency = defaultBatchConcurrency
	}
	if cfg.EventMinRiskLevel == "" {
		cfg.EventMinRiskLevel = domain.RiskLevelHigh
	}
	if metrics == nil {
		metrics = noopMetrics{}
	}
	metrics.SetModelLoaded(predictor != nil)

	s := &PredictionService{
		loader:   loader,
		repo:     repo,
		cache:    cache,
		events:   events,
		metrics:  metrics,
		fallback: NewFallbackScorer(),
		cfg:      cfg,
	}
	if predictor != nil {
		s.swap(predictor)
	}
	return s
}

func (s *PredictionService) current() *servingModel {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.model
}

// swap installs a freshly loaded predictor. Artifacts with a digest are cached
// under it; in-memory predictors get version plus load generation.
func (s *PredictionService) swap(predictor output.Predictor) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.generation++
	info := predictor.Info()
	id := info.Digest
	if id == "" {
		id = fmt.Sprintf("%s@%d", info.Version, s.generation)
	}
	s.model = &servingModel{predictor: predictor, cacheID: id}
}

// ModelLoaded reports whether an ensemble is serving predictions.
func (s *PredictionService) ModelLoaded() bool {
	return s.current() != nil
}

// Ready reports whether requests can be scored, by the model or by the fallback rules.
func (s *PredictionService) Ready() bool {
	return s.cfg.FallbackEnabled || s.ModelLoaded()
}

// ============================================================================
// Single prediction
// ============================================================================

// Predict scores one decoded JSON object.
func (s *PredictionService) Predict(ctx context.Context, raw map[string]any) (*domain.Prediction, error) {
	if len(raw) == 0 {
		return nil, domain.ErrNoStudentData
	}
	rec, err := domain.NewStudentRecord(raw)
	if err != nil {
		return nil, err
	}
	return s.PredictRecord(ctx, rec)
}

// PredictRecord scores an already-built record.
func (s *PredictionService) PredictRecord(ctx context.Context, rec *domain.StudentRecord) (*domain.Prediction, error) {
	p, err := s.score(ctx, s.current(), rec, singleFactorRules, singleRecommendations)
	if err != nil {
		s.metrics.RecordPredictionError("predict")
		return nil, err
	}
	s.afterPrediction(ctx, rec, p)
	return p, nil
}

// ============================================================================
// Batch prediction
// ============================================================================

// PredictBatch scores each object independently. A malformed student yields a
// failed entry in place instead of failing the whole batch.
func (s *PredictionService) PredictBatch(ctx context.Context, raws []map[string]any) (*domain.BatchResult, error) {
	if len(raws) == 0 {
		return nil, domain.ErrNoStudentsData
	}
	if len(raws) > s.cfg.BatchMaxSize {
		return nil, fmt.Errorf("%w: %d > %d", domain.ErrBatchTooLarge, len(raws), s.cfg.BatchMaxSize)
	}

	model := s.current()
	if model == nil && !s.cfg.FallbackEnabled {
		return nil, domain.ErrModelNotLoaded
	}

	predictions := make([]*domain.Prediction, len(raws))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.BatchConcurrency)
	for i, raw := range raws {
		g.Go(func() error {
			rec, err := domain.NewStudentRecord(raw)
			if err != nil {
				predictions[i] = failedPrediction(domain.StudentIDFrom(raw), err)
				return nil
			}
			p, err := s.score(gctx, model, rec, batchFactorRules, batchRecommendations)
			if err != nil {
				predictions[i] = failedPrediction(rec.StudentID, err)
				return nil
			}
			predictions[i] = p
			s.afterPrediction(gctx, rec, p)
			return nil
		})
	}
	_ = g.Wait()

	result := &domain.BatchResult{
		Predictions:    predictions,
		TotalProcessed: len(predictions),
	}
	if model != nil {
		result.ModelVersion = model.predictor.Info().Version
	} else {
		result.ModelVersion = FallbackModelVersion
		result.Warning = FallbackWarning
	}

	for _, p := range predictions {
		result.Summary.Add(p)
		if p.Failed() {
			s.metrics.RecordPredictionError("batch_item")
		}
	}
	s.metrics.RecordBatchSize(len(raws))

	return result, nil
}

func failedPrediction(studentID string, err error) *domain.Prediction {
	return &domain.Prediction{
		StudentID:           studentID,
		RiskLevel:           domain.RiskLevelUnknown,
		DropoutProbability:  0,
		ContributingFactors: []domain.ContributingFactor{},
		Recommendations:     []domain.Recommendation{},
		Error:               "Prediction failed: " + err.Error(),
		PredictedAt:         time.Now().UTC(),
	}
}

// ============================================================================
// Scoring
// ============================================================================

// score uses the model snapshot it is given so a batch never mixes models
// across a concurrent reload.
func (s *PredictionService) score(
	ctx context.Context,
	model *servingModel,
	rec *domain.StudentRecord,
	rules []factorRule,
	templates map[domain.RiskLevel][]domain.Recommendation,
) (*domain.Prediction, error) {
	if model == nil {
		if !s.cfg.FallbackEnabled {
			return nil, domain.ErrModelNotLoaded
		}
		prob, factors := s.fallback.Score(rec)
		level := domain.RiskLevelFromProbability(prob)
		return &domain.Prediction{
			StudentID:           rec.StudentID,
			RiskLevel:           level,
			DropoutProbability:  domain.RoundProbability(prob),
			ContributingFactors: factors,
			Recommendations:     recommend(level, fallbackRecommendations),
			ModelVersion:        FallbackModelVersion,
			Source:              domain.SourceFallback,
			Warning:             FallbackWarning,
			PredictedAt:         time.Now().UTC(),
		}, nil
	}

	info := model.predictor.Info()
	prob := s.probability(ctx, model, rec.Vector())
	level := domain.RiskLevelFromProbability(prob)

	return &domain.Prediction{
		StudentID:           rec.StudentID,
		RiskLevel:           level,
		DropoutProbability:  domain.RoundProbability(prob),
		ContributingFactors: explain(rec, rules),
		Recommendations:     recommend(level, templates),
		ModelVersion:        info.Version,
		Source:              domain.SourceModel,
		PredictedAt:         time.Now().UTC(),
	}, nil
}

// probability never fails: inference errors degrade to SafeProbability.
func (s *PredictionService) probability(ctx context.Context, model *servingModel, vec []float64) float64 {
	var key string
	if s.cache != nil {
		key = CacheKey(model.cacheID, vec)
		cached, err := s.cache.Get(ctx, key)
		if err == nil {
			return cached
		}
		if !errors.Is(err, domain.ErrCacheMiss) {
			log.WithError(err).Warn("probability cache lookup failed")
		}
	}

	prob, err := model.predictor.PredictProba(vec)
	if err == nil && (math.IsNaN(prob) || prob < 0 || prob > 1) {
		err = fmt.Errorf("probability %v out of range", prob)
	}
	if err != nil {
		log.WithError(err).Error("model inference failed, using safe default")
		s.metrics.RecordPredictionError("inference")
		return SafeProbability
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, prob, s.cfg.CacheTTL); err != nil {
			log.WithError(err).Warn("probability cache store failed")
		}
	}
	return prob
}

// CacheKey identifies a model output by loaded-model identity and feature vector.
func CacheKey(modelID string, vec []float64) string {
	h := sha256.New()
	buf := make([]byte, 8)
	for _, v := range vec {
		binary.LittleEndian.PutUint64(buf, math.Float64bits(v))
		h.Write(buf)
	}
	return "dropout:prob:" + modelID + ":" + hex.EncodeToString(h.Sum(nil))
}

// afterPrediction records, persists and publishes a successful prediction.
// Failures are logged and never reach the caller.
func (s *PredictionService) afterPrediction(ctx context.Context, rec *domain.StudentRecord, p *domain.Prediction) {
	s.metrics.RecordPrediction(p.RiskLevel.String(), string(p.Source))

	if s.repo != nil {
		if err := s.repo.Save(ctx, domain.NewStoredPrediction(rec, p)); err != nil {
			s.metrics.RecordPredictionError("persist")
			log.WithError(err).WithField("student_id", p.StudentID).Warn("failed to store prediction")
		}
	}

	if s.events != nil && p.RiskLevel.AtLeast(s.cfg.EventMinRiskLevel) {
		factors := make([]string, 0, len(p.ContributingFactors))
		for _, f := range p.ContributingFactors {
			factors = append(factors, f.Factor)
		}
		event := output.PredictionScoredEvent{
			EventID:            uuid.NewString(),
			StudentID:          p.StudentID,
			RiskLevel:          p.RiskLevel.String(),
			DropoutProbability: p.DropoutProbability,
			ModelVersion:       p.ModelVersion,
			Source:             string(p.Source),
			Factors:            factors,
			OccurredAt:         p.PredictedAt,
		}
		if err := s.events.PublishPredictionScored(ctx, event); err != nil {
			s.metrics.RecordPredictionError("publish")
			log.WithError(err).WithField("student_id", p.StudentID).Warn("failed to publish prediction event")
		}
	}
}

// ============================================================================
// Model lifecycle
// ============================================================================

type HealthReport struct {
	Status          string
	ModelLoaded     bool
	ModelVersion    string
	FallbackEnabled bool
	Checks          map[string]string
}

// Health reports "healthy" unless a configured dependency is unreachable.
func (s *PredictionService) Health(ctx context.Context) *HealthReport {
	report := &HealthReport{
		Status:          "healthy",
		FallbackEnabled: s.cfg.FallbackEnabled,
		Checks:          map[string]string{},
	}

	if model := s.current(); model != nil {
		report.ModelLoaded = true
		report.ModelVersion = model.predictor.Info().Version
	} else if s.cfg.FallbackEnabled {
		report.ModelVersion = FallbackModelVersion
	}

	if s.repo != nil {
		if err := s.repo.Ping(ctx); err != nil {
			report.Status = "degraded"
			report.Checks["database"] = "unavailable: " + err.Error()
		} else {
			report.Checks["database"] = "ok"
		}
	}

	return report
}

// ModelInfo describes the serving model, or the fallback rules when enabled.
func (s *PredictionService) ModelInfo() (*domain.ModelInfo, error) {
	model := s.current()
	if model == nil {
		if !s.cfg.FallbackEnabled {
			return nil, domain.ErrModelNotLoaded
		}
		return &domain.ModelInfo{
			Name:      "fallback",
			Format:    "rules",
			Version:   FallbackModelVersion,
			Source:    string(domain.SourceFallback),
			NFeatures: domain.NumFeatures,
		}, nil
	}
	info := model.predictor.Info()
	return &info, nil
}

// Reload fetches and validates a fresh model and swaps it in. The previous
// model keeps serving if loading fails.
func (s *PredictionService) Reload(ctx context.Context) (*domain.ModelInfo, error) {
	if s.loader == nil {
		return nil, domain.ErrModelReloadNotSupported
	}

	predictor, err := s.loader.Load(ctx)
	if err != nil {
		s.metrics.RecordPredictionError("reload")
		return nil, fmt.Errorf("reload model: %w", err)
	}

	s.swap(predictor)
	s.metrics.SetModelLoaded(true)

	info := predictor.Info()
	log.WithFields(log.Fields{
		"version": info.Version,
		"source":  info.Source,
	}).Info("model reloaded")
	return &info, nil
}

type noopMetrics struct{}

func (noopMetrics) RecordPrediction(string, string) {}
func (noopMetrics) RecordPredictionError(string)    {}
func (noopMetrics) RecordBatchSize(int)             {}
func (noopMetrics) SetModelLoaded(bool)             {}
