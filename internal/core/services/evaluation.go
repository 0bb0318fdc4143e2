package services

import (
	"context"
	"fmt"

	"dropout-risk-service/internal/core/domain"
	output "dropout-risk-service/internal/core/ports/output"
)

const DefaultDecisionThreshold = 0.5

// LabelledRecord pairs a student with the observed outcome (1 = dropped out).
type LabelledRecord struct {
	Record *domain.StudentRecord
	Label  int
}

type ConfusionMatrix struct {
	TN int `json:"tn" yaml:"tn"`
	FP int `json:"fp" yaml:"fp"`
	FN int `json:"fn" yaml:"fn"`
	TP int `json:"tp" yaml:"tp"`
}

type ClassMetrics struct {
	Class     string  `json:"class" yaml:"class"`
	Precision float64 `json:"precision" yaml:"precision"`
	Recall    float64 `json:"recall" yaml:"recall"`
	F1        float64 `json:"f1" yaml:"f1"`
	Support   int     `json:"support" yaml:"support"`
}

type EvaluationReport struct {
	ModelVersion     string                   `json:"model_version" yaml:"model_version"`
	Samples          int                      `json:"samples" yaml:"samples"`
	Threshold        float64                  `json:"threshold" yaml:"threshold"`
	Accuracy         float64                  `json:"accuracy" yaml:"accuracy"`
	Confusion        ConfusionMatrix          `json:"confusion_matrix" yaml:"confusion_matrix"`
	Classes          []ClassMetrics           `json:"classes" yaml:"classes"`
	MacroPrecision   float64                  `json:"macro_precision" yaml:"macro_precision"`
	MacroRecall      float64                  `json:"macro_recall" yaml:"macro_recall"`
	MacroF1          float64                  `json:"macro_f1" yaml:"macro_f1"`
	TierDistribution map[domain.RiskLevel]int `json:"tier_distribution" yaml:"tier_distribution"`
}

// EvaluationService measures a model against labelled students. Unlike the
// prediction path, inference errors abort the run.
type EvaluationService struct {
	predictor output.Predictor
}

func NewEvaluationService(predictor output.Predictor) *EvaluationService {
	return &EvaluationService{predictor: predictor}
}

func (s *EvaluationService) Evaluate(ctx context.Context, samples []LabelledRecord, threshold float64) (*EvaluationReport, error) {
	if s.predictor == nil {
		return nil, domain.ErrModelNotLoaded
	}
	if len(samples) == 0 {
		return nil, domain.ErrEmptyDataset
	}
	if threshold <= 0 || threshold >= 1 {
		threshold = DefaultDecisionThreshold
	}

	report := &EvaluationReport{
		ModelVersion:     s.predictor.Info().Version,
		Samples:          len(samples),
		Threshold:        threshold,
		TierDistribution: map[domain.RiskLevel]int{},
	}
	for _, level := range domain.RiskLevels {
		report.TierDistribution[level] = 0
	}

	var cm ConfusionMatrix
	for i, sample := range samples {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if sample.Label != 0 && sample.Label != 1 {
			return nil, fmt.Errorf("%w: row %d has %d", domain.ErrInvalidLabel, i+1, sample.Label)
		}
		prob, err := s.predictor.PredictProba(sample.Record.Vector())
		if err != nil {
			return nil, fmt.Errorf("predict row %d: %w", i+1, err)
		}
		report.TierDistribution[domain.RiskLevelFromProbability(prob)]++

		predicted := 0
		if prob >= threshold {
			predicted = 1
		}
		switch {
		case predicted == 1 && sample.Label == 1:
			cm.TP++
		case predicted == 1 && sample.Label == 0:
			cm.FP++
		case predicted == 0 && sample.Label == 1:
			cm.FN++
		default:
			cm.TN++
		}
	}

	report.Confusion = cm
	report.Accuracy = ratio(cm.TP+cm.TN, len(samples))
	report.Classes = []ClassMetrics{
		classMetrics("0", cm.TN, cm.FN, cm.FP),
		classMetrics("1", cm.TP, cm.FP, cm.FN),
	}
	for _, c := range report.Classes {
		report.MacroPrecision += c.Precision / 2
		report.MacroRecall += c.Recall / 2
		report.MacroF1 += c.F1 / 2
	}

	return report, nil
}

// classMetrics treats class as positive: tp hits, fp false alarms, fn misses.
func classMetrics(class string, tp, fp, fn int) ClassMetrics {
	precision := ratio(tp, tp+fp)
	recall := ratio(tp, tp+fn)
	var f1 float64
	if precision+recall > 0 {
		f1 = 2 * precision * recall / (precision + recall)
	}
	return ClassMetrics{
		Class:     class,
		Precision: precision,
		Recall:    recall,
		F1:        f1,
		Support:   tp + fn,
	}
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}
