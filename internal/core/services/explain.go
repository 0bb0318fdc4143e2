package services

import (
	"fmt"
	"strconv"

	"dropout-risk-service/internal/core/domain"
)

// factorRule annotates a prediction when a raw input crosses a fixed threshold.
// Score is only used by the fallback scorer. Describe receives the parsed value
// and the literal the client sent.
type factorRule struct {
	Feature   string
	Factor    string
	Weight    float64
	Score     float64
	Triggered func(v float64) bool
	Describe  func(v float64, text string) string
}

var (
	lowCGPARule = factorRule{
		Feature:   domain.FeatureCGPA,
		Factor:    "Low CGPA",
		Weight:    0.8,
		Score:     0.4,
		Triggered: func(v float64) bool { return v < 5.0 },
		Describe:  func(v float64, _ string) string { return fmt.Sprintf("CGPA of %.2f is below average", v) },
	}

	poorAttendanceRule = factorRule{
		Feature:   domain.FeatureAttendanceRate,
		Factor:    "Poor Attendance",
		Weight:    0.7,
		Score:     0.3,
		Triggered: func(v float64) bool { return v < 70 },
		Describe:  func(v float64, _ string) string { return fmt.Sprintf("Attendance rate of %.1f%% is concerning", v) },
	}

	pastFailuresRule = factorRule{
		Feature:   domain.FeaturePastFailures,
		Factor:    "Multiple Past Failures",
		Weight:    0.6,
		Score:     0.2,
		Triggered: func(v float64) bool { return v >= 4 },
		Describe:  func(_ float64, text string) string { return text + " past failures indicate academic struggles" },
	}
)

// The rule-based scorer prints plain numbers and counts failures strictly above three.
var (
	fallbackLowCGPARule = factorRule{
		Feature:   lowCGPARule.Feature,
		Factor:    lowCGPARule.Factor,
		Weight:    lowCGPARule.Weight,
		Score:     lowCGPARule.Score,
		Triggered: lowCGPARule.Triggered,
		Describe:  func(v float64, _ string) string { return "CGPA of " + formatNumber(v) + " is below average" },
	}

	fallbackPoorAttendanceRule = factorRule{
		Feature:   poorAttendanceRule.Feature,
		Factor:    poorAttendanceRule.Factor,
		Weight:    poorAttendanceRule.Weight,
		Score:     poorAttendanceRule.Score,
		Triggered: poorAttendanceRule.Triggered,
		Describe:  func(v float64, _ string) string { return "Attendance rate of " + formatNumber(v) + "% is concerning" },
	}

	fallbackPastFailuresRule = factorRule{
		Feature:   pastFailuresRule.Feature,
		Factor:    pastFailuresRule.Factor,
		Weight:    pastFailuresRule.Weight,
		Score:     pastFailuresRule.Score,
		Triggered: func(v float64) bool { return v > 3 },
		Describe: func(v float64, _ string) string {
			return formatNumber(v) + " past failures indicate academic struggles"
		},
	}

	studyTimeRule = factorRule{
		Feature:   domain.FeatureStudyHoursPerWeek,
		Factor:    "Insufficient Study Time",
		Weight:    0.5,
		Score:     0.1,
		Triggered: func(v float64) bool { return v < 10 },
		Describe:  func(v float64, _ string) string { return "Only " + formatNumber(v) + " hours of study per week" },
	}
)

var (
	singleFactorRules   = []factorRule{lowCGPARule, poorAttendanceRule, pastFailuresRule}
	batchFactorRules    = []factorRule{lowCGPARule, poorAttendanceRule}
	fallbackFactorRules = []factorRule{fallbackLowCGPARule, fallbackPoorAttendanceRule, fallbackPastFailuresRule, studyTimeRule}
)

// explain evaluates rules in order against the raw record.
func explain(rec *domain.StudentRecord, rules []factorRule) []domain.ContributingFactor {
	factors := make([]domain.ContributingFactor, 0, len(rules))
	for _, r := range rules {
		v := rec.Value(r.Feature)
		if !r.Triggered(v) {
			continue
		}
		factors = append(factors, domain.ContributingFactor{
			Factor:      r.Factor,
			Weight:      r.Weight,
			Description: r.Describe(v, rec.Text(r.Feature)),
		})
	}
	return factors
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
