package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// RiskLevel is the discretized dropout probability.
type RiskLevel string

const (
	RiskLevelLow     RiskLevel = "low"
	RiskLevelMedium  RiskLevel = "medium"
	RiskLevelHigh    RiskLevel = "high"
	RiskLevelUnknown RiskLevel = "unknown"
)

// Tier thresholds are inclusive lower bounds.
const (
	HighRiskThreshold   = 0.7
	MediumRiskThreshold = 0.4
)

// RiskLevels lists the tiers a successful prediction can land in, lowest first.
var RiskLevels = []RiskLevel{RiskLevelLow, RiskLevelMedium, RiskLevelHigh}

// RiskLevelFromProbability maps a dropout probability onto a tier.
func RiskLevelFromProbability(p float64) RiskLevel {
	switch {
	case p >= HighRiskThreshold:
		return RiskLevelHigh
	case p >= MediumRiskThreshold:
		return RiskLevelMedium
	default:
		return RiskLevelLow
	}
}

// ParseRiskLevel accepts a tier name in any case.
func ParseRiskLevel(s string) (RiskLevel, error) {
	switch RiskLevel(strings.ToLower(strings.TrimSpace(s))) {
	case RiskLevelLow:
		return RiskLevelLow, nil
	case RiskLevelMedium:
		return RiskLevelMedium, nil
	case RiskLevelHigh:
		return RiskLevelHigh, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidRiskLevel, s)
	}
}

// Rank orders tiers so callers can compare them; unknown ranks lowest.
func (r RiskLevel) Rank() int {
	switch r {
	case RiskLevelLow:
		return 1
	case RiskLevelMedium:
		return 2
	case RiskLevelHigh:
		return 3
	default:
		return 0
	}
}

// AtLeast reports whether r is the same tier as min or above it.
func (r RiskLevel) AtLeast(min RiskLevel) bool {
	return r.Rank() > 0 && r.Rank() >= min.Rank()
}

func (r RiskLevel) String() string {
	return string(r)
}

// RoundProbability rounds to three decimals for responses. Rounding works on
// the exact binary value with ties to even, so 0.0625 becomes 0.062.
func RoundProbability(p float64) float64 {
	r, err := strconv.ParseFloat(strconv.FormatFloat(p, 'f', 3, 64), 64)
	if err != nil {
		return p
	}
	return r
}
