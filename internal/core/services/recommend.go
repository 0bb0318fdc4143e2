package services

import "dropout-risk-service/internal/core/domain"

var singleRecommendations = map[domain.RiskLevel][]domain.Recommendation{
	domain.RiskLevelHigh: {
		{Action: "Immediate Academic Intervention", Priority: "high", Description: "Schedule one-on-one tutoring sessions"},
		{Action: "Attendance Monitoring", Priority: "high", Description: "Implement daily attendance tracking"},
	},
	domain.RiskLevelMedium: {
		{Action: "Study Skills Workshop", Priority: "medium", Description: "Enroll in study skills workshops"},
		{Action: "Regular Check-ins", Priority: "medium", Description: "Schedule bi-weekly progress meetings"},
	},
	domain.RiskLevelLow: {
		{Action: "Maintain Current Progress", Priority: "low", Description: "Continue current study habits"},
	},
}

var batchRecommendations = map[domain.RiskLevel][]domain.Recommendation{
	domain.RiskLevelHigh: {
		{Action: "Immediate Intervention", Priority: "high", Description: "Schedule academic support"},
	},
	domain.RiskLevelMedium: {
		{Action: "Monitor Progress", Priority: "medium", Description: "Regular check-ins needed"},
	},
	domain.RiskLevelLow: {
		{Action: "Maintain Performance", Priority: "low", Description: "Continue current approach"},
	},
}

var fallbackRecommendations = map[domain.RiskLevel][]domain.Recommendation{
	domain.RiskLevelHigh: {
		{Action: "Immediate Academic Intervention", Priority: "high", Description: "Schedule one-on-one tutoring and academic counseling"},
		{Action: "Attendance Monitoring", Priority: "high", Description: "Implement daily attendance tracking"},
	},
	domain.RiskLevelMedium: singleRecommendations[domain.RiskLevelMedium],
	domain.RiskLevelLow:    singleRecommendations[domain.RiskLevelLow],
}

// recommend returns a copy of the templates for the tier so callers may mutate it.
func recommend(level domain.RiskLevel, templates map[domain.RiskLevel][]domain.Recommendation) []domain.Recommendation {
	tmpl := templates[level]
	out := make([]domain.Recommendation, len(tmpl))
	copy(out, tmpl)
	return out
}
