package risk

import "github.com/magabrotheeeer/risk-monitor/internal/models"

// DefaultRecommendation возвращается для неизвестного уровня риска.
const DefaultRecommendation = "Continue monitoring"

var recommendations = map[models.RiskLevel][]string{
	models.RiskCritical: {
		"Immediate contact required for payment method verification",
		"Consider temporary account restrictions",
		"Review subscription value proposition with user",
		"Implement payment retry with different methods",
	},
	models.RiskHigh: {
		"Proactive outreach for payment method update",
		"Offer payment assistance or alternative methods",
		"Monitor closely for upcoming payments",
		"Consider retention campaigns",
	},
	models.RiskMedium: {
		"Send automated payment reminder emails",
		"Monitor payment patterns for changes",
		"Consider targeted retention offers",
	},
	models.RiskLow: {
		"Continue standard monitoring",
		"Maintain regular communication",
	},
}

// Recommendations возвращает копию списка рекомендаций для уровня риска.
func Recommendations(level models.RiskLevel) []string {
	recs, ok := recommendations[level]
	if !ok {
		return []string{DefaultRecommendation}
	}
	out := make([]string, len(recs))
	copy(out, recs)
	return out
}
