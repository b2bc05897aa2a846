package usecase

import "github.com/foodlens/backend/internal/domain"

// Confidence blending weights and bounds
const (
	maxConfidence           = 0.95
	minFallbackConfidence   = 0.3
	matchedClassifierWeight = 0.5
	matchedCatalogWeight    = 0.5
	fallbackClassifierScale = 0.6
)

// BlendConfidence combines classifier confidence with the catalog match.
// A catalog hit averages both signals (capped at 0.95); a fallback discounts the
// classifier confidence but never reports less than 0.3.
func BlendConfidence(classifierConfidence float64, match domain.MatchResult) float64 {
	c := clamp01(classifierConfidence)

	if match.Matched {
		return min(c*matchedClassifierWeight+match.MatchConfidence*matchedCatalogWeight, maxConfidence)
	}
	return max(c*fallbackClassifierScale, minFallbackConfidence)
}

func clamp01(v float64) float64 {
	if v != v || v < 0 { // NaN or negative
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
