package usecase

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/foodlens/backend/internal/domain"
)

func TestBlendConfidence(t *testing.T) {
	hit := domain.MatchResult{Matched: true, MatchConfidence: 0.9, Tier: domain.TierExact}
	miss := domain.MatchResult{Matched: false, MatchConfidence: 0.3, Tier: domain.TierFallback}

	tests := []struct {
		name       string
		classifier float64
		match      domain.MatchResult
		want       float64
	}{
		{"matched averages signals", 0.8, hit, 0.85},
		{"matched low classifier", 0.5, hit, 0.7},
		{"matched capped", 1.0, hit, 0.95},
		{"fallback discounts classifier", 0.9, miss, 0.54},
		{"fallback floor", 0.2, miss, 0.3},
		{"classifier above one is clamped", 1.5, miss, 0.6},
		{"negative classifier is clamped", -1, miss, 0.3},
		{"NaN treated as zero", math.NaN(), hit, 0.45},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, BlendConfidence(tt.classifier, tt.match), 1e-9)
		})
	}
}

func TestBlendConfidenceBounds(t *testing.T) {
	for _, matched := range []bool{true, false} {
		match := domain.MatchResult{Matched: matched, MatchConfidence: 0.9}
		for c := -0.5; c <= 1.5; c += 0.05 {
			got := BlendConfidence(c, match)
			assert.GreaterOrEqual(t, got, 0.0)
			assert.LessOrEqual(t, got, 0.95)
			if !matched {
				assert.GreaterOrEqual(t, got, 0.3)
			}
		}
	}
}
