package usecase

import (
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/foodlens/backend/internal/domain"
)

// FoodAnalyzer turns classifier labels into a meal-level nutrition estimate.
// It holds no per-call state, so Analyze may run concurrently.
type FoodAnalyzer struct {
	matcher *NameMatcher
	filter  *LabelFilter
	newID   func() string
	logger  *zap.Logger
}

// AnalyzerOption customizes a FoodAnalyzer
type AnalyzerOption func(*FoodAnalyzer)

// WithIDGenerator replaces the uuid generator used for DetectedFood ids
func WithIDGenerator(fn func() string) AnalyzerOption {
	return func(a *FoodAnalyzer) {
		if fn != nil {
			a.newID = fn
		}
	}
}

// WithLabelFilter replaces the built-in keyword filter
func WithLabelFilter(filter *LabelFilter) AnalyzerOption {
	return func(a *FoodAnalyzer) {
		if filter != nil {
			a.filter = filter
		}
	}
}

// NewFoodAnalyzer creates an analyzer over catalog
func NewFoodAnalyzer(catalog *NutritionCatalog, logger *zap.Logger, opts ...AnalyzerOption) *FoodAnalyzer {
	if logger == nil {
		logger = zap.NewNop()
	}

	a := &FoodAnalyzer{
		matcher: NewNameMatcher(catalog, logger),
		filter:  NewLabelFilter(),
		newID:   uuid.NewString,
		logger:  logger.With(zap.String("component", "ANALYZE")),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Matcher exposes the analyzer's name matcher
func (a *FoodAnalyzer) Matcher() *NameMatcher {
	return a.matcher
}

// Analyze filters, deduplicates and resolves labels, then totals the detected foods.
// Returns domain.ErrNoFoodDetected when nothing is accepted.
func (a *FoodAnalyzer) Analyze(labels []domain.Label) (*domain.AnalysisResult, error) {
	selected := a.filter.Select(labels)

	a.logger.Debug("labels selected",
		zap.Int("received", len(labels)),
		zap.Int("selected", len(selected)))

	result := &domain.AnalysisResult{Foods: make([]domain.DetectedFood, 0, len(selected))}
	processed := make(map[string]bool, len(selected))
	totalConfidence := 0.0

	for _, label := range selected {
		text := normalizeQuery(label.Text)
		if processed[text] {
			continue
		}
		processed[text] = true

		match := a.matcher.Resolve(text)
		scaled := ScalePortion(match.Record)
		confidence := BlendConfidence(label.Confidence, match)

		a.logger.Debug("label resolved",
			zap.String("label", text),
			zap.String("food", scaled.Name),
			zap.String("tier", string(match.Tier)),
			zap.Int("calories", scaled.Calories),
			zap.Float64("confidence", confidence))

		result.Foods = append(result.Foods, domain.DetectedFood{
			ID:                 a.newID(),
			Name:               scaled.Name,
			Calories:           scaled.Calories,
			Protein:            scaled.Protein,
			Carbs:              scaled.Carbs,
			Fat:                scaled.Fat,
			PortionGrams:       scaled.PortionGrams,
			PortionDescription: scaled.PortionDescription,
			Confidence:         confidence,
			Matched:            match.Matched,
		})

		result.TotalCalories += float64(scaled.Calories)
		result.TotalProtein += scaled.Protein
		result.TotalCarbs += scaled.Carbs
		result.TotalFat += scaled.Fat
		totalConfidence += confidence
	}

	if len(result.Foods) == 0 {
		a.logger.Info("no food detected", zap.Int("labels", len(labels)))
		return nil, domain.ErrNoFoodDetected
	}

	result.OverallConfidence = min(totalConfidence/float64(len(result.Foods)), maxConfidence)

	a.logger.Info("analysis complete",
		zap.Int("foods", len(result.Foods)),
		zap.Float64("totalCalories", result.TotalCalories),
		zap.Float64("confidence", result.OverallConfidence))

	return result, nil
}
