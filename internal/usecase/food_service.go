package usecase

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/foodlens/backend/internal/domain"
)

// ErrClassifierNotConfigured is returned by AnalyzeFood when no classifier was provided
var ErrClassifierNotConfigured = errors.New("image classifier not configured")

// FoodService is the entry point for image and label analysis
type FoodService struct {
	classifier domain.Classifier
	analyzer   *FoodAnalyzer
	logger     *zap.Logger
}

// LookupResult is a catalog resolution scaled to its portion
type LookupResult struct {
	Match   domain.MatchResult     `json:"match"`
	Portion domain.ScaledNutrition `json:"portion"`
}

// NewFoodService creates a food service. classifier may be nil, in which case only
// label analysis and lookups are available.
func NewFoodService(classifier domain.Classifier, analyzer *FoodAnalyzer, logger *zap.Logger) *FoodService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FoodService{
		classifier: classifier,
		analyzer:   analyzer,
		logger:     logger.With(zap.String("component", "FOOD")),
	}
}

// HasClassifier reports whether image analysis is available
func (s *FoodService) HasClassifier() bool {
	return s.classifier != nil
}

// AnalyzeFood classifies an image and estimates its nutrition.
// Classifier failures are wrapped in domain.ErrClassificationFailed;
// domain.ErrNoFoodDetected is returned when the image holds nothing recognizable.
func (s *FoodService) AnalyzeFood(ctx context.Context, image []byte) (*domain.AnalysisResult, error) {
	if len(image) == 0 {
		return nil, domain.ErrInvalidRequest
	}
	if s.classifier == nil {
		return nil, ErrClassifierNotConfigured
	}

	labels, err := s.classifier.Classify(ctx, image)
	if err != nil {
		s.logger.Warn("classification failed", zap.Error(err))
		if errors.Is(err, domain.ErrClassificationFailed) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrClassificationFailed, err)
	}

	s.logger.Debug("classifier labels", zap.Int("count", len(labels)), zap.Any("labels", labels))

	return s.analyzer.Analyze(labels)
}

// AnalyzeLabels estimates nutrition from labels the caller already has
func (s *FoodService) AnalyzeLabels(labels []domain.Label) (*domain.AnalysisResult, error) {
	if len(labels) == 0 {
		return nil, domain.ErrInvalidRequest
	}
	return s.analyzer.Analyze(labels)
}

// Lookup resolves a single food name and scales it to its reference portion
func (s *FoodService) Lookup(query string) (*LookupResult, error) {
	if normalizeQuery(query) == "" {
		return nil, domain.ErrInvalidRequest
	}

	match := s.analyzer.Matcher().Resolve(query)
	return &LookupResult{
		Match:   match,
		Portion: ScalePortion(match.Record),
	}, nil
}
