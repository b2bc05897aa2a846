package domain

import (
	"context"
	"time"
)

// Classifier labels an image. It is the only blocking call in an analysis.
type Classifier interface {
	Classify(ctx context.Context, image []byte) ([]Label, error)
}

// CacheRepository defines the interface for caching operations
type CacheRepository interface {
	Get(ctx context.Context, key string) (interface{}, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// USDAClient defines the interface for interacting with USDA FoodData Central API
type USDAClient interface {
	SearchFoods(ctx context.Context, query string) (*USDASearchResponse, error)
	GetFoodDetails(ctx context.Context, fdcID string) (*USDAFood, error)
}

// AnalysisRepository persists analysis history
type AnalysisRepository interface {
	Save(ctx context.Context, record *AnalysisRecord) error
	List(ctx context.Context, limit int) ([]AnalysisRecord, error)
}
