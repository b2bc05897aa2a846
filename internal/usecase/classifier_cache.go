package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"go.uber.org/zap"

	"github.com/foodlens/backend/internal/domain"
)

const defaultLabelCacheTTL = 24 * time.Hour

// CachingClassifier memoizes classifier labels per image content.
// Cache failures are logged and never fail a classification.
type CachingClassifier struct {
	next   domain.Classifier
	cache  domain.CacheRepository
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachingClassifier wraps next with a label cache
func NewCachingClassifier(next domain.Classifier, cache domain.CacheRepository, ttl time.Duration, logger *zap.Logger) *CachingClassifier {
	if ttl <= 0 {
		ttl = defaultLabelCacheTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachingClassifier{
		next:   next,
		cache:  cache,
		ttl:    ttl,
		logger: logger.With(zap.String("component", "CACHE")),
	}
}

// Classify returns cached labels for image or delegates to the wrapped classifier
func (c *CachingClassifier) Classify(ctx context.Context, image []byte) ([]domain.Label, error) {
	key := labelCacheKey(image)

	if labels, err := c.getFromCache(ctx, key); err == nil {
		c.logger.Debug("label cache hit", zap.String("key", key))
		return labels, nil
	}

	labels, err := c.next.Classify(ctx, image)
	if err != nil {
		return nil, err
	}

	if err := c.cache.Set(ctx, key, labels, c.ttl); err != nil {
		c.logger.Warn("label cache write failed", zap.String("key", key), zap.Error(err))
	}
	return labels, nil
}

// labelCacheKey derives a cache key from image content.
// Format: "labels:{sha256 hex}"
func labelCacheKey(image []byte) string {
	sum := sha256.Sum256(image)
	return "labels:" + hex.EncodeToString(sum[:])
}

// getFromCache reads labels, accepting both typed values and JSON round-tripped ones
func (c *CachingClassifier) getFromCache(ctx context.Context, key string) ([]domain.Label, error) {
	value, err := c.cache.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	switch v := value.(type) {
	case []domain.Label:
		return v, nil
	case []interface{}:
		return labelsFromMaps(v)
	default:
		return nil, domain.ErrCacheMiss
	}
}

// labelsFromMaps converts a JSON-decoded label list back into labels
func labelsFromMaps(items []interface{}) ([]domain.Label, error) {
	labels := make([]domain.Label, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]interface{})
		if !ok {
			return nil, domain.ErrCacheMiss
		}
		var label domain.Label
		if v, ok := m["text"].(string); ok {
			label.Text = v
		}
		if v, ok := m["confidence"].(float64); ok {
			label.Confidence = v
		}
		labels = append(labels, label)
	}
	return labels, nil
}
