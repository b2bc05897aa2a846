package domain

import "errors"

var (
	// ErrNoFoodDetected is returned when no label survives filtering and matching
	ErrNoFoodDetected = errors.New("no food detected in image")

	// ErrClassificationFailed is returned when the image classifier fails
	ErrClassificationFailed = errors.New("image classification failed")

	// ErrCatalogLoadFailed is returned when the nutrition table cannot be read or parsed
	ErrCatalogLoadFailed = errors.New("nutrition catalog load failed")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrRateLimited is returned when rate limit is exceeded
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrProductNotFound is returned when a food cannot be found in USDA database
	ErrProductNotFound = errors.New("product not found in USDA database")

	// ErrUSDAAPIFailure is returned when USDA API request fails
	ErrUSDAAPIFailure = errors.New("USDA API request failed")

	// ErrStorageUnavailable is returned when analysis history is not configured
	ErrStorageUnavailable = errors.New("analysis storage unavailable")
)
