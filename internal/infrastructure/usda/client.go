package usda

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/foodlens/backend/internal/domain"
)

const (
	maxAttempts      = 3
	maxErrorBodySize = 1024
	maxBodySize      = 10 * 1024 * 1024
)

// Client handles communication with the USDA FoodData Central API.
// It is used offline by the catalog sync tool, never by the analysis path.
type Client struct {
	httpClient  *http.Client
	apiKey      string
	baseURL     string
	rateLimiter *rate.Limiter
	backoff     func(attempt int) time.Duration
	logger      *zap.Logger
}

// NewClient creates a new USDA API client
func NewClient(apiKey, baseURL string) *Client {
	// USDA allows 1000 requests per hour: 1000/3600 ≈ 0.278 requests/sec
	limiter := rate.NewLimiter(rate.Limit(0.278), 10)

	return &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		apiKey:      apiKey,
		baseURL:     baseURL,
		rateLimiter: limiter,
		backoff:     exponentialBackoff,
		logger:      zap.NewNop(),
	}
}

// SetLogger sets the logger used for request tracing
func (c *Client) SetLogger(logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	c.logger = logger.With(zap.String("component", "USDA"))
}

// exponentialBackoff returns 500ms, 1s, 2s, ... for attempt 1, 2, 3, ...
func exponentialBackoff(attempt int) time.Duration {
	return time.Duration(500*(1<<(attempt-1))) * time.Millisecond
}

// readLimitedBody reads at most limit bytes from r
func readLimitedBody(r io.Reader, limit int64) ([]byte, error) {
	return io.ReadAll(io.LimitReader(r, limit))
}

// doRequest executes an HTTP GET request with proper headers and error handling
func (c *Client) doRequest(ctx context.Context, reqURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "FoodLens/1.0")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUSDAAPIFailure, err)
	}
	return resp, nil
}

// retryable reports whether a status code is worth another attempt
func retryable(status int) bool {
	return status >= 500 || status == http.StatusTooManyRequests
}

// SearchFoods searches for foods in the USDA database.
// Server errors and 429 are retried with exponential backoff; other 4xx are not.
func (c *Client) SearchFoods(ctx context.Context, query string) (*domain.USDASearchResponse, error) {
	c.logger.Debug("search", zap.String("query", query))

	params := url.Values{}
	params.Add("query", query)
	params.Add("api_key", c.apiKey)
	params.Add("dataType", "Survey (FNDDS),Foundation,SR Legacy")
	params.Add("pageSize", "10")
	reqURL := fmt.Sprintf("%s/v1/foods/search?%s", c.baseURL, params.Encode())

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			if err := sleepContext(ctx, c.backoff(attempt-1)); err != nil {
				return nil, err
			}
		}

		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter error: %w", err)
		}

		resp, err := c.doRequest(ctx, reqURL)
		if err != nil {
			if !errors.Is(err, domain.ErrUSDAAPIFailure) {
				return nil, err
			}
			if ctx.Err() != nil {
				return nil, fmt.Errorf("%w: %v", domain.ErrUSDAAPIFailure, ctx.Err())
			}
			c.logger.Warn("request failed", zap.Int("attempt", attempt), zap.Error(err))
			lastErr = err
			continue
		}

		body, err := readLimitedBody(resp.Body, maxBodySize)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("%w: %v", domain.ErrUSDAAPIFailure, err)
			continue
		}

		if resp.StatusCode != http.StatusOK {
			if resp.StatusCode == http.StatusNotFound {
				return nil, domain.ErrProductNotFound
			}
			lastErr = fmt.Errorf("%w: status %d", domain.ErrUSDAAPIFailure, resp.StatusCode)
			if !retryable(resp.StatusCode) {
				return nil, lastErr
			}
			c.logger.Warn("API error",
				zap.Int("attempt", attempt),
				zap.Int("status", resp.StatusCode),
				zap.ByteString("body", truncate(body, maxErrorBodySize)))
			continue
		}

		var searchResp domain.USDASearchResponse
		if err := json.Unmarshal(body, &searchResp); err != nil {
			return nil, fmt.Errorf("failed to decode response: %w", err)
		}

		if len(searchResp.Foods) == 0 {
			c.logger.Debug("no foods", zap.String("query", query))
			return nil, domain.ErrProductNotFound
		}

		c.logger.Debug("search results", zap.String("query", query), zap.Int("foods", len(searchResp.Foods)))
		return &searchResp, nil
	}

	c.logger.Warn("all retries failed", zap.String("query", query))
	return nil, lastErr
}

// GetFoodDetails retrieves the full nutrient list of one food by FDC ID.
// The details endpoint nests nutrients as {"nutrient": {"id"}, "amount"}; both that
// shape and the flat search shape are accepted.
func (c *Client) GetFoodDetails(ctx context.Context, fdcID string) (*domain.USDAFood, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter error: %w", err)
	}

	params := url.Values{}
	params.Add("api_key", c.apiKey)
	reqURL := fmt.Sprintf("%s/v1/food/%s?%s", c.baseURL, url.PathEscape(fdcID), params.Encode())

	resp, err := c.doRequest(ctx, reqURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, domain.ErrProductNotFound
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := readLimitedBody(resp.Body, maxErrorBodySize)
		return nil, fmt.Errorf("%w: status %d, body: %s", domain.ErrUSDAAPIFailure, resp.StatusCode, string(body))
	}

	body, err := readLimitedBody(resp.Body, maxBodySize)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUSDAAPIFailure, err)
	}

	food, err := parseFoodDetails(body)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("food details", zap.Int("fdcId", food.FdcID), zap.Int("nutrients", len(food.Nutrients)))
	return food, nil
}

// parseFoodDetails decodes a details response into a USDAFood
func parseFoodDetails(body []byte) (*domain.USDAFood, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("failed to decode response: invalid JSON")
	}
	root := gjson.ParseBytes(body)
	if !root.IsObject() {
		return nil, fmt.Errorf("failed to decode response: not an object")
	}

	food := &domain.USDAFood{
		FdcID:       int(root.Get("fdcId").Int()),
		Description: root.Get("description").String(),
		DataType:    root.Get("dataType").String(),
		FoodClass:   root.Get("foodClass").String(),
	}

	root.Get("foodNutrients").ForEach(func(_, n gjson.Result) bool {
		nutrient := domain.USDANutrient{
			NutrientID:     int(firstOf(n, "nutrient.id", "nutrientId").Int()),
			NutrientName:   firstOf(n, "nutrient.name", "nutrientName").String(),
			NutrientNumber: firstOf(n, "nutrient.number", "nutrientNumber").String(),
			UnitName:       firstOf(n, "nutrient.unitName", "unitName").String(),
			Value:          firstOf(n, "amount", "value").Float(),
		}
		if nutrient.NutrientID != 0 {
			food.Nutrients = append(food.Nutrients, nutrient)
		}
		return true
	})

	return food, nil
}

// firstOf returns the first of paths present in r
func firstOf(r gjson.Result, paths ...string) gjson.Result {
	for _, p := range paths {
		if v := r.Get(p); v.Exists() {
			return v
		}
	}
	return gjson.Result{}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func truncate(b []byte, n int) []byte {
	if len(b) > n {
		return b[:n]
	}
	return b
}
