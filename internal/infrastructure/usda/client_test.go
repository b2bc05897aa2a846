package usda

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/foodlens/backend/internal/domain"
)

// newTestClient returns a client whose retries do not sleep
func newTestClient(baseURL string) *Client {
	client := NewClient("test-api-key", baseURL)
	client.backoff = func(int) time.Duration { return time.Millisecond }
	return client
}

func TestNewClient(t *testing.T) {
	client := NewClient("test-api-key", "https://api.example.com")

	assert.NotNil(t, client)
	assert.Equal(t, "test-api-key", client.apiKey)
	assert.Equal(t, "https://api.example.com", client.baseURL)
	assert.NotNil(t, client.httpClient)
	assert.NotNil(t, client.rateLimiter)
	assert.NotNil(t, client.logger)
}

func TestSetLogger(t *testing.T) {
	client := NewClient("test-api-key", "https://api.example.com")

	core, logs := observer.New(zap.DebugLevel)
	client.SetLogger(zap.New(core))
	client.logger.Debug("search", zap.String("query", "oatmeal"))

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "USDA", entries[0].ContextMap()["component"])
	assert.Equal(t, "oatmeal", entries[0].ContextMap()["query"])

	client.SetLogger(nil)
	assert.NotNil(t, client.logger)
}

func TestExponentialBackoff(t *testing.T) {
	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{1, 500 * time.Millisecond},
		{2, 1000 * time.Millisecond},
		{3, 2000 * time.Millisecond},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, exponentialBackoff(tt.attempt))
	}
}

func TestSearchFoods_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/foods/search", r.URL.Path)
		assert.Equal(t, "oatmeal", r.URL.Query().Get("query"))
		assert.Equal(t, "test-api-key", r.URL.Query().Get("api_key"))

		response := domain.USDASearchResponse{
			Foods: []domain.USDAFood{
				{FdcID: 173904, Description: "Cereals, oats, regular and quick, cooked", DataType: "SR Legacy"},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(response)
	}))
	defer server.Close()

	result, err := newTestClient(server.URL).SearchFoods(context.Background(), "oatmeal")

	require.NoError(t, err)
	require.Len(t, result.Foods, 1)
	assert.Equal(t, 173904, result.Foods[0].FdcID)
}

func TestSearchFoods_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	result, err := newTestClient(server.URL).SearchFoods(context.Background(), "nothing")

	assert.Nil(t, result)
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestSearchFoods_EmptyResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(domain.USDASearchResponse{})
	}))
	defer server.Close()

	result, err := newTestClient(server.URL).SearchFoods(context.Background(), "empty")

	assert.Nil(t, result)
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestSearchFoods_Retries(t *testing.T) {
	tests := []struct {
		name         string
		failStatus   int
		failures     int32
		wantAttempts int32
		wantErr      bool
	}{
		{"server error recovers", http.StatusInternalServerError, 2, 3, false},
		{"too many requests recovers", http.StatusTooManyRequests, 1, 2, false},
		{"client error is not retried", http.StatusBadRequest, 5, 1, true},
		{"all retries fail", http.StatusBadGateway, 5, 3, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var attempts int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if atomic.AddInt32(&attempts, 1) <= tt.failures {
					w.WriteHeader(tt.failStatus)
					return
				}
				json.NewEncoder(w).Encode(domain.USDASearchResponse{
					Foods: []domain.USDAFood{{FdcID: 1, Description: "ok"}},
				})
			}))
			defer server.Close()

			result, err := newTestClient(server.URL).SearchFoods(context.Background(), "retry")

			assert.Equal(t, tt.wantAttempts, atomic.LoadInt32(&attempts))
			if tt.wantErr {
				assert.Nil(t, result)
				assert.ErrorIs(t, err, domain.ErrUSDAAPIFailure)
				return
			}
			require.NoError(t, err)
			assert.Len(t, result.Foods, 1)
		})
	}
}

func TestSearchFoods_InvalidJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("invalid json"))
	}))
	defer server.Close()

	result, err := newTestClient(server.URL).SearchFoods(context.Background(), "bad")

	assert.Nil(t, result)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode response")
}

func TestSearchFoods_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	result, err := newTestClient(server.URL).SearchFoods(ctx, "slow")

	assert.Nil(t, result)
	assert.Error(t, err)
}

func TestSearchFoods_RequestCreationError(t *testing.T) {
	result, err := newTestClient("://invalid-url").SearchFoods(context.Background(), "test")

	assert.Nil(t, result)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "failed to create request"))
}

func TestGetFoodDetails(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v1/food/123456", r.URL.Path)
			json.NewEncoder(w).Encode(domain.USDAFood{
				FdcID:       123456,
				Description: "Detailed Food",
				Nutrients:   []domain.USDANutrient{{NutrientID: NutrientIDProtein, Value: 10.5}},
			})
		}))
		defer server.Close()

		result, err := newTestClient(server.URL).GetFoodDetails(context.Background(), "123456")
		require.NoError(t, err)
		assert.Equal(t, "Detailed Food", result.Description)
		assert.Equal(t, 10.5, FindNutrientValue(result.Nutrients, NutrientIDProtein))
	})

	t.Run("details endpoint nutrient shape", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{
				"fdcId": 2346396,
				"description": "Oats, whole grain, rolled, old fashioned",
				"dataType": "Foundation",
				"foodNutrients": [
					{"nutrient": {"id": 1003, "number": "203", "name": "Protein", "unitName": "g"}, "amount": 13.5},
					{"nutrient": {"id": 2047, "name": "Energy (Atwater General Factors)", "unitName": "kcal"}, "amount": 382},
					{"nutrient": {"id": 1005, "name": "Carbohydrate, by difference", "unitName": "g"}, "amount": 68.7},
					{"type": "FoodNutrient"}
				]
			}`))
		}))
		defer server.Close()

		result, err := newTestClient(server.URL).GetFoodDetails(context.Background(), "2346396")
		require.NoError(t, err)
		assert.Equal(t, 2346396, result.FdcID)
		assert.Equal(t, "Foundation", result.DataType)
		require.Len(t, result.Nutrients, 3)
		assert.Equal(t, "Protein", result.Nutrients[0].NutrientName)
		assert.Equal(t, "g", result.Nutrients[0].UnitName)
		assert.Equal(t, 13.5, FindNutrientValue(result.Nutrients, NutrientIDProtein))
		assert.Equal(t, 382.0, EnergyKcal(result.Nutrients))
	})

	t.Run("not found", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		_, err := newTestClient(server.URL).GetFoodDetails(context.Background(), "1")
		assert.ErrorIs(t, err, domain.ErrProductNotFound)
	})

	t.Run("server error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte("Internal Server Error"))
		}))
		defer server.Close()

		_, err := newTestClient(server.URL).GetFoodDetails(context.Background(), "1")
		assert.ErrorIs(t, err, domain.ErrUSDAAPIFailure)
	})

	t.Run("invalid json", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("not valid json"))
		}))
		defer server.Close()

		_, err := newTestClient(server.URL).GetFoodDetails(context.Background(), "1")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to decode response")
	})
}

func TestReadLimitedBody(t *testing.T) {
	body, err := readLimitedBody(strings.NewReader("short content"), 1000)
	require.NoError(t, err)
	assert.Equal(t, "short content", string(body))

	body, err = readLimitedBody(strings.NewReader(strings.Repeat("0123456789", 100)), 100)
	require.NoError(t, err)
	assert.Len(t, body, 100)
}
