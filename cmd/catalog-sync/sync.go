package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/foodlens/backend/internal/domain"
	"github.com/foodlens/backend/internal/infrastructure/usda"
	"github.com/foodlens/backend/internal/usecase"
)

// syncQuery is one table row to fetch: the catalog name and the USDA search terms
type syncQuery struct {
	Name   string
	Search string
}

// parseQuery accepts "name=search terms" or plain "search terms"
func parseQuery(raw string) (syncQuery, error) {
	name, search, found := strings.Cut(raw, "=")
	if !found {
		search = raw
		name = raw
	}
	name = strings.TrimSpace(name)
	search = strings.TrimSpace(search)
	if name == "" || search == "" {
		return syncQuery{}, fmt.Errorf("%w: query %q", domain.ErrInvalidRequest, raw)
	}
	return syncQuery{Name: name, Search: search}, nil
}

// bestFood picks the search result whose description is most similar to the search terms.
// Earlier results win ties.
func bestFood(search string, foods []domain.USDAFood) *domain.USDAFood {
	var best *domain.USDAFood
	bestScore := -1.0
	target := strings.ToLower(search)
	for i := range foods {
		score := usecase.Similarity(target, strings.ToLower(foods[i].Description))
		if score > bestScore {
			bestScore = score
			best = &foods[i]
		}
	}
	return best
}

// withDetails refetches a search hit that carries no energy value.
// The search hit is kept when the details call fails.
func withDetails(ctx context.Context, client domain.USDAClient, food *domain.USDAFood, logger *zap.Logger) *domain.USDAFood {
	details, err := client.GetFoodDetails(ctx, strconv.Itoa(food.FdcID))
	if err != nil {
		logger.Warn("food details unavailable",
			zap.Int("fdcId", food.FdcID),
			zap.Error(err))
		return food
	}
	if details.Description == "" {
		details.Description = food.Description
	}
	return details
}

// fetchEntries resolves each query against USDA. Queries without results are
// logged and skipped; any other failure aborts.
func fetchEntries(ctx context.Context, client domain.USDAClient, queries []syncQuery, portionGrams float64, logger *zap.Logger) ([]domain.CatalogEntry, error) {
	entries := make([]domain.CatalogEntry, 0, len(queries))

	for _, q := range queries {
		resp, err := client.SearchFoods(ctx, q.Search)
		if errors.Is(err, domain.ErrProductNotFound) {
			logger.Warn("no USDA results", zap.String("name", q.Name), zap.String("search", q.Search))
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("search %q: %w", q.Search, err)
		}

		food := bestFood(q.Search, resp.Foods)
		if food == nil {
			continue
		}
		if usda.EnergyKcal(food.Nutrients) == 0 {
			food = withDetails(ctx, client, food, logger)
		}

		entry := usda.ToCatalogEntry(q.Name, food, portionGrams)
		logger.Info("fetched",
			zap.String("name", entry.Name),
			zap.String("usda", food.Description),
			zap.Int("fdcId", food.FdcID),
			zap.Float64("calories", entry.Calories))
		entries = append(entries, entry)
	}

	return entries, nil
}
