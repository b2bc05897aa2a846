package usecase

import "github.com/foodlens/backend/internal/domain"

// testEntries is a small catalog in a known order
func testEntries() []domain.CatalogEntry {
	return []domain.CatalogEntry{
		{Name: "apple", Calories: 52, Protein: 0.3, Carbs: 14, Fat: 0.2,
			PortionGrams: 182, HasPortionGrams: true, PortionDesc: "1 medium apple", HasPortionDesc: true},
		{Name: "chicken_rice", Calories: 200, Protein: 10, Carbs: 30, Fat: 5,
			PortionGrams: 250, HasPortionGrams: true, PortionDesc: "1 plate", HasPortionDesc: true},
		{Name: "banana", Calories: 89, Protein: 1.1, Carbs: 22.8, Fat: 0.3},
	}
}

func testCatalog() *NutritionCatalog {
	return NewNutritionCatalog(testEntries())
}
