package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/foodlens/backend/internal/domain"
)

func TestScalePortion(t *testing.T) {
	t.Run("scales to reference portion with rounding", func(t *testing.T) {
		scaled := ScalePortion(&domain.NutritionRecord{
			CanonicalName:         "Apple",
			CaloriesPer100g:       52,
			ProteinPer100g:        0.3,
			CarbsPer100g:          14,
			FatPer100g:            0.2,
			ReferencePortionGrams: 182,
			PortionDescription:    "1 medium apple",
		})

		assert.Equal(t, "Apple", scaled.Name)
		assert.Equal(t, 95, scaled.Calories)
		assert.Equal(t, 0.5, scaled.Protein)
		assert.Equal(t, 25.5, scaled.Carbs)
		assert.Equal(t, 0.4, scaled.Fat)
		assert.Equal(t, 182.0, scaled.PortionGrams)
		assert.Equal(t, "1 medium apple", scaled.PortionDescription)
	})

	t.Run("halves round away from zero", func(t *testing.T) {
		scaled := ScalePortion(&domain.NutritionRecord{
			CaloriesPer100g:       12.5,
			ProteinPer100g:        0.25,
			ReferencePortionGrams: 100,
		})
		assert.Equal(t, 13, scaled.Calories)
		assert.Equal(t, 0.3, scaled.Protein)
	})

	t.Run("chicken rice plate", func(t *testing.T) {
		record, ok := testCatalog().Lookup("chicken_rice")
		if !assert.True(t, ok) {
			return
		}
		scaled := ScalePortion(record)
		assert.Equal(t, 500, scaled.Calories)
		assert.Equal(t, 25.0, scaled.Protein)
		assert.Equal(t, 75.0, scaled.Carbs)
		assert.Equal(t, 12.5, scaled.Fat)
	})
}
