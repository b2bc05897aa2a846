package usda

import (
	"strings"

	"github.com/foodlens/backend/internal/domain"
)

// USDA Nutrient IDs for key macronutrients
const (
	NutrientIDEnergy       = 1008 // Calories (kcal)
	NutrientIDProtein      = 1003 // Protein (g)
	NutrientIDCarbohydrate = 1005 // Carbohydrates (g)
	NutrientIDTotalFat     = 1004 // Total Fat (g)

	// Foundation foods often report energy only as Atwater factors
	NutrientIDEnergyAtwaterGeneral  = 2047
	NutrientIDEnergyAtwaterSpecific = 2048
)

// ToCatalogEntry converts a USDA food into a nutrition table row named name.
// USDA search values are per 100 g, the unit the table uses. Portion fields are
// left unset so the catalog defaults apply unless a portion is given.
func ToCatalogEntry(name string, food *domain.USDAFood, portionGrams float64) domain.CatalogEntry {
	entry := domain.CatalogEntry{
		Name:     catalogKey(name),
		Calories: EnergyKcal(food.Nutrients),
		Protein:  FindNutrientValue(food.Nutrients, NutrientIDProtein),
		Carbs:    FindNutrientValue(food.Nutrients, NutrientIDCarbohydrate),
		Fat:      FindNutrientValue(food.Nutrients, NutrientIDTotalFat),
	}

	if portionGrams > 0 {
		entry.PortionGrams = portionGrams
		entry.HasPortionGrams = true
	}
	return entry
}

// catalogKey turns "Orange Juice" into "orange_juice"
func catalogKey(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), "_")
}

// EnergyKcal returns the energy value, preferring the classic kcal nutrient over
// the Atwater variants. It is 0 when none is present.
func EnergyKcal(nutrients []domain.USDANutrient) float64 {
	for _, id := range []int{NutrientIDEnergy, NutrientIDEnergyAtwaterGeneral, NutrientIDEnergyAtwaterSpecific} {
		if v := FindNutrientValue(nutrients, id); v > 0 {
			return v
		}
	}
	return 0
}

// FindNutrientValue finds a specific nutrient value by ID
func FindNutrientValue(nutrients []domain.USDANutrient, nutrientID int) float64 {
	for _, nutrient := range nutrients {
		if nutrient.NutrientID == nutrientID {
			return nutrient.Value
		}
	}
	return 0.0
}
