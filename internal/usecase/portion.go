package usecase

import (
	"math"

	"github.com/foodlens/backend/internal/domain"
)

// ScalePortion scales a per-100g record to its reference portion.
// Calories round to an integer, macros to one decimal. Rounding is math.Round
// (half away from zero) everywhere.
func ScalePortion(record *domain.NutritionRecord) domain.ScaledNutrition {
	multiplier := record.ReferencePortionGrams / 100

	return domain.ScaledNutrition{
		Name:               record.CanonicalName,
		Calories:           int(math.Round(record.CaloriesPer100g * multiplier)),
		Protein:            roundOneDecimal(record.ProteinPer100g * multiplier),
		Carbs:              roundOneDecimal(record.CarbsPer100g * multiplier),
		Fat:                roundOneDecimal(record.FatPer100g * multiplier),
		PortionGrams:       record.ReferencePortionGrams,
		PortionDescription: record.PortionDescription,
	}
}

func roundOneDecimal(v float64) float64 {
	return math.Round(v*10) / 10
}
