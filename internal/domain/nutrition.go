package domain

import "time"

// CatalogEntry is one raw row of the nutrition source table, in source order.
// Has* flags record which optional fields were present.
type CatalogEntry struct {
	Name            string
	Calories        float64
	Protein         float64
	Carbs           float64
	Fat             float64
	PortionGrams    float64
	PortionDesc     string
	HasPortionGrams bool
	HasPortionDesc  bool
}

// NutritionRecord is an immutable per-100g nutrition reference for one food
type NutritionRecord struct {
	CanonicalName         string  `json:"canonicalName"`
	CaloriesPer100g       float64 `json:"caloriesPer100g"`
	ProteinPer100g        float64 `json:"proteinPer100g"`
	CarbsPer100g          float64 `json:"carbsPer100g"`
	FatPer100g            float64 `json:"fatPer100g"`
	ReferencePortionGrams float64 `json:"referencePortionGrams"`
	PortionDescription    string  `json:"portionDescription"`
}

// MatchTier names the matcher stage that produced a result
type MatchTier string

const (
	TierExact       MatchTier = "exact"
	TierContainment MatchTier = "containment"
	TierFuzzy       MatchTier = "fuzzy"
	TierFallback    MatchTier = "fallback"
)

// MatchResult is the outcome of resolving a free-text query against the catalog.
// Record is never nil: the fallback tier carries a synthetic record.
type MatchResult struct {
	Record          *NutritionRecord `json:"record"`
	MatchConfidence float64          `json:"matchConfidence"`
	Matched         bool             `json:"matched"`
	Tier            MatchTier        `json:"tier"`
	Key             string           `json:"key,omitempty"` // catalog key that was hit
}

// ScaledNutrition is a record scaled to its reference portion
type ScaledNutrition struct {
	Name               string  `json:"name"`
	Calories           int     `json:"calories"`
	Protein            float64 `json:"protein"` // grams, 1 decimal
	Carbs              float64 `json:"carbs"`   // grams, 1 decimal
	Fat                float64 `json:"fat"`     // grams, 1 decimal
	PortionGrams       float64 `json:"portionGrams"`
	PortionDescription string  `json:"portionDescription"`
}

// Label is a single classifier output
type Label struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"` // 0..1
}

// DetectedFood is one accepted food in an analysis
type DetectedFood struct {
	ID                 string  `json:"id"`
	Name               string  `json:"name"`
	Calories           int     `json:"calories"`
	Protein            float64 `json:"protein"`
	Carbs              float64 `json:"carbs"`
	Fat                float64 `json:"fat"`
	PortionGrams       float64 `json:"portionGrams"`
	PortionDescription string  `json:"portionDescription"`
	Confidence         float64 `json:"confidence"`
	Matched            bool    `json:"matched"`
}

// AnalysisResult is the meal-level estimate for one image
type AnalysisResult struct {
	Foods             []DetectedFood `json:"foods"`
	TotalCalories     float64        `json:"totalCalories"`
	TotalProtein      float64        `json:"totalProtein"`
	TotalCarbs        float64        `json:"totalCarbs"`
	TotalFat          float64        `json:"totalFat"`
	OverallConfidence float64        `json:"overallConfidence"`
}

// AnalysisRecord is a stored analysis (history)
type AnalysisRecord struct {
	ID        string         `json:"id"`
	CreatedAt time.Time      `json:"createdAt"`
	Source    string         `json:"source"` // "image" or "labels"
	Result    AnalysisResult `json:"result"`
}
