package usecase

import (
	"strings"

	"github.com/foodlens/backend/internal/domain"
)

// maxWidenedLabels caps how many labels are tried when no label looks like food
const maxWidenedLabels = 3

// defaultFoodKeywords are classifier labels that indicate food.
// A label is food-relevant when it contains, or is contained by, any of these.
var defaultFoodKeywords = []string{
	"food", "dish", "meal", "cuisine", "snack", "dessert", "drink", "beverage",
	"fruit", "vegetable", "meat", "bread", "cake", "pizza", "pasta", "rice",
	"soup", "salad", "sandwich", "burger", "hamburger", "hot dog", "sushi",
	"noodle", "seafood", "fish", "chicken", "beef", "pork", "steak",
	"egg", "cheese", "chocolate", "ice cream", "cookie", "pie", "donut",
	"waffle", "pancake", "cereal", "yogurt", "milk", "juice", "coffee", "tea",
	"apple", "banana", "orange", "strawberry", "grape", "watermelon", "lemon",
	"tomato", "potato", "carrot", "broccoli", "corn", "mushroom", "onion",
	"garlic", "pepper", "cucumber", "lettuce", "spinach", "bean", "pea",
	"nut", "almond", "walnut", "peanut", "ramen", "taco", "burrito",
	"falafel", "hummus", "kebab", "curry", "biryani", "dumpling",
	"spaghetti", "lasagna", "ravioli", "gnocchi", "risotto",
	"croissant", "muffin", "baguette", "pretzel", "bagel",
	"produce", "baked goods", "fast food", "ingredient", "recipe",
	// containers often photographed with food
	"tableware", "plate", "bowl", "cup",
}

// defaultNonFoodKeywords exclude a label only on exact match
var defaultNonFoodKeywords = []string{
	"person", "human", "face", "hand", "finger", "animal", "dog", "cat",
	"car", "vehicle", "building", "sky", "cloud", "tree", "flower",
	"computer", "phone", "screen", "text", "logo", "symbol",
	"clothing", "shoe", "bag", "furniture", "chair", "table",
}

// LabelFilter selects the classifier labels worth resolving against the catalog
type LabelFilter struct {
	foodKeywords    []string
	nonFoodKeywords map[string]bool
}

// NewLabelFilter creates a filter with the built-in keyword sets
func NewLabelFilter() *LabelFilter {
	return NewLabelFilterWithKeywords(defaultFoodKeywords, defaultNonFoodKeywords)
}

// NewLabelFilterWithKeywords creates a filter with custom keyword sets
func NewLabelFilterWithKeywords(food, nonFood []string) *LabelFilter {
	f := &LabelFilter{
		foodKeywords:    make([]string, 0, len(food)),
		nonFoodKeywords: make(map[string]bool, len(nonFood)),
	}
	for _, k := range food {
		if k = normalizeQuery(k); k != "" {
			f.foodKeywords = append(f.foodKeywords, k)
		}
	}
	for _, k := range nonFood {
		if k = normalizeQuery(k); k != "" {
			f.nonFoodKeywords[k] = true
		}
	}
	return f
}

// Select returns the labels to analyze, in classifier order.
// Food-relevant labels are preferred; when there are none, the first three labels
// that are not explicit non-food are returned instead. Blank labels never count as
// food but are kept when widening, so they still resolve to the fallback record.
func (f *LabelFilter) Select(labels []domain.Label) []domain.Label {
	var food []domain.Label
	for _, label := range labels {
		text := normalizeQuery(label.Text)
		if text == "" || f.IsNonFood(text) {
			continue
		}
		if f.IsFood(text) {
			food = append(food, label)
		}
	}
	if len(food) > 0 {
		return food
	}

	var widened []domain.Label
	for _, label := range labels {
		if len(widened) == maxWidenedLabels {
			break
		}
		if f.IsNonFood(normalizeQuery(label.Text)) {
			continue
		}
		widened = append(widened, label)
	}
	return widened
}

// IsFood reports whether a normalized label text overlaps a food keyword
func (f *LabelFilter) IsFood(text string) bool {
	for _, keyword := range f.foodKeywords {
		if strings.Contains(text, keyword) || strings.Contains(keyword, text) {
			return true
		}
	}
	return false
}

// IsNonFood reports whether a normalized label text is exactly a non-food keyword
func (f *LabelFilter) IsNonFood(text string) bool {
	return f.nonFoodKeywords[text]
}
