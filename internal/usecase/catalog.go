package usecase

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/foodlens/backend/internal/domain"
)

// Catalog defaults for fields missing from the source table
const (
	defaultPortionGrams = 200.0
	defaultPortionDesc  = "1 portion"
)

// NutritionCatalog is a read-only index of nutrition records keyed by normalized name.
// It is built once and safe for concurrent readers.
type NutritionCatalog struct {
	records map[string]*domain.NutritionRecord
	keys    []string
	count   int
}

// NewNutritionCatalog builds a catalog from source entries.
// Each entry is registered under its original key plus lowercase, underscore and space
// variants. All variants point to the same record. Later entries overwrite earlier ones
// on key collision, but a key keeps its first position in AllKeys.
func NewNutritionCatalog(entries []domain.CatalogEntry) *NutritionCatalog {
	c := &NutritionCatalog{
		records: make(map[string]*domain.NutritionRecord, len(entries)*2),
	}

	for _, entry := range entries {
		record := newRecord(entry)
		c.count++

		for _, key := range keyVariants(entry.Name) {
			if _, exists := c.records[key]; !exists {
				c.keys = append(c.keys, key)
			}
			c.records[key] = record
		}
	}

	return c
}

// newRecord applies source defaults to a raw entry
func newRecord(entry domain.CatalogEntry) *domain.NutritionRecord {
	portion := entry.PortionGrams
	if !entry.HasPortionGrams || portion <= 0 {
		portion = defaultPortionGrams
	}

	desc := entry.PortionDesc
	if !entry.HasPortionDesc || desc == "" {
		desc = defaultPortionDesc
	}

	return &domain.NutritionRecord{
		CanonicalName:         displayName(entry.Name),
		CaloriesPer100g:       nonNegative(entry.Calories),
		ProteinPer100g:        nonNegative(entry.Protein),
		CarbsPer100g:          nonNegative(entry.Carbs),
		FatPer100g:            nonNegative(entry.Fat),
		ReferencePortionGrams: portion,
		PortionDescription:    desc,
	}
}

// keyVariants returns the distinct catalog keys for a source name, in registration order
func keyVariants(name string) []string {
	lower := strings.ToLower(name)
	candidates := []string{
		name,
		lower,
		strings.ReplaceAll(lower, " ", "_"),
		strings.ReplaceAll(lower, "_", " "),
	}

	variants := make([]string, 0, len(candidates))
	seen := make(map[string]bool, len(candidates))
	for _, v := range candidates {
		if seen[v] {
			continue
		}
		seen[v] = true
		variants = append(variants, v)
	}
	return variants
}

// displayName turns "chicken_rice" into "Chicken Rice"
func displayName(name string) string {
	words := strings.Split(strings.ReplaceAll(name, "_", " "), " ")
	for i, w := range words {
		words[i] = upperFirst(w)
	}
	return strings.Join(words, " ")
}

// upperFirst upper-cases the first rune and leaves the rest untouched
func upperFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

func nonNegative(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}

// Lookup returns the record registered under key
func (c *NutritionCatalog) Lookup(key string) (*domain.NutritionRecord, bool) {
	record, ok := c.records[key]
	return record, ok
}

// AllKeys returns every distinct key in first-insertion order
func (c *NutritionCatalog) AllKeys() []string {
	out := make([]string, len(c.keys))
	copy(out, c.keys)
	return out
}

// Len returns the number of source entries the catalog was built from
func (c *NutritionCatalog) Len() int {
	return c.count
}

// Size returns the number of registered keys
func (c *NutritionCatalog) Size() int {
	return len(c.keys)
}

// IsEmpty reports whether the catalog has no entries (e.g. the table failed to load)
func (c *NutritionCatalog) IsEmpty() bool {
	return len(c.keys) == 0
}
