package usecase

import (
	"strings"

	"go.uber.org/zap"

	"github.com/foodlens/backend/internal/domain"
)

// Matcher confidences and thresholds
const (
	catalogMatchConfidence  = 0.9  // exact, containment and fuzzy hits
	fallbackMatchConfidence = 0.3  // no catalog entry accepted
	fuzzyAcceptThreshold    = 0.55 // LCS ratio must be strictly greater
)

// Fallback nutrition used when nothing in the catalog matches
const (
	fallbackCalories     = 200.0
	fallbackProtein      = 10.0
	fallbackCarbs        = 25.0
	fallbackFat          = 8.0
	fallbackPortionGrams = 200.0
	fallbackPortionDesc  = "1 portion (~200g)"
)

// NameMatcher resolves free-text food names against a NutritionCatalog.
// Resolve is a pure function of the query and the catalog.
type NameMatcher struct {
	catalog *NutritionCatalog
	logger  *zap.Logger
}

// NewNameMatcher creates a matcher over catalog. A nil catalog behaves as empty.
func NewNameMatcher(catalog *NutritionCatalog, logger *zap.Logger) *NameMatcher {
	if catalog == nil {
		catalog = NewNutritionCatalog(nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NameMatcher{
		catalog: catalog,
		logger:  logger.With(zap.String("component", "MATCH")),
	}
}

// Resolve finds the best catalog record for rawQuery.
// Tiers are tried in order (exact, containment, fuzzy) and the first hit wins;
// when none hits a synthetic fallback record is returned with Matched=false.
func (m *NameMatcher) Resolve(rawQuery string) domain.MatchResult {
	query := normalizeQuery(rawQuery)
	if query == "" {
		return m.fallback(rawQuery)
	}
	variants := queryVariants(query)

	// 1. Exact
	for _, v := range variants {
		if record, ok := m.catalog.Lookup(v); ok {
			m.logger.Debug("exact match", zap.String("query", query), zap.String("key", v))
			return matched(record, domain.TierExact, v)
		}
	}

	// 2. Containment, first key in catalog order
	for _, key := range m.catalog.keys {
		keyLower := strings.ToLower(key)
		for _, v := range variants {
			if strings.Contains(keyLower, v) || strings.Contains(v, keyLower) {
				record, _ := m.catalog.Lookup(key)
				m.logger.Debug("containment match", zap.String("query", query), zap.String("key", key))
				return matched(record, domain.TierContainment, key)
			}
		}
	}

	// 3. Fuzzy, first-seen key wins ties
	bestKey := ""
	bestScore := 0.0
	for _, key := range m.catalog.keys {
		if score := Similarity(query, key); score > bestScore {
			bestScore = score
			bestKey = key
		}
	}

	if bestKey != "" && bestScore > fuzzyAcceptThreshold {
		record, _ := m.catalog.Lookup(bestKey)
		m.logger.Debug("fuzzy match",
			zap.String("query", query),
			zap.String("key", bestKey),
			zap.Float64("score", bestScore))
		return matched(record, domain.TierFuzzy, bestKey)
	}

	m.logger.Debug("no catalog match",
		zap.String("query", query),
		zap.String("bestKey", bestKey),
		zap.Float64("bestScore", bestScore))
	return m.fallback(rawQuery)
}

func matched(record *domain.NutritionRecord, tier domain.MatchTier, key string) domain.MatchResult {
	return domain.MatchResult{
		Record:          record,
		MatchConfidence: catalogMatchConfidence,
		Matched:         true,
		Tier:            tier,
		Key:             key,
	}
}

// fallback builds the synthetic estimate for an unmatched query
func (m *NameMatcher) fallback(rawQuery string) domain.MatchResult {
	return domain.MatchResult{
		Record: &domain.NutritionRecord{
			CanonicalName:         upperFirst(strings.TrimSpace(rawQuery)),
			CaloriesPer100g:       fallbackCalories * 100 / fallbackPortionGrams,
			ProteinPer100g:        fallbackProtein * 100 / fallbackPortionGrams,
			CarbsPer100g:          fallbackCarbs * 100 / fallbackPortionGrams,
			FatPer100g:            fallbackFat * 100 / fallbackPortionGrams,
			ReferencePortionGrams: fallbackPortionGrams,
			PortionDescription:    fallbackPortionDesc,
		},
		MatchConfidence: fallbackMatchConfidence,
		Matched:         false,
		Tier:            domain.TierFallback,
	}
}

// normalizeQuery lowercases and trims a query
func normalizeQuery(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// queryVariants returns the normalized query, its underscore form and its space form
func queryVariants(query string) []string {
	return []string{
		query,
		strings.ReplaceAll(query, " ", "_"),
		strings.ReplaceAll(query, "_", " "),
	}
}

// Similarity returns the longest-common-subsequence ratio 2*LCS/(len(a)+len(b)),
// computed over runes. It is 0 when either string is empty.
func Similarity(a, b string) float64 {
	ra := []rune(a)
	rb := []rune(b)
	m := len(ra)
	n := len(rb)
	if m == 0 || n == 0 {
		return 0
	}

	return 2 * float64(lcsLength(ra, rb)) / float64(m+n)
}

// lcsLength computes the LCS length using two rolling rows
func lcsLength(a, b []rune) int {
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)

	for i := 1; i <= len(a); i++ {
		curr[0] = 0
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				curr[j] = prev[j-1] + 1
			} else {
				curr[j] = max(prev[j], curr[j-1])
			}
		}
		prev, curr = curr, prev
	}

	return prev[len(b)]
}
