// Package catalogfile reads and writes the flat JSON nutrition table.
//
// The table is a single JSON object mapping food names to objects with optional
// numeric fields calories, protein, carbs, fat, portion_g and an optional string
// portion_desc. Entries are returned in document order, which becomes catalog order.
package catalogfile

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/foodlens/backend/internal/domain"
)

//go:embed food_database.json
var defaultTable []byte

// Default returns the entries of the embedded nutrition table
func Default() ([]domain.CatalogEntry, error) {
	return Parse(defaultTable)
}

// Read loads entries from the file at path. An empty path reads the embedded table.
// Errors wrap domain.ErrCatalogLoadFailed.
func Read(path string) ([]domain.CatalogEntry, error) {
	if path == "" {
		return Default()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCatalogLoadFailed, err)
	}
	return Parse(data)
}

// LoadOrEmpty reads the table and degrades to no entries on failure.
// The failure is logged as a warning and never returned.
func LoadOrEmpty(path string, logger *zap.Logger) []domain.CatalogEntry {
	if logger == nil {
		logger = zap.NewNop()
	}

	entries, err := Read(path)
	if err != nil {
		logger.Warn("nutrition table not loaded, continuing with empty catalog",
			zap.String("path", path),
			zap.Error(err))
		return nil
	}

	logger.Info("nutrition table loaded",
		zap.String("path", path),
		zap.Int("entries", len(entries)))
	return entries
}

// Parse decodes a nutrition table. Non-object values are skipped.
func Parse(data []byte) ([]domain.CatalogEntry, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: invalid JSON", domain.ErrCatalogLoadFailed)
	}

	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return nil, fmt.Errorf("%w: top-level value is not an object", domain.ErrCatalogLoadFailed)
	}

	var entries []domain.CatalogEntry
	root.ForEach(func(key, value gjson.Result) bool {
		if !value.IsObject() {
			return true
		}

		entry := domain.CatalogEntry{
			Name:     key.String(),
			Calories: value.Get("calories").Float(),
			Protein:  value.Get("protein").Float(),
			Carbs:    value.Get("carbs").Float(),
			Fat:      value.Get("fat").Float(),
		}
		if portion := value.Get("portion_g"); portion.Exists() {
			entry.PortionGrams = portion.Float()
			entry.HasPortionGrams = true
		}
		if desc := value.Get("portion_desc"); desc.Exists() {
			entry.PortionDesc = desc.String()
			entry.HasPortionDesc = true
		}

		entries = append(entries, entry)
		return true
	})

	return entries, nil
}

// tableRow is the on-disk shape of one entry
type tableRow struct {
	Calories    float64  `json:"calories"`
	Protein     float64  `json:"protein"`
	Carbs       float64  `json:"carbs"`
	Fat         float64  `json:"fat"`
	PortionG    *float64 `json:"portion_g,omitempty"`
	PortionDesc *string  `json:"portion_desc,omitempty"`
}

// Encode writes entries as a JSON object, one entry per line, preserving order
func Encode(entries []domain.CatalogEntry) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("{\n")

	for i, entry := range entries {
		name, err := json.Marshal(entry.Name)
		if err != nil {
			return nil, err
		}

		row := tableRow{
			Calories: entry.Calories,
			Protein:  entry.Protein,
			Carbs:    entry.Carbs,
			Fat:      entry.Fat,
		}
		if entry.HasPortionGrams {
			portion := entry.PortionGrams
			row.PortionG = &portion
		}
		if entry.HasPortionDesc {
			desc := entry.PortionDesc
			row.PortionDesc = &desc
		}

		body, err := json.Marshal(row)
		if err != nil {
			return nil, err
		}

		buf.WriteString("  ")
		buf.Write(name)
		buf.WriteString(": ")
		buf.Write(body)
		if i < len(entries)-1 {
			buf.WriteByte(',')
		}
		buf.WriteByte('\n')
	}

	buf.WriteString("}\n")
	return buf.Bytes(), nil
}

// Merge returns base with updates applied by name. Existing names keep their
// position; new names are appended in update order.
func Merge(base, updates []domain.CatalogEntry) []domain.CatalogEntry {
	index := make(map[string]int, len(base))
	merged := make([]domain.CatalogEntry, 0, len(base)+len(updates))
	for _, entry := range base {
		if i, ok := index[entry.Name]; ok {
			merged[i] = entry
			continue
		}
		index[entry.Name] = len(merged)
		merged = append(merged, entry)
	}

	for _, entry := range updates {
		if i, ok := index[entry.Name]; ok {
			merged[i] = entry
			continue
		}
		index[entry.Name] = len(merged)
		merged = append(merged, entry)
	}
	return merged
}
