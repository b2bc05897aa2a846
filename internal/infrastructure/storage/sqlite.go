// Package storage keeps a history of completed analyses in SQLite.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/foodlens/backend/internal/domain"
)

const defaultListLimit = 20

// SQLiteStorage implements domain.AnalysisRepository
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens (or creates) the database at dbPath and applies the schema
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// one connection keeps ":memory:" databases shared and serializes writers
	db.SetMaxOpenConns(1)

	storage := &SQLiteStorage{db: db}
	if err := storage.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return storage, nil
}

// Close closes the database
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

func (s *SQLiteStorage) initSchema() error {
	schema := `
    CREATE TABLE IF NOT EXISTS analyses (
        id TEXT PRIMARY KEY,
        created_at TEXT NOT NULL,
        source TEXT NOT NULL,
        total_calories REAL NOT NULL,
        total_protein REAL NOT NULL,
        total_carbs REAL NOT NULL,
        total_fat REAL NOT NULL,
        overall_confidence REAL NOT NULL
    );

    CREATE TABLE IF NOT EXISTS detected_foods (
        seq INTEGER PRIMARY KEY AUTOINCREMENT,
        analysis_id TEXT NOT NULL,
        food_id TEXT NOT NULL,
        name TEXT NOT NULL,
        calories INTEGER NOT NULL,
        protein REAL NOT NULL,
        carbs REAL NOT NULL,
        fat REAL NOT NULL,
        portion_grams REAL NOT NULL,
        portion_desc TEXT NOT NULL,
        confidence REAL NOT NULL,
        matched INTEGER NOT NULL,
        FOREIGN KEY (analysis_id) REFERENCES analyses(id) ON DELETE CASCADE
    );

    CREATE INDEX IF NOT EXISTS idx_analyses_created_at ON analyses(created_at);
    CREATE INDEX IF NOT EXISTS idx_detected_foods_analysis_id ON detected_foods(analysis_id);
    `

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Save stores an analysis and its foods in one transaction
func (s *SQLiteStorage) Save(ctx context.Context, record *domain.AnalysisRecord) error {
	if record == nil || record.ID == "" {
		return domain.ErrInvalidRequest
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	r := record.Result
	_, err = tx.ExecContext(ctx, `
        INSERT INTO analyses (id, created_at, source, total_calories, total_protein, total_carbs, total_fat, overall_confidence)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID, record.CreatedAt.UTC().Format(time.RFC3339Nano), record.Source,
		r.TotalCalories, r.TotalProtein, r.TotalCarbs, r.TotalFat, r.OverallConfidence)
	if err != nil {
		return fmt.Errorf("failed to insert analysis: %w", err)
	}

	for _, food := range r.Foods {
		_, err = tx.ExecContext(ctx, `
            INSERT INTO detected_foods (analysis_id, food_id, name, calories, protein, carbs, fat, portion_grams, portion_desc, confidence, matched)
            VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			record.ID, food.ID, food.Name, food.Calories, food.Protein, food.Carbs, food.Fat,
			food.PortionGrams, food.PortionDescription, food.Confidence, food.Matched)
		if err != nil {
			return fmt.Errorf("failed to insert food: %w", err)
		}
	}

	return tx.Commit()
}

// List returns the most recent analyses, newest first
func (s *SQLiteStorage) List(ctx context.Context, limit int) ([]domain.AnalysisRecord, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	rows, err := s.db.QueryContext(ctx, `
        SELECT id, created_at, source, total_calories, total_protein, total_carbs, total_fat, overall_confidence
        FROM analyses
        ORDER BY created_at DESC, id
        LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query analyses: %w", err)
	}

	var records []domain.AnalysisRecord
	for rows.Next() {
		var rec domain.AnalysisRecord
		var createdAt string
		err := rows.Scan(&rec.ID, &createdAt, &rec.Source,
			&rec.Result.TotalCalories, &rec.Result.TotalProtein, &rec.Result.TotalCarbs,
			&rec.Result.TotalFat, &rec.Result.OverallConfidence)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan analysis: %w", err)
		}
		if rec.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to parse created_at: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("failed to iterate analyses: %w", err)
	}
	rows.Close()

	// foods are loaded after the cursor is closed: the pool has a single connection
	for i := range records {
		foods, err := s.loadFoods(ctx, records[i].ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load foods for analysis %s: %w", records[i].ID, err)
		}
		records[i].Result.Foods = foods
	}

	return records, nil
}

func (s *SQLiteStorage) loadFoods(ctx context.Context, analysisID string) ([]domain.DetectedFood, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT food_id, name, calories, protein, carbs, fat, portion_grams, portion_desc, confidence, matched
        FROM detected_foods
        WHERE analysis_id = ?
        ORDER BY seq`, analysisID)
	if err != nil {
		return nil, fmt.Errorf("failed to query foods: %w", err)
	}
	defer rows.Close()

	foods := []domain.DetectedFood{}
	for rows.Next() {
		var food domain.DetectedFood
		err := rows.Scan(&food.ID, &food.Name, &food.Calories, &food.Protein, &food.Carbs,
			&food.Fat, &food.PortionGrams, &food.PortionDescription, &food.Confidence, &food.Matched)
		if err != nil {
			return nil, fmt.Errorf("failed to scan food: %w", err)
		}
		foods = append(foods, food)
	}
	return foods, rows.Err()
}
