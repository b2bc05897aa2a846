package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foodlens/backend/internal/domain"
)

func newTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()
	s, err := NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleRecord(id string, at time.Time) *domain.AnalysisRecord {
	return &domain.AnalysisRecord{
		ID:        id,
		CreatedAt: at,
		Source:    "labels",
		Result: domain.AnalysisResult{
			Foods: []domain.DetectedFood{
				{ID: id + "-1", Name: "Plov", Calories: 630, Protein: 19.3, Carbs: 87.5, Fat: 24.5,
					PortionGrams: 350, PortionDescription: "1 plate (~350g)", Confidence: 0.85, Matched: true},
				{ID: id + "-2", Name: "Tea", Calories: 4, Protein: 0, Carbs: 1, Fat: 0,
					PortionGrams: 200, PortionDescription: "1 glass (~200ml)", Confidence: 0.7, Matched: true},
			},
			TotalCalories:     634,
			TotalProtein:      19.3,
			TotalCarbs:        88.5,
			TotalFat:          24.5,
			OverallConfidence: 0.775,
		},
	}
}

func TestSQLiteStorage_SaveAndList(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, s.Save(ctx, sampleRecord("a1", base)))
	require.NoError(t, s.Save(ctx, sampleRecord("a2", base.Add(time.Minute))))

	records, err := s.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "a2", records[0].ID, "newest first")
	assert.Equal(t, "a1", records[1].ID)
	assert.True(t, records[1].CreatedAt.Equal(base))

	want := sampleRecord("a1", base).Result
	assert.Equal(t, want, records[1].Result)
}

func TestSQLiteStorage_ListLimit(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i, id := range []string{"a", "b", "c"} {
		require.NoError(t, s.Save(ctx, sampleRecord(id, base.Add(time.Duration(i)*time.Second))))
	}

	records, err := s.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "c", records[0].ID)
	assert.Equal(t, "b", records[1].ID)
}

func TestSQLiteStorage_SaveRejectsInvalid(t *testing.T) {
	s := newTestStorage(t)

	assert.ErrorIs(t, s.Save(context.Background(), nil), domain.ErrInvalidRequest)
	assert.ErrorIs(t, s.Save(context.Background(), &domain.AnalysisRecord{}), domain.ErrInvalidRequest)
}

func TestSQLiteStorage_DuplicateIDRollsBack(t *testing.T) {
	s := newTestStorage(t)
	ctx := context.Background()
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, s.Save(ctx, sampleRecord("dup", at)))
	assert.Error(t, s.Save(ctx, sampleRecord("dup", at)))

	records, err := s.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Len(t, records[0].Result.Foods, 2)
}

func TestSQLiteStorage_EmptyList(t *testing.T) {
	s := newTestStorage(t)

	records, err := s.List(context.Background(), 5)
	require.NoError(t, err)
	assert.Empty(t, records)
}
