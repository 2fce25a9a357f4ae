package main

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// The results schema is plain SQL, so an in-process duckdb stands in for a
// libsql server here.
func openResultsDb(t *testing.T) *sql.DB {
	t.Helper()
	db, err := OpenDuckDB("")
	require.Nil(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestNewRunID(t *testing.T) {
	run := NewRunID(TargetBaseline)
	require.True(t, strings.HasPrefix(run, "baseline-"))
	require.Len(t, strings.Split(run, "-"), 3)
}

func TestStorageRoundTrip(t *testing.T) {
	ctx := context.Background()
	db := openResultsDb(t)
	storage := &Storage{}

	meta := map[string]any{"target": TargetOptimized, "iterations": 2}
	require.Nil(t, storage.InitResultsDb(ctx, db, "run-1", meta))
	require.Nil(t, storage.InitResultsDb(ctx, db, "run-1", meta))

	results := []TimingResult{
		NewTimingResult("Q1_Monthly_Revenue_Optimized", []float64{0.5, 0.25}),
		NewTimingResult("Q4_High_Value_Trip_Count_Optimized", []float64{1, 2}),
	}
	require.Nil(t, storage.UpdateBenchmarkDb(ctx, db, "run-1", TargetOptimized, results))
	require.Nil(t, storage.UpdateBenchmarkDb(ctx, db, "run-2", TargetOptimized, results[:1]))

	measurements, err := storage.Measurements(ctx, db, "run-1")
	require.Nil(t, err)
	require.Equal(t, map[string][]float64{
		"Q1_Monthly_Revenue_Optimized":       {0.5, 0.25},
		"Q4_High_Value_Trip_Count_Optimized": {1, 2},
	}, measurements)

	var value string
	err = db.QueryRow("SELECT value FROM parameters WHERE run = ? AND name = ?", "run-1", "iterations").Scan(&value)
	require.Nil(t, err)
	require.Equal(t, "2", value)

	var count int
	require.Nil(t, db.QueryRow("SELECT COUNT(*) FROM parameters WHERE run = ?", "run-1").Scan(&count))
	require.Equal(t, 3, count)
}

func TestStorageDuplicateMeasurementRollsBack(t *testing.T) {
	ctx := context.Background()
	db := openResultsDb(t)
	storage := &Storage{}
	require.Nil(t, storage.InitResultsDb(ctx, db, "run-1", nil))

	results := []TimingResult{NewTimingResult("Q1", []float64{0.5})}
	require.Nil(t, storage.UpdateBenchmarkDb(ctx, db, "run-1", TargetBaseline, results))

	duplicate := []TimingResult{
		NewTimingResult("Q2", []float64{0.75}),
		NewTimingResult("Q1", []float64{0.25}),
	}
	require.Error(t, storage.UpdateBenchmarkDb(ctx, db, "run-1", TargetBaseline, duplicate))

	measurements, err := storage.Measurements(ctx, db, "run-1")
	require.Nil(t, err)
	require.Equal(t, map[string][]float64{"Q1": {0.5}}, measurements)
}
