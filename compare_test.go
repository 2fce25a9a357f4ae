package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestQueryKey(t *testing.T) {
	require.Equal(t, "Q1_Monthly_Revenue", QueryKey("Q1_Monthly_Revenue_Optimized", optimizedSuffix))
	require.Equal(t, "Q1_Monthly_Revenue", QueryKey("Q1_Monthly_Revenue", baselineSuffix))
	require.Equal(t, "Q1_Monthly_Revenue", QueryKey("Q1_Monthly_Revenue_Baseline", baselineSuffix))
	require.Equal(t, "Q_Optimized_Q", QueryKey("Q_Optimized_Q", optimizedSuffix))
}

func TestImprovement(t *testing.T) {
	improvement, err := Improvement(2.0, 1.0)
	require.Nil(t, err)
	require.InDelta(t, 50.0, improvement, 1e-9)

	improvement, err = Improvement(1.0, 1.5)
	require.Nil(t, err)
	require.InDelta(t, -50.0, improvement, 1e-9)

	_, err = Improvement(0, 1.0)
	require.ErrorIs(t, err, ErrZeroBaseline)
}

func TestCompare(t *testing.T) {
	baseline := []TimingRecord{
		{Query: "Q1_Monthly_Revenue", Average: 2.0},
		{Query: "Q2_Only_Baseline", Average: 1.0},
		{Query: "Q3_Rolling_Avg_Fare", Average: 4.0},
	}
	optimized := []TimingRecord{
		{Query: "Q3_Rolling_Avg_Fare_Optimized", Average: 5.0},
		{Query: "Q1_Monthly_Revenue_Optimized", Average: 1.0},
		{Query: "Q4_Only_Optimized_Optimized", Average: 1.0},
	}

	comparisons, err := Compare(baseline, optimized)
	require.Nil(t, err)
	require.Len(t, comparisons, 2)

	require.Equal(t, "Q1_Monthly_Revenue", comparisons[0].Key)
	require.Equal(t, 2.0, comparisons[0].Baseline)
	require.Equal(t, 1.0, comparisons[0].Optimized)
	require.InDelta(t, 50.0, comparisons[0].Improvement, 1e-9)

	require.Equal(t, "Q3_Rolling_Avg_Fare", comparisons[1].Key)
	require.InDelta(t, -25.0, comparisons[1].Improvement, 1e-9)
}

func TestCompareZeroBaseline(t *testing.T) {
	_, err := Compare(
		[]TimingRecord{{Query: "Q1", Average: 0}},
		[]TimingRecord{{Query: "Q1_Optimized", Average: 1}},
	)
	require.ErrorIs(t, err, ErrZeroBaseline)
	require.Contains(t, err.Error(), "Q1")
}

func TestCompareNoOverlap(t *testing.T) {
	comparisons, err := Compare(
		[]TimingRecord{{Query: "Q1", Average: 1}},
		[]TimingRecord{{Query: "Q2_Optimized", Average: 1}},
	)
	require.Nil(t, err)
	require.Empty(t, comparisons)
}

func TestWriteComparisons(t *testing.T) {
	var buf bytes.Buffer
	err := WriteComparisons(&buf, []Comparison{{Key: "Q1", Baseline: 2, Optimized: 1, Improvement: 50}})
	require.Nil(t, err)
	require.Equal(t,
		"query_key,average_time_sec_baseline,average_time_sec_optimized,improvement_percent\nQ1,2,1,50\n",
		buf.String(),
	)
}

func TestPrintComparisons(t *testing.T) {
	var buf bytes.Buffer
	PrintComparisons(&buf, []Comparison{{Key: "Q1_Monthly_Revenue", Baseline: 2, Optimized: 1, Improvement: 50}})
	out := buf.String()
	require.Contains(t, out, "query_key")
	require.Contains(t, out, "Q1_Monthly_Revenue")
	require.Contains(t, out, "50.00")
}

func TestSystemCompare(t *testing.T) {
	dir := t.TempDir()
	config := DefaultConfig()
	config.ResultsDir = dir

	baseline := "query,iteration_1,iteration_2,iteration_3,average_time_sec\nQ1_Monthly_Revenue,1,2,3,2\n"
	optimized := "query,iteration_1,iteration_2,iteration_3,average_time_sec\nQ1_Monthly_Revenue_Optimized,1,1,1,1\n"
	require.Nil(t, os.WriteFile(filepath.Join(dir, "baseline_benchmark_results.csv"), []byte(baseline), 0o644))
	require.Nil(t, os.WriteFile(filepath.Join(dir, "optimized_benchmark_results.csv"), []byte(optimized), 0o644))

	var stdout bytes.Buffer
	system := &System{config: config, stdout: &stdout}
	comparisons, err := system.Compare()
	require.Nil(t, err)
	require.Len(t, comparisons, 1)
	require.InDelta(t, 50.0, comparisons[0].Improvement, 1e-9)

	content, err := os.ReadFile(filepath.Join(dir, "performance_comparison.csv"))
	require.Nil(t, err)
	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	require.Equal(t, []string{
		"query_key,average_time_sec_baseline,average_time_sec_optimized,improvement_percent",
		"Q1_Monthly_Revenue,2,1,50",
	}, lines)
	require.Contains(t, stdout.String(), "Performance Comparison (Baseline vs Optimized):")
}

func TestSystemCompareMissingFile(t *testing.T) {
	config := DefaultConfig()
	config.ResultsDir = t.TempDir()
	system := &System{config: config, stdout: &bytes.Buffer{}}
	_, err := system.Compare()
	require.ErrorIs(t, err, os.ErrNotExist)
}
