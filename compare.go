package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/olekukonko/tablewriter"
)

const (
	baselineSuffix  = "_Baseline"
	optimizedSuffix = "_Optimized"
)

var comparisonHeader = []string{
	"query_key",
	"average_time_sec_baseline",
	"average_time_sec_optimized",
	"improvement_percent",
}

type Comparison struct {
	Key         string
	Baseline    float64
	Optimized   float64
	Improvement float64
}

func QueryKey(name, suffix string) string {
	return strings.TrimSuffix(name, suffix)
}

func Improvement(baseline, optimized float64) (float64, error) {
	if baseline == 0 {
		return 0, ErrZeroBaseline
	}
	return (baseline - optimized) / baseline * 100, nil
}

// Compare inner joins baseline and optimized rows on the query key, keeping
// the baseline order. Keys present on one side only are dropped.
func Compare(baseline, optimized []TimingRecord) ([]Comparison, error) {
	byKey := make(map[string][]TimingRecord, len(optimized))
	for _, record := range optimized {
		key := QueryKey(record.Query, optimizedSuffix)
		byKey[key] = append(byKey[key], record)
	}

	matched := make(map[string]bool, len(byKey))
	comparisons := make([]Comparison, 0, len(baseline))
	for _, base := range baseline {
		key := QueryKey(base.Query, baselineSuffix)
		others, ok := byKey[key]
		if !ok {
			Logger.Debugf("query %v has no optimized counterpart, dropped", key)
			continue
		}
		matched[key] = true
		for _, other := range others {
			improvement, err := Improvement(base.Average, other.Average)
			if err != nil {
				return nil, fmt.Errorf("query %v: %w", key, err)
			}
			comparisons = append(comparisons, Comparison{
				Key:         key,
				Baseline:    base.Average,
				Optimized:   other.Average,
				Improvement: improvement,
			})
		}
	}
	for key := range byKey {
		if !matched[key] {
			Logger.Debugf("query %v has no baseline counterpart, dropped", key)
		}
	}
	return comparisons, nil
}

func WriteComparisons(w io.Writer, comparisons []Comparison) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(comparisonHeader); err != nil {
		return err
	}
	for _, c := range comparisons {
		err := writer.Write([]string{c.Key, formatFloat(c.Baseline), formatFloat(c.Optimized), formatFloat(c.Improvement)})
		if err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func PrintComparisons(w io.Writer, comparisons []Comparison) {
	table := tablewriter.NewWriter(w)
	table.SetHeader(comparisonHeader)
	table.SetAutoFormatHeaders(false)
	table.SetAlignment(tablewriter.ALIGN_RIGHT)
	for _, c := range comparisons {
		table.Append([]string{
			c.Key,
			fmt.Sprintf("%.6f", c.Baseline),
			fmt.Sprintf("%.6f", c.Optimized),
			fmt.Sprintf("%.2f", c.Improvement),
		})
	}
	table.Render()
}
