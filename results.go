package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
)

const (
	queryHeader   = "query"
	averageHeader = "average_time_sec"
)

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func TimingHeader(iterations int) []string {
	header := []string{queryHeader}
	for i := 1; i <= iterations; i++ {
		header = append(header, fmt.Sprintf("iteration_%v", i))
	}
	return append(header, averageHeader)
}

func WriteTimingResults(w io.Writer, iterations int, results []TimingResult) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(TimingHeader(iterations)); err != nil {
		return err
	}
	for _, result := range results {
		if len(result.Times) != iterations {
			return fmt.Errorf("query %v has %v timings, expected %v", result.Query, len(result.Times), iterations)
		}
		row := []string{result.Query}
		for _, t := range result.Times {
			row = append(row, formatFloat(t))
		}
		row = append(row, formatFloat(result.Average))
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteCSVFile writes through a callback into path, creating parent dirs.
func WriteCSVFile(path string, write func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(file); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// TimingRecord is the part of a results row the comparator needs.
type TimingRecord struct {
	Query   string
	Average float64
}

func ReadTimingRecords(r io.Reader) ([]TimingRecord, error) {
	reader := csv.NewReader(r)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	queryIdx, averageIdx := -1, -1
	for i, name := range header {
		switch name {
		case queryHeader:
			queryIdx = i
		case averageHeader:
			averageIdx = i
		}
	}
	if queryIdx < 0 {
		return nil, fmt.Errorf("%w %v", ErrMissingColumn, queryHeader)
	}
	if averageIdx < 0 {
		return nil, fmt.Errorf("%w %v", ErrMissingColumn, averageHeader)
	}

	records := make([]TimingRecord, 0)
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		average, err := strconv.ParseFloat(row[averageIdx], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid %v of %v: %w", averageHeader, row[queryIdx], err)
		}
		records = append(records, TimingRecord{Query: row[queryIdx], Average: average})
	}
	return records, nil
}

func ReadTimingFile(path string) ([]TimingRecord, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	records, err := ReadTimingRecords(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read %v: %w", path, err)
	}
	return records, nil
}
