package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const parquetExt = ".parquet"

type Loader struct {
	DataPath string
	Table    string
	Writer   TableWriter
}

// ParquetFiles lists parquet files of dir in name order.
func ParquetFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	files := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), parquetExt) {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	return files, nil
}

// Load clears the destination table and appends every parquet file of the
// data directory into it. There is no rollback: a failure leaves the rows of
// already loaded files in place.
func (l *Loader) Load(ctx context.Context) (int, error) {
	files, err := ParquetFiles(l.DataPath)
	if err != nil {
		return 0, fmt.Errorf("failed to list parquet files in %v: %w", l.DataPath, err)
	}

	if err := l.Writer.Truncate(ctx, l.Table); err != nil {
		return 0, fmt.Errorf("failed to truncate table %v: %w", l.Table, err)
	}
	Logger.Infof("table %v truncated", l.Table)

	total := 0
	for _, path := range files {
		Logger.Infof("loading file %v", path)
		rows, err := ReadTrips(ctx, path, func(trips []TripRecord) error {
			if err := l.Writer.Insert(ctx, l.Table, trips); err != nil {
				return fmt.Errorf("failed to insert into %v: %w", l.Table, err)
			}
			return nil
		})
		total += rows
		if err != nil {
			return total, err
		}
		Logger.Debugf("loaded %v rows from %v", rows, path)
	}

	Logger.Infof("table %v loaded with %v rows", l.Table, total)
	return total, nil
}
