package main

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"

	_ "github.com/duckdb/duckdb-go/v2"
)

type DuckDBLoader struct {
	DataPath string
	Table    string
}

func (d *DuckDBLoader) createSql() string {
	pattern := filepath.ToSlash(filepath.Join(d.DataPath, "*"+parquetExt))
	return fmt.Sprintf(
		"CREATE TABLE %v AS SELECT %v FROM read_parquet('%v')",
		d.Table,
		strings.Join(tripColumns, ", "),
		strings.ReplaceAll(pattern, "'", "''"),
	)
}

// Load drops and recreates the table from the parquet files and returns the
// resulting row count.
func (d *DuckDBLoader) Load(ctx context.Context, db *sql.DB) (int64, error) {
	if _, err := db.ExecContext(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %v", d.Table)); err != nil {
		return 0, fmt.Errorf("failed to drop table %v: %w", d.Table, err)
	}
	if _, err := db.ExecContext(ctx, d.createSql()); err != nil {
		return 0, fmt.Errorf("failed to create table %v from %v: %w", d.Table, d.DataPath, err)
	}
	var count int64
	if err := db.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %v", d.Table)).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count rows of %v: %w", d.Table, err)
	}
	Logger.Infof("duckdb table %v recreated with %v rows", d.Table, count)
	return count, nil
}

func OpenDuckDB(path string) (*sql.DB, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open duckdb %v: %w", path, err)
	}
	return db, nil
}
