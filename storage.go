package main

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand"
	"slices"
	"sort"
	"strings"
	"time"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
)

// Storage keeps benchmark measurements in a libsql database in addition to
// the CSV files.
type Storage struct {
	URL string
}

func NewRunID(target string) string {
	return fmt.Sprintf("%v-%v-%v", target, time.Now().Unix(), rand.Intn(1000))
}

func (s *Storage) ConnectDb() (*sql.DB, error) {
	return sql.Open("libsql", s.URL)
}

func (s *Storage) InitResultsDb(ctx context.Context, db *sql.DB, run string, meta map[string]any) error {
	_, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS parameters (
		run TEXT,
		name TEXT,
		value TEXT,
		PRIMARY KEY (run, name)
	)`)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS measurements (
		run TEXT,
		target TEXT,
		query TEXT,
		iteration INTEGER,
		value REAL,
		PRIMARY KEY (run, query, iteration)
	)`)
	if err != nil {
		return err
	}

	keys := make([]string, 0, len(meta)+1)
	for key := range meta {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	parameters := []any{run, "time", time.Now().Format("2006-01-02 15:04:05")}
	for _, key := range keys {
		parameters = append(parameters, run, key, fmt.Sprintf("%v", meta[key]))
	}
	placeholders := strings.Join(slices.Repeat([]string{"(?, ?, ?)"}, len(parameters)/3), ", ")
	_, err = db.ExecContext(
		ctx,
		fmt.Sprintf("INSERT INTO parameters VALUES %v ON CONFLICT DO NOTHING", placeholders),
		parameters...,
	)
	if err != nil {
		return err
	}
	Logger.Infof("initialized results database for run %v with meta %v", run, meta)
	return nil
}

func (s *Storage) UpdateBenchmarkDb(ctx context.Context, db *sql.DB, run string, target string, results []TimingResult) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	for _, result := range results {
		for i, value := range result.Times {
			_, err = tx.ExecContext(
				ctx,
				"INSERT INTO measurements VALUES (?, ?, ?, ?, ?)",
				run,
				target,
				result.Query,
				i+1,
				value,
			)
			if err != nil {
				tx.Rollback()
				return err
			}
		}
	}
	return tx.Commit()
}

// Measurements returns the stored timings of a run keyed by query name.
func (s *Storage) Measurements(ctx context.Context, db *sql.DB, run string) (map[string][]float64, error) {
	rows, err := db.QueryContext(ctx, "SELECT query, value FROM measurements WHERE run = ? ORDER BY query, iteration", run)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	results := make(map[string][]float64)
	for rows.Next() {
		var query string
		var value float64
		if err := rows.Scan(&query, &value); err != nil {
			return nil, err
		}
		results[query] = append(results[query], value)
	}
	return results, rows.Err()
}
