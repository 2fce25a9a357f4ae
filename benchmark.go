package main

import (
	"context"
	"fmt"
	"time"
)

type Benchmark struct {
	Warmup     int
	Iterations int
	Connector  Connector
}

type TimingResult struct {
	Query   string
	Times   []float64
	Average float64
}

func NewTimingResult(query string, times []float64) TimingResult {
	sum := 0.0
	for _, t := range times {
		sum += t
	}
	average := 0.0
	if len(times) > 0 {
		average = sum / float64(len(times))
	}
	return TimingResult{Query: query, Times: times, Average: average}
}

// runOnce opens a dedicated session for a single execution so that no
// server side session state leaks between timed runs.
func (b *Benchmark) runOnce(ctx context.Context, query Query) (time.Duration, error) {
	var elapsed time.Duration
	err := WithSession(ctx, b.Connector, func(session Session) error {
		start := time.Now()
		rows, err := session.Query(ctx, query.SQL)
		if err != nil {
			return err
		}
		if _, err := DrainRows(rows); err != nil {
			return err
		}
		elapsed = time.Since(start)
		return nil
	})
	return elapsed, err
}

func (b *Benchmark) WarmupQuery(ctx context.Context, query Query) error {
	for i := 0; i < b.Warmup; i++ {
		Logger.Infof("running warmup #%v/%v of %v", i+1, b.Warmup, query.Name)
		if _, err := b.runOnce(ctx, query); err != nil {
			return fmt.Errorf("warmup #%v failed: %w", i, err)
		}
	}
	return nil
}

func (b *Benchmark) RunQuery(ctx context.Context, query Query) (TimingResult, error) {
	times := make([]float64, 0, b.Iterations)
	for i := 0; i < b.Iterations; i++ {
		elapsed, err := b.runOnce(ctx, query)
		if err != nil {
			return TimingResult{}, fmt.Errorf("run #%v failed: %w", i, err)
		}
		times = append(times, elapsed.Seconds())
		Logger.Infof("  iteration %v: %.4f seconds", i+1, elapsed.Seconds())
	}
	return NewTimingResult(query.Name, times), nil
}

// Run executes every query in order. The first failure aborts the run.
func (b *Benchmark) Run(ctx context.Context, queries []Query) ([]TimingResult, error) {
	results := make([]TimingResult, 0, len(queries))
	for _, query := range queries {
		Logger.Infof("running %v...", query.Name)
		if err := b.WarmupQuery(ctx, query); err != nil {
			return nil, fmt.Errorf("failed to warmup query %v: %w", query.Name, err)
		}
		result, err := b.RunQuery(ctx, query)
		if err != nil {
			return nil, fmt.Errorf("failed to run query %v: %w", query.Name, err)
		}
		Logger.Infof("  average time: %.4f seconds", result.Average)
		results = append(results, result)
	}
	return results, nil
}
