package main

import (
	"context"
	"fmt"
	"time"
)

type fakeRows struct {
	rows   [][]any
	pos    int
	closed bool
}

func (r *fakeRows) Next() bool {
	if r.pos >= len(r.rows) {
		return false
	}
	r.pos++
	return true
}

func (r *fakeRows) Scan(dest ...any) error {
	row := r.rows[r.pos-1]
	if len(dest) != len(row) {
		return fmt.Errorf("expected %v destinations, got %v", len(row), len(dest))
	}
	for i, value := range row {
		switch d := dest[i].(type) {
		case *uint32:
			*d = value.(uint32)
		case *float64:
			*d = value.(float64)
		default:
			return fmt.Errorf("unsupported destination %T", dest[i])
		}
	}
	return nil
}

func (r *fakeRows) Err() error { return nil }

func (r *fakeRows) Close() error {
	r.closed = true
	return nil
}

type fakeSession struct {
	connector *fakeConnector
	closed    bool
}

func (s *fakeSession) Query(ctx context.Context, query string, args ...any) (Rows, error) {
	if s.closed {
		return nil, fmt.Errorf("session is closed")
	}
	s.connector.queries = append(s.connector.queries, query)
	if s.connector.delay > 0 {
		time.Sleep(s.connector.delay)
	}
	if err := s.connector.failOn[query]; err != nil {
		return nil, err
	}
	return &fakeRows{rows: s.connector.rows}, nil
}

func (s *fakeSession) Exec(ctx context.Context, query string, args ...any) error {
	s.connector.execs = append(s.connector.execs, query)
	return s.connector.failOn[query]
}

func (s *fakeSession) Close() error {
	s.closed = true
	s.connector.closed++
	return nil
}

// fakeConnector counts the sessions it hands out and records every statement.
type fakeConnector struct {
	rows    [][]any
	failOn  map[string]error
	delay   time.Duration
	opened  int
	closed  int
	queries []string
	execs   []string
}

func (c *fakeConnector) Connect(ctx context.Context) (Session, error) {
	c.opened++
	return &fakeSession{connector: c}, nil
}

type fakeWriter struct {
	events    []string
	rows      map[string][]TripRecord
	failAfter int
}

func newFakeWriter() *fakeWriter {
	return &fakeWriter{rows: make(map[string][]TripRecord)}
}

func (w *fakeWriter) Truncate(ctx context.Context, table string) error {
	w.events = append(w.events, "truncate")
	w.rows[table] = nil
	return nil
}

func (w *fakeWriter) Insert(ctx context.Context, table string, records []TripRecord) error {
	w.events = append(w.events, "insert")
	if w.failAfter > 0 && len(w.rows[table])+len(records) > w.failAfter {
		return fmt.Errorf("insert limit reached")
	}
	w.rows[table] = append(w.rows[table], records...)
	return nil
}

// fakeWriterConnector hands out sessions that also accept inserts.
type fakeWriterConnector struct {
	fakeConnector
	writer *fakeWriter
}

type fakeWriterSession struct {
	*fakeSession
	*fakeWriter
}

func (c *fakeWriterConnector) Connect(ctx context.Context) (Session, error) {
	c.opened++
	return &fakeWriterSession{fakeSession: &fakeSession{connector: &c.fakeConnector}, fakeWriter: c.writer}, nil
}
