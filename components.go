package main

import (
	"context"
	"errors"
	"time"
)

var (
	ErrMissingColumn    = errors.New("missing required column")
	ErrZeroBaseline     = errors.New("baseline average time is zero")
	ErrValidationFailed = errors.New("materialized view validation failed")
	ErrUnknownTarget    = errors.New("unknown target")
)

type Query struct {
	Name string
	SQL  string
}

type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close() error
}

// Session is a single database connection. It must not be shared between
// timed benchmark iterations.
type Session interface {
	Query(ctx context.Context, query string, args ...any) (Rows, error)
	Exec(ctx context.Context, query string, args ...any) error
	Close() error
}

type Connector interface {
	Connect(ctx context.Context) (Session, error)
}

// TableWriter is the destination of the loader.
type TableWriter interface {
	Truncate(ctx context.Context, table string) error
	Insert(ctx context.Context, table string, records []TripRecord) error
}

type TripRecord struct {
	VendorID       int64
	PickupAt       time.Time
	DropoffAt      time.Time
	PassengerCount *float64
	TripDistance   float64
	FareAmount     float64
	PaymentType    int64
}

// WithSession acquires a fresh session, runs fn and releases the session
// whatever fn returns.
func WithSession(ctx context.Context, connector Connector, fn func(Session) error) (err error) {
	session, err := connector.Connect(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := session.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()
	return fn(session)
}

// DrainRows reads all rows and returns their count.
func DrainRows(rows Rows) (int, error) {
	count := 0
	for rows.Next() {
		count++
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return 0, err
	}
	return count, rows.Close()
}
