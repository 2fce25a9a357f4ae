package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
)

var tripColumns = []string{
	"VendorID",
	"tpep_pickup_datetime",
	"tpep_dropoff_datetime",
	"passenger_count",
	"trip_distance",
	"fare_amount",
	"payment_type",
}

type Clickhouse struct {
	Config ClickhouseConfig
}

type ClickhouseSession struct {
	conn driver.Conn
}

func (c *Clickhouse) Connect(ctx context.Context) (Session, error) {
	return c.connect(ctx)
}

func (c *Clickhouse) connect(ctx context.Context) (*ClickhouseSession, error) {
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr:     []string{c.Config.Addr()},
		Protocol: clickhouse.HTTP,
		Auth: clickhouse.Auth{
			Database: c.Config.Database,
			Username: c.Config.User,
			Password: c.Config.Password,
		},
		DialTimeout:  10 * time.Second,
		MaxOpenConns: 1,
		MaxIdleConns: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open clickhouse %v: %w", c.Config.Addr(), err)
	}
	if err := conn.Ping(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping clickhouse %v: %w", c.Config.Addr(), err)
	}
	return &ClickhouseSession{conn: conn}, nil
}

func (s *ClickhouseSession) Query(ctx context.Context, query string, args ...any) (Rows, error) {
	return s.conn.Query(ctx, query, args...)
}

func (s *ClickhouseSession) Exec(ctx context.Context, query string, args ...any) error {
	return s.conn.Exec(ctx, query, args...)
}

func (s *ClickhouseSession) Close() error {
	return s.conn.Close()
}

func (s *ClickhouseSession) Truncate(ctx context.Context, table string) error {
	return s.conn.Exec(ctx, fmt.Sprintf("TRUNCATE TABLE %v", table))
}

func (s *ClickhouseSession) Insert(ctx context.Context, table string, records []TripRecord) error {
	if len(records) == 0 {
		return nil
	}
	batch, err := s.conn.PrepareBatch(ctx, fmt.Sprintf("INSERT INTO %v (%v)", table, strings.Join(tripColumns, ", ")))
	if err != nil {
		return err
	}
	for _, record := range records {
		err := batch.Append(
			record.VendorID,
			record.PickupAt,
			record.DropoffAt,
			record.PassengerCount,
			record.TripDistance,
			record.FareAmount,
			record.PaymentType,
		)
		if err != nil {
			batch.Abort()
			return err
		}
	}
	return batch.Send()
}
