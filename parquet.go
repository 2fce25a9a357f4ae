package main

import (
	"context"
	"fmt"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
)

const parquetBatchSize = 64 * 1024

// ReadTrips streams a parquet file as batches of trip records projected to
// tripColumns. Columns absent from the file fail the read before any batch
// is emitted.
func ReadTrips(ctx context.Context, path string, emit func([]TripRecord) error) (int, error) {
	reader, err := file.OpenParquetFile(path, false)
	if err != nil {
		return 0, fmt.Errorf("failed to open parquet file %v: %w", path, err)
	}
	defer reader.Close()

	indices := make([]int, 0, len(tripColumns))
	for _, column := range tripColumns {
		idx := reader.MetaData().Schema.ColumnIndexByName(column)
		if idx < 0 {
			return 0, fmt.Errorf("%w %v in %v", ErrMissingColumn, column, path)
		}
		indices = append(indices, idx)
	}

	arrowReader, err := pqarrow.NewFileReader(
		reader,
		pqarrow.ArrowReadProperties{BatchSize: parquetBatchSize},
		memory.DefaultAllocator,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to read parquet file %v: %w", path, err)
	}
	records, err := arrowReader.GetRecordReader(ctx, indices, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to read parquet file %v: %w", path, err)
	}
	defer records.Release()

	total := 0
	for records.Next() {
		trips, err := tripsFromRecord(records.Record())
		if err != nil {
			return total, fmt.Errorf("failed to convert %v: %w", path, err)
		}
		if err := emit(trips); err != nil {
			return total, err
		}
		total += len(trips)
	}
	if err := records.Err(); err != nil {
		return total, fmt.Errorf("failed to read parquet file %v: %w", path, err)
	}
	return total, nil
}

func tripsFromRecord(record arrow.Record) ([]TripRecord, error) {
	columns := make([]arrow.Array, len(tripColumns))
	for i, name := range tripColumns {
		idx := record.Schema().FieldIndices(name)
		if len(idx) == 0 {
			return nil, fmt.Errorf("%w %v", ErrMissingColumn, name)
		}
		columns[i] = record.Column(idx[0])
	}

	trips := make([]TripRecord, record.NumRows())
	for row := range trips {
		var err error
		trip := &trips[row]
		if trip.VendorID, err = int64At(columns[0], row); err != nil {
			return nil, fmt.Errorf("%v: %w", tripColumns[0], err)
		}
		if trip.PickupAt, err = timeAt(columns[1], row); err != nil {
			return nil, fmt.Errorf("%v: %w", tripColumns[1], err)
		}
		if trip.DropoffAt, err = timeAt(columns[2], row); err != nil {
			return nil, fmt.Errorf("%v: %w", tripColumns[2], err)
		}
		if !columns[3].IsNull(row) {
			count, err := float64At(columns[3], row)
			if err != nil {
				return nil, fmt.Errorf("%v: %w", tripColumns[3], err)
			}
			trip.PassengerCount = &count
		}
		if trip.TripDistance, err = float64At(columns[4], row); err != nil {
			return nil, fmt.Errorf("%v: %w", tripColumns[4], err)
		}
		if trip.FareAmount, err = float64At(columns[5], row); err != nil {
			return nil, fmt.Errorf("%v: %w", tripColumns[5], err)
		}
		if trip.PaymentType, err = int64At(columns[6], row); err != nil {
			return nil, fmt.Errorf("%v: %w", tripColumns[6], err)
		}
	}
	return trips, nil
}

// Null values of non-nullable columns are read as zero.
func int64At(column arrow.Array, row int) (int64, error) {
	if column.IsNull(row) {
		return 0, nil
	}
	switch c := column.(type) {
	case *array.Int8:
		return int64(c.Value(row)), nil
	case *array.Int16:
		return int64(c.Value(row)), nil
	case *array.Int32:
		return int64(c.Value(row)), nil
	case *array.Int64:
		return c.Value(row), nil
	case *array.Uint8:
		return int64(c.Value(row)), nil
	case *array.Uint16:
		return int64(c.Value(row)), nil
	case *array.Uint32:
		return int64(c.Value(row)), nil
	case *array.Uint64:
		return int64(c.Value(row)), nil
	case *array.Float32:
		return int64(c.Value(row)), nil
	case *array.Float64:
		return int64(c.Value(row)), nil
	}
	return 0, fmt.Errorf("unsupported integer type %v", column.DataType())
}

func float64At(column arrow.Array, row int) (float64, error) {
	if column.IsNull(row) {
		return 0, nil
	}
	switch c := column.(type) {
	case *array.Float32:
		return float64(c.Value(row)), nil
	case *array.Float64:
		return c.Value(row), nil
	case *array.Int32:
		return float64(c.Value(row)), nil
	case *array.Int64:
		return float64(c.Value(row)), nil
	}
	return 0, fmt.Errorf("unsupported float type %v", column.DataType())
}

func timeAt(column arrow.Array, row int) (time.Time, error) {
	if column.IsNull(row) {
		return time.Time{}, nil
	}
	switch c := column.(type) {
	case *array.Timestamp:
		unit := c.DataType().(*arrow.TimestampType).Unit
		return c.Value(row).ToTime(unit), nil
	case *array.Date32:
		return c.Value(row).ToTime(), nil
	case *array.Date64:
		return c.Value(row).ToTime(), nil
	}
	return time.Time{}, fmt.Errorf("unsupported timestamp type %v", column.DataType())
}
