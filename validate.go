package main

import (
	"context"
	"fmt"
	"io"
	"math"
)

const validationQueryTemplate = `
WITH
mv AS (
    SELECT
        pickup_month,
        SUM(total_revenue) AS mv_revenue
    FROM %[1]v
    GROUP BY pickup_month
),
raw AS (
    SELECT
        toYYYYMM(tpep_pickup_datetime) AS pickup_month,
        SUM(fare_amount) AS raw_revenue
    FROM %[2]v
    GROUP BY pickup_month
)
SELECT
    mv.pickup_month,
    mv.mv_revenue,
    raw.raw_revenue
FROM mv
INNER JOIN raw USING (pickup_month)
ORDER BY mv.pickup_month
`

type Mismatch struct {
	PickupMonth uint32
	MvRevenue   float64
	RawRevenue  float64
	Diff        float64
}

type Validator struct {
	View      string
	Table     string
	Tolerance float64
	Connector Connector
}

func (v *Validator) Query() string {
	return fmt.Sprintf(validationQueryTemplate, v.View, v.Table)
}

// Validate reconciles the view against a recomputation from raw rows and
// returns the buckets differing by more than the tolerance.
func (v *Validator) Validate(ctx context.Context) ([]Mismatch, error) {
	mismatches := make([]Mismatch, 0)
	err := WithSession(ctx, v.Connector, func(session Session) error {
		rows, err := session.Query(ctx, v.Query())
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var m Mismatch
			if err := rows.Scan(&m.PickupMonth, &m.MvRevenue, &m.RawRevenue); err != nil {
				return err
			}
			m.Diff = math.Abs(m.MvRevenue - m.RawRevenue)
			if m.Diff > v.Tolerance {
				mismatches = append(mismatches, m)
			}
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to run validation query: %w", err)
	}
	return mismatches, nil
}

// Report prints the verdict and returns ErrValidationFailed on mismatches.
func Report(w io.Writer, mismatches []Mismatch) error {
	if len(mismatches) == 0 {
		fmt.Fprintln(w, "Materialized View Validation PASSED")
		fmt.Fprintln(w, "No mismatches found between MV and raw aggregation.")
		return nil
	}
	fmt.Fprintln(w, "Materialized View Validation FAILED")
	fmt.Fprintln(w, "Mismatched rows:")
	for _, m := range mismatches {
		fmt.Fprintf(w, "(%v, %v)\n", m.PickupMonth, formatFloat(m.Diff))
	}
	return fmt.Errorf("%w: %v mismatched months", ErrValidationFailed, len(mismatches))
}
