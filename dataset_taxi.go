package main

import (
	"context"
	"fmt"
)

const (
	TargetBaseline  = "baseline"
	TargetOptimized = "optimized"
)

func baselineQueries(tables TablesConfig) []Query {
	return []Query{
		{Name: "Q1_Monthly_Revenue", SQL: fmt.Sprintf(`
        SELECT
            toYYYYMM(tpep_pickup_datetime) AS pickup_month,
            SUM(fare_amount) AS total_revenue
        FROM %v
        GROUP BY pickup_month
        ORDER BY pickup_month`, tables.Baseline)},
		{Name: "Q2_Avg_Trip_Distance_Per_Vendor", SQL: fmt.Sprintf(`
        SELECT
            VendorID,
            AVG(trip_distance) AS avg_trip_distance
        FROM %v
        WHERE trip_distance > 0
        GROUP BY VendorID
        ORDER BY VendorID`, tables.Baseline)},
		{Name: "Q3_Rolling_Avg_Fare", SQL: fmt.Sprintf(`
        SELECT
            VendorID,
            tpep_pickup_datetime,
            fare_amount,
            AVG(fare_amount) OVER (
                PARTITION BY VendorID
                ORDER BY tpep_pickup_datetime
                ROWS BETWEEN 10 PRECEDING AND CURRENT ROW
            ) AS rolling_avg_fare
        FROM %v`, tables.Baseline)},
		{Name: "Q4_High_Value_Trip_Count", SQL: fmt.Sprintf(`
        SELECT
            COUNT(*) AS high_value_trip_count
        FROM %v
        WHERE fare_amount > 50`, tables.Baseline)},
	}
}

func optimizedQueries(tables TablesConfig) []Query {
	return []Query{
		{Name: "Q1_Monthly_Revenue_Optimized", SQL: fmt.Sprintf(`
        SELECT
            pickup_month,
            total_revenue
        FROM %v
        ORDER BY pickup_month`, tables.View)},
		{Name: "Q2_Avg_Trip_Distance_Per_Vendor_Optimized", SQL: fmt.Sprintf(`
        SELECT
            VendorID,
            AVG(trip_distance) AS avg_trip_distance
        FROM %v
        WHERE trip_distance > 0
        GROUP BY VendorID
        ORDER BY VendorID`, tables.Optimized)},
		{Name: "Q3_Rolling_Avg_Fare_Optimized", SQL: fmt.Sprintf(`
        SELECT
            VendorID,
            tpep_pickup_datetime,
            fare_amount,
            AVG(fare_amount) OVER (
                PARTITION BY VendorID
                ORDER BY tpep_pickup_datetime
                ROWS BETWEEN 10 PRECEDING AND CURRENT ROW
            ) AS rolling_avg_fare
        FROM %v`, tables.Optimized)},
		{Name: "Q4_High_Value_Trip_Count_Optimized", SQL: fmt.Sprintf(`
        SELECT
            COUNT(*) AS high_value_trip_count
        FROM %v
        WHERE fare_amount > 50`, tables.Optimized)},
	}
}

type Target struct {
	Name    string
	Table   string
	Queries []Query
}

func ResolveTarget(name string, tables TablesConfig) (Target, error) {
	switch name {
	case TargetBaseline:
		return Target{Name: name, Table: tables.Baseline, Queries: baselineQueries(tables)}, nil
	case TargetOptimized:
		return Target{Name: name, Table: tables.Optimized, Queries: optimizedQueries(tables)}, nil
	}
	return Target{}, fmt.Errorf("%w %q, expected %v or %v", ErrUnknownTarget, name, TargetBaseline, TargetOptimized)
}

func (t Target) ResultsFile() string {
	return fmt.Sprintf("%v_benchmark_results.csv", t.Name)
}

const tripColumnsSql = `
    VendorID Int64,
    tpep_pickup_datetime DateTime,
    tpep_dropoff_datetime DateTime,
    passenger_count Nullable(Float64),
    trip_distance Float64,
    fare_amount Float64,
    payment_type Int64`

func SchemaStatements(database string, tables TablesConfig) []string {
	return []string{
		fmt.Sprintf(`CREATE DATABASE IF NOT EXISTS %v`, database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %v.%v
(%v
)
ENGINE = MergeTree
ORDER BY tuple()`, database, tables.Baseline, tripColumnsSql),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %v.%v
(%v
)
ENGINE = MergeTree
PARTITION BY toYYYYMM(tpep_pickup_datetime)
ORDER BY (VendorID, tpep_pickup_datetime)`, database, tables.Optimized, tripColumnsSql),
		fmt.Sprintf(`CREATE MATERIALIZED VIEW IF NOT EXISTS %[1]v.%[2]v
ENGINE = SummingMergeTree
ORDER BY pickup_month
AS SELECT
    toYYYYMM(tpep_pickup_datetime) AS pickup_month,
    SUM(fare_amount) AS total_revenue
FROM %[1]v.%[3]v
GROUP BY pickup_month`, database, tables.View, tables.Optimized),
	}
}

// Setup creates the database, both trip tables and the revenue view.
func Setup(ctx context.Context, connector Connector, database string, tables TablesConfig) error {
	return WithSession(ctx, connector, func(session Session) error {
		for _, statement := range SchemaStatements(database, tables) {
			Logger.Debugf("executing %v", statement)
			if err := session.Exec(ctx, statement); err != nil {
				return fmt.Errorf("failed to execute schema statement: %w", err)
			}
		}
		Logger.Infof("schema for %v initialized", database)
		return nil
	})
}
