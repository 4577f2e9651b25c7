package sink

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"route-optimization-service/internal/domain"
	"route-optimization-service/internal/platform/db"
	"route-optimization-service/internal/platform/obs"
)

// Stores results in the optimization_results table.
type SQLResultSink struct {
	DB      *sql.DB
	Dialect db.Dialect
}

func NewSQLResultSink(conn *sql.DB, dialect db.Dialect) *SQLResultSink {
	return &SQLResultSink{DB: conn, Dialect: dialect}
}

func (s *SQLResultSink) SaveResult(ctx context.Context, result *domain.OptimizationResult) (err error) {
	defer obs.Time(ctx, "sink.sql.SaveResult")(&err)

	if s.DB == nil {
		return errors.New("sql result sink: DB is nil")
	}

	payload, err := marshalResult(result)
	if err != nil {
		return fmt.Errorf("save result: %w", err)
	}

	q := db.Rebind(s.Dialect, `
	INSERT INTO optimization_results (
		result_id,
		driver_id,
		strategy,
		stop_count,
		total_distance_km,
		total_duration_minutes,
		naive_distance_km,
		estimated_cost,
		savings_percent,
		distance_source,
		degraded,
		payload,
		created_at
	)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (result_id) DO NOTHING;
	`)

	_, err = s.DB.ExecContext(ctx, q,
		result.ID,
		result.DriverID,
		result.Strategy,
		len(result.Stops),
		result.TotalDistanceKm,
		result.TotalDurationMinutes,
		result.NaiveDistanceKm,
		result.EstimatedCost,
		result.SavingsPercent,
		result.DistanceSource,
		result.Degraded,
		string(payload),
		result.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("save result: insert result_id=%q: %w", result.ID, err)
	}

	return nil
}
