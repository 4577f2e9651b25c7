package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"route-optimization-service/internal/domain"
	"route-optimization-service/internal/platform/db"
	"strings"
)

// Initialize the database schema. The DDL is valid for both sqlite and postgres.
func InitSchema(ctx context.Context, conn *sql.DB) error {
	if conn == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	createDeliveriesQuery := `
	CREATE TABLE IF NOT EXISTS deliveries (
		delivery_id TEXT PRIMARY KEY,
		status TEXT NOT NULL,
		pickup_lat DOUBLE PRECISION NOT NULL,
		pickup_lng DOUBLE PRECISION NOT NULL,
		pickup_address TEXT NOT NULL DEFAULT '',
		dropoff_lat DOUBLE PRECISION NOT NULL,
		dropoff_lng DOUBLE PRECISION NOT NULL,
		dropoff_address TEXT NOT NULL DEFAULT ''
	);
	`

	createResultsQuery := `
	CREATE TABLE IF NOT EXISTS optimization_results (
		result_id TEXT PRIMARY KEY,
		driver_id TEXT NOT NULL,
		strategy TEXT NOT NULL,
		stop_count INTEGER NOT NULL,
		total_distance_km DOUBLE PRECISION NOT NULL,
		total_duration_minutes DOUBLE PRECISION NOT NULL,
		naive_distance_km DOUBLE PRECISION NOT NULL,
		estimated_cost DOUBLE PRECISION NOT NULL,
		savings_percent DOUBLE PRECISION NOT NULL,
		distance_source TEXT NOT NULL,
		degraded BOOLEAN NOT NULL,
		payload TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	);
	`

	createIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_optimization_results_driver_created
	ON optimization_results(driver_id, created_at);
	`

	statements := []string{
		createDeliveriesQuery,
		createResultsQuery,
		createIndexQuery,
	}

	for i, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}

type DeliverySeed struct {
	DeliveryID     string  `json:"delivery_id"`
	Status         string  `json:"status"`
	PickupLat      float64 `json:"pickup_lat"`
	PickupLng      float64 `json:"pickup_lng"`
	PickupAddress  string  `json:"pickup_address"`
	DropoffLat     float64 `json:"dropoff_lat"`
	DropoffLng     float64 `json:"dropoff_lng"`
	DropoffAddress string  `json:"dropoff_address"`
}

func (s DeliverySeed) toDomain() domain.Delivery {
	return domain.Delivery{
		ID:              strings.TrimSpace(s.DeliveryID),
		Status:          domain.DeliveryStatus(strings.TrimSpace(s.Status)),
		PickupLocation:  domain.Location{Lat: s.PickupLat, Lng: s.PickupLng},
		PickupAddress:   strings.TrimSpace(s.PickupAddress),
		DropoffLocation: domain.Location{Lat: s.DropoffLat, Lng: s.DropoffLng},
		DropoffAddress:  strings.TrimSpace(s.DropoffAddress),
	}
}

// Populate the deliveries table from a JSON file.
func SeedFromJSON(ctx context.Context, conn *sql.DB, dialect db.Dialect, jsonPath string) error {
	bytes, err := os.ReadFile(jsonPath)
	if err != nil {
		return fmt.Errorf("seed deliveries: read %q: %w", jsonPath, err)
	}

	var data []DeliverySeed
	if err := json.Unmarshal(bytes, &data); err != nil {
		return fmt.Errorf("seed deliveries: parse json: %w", err)
	}

	rows := make([]domain.Delivery, 0, len(data))
	for i, item := range data {
		d := item.toDomain()
		if d.ID == "" {
			return fmt.Errorf("seed deliveries: item at index %d: delivery_id cannot be empty", i+1)
		}
		if d.Status == "" {
			d.Status = domain.DeliveryPending
		}
		if !d.PickupLocation.Valid() || !d.DropoffLocation.Valid() {
			return fmt.Errorf("seed deliveries: item %q: coordinates out of range", d.ID)
		}
		rows = append(rows, d)
	}

	repo := NewSQLDeliveryRepository(conn, dialect)
	if err := repo.UpsertDeliveries(ctx, rows); err != nil {
		return fmt.Errorf("seed deliveries: %w", err)
	}

	return nil
}
