package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"route-optimization-service/internal/domain"
	"route-optimization-service/internal/platform/db"
	"route-optimization-service/internal/platform/obs"
	"strings"
)

// SQL-backed implementation of the DeliveryRepository port.
// Works against sqlite (modernc) and postgres (pgx stdlib).
type SQLDeliveryRepository struct {
	DB      *sql.DB
	Dialect db.Dialect
}

func NewSQLDeliveryRepository(conn *sql.DB, dialect db.Dialect) *SQLDeliveryRepository {
	return &SQLDeliveryRepository{DB: conn, Dialect: dialect}
}

// Return the deliveries whose ids are in ids. Unknown ids are skipped.
func (s *SQLDeliveryRepository) GetDeliveries(ctx context.Context, ids []string) (_ []domain.Delivery, err error) {
	defer obs.Time(ctx, "deliveries.GetDeliveries")(&err)

	if s.DB == nil {
		return nil, errors.New("sql delivery repository: DB is nil")
	}

	seen := map[string]struct{}{}
	uniq := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		uniq = append(uniq, id)
	}

	if len(uniq) == 0 {
		return []domain.Delivery{}, nil
	}

	args := make([]any, 0, len(uniq))
	for _, id := range uniq {
		args = append(args, id)
	}

	query := db.Rebind(s.Dialect, `
	SELECT
		delivery_id,
		status,
		pickup_lat,
		pickup_lng,
		pickup_address,
		dropoff_lat,
		dropoff_lng,
		dropoff_address
	FROM deliveries
	WHERE delivery_id IN (`+db.Placeholders(len(uniq))+`)
	ORDER BY delivery_id;
	`)

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("get deliveries: query deliveries table: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Delivery, 0, len(uniq))
	for rows.Next() {
		var (
			d      domain.Delivery
			status string
		)
		err := rows.Scan(
			&d.ID,
			&status,
			&d.PickupLocation.Lat,
			&d.PickupLocation.Lng,
			&d.PickupAddress,
			&d.DropoffLocation.Lat,
			&d.DropoffLocation.Lng,
			&d.DropoffAddress,
		)
		if err != nil {
			return nil, fmt.Errorf("get deliveries: scan row: %w", err)
		}
		d.Status = domain.DeliveryStatus(status)
		out = append(out, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get deliveries: row iteration: %w", err)
	}

	return out, nil
}

// Insert or replace deliveries in a single transaction.
func (s *SQLDeliveryRepository) UpsertDeliveries(ctx context.Context, deliveries []domain.Delivery) error {
	if s.DB == nil {
		return errors.New("sql delivery repository: DB is nil")
	}

	if len(deliveries) == 0 {
		return nil
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("upsert deliveries: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, db.Rebind(s.Dialect, `
	INSERT INTO deliveries (
		delivery_id,
		status,
		pickup_lat,
		pickup_lng,
		pickup_address,
		dropoff_lat,
		dropoff_lng,
		dropoff_address
	)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (delivery_id) DO UPDATE
	SET status = excluded.status,
		pickup_lat = excluded.pickup_lat,
		pickup_lng = excluded.pickup_lng,
		pickup_address = excluded.pickup_address,
		dropoff_lat = excluded.dropoff_lat,
		dropoff_lng = excluded.dropoff_lng,
		dropoff_address = excluded.dropoff_address;
	`))
	if err != nil {
		return fmt.Errorf("upsert deliveries: prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, d := range deliveries {
		_, err := stmt.ExecContext(ctx,
			d.ID,
			string(d.Status),
			d.PickupLocation.Lat,
			d.PickupLocation.Lng,
			d.PickupAddress,
			d.DropoffLocation.Lat,
			d.DropoffLocation.Lng,
			d.DropoffAddress,
		)
		if err != nil {
			return fmt.Errorf("upsert deliveries: insert delivery_id=%q: %w", d.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("upsert deliveries: commit tx: %w", err)
	}

	return nil
}
