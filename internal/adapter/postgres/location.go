package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/example/ride-dispatch/internal/domain/models"
	"github.com/example/ride-dispatch/internal/domain/types"
)

// LocationRepo is the durable, append-only side of the location store.
type LocationRepo struct {
	db *pgxpool.Pool
}

func NewLocationRepo(db *pgxpool.Pool) *LocationRepo {
	return &LocationRepo{db: db}
}

func (r *LocationRepo) Insert(ctx context.Context, loc *models.DriverLocation) error {
	q := TxorDB(ctx, r.db)

	query := `
		INSERT INTO driver_locations (driver_id, ride_id, latitude, longitude,
		                              accuracy_m, speed_kmh, heading_deg, battery_pct,
		                              online, available, vehicle_class, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12);`

	_, err := q.Exec(ctx, query,
		loc.DriverID, loc.RideID, loc.Latitude, loc.Longitude,
		loc.AccuracyMeters, loc.SpeedKmh, loc.HeadingDegrees, loc.BatteryPercent,
		loc.Online, loc.Available, loc.VehicleClass, loc.RecordedAt,
	)
	if err != nil {
		return fmt.Errorf("location repo: Insert: %w", err)
	}
	return nil
}

const locationColumns = `
	driver_id, ride_id, latitude, longitude,
	accuracy_m, speed_kmh, heading_deg, battery_pct,
	online, available, vehicle_class, recorded_at`

func scanLocation(row pgx.Row) (*models.DriverLocation, error) {
	var loc models.DriverLocation
	err := row.Scan(
		&loc.DriverID, &loc.RideID, &loc.Latitude, &loc.Longitude,
		&loc.AccuracyMeters, &loc.SpeedKmh, &loc.HeadingDegrees, &loc.BatteryPercent,
		&loc.Online, &loc.Available, &loc.VehicleClass, &loc.RecordedAt,
	)
	if err != nil {
		return nil, err
	}
	return &loc, nil
}

// Latest returns the driver's most recent ping by recorded_at. Rows are
// ordered by the capture timestamp, never by insertion order.
func (r *LocationRepo) Latest(ctx context.Context, driverID uuid.UUID) (*models.DriverLocation, error) {
	q := TxorDB(ctx, r.db)

	query := `SELECT ` + locationColumns + `
		FROM driver_locations
		WHERE driver_id = $1
		ORDER BY recorded_at DESC
		LIMIT 1;`

	loc, err := scanLocation(q.QueryRow(ctx, query, driverID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrLocationNotFound
		}
		return nil, fmt.Errorf("location repo: Latest: %w", err)
	}
	return loc, nil
}

// History returns up to limit pings, most recent first, optionally
// scoped to one ride.
func (r *LocationRepo) History(ctx context.Context, driverID uuid.UUID, limit int, rideID *uuid.UUID) ([]*models.DriverLocation, error) {
	q := TxorDB(ctx, r.db)

	query := `SELECT ` + locationColumns + `
		FROM driver_locations
		WHERE driver_id = $1
		  AND ($3::uuid IS NULL OR ride_id = $3)
		ORDER BY recorded_at DESC
		LIMIT $2;`

	rows, err := q.Query(ctx, query, driverID, limit, rideID)
	if err != nil {
		return nil, fmt.Errorf("location repo: History: %w", err)
	}
	defer rows.Close()

	var locations []*models.DriverLocation
	for rows.Next() {
		loc, err := scanLocation(rows)
		if err != nil {
			return nil, fmt.Errorf("location repo: History scan: %w", err)
		}
		locations = append(locations, loc)
	}
	return locations, rows.Err()
}

// DeleteOlderThan removes history rows past the retention window. Runs
// out-of-band from the retention sweep, never on the request path.
func (r *LocationRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM driver_locations WHERE recorded_at < $1;`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("location repo: DeleteOlderThan: %w", err)
	}
	return cmdTag.RowsAffected(), nil
}

// LatestAll returns the most recent ping per driver. Feeds the scan
// matcher when no native geo index is configured.
func (r *LocationRepo) LatestAll(ctx context.Context) ([]*models.DriverLocation, error) {
	query := `
		SELECT DISTINCT ON (driver_id) ` + locationColumns + `
		FROM driver_locations
		ORDER BY driver_id, recorded_at DESC;`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("location repo: LatestAll: %w", err)
	}
	defer rows.Close()

	var locations []*models.DriverLocation
	for rows.Next() {
		loc, err := scanLocation(rows)
		if err != nil {
			return nil, fmt.Errorf("location repo: LatestAll: %w", err)
		}
		locations = append(locations, loc)
	}
	return locations, rows.Err()
}
