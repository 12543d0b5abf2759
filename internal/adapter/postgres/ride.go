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

type RideRepo struct {
	db *pgxpool.Pool
}

func NewRideRepo(db *pgxpool.Pool) *RideRepo {
	return &RideRepo{db: db}
}

const rideColumns = `
	id, ride_number, status, passenger_id, driver_id, vehicle_class,
	pickup_latitude, pickup_longitude, pickup_address,
	dropoff_latitude, dropoff_longitude, dropoff_address,
	estimated_fare, final_fare, cancellation_reason,
	created_at, matched_at, en_route_at, arrived_pickup_at,
	onboard_at, arrived_dropoff_at, completed_at, cancelled_at`

func scanRide(row pgx.Row) (*models.Ride, error) {
	var ride models.Ride
	err := row.Scan(
		&ride.ID, &ride.RideNumber, &ride.Status, &ride.PassengerID, &ride.DriverID, &ride.VehicleClass,
		&ride.Pickup.Latitude, &ride.Pickup.Longitude, &ride.Pickup.Address,
		&ride.Dropoff.Latitude, &ride.Dropoff.Longitude, &ride.Dropoff.Address,
		&ride.EstimatedFare, &ride.FinalFare, &ride.CancellationReason,
		&ride.CreatedAt, &ride.MatchedAt, &ride.EnRouteAt, &ride.ArrivedPickup,
		&ride.OnboardAt, &ride.ArrivedDrop, &ride.CompletedAt, &ride.CancelledAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.ErrRideNotFound
		}
		return nil, err
	}
	return &ride, nil
}

func (r *RideRepo) Create(ctx context.Context, ride *models.Ride) (*models.Ride, error) {
	q := TxorDB(ctx, r.db)

	query := `
		INSERT INTO rides (ride_number, passenger_id, status, vehicle_class,
		                   pickup_latitude, pickup_longitude, pickup_address,
		                   dropoff_latitude, dropoff_longitude, dropoff_address,
		                   estimated_fare)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at;`

	err := q.QueryRow(ctx, query,
		ride.RideNumber, ride.PassengerID, ride.Status, ride.VehicleClass,
		ride.Pickup.Latitude, ride.Pickup.Longitude, ride.Pickup.Address,
		ride.Dropoff.Latitude, ride.Dropoff.Longitude, ride.Dropoff.Address,
		ride.EstimatedFare,
	).Scan(&ride.ID, &ride.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("ride repo: Create: %w", err)
	}

	return ride, nil
}

func (r *RideRepo) Get(ctx context.Context, rideID uuid.UUID) (*models.Ride, error) {
	q := TxorDB(ctx, r.db)

	query := `SELECT ` + rideColumns + ` FROM rides WHERE id = $1;`

	ride, err := scanRide(q.QueryRow(ctx, query, rideID))
	if err != nil {
		if errors.Is(err, types.ErrRideNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("ride repo: Get: %w", err)
	}
	return ride, nil
}

// List pages rides newest first, optionally scoped to one status. The
// geo filter is applied by the caller; this query only bounds the page.
func (r *RideRepo) List(ctx context.Context, filter models.RideFilter) ([]*models.Ride, error) {
	q := TxorDB(ctx, r.db)

	query := `SELECT ` + rideColumns + `
		FROM rides
		WHERE ($1 = '' OR status = $1)
		ORDER BY created_at DESC
		LIMIT $2;`

	rows, err := q.Query(ctx, query, string(filter.Status), filter.Limit)
	if err != nil {
		return nil, fmt.Errorf("ride repo: List: %w", err)
	}
	defer rows.Close()

	var rides []*models.Ride
	for rows.Next() {
		ride, err := scanRide(rows)
		if err != nil {
			return nil, fmt.Errorf("ride repo: List scan: %w", err)
		}
		rides = append(rides, ride)
	}
	return rides, rows.Err()
}

// transitionStamp maps each target status to its timestamp column. The
// map doubles as a safelist: the column name is never caller-controlled.
var transitionStamp = map[types.RideStatus]string{
	types.StatusAccepted:         "matched_at",
	types.StatusEnRouteToPickup:  "en_route_at",
	types.StatusArrivedAtPickup:  "arrived_pickup_at",
	types.StatusPassengerOnboard: "onboard_at",
	types.StatusArrivedAtDest:    "arrived_dropoff_at",
	types.StatusCompleted:        "completed_at",
	types.StatusCancelled:        "cancelled_at",
	types.StatusNoShow:           "cancelled_at",
}

// CompareAndSwapStatus performs the atomic status transition: the update
// applies only when the row's status still equals from. Returns false
// when the guard failed (row missing or concurrently modified); the
// caller distinguishes the two with a follow-up read.
func (r *RideRepo) CompareAndSwapStatus(ctx context.Context, rideID uuid.UUID, from, to types.RideStatus, at time.Time, opts models.TransitionOpts) (bool, error) {
	q := TxorDB(ctx, r.db)

	stamp, ok := transitionStamp[to]
	if !ok {
		return false, fmt.Errorf("ride repo: no timestamp column for status %s", to)
	}

	query := fmt.Sprintf(`
		UPDATE rides
		SET status = $3,
		    %s = $4,
		    final_fare = COALESCE($5, final_fare),
		    cancellation_reason = COALESCE($6, cancellation_reason),
		    updated_at = now()
		WHERE id = $1 AND status = $2;`, stamp)

	cmdTag, err := q.Exec(ctx, query, rideID, from, to, at, opts.FinalFare, opts.CancellationReason)
	if err != nil {
		return false, fmt.Errorf("ride repo: CompareAndSwapStatus: %w", err)
	}

	return cmdTag.RowsAffected() == 1, nil
}

// AssignDriver is the REQUESTED -> ACCEPTED compare-and-swap. The guard
// on status and driver_id guarantees at most one driver wins the race.
func (r *RideRepo) AssignDriver(ctx context.Context, rideID, driverID uuid.UUID, at time.Time) (bool, error) {
	q := TxorDB(ctx, r.db)

	query := `
		UPDATE rides
		SET status = $3,
		    driver_id = $2,
		    matched_at = $4,
		    updated_at = now()
		WHERE id = $1 AND status = $5 AND driver_id IS NULL;`

	cmdTag, err := q.Exec(ctx, query, rideID, driverID, types.StatusAccepted, at, types.StatusRequested)
	if err != nil {
		return false, fmt.Errorf("ride repo: AssignDriver: %w", err)
	}

	return cmdTag.RowsAffected() == 1, nil
}

// ActiveRideForDriver returns the non-terminal ride currently assigned
// to the driver, if any. Used to route location pings to ride channels.
func (r *RideRepo) ActiveRideForDriver(ctx context.Context, driverID uuid.UUID) (*uuid.UUID, error) {
	q := TxorDB(ctx, r.db)

	query := `
		SELECT id FROM rides
		WHERE driver_id = $1
		  AND status NOT IN ($2, $3, $4)
		ORDER BY created_at DESC
		LIMIT 1;`

	var rideID uuid.UUID
	err := q.QueryRow(ctx, query, driverID,
		types.StatusCompleted, types.StatusCancelled, types.StatusNoShow,
	).Scan(&rideID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("ride repo: ActiveRideForDriver: %w", err)
	}
	return &rideID, nil
}

// CountByDate backs ride number generation.
func (r *RideRepo) CountByDate(ctx context.Context, date time.Time) (int, error) {
	q := TxorDB(ctx, r.db)

	var count int
	query := "SELECT COUNT(*) FROM rides WHERE DATE(created_at) = $1;"

	err := q.QueryRow(ctx, query, date.Format("2006-01-02")).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("ride repo: CountByDate: %w", err)
	}
	return count, nil
}
