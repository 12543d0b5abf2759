// Package dispatch glues ride intake to driver matching. A new request
// is persisted first, then offered to nearby drivers one at a time;
// losing every candidate leaves the ride REQUESTED for manual
// acceptance rather than failing the request.
package dispatch

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/example/ride-dispatch/internal/domain/models"
	"github.com/example/ride-dispatch/internal/domain/types"
	"github.com/example/ride-dispatch/pkg/logger"
	wrap "github.com/example/ride-dispatch/pkg/logger/wrapper"
)

// RideLifecycle is the slice of the ride service the coordinator drives.
type RideLifecycle interface {
	Create(ctx context.Context, ride *models.Ride) (*models.Ride, error)
	Assign(ctx context.Context, rideID, driverID uuid.UUID) (*models.Ride, error)
}

// CandidateFinder ranks nearby available drivers for a pickup point.
type CandidateFinder interface {
	FindCandidates(ctx context.Context, pickup models.Location, class types.VehicleClass) ([]models.Candidate, error)
}

// DriverStatus reports whether a driver is already on a ride.
type DriverStatus interface {
	ActiveRideForDriver(ctx context.Context, driverID uuid.UUID) (*uuid.UUID, error)
}

type Coordinator struct {
	rides   RideLifecycle
	matcher CandidateFinder
	drivers DriverStatus
	logger  logger.Logger
}

func New(rides RideLifecycle, matcher CandidateFinder, drivers DriverStatus, logger logger.Logger) *Coordinator {
	return &Coordinator{
		rides:   rides,
		matcher: matcher,
		drivers: drivers,
		logger:  logger,
	}
}

// RequestRide persists the ride, then walks the candidate list nearest
// first until an assignment wins. Matching trouble never fails the
// request; the ride simply stays REQUESTED.
func (c *Coordinator) RequestRide(ctx context.Context, ride *models.Ride) (*models.Ride, error) {
	ctx = wrap.WithAction(ctx, "request_ride")

	created, err := c.rides.Create(ctx, ride)
	if err != nil {
		return nil, err
	}
	ctx = wrap.WithRideID(ctx, created.ID.String())

	candidates, err := c.matcher.FindCandidates(ctx, created.Pickup, created.VehicleClass)
	if err != nil {
		c.logger.Warn(ctx, "candidate search failed, leaving ride unassigned", "error", err)
		return created, nil
	}
	if len(candidates) == 0 {
		c.logger.Info(ctx, "no drivers nearby, leaving ride unassigned")
		return created, nil
	}

	if assigned := c.tryCandidates(ctx, created.ID, candidates); assigned != nil {
		return assigned, nil
	}
	return created, nil
}

// AcceptRide is the manual path: a driver claims a REQUESTED ride.
// Drivers already on a ride are refused before the swap is attempted.
func (c *Coordinator) AcceptRide(ctx context.Context, rideID, driverID uuid.UUID) (*models.Ride, error) {
	ctx = wrap.WithAction(ctx, "accept_ride")
	ctx = wrap.WithRideID(ctx, rideID.String())
	ctx = wrap.WithDriverID(ctx, driverID.String())

	active, err := c.drivers.ActiveRideForDriver(ctx, driverID)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}
	if active != nil {
		return nil, wrap.Error(ctx, types.ErrStatusConflict)
	}

	return c.rides.Assign(ctx, rideID, driverID)
}

// tryCandidates offers the ride to each candidate in distance order.
// A busy driver is skipped; a lost swap means the ride was taken by
// someone else and the loop stops.
func (c *Coordinator) tryCandidates(ctx context.Context, rideID uuid.UUID, candidates []models.Candidate) *models.Ride {
	for _, candidate := range candidates {
		active, err := c.drivers.ActiveRideForDriver(ctx, candidate.DriverID)
		if err != nil {
			c.logger.Warn(ctx, "driver status check failed, skipping candidate",
				"driver_id", candidate.DriverID, "error", err)
			continue
		}
		if active != nil {
			continue
		}

		assigned, err := c.rides.Assign(ctx, rideID, candidate.DriverID)
		if err == nil {
			return assigned
		}
		if errors.Is(err, types.ErrRideAlreadyAssigned) || errors.Is(err, types.ErrStatusConflict) {
			c.logger.Info(ctx, "ride taken during auto-assignment")
			return nil
		}
		c.logger.Warn(ctx, "assignment attempt failed, trying next candidate",
			"driver_id", candidate.DriverID, "error", err)
	}
	return nil
}
