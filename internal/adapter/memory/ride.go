// Package memory holds in-memory repository implementations with the
// same swap semantics as the postgres adapters. Suitable for tests and
// local demos, not for multi-process deployments.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/example/ride-dispatch/internal/domain/models"
	"github.com/example/ride-dispatch/internal/domain/types"
)

type RideRepo struct {
	mu    sync.Mutex
	rides map[uuid.UUID]*models.Ride
}

func NewRideRepo() *RideRepo {
	return &RideRepo{rides: make(map[uuid.UUID]*models.Ride)}
}

func (r *RideRepo) Create(_ context.Context, ride *models.Ride) (*models.Ride, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cp := *ride
	if cp.ID == uuid.Nil {
		cp.ID = uuid.New()
	}
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now().UTC()
	}
	r.rides[cp.ID] = &cp

	out := cp
	return &out, nil
}

func (r *RideRepo) Get(_ context.Context, rideID uuid.UUID) (*models.Ride, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ride, ok := r.rides[rideID]
	if !ok {
		return nil, types.ErrRideNotFound
	}
	cp := *ride
	return &cp, nil
}

func (r *RideRepo) List(_ context.Context, filter models.RideFilter) ([]*models.Ride, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*models.Ride
	for _, ride := range r.rides {
		if filter.Status != "" && ride.Status != filter.Status {
			continue
		}
		cp := *ride
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

// CompareAndSwapStatus succeeds only when the stored status still
// equals from, mirroring the conditional UPDATE of the postgres repo.
func (r *RideRepo) CompareAndSwapStatus(_ context.Context, rideID uuid.UUID, from, to types.RideStatus, at time.Time, opts models.TransitionOpts) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ride, ok := r.rides[rideID]
	if !ok || ride.Status != from {
		return false, nil
	}

	ride.Status = to
	stamp(ride, to, at)
	if opts.FinalFare != nil {
		ride.FinalFare = opts.FinalFare
	}
	if opts.CancellationReason != nil {
		ride.CancellationReason = opts.CancellationReason
	}
	return true, nil
}

// AssignDriver wins only on a REQUESTED, unassigned ride.
func (r *RideRepo) AssignDriver(_ context.Context, rideID, driverID uuid.UUID, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ride, ok := r.rides[rideID]
	if !ok || ride.Status != types.StatusRequested || ride.DriverID != nil {
		return false, nil
	}

	ride.Status = types.StatusAccepted
	ride.DriverID = &driverID
	ride.MatchedAt = &at
	return true, nil
}

func (r *RideRepo) ActiveRideForDriver(_ context.Context, driverID uuid.UUID) (*uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, ride := range r.rides {
		if ride.DriverID != nil && *ride.DriverID == driverID && !types.IsTerminal(ride.Status) {
			id := ride.ID
			return &id, nil
		}
	}
	return nil, nil
}

func (r *RideRepo) CountByDate(_ context.Context, date time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	y, m, d := date.UTC().Date()
	count := 0
	for _, ride := range r.rides {
		ry, rm, rd := ride.CreatedAt.UTC().Date()
		if ry == y && rm == m && rd == d {
			count++
		}
	}
	return count, nil
}

func stamp(ride *models.Ride, to types.RideStatus, at time.Time) {
	switch to {
	case types.StatusAccepted:
		ride.MatchedAt = &at
	case types.StatusEnRouteToPickup:
		ride.EnRouteAt = &at
	case types.StatusArrivedAtPickup:
		ride.ArrivedPickup = &at
	case types.StatusPassengerOnboard:
		ride.OnboardAt = &at
	case types.StatusArrivedAtDest:
		ride.ArrivedDrop = &at
	case types.StatusCompleted:
		ride.CompletedAt = &at
	case types.StatusCancelled, types.StatusNoShow:
		ride.CancelledAt = &at
	}
}
