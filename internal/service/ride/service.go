// Package ride owns the ride lifecycle. Every status change goes
// through a compare-and-swap against the status the caller last saw,
// so concurrent writers get exactly one winner and the rest a conflict.
package ride

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/example/ride-dispatch/internal/domain/models"
	"github.com/example/ride-dispatch/internal/domain/types"
	"github.com/example/ride-dispatch/internal/service/matcher"
	"github.com/example/ride-dispatch/pkg/logger"
	wrap "github.com/example/ride-dispatch/pkg/logger/wrapper"
	"github.com/example/ride-dispatch/pkg/metrics"
	"github.com/example/ride-dispatch/pkg/trm"
)

const (
	// listGeoPage is how many rides a geo-scoped listing scans before
	// the distance filter trims it to the requested page size.
	listGeoPage = 200

	defaultListRadiusMeters = 5000
)

type Service struct {
	repo   RideRepo
	hub    Broadcaster
	broker EventPublisher
	trm    trm.TxManager
	logger logger.Logger
}

// New wires the lifecycle service. broker may be nil when no rabbit
// connection is configured.
func New(repo RideRepo, hub Broadcaster, broker EventPublisher, txm trm.TxManager, logger logger.Logger) *Service {
	return &Service{
		repo:   repo,
		hub:    hub,
		broker: broker,
		trm:    txm,
		logger: logger,
	}
}

// Create registers a new REQUESTED ride with an estimated fare and a
// daily sequence number.
func (s *Service) Create(ctx context.Context, ride *models.Ride) (*models.Ride, error) {
	ctx = wrap.WithAction(ctx, "create_ride")

	var created *models.Ride

	err := s.trm.Do(ctx, func(ctx context.Context) error {
		number, err := s.generateRideNumber(ctx)
		if err != nil {
			return wrap.Error(ctx, fmt.Errorf("generate ride number: %w", err))
		}

		ride.RideNumber = number
		ride.Status = types.StatusRequested
		ride.EstimatedFare = estimateFare(ride.Pickup, ride.Dropoff)

		created, err = s.repo.Create(ctx, ride)
		if err != nil {
			return wrap.Error(ctx, fmt.Errorf("create ride: %w", err))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	ctx = wrap.WithRideID(ctx, created.ID.String())
	s.logger.Info(ctx, "ride created", "ride_number", created.RideNumber)

	s.publish(ctx, created, "", created.Status)
	return created, nil
}

func (s *Service) Get(ctx context.Context, rideID uuid.UUID) (*models.Ride, error) {
	ctx = wrap.WithAction(ctx, "get_ride")
	ctx = wrap.WithRideID(ctx, rideID.String())

	ride, err := s.repo.Get(ctx, rideID)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}
	return ride, nil
}

// List backs the manual-acceptance flow: drivers browse open rides,
// optionally scoped to a radius around their position.
func (s *Service) List(ctx context.Context, filter models.RideFilter) ([]*models.Ride, error) {
	ctx = wrap.WithAction(ctx, "list_rides")

	if filter.Status != "" && !types.ValidStatus(filter.Status) {
		return nil, wrap.Error(ctx, fmt.Errorf("unknown status %q: %w", filter.Status, types.ErrNotFound))
	}
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 50
	}

	// With a geo filter we fetch a wider page and trim after the
	// distance check, so the radius does not eat into the page size.
	fetch := filter
	if filter.Near != nil {
		fetch.Limit = listGeoPage
	}

	rides, err := s.repo.List(ctx, fetch)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}

	if filter.Near == nil {
		return rides, nil
	}

	radius := filter.RadiusMeters
	if radius <= 0 {
		radius = defaultListRadiusMeters
	}

	matched := rides[:0]
	for _, r := range rides {
		d := matcher.Haversine(
			filter.Near.Latitude, filter.Near.Longitude,
			r.Pickup.Latitude, r.Pickup.Longitude,
		)
		if d <= radius {
			matched = append(matched, r)
		}
		if len(matched) == filter.Limit {
			break
		}
	}
	return matched, nil
}

// Transition moves a ride one step along the lifecycle. The caller
// states the status it last saw; if the ride has moved on since, the
// swap loses and the caller gets ErrStatusConflict, never a silent
// overwrite. Terminal states never change again.
func (s *Service) Transition(ctx context.Context, rideID uuid.UUID, from, to types.RideStatus, opts models.TransitionOpts) (*models.Ride, error) {
	ctx = wrap.WithAction(ctx, "transition_ride")
	ctx = wrap.WithRideID(ctx, rideID.String())

	if !types.ValidStatus(to) {
		return nil, wrap.Error(ctx, types.NewInvalidTransition(from, to))
	}
	if to == types.StatusAccepted {
		// Acceptance carries a driver assignment; it goes through Assign.
		return nil, wrap.Error(ctx, types.NewInvalidTransition(from, to))
	}
	if !types.CanTransition(from, to) {
		return nil, wrap.Error(ctx, types.NewInvalidTransition(from, to))
	}

	// A completion without an explicit fare settles at the estimate.
	if to == types.StatusCompleted && opts.FinalFare == nil {
		current, err := s.repo.Get(ctx, rideID)
		if err != nil {
			return nil, wrap.Error(ctx, err)
		}
		opts.FinalFare = &current.EstimatedFare
	}

	swapped, err := s.repo.CompareAndSwapStatus(ctx, rideID, from, to, time.Now().UTC(), opts)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}
	if !swapped {
		return nil, s.swapLost(ctx, rideID)
	}

	metrics.RideTransitionsTotal.WithLabelValues(from.String(), to.String()).Inc()

	ride, err := s.repo.Get(ctx, rideID)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}

	s.logger.Info(ctx, "ride transitioned", "from", from, "to", to)
	s.publish(ctx, ride, from, to)
	return ride, nil
}

// Assign atomically hands a REQUESTED, unassigned ride to a driver and
// moves it to ACCEPTED. Exactly one of any number of concurrent
// assignment attempts wins.
func (s *Service) Assign(ctx context.Context, rideID, driverID uuid.UUID) (*models.Ride, error) {
	ctx = wrap.WithAction(ctx, "assign_driver")
	ctx = wrap.WithRideID(ctx, rideID.String())
	ctx = wrap.WithDriverID(ctx, driverID.String())

	swapped, err := s.repo.AssignDriver(ctx, rideID, driverID, time.Now().UTC())
	if err != nil {
		metrics.AssignmentAttempts.WithLabelValues("error").Inc()
		return nil, wrap.Error(ctx, err)
	}
	if !swapped {
		metrics.AssignmentAttempts.WithLabelValues("lost").Inc()
		return nil, s.assignLost(ctx, rideID)
	}

	metrics.AssignmentAttempts.WithLabelValues("won").Inc()
	metrics.RideTransitionsTotal.
		WithLabelValues(types.StatusRequested.String(), types.StatusAccepted.String()).Inc()

	ride, err := s.repo.Get(ctx, rideID)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}

	s.logger.Info(ctx, "driver assigned", "ride_number", ride.RideNumber)
	s.publish(ctx, ride, types.StatusRequested, types.StatusAccepted)
	return ride, nil
}

// Cancel ends a ride early with a reason. NO_SHOW is a cancellation
// variant used by drivers waiting at the pickup point.
func (s *Service) Cancel(ctx context.Context, rideID uuid.UUID, from, to types.RideStatus, reason string) (*models.Ride, error) {
	if to != types.StatusCancelled && to != types.StatusNoShow {
		return nil, types.NewInvalidTransition(from, to)
	}
	opts := models.TransitionOpts{}
	if reason != "" {
		opts.CancellationReason = &reason
	}
	return s.Transition(ctx, rideID, from, to, opts)
}

// swapLost decides what a failed CAS means: the ride is gone, or it
// moved to a different status since the caller last read it.
func (s *Service) swapLost(ctx context.Context, rideID uuid.UUID) error {
	metrics.RideTransitionConflicts.Inc()

	if _, err := s.repo.Get(ctx, rideID); err != nil {
		return wrap.Error(ctx, err)
	}
	return wrap.Error(ctx, types.ErrStatusConflict)
}

func (s *Service) assignLost(ctx context.Context, rideID uuid.UUID) error {
	ride, err := s.repo.Get(ctx, rideID)
	if err != nil {
		return wrap.Error(ctx, err)
	}
	if ride.Assigned() {
		return wrap.Error(ctx, types.ErrRideAlreadyAssigned)
	}
	return wrap.Error(ctx, types.ErrStatusConflict)
}

// publish fans the new snapshot out to websocket subscribers and, best
// effort, onto the rabbit topic exchange.
func (s *Service) publish(ctx context.Context, ride *models.Ride, from, to types.RideStatus) {
	event := models.RideUpdatedEvent{Type: models.EventRideUpdated, Ride: ride}

	s.hub.Publish(models.RideChannel(ride.ID), event)
	if ride.DriverID != nil {
		s.hub.Publish(models.DriverChannel(*ride.DriverID), event)
	}

	if s.broker == nil {
		return
	}
	msg := models.RideStatusMessage{
		RideID:    ride.ID,
		OldStatus: from,
		NewStatus: to,
		DriverID:  ride.DriverID,
		FinalFare: ride.FinalFare,
		Timestamp: time.Now().UTC(),
	}
	if logCtx, ok := wrap.GetLogCtx(ctx); ok {
		msg.CorrelationID = logCtx.RequestID
	}
	if err := s.broker.PublishRideStatus(ctx, msg); err != nil {
		s.logger.Warn(ctx, "ride status publish failed", "error", err)
	}
}
