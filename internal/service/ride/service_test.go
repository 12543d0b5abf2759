package ride_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/example/ride-dispatch/internal/adapter/memory"
	"github.com/example/ride-dispatch/internal/domain/models"
	"github.com/example/ride-dispatch/internal/domain/types"
	"github.com/example/ride-dispatch/internal/service/ride"
	"github.com/example/ride-dispatch/pkg/logger"
)

type nopTx struct{}

func (nopTx) Do(ctx context.Context, fn func(ctx context.Context) error) error { return fn(ctx) }

type recordingHub struct {
	mu     sync.Mutex
	events map[string][]any
}

func (h *recordingHub) Publish(key string, event any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.events == nil {
		h.events = map[string][]any{}
	}
	h.events[key] = append(h.events[key], event)
}

func newService(t *testing.T) (*ride.Service, *recordingHub) {
	t.Helper()
	hub := &recordingHub{}
	svc := ride.New(memory.NewRideRepo(), hub, nil, nopTx{}, logger.InitLogger("test", "ERROR"))
	return svc, hub
}

func newRide() *models.Ride {
	return &models.Ride{
		PassengerID: uuid.New(),
		Pickup:      models.Location{Latitude: 48.8566, Longitude: 2.3522},
		Dropoff:     models.Location{Latitude: 48.8606, Longitude: 2.3376},
	}
}

func TestCreateSetsRequestedAndRideNumber(t *testing.T) {
	svc, _ := newService(t)

	created, err := svc.Create(context.Background(), newRide())
	require.NoError(t, err)
	require.Equal(t, types.StatusRequested, created.Status)
	require.Greater(t, created.EstimatedFare, 0.0)

	wantPrefix := fmt.Sprintf("RD-%s-", time.Now().UTC().Format("20060102"))
	require.Equal(t, wantPrefix+"0001", created.RideNumber)

	second, err := svc.Create(context.Background(), newRide())
	require.NoError(t, err)
	require.Equal(t, wantPrefix+"0002", second.RideNumber)
}

func TestTransitionHappyPathToCompleted(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, newRide())
	require.NoError(t, err)

	current, err := svc.Assign(ctx, created.ID, uuid.New())
	require.NoError(t, err)
	require.Equal(t, types.StatusAccepted, current.Status)
	require.NotNil(t, current.MatchedAt)

	steps := []types.RideStatus{
		types.StatusEnRouteToPickup,
		types.StatusArrivedAtPickup,
		types.StatusPassengerOnboard,
		types.StatusArrivedAtDest,
	}
	for _, next := range steps {
		current, err = svc.Transition(ctx, created.ID, current.Status, next, models.TransitionOpts{})
		require.NoError(t, err)
		require.Equal(t, next, current.Status)
	}

	fare := 1234.0
	current, err = svc.Transition(ctx, created.ID, current.Status, types.StatusCompleted,
		models.TransitionOpts{FinalFare: &fare})
	require.NoError(t, err)
	require.Equal(t, types.StatusCompleted, current.Status)
	require.NotNil(t, current.FinalFare)
	require.InDelta(t, fare, *current.FinalFare, 1e-9)
	require.NotNil(t, current.CompletedAt)
}

func TestTransitionRejectsSkippedSteps(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, newRide())
	require.NoError(t, err)

	accepted, err := svc.Assign(ctx, created.ID, uuid.New())
	require.NoError(t, err)

	_, err = svc.Transition(ctx, created.ID, accepted.Status, types.StatusCompleted, models.TransitionOpts{})
	require.True(t, types.IsInvalidTransition(err), "expected invalid transition, got %v", err)
}

func TestTransitionStaleStatusIsConflict(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, newRide())
	require.NoError(t, err)

	_, err = svc.Assign(ctx, created.ID, uuid.New())
	require.NoError(t, err)

	// Caller still believes the ride is REQUESTED and tries to cancel.
	_, err = svc.Cancel(ctx, created.ID, types.StatusRequested, types.StatusCancelled, "changed my mind")
	require.ErrorIs(t, err, types.ErrStatusConflict)
}

func TestTransitionUnknownRide(t *testing.T) {
	svc, _ := newService(t)

	_, err := svc.Transition(context.Background(), uuid.New(),
		types.StatusRequested, types.StatusCancelled, models.TransitionOpts{})
	require.ErrorIs(t, err, types.ErrRideNotFound)
}

func TestTerminalStateNeverChanges(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, newRide())
	require.NoError(t, err)

	cancelled, err := svc.Cancel(ctx, created.ID, types.StatusRequested, types.StatusCancelled, "no longer needed")
	require.NoError(t, err)
	require.Equal(t, types.StatusCancelled, cancelled.Status)
	require.NotNil(t, cancelled.CancellationReason)

	_, err = svc.Transition(ctx, created.ID, types.StatusCancelled, types.StatusEnRouteToPickup, models.TransitionOpts{})
	require.True(t, types.IsInvalidTransition(err))
}

func TestConcurrentAssignHasOneWinner(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, newRide())
	require.NoError(t, err)

	const drivers = 8
	errs := make(chan error, drivers)

	var wg sync.WaitGroup
	for i := 0; i < drivers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Assign(ctx, created.ID, uuid.New())
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var wins, conflicts int
	for err := range errs {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, types.ErrRideAlreadyAssigned):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	require.Equal(t, 1, wins)
	require.Equal(t, drivers-1, conflicts)
}

func TestTransitionPublishesSnapshot(t *testing.T) {
	svc, hub := newService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, newRide())
	require.NoError(t, err)

	driverID := uuid.New()
	_, err = svc.Assign(ctx, created.ID, driverID)
	require.NoError(t, err)

	rideEvents := hub.events[models.RideChannel(created.ID)]
	require.NotEmpty(t, rideEvents)
	last, ok := rideEvents[len(rideEvents)-1].(models.RideUpdatedEvent)
	require.True(t, ok)
	require.Equal(t, models.EventRideUpdated, last.Type)
	require.Equal(t, types.StatusAccepted, last.Ride.Status)

	require.NotEmpty(t, hub.events[models.DriverChannel(driverID)])
}

func TestCompleteWithoutFareSettlesAtEstimate(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, newRide())
	require.NoError(t, err)

	current, err := svc.Assign(ctx, created.ID, uuid.New())
	require.NoError(t, err)
	for _, next := range []types.RideStatus{
		types.StatusEnRouteToPickup,
		types.StatusArrivedAtPickup,
		types.StatusPassengerOnboard,
		types.StatusArrivedAtDest,
	} {
		current, err = svc.Transition(ctx, created.ID, current.Status, next, models.TransitionOpts{})
		require.NoError(t, err)
	}

	done, err := svc.Transition(ctx, created.ID, current.Status, types.StatusCompleted, models.TransitionOpts{})
	require.NoError(t, err)
	require.NotNil(t, done.FinalFare)
	require.InDelta(t, created.EstimatedFare, *done.FinalFare, 1e-9)
}

func TestListFiltersByStatusAndRadius(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	near, err := svc.Create(ctx, newRide())
	require.NoError(t, err)

	far := newRide()
	far.Pickup = models.Location{Latitude: 48.9566, Longitude: 2.3522} // ~11 km north
	_, err = svc.Create(ctx, far)
	require.NoError(t, err)

	taken, err := svc.Create(ctx, newRide())
	require.NoError(t, err)
	_, err = svc.Assign(ctx, taken.ID, uuid.New())
	require.NoError(t, err)

	rides, err := svc.List(ctx, models.RideFilter{
		Status:       types.StatusRequested,
		Near:         &models.Location{Latitude: 48.8566, Longitude: 2.3522},
		RadiusMeters: 5000,
	})
	require.NoError(t, err)
	require.Len(t, rides, 1)
	require.Equal(t, near.ID, rides[0].ID)

	all, err := svc.List(ctx, models.RideFilter{Status: types.StatusRequested})
	require.NoError(t, err)
	require.Len(t, all, 2)
}
