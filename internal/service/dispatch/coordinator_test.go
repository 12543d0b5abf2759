package dispatch_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/example/ride-dispatch/internal/adapter/memory"
	"github.com/example/ride-dispatch/internal/domain/models"
	"github.com/example/ride-dispatch/internal/domain/types"
	"github.com/example/ride-dispatch/internal/service/dispatch"
	"github.com/example/ride-dispatch/internal/service/ride"
	"github.com/example/ride-dispatch/pkg/logger"
)

type nopTx struct{}

func (nopTx) Do(ctx context.Context, fn func(ctx context.Context) error) error { return fn(ctx) }

type nopHub struct{}

func (nopHub) Publish(string, any) {}

type stubMatcher struct {
	candidates []models.Candidate
	err        error
}

func (s *stubMatcher) FindCandidates(_ context.Context, _ models.Location, _ types.VehicleClass) ([]models.Candidate, error) {
	return s.candidates, s.err
}

// busySet marks specific drivers as on a ride already.
type busySet map[uuid.UUID]uuid.UUID

func (b busySet) ActiveRideForDriver(_ context.Context, driverID uuid.UUID) (*uuid.UUID, error) {
	if rideID, ok := b[driverID]; ok {
		return &rideID, nil
	}
	return nil, nil
}

func newCoordinator(t *testing.T, m *stubMatcher, busy busySet) (*dispatch.Coordinator, *memory.RideRepo) {
	t.Helper()
	repo := memory.NewRideRepo()
	log := logger.InitLogger("test", "ERROR")
	rides := ride.New(repo, nopHub{}, nil, nopTx{}, log)
	return dispatch.New(rides, m, busy, log), repo
}

func newRequest() *models.Ride {
	return &models.Ride{
		PassengerID: uuid.New(),
		Pickup:      models.Location{Latitude: 48.8566, Longitude: 2.3522},
		Dropoff:     models.Location{Latitude: 48.8606, Longitude: 2.3376},
	}
}

func TestRequestRideAssignsNearestFreeDriver(t *testing.T) {
	nearest := uuid.New()
	second := uuid.New()
	m := &stubMatcher{candidates: []models.Candidate{
		{DriverID: nearest, DistanceMeters: 120},
		{DriverID: second, DistanceMeters: 900},
	}}

	coord, _ := newCoordinator(t, m, busySet{})

	got, err := coord.RequestRide(context.Background(), newRequest())
	require.NoError(t, err)
	require.Equal(t, types.StatusAccepted, got.Status)
	require.NotNil(t, got.DriverID)
	require.Equal(t, nearest, *got.DriverID)
}

func TestRequestRideSkipsBusyDriver(t *testing.T) {
	busyDriver := uuid.New()
	freeDriver := uuid.New()
	m := &stubMatcher{candidates: []models.Candidate{
		{DriverID: busyDriver, DistanceMeters: 50},
		{DriverID: freeDriver, DistanceMeters: 400},
	}}

	coord, _ := newCoordinator(t, m, busySet{busyDriver: uuid.New()})

	got, err := coord.RequestRide(context.Background(), newRequest())
	require.NoError(t, err)
	require.Equal(t, types.StatusAccepted, got.Status)
	require.Equal(t, freeDriver, *got.DriverID)
}

func TestRequestRideWithNoDriversStaysRequested(t *testing.T) {
	coord, _ := newCoordinator(t, &stubMatcher{}, busySet{})

	got, err := coord.RequestRide(context.Background(), newRequest())
	require.NoError(t, err)
	require.Equal(t, types.StatusRequested, got.Status)
	require.Nil(t, got.DriverID)
}

func TestRequestRideSurvivesMatcherFailure(t *testing.T) {
	m := &stubMatcher{err: context.DeadlineExceeded}
	coord, _ := newCoordinator(t, m, busySet{})

	got, err := coord.RequestRide(context.Background(), newRequest())
	require.NoError(t, err)
	require.Equal(t, types.StatusRequested, got.Status)
}

func TestAcceptRideManualPath(t *testing.T) {
	coord, repo := newCoordinator(t, &stubMatcher{}, busySet{})
	ctx := context.Background()

	created, err := coord.RequestRide(ctx, newRequest())
	require.NoError(t, err)

	driverID := uuid.New()
	got, err := coord.AcceptRide(ctx, created.ID, driverID)
	require.NoError(t, err)
	require.Equal(t, types.StatusAccepted, got.Status)
	require.Equal(t, driverID, *got.DriverID)

	stored, err := repo.Get(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, types.StatusAccepted, stored.Status)
}

func TestAcceptRideRefusesBusyDriver(t *testing.T) {
	driverID := uuid.New()
	coord, _ := newCoordinator(t, &stubMatcher{}, busySet{driverID: uuid.New()})
	ctx := context.Background()

	created, err := coord.RequestRide(ctx, newRequest())
	require.NoError(t, err)

	_, err = coord.AcceptRide(ctx, created.ID, driverID)
	require.ErrorIs(t, err, types.ErrStatusConflict)
}

func TestAcceptRideLosesToEarlierWinner(t *testing.T) {
	coord, _ := newCoordinator(t, &stubMatcher{}, busySet{})
	ctx := context.Background()

	created, err := coord.RequestRide(ctx, newRequest())
	require.NoError(t, err)

	_, err = coord.AcceptRide(ctx, created.ID, uuid.New())
	require.NoError(t, err)

	_, err = coord.AcceptRide(ctx, created.ID, uuid.New())
	require.ErrorIs(t, err, types.ErrRideAlreadyAssigned)
}
