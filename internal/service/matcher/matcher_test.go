package matcher_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/example/ride-dispatch/config"
	"github.com/example/ride-dispatch/internal/domain/models"
	"github.com/example/ride-dispatch/internal/domain/types"
	"github.com/example/ride-dispatch/internal/service/matcher"
	"github.com/example/ride-dispatch/pkg/logger"
)

type stubSnapshot struct {
	locations []*models.DriverLocation
}

func (s *stubSnapshot) LatestAll(_ context.Context) ([]*models.DriverLocation, error) {
	return s.locations, nil
}

func driverAt(lat, lon float64, online, available bool) *models.DriverLocation {
	return &models.DriverLocation{
		DriverID:  uuid.New(),
		Latitude:  lat,
		Longitude: lon,
		Online:    online,
		Available: available,
	}
}

func newMatcher(t *testing.T, snapshot *stubSnapshot, radius float64, max int) *matcher.Service {
	t.Helper()
	cfg := config.MatcherConfig{RadiusMeters: radius, MaxCandidates: max}
	return matcher.New(matcher.NewScanIndex(snapshot), cfg, logger.InitLogger("test", "ERROR"))
}

func TestFindCandidatesFiltersByRadius(t *testing.T) {
	pickup := models.Location{Latitude: 48.8566, Longitude: 2.3522}

	near := driverAt(48.8566, 2.3522, true, true)
	// Roughly 6 km north of the pickup, outside a 5 km radius.
	far := driverAt(48.9106, 2.3522, true, true)

	svc := newMatcher(t, &stubSnapshot{locations: []*models.DriverLocation{far, near}}, 5000, 10)

	got, err := svc.FindCandidates(context.Background(), pickup, "")
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, near.DriverID, got[0].DriverID)
}

func TestFindCandidatesSkipsOfflineAndBusy(t *testing.T) {
	pickup := models.Location{Latitude: 48.8566, Longitude: 2.3522}

	offline := driverAt(48.8566, 2.3522, false, true)
	busy := driverAt(48.8566, 2.3522, true, false)
	free := driverAt(48.8570, 2.3522, true, true)

	svc := newMatcher(t, &stubSnapshot{locations: []*models.DriverLocation{offline, busy, free}}, 5000, 10)

	got, err := svc.FindCandidates(context.Background(), pickup, "")
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, free.DriverID, got[0].DriverID)
}

func TestFindCandidatesOrdersByDistanceAndCaps(t *testing.T) {
	pickup := models.Location{Latitude: 48.8566, Longitude: 2.3522}

	closest := driverAt(48.8567, 2.3522, true, true)
	middle := driverAt(48.8600, 2.3522, true, true)
	farthest := driverAt(48.8700, 2.3522, true, true)

	snapshot := &stubSnapshot{locations: []*models.DriverLocation{farthest, closest, middle}}

	svc := newMatcher(t, snapshot, 5000, 2)

	got, err := svc.FindCandidates(context.Background(), pickup, "")
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, closest.DriverID, got[0].DriverID)
	require.Equal(t, middle.DriverID, got[1].DriverID)
	require.Less(t, got[0].DistanceMeters, got[1].DistanceMeters)
}

func TestFindCandidatesEmptyIsNotAnError(t *testing.T) {
	svc := newMatcher(t, &stubSnapshot{}, 5000, 10)

	got, err := svc.FindCandidates(context.Background(), models.Location{Latitude: 1, Longitude: 1}, "")
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestFindCandidatesFiltersByVehicleClass(t *testing.T) {
	pickup := models.Location{Latitude: 48.8566, Longitude: 2.3522}

	economy := driverAt(48.8566, 2.3522, true, true)
	economy.VehicleClass = types.ClassEconomy
	premium := driverAt(48.8570, 2.3522, true, true)
	premium.VehicleClass = types.ClassPremium

	svc := newMatcher(t, &stubSnapshot{locations: []*models.DriverLocation{economy, premium}}, 5000, 10)

	got, err := svc.FindCandidates(context.Background(), pickup, types.ClassPremium)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, premium.DriverID, got[0].DriverID)

	any, err := svc.FindCandidates(context.Background(), pickup, "")
	require.NoError(t, err)
	require.Len(t, any, 2)
}
