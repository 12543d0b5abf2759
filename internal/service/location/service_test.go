package location_test

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	adapterredis "github.com/example/ride-dispatch/internal/adapter/redis"
	"github.com/example/ride-dispatch/internal/domain/models"
	"github.com/example/ride-dispatch/internal/domain/types"
	"github.com/example/ride-dispatch/internal/service/location"
	"github.com/example/ride-dispatch/pkg/logger"
)

// memHistory is an in-memory stand-in for the postgres history repo.
type memHistory struct {
	rows []*models.DriverLocation
}

func (m *memHistory) Insert(_ context.Context, loc *models.DriverLocation) error {
	cp := *loc
	m.rows = append(m.rows, &cp)
	return nil
}

func (m *memHistory) Latest(_ context.Context, driverID uuid.UUID) (*models.DriverLocation, error) {
	var latest *models.DriverLocation
	for _, row := range m.rows {
		if row.DriverID != driverID {
			continue
		}
		if latest == nil || row.RecordedAt.After(latest.RecordedAt) {
			latest = row
		}
	}
	if latest == nil {
		return nil, types.ErrLocationNotFound
	}
	cp := *latest
	return &cp, nil
}

func (m *memHistory) History(_ context.Context, driverID uuid.UUID, limit int, rideID *uuid.UUID) ([]*models.DriverLocation, error) {
	var out []*models.DriverLocation
	for _, row := range m.rows {
		if row.DriverID != driverID {
			continue
		}
		if rideID != nil && (row.RideID == nil || *row.RideID != *rideID) {
			continue
		}
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RecordedAt.After(out[j].RecordedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memHistory) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	var kept []*models.DriverLocation
	var deleted int64
	for _, row := range m.rows {
		if row.RecordedAt.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, row)
	}
	m.rows = kept
	return deleted, nil
}

type noRides struct{}

func (noRides) ActiveRideForDriver(_ context.Context, _ uuid.UUID) (*uuid.UUID, error) {
	return nil, nil
}

type recordingHub struct {
	events map[string][]any
}

func (h *recordingHub) Publish(key string, event any) {
	if h.events == nil {
		h.events = map[string][]any{}
	}
	h.events[key] = append(h.events[key], event)
}

func newService(t *testing.T) (*location.Service, *memHistory, *adapterredis.LocationCache) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	cache := adapterredis.NewLocationCache(client, time.Minute)
	history := &memHistory{}
	svc := location.New(history, cache, noRides{}, &recordingHub{}, nil, logger.InitLogger("test", "ERROR"))
	return svc, history, cache
}

func ping(driverID uuid.UUID, lat, lon float64, at time.Time) *models.DriverLocation {
	return &models.DriverLocation{
		DriverID:   driverID,
		Latitude:   lat,
		Longitude:  lon,
		RecordedAt: at,
		Online:     true,
		Available:  true,
	}
}

func TestRecordThenLatestServedFromCache(t *testing.T) {
	svc, history, _ := newService(t)
	ctx := context.Background()
	driverID := uuid.New()

	require.NoError(t, svc.Record(ctx, ping(driverID, 48.85, 2.35, time.Now().UTC())))

	// Remove the durable row; a cache hit must not touch the history.
	history.rows = nil

	got, err := svc.Latest(ctx, driverID)
	require.NoError(t, err)
	require.InDelta(t, 48.85, got.Latitude, 1e-9)
	require.InDelta(t, 2.35, got.Longitude, 1e-9)
}

func TestLatestFallsBackAndRepopulates(t *testing.T) {
	svc, _, cache := newService(t)
	ctx := context.Background()
	driverID := uuid.New()

	require.NoError(t, svc.Record(ctx, ping(driverID, 10, 20, time.Now().UTC())))
	require.NoError(t, cache.Evict(ctx, driverID))

	got, err := svc.Latest(ctx, driverID)
	require.NoError(t, err)
	require.InDelta(t, 10.0, got.Latitude, 1e-9)

	// The miss must have repopulated the cache.
	cached, err := cache.Get(ctx, driverID)
	require.NoError(t, err)
	require.InDelta(t, 10.0, cached.Latitude, 1e-9)
}

func TestLatestUnknownDriver(t *testing.T) {
	svc, _, _ := newService(t)

	_, err := svc.Latest(context.Background(), uuid.New())
	require.ErrorIs(t, err, types.ErrLocationNotFound)
}

func TestHistoryNewestFirstWithLimit(t *testing.T) {
	svc, _, _ := newService(t)
	ctx := context.Background()
	driverID := uuid.New()

	base := time.Now().UTC().Truncate(time.Second)
	for i := 0; i < 3; i++ {
		require.NoError(t, svc.Record(ctx, ping(driverID, float64(i), 0, base.Add(time.Duration(i)*time.Second))))
	}

	got, err := svc.History(ctx, driverID, 2, nil)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.InDelta(t, 2.0, got[0].Latitude, 1e-9)
	require.InDelta(t, 1.0, got[1].Latitude, 1e-9)
}

func TestRecordFansOutToDriverChannel(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	hub := &recordingHub{}
	svc := location.New(&memHistory{}, adapterredis.NewLocationCache(client, time.Minute),
		noRides{}, hub, nil, logger.InitLogger("test", "ERROR"))

	driverID := uuid.New()
	require.NoError(t, svc.Record(context.Background(), ping(driverID, 1, 2, time.Now().UTC())))

	events := hub.events[models.DriverChannel(driverID)]
	require.Len(t, events, 1)
	evt, ok := events[0].(models.LocationUpdatedEvent)
	require.True(t, ok)
	require.Equal(t, models.EventLocationUpdated, evt.Type)
	require.Equal(t, driverID, evt.DriverID)
}
