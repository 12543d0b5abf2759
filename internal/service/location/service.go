// Package location is the two-tier location store: an append-only
// postgres history that is always the source of truth, and a TTL redis
// cache for the hot latest-position read. The cache is best effort;
// losing it degrades read latency, never correctness.
package location

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/example/ride-dispatch/internal/domain/models"
	"github.com/example/ride-dispatch/internal/domain/types"
	"github.com/example/ride-dispatch/pkg/logger"
	wrap "github.com/example/ride-dispatch/pkg/logger/wrapper"
	"github.com/example/ride-dispatch/pkg/metrics"
)

const defaultHistoryLimit = 100

type Service struct {
	history HistoryRepo
	cache   Cache
	rides   ActiveRideSource
	hub     Broadcaster
	broker  EventPublisher
	latest  *latestStrategy
	logger  logger.Logger
}

// New wires the store. broker may be nil when no rabbit connection is
// configured; pings then stay in-process only.
func New(history HistoryRepo, cache Cache, rides ActiveRideSource, hub Broadcaster, broker EventPublisher, logger logger.Logger) *Service {
	return &Service{
		history: history,
		cache:   cache,
		rides:   rides,
		hub:     hub,
		broker:  broker,
		latest:  newLatestStrategy(cache, history, logger),
		logger:  logger,
	}
}

// Record persists one ping. The durable insert must succeed; every
// side effect after it (cache, fan-out, rabbit) is best effort.
func (s *Service) Record(ctx context.Context, loc *models.DriverLocation) error {
	ctx = wrap.WithAction(ctx, "record_location")
	ctx = wrap.WithDriverID(ctx, loc.DriverID.String())

	if loc.RecordedAt.IsZero() {
		loc.RecordedAt = time.Now().UTC()
	}

	if err := s.history.Insert(ctx, loc); err != nil {
		return wrap.Error(ctx, fmt.Errorf("durable insert: %w", err))
	}
	metrics.LocationWritesTotal.Inc()

	if err := s.cache.Set(ctx, loc); err != nil {
		s.logger.Warn(wrap.WithAction(ctx, types.ActionCacheDegraded),
			"latest-position cache write failed", "error", err)
	}

	s.fanOut(ctx, loc)
	return nil
}

// Latest returns the freshest known position for a driver, preferring
// the cache and falling back to the durable history on a miss.
func (s *Service) Latest(ctx context.Context, driverID uuid.UUID) (*models.DriverLocation, error) {
	ctx = wrap.WithAction(ctx, "latest_location")
	ctx = wrap.WithDriverID(ctx, driverID.String())

	return s.latest.Get(ctx, driverID)
}

// History returns up to limit pings for a driver, newest first,
// optionally restricted to a single ride.
func (s *Service) History(ctx context.Context, driverID uuid.UUID, limit int, rideID *uuid.UUID) ([]*models.DriverLocation, error) {
	ctx = wrap.WithAction(ctx, "location_history")
	ctx = wrap.WithDriverID(ctx, driverID.String())

	if limit <= 0 || limit > 1000 {
		limit = defaultHistoryLimit
	}
	locations, err := s.history.History(ctx, driverID, limit, rideID)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}
	return locations, nil
}

func (s *Service) fanOut(ctx context.Context, loc *models.DriverLocation) {
	event := models.LocationUpdatedEvent{
		Type:      models.EventLocationUpdated,
		DriverID:  loc.DriverID,
		Latitude:  loc.Latitude,
		Longitude: loc.Longitude,
		Timestamp: loc.RecordedAt,
	}

	s.hub.Publish(models.DriverChannel(loc.DriverID), event)

	rideID := loc.RideID
	if rideID == nil {
		id, err := s.rides.ActiveRideForDriver(ctx, loc.DriverID)
		if err != nil {
			s.logger.Warn(ctx, "active ride lookup failed", "error", err)
		} else {
			rideID = id
		}
	}
	if rideID != nil {
		s.hub.Publish(models.RideChannel(*rideID), event)
	}

	if s.broker != nil {
		msg := models.LocationMessage{
			DriverID:  loc.DriverID,
			RideID:    rideID,
			Latitude:  loc.Latitude,
			Longitude: loc.Longitude,
			Timestamp: loc.RecordedAt,
		}
		if err := s.broker.PublishLocation(ctx, msg); err != nil {
			s.logger.Warn(ctx, "location publish failed", "error", err)
		}
	}
}
