package location

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/example/ride-dispatch/internal/domain/models"
)

// HistoryRepo is the durable, append-only side of the store.
type HistoryRepo interface {
	Insert(ctx context.Context, loc *models.DriverLocation) error
	Latest(ctx context.Context, driverID uuid.UUID) (*models.DriverLocation, error)
	History(ctx context.Context, driverID uuid.UUID, limit int, rideID *uuid.UUID) ([]*models.DriverLocation, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// Cache is the ephemeral latest-position side. Reads return the
// adapter's miss sentinel when the entry expired or never existed.
type Cache interface {
	Set(ctx context.Context, loc *models.DriverLocation) error
	Get(ctx context.Context, driverID uuid.UUID) (*models.DriverLocation, error)
	Evict(ctx context.Context, driverID uuid.UUID) error
}

// ActiveRideSource resolves the driver's in-progress ride so pings can
// fan out to its subscribers too. Nil, nil means no active ride.
type ActiveRideSource interface {
	ActiveRideForDriver(ctx context.Context, driverID uuid.UUID) (*uuid.UUID, error)
}

// Broadcaster fans events out to in-process websocket subscribers.
type Broadcaster interface {
	Publish(key string, event any)
}

// EventPublisher mirrors pings onto the location fanout exchange.
type EventPublisher interface {
	PublishLocation(ctx context.Context, msg models.LocationMessage) error
}
