package ride

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/example/ride-dispatch/internal/domain/models"
	"github.com/example/ride-dispatch/internal/domain/types"
)

type RideRepo interface {
	Create(ctx context.Context, ride *models.Ride) (*models.Ride, error)
	Get(ctx context.Context, rideID uuid.UUID) (*models.Ride, error)
	List(ctx context.Context, filter models.RideFilter) ([]*models.Ride, error)
	CompareAndSwapStatus(ctx context.Context, rideID uuid.UUID, from, to types.RideStatus, at time.Time, opts models.TransitionOpts) (bool, error)
	AssignDriver(ctx context.Context, rideID, driverID uuid.UUID, at time.Time) (bool, error)
	CountByDate(ctx context.Context, date time.Time) (int, error)
}

// Broadcaster fans ride snapshots out to websocket subscribers.
type Broadcaster interface {
	Publish(key string, event any)
}

// EventPublisher mirrors transitions onto the ride topic exchange.
type EventPublisher interface {
	PublishRideStatus(ctx context.Context, msg models.RideStatusMessage) error
}
