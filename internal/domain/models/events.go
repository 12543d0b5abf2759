package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/example/ride-dispatch/internal/domain/types"
)

// Channel keys for the broadcaster. Subscribers that reconnect must
// re-fetch current state; missed events are not replayed.
func RideChannel(rideID uuid.UUID) string {
	return "ride:" + rideID.String()
}

func DriverChannel(driverID uuid.UUID) string {
	return "driver:" + driverID.String()
}

const (
	EventRideUpdated     = "ride-updated"
	EventLocationUpdated = "location-updated"
)

// RideUpdatedEvent carries a full ride snapshot on every transition.
type RideUpdatedEvent struct {
	Type string `json:"type"` // always "ride-updated"
	Ride *Ride  `json:"ride"`
}

// LocationUpdatedEvent is the slim per-ping fan-out payload.
type LocationUpdatedEvent struct {
	Type      string    `json:"type"` // always "location-updated"
	DriverID  uuid.UUID `json:"driver_id"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Timestamp time.Time `json:"timestamp"`
}

// RideStatusMessage mirrors a transition onto the rabbit topic exchange
// so collaborating services (payments, notifications) can react.
type RideStatusMessage struct {
	RideID        uuid.UUID        `json:"ride_id"`
	OldStatus     types.RideStatus `json:"old_status"`
	NewStatus     types.RideStatus `json:"new_status"`
	DriverID      *uuid.UUID       `json:"driver_id,omitempty"`
	FinalFare     *float64         `json:"final_fare,omitempty"`
	Timestamp     time.Time        `json:"timestamp"`
	CorrelationID string           `json:"correlation_id"`
}

// LocationMessage mirrors a location ping onto the location fanout exchange.
type LocationMessage struct {
	DriverID  uuid.UUID  `json:"driver_id"`
	RideID    *uuid.UUID `json:"ride_id,omitempty"`
	Latitude  float64    `json:"latitude"`
	Longitude float64    `json:"longitude"`
	Timestamp time.Time  `json:"timestamp"`
}
