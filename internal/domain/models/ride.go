package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/example/ride-dispatch/internal/domain/types"
)

type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Address   string  `json:"address,omitempty"`
}

type Ride struct {
	ID          uuid.UUID        `json:"ride_id"`
	RideNumber  string           `json:"ride_number"`
	Status      types.RideStatus `json:"status"`
	PassengerID uuid.UUID        `json:"passenger_id"`
	DriverID    *uuid.UUID       `json:"driver_id,omitempty"`
	Pickup      Location         `json:"pickup"`
	Dropoff     Location         `json:"dropoff"`

	// Empty means any class will do.
	VehicleClass types.VehicleClass `json:"vehicle_class,omitempty"`

	EstimatedFare float64  `json:"estimated_fare"`
	FinalFare     *float64 `json:"final_fare,omitempty"`

	CancellationReason *string `json:"cancellation_reason,omitempty"`

	// One timestamp per successful transition. requested is CreatedAt.
	CreatedAt     time.Time  `json:"created_at"`
	MatchedAt     *time.Time `json:"matched_at,omitempty"`
	EnRouteAt     *time.Time `json:"en_route_at,omitempty"`
	ArrivedPickup *time.Time `json:"arrived_pickup_at,omitempty"`
	OnboardAt     *time.Time `json:"onboard_at,omitempty"`
	ArrivedDrop   *time.Time `json:"arrived_dropoff_at,omitempty"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
	CancelledAt   *time.Time `json:"cancelled_at,omitempty"`
}

// Assigned reports whether a driver has won the ride.
func (r *Ride) Assigned() bool {
	return r.DriverID != nil
}

// Candidate is one matcher result: a driver ranked by straight-line
// distance to the pickup point.
type Candidate struct {
	DriverID       uuid.UUID `json:"driver_id"`
	DistanceMeters float64   `json:"distance_meters"`
}

// RideFilter scopes the listing query used by the manual-acceptance flow.
type RideFilter struct {
	Status       types.RideStatus
	Near         *Location
	RadiusMeters float64
	Limit        int
}

// TransitionOpts carries the fields only some transitions set.
type TransitionOpts struct {
	FinalFare          *float64
	CancellationReason *string
}
