package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/example/ride-dispatch/internal/domain/types"
)

// DriverLocation is one location ping. The durable history is append-only;
// readers must order by RecordedAt, never by write arrival.
type DriverLocation struct {
	DriverID       uuid.UUID  `json:"driver_id"`
	RideID         *uuid.UUID `json:"ride_id,omitempty"`
	Latitude       float64    `json:"latitude"`
	Longitude      float64    `json:"longitude"`
	AccuracyMeters float64    `json:"accuracy_meters,omitempty"`
	SpeedKmh       float64    `json:"speed_kmh,omitempty"`
	HeadingDegrees float64    `json:"heading_degrees,omitempty"`
	BatteryPercent float64    `json:"battery_percent,omitempty"`
	RecordedAt     time.Time  `json:"recorded_at"`

	// Availability flags carried on every ping; the matcher filters on both.
	Online    bool `json:"online"`
	Available bool `json:"available"`

	VehicleClass types.VehicleClass `json:"vehicle_class,omitempty"`
}

// Point returns the coordinate pair of the ping.
func (l DriverLocation) Point() Location {
	return Location{Latitude: l.Latitude, Longitude: l.Longitude}
}
