package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/example/ride-dispatch/internal/domain/models"
	"github.com/example/ride-dispatch/internal/domain/types"
	"github.com/example/ride-dispatch/pkg/validator"
)

// LocationPingRequest is one driver position report. The availability
// flags ride along on every ping and drive the matcher's filter.
type LocationPingRequest struct {
	RideID         *uuid.UUID `json:"ride_id"`
	Latitude       *float64   `json:"latitude"`
	Longitude      *float64   `json:"longitude"`
	AccuracyMeters float64    `json:"accuracy_meters"`
	SpeedKmh       float64    `json:"speed_kmh"`
	HeadingDegrees float64    `json:"heading_degrees"`
	BatteryPercent float64    `json:"battery_percent"`
	RecordedAt     *time.Time `json:"recorded_at"`
	Online         *bool      `json:"online"`
	Available      *bool      `json:"available"`

	VehicleClass types.VehicleClass `json:"vehicle_class"`
}

func (r *LocationPingRequest) Validate(v *validator.Validator) {
	if r.Latitude == nil || r.Longitude == nil {
		v.Check(r.Latitude != nil, "latitude", "must be provided")
		v.Check(r.Longitude != nil, "longitude", "must be provided")
	} else {
		v.Check(validator.ValidCoordinate(*r.Latitude, *r.Longitude), "coordinates", "must be a valid coordinate pair")
	}
	v.Check(r.AccuracyMeters >= 0, "accuracy_meters", "must not be negative")
	v.Check(r.SpeedKmh >= 0, "speed_kmh", "must not be negative")
	v.Check(r.HeadingDegrees >= 0 && r.HeadingDegrees < 360, "heading_degrees", "must be in [0, 360)")
	v.Check(r.BatteryPercent >= 0 && r.BatteryPercent <= 100, "battery_percent", "must be between 0 and 100")
	if r.VehicleClass != "" {
		v.Check(validator.PermittedValue(r.VehicleClass,
			types.ClassEconomy, types.ClassPremium, types.ClassXL),
			"vehicle_class", "must be one of ECONOMY, PREMIUM, XL")
	}
}

func (r *LocationPingRequest) ToModel(driverID uuid.UUID) *models.DriverLocation {
	loc := &models.DriverLocation{
		DriverID:       driverID,
		RideID:         r.RideID,
		Latitude:       *r.Latitude,
		Longitude:      *r.Longitude,
		AccuracyMeters: r.AccuracyMeters,
		SpeedKmh:       r.SpeedKmh,
		HeadingDegrees: r.HeadingDegrees,
		BatteryPercent: r.BatteryPercent,
		VehicleClass:   r.VehicleClass,

		// Missing flags default to an active, matchable driver.
		Online:    true,
		Available: true,
	}
	if r.RecordedAt != nil {
		loc.RecordedAt = r.RecordedAt.UTC()
	}
	if r.Online != nil {
		loc.Online = *r.Online
	}
	if r.Available != nil {
		loc.Available = *r.Available
	}
	return loc
}
