package dto

import (
	"github.com/google/uuid"

	"github.com/example/ride-dispatch/internal/domain/models"
	"github.com/example/ride-dispatch/internal/domain/types"
	"github.com/example/ride-dispatch/pkg/validator"
)

type LocationDTO struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Address   string   `json:"address"`
}

func (l *LocationDTO) validate(v *validator.Validator, field string) {
	if l.Latitude == nil || l.Longitude == nil {
		v.Check(l.Latitude != nil, field+".latitude", "must be provided")
		v.Check(l.Longitude != nil, field+".longitude", "must be provided")
		return
	}
	v.Check(validator.ValidCoordinate(*l.Latitude, *l.Longitude), field, "must be a valid coordinate pair")
}

func (l *LocationDTO) toModel() models.Location {
	return models.Location{
		Latitude:  *l.Latitude,
		Longitude: *l.Longitude,
		Address:   l.Address,
	}
}

type CreateRideRequest struct {
	PassengerID  uuid.UUID          `json:"passenger_id"`
	Pickup       LocationDTO        `json:"pickup"`
	Dropoff      LocationDTO        `json:"dropoff"`
	VehicleClass types.VehicleClass `json:"vehicle_class"`
}

func (r *CreateRideRequest) Validate(v *validator.Validator) {
	v.Check(r.PassengerID != uuid.Nil, "passenger_id", "must be provided")
	r.Pickup.validate(v, "pickup")
	r.Dropoff.validate(v, "dropoff")
	if r.VehicleClass != "" {
		v.Check(validator.PermittedValue(r.VehicleClass,
			types.ClassEconomy, types.ClassPremium, types.ClassXL),
			"vehicle_class", "must be one of ECONOMY, PREMIUM, XL")
	}
}

func (r *CreateRideRequest) ToModel() *models.Ride {
	return &models.Ride{
		PassengerID:  r.PassengerID,
		Pickup:       r.Pickup.toModel(),
		Dropoff:      r.Dropoff.toModel(),
		VehicleClass: r.VehicleClass,
	}
}

// UpdateStatusRequest is the generic transition body. From is the
// status the caller last saw; the swap fails with a conflict when the
// ride has moved on since.
type UpdateStatusRequest struct {
	From      types.RideStatus `json:"from"`
	Status    types.RideStatus `json:"status"`
	FinalFare *float64         `json:"final_fare"`
	Reason    string           `json:"reason"`
}

func (r *UpdateStatusRequest) Validate(v *validator.Validator) {
	v.Check(r.From != "", "from", "must be provided")
	v.Check(r.Status != "", "status", "must be provided")
	v.Check(types.ValidStatus(r.From), "from", "must be a known ride status")
	v.Check(types.ValidStatus(r.Status), "status", "must be a known ride status")
	if r.FinalFare != nil {
		v.Check(*r.FinalFare >= 0, "final_fare", "must not be negative")
	}
}

func (r *UpdateStatusRequest) Opts() models.TransitionOpts {
	opts := models.TransitionOpts{FinalFare: r.FinalFare}
	if r.Reason != "" {
		reason := r.Reason
		opts.CancellationReason = &reason
	}
	return opts
}

type AcceptRideRequest struct {
	DriverID uuid.UUID `json:"driver_id"`
}

func (r *AcceptRideRequest) Validate(v *validator.Validator) {
	v.Check(r.DriverID != uuid.Nil, "driver_id", "must be provided")
}

type CompleteRideRequest struct {
	FinalFare *float64 `json:"final_fare"`
}

func (r *CompleteRideRequest) Validate(v *validator.Validator) {
	if r.FinalFare != nil {
		v.Check(*r.FinalFare >= 0, "final_fare", "must not be negative")
	}
}

type CancelRideRequest struct {
	From   types.RideStatus `json:"from"`
	Reason string           `json:"reason"`
	NoShow bool             `json:"no_show"`
}

func (r *CancelRideRequest) Validate(v *validator.Validator) {
	if r.From != "" {
		v.Check(types.ValidStatus(r.From), "from", "must be a known ride status")
	}
	v.Check(r.Reason != "", "reason", "must be provided")
	v.Check(len(r.Reason) < 500, "reason", "must be less than 500 characters")
}
