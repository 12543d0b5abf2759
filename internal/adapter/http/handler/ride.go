package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/example/ride-dispatch/internal/adapter/http/handler/dto"
	"github.com/example/ride-dispatch/internal/domain/models"
	"github.com/example/ride-dispatch/internal/domain/types"
	"github.com/example/ride-dispatch/pkg/logger"
	wrap "github.com/example/ride-dispatch/pkg/logger/wrapper"
	"github.com/example/ride-dispatch/pkg/validator"
)

type Ride struct {
	rides      RideService
	dispatcher Dispatcher
	l          logger.Logger
}

type RideService interface {
	Get(ctx context.Context, rideID uuid.UUID) (*models.Ride, error)
	List(ctx context.Context, filter models.RideFilter) ([]*models.Ride, error)
	Transition(ctx context.Context, rideID uuid.UUID, from, to types.RideStatus, opts models.TransitionOpts) (*models.Ride, error)
	Cancel(ctx context.Context, rideID uuid.UUID, from, to types.RideStatus, reason string) (*models.Ride, error)
}

type Dispatcher interface {
	RequestRide(ctx context.Context, ride *models.Ride) (*models.Ride, error)
	AcceptRide(ctx context.Context, rideID, driverID uuid.UUID) (*models.Ride, error)
}

func NewRide(rides RideService, dispatcher Dispatcher, l logger.Logger) *Ride {
	return &Ride{
		rides:      rides,
		dispatcher: dispatcher,
		l:          l,
	}
}

// Create godoc
// @Summary      Request a ride
// @Description  Creates a REQUESTED ride and tries to auto-assign a nearby driver
// @Tags         Rides
// @Accept       json
// @Produce      json
// @Param        request body dto.CreateRideRequest true "Ride request"
// @Success      201  {object}  map[string]any
// @Failure      422  {object}  map[string]any
// @Router       /rides [post]
func (h *Ride) Create(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "create_ride")

	var req dto.CreateRideRequest
	if err := readJSON(w, r, &req); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to read request JSON data", err)
		errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	v := validator.New()
	req.Validate(v)
	if !v.Valid() {
		h.l.Warn(ctx, "invalid request data")
		failedValidationResponse(w, v.Errors)
		return
	}

	ride, err := h.dispatcher.RequestRide(ctx, req.ToModel())
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to create ride", err)
		errorResponse(w, GetCode(err), err.Error())
		return
	}

	response := envelope{"ride": ride}
	if err := writeJSON(w, http.StatusCreated, response, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write response", err)
		internalErrorResponse(w, err.Error())
		return
	}

	h.l.Info(ctx, "ride requested", "ride_id", ride.ID, "status", ride.Status)
}

// Get godoc
// @Summary      Get a ride
// @Tags         Rides
// @Produce      json
// @Param        ride_id path string true "Ride ID"
// @Success      200  {object}  map[string]any
// @Failure      404  {object}  map[string]any
// @Router       /rides/{ride_id} [get]
func (h *Ride) Get(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "get_ride")

	rideID, err := uuid.Parse(r.PathValue("ride_id"))
	if err != nil {
		h.l.Warn(ctx, "invalid ride uuid format")
		errorResponse(w, http.StatusBadRequest, "invalid ride uuid format")
		return
	}

	ride, err := h.rides.Get(ctx, rideID)
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to get ride", err)
		errorResponse(w, GetCode(err), err.Error())
		return
	}

	if err := writeJSON(w, http.StatusOK, envelope{"ride": ride}, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write response", err)
		internalErrorResponse(w, err.Error())
	}
}

// List godoc
// @Summary      List rides
// @Description  Drivers browse open rides, optionally around a point
// @Tags         Rides
// @Produce      json
// @Param        status query string false "Filter by status"
// @Param        limit  query int    false "Max rides to return"
// @Param        near   query string false "lat,lon center for the radius filter"
// @Param        radius query number false "Radius in meters around near"
// @Success      200  {object}  map[string]any
// @Failure      422  {object}  map[string]any
// @Router       /rides [get]
func (h *Ride) List(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "list_rides")

	filter := models.RideFilter{
		Status: types.RideStatus(r.URL.Query().Get("status")),
		Limit:  queryInt(r, "limit", 50),
	}

	if raw := r.URL.Query().Get("near"); raw != "" {
		near, err := parseLatLon(raw)
		if err != nil {
			failedValidationResponse(w, map[string]string{"near": err.Error()})
			return
		}
		filter.Near = near
		filter.RadiusMeters = queryFloat(r, "radius", 0)
	}

	rides, err := h.rides.List(ctx, filter)
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to list rides", err)
		errorResponse(w, GetCode(err), err.Error())
		return
	}

	response := envelope{"rides": rides, "count": len(rides)}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write response", err)
		internalErrorResponse(w, err.Error())
	}
}

// UpdateStatus godoc
// @Summary      Transition a ride
// @Description  Compare-and-swap status change; the body carries the status the caller last saw
// @Tags         Rides
// @Accept       json
// @Produce      json
// @Param        ride_id path string true "Ride ID"
// @Param        request body dto.UpdateStatusRequest true "Transition"
// @Success      200  {object}  map[string]any
// @Failure      400  {object}  map[string]any
// @Failure      404  {object}  map[string]any
// @Failure      409  {object}  map[string]any
// @Router       /rides/{ride_id}/status [patch]
func (h *Ride) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "update_ride_status")

	rideID, err := uuid.Parse(r.PathValue("ride_id"))
	if err != nil {
		h.l.Warn(ctx, "invalid ride uuid format")
		errorResponse(w, http.StatusBadRequest, "invalid ride uuid format")
		return
	}

	var req dto.UpdateStatusRequest
	if err := readJSON(w, r, &req); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to read request JSON data", err)
		errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	v := validator.New()
	req.Validate(v)
	if !v.Valid() {
		h.l.Warn(ctx, "invalid request data")
		failedValidationResponse(w, v.Errors)
		return
	}

	var ride *models.Ride
	switch req.Status {
	case types.StatusCancelled, types.StatusNoShow:
		ride, err = h.rides.Cancel(ctx, rideID, req.From, req.Status, req.Reason)
	default:
		ride, err = h.rides.Transition(ctx, rideID, req.From, req.Status, req.Opts())
	}
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to transition ride", err)
		errorResponse(w, GetCode(err), err.Error())
		return
	}

	if err := writeJSON(w, http.StatusOK, envelope{"ride": ride}, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write response", err)
		internalErrorResponse(w, err.Error())
		return
	}

	h.l.Info(ctx, "ride status updated", "ride_id", rideID, "status", ride.Status)
}

// Accept godoc
// @Summary      Driver accepts a ride
// @Tags         Rides
// @Accept       json
// @Produce      json
// @Param        ride_id path string true "Ride ID"
// @Param        request body dto.AcceptRideRequest true "Driver"
// @Success      200  {object}  map[string]any
// @Failure      409  {object}  map[string]any
// @Router       /rides/{ride_id}/accept [post]
func (h *Ride) Accept(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "accept_ride")

	rideID, err := uuid.Parse(r.PathValue("ride_id"))
	if err != nil {
		h.l.Warn(ctx, "invalid ride uuid format")
		errorResponse(w, http.StatusBadRequest, "invalid ride uuid format")
		return
	}

	var req dto.AcceptRideRequest
	if err := readJSON(w, r, &req); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to read request JSON data", err)
		errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	v := validator.New()
	req.Validate(v)
	if !v.Valid() {
		h.l.Warn(ctx, "invalid request data")
		failedValidationResponse(w, v.Errors)
		return
	}

	ride, err := h.dispatcher.AcceptRide(ctx, rideID, req.DriverID)
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to accept ride", err)
		errorResponse(w, GetCode(err), err.Error())
		return
	}

	if err := writeJSON(w, http.StatusOK, envelope{"ride": ride}, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write response", err)
		internalErrorResponse(w, err.Error())
		return
	}

	h.l.Info(ctx, "ride accepted", "ride_id", rideID, "driver_id", req.DriverID)
}

// Start moves a ride to PASSENGER_ONBOARD from the driver's current
// view of the lifecycle.
func (h *Ride) Start(w http.ResponseWriter, r *http.Request) {
	h.shortcut(w, r, "start_ride", types.StatusPassengerOnboard, models.TransitionOpts{})
}

// Complete godoc
// @Summary      Complete a ride
// @Tags         Rides
// @Accept       json
// @Produce      json
// @Param        ride_id path string true "Ride ID"
// @Param        request body dto.CompleteRideRequest true "Final fare"
// @Success      200  {object}  map[string]any
// @Router       /rides/{ride_id}/complete [post]
func (h *Ride) Complete(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "complete_ride")

	var req dto.CompleteRideRequest
	if err := readJSON(w, r, &req); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to read request JSON data", err)
		errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	v := validator.New()
	req.Validate(v)
	if !v.Valid() {
		h.l.Warn(ctx, "invalid request data")
		failedValidationResponse(w, v.Errors)
		return
	}

	h.shortcutCtx(ctx, w, r, types.StatusCompleted, models.TransitionOpts{FinalFare: req.FinalFare})
}

// Cancel godoc
// @Summary      Cancel a ride
// @Tags         Rides
// @Accept       json
// @Produce      json
// @Param        ride_id path string true "Ride ID"
// @Param        request body dto.CancelRideRequest true "Cancellation"
// @Success      200  {object}  map[string]any
// @Failure      409  {object}  map[string]any
// @Router       /rides/{ride_id}/cancel [post]
func (h *Ride) Cancel(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "cancel_ride")

	rideID, err := uuid.Parse(r.PathValue("ride_id"))
	if err != nil {
		h.l.Warn(ctx, "invalid ride uuid format")
		errorResponse(w, http.StatusBadRequest, "invalid ride uuid format")
		return
	}

	var req dto.CancelRideRequest
	if err := readJSON(w, r, &req); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to read request JSON data", err)
		errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	v := validator.New()
	req.Validate(v)
	if !v.Valid() {
		h.l.Warn(ctx, "invalid request data")
		failedValidationResponse(w, v.Errors)
		return
	}

	from := req.From
	if from == "" {
		ride, err := h.rides.Get(ctx, rideID)
		if err != nil {
			h.l.Error(wrap.ErrorCtx(ctx, err), "failed to load ride", err)
			errorResponse(w, GetCode(err), err.Error())
			return
		}
		from = ride.Status
	}

	target := types.StatusCancelled
	if req.NoShow {
		target = types.StatusNoShow
	}

	ride, err := h.rides.Cancel(ctx, rideID, from, target, req.Reason)
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to cancel ride", err)
		errorResponse(w, GetCode(err), err.Error())
		return
	}

	if err := writeJSON(w, http.StatusOK, envelope{"ride": ride}, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write response", err)
		internalErrorResponse(w, err.Error())
		return
	}

	h.l.Info(ctx, "ride cancelled", "ride_id", rideID, "status", ride.Status)
}

// shortcut runs a transition wrapper that derives the expected current
// status from a fresh read. The swap still protects against a
// concurrent change between the read and the update.
func (h *Ride) shortcut(w http.ResponseWriter, r *http.Request, action string, target types.RideStatus, opts models.TransitionOpts) {
	ctx := wrap.WithAction(r.Context(), action)
	h.shortcutCtx(ctx, w, r, target, opts)
}

func (h *Ride) shortcutCtx(ctx context.Context, w http.ResponseWriter, r *http.Request, target types.RideStatus, opts models.TransitionOpts) {
	rideID, err := uuid.Parse(r.PathValue("ride_id"))
	if err != nil {
		h.l.Warn(ctx, "invalid ride uuid format")
		errorResponse(w, http.StatusBadRequest, "invalid ride uuid format")
		return
	}

	current, err := h.rides.Get(ctx, rideID)
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to load ride", err)
		errorResponse(w, GetCode(err), err.Error())
		return
	}

	ride, err := h.rides.Transition(ctx, rideID, current.Status, target, opts)
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to transition ride", err)
		errorResponse(w, GetCode(err), err.Error())
		return
	}

	if err := writeJSON(w, http.StatusOK, envelope{"ride": ride}, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write response", err)
		internalErrorResponse(w, err.Error())
		return
	}

	h.l.Info(ctx, "ride transitioned", "ride_id", rideID, "status", ride.Status)
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}

func queryFloat(r *http.Request, key string, fallback float64) float64 {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback
	}
	return f
}

// parseLatLon parses a "lat,lon" query value.
func parseLatLon(raw string) (*models.Location, error) {
	parts := strings.SplitN(raw, ",", 2)
	if len(parts) != 2 {
		return nil, errors.New("must be lat,lon")
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return nil, errors.New("latitude must be a number")
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return nil, errors.New("longitude must be a number")
	}
	if !validator.ValidCoordinate(lat, lon) {
		return nil, errors.New("coordinates out of range")
	}
	return &models.Location{Latitude: lat, Longitude: lon}, nil
}
