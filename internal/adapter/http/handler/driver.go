package handler

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/example/ride-dispatch/internal/adapter/http/handler/dto"
	"github.com/example/ride-dispatch/internal/domain/models"
	"github.com/example/ride-dispatch/pkg/logger"
	wrap "github.com/example/ride-dispatch/pkg/logger/wrapper"
	"github.com/example/ride-dispatch/pkg/validator"
)

type Driver struct {
	locations LocationService
	l         logger.Logger
}

type LocationService interface {
	Record(ctx context.Context, loc *models.DriverLocation) error
	Latest(ctx context.Context, driverID uuid.UUID) (*models.DriverLocation, error)
	History(ctx context.Context, driverID uuid.UUID, limit int, rideID *uuid.UUID) ([]*models.DriverLocation, error)
}

func NewDriver(locations LocationService, l logger.Logger) *Driver {
	return &Driver{
		locations: locations,
		l:         l,
	}
}

// UpdateLocation godoc
// @Summary      Report a driver position
// @Description  Appends one ping to the durable history and refreshes the latest-position cache
// @Tags         Drivers
// @Accept       json
// @Produce      json
// @Param        driver_id path string true "Driver ID"
// @Param        request body dto.LocationPingRequest true "Position"
// @Success      200  {object}  map[string]any
// @Failure      422  {object}  map[string]any
// @Router       /drivers/{driver_id}/location [post]
func (h *Driver) UpdateLocation(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "update_driver_location")

	driverID, err := uuid.Parse(r.PathValue("driver_id"))
	if err != nil {
		h.l.Warn(ctx, "invalid driver uuid format")
		errorResponse(w, http.StatusBadRequest, "invalid driver uuid format")
		return
	}

	var req dto.LocationPingRequest
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

	loc := req.ToModel(driverID)
	if err := h.locations.Record(ctx, loc); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to record driver location", err)
		errorResponse(w, GetCode(err), err.Error())
		return
	}

	response := envelope{
		"driver_id":   driverID,
		"recorded_at": loc.RecordedAt,
	}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write response", err)
		internalErrorResponse(w, err.Error())
	}
}

// GetLocation godoc
// @Summary      Latest driver position
// @Tags         Drivers
// @Produce      json
// @Param        driver_id path string true "Driver ID"
// @Success      200  {object}  map[string]any
// @Failure      404  {object}  map[string]any
// @Router       /drivers/{driver_id}/location [get]
func (h *Driver) GetLocation(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "get_driver_location")

	driverID, err := uuid.Parse(r.PathValue("driver_id"))
	if err != nil {
		h.l.Warn(ctx, "invalid driver uuid format")
		errorResponse(w, http.StatusBadRequest, "invalid driver uuid format")
		return
	}

	loc, err := h.locations.Latest(ctx, driverID)
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to get driver location", err)
		errorResponse(w, GetCode(err), err.Error())
		return
	}

	if err := writeJSON(w, http.StatusOK, envelope{"location": loc}, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write response", err)
		internalErrorResponse(w, err.Error())
	}
}

// GetHistory godoc
// @Summary      Driver position history
// @Tags         Drivers
// @Produce      json
// @Param        driver_id path string true "Driver ID"
// @Param        limit   query int    false "Max pings to return"
// @Param        ride_id query string false "Restrict to one ride"
// @Success      200  {object}  map[string]any
// @Router       /drivers/{driver_id}/location/history [get]
func (h *Driver) GetHistory(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "get_driver_location_history")

	driverID, err := uuid.Parse(r.PathValue("driver_id"))
	if err != nil {
		h.l.Warn(ctx, "invalid driver uuid format")
		errorResponse(w, http.StatusBadRequest, "invalid driver uuid format")
		return
	}

	var rideID *uuid.UUID
	if raw := r.URL.Query().Get("ride_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			h.l.Warn(ctx, "invalid ride uuid format")
			errorResponse(w, http.StatusBadRequest, "invalid ride uuid format")
			return
		}
		rideID = &id
	}

	locations, err := h.locations.History(ctx, driverID, queryInt(r, "limit", 100), rideID)
	if err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to get driver location history", err)
		errorResponse(w, GetCode(err), err.Error())
		return
	}

	response := envelope{"locations": locations, "count": len(locations)}
	if err := writeJSON(w, http.StatusOK, response, nil); err != nil {
		h.l.Error(wrap.ErrorCtx(ctx, err), "failed to write response", err)
		internalErrorResponse(w, err.Error())
	}
}
