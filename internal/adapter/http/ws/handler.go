// Package ws upgrades HTTP requests to websocket subscriptions on the
// in-process broadcast hub. Delivery is at most once: a subscriber
// sees events published while connected and nothing that happened
// before.
package ws

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/example/ride-dispatch/internal/domain/models"
	"github.com/example/ride-dispatch/pkg/broadcast"
	"github.com/example/ride-dispatch/pkg/logger"
	wrap "github.com/example/ride-dispatch/pkg/logger/wrapper"
)

type Handler struct {
	hub      *broadcast.Hub
	upgrader websocket.Upgrader
	log      logger.Logger
}

func NewHandler(hub *broadcast.Hub, log logger.Logger) *Handler {
	return &Handler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		log: log,
	}
}

// SubscribeRide streams ride-updated and location-updated events for
// one ride until the client disconnects.
func (h *Handler) SubscribeRide(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "ws_subscribe_ride")

	rideID, err := uuid.Parse(r.PathValue("ride_id"))
	if err != nil {
		http.Error(w, "invalid ride uuid format", http.StatusBadRequest)
		return
	}
	ctx = wrap.WithRideID(ctx, rideID.String())

	h.serve(ctx, w, r, models.RideChannel(rideID))
}

// SubscribeDriver streams events for one driver.
func (h *Handler) SubscribeDriver(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "ws_subscribe_driver")

	driverID, err := uuid.Parse(r.PathValue("driver_id"))
	if err != nil {
		http.Error(w, "invalid driver uuid format", http.StatusBadRequest)
		return
	}
	ctx = wrap.WithDriverID(ctx, driverID.String())

	h.serve(ctx, w, r, models.DriverChannel(driverID))
}

func (h *Handler) serve(ctx context.Context, w http.ResponseWriter, r *http.Request, key string) {
	socket, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error(ctx, "websocket upgrade failed", err)
		return
	}

	sub := newConn(socket)
	if err := h.hub.Subscribe(key, sub); err != nil {
		h.log.Error(ctx, "hub subscribe failed", err)
		sub.close()
		return
	}

	h.log.Debug(ctx, "websocket subscribed", "channel", key)

	// Read loop exists only to detect disconnect; inbound frames are
	// discarded.
	go func() {
		defer func() {
			h.hub.Unsubscribe(key, sub)
			sub.close()
			h.log.Debug(ctx, "websocket unsubscribed", "channel", key)
		}()
		for {
			if _, _, err := socket.ReadMessage(); err != nil {
				return
			}
		}
	}()
}
