package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/example/ride-dispatch/internal/adapter/http/middleware"
	"github.com/example/ride-dispatch/internal/domain/types"
)

// setupRoutes wires the dispatch API.
func setupRoutes(mux *http.ServeMux, routes *handlers, m *middleware.Middleware) {
	// System
	mux.HandleFunc("/health", routes.health.HealthCheck)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/swagger/", httpSwagger.Handler())

	// Ride lifecycle
	mux.Handle("POST /rides", m.RequireRoles(routes.ride.Create, types.RolePassenger, types.RoleAdmin))
	mux.Handle("GET /rides", m.RequireRoles(routes.ride.List, types.RoleDriver, types.RoleAdmin))
	mux.Handle("GET /rides/{ride_id}", m.RequireRoles(routes.ride.Get, types.RolePassenger, types.RoleDriver, types.RoleAdmin))
	mux.Handle("PATCH /rides/{ride_id}/status", m.RequireRoles(routes.ride.UpdateStatus, types.RoleDriver, types.RoleAdmin))
	mux.Handle("POST /rides/{ride_id}/accept", m.RequireRoles(routes.ride.Accept, types.RoleDriver))
	mux.Handle("POST /rides/{ride_id}/start", m.RequireRoles(routes.ride.Start, types.RoleDriver))
	mux.Handle("POST /rides/{ride_id}/complete", m.RequireRoles(routes.ride.Complete, types.RoleDriver))
	mux.Handle("POST /rides/{ride_id}/cancel", m.RequireRoles(routes.ride.Cancel, types.RolePassenger, types.RoleDriver, types.RoleAdmin))

	// Driver locations
	mux.Handle("POST /drivers/{driver_id}/location", m.RequireRoles(routes.driver.UpdateLocation, types.RoleDriver))
	mux.Handle("GET /drivers/{driver_id}/location", m.RequireRoles(routes.driver.GetLocation, types.RolePassenger, types.RoleDriver, types.RoleAdmin))
	mux.Handle("GET /drivers/{driver_id}/location/history", m.RequireRoles(routes.driver.GetHistory, types.RoleAdmin))

	// Live subscriptions
	mux.HandleFunc("GET /ws/rides/{ride_id}", routes.ws.SubscribeRide)
	mux.HandleFunc("GET /ws/drivers/{driver_id}", routes.ws.SubscribeDriver)
}
