package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/example/ride-dispatch/config"
	"github.com/example/ride-dispatch/internal/adapter/http/handler"
	"github.com/example/ride-dispatch/internal/adapter/http/middleware"
	"github.com/example/ride-dispatch/internal/adapter/http/ws"
	"github.com/example/ride-dispatch/pkg/broadcast"
	"github.com/example/ride-dispatch/pkg/logger"
	wrap "github.com/example/ride-dispatch/pkg/logger/wrapper"
)

const serviceName = "ride-dispatch"

type API struct {
	mux    *http.ServeMux
	server *http.Server
	routes *handlers
	m      *middleware.Middleware

	addr string
	cfg  config.Config
	log  logger.Logger
}

type handlers struct {
	ride   *handler.Ride
	driver *handler.Driver
	health *handler.Health
	ws     *ws.Handler
}

func New(
	cfg config.Config,
	rideService handler.RideService,
	dispatcher handler.Dispatcher,
	locationService handler.LocationService,
	hub *broadcast.Hub,
	logger logger.Logger,
) (*API, error) {
	if rideService == nil || dispatcher == nil || locationService == nil {
		return nil, errors.New("ride, dispatch and location services are required")
	}

	routes := &handlers{
		ride:   handler.NewRide(rideService, dispatcher, logger),
		driver: handler.NewDriver(locationService, logger),
		health: handler.NewHealth(serviceName, logger),
		ws:     ws.NewHandler(hub, logger),
	}

	api := &API{
		mux:    http.NewServeMux(),
		routes: routes,
		m:      middleware.NewMiddleware(cfg.Auth.JWTSecret, logger),
		addr:   fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		cfg:    cfg,
		log:    logger,
	}

	api.server = &http.Server{
		Addr:    api.addr,
		Handler: api.withMiddleware(),
	}

	setupRoutes(api.mux, api.routes, api.m)

	return api, nil
}

func (a *API) Run(ctx context.Context, errCh chan<- error) {
	go func() {
		ctx = wrap.WithAction(ctx, "http_server_start")
		a.log.Info(ctx, "started http server", "address", a.addr)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("failed to start HTTP server: %w", err)
		}
	}()
}

func (a *API) Stop(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	ctx = wrap.WithAction(ctx, "http_server_stop")

	a.log.Debug(ctx, "shutting down HTTP server...", "address", a.addr)
	if err := a.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("error shutting down server: %w", err)
	}
	a.log.Debug(ctx, "shutting down HTTP server completed")

	return nil
}

// withMiddleware applies the shared stack to the mux.
func (a *API) withMiddleware() http.Handler {
	return a.m.Recover(a.m.RequestID(a.m.Metrics(a.m.Logging(a.m.Auth(a.mux)))))
}
