// Package app wires the dispatch service together and owns its
// lifecycle: bring dependencies up, run until a signal, tear down in
// reverse order.
package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	goredis "github.com/redis/go-redis/v9"

	"github.com/example/ride-dispatch/config"
	"github.com/example/ride-dispatch/internal/adapter/http/server"
	repo "github.com/example/ride-dispatch/internal/adapter/postgres"
	rabbitadapter "github.com/example/ride-dispatch/internal/adapter/rabbit"
	redisadapter "github.com/example/ride-dispatch/internal/adapter/redis"
	"github.com/example/ride-dispatch/internal/service/dispatch"
	"github.com/example/ride-dispatch/internal/service/location"
	"github.com/example/ride-dispatch/internal/service/matcher"
	"github.com/example/ride-dispatch/internal/service/ride"
	"github.com/example/ride-dispatch/pkg/broadcast"
	"github.com/example/ride-dispatch/pkg/logger"
	"github.com/example/ride-dispatch/pkg/postgres"
	"github.com/example/ride-dispatch/pkg/rabbit"
	"github.com/example/ride-dispatch/pkg/trm"
)

type App struct {
	postgresDB *postgres.PostgreDB
	redis      *goredis.Client
	rabbitMQ   *rabbit.RabbitMQ
	hub        *broadcast.Hub
	locations  *location.Service
	httpServer *server.API

	cfg config.Config
	log logger.Logger
}

func NewApplication(ctx context.Context, cfg config.Config, log logger.Logger) (*App, error) {
	postgresDB, err := postgres.New(ctx, cfg.Database)
	if err != nil {
		log.Error(ctx, "failed to setup database", err)
		return nil, err
	}

	redisClient := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	// The cache is an optimization; the durable store keeps the
	// service correct without it.
	redisUp := true
	if err := redisClient.Ping(ctx).Err(); err != nil {
		redisUp = false
		log.Warn(ctx, "redis unreachable, running on durable store only", "error", err)
	}

	// Rabbit is best effort as well: transitions and pings just stay
	// in-process when the broker is down.
	var broker *rabbitadapter.DispatchBroker
	rabbitMQ, err := rabbit.New(ctx, cfg.RabbitMQ.GetDSN(), log)
	if err != nil {
		log.Warn(ctx, "rabbitmq unreachable, events stay in-process", "error", err)
		rabbitMQ = nil
	} else {
		broker, err = rabbitadapter.NewDispatchBroker(rabbitMQ, log)
		if err != nil {
			log.Warn(ctx, "failed to declare exchanges, events stay in-process", "error", err)
			broker = nil
		}
	}

	hub := broadcast.NewHub(log)
	txManager := trm.New(postgresDB.Pool)

	rideRepo := repo.NewRideRepo(postgresDB.Pool)
	locationRepo := repo.NewLocationRepo(postgresDB.Pool)
	locationCache := redisadapter.NewLocationCache(redisClient, cfg.Location.CacheTTL)

	// Prefer the native geo index; fall back to a haversine scan over
	// the durable latest positions when redis is out.
	var geoEngine matcher.GeoIndex = redisadapter.NewGeoIndex(redisClient)
	if !redisUp {
		geoEngine = matcher.NewScanIndex(locationRepo)
	}

	// rabbitadapter broker satisfies both publisher interfaces; a nil
	// broker must stay a nil interface value downstream.
	var ridePublisher ride.EventPublisher
	var locationPublisher location.EventPublisher
	if broker != nil {
		ridePublisher = broker
		locationPublisher = broker
	}

	rideService := ride.New(rideRepo, hub, ridePublisher, txManager, log)
	locationService := location.New(locationRepo, locationCache, rideRepo, hub, locationPublisher, log)
	matcherService := matcher.New(geoEngine, cfg.Matcher, log)
	coordinator := dispatch.New(rideService, matcherService, rideRepo, log)

	httpServer, err := server.New(cfg, rideService, coordinator, locationService, hub, log)
	if err != nil {
		log.Error(ctx, "failed to setup http server", err)
		return nil, err
	}

	return &App{
		postgresDB: postgresDB,
		redis:      redisClient,
		rabbitMQ:   rabbitMQ,
		hub:        hub,
		locations:  locationService,
		httpServer: httpServer,
		cfg:        cfg,
		log:        log,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	sweepCtx, stopSweep := context.WithCancel(ctx)
	go a.locations.RunRetentionSweep(sweepCtx, a.cfg.Location.Retention, a.cfg.Location.SweepInterval)

	a.httpServer.Run(ctx, errCh)
	defer func() {
		stopSweep()
		a.close(ctx)
		a.log.Info(ctx, "dispatch service closed")
	}()

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	a.log.Info(ctx, "dispatch service started")

	select {
	case errRun := <-errCh:
		return errRun
	case sig := <-shutdownCh:
		a.log.Info(ctx, "shutting down application", "signal", sig.String())
		return nil
	}
}

func (a *App) close(ctx context.Context) {
	if a.httpServer != nil {
		if err := a.httpServer.Stop(ctx); err != nil {
			a.log.Warn(ctx, "failed to gracefully close http server", "error", err.Error())
		}
	}

	if a.hub != nil {
		a.hub.Close()
	}

	if a.rabbitMQ != nil {
		if err := a.rabbitMQ.Close(ctx); err != nil {
			a.log.Warn(ctx, "failed to close rabbitmq connection", "error", err.Error())
		}
	}

	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.log.Warn(ctx, "failed to close redis client", "error", err.Error())
		}
	}

	if a.postgresDB != nil && a.postgresDB.Pool != nil {
		a.postgresDB.Pool.Close()
	}
}
