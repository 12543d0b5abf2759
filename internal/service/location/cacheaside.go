package location

import (
	"context"
	"errors"

	"github.com/google/uuid"

	adapterredis "github.com/example/ride-dispatch/internal/adapter/redis"
	"github.com/example/ride-dispatch/internal/domain/models"
	"github.com/example/ride-dispatch/internal/domain/types"
	"github.com/example/ride-dispatch/pkg/logger"
	wrap "github.com/example/ride-dispatch/pkg/logger/wrapper"
	"github.com/example/ride-dispatch/pkg/metrics"
)

// latestStrategy is the cache-aside read path for the latest position:
// try the cache, fall back to the durable history, repopulate on the
// way out. Cache failures degrade to the fallback, never to an error.
type latestStrategy struct {
	cache  Cache
	store  HistoryRepo
	logger logger.Logger
}

func newLatestStrategy(cache Cache, store HistoryRepo, logger logger.Logger) *latestStrategy {
	return &latestStrategy{cache: cache, store: store, logger: logger}
}

func (ls *latestStrategy) Get(ctx context.Context, driverID uuid.UUID) (*models.DriverLocation, error) {
	loc, err := ls.cache.Get(ctx, driverID)
	switch {
	case err == nil:
		metrics.RecordCacheResult("hit")
		return loc, nil
	case errors.Is(err, adapterredis.ErrCacheMiss):
		metrics.RecordCacheResult("miss")
	default:
		metrics.RecordCacheResult("error")
		ls.logger.Warn(wrap.WithAction(ctx, types.ActionCacheDegraded),
			"latest-position cache read failed", "error", err)
	}

	loc, err = ls.store.Latest(ctx, driverID)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}

	if err := ls.cache.Set(ctx, loc); err != nil {
		ls.logger.Warn(wrap.WithAction(ctx, types.ActionCacheDegraded),
			"latest-position repopulate failed", "error", err)
	}
	return loc, nil
}
