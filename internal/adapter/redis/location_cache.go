package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/example/ride-dispatch/internal/domain/models"
	"github.com/example/ride-dispatch/internal/domain/types"
)

// ErrCacheMiss signals the latest-position entry expired or never
// existed. Callers fall back to the durable store; a miss is never an
// application error.
var ErrCacheMiss = errors.New("location cache miss")

const (
	latestKeyPrefix = "driver:loc:"
	geoKey          = "drivers:geo"
)

// classGeoKey is the per-vehicle-class variant of the geo set, used
// when a ride requests a specific class.
func classGeoKey(class types.VehicleClass) string {
	return geoKey + ":" + string(class)
}

// LocationCache is the ephemeral side of the location store: a TTL'd
// latest-position entry per driver plus a geo set for radius queries.
// It is a read optimization only; the durable history is the source of
// truth.
type LocationCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewLocationCache(client redis.Cmdable, ttl time.Duration) *LocationCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &LocationCache{client: client, ttl: ttl}
}

func latestKey(driverID uuid.UUID) string {
	return latestKeyPrefix + driverID.String()
}

// Set upserts the latest-position entry and keeps the geo set in step:
// available drivers are indexed, everyone else is removed so radius
// queries never see them.
func (c *LocationCache) Set(ctx context.Context, loc *models.DriverLocation) error {
	body, err := json.Marshal(loc)
	if err != nil {
		return fmt.Errorf("location cache: marshal: %w", err)
	}

	if err := c.client.Set(ctx, latestKey(loc.DriverID), body, c.ttl).Err(); err != nil {
		return fmt.Errorf("location cache: set: %w", err)
	}

	member := loc.DriverID.String()
	for _, class := range []types.VehicleClass{"", types.ClassEconomy, types.ClassPremium, types.ClassXL} {
		key := geoKey
		if class != "" {
			key = classGeoKey(class)
		}
		indexed := loc.Online && loc.Available &&
			(class == "" || class == loc.VehicleClass)

		if indexed {
			err = c.client.GeoAdd(ctx, key, &redis.GeoLocation{
				Name:      member,
				Longitude: loc.Longitude,
				Latitude:  loc.Latitude,
			}).Err()
		} else {
			// Covers going unavailable and switching vehicle class.
			err = c.client.ZRem(ctx, key, member).Err()
		}
		if err != nil {
			return fmt.Errorf("location cache: geo update: %w", err)
		}
	}

	return nil
}

// Get returns the cached latest position, or ErrCacheMiss.
func (c *LocationCache) Get(ctx context.Context, driverID uuid.UUID) (*models.DriverLocation, error) {
	body, err := c.client.Get(ctx, latestKey(driverID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("location cache: get: %w", err)
	}

	var loc models.DriverLocation
	if err := json.Unmarshal(body, &loc); err != nil {
		// A corrupt entry behaves like a miss; the store will repopulate it.
		return nil, ErrCacheMiss
	}
	return &loc, nil
}

// Evict drops the latest-position entry. Used by tests and by the
// durable fallback path when an entry is known stale.
func (c *LocationCache) Evict(ctx context.Context, driverID uuid.UUID) error {
	return c.client.Del(ctx, latestKey(driverID)).Err()
}
