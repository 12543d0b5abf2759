package redis

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/example/ride-dispatch/internal/domain/models"
	"github.com/example/ride-dispatch/internal/domain/types"
)

// GeoIndex answers radius queries with the store's native geo search.
type GeoIndex struct {
	client redis.Cmdable
}

func NewGeoIndex(client redis.Cmdable) *GeoIndex {
	return &GeoIndex{client: client}
}

// Nearby returns up to limit drivers within radiusMeters of the point,
// nearest first. Only drivers currently indexed (online and available
// at their last ping) are present in the geo sets; a non-empty class
// narrows the search to that vehicle class.
func (g *GeoIndex) Nearby(ctx context.Context, point models.Location, radiusMeters float64, class types.VehicleClass, limit int) ([]models.Candidate, error) {
	key := geoKey
	if class != "" {
		key = classGeoKey(class)
	}

	results, err := g.client.GeoSearchLocation(ctx, key, &redis.GeoSearchLocationQuery{
		GeoSearchQuery: redis.GeoSearchQuery{
			Longitude:  point.Longitude,
			Latitude:   point.Latitude,
			Radius:     radiusMeters,
			RadiusUnit: "m",
			Sort:       "ASC",
			Count:      limit,
		},
		WithDist: true,
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("geo index: search: %w", err)
	}

	candidates := make([]models.Candidate, 0, len(results))
	for _, res := range results {
		driverID, err := uuid.Parse(res.Name)
		if err != nil {
			// Foreign member in the geo set; skip rather than fail the query.
			continue
		}
		candidates = append(candidates, models.Candidate{
			DriverID:       driverID,
			DistanceMeters: res.Dist,
		})
	}
	return candidates, nil
}
