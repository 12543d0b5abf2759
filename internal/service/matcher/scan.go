package matcher

import (
	"context"
	"fmt"
	"sort"

	"github.com/example/ride-dispatch/internal/domain/models"
	"github.com/example/ride-dispatch/internal/domain/types"
)

// SnapshotSource lists the last-known position of every driver.
type SnapshotSource interface {
	LatestAll(ctx context.Context) ([]*models.DriverLocation, error)
}

// ScanIndex answers radius queries by walking a snapshot of driver
// positions and measuring each with haversine. It is the engine of
// record when no native geo index is configured, and both engines must
// return the same candidate set for the same snapshot.
type ScanIndex struct {
	source SnapshotSource
}

func NewScanIndex(source SnapshotSource) *ScanIndex {
	return &ScanIndex{source: source}
}

func (s *ScanIndex) Nearby(ctx context.Context, point models.Location, radiusMeters float64, class types.VehicleClass, limit int) ([]models.Candidate, error) {
	locations, err := s.source.LatestAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("scan index: snapshot: %w", err)
	}

	candidates := make([]models.Candidate, 0, len(locations))
	for _, loc := range locations {
		if !loc.Online || !loc.Available {
			continue
		}
		if class != "" && loc.VehicleClass != class {
			continue
		}
		dist := Haversine(point.Latitude, point.Longitude, loc.Latitude, loc.Longitude)
		if dist > radiusMeters {
			continue
		}
		candidates = append(candidates, models.Candidate{
			DriverID:       loc.DriverID,
			DistanceMeters: dist,
		})
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].DistanceMeters < candidates[j].DistanceMeters
	})
	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates, nil
}
