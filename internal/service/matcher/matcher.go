// Package matcher finds candidate drivers for a pickup point. Two
// interchangeable engines answer the radius query: the redis geo index
// when one is configured, and a haversine scan over last-known
// positions otherwise.
package matcher

import (
	"context"
	"fmt"

	"github.com/example/ride-dispatch/config"
	"github.com/example/ride-dispatch/internal/domain/models"
	"github.com/example/ride-dispatch/internal/domain/types"
	"github.com/example/ride-dispatch/pkg/logger"
	wrap "github.com/example/ride-dispatch/pkg/logger/wrapper"
)

// GeoIndex answers a radius query around a point, nearest first. An
// empty class means any vehicle class.
type GeoIndex interface {
	Nearby(ctx context.Context, point models.Location, radiusMeters float64, class types.VehicleClass, limit int) ([]models.Candidate, error)
}

type Service struct {
	engine GeoIndex
	cfg    config.MatcherConfig
	logger logger.Logger
}

func New(engine GeoIndex, cfg config.MatcherConfig, logger logger.Logger) *Service {
	return &Service{
		engine: engine,
		cfg:    cfg,
		logger: logger,
	}
}

// FindCandidates returns up to MaxCandidates online, available drivers
// within the configured radius of the pickup point, ordered by
// distance. A non-empty class restricts matching to that vehicle
// class. An empty result is not an error.
func (s *Service) FindCandidates(ctx context.Context, pickup models.Location, class types.VehicleClass) ([]models.Candidate, error) {
	ctx = wrap.WithAction(ctx, "find_candidates")

	limit := s.cfg.MaxCandidates
	if limit <= 0 {
		limit = 10
	}

	candidates, err := s.engine.Nearby(ctx, pickup, s.cfg.RadiusMeters, class, limit)
	if err != nil {
		return nil, wrap.Error(ctx, fmt.Errorf("radius query: %w", err))
	}

	s.logger.Debug(ctx, "candidate drivers found",
		"count", len(candidates),
		"radius_meters", s.cfg.RadiusMeters,
	)
	return candidates, nil
}
