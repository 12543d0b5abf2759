package location

import (
	"context"
	"time"

	"github.com/example/ride-dispatch/internal/domain/types"
	wrap "github.com/example/ride-dispatch/pkg/logger/wrapper"
	"github.com/example/ride-dispatch/pkg/metrics"
)

// RunRetentionSweep deletes history rows older than the retention
// window on a fixed interval until ctx is cancelled. Runs in its own
// goroutine, off the request path.
func (s *Service) RunRetentionSweep(ctx context.Context, retention, interval time.Duration) {
	ctx = wrap.WithAction(ctx, types.ActionRetentionSweep)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweepOnce(ctx, retention)
		}
	}
}

func (s *Service) sweepOnce(ctx context.Context, retention time.Duration) {
	cutoff := time.Now().UTC().Add(-retention)

	deleted, err := s.history.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		s.logger.Error(ctx, "retention sweep failed", err)
		return
	}
	if deleted > 0 {
		metrics.LocationsSweptTotal.Add(float64(deleted))
		s.logger.Info(ctx, "retention sweep complete", "deleted", deleted, "cutoff", cutoff)
	}
}
