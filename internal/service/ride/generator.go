package ride

import (
	"context"
	"fmt"
	"time"

	wrap "github.com/example/ride-dispatch/pkg/logger/wrapper"
)

// generateRideNumber builds a human-readable daily sequence number,
// RD-YYYYMMDD-NNNN. Called inside the create transaction so the count
// and the insert see the same snapshot.
func (s *Service) generateRideNumber(ctx context.Context) (string, error) {
	now := time.Now().UTC()

	count, err := s.repo.CountByDate(ctx, now)
	if err != nil {
		return "", wrap.Error(ctx, err)
	}

	return fmt.Sprintf("RD-%s-%04d", now.Format("20060102"), count+1), nil
}
