package ride

import (
	"math"

	"github.com/example/ride-dispatch/internal/domain/models"
	"github.com/example/ride-dispatch/internal/service/matcher"
)

const (
	averageSpeedKmh = 50

	baseFare   = 500
	ratePerKm  = 100
	ratePerMin = 50
)

// estimateFare prices a ride up front from the straight-line distance
// and an average-speed duration guess. The final fare is set at
// completion and may differ.
func estimateFare(pickup, dropoff models.Location) float64 {
	distanceKm := matcher.Haversine(pickup.Latitude, pickup.Longitude,
		dropoff.Latitude, dropoff.Longitude) / 1000

	durationMin := math.Ceil((distanceKm / averageSpeedKmh) * 60)

	return baseFare + distanceKm*ratePerKm + durationMin*ratePerMin
}
