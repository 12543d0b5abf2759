package matcher

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHaversineZeroDistance(t *testing.T) {
	require.Zero(t, Haversine(48.8566, 2.3522, 48.8566, 2.3522))
}

func TestHaversineKnownDistance(t *testing.T) {
	// One hundredth of a degree of latitude is roughly 1.11 km.
	got := Haversine(48.8566, 2.3522, 48.8666, 2.3522)
	require.InDelta(t, 1112.0, got, 10.0)
}

func TestHaversineSymmetry(t *testing.T) {
	a := Haversine(51.5074, -0.1278, 40.7128, -74.0060)
	b := Haversine(40.7128, -74.0060, 51.5074, -0.1278)
	require.InDelta(t, a, b, 0.001)
	require.Greater(t, a, 5_000_000.0)
}
