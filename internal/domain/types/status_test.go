package types_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/example/ride-dispatch/internal/domain/types"
)

func TestHappyPathChain(t *testing.T) {
	chain := []types.RideStatus{
		types.StatusRequested,
		types.StatusAccepted,
		types.StatusEnRouteToPickup,
		types.StatusArrivedAtPickup,
		types.StatusPassengerOnboard,
		types.StatusArrivedAtDest,
		types.StatusCompleted,
	}
	for i := 0; i < len(chain)-1; i++ {
		require.True(t, types.CanTransition(chain[i], chain[i+1]),
			"%s -> %s must be allowed", chain[i], chain[i+1])
	}
}

func TestNoSkippingSteps(t *testing.T) {
	require.False(t, types.CanTransition(types.StatusAccepted, types.StatusCompleted))
	require.False(t, types.CanTransition(types.StatusRequested, types.StatusPassengerOnboard))
	require.False(t, types.CanTransition(types.StatusEnRouteToPickup, types.StatusArrivedAtDest))
}

func TestNoGoingBackwards(t *testing.T) {
	require.False(t, types.CanTransition(types.StatusPassengerOnboard, types.StatusArrivedAtPickup))
	require.False(t, types.CanTransition(types.StatusAccepted, types.StatusRequested))
}

func TestTerminalStatesHaveNoExits(t *testing.T) {
	terminals := []types.RideStatus{types.StatusCompleted, types.StatusCancelled, types.StatusNoShow}
	all := []types.RideStatus{
		types.StatusRequested, types.StatusAccepted, types.StatusEnRouteToPickup,
		types.StatusArrivedAtPickup, types.StatusPassengerOnboard, types.StatusArrivedAtDest,
		types.StatusCompleted, types.StatusCancelled, types.StatusNoShow,
	}
	for _, from := range terminals {
		require.True(t, types.IsTerminal(from))
		for _, to := range all {
			require.False(t, types.CanTransition(from, to),
				"terminal %s must not transition to %s", from, to)
		}
	}
}

func TestCancellationBranches(t *testing.T) {
	for _, from := range []types.RideStatus{
		types.StatusRequested, types.StatusAccepted,
		types.StatusEnRouteToPickup, types.StatusPassengerOnboard,
	} {
		require.True(t, types.CanTransition(from, types.StatusCancelled),
			"%s -> CANCELLED must be allowed", from)
	}

	// At the pickup point the only early exit is NO_SHOW.
	require.False(t, types.CanTransition(types.StatusArrivedAtPickup, types.StatusCancelled))
	require.True(t, types.CanTransition(types.StatusArrivedAtPickup, types.StatusNoShow))
	require.False(t, types.CanTransition(types.StatusEnRouteToPickup, types.StatusNoShow))
}

func TestValidStatus(t *testing.T) {
	require.True(t, types.ValidStatus(types.StatusRequested))
	require.False(t, types.ValidStatus(types.RideStatus("TELEPORTING")))
	require.False(t, types.ValidStatus(types.RideStatus("")))
}
