package types

import (
	"errors"
	"fmt"
)

var (
	ErrRideNotFound     = errors.New("ride not found")
	ErrDriverNotFound   = errors.New("driver not found")
	ErrLocationNotFound = errors.New("no location recorded for driver")
	ErrNotFound         = errors.New("requested item not found")

	// ErrStatusConflict means a compare-and-swap lost a race: the ride's
	// status changed between read and write. The caller decides whether to
	// retry against another candidate or surface "already taken".
	ErrStatusConflict = errors.New("ride status changed concurrently")

	ErrRideAlreadyAssigned = errors.New("ride already assigned to a driver")

	// ErrUpstreamUnavailable covers cache or broadcast transport failures.
	// These degrade latency, never correctness.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)

// InvalidTransitionError reports a status change not permitted by the
// lifecycle table. Always surfaced verbatim to the caller.
type InvalidTransitionError struct {
	From RideStatus
	To   RideStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition from %s to %s", e.From, e.To)
}

// NewInvalidTransition builds the error for a rejected from -> to step.
func NewInvalidTransition(from, to RideStatus) error {
	return &InvalidTransitionError{From: from, To: to}
}

// IsInvalidTransition reports whether err wraps an InvalidTransitionError.
func IsInvalidTransition(err error) bool {
	var e *InvalidTransitionError
	return errors.As(err, &e)
}
