package types

// Enum for ride lifecycle status
type RideStatus string

func (s RideStatus) String() string {
	return string(s)
}

const (
	StatusRequested          RideStatus = "REQUESTED"
	StatusAccepted           RideStatus = "ACCEPTED"
	StatusEnRouteToPickup    RideStatus = "EN_ROUTE_TO_PICKUP"
	StatusArrivedAtPickup    RideStatus = "ARRIVED_AT_PICKUP"
	StatusPassengerOnboard   RideStatus = "PASSENGER_ONBOARD"
	StatusArrivedAtDest      RideStatus = "ARRIVED_AT_DESTINATION"
	StatusCompleted          RideStatus = "COMPLETED"
	StatusCancelled          RideStatus = "CANCELLED"
	StatusNoShow             RideStatus = "NO_SHOW"
)

// transitions is the full lifecycle table. A status missing from the map,
// or absent from the allowed set, is rejected; the manager never clamps
// or infers intent.
var transitions = map[RideStatus][]RideStatus{
	StatusRequested:        {StatusAccepted, StatusCancelled},
	StatusAccepted:         {StatusEnRouteToPickup, StatusCancelled},
	StatusEnRouteToPickup:  {StatusArrivedAtPickup, StatusCancelled},
	StatusArrivedAtPickup:  {StatusPassengerOnboard, StatusNoShow},
	StatusPassengerOnboard: {StatusArrivedAtDest, StatusCancelled},
	StatusArrivedAtDest:    {StatusCompleted},
}

// CanTransition reports whether from -> to is a valid lifecycle step.
func CanTransition(from, to RideStatus) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the status has no outgoing transitions.
func IsTerminal(s RideStatus) bool {
	return len(transitions[s]) == 0
}

// ValidStatus reports whether s is a known lifecycle status.
func ValidStatus(s RideStatus) bool {
	switch s {
	case StatusRequested, StatusAccepted, StatusEnRouteToPickup,
		StatusArrivedAtPickup, StatusPassengerOnboard, StatusArrivedAtDest,
		StatusCompleted, StatusCancelled, StatusNoShow:
		return true
	default:
		return false
	}
}

// Enum for user roles, issued by the auth subsystem
type UserRole string

func (r UserRole) String() string {
	return string(r)
}

const (
	RolePassenger UserRole = "PASSENGER"
	RoleDriver    UserRole = "DRIVER"
	RoleAdmin     UserRole = "ADMIN"
)

// Enum for vehicle classes used by the matcher filter
type VehicleClass string

const (
	ClassEconomy VehicleClass = "ECONOMY"
	ClassPremium VehicleClass = "PREMIUM"
	ClassXL      VehicleClass = "XL"
)
