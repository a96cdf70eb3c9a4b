// README: Search requests, matches and the rejection trace for trip matching.
package matching

import (
	"github.com/DSAW-2025-II/entrega-final-be-byte-me/internal/modules/trip"
	"github.com/DSAW-2025-II/entrega-final-be-byte-me/internal/types"
)

const (
	// candidateLimit caps how many open trips one search evaluates.
	candidateLimit = trip.ListLimit
	// averageSpeedKmPerMin is 30 km/h.
	averageSpeedKmPerMin = 30.0 / 60.0
	// routeToleranceKm absorbs coordinate noise around the driver's straight route.
	routeToleranceKm = 0.5
	// fixedMarginKm is added to every detour allowance.
	fixedMarginKm = 0.2
	// timeWindowMarginMinutes widens the departure window beyond extra_minutes.
	timeWindowMarginMinutes = 30.0
	// detourMarginMinutes widens the detour time budget beyond extra_minutes.
	detourMarginMinutes = 15.0
)

type Reason string

const (
	ReasonSameDriver         Reason = "same_driver"
	ReasonDateMismatch       Reason = "date_mismatch"
	ReasonTimeDifference     Reason = "time_difference"
	ReasonMissingCoordinates Reason = "missing_coordinates"
	ReasonLocationMismatch   Reason = "location_mismatch"
	ReasonDetourExceeded     Reason = "detour_exceeded"
	ReasonMinutesExceeded    Reason = "minutes_exceeded"
)

// Request describes a passenger looking for a ride from From to To.
// Date (YYYY-MM-DD) and Time (HH:MM) are optional.
type Request struct {
	From           types.Point
	To             types.Point
	Date           string
	Time           string
	ViewerIsDriver bool
	RequesterUID   string
	Debug          bool
}

// Match is an accepted trip annotated with the estimated detour cost.
type Match struct {
	*trip.Trip
	EstimatedMinutesDetour float64 `json:"estimated_minutes_detour"`
	ExtraDistanceKm        float64 `json:"extra_distance_km"`
}

// Detour holds the geometry computed for one candidate.
type Detour struct {
	OriginWithinAllowance      bool    `json:"originWithinAllowance"`
	DestinationWithinAllowance bool    `json:"destinationWithinAllowance"`
	DetourWithinAllowance      bool    `json:"detourWithinAllowance"`
	ExtraMinutesRequired       float64 `json:"extraMinutesRequired"`
	MinutesAllowance           float64 `json:"minutesAllowance"`
	DetourAllowanceKm          float64 `json:"detourAllowanceKm"`
	ExtraDistanceKm            float64 `json:"extraDistanceKm"`
	DistanceToOriginKm         float64 `json:"distanceToOriginKm"`
	DistanceToDestinationKm    float64 `json:"distanceToDestinationKm"`
	RouteDistanceToOriginKm    float64 `json:"routeDistanceToOriginKm"`
	RouteDistanceToDestKm      float64 `json:"routeDistanceToDestinationKm"`
}

func (d Detour) LocationMatches() bool {
	return d.OriginWithinAllowance || d.DestinationWithinAllowance
}

func (d Detour) Accepted() bool {
	return d.LocationMatches() && d.DetourWithinAllowance && d.ExtraMinutesRequired <= d.MinutesAllowance
}

// Reasons lists every failed geometry predicate.
func (d Detour) Reasons() []Reason {
	var out []Reason
	if !d.LocationMatches() {
		out = append(out, ReasonLocationMismatch)
	}
	if !d.DetourWithinAllowance {
		out = append(out, ReasonDetourExceeded)
	}
	if d.ExtraMinutesRequired > d.MinutesAllowance {
		out = append(out, ReasonMinutesExceeded)
	}
	return out
}

// Rejection is one entry of the debug trace. Only the fields relevant to the
// failing stage are set.
type Rejection struct {
	TripID         string   `json:"trip_id"`
	Reasons        []Reason `json:"reason"`
	TripDate       *string  `json:"tripDateIso,omitempty"`
	RequestedDate  *string  `json:"requestedDate,omitempty"`
	TimeDifference *float64 `json:"timeDifference,omitempty"`
	TimeAllowance  *float64 `json:"timeAllowance,omitempty"`
	*Detour
}

type Result struct {
	Trips []Match     `json:"trips"`
	Debug []Rejection `json:"debug,omitempty"`
}
