// README: Trip aggregate, status definitions and the state transition table.
package trip

import (
	"time"

	"github.com/DSAW-2025-II/entrega-final-be-byte-me/internal/types"
)

type Status string

const (
	StatusOpen      Status = "open"
	StatusClosed    Status = "closed"
	StatusCancelled Status = "cancelled"
)

// Place is an address with optional coordinates. Coordinates is nil when the
// stored value is missing or malformed.
type Place struct {
	Address     string       `json:"address"`
	Coordinates *types.Point `json:"coordinates"`
}

type DriverInfo struct {
	UID   string  `json:"uid"`
	Name  *string `json:"name"`
	Email *string `json:"email"`
	Photo *string `json:"photo"`
}

type VehicleInfo struct {
	VehicleID    *string  `json:"vehicle_id"`
	LicensePlate *string  `json:"license_plate"`
	Model        *string  `json:"model"`
	Capacity     *float64 `json:"capacity"`
}

type Trip struct {
	ID            string       `json:"trip_id"`
	DriverID      string       `json:"driver_id"`
	DriverUID     string       `json:"driver_uid"`
	DriverEmail   *string      `json:"driver_email"`
	Start         Place        `json:"start"`
	Destination   Place        `json:"destination"`
	Time          string       `json:"time"`
	Seats         int          `json:"seats"`
	Fare          float64      `json:"fare"`
	ExtraMinutes  float64      `json:"extra_minutes"`
	Status        Status       `json:"status"`
	Waitlist      []Entry      `json:"waitlist"`
	PassengerList []Entry      `json:"passenger_list"`
	Driver        *DriverInfo  `json:"driver,omitempty"`
	Vehicle       *VehicleInfo `json:"vehicle,omitempty"`
	CreatedAt     string       `json:"createdAt"`
	UpdatedAt     string       `json:"updatedAt"`
}

// IsDriver reports whether uid owns the trip, by auth uid or by driver_id.
func (t *Trip) IsDriver(uid string) bool {
	return uid != "" && (t.DriverUID == uid || t.DriverID == uid)
}

// SeatsLeft is never negative.
func (t *Trip) SeatsLeft() int {
	if n := t.Seats - len(t.PassengerList); n > 0 {
		return n
	}
	return 0
}

// CreatedTime parses createdAt; unparsable values sort as the zero time.
func (t *Trip) CreatedTime() time.Time {
	ts, err := time.Parse(time.RFC3339Nano, t.CreatedAt)
	if err != nil {
		return time.Time{}
	}
	return ts
}

// AllowedTransitions represents the trip state flow as code.
// closed → open happens when a passenger leaves a full trip.
var AllowedTransitions = map[Status][]Status{
	StatusOpen:   {StatusClosed, StatusCancelled},
	StatusClosed: {StatusOpen},
}

func CanTransition(from, to Status) bool {
	next, ok := AllowedTransitions[from]
	if !ok {
		return false
	}
	for _, s := range next {
		if s == to {
			return true
		}
	}
	return false
}
