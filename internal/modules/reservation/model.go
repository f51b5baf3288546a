// README: Reservation aggregate and status definitions.
package reservation

import (
	"time"

	"github.com/MacTheAnon/joco-exec/internal/modules/pricing"
	"github.com/MacTheAnon/joco-exec/internal/types"
)

// Wire formats for the trip slot. The (date, time) pair is the uniqueness
// key for active reservations.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

type Status string

const (
	StatusUnclaimed Status = "unclaimed"
	StatusAssigned  Status = "assigned"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// Reservation is the durable record of one booked trip. AmountCaptured is
// written once at creation and never mutated; refunds happen out of band.
type Reservation struct {
	ID            types.ID
	TripDate      string
	TripTime      string
	Pickup        string
	Dropoff       string
	Stops         []string
	FlightNumber  string
	Passengers    int
	VehicleClass  string
	ServiceMode   pricing.ServiceMode
	DurationHours int
	DistanceMiles float64
	QuoteAmount   int64
	PricingMethod pricing.Method
	MeetAndGreet  bool
	RoundTrip     bool

	AmountCaptured int64
	TransactionID  string

	DriverID      *types.ID
	Status        Status
	StatusVersion int
	CreatedAt     time.Time
}

type ListFilter struct {
	DriverID types.ID
}

// AllowedTransitions represents the reservation lifecycle as code. The
// assigned self-loop is admin reassignment to a different driver.
var AllowedTransitions = map[Status][]Status{
	StatusUnclaimed: {StatusAssigned, StatusCancelled},
	StatusAssigned:  {StatusAssigned, StatusCompleted, StatusCancelled},
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

// Terminal reports whether no further transitions are allowed.
func (s Status) Terminal() bool {
	return len(AllowedTransitions[s]) == 0
}
