// README: Booking requests and results for the orchestrated pipeline.
package booking

import (
	"fmt"

	"github.com/MacTheAnon/joco-exec/internal/modules/pricing"
	"github.com/MacTheAnon/joco-exec/internal/types"
)

// MeetAndGreetSurcharge is the flat airport meet-and-greet fee in cents,
// added on top of the quote by the orchestrator.
const MeetAndGreetSurcharge int64 = 2500

// QuoteRequest asks for a price without booking. DistanceMiles may be left
// zero for distance trips; the orchestrator resolves it through the distance
// collaborator.
type QuoteRequest struct {
	TripDate      string
	VehicleClass  string
	Mode          pricing.ServiceMode
	Pickup        string
	Dropoff       string
	DistanceMiles float64
	DurationHours int
	RoundTrip     bool
}

type QuoteResult struct {
	Amount        types.Money
	DistanceMiles float64
	Method        pricing.Method
}

// BookRequest is the full trip plus the payment instrument. Any client-sent
// amount is ignored; the orchestrator re-quotes authoritatively.
type BookRequest struct {
	TripDate      string
	TripTime      string
	Pickup        string
	Dropoff       string
	Stops         []string
	FlightNumber  string
	Passengers    int
	VehicleClass  string
	Mode          pricing.ServiceMode
	DurationHours int
	RoundTrip     bool
	MeetAndGreet  bool

	SourceID       string
	IdempotencyKey string
}

type BookResult struct {
	ReservationID  types.ID
	TransactionID  string
	AmountCaptured types.Money
}

// ConflictAfterCaptureError reports the anomaly where the payment captured
// but a concurrent booking won the slot. The transaction id must reach the
// operator; it identifies the charge to refund out of band.
type ConflictAfterCaptureError struct {
	TransactionID string
}

func (e *ConflictAfterCaptureError) Error() string {
	return fmt.Sprintf("slot taken after payment captured (transaction %s)", e.TransactionID)
}
