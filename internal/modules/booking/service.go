// README: Booking orchestrator: validate, quote, capture, persist, dispatch.
package booking

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/MacTheAnon/joco-exec/internal/modules/payment"
	"github.com/MacTheAnon/joco-exec/internal/modules/pricing"
	"github.com/MacTheAnon/joco-exec/internal/modules/reservation"
	"github.com/MacTheAnon/joco-exec/internal/types"
)

var (
	ErrValidation      = errors.New("invalid booking request")
	ErrSlotUnavailable = errors.New("slot unavailable")
)

// Ports. The orchestrator owns the sequence, the collaborators own the steps.
type (
	Reservations interface {
		IsAvailable(ctx context.Context, date, tm string) (bool, error)
		Create(ctx context.Context, r *reservation.Reservation) error
	}
	Quoter interface {
		Quote(req pricing.QuoteRequest) (pricing.QuoteResult, error)
		BaseFallback(vehicleClass string, roundTrip bool) (pricing.QuoteResult, error)
	}
	Gateway interface {
		Capture(ctx context.Context, req payment.CaptureRequest) (payment.CaptureResult, error)
	}
	Dispatcher interface {
		NotifyEligibleDrivers(ctx context.Context, r *reservation.Reservation) error
	}
	// DistanceResolver answers road miles between two addresses.
	DistanceResolver interface {
		Miles(ctx context.Context, origin, destination string) (float64, error)
	}
)

type Service struct {
	reservations  Reservations
	quoter        Quoter
	gateway       Gateway
	dispatcher    Dispatcher
	distance      DistanceResolver
	notifyTimeout time.Duration
}

func NewService(reservations Reservations, quoter Quoter, gateway Gateway, dispatcher Dispatcher, distance DistanceResolver, notifyTimeout time.Duration) *Service {
	if notifyTimeout <= 0 {
		notifyTimeout = 30 * time.Second
	}
	return &Service{
		reservations:  reservations,
		quoter:        quoter,
		gateway:       gateway,
		dispatcher:    dispatcher,
		distance:      distance,
		notifyTimeout: notifyTimeout,
	}
}

// Quote prices a trip without booking it. Distance trips with no supplied
// mileage go through the distance collaborator; if that lookup fails the
// quote degrades to the flat base rate instead of aborting.
func (s *Service) Quote(ctx context.Context, req QuoteRequest) (QuoteResult, error) {
	tripDate, err := parseTripDate(req.TripDate)
	if err != nil {
		return QuoteResult{}, err
	}
	if req.Mode == "" {
		req.Mode = pricing.ModeDistance
	}

	preq := pricing.QuoteRequest{
		VehicleClass:  req.VehicleClass,
		Mode:          req.Mode,
		DistanceMiles: req.DistanceMiles,
		DurationHours: req.DurationHours,
		RoundTrip:     req.RoundTrip,
		TripDate:      tripDate,
	}

	if req.Mode == pricing.ModeHourly {
		if req.DurationHours < 1 {
			return QuoteResult{}, fmt.Errorf("%w: duration_hours must be at least 1", ErrValidation)
		}
	} else if preq.DistanceMiles <= 0 {
		if req.Pickup == "" || req.Dropoff == "" {
			return QuoteResult{}, fmt.Errorf("%w: pickup and dropoff are required", ErrValidation)
		}
		miles, err := s.distance.Miles(ctx, req.Pickup, req.Dropoff)
		if err != nil {
			log.Printf("booking: distance lookup %q -> %q failed, using base rate: %v", req.Pickup, req.Dropoff, err)
			res, ferr := s.quoter.BaseFallback(req.VehicleClass, req.RoundTrip)
			if ferr != nil {
				return QuoteResult{}, ferr
			}
			return QuoteResult{Amount: types.USD(res.Amount), Method: res.Method}, nil
		}
		preq.DistanceMiles = miles
	}

	res, err := s.quoter.Quote(preq)
	if err != nil {
		return QuoteResult{}, err
	}
	return QuoteResult{Amount: types.USD(res.Amount), DistanceMiles: res.DistanceMiles, Method: res.Method}, nil
}

// Book runs the full pipeline. Step order is load-bearing: the quote is
// recomputed server-side, payment captures before the authoritative insert,
// and driver fan-out happens after the reservation exists, off the request
// path. A post-capture slot conflict is surfaced, never swallowed.
func (s *Service) Book(ctx context.Context, req BookRequest) (BookResult, error) {
	if req.Mode == "" {
		req.Mode = pricing.ModeDistance
	}
	if err := validateBook(req); err != nil {
		return BookResult{}, err
	}

	available, err := s.reservations.IsAvailable(ctx, req.TripDate, req.TripTime)
	if err != nil {
		return BookResult{}, err
	}
	if !available {
		return BookResult{}, ErrSlotUnavailable
	}

	quote, err := s.Quote(ctx, QuoteRequest{
		TripDate:      req.TripDate,
		VehicleClass:  req.VehicleClass,
		Mode:          req.Mode,
		Pickup:        req.Pickup,
		Dropoff:       req.Dropoff,
		DurationHours: req.DurationHours,
		RoundTrip:     req.RoundTrip,
	})
	if err != nil {
		return BookResult{}, err
	}

	total := quote.Amount.Amount
	if req.MeetAndGreet {
		total += MeetAndGreetSurcharge
	}

	captured, err := s.gateway.Capture(ctx, payment.CaptureRequest{
		SourceID:       req.SourceID,
		Amount:         types.USD(total),
		IdempotencyKey: req.IdempotencyKey,
	})
	if err != nil {
		return BookResult{}, err
	}

	r := &reservation.Reservation{
		ID:             types.ID(captured.TransactionID),
		TripDate:       req.TripDate,
		TripTime:       req.TripTime,
		Pickup:         req.Pickup,
		Dropoff:        req.Dropoff,
		Stops:          req.Stops,
		FlightNumber:   req.FlightNumber,
		Passengers:     req.Passengers,
		VehicleClass:   req.VehicleClass,
		ServiceMode:    req.Mode,
		DurationHours:  req.DurationHours,
		DistanceMiles:  quote.DistanceMiles,
		QuoteAmount:    quote.Amount.Amount,
		PricingMethod:  quote.Method,
		MeetAndGreet:   req.MeetAndGreet,
		RoundTrip:      req.RoundTrip,
		AmountCaptured: total,
		TransactionID:  captured.TransactionID,
	}
	if err := s.reservations.Create(ctx, r); err != nil {
		if errors.Is(err, reservation.ErrSlotTaken) {
			// Money moved but the slot is gone. Operators refund out of band.
			log.Printf("booking: ALERT slot %s %s taken after capture, transaction %s needs refund",
				req.TripDate, req.TripTime, captured.TransactionID)
			return BookResult{}, &ConflictAfterCaptureError{TransactionID: captured.TransactionID}
		}
		// Any persist failure at this point is a captured charge without a
		// reservation; it must reach operators, never vanish into a generic
		// error.
		log.Printf("booking: ALERT reservation for transaction %s failed to persist after capture, needs reconciliation: %v",
			captured.TransactionID, err)
		return BookResult{}, err
	}

	// Fan-out is detached from the request: the booking already succeeded.
	go func() {
		nctx, cancel := context.WithTimeout(context.Background(), s.notifyTimeout)
		defer cancel()
		if err := s.dispatcher.NotifyEligibleDrivers(nctx, r); err != nil {
			log.Printf("booking: dispatch fan-out for reservation %s: %v", r.ID, err)
		}
	}()

	return BookResult{
		ReservationID:  r.ID,
		TransactionID:  captured.TransactionID,
		AmountCaptured: types.USD(total),
	}, nil
}

func validateBook(req BookRequest) error {
	if _, err := parseTripDate(req.TripDate); err != nil {
		return err
	}
	if _, err := time.Parse(reservation.TimeLayout, req.TripTime); err != nil {
		return fmt.Errorf("%w: time must be %s", ErrValidation, reservation.TimeLayout)
	}
	if req.Pickup == "" {
		return fmt.Errorf("%w: pickup is required", ErrValidation)
	}
	switch req.Mode {
	case pricing.ModeHourly:
		if req.DurationHours < 1 {
			return fmt.Errorf("%w: duration_hours must be at least 1", ErrValidation)
		}
	case pricing.ModeDistance, "":
		if req.Dropoff == "" {
			return fmt.Errorf("%w: dropoff is required", ErrValidation)
		}
	default:
		return fmt.Errorf("%w: unknown service mode %q", ErrValidation, req.Mode)
	}
	if req.Passengers < 1 {
		return fmt.Errorf("%w: passengers must be at least 1", ErrValidation)
	}
	if req.VehicleClass == "" {
		return fmt.Errorf("%w: vehicle_class is required", ErrValidation)
	}
	if req.SourceID == "" {
		return fmt.Errorf("%w: payment source is required", ErrValidation)
	}
	if req.IdempotencyKey == "" {
		return fmt.Errorf("%w: idempotency_key is required", ErrValidation)
	}
	return nil
}

func parseTripDate(date string) (time.Time, error) {
	t, err := time.Parse(reservation.DateLayout, date)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date must be %s", ErrValidation, reservation.DateLayout)
	}
	return t, nil
}
