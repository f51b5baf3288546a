// README: Dispatch service fans paid reservations out to eligible drivers.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/MacTheAnon/joco-exec/internal/config"
	"github.com/MacTheAnon/joco-exec/internal/modules/reservation"
	"github.com/MacTheAnon/joco-exec/internal/types"
)

var (
	ErrUnknownDriver     = errors.New("unknown driver")
	ErrDriverNotApproved = errors.New("driver is not approved for dispatch")
)

// Assigner updates the reservation record when a driver is assigned.
// Implemented by the reservation service.
type Assigner interface {
	Assign(ctx context.Context, id, driverID types.ID) (changed bool, err error)
}

// Ledger records fan-out bookkeeping and answers operator audits.
type Ledger interface {
	RecordDispatch(ctx context.Context, reservationID types.ID, driverIDs []types.ID) error
	DispatchedAt(ctx context.Context, reservationID types.ID) (time.Time, bool, error)
	NotifiedDrivers(ctx context.Context, reservationID types.ID) ([]types.ID, error)
}

// Audit is the operator view of one reservation's fan-out.
type Audit struct {
	Dispatched      bool
	DispatchedAt    time.Time
	NotifiedDrivers []types.ID
}

type Service struct {
	directory Directory
	notifier  Notifier
	assigner  Assigner
	ledger    Ledger
	cfg       config.DispatchConfig
}

func NewService(directory Directory, notifier Notifier, assigner Assigner, ledger Ledger, cfg config.DispatchConfig) *Service {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 8
	}
	return &Service{directory: directory, notifier: notifier, assigner: assigner, ledger: ledger, cfg: cfg}
}

// NotifyEligibleDrivers broadcasts a new job to every approved driver.
// Sends run concurrently under a bounded semaphore; each recipient fails
// independently, and failures are logged and aggregated for operators
// instead of being discarded. The booking that triggered the fan-out has
// already succeeded and must never see these errors.
func (s *Service) NotifyEligibleDrivers(ctx context.Context, r *reservation.Reservation) error {
	drivers, err := s.directory.ListApproved(ctx)
	if err != nil {
		return fmt.Errorf("list approved drivers: %w", err)
	}
	if len(drivers) == 0 {
		log.Printf("dispatch: no approved drivers for reservation %s", r.ID)
		return nil
	}

	sem := make(chan struct{}, s.cfg.MaxConcurrent)
	var wg sync.WaitGroup
	var mu sync.Mutex
	failed := 0

	for _, d := range drivers {
		wg.Add(1)
		sem <- struct{}{}
		go func(d Driver) {
			defer wg.Done()
			defer func() { <-sem }()
			if err := s.notifier.Send(ctx, newJobNotification(d, r)); err != nil {
				log.Printf("dispatch: notify driver %s for reservation %s: %v", d.ID, r.ID, err)
				mu.Lock()
				failed++
				mu.Unlock()
			}
		}(d)
	}
	wg.Wait()

	if s.ledger != nil {
		ids := make([]types.ID, len(drivers))
		for i, d := range drivers {
			ids[i] = d.ID
		}
		if err := s.ledger.RecordDispatch(ctx, r.ID, ids); err != nil {
			log.Printf("dispatch: record fan-out for reservation %s: %v", r.ID, err)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d driver notifications failed", failed, len(drivers))
	}
	return nil
}

// Assign routes a reservation to a specific driver. Reassigning the same
// driver is a no-op; a changed assignment notifies the new driver
// best-effort.
func (s *Service) Assign(ctx context.Context, reservationID, driverID types.ID) error {
	d, err := s.directory.Get(ctx, driverID)
	if err != nil {
		return err
	}
	if !d.Approved {
		return ErrDriverNotApproved
	}
	changed, err := s.assigner.Assign(ctx, reservationID, driverID)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}
	n := Notification{
		Channel:   ChannelEmail,
		Recipient: d.Email,
		Subject:   fmt.Sprintf("TRIP ASSIGNED: %s", reservationID),
		Body:      fmt.Sprintf("You have been assigned reservation %s. Check your schedule for details.", reservationID),
	}
	if err := s.notifier.Send(ctx, n); err != nil {
		log.Printf("dispatch: notify assignment of %s to driver %s: %v", reservationID, driverID, err)
	}
	return nil
}

// AuditDispatch reports when a reservation was fanned out and to whom, so
// operators can investigate delivery complaints.
func (s *Service) AuditDispatch(ctx context.Context, reservationID types.ID) (Audit, error) {
	if s.ledger == nil {
		return Audit{}, nil
	}
	at, ok, err := s.ledger.DispatchedAt(ctx, reservationID)
	if err != nil {
		return Audit{}, err
	}
	if !ok {
		return Audit{}, nil
	}
	drivers, err := s.ledger.NotifiedDrivers(ctx, reservationID)
	if err != nil {
		return Audit{}, err
	}
	return Audit{Dispatched: true, DispatchedAt: at, NotifiedDrivers: drivers}, nil
}

// DirectMessage sends an ad hoc instruction to one driver, outside the
// booking flow. Prefers SMS when the driver has a phone on file.
func (s *Service) DirectMessage(ctx context.Context, driverID types.ID, text string) error {
	d, err := s.directory.Get(ctx, driverID)
	if err != nil {
		return err
	}
	n := Notification{Channel: ChannelEmail, Recipient: d.Email, Subject: "Dispatch message", Body: text}
	if d.Phone != "" {
		n.Channel = ChannelSMS
		n.Recipient = d.Phone
		n.Subject = ""
	}
	return s.notifier.Send(ctx, n)
}

func newJobNotification(d Driver, r *reservation.Reservation) Notification {
	route := r.Pickup
	if r.Dropoff != "" {
		route += " -> " + r.Dropoff
	} else {
		route += fmt.Sprintf(" (hourly, %dh)", r.DurationHours)
	}
	return Notification{
		Channel:   ChannelEmail,
		Recipient: d.Email,
		Subject:   fmt.Sprintf("NEW JOB: %s", r.TripDate),
		Body: fmt.Sprintf("New job available. Date: %s @ %s. Route: %s. Vehicle: %s. Log in to claim.",
			r.TripDate, r.TripTime, route, r.VehicleClass),
	}
}
