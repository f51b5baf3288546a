// README: Reservation service implements lifecycle transitions and listing.
package reservation

import (
	"context"
	"errors"
	"time"

	"github.com/MacTheAnon/joco-exec/internal/types"
)

var (
	ErrNotFound     = errors.New("reservation not found")
	ErrConflict     = errors.New("reservation state conflict")
	ErrInvalidState = errors.New("invalid state transition")
	ErrSlotTaken    = errors.New("slot already booked")
	ErrBadRequest   = errors.New("bad request")
)

type Service struct {
	store *Store
}

func NewService(store *Store) *Service {
	return &Service{store: store}
}

// IsAvailable answers the advisory pre-payment check for an exact
// (date, time) slot. Trip duration does not factor into conflicts.
func (s *Service) IsAvailable(ctx context.Context, date, tm string) (bool, error) {
	taken, err := s.store.SlotTaken(ctx, date, tm)
	if err != nil {
		return false, err
	}
	return !taken, nil
}

// Create persists a freshly paid reservation. ErrSlotTaken means a
// concurrent booking won the slot race after this one already charged.
func (s *Service) Create(ctx context.Context, r *Reservation) error {
	if r.ID == "" || r.TripDate == "" || r.TripTime == "" {
		return ErrBadRequest
	}
	r.Status = StatusUnclaimed
	r.StatusVersion = 0
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	return s.store.Create(ctx, r)
}

func (s *Service) Get(ctx context.Context, id types.ID) (*Reservation, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, f ListFilter) ([]*Reservation, error) {
	return s.store.List(ctx, f)
}

// Assign sets or changes the assigned driver. Reassigning the same driver
// is a no-op (changed=false); reassigning a different driver rides the
// assigned self-loop. A concurrent edit loses the compare-and-set and
// surfaces as ErrConflict rather than being silently clobbered.
func (s *Service) Assign(ctx context.Context, id, driverID types.ID) (changed bool, err error) {
	r, err := s.store.Get(ctx, id)
	if err != nil {
		return false, err
	}
	if r.DriverID != nil && *r.DriverID == driverID && r.Status == StatusAssigned {
		return false, nil
	}
	if !CanTransition(r.Status, StatusAssigned) {
		return false, ErrInvalidState
	}
	ok, err := s.store.UpdateStatus(ctx, r.ID, r.Status, StatusAssigned, r.StatusVersion, &driverID)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, ErrConflict
	}
	return true, nil
}

// Claim is the driver self-service path: only unclaimed jobs may be
// claimed, so a driver can never steal an already assigned trip.
func (s *Service) Claim(ctx context.Context, id, driverID types.ID) error {
	r, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if r.Status == StatusAssigned && r.DriverID != nil && *r.DriverID == driverID {
		return nil
	}
	if r.Status != StatusUnclaimed {
		return ErrInvalidState
	}
	ok, err := s.store.UpdateStatus(ctx, r.ID, StatusUnclaimed, StatusAssigned, r.StatusVersion, &driverID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrConflict
	}
	return nil
}

func (s *Service) Complete(ctx context.Context, id types.ID) error {
	return s.transition(ctx, id, StatusCompleted)
}

func (s *Service) Cancel(ctx context.Context, id types.ID) error {
	return s.transition(ctx, id, StatusCancelled)
}

// Delete hard-removes a reservation (administrative correction), as opposed
// to Cancel which keeps the record in the cancelled state.
func (s *Service) Delete(ctx context.Context, id types.ID) error {
	return s.store.Delete(ctx, id)
}

func (s *Service) transition(ctx context.Context, id types.ID, to Status) error {
	r, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if !CanTransition(r.Status, to) {
		return ErrInvalidState
	}
	ok, err := s.store.UpdateStatus(ctx, r.ID, r.Status, to, r.StatusVersion, r.DriverID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrConflict
	}
	return nil
}
