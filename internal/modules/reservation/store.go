// README: Reservation store backed by PostgreSQL.
package reservation

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MacTheAnon/joco-exec/internal/modules/pricing"
	"github.com/MacTheAnon/joco-exec/internal/types"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

const pgUniqueViolation = "23505"

// Create inserts the reservation. The partial unique index on active
// (trip_date, trip_time) pairs is the authoritative double-booking check:
// of N concurrent inserts for the same slot exactly one succeeds and the
// rest get ErrSlotTaken, regardless of earlier advisory availability checks.
func (s *Store) Create(ctx context.Context, r *Reservation) error {
	// pgx encodes a nil slice as SQL NULL; stops is NOT NULL.
	if r.Stops == nil {
		r.Stops = []string{}
	}
	_, err := s.db.Exec(ctx, `
		INSERT INTO reservations (
			id, trip_date, trip_time, pickup, dropoff, stops, flight_number, passengers,
			vehicle_class, service_mode, duration_hours, distance_miles,
			quote_amount_cents, pricing_method, meet_and_greet, round_trip,
			amount_captured_cents, transaction_id,
			driver_id, status, status_version, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8,
			$9, $10, $11, $12,
			$13, $14, $15, $16,
			$17, $18,
			$19, $20, $21, $22
		)`,
		string(r.ID), r.TripDate, r.TripTime, r.Pickup, r.Dropoff, r.Stops, r.FlightNumber, r.Passengers,
		r.VehicleClass, string(r.ServiceMode), r.DurationHours, r.DistanceMiles,
		r.QuoteAmount, string(r.PricingMethod), r.MeetAndGreet, r.RoundTrip,
		r.AmountCaptured, r.TransactionID,
		toStringPtr(r.DriverID), string(r.Status), r.StatusVersion, r.CreatedAt,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return ErrSlotTaken
	}
	return err
}

const reservationColumns = `
	id, trip_date, trip_time, pickup, dropoff, stops, flight_number, passengers,
	vehicle_class, service_mode, duration_hours, distance_miles,
	quote_amount_cents, pricing_method, meet_and_greet, round_trip,
	amount_captured_cents, transaction_id,
	driver_id, status, status_version, created_at`

func (s *Store) Get(ctx context.Context, id types.ID) (*Reservation, error) {
	row := s.db.QueryRow(ctx, `
		SELECT`+reservationColumns+`
		FROM reservations
		WHERE id = $1`, string(id),
	)
	r, err := scanReservation(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return r, err
}

// List returns reservations most-recent-first, optionally narrowed to one
// driver's jobs.
func (s *Store) List(ctx context.Context, f ListFilter) ([]*Reservation, error) {
	query := `SELECT` + reservationColumns + ` FROM reservations`
	args := []any{}
	if f.DriverID != "" {
		query += ` WHERE driver_id = $1`
		args = append(args, string(f.DriverID))
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []*Reservation{}
	for rows.Next() {
		r, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// SlotTaken is the advisory pre-payment availability check. The unique
// index in Create remains authoritative.
func (s *Store) SlotTaken(ctx context.Context, date, tm string) (bool, error) {
	row := s.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM reservations
			WHERE trip_date = $1 AND trip_time = $2 AND status <> 'cancelled'
		)`, date, tm,
	)
	var taken bool
	if err := row.Scan(&taken); err != nil {
		return false, err
	}
	return taken, nil
}

// UpdateStatus performs an optimistic compare-and-set on (status,
// status_version). Returns false when a concurrent writer got there first.
func (s *Store) UpdateStatus(ctx context.Context, id types.ID, from, to Status, version int, driverID *types.ID) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE reservations
		SET status = $1,
		    status_version = status_version + 1,
		    driver_id = COALESCE($2, driver_id)
		WHERE id = $3 AND status = $4 AND status_version = $5`,
		string(to),
		toStringPtr(driverID),
		string(id),
		string(from),
		version,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// Delete hard-removes the row. Administrative correction only; the normal
// lifecycle uses the cancelled status instead.
func (s *Store) Delete(ctx context.Context, id types.ID) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM reservations WHERE id = $1`, string(id))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanReservation(row pgx.Row) (*Reservation, error) {
	var r Reservation
	var driverID *string
	var serviceMode, pricingMethod, status string
	err := row.Scan(
		&r.ID, &r.TripDate, &r.TripTime, &r.Pickup, &r.Dropoff, &r.Stops, &r.FlightNumber, &r.Passengers,
		&r.VehicleClass, &serviceMode, &r.DurationHours, &r.DistanceMiles,
		&r.QuoteAmount, &pricingMethod, &r.MeetAndGreet, &r.RoundTrip,
		&r.AmountCaptured, &r.TransactionID,
		&driverID, &status, &r.StatusVersion, &r.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	r.ServiceMode = pricing.ServiceMode(serviceMode)
	r.PricingMethod = pricing.Method(pricingMethod)
	r.Status = Status(status)
	if driverID != nil {
		d := types.ID(*driverID)
		r.DriverID = &d
	}
	return &r, nil
}

func toStringPtr(v *types.ID) *string {
	if v == nil {
		return nil
	}
	s := string(*v)
	return &s
}
