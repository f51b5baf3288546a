// README: Driver directory backed by PostgreSQL (read-only to this service).
package dispatch

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/MacTheAnon/joco-exec/internal/types"
)

// Directory answers driver lookups for fan-out and assignment.
type Directory interface {
	ListApproved(ctx context.Context) ([]Driver, error)
	Get(ctx context.Context, id types.ID) (Driver, error)
}

type PostgresDirectory struct {
	db *pgxpool.Pool
}

func NewPostgresDirectory(db *pgxpool.Pool) *PostgresDirectory {
	return &PostgresDirectory{db: db}
}

// ListApproved returns the fan-out audience: approved, active drivers.
func (d *PostgresDirectory) ListApproved(ctx context.Context) ([]Driver, error) {
	rows, err := d.db.Query(ctx, `
		SELECT id, name, email, phone, approved
		FROM drivers
		WHERE approved = TRUE`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var drivers []Driver
	for rows.Next() {
		var dr Driver
		if err := rows.Scan(&dr.ID, &dr.Name, &dr.Email, &dr.Phone, &dr.Approved); err != nil {
			return nil, err
		}
		drivers = append(drivers, dr)
	}
	return drivers, rows.Err()
}

func (d *PostgresDirectory) Get(ctx context.Context, id types.ID) (Driver, error) {
	row := d.db.QueryRow(ctx, `
		SELECT id, name, email, phone, approved
		FROM drivers
		WHERE id = $1`, string(id))

	var dr Driver
	err := row.Scan(&dr.ID, &dr.Name, &dr.Email, &dr.Phone, &dr.Approved)
	if errors.Is(err, pgx.ErrNoRows) {
		return Driver{}, ErrUnknownDriver
	}
	return dr, err
}
