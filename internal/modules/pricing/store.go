// README: Pricing store backed by PostgreSQL.
package pricing

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// LoadRates reads the rate card. An empty table yields the built-in defaults
// so a fresh database still quotes correctly.
func (s *Store) LoadRates(ctx context.Context) (map[string]Rate, error) {
	rows, err := s.db.Query(ctx, `
		SELECT vehicle_class, base_rate_cents, per_mile_cents, per_hour_cents
		FROM pricing_rates`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rates := make(map[string]Rate)
	for rows.Next() {
		var r Rate
		if err := rows.Scan(&r.VehicleClass, &r.BaseRate, &r.PerMile, &r.PerHour); err != nil {
			return nil, err
		}
		rates[r.VehicleClass] = r
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(rates) == 0 {
		return DefaultRates(), nil
	}
	return rates, nil
}

// LoadOverrides reads the promotional flat-fee windows.
func (s *Store) LoadOverrides(ctx context.Context) ([]SeasonalOverride, error) {
	rows, err := s.db.Query(ctx, `
		SELECT name, starts_on, ends_on, flat_amount_cents
		FROM seasonal_overrides`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var overrides []SeasonalOverride
	for rows.Next() {
		var o SeasonalOverride
		if err := rows.Scan(&o.Name, &o.StartsOn, &o.EndsOn, &o.FlatAmount); err != nil {
			return nil, err
		}
		overrides = append(overrides, o)
	}
	return overrides, rows.Err()
}
