// README: Rate definitions for each vehicle class and seasonal overrides.
package pricing

import "time"

type ServiceMode string

const (
	ModeDistance ServiceMode = "distance"
	ModeHourly   ServiceMode = "hourly"
)

// Method records which pricing branch produced the quote.
type Method string

const (
	MethodBase     Method = "base"
	MethodMetered  Method = "metered"
	MethodHourly   Method = "hourly"
	MethodSeasonal Method = "seasonal"
	MethodFallback Method = "fallback"
)

// Rate carries the per-class pricing knobs, all in cents.
type Rate struct {
	VehicleClass string
	BaseRate     int64 // flat minimum for distance trips
	PerMile      int64
	PerHour      int64
}

// SeasonalOverride forces a flat fee for trips whose date falls inside the
// window (inclusive on both ends).
type SeasonalOverride struct {
	Name       string
	StartsOn   time.Time
	EndsOn     time.Time
	FlatAmount int64
}

// Contains reports whether the trip date (truncated to a calendar day)
// falls inside the override window.
func (o SeasonalOverride) Contains(date time.Time) bool {
	d := date.Truncate(24 * time.Hour)
	return !d.Before(o.StartsOn.Truncate(24*time.Hour)) && !d.After(o.EndsOn.Truncate(24*time.Hour))
}

type QuoteRequest struct {
	VehicleClass  string
	Mode          ServiceMode
	DistanceMiles float64
	DurationHours int
	RoundTrip     bool
	TripDate      time.Time
}

type QuoteResult struct {
	Amount        int64
	DistanceMiles float64
	Method        Method
}

// DefaultRates mirrors the published rate card. The store may replace these
// with rows from pricing_rates, but existing reservations keep the amount
// captured at booking time regardless of later edits.
func DefaultRates() map[string]Rate {
	return map[string]Rate{
		"Luxury Sedan":  {VehicleClass: "Luxury Sedan", BaseRate: 8500, PerMile: 300, PerHour: 7500},
		"Luxury SUV":    {VehicleClass: "Luxury SUV", BaseRate: 11500, PerMile: 450, PerHour: 9500},
		"Sprinter":      {VehicleClass: "Sprinter", BaseRate: 15000, PerMile: 600, PerHour: 12500},
		"Executive Bus": {VehicleClass: "Executive Bus", BaseRate: 25000, PerMile: 1000, PerHour: 17500},
	}
}
