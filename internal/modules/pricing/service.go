// README: Pricing service computes deterministic quotes from the rate table.
package pricing

import (
	"errors"
	"math"
)

var ErrUnsupportedVehicleClass = errors.New("unsupported vehicle class")

// RoundTripFactor multiplies the final one-way amount for round trips.
// Round trips are discounted relative to two one-way bookings, so the
// factor sits below 2.0. It is applied to the amount, never to the distance.
const RoundTripFactor = 1.8

// Service quotes trips from an immutable rate table. It performs no I/O;
// loading the table is the store's job.
type Service struct {
	rates     map[string]Rate
	overrides []SeasonalOverride
}

func NewService(rates map[string]Rate, overrides []SeasonalOverride) *Service {
	if rates == nil {
		rates = DefaultRates()
	}
	return &Service{rates: rates, overrides: overrides}
}

// Quote computes the price for a trip. For distance trips the charged amount
// is whichever is higher of the flat base rate and the metered amount; the
// two are never summed or averaged. Hourly trips bill duration * per-hour
// rate and report no distance. A seasonal override window takes precedence
// over every other computation.
func (s *Service) Quote(req QuoteRequest) (QuoteResult, error) {
	rate, ok := s.rates[req.VehicleClass]
	if !ok {
		return QuoteResult{}, ErrUnsupportedVehicleClass
	}

	res := QuoteResult{}
	if over, ok := s.seasonal(req); ok {
		res.Amount = over.FlatAmount
		res.Method = MethodSeasonal
	} else if req.Mode == ModeHourly {
		res.Amount = int64(req.DurationHours) * rate.PerHour
		res.Method = MethodHourly
	} else {
		metered := roundHalfUp(req.DistanceMiles * float64(rate.PerMile))
		if metered > rate.BaseRate {
			res.Amount = metered
			res.Method = MethodMetered
		} else {
			res.Amount = rate.BaseRate
			res.Method = MethodBase
		}
		res.DistanceMiles = req.DistanceMiles
	}

	if req.RoundTrip {
		res.Amount = roundHalfUp(float64(res.Amount) * RoundTripFactor)
	}
	return res, nil
}

// BaseFallback quotes the flat base rate when the distance lookup failed.
// The flow degrades instead of aborting; method records the degradation.
func (s *Service) BaseFallback(vehicleClass string, roundTrip bool) (QuoteResult, error) {
	rate, ok := s.rates[vehicleClass]
	if !ok {
		return QuoteResult{}, ErrUnsupportedVehicleClass
	}
	amount := rate.BaseRate
	if roundTrip {
		amount = roundHalfUp(float64(amount) * RoundTripFactor)
	}
	return QuoteResult{Amount: amount, Method: MethodFallback}, nil
}

func (s *Service) seasonal(req QuoteRequest) (SeasonalOverride, bool) {
	if req.TripDate.IsZero() {
		return SeasonalOverride{}, false
	}
	for _, o := range s.overrides {
		if o.Contains(req.TripDate) {
			return o, true
		}
	}
	return SeasonalOverride{}, false
}

// roundHalfUp converts fractional cents to an authoritative integer amount.
func roundHalfUp(v float64) int64 {
	return int64(math.Floor(v + 0.5))
}
