// README: Road distance lookups via the Google Maps Distance Matrix API.
package maps

import (
	"context"
	"fmt"
	"time"

	"googlemaps.github.io/maps"
)

const metersPerMile = 1609.34

// DistanceService answers road miles between two addresses. It assumes
// driving mode; quotes bill road distance, not straight-line.
type DistanceService struct {
	client  *maps.Client
	timeout time.Duration
}

// NewDistanceService creates a DistanceService with the given API key.
func NewDistanceService(apiKey string, timeout time.Duration) (*DistanceService, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &DistanceService{client: client, timeout: timeout}, nil
}

// Miles returns the driving distance in miles from origin to destination.
func (s *DistanceService) Miles(ctx context.Context, origin, destination string) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	r := &maps.DistanceMatrixRequest{
		Origins:      []string{origin},
		Destinations: []string{destination},
		Mode:         maps.TravelModeDriving,
		Units:        maps.UnitsImperial,
	}

	resp, err := s.client.DistanceMatrix(ctx, r)
	if err != nil {
		return 0, fmt.Errorf("maps api error: %w", err)
	}
	if len(resp.Rows) == 0 || len(resp.Rows[0].Elements) == 0 {
		return 0, fmt.Errorf("no route found")
	}
	el := resp.Rows[0].Elements[0]
	if el.Status != "OK" {
		return 0, fmt.Errorf("no route found: %s", el.Status)
	}
	return float64(el.Distance.Meters) / metersPerMile, nil
}
