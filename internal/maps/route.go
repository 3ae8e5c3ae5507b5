package maps

import (
	"context"
	"errors"
	"fmt"
	"time"

	"googlemaps.github.io/maps"
)

// ErrNoRoute is returned when Directions finds no drivable route.
var ErrNoRoute = errors.New("no route found")

// RouteEstimator estimates the drive from pickup to hospital with the
// Google Maps Directions API.
type RouteEstimator struct {
	client  *maps.Client
	timeout time.Duration
}

// NewRouteEstimator creates a new RouteEstimator with the given API key.
func NewRouteEstimator(apiKey string) (*RouteEstimator, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return &RouteEstimator{client: client, timeout: 3 * time.Second}, nil
}

// EstimateRoute returns the driving distance in meters and duration of the
// first route between origin and destination.
func (e *RouteEstimator) EstimateRoute(ctx context.Context, origin, destination string) (int, time.Duration, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	routes, _, err := e.client.Directions(ctx, &maps.DirectionsRequest{
		Origin:      origin,
		Destination: destination,
		Mode:        maps.TravelModeDriving,
		Language:    "th",
		Region:      "th",
	})
	if err != nil {
		return 0, 0, fmt.Errorf("maps api error: %w", err)
	}
	if len(routes) == 0 || len(routes[0].Legs) == 0 {
		return 0, 0, ErrNoRoute
	}

	leg := routes[0].Legs[0]
	return leg.Distance.Meters, leg.Duration, nil
}
