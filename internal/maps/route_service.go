// README: Distance estimates via Google Maps with a haversine fallback.
package maps

import (
	"context"
	"fmt"
	"math"

	"googlemaps.github.io/maps"

	"gasline/internal/types"
)

// DistanceEstimator returns the driving distance in kilometres between two
// points.
type DistanceEstimator interface {
	DistanceKm(ctx context.Context, origin, destination types.Point) (float64, error)
}

// RouteService queries the Directions API for real road distances.
type RouteService struct {
	client *maps.Client
}

func NewRouteService(apiKey string) (*RouteService, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create maps client: %w", err)
	}
	return &RouteService{client: client}, nil
}

func (s *RouteService) DistanceKm(ctx context.Context, origin, destination types.Point) (float64, error) {
	r := &maps.DirectionsRequest{
		Origin:      fmt.Sprintf("%f,%f", origin.Lat, origin.Lng),
		Destination: fmt.Sprintf("%f,%f", destination.Lat, destination.Lng),
		Mode:        maps.TravelModeDriving,
	}
	routes, _, err := s.client.Directions(ctx, r)
	if err != nil {
		return 0, fmt.Errorf("maps api error: %w", err)
	}
	if len(routes) == 0 || len(routes[0].Legs) == 0 {
		return 0, fmt.Errorf("no route found")
	}
	return float64(routes[0].Legs[0].Distance.Meters) / 1000.0, nil
}

// HaversineEstimator is the offline fallback when no API key is configured.
type HaversineEstimator struct{}

func (HaversineEstimator) DistanceKm(_ context.Context, a, b types.Point) (float64, error) {
	return haversineKm(a, b), nil
}

const earthRadiusKm = 6371.0

func haversineKm(a, b types.Point) float64 {
	dLat := degreesToRadians(b.Lat - a.Lat)
	dLng := degreesToRadians(b.Lng - a.Lng)

	rLat1 := degreesToRadians(a.Lat)
	rLat2 := degreesToRadians(b.Lat)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rLat1)*math.Cos(rLat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusKm * c
}

func degreesToRadians(deg float64) float64 {
	return deg * math.Pi / 180.0
}
