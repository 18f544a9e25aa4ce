package services

import (
	"context"
	"fmt"
	"math"
	"milk-collection-service/internal/domain"
	"milk-collection-service/internal/geo"
	"milk-collection-service/internal/ports"
)

// SequencedRoute is the ordered closed tour of one vehicle.
type SequencedRoute struct {
	Stops         []domain.Vendor
	DistanceKm    float64
	TravelTimeMin float64
	Source        domain.EstimateSource
	Reason        string
}

// RouteSequencer orders a vehicle's stops. It uses the provider's order when
// the provider answers live, and a nearest-neighbor tour from the hub with
// geodesic metrics otherwise.
type RouteSequencer struct {
	Provider  ports.DistanceRouteProvider
	Estimator geo.Estimator
}

func (s *RouteSequencer) Sequence(
	ctx context.Context,
	hub domain.Coordinates,
	stops []domain.Vendor,
) (SequencedRoute, error) {
	if len(stops) == 0 {
		return SequencedRoute{Stops: []domain.Vendor{}, Source: domain.SourceLive}, nil
	}

	coords := vendorLocations(stops)

	if s.Provider != nil {
		res, err := s.Provider.Route(ctx, hub, coords)
		if err != nil {
			return SequencedRoute{}, fmt.Errorf("sequence route: %w", err)
		}
		if res.Source == domain.SourceLive {
			return SequencedRoute{
				Stops:         reorder(stops, res.Order),
				DistanceKm:    res.DistanceKm,
				TravelTimeMin: res.DurationMin,
				Source:        domain.SourceLive,
			}, nil
		}
		return s.fallback(hub, stops, coords, res.Reason)
	}

	return s.fallback(hub, stops, coords, "no distance provider")
}

func (s *RouteSequencer) fallback(hub domain.Coordinates, stops []domain.Vendor, coords []domain.Coordinates, reason string) (SequencedRoute, error) {
	order, err := NearestNeighborOrder(hub, coords)
	if err != nil {
		return SequencedRoute{}, fmt.Errorf("sequence route: %w", err)
	}

	ordered := reorder(stops, order)
	km, minutes, err := s.Estimator.Tour(hub, vendorLocations(ordered))
	if err != nil {
		return SequencedRoute{}, fmt.Errorf("sequence route: %w", err)
	}

	return SequencedRoute{
		Stops:         ordered,
		DistanceKm:    km,
		TravelTimeMin: minutes,
		Source:        domain.SourceFallback,
		Reason:        reason,
	}, nil
}

// NearestNeighborOrder visits stops greedily by geodesic distance, starting
// at origin. Ties go to the lower stop index.
//
// The algorithm minimizes immediate travel distance at each step.
// It does not attempt global route optimization.
func NearestNeighborOrder(origin domain.Coordinates, stops []domain.Coordinates) ([]int, error) {
	visited := make([]bool, len(stops))
	order := make([]int, 0, len(stops))
	current := origin

	for len(order) < len(stops) {
		best := -1
		bestDist := math.Inf(1)

		// Select next stop by minimum distance (greedy step).
		for i, st := range stops {
			if visited[i] {
				continue
			}
			d, err := geo.HaversineKm(current, st)
			if err != nil {
				return nil, fmt.Errorf("nearest neighbor: %w", err)
			}
			if best == -1 || d < bestDist {
				best = i
				bestDist = d
			}
		}

		visited[best] = true
		order = append(order, best)
		current = stops[best]
	}

	return order, nil
}

func reorder(stops []domain.Vendor, order []int) []domain.Vendor {
	out := make([]domain.Vendor, len(order))
	for k, i := range order {
		out[k] = stops[i]
	}
	return out
}
