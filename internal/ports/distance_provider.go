package ports

import (
	"context"
	"milk-collection-service/internal/domain"
)

// MatrixResult is a distance matrix in kilometers, rows = origins,
// columns = destinations, tagged with where the numbers came from.
type MatrixResult struct {
	DistancesKm [][]float64
	Source      domain.EstimateSource
	Reason      string
}

// RouteResult is an ordered tour hub -> stops -> hub. Order holds indices
// into the stops passed to Route.
type RouteResult struct {
	Order       []int
	DistanceKm  float64
	DurationMin float64
	Source      domain.EstimateSource
	Reason      string
}

// Contract for distance and routing estimates used by the optimizer.
//
// Implementations never fail on transient backend problems: they return a
// Fallback result with a reason. The only error returned is an invalid
// coordinate in the input.
type DistanceRouteProvider interface {
	Matrix(ctx context.Context, origins, destinations []domain.Coordinates) (MatrixResult, error)
	Route(ctx context.Context, origin domain.Coordinates, stops []domain.Coordinates) (RouteResult, error)
}
