package ports

import (
	"context"
	"milk-collection-service/internal/domain"
)

// BackendRoute is the raw answer of a routing backend. Order holds indices
// into the requested stops.
type BackendRoute struct {
	Order       []int
	DistanceKm  float64
	DurationMin float64
}

// RoutingBackend is the raw road-network capability (e.g. OpenRouteService).
// Unlike DistanceRouteProvider it reports every failure as an error.
type RoutingBackend interface {
	// Return road distances in km from every origin to every destination.
	Matrix(ctx context.Context, origins, destinations []domain.Coordinates) ([][]float64, error)
	// Return a visiting order for stops and the closed tour metrics from origin.
	Route(ctx context.Context, origin domain.Coordinates, stops []domain.Coordinates) (BackendRoute, error)
}
