package distance

import (
	"context"
	"errors"
	"milk-collection-service/internal/domain"
	"milk-collection-service/internal/ports"
)

// ErrBackendNotConfigured is reported when no routing API key is set.
var ErrBackendNotConfigured = errors.New("routing backend not configured")

// UnavailableBackend fails every call, so every estimate is a geodesic
// fallback.
type UnavailableBackend struct{}

func (UnavailableBackend) Matrix(context.Context, []domain.Coordinates, []domain.Coordinates) ([][]float64, error) {
	return nil, ErrBackendNotConfigured
}

func (UnavailableBackend) Route(context.Context, domain.Coordinates, []domain.Coordinates) (ports.BackendRoute, error) {
	return ports.BackendRoute{}, ErrBackendNotConfigured
}
