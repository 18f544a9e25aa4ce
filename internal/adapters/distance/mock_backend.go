package distance

import (
	"context"
	"milk-collection-service/internal/domain"
	"milk-collection-service/internal/ports"
	"sync"
)

// MockBackend is a scripted RoutingBackend for tests and local runs.
// A nil MatrixFunc or RouteFunc makes that call fail with MatrixErr or
// RouteErr.
type MockBackend struct {
	MatrixFunc func(origins, destinations []domain.Coordinates) ([][]float64, error)
	RouteFunc  func(origin domain.Coordinates, stops []domain.Coordinates) (ports.BackendRoute, error)
	MatrixErr  error
	RouteErr   error

	mu          sync.Mutex
	matrixCalls int
	routeCalls  int
}

func (m *MockBackend) Matrix(ctx context.Context, origins, destinations []domain.Coordinates) ([][]float64, error) {
	m.mu.Lock()
	m.matrixCalls++
	m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.MatrixFunc == nil {
		return nil, m.MatrixErr
	}
	return m.MatrixFunc(origins, destinations)
}

func (m *MockBackend) Route(ctx context.Context, origin domain.Coordinates, stops []domain.Coordinates) (ports.BackendRoute, error) {
	m.mu.Lock()
	m.routeCalls++
	m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return ports.BackendRoute{}, err
	}
	if m.RouteFunc == nil {
		return ports.BackendRoute{}, m.RouteErr
	}
	return m.RouteFunc(origin, stops)
}

func (m *MockBackend) Calls() (matrix, route int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.matrixCalls, m.routeCalls
}
