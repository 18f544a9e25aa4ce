package distance

import (
	"context"
	"errors"
	"math"
	"milk-collection-service/internal/domain"
	"milk-collection-service/internal/geo"
	"milk-collection-service/internal/ports"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var (
	testHub   = domain.Coordinates{Lat: 10, Lon: 78}
	testStops = []domain.Coordinates{
		{Lat: 10.02, Lon: 78.01},
		{Lat: 10.05, Lon: 78.03},
		{Lat: 10.01, Lon: 78.04},
	}
)

func TestResilientMatrixLive(t *testing.T) {
	backend := &MockBackend{MatrixFunc: func(o, d []domain.Coordinates) ([][]float64, error) {
		return [][]float64{{1}, {2}, {3}}, nil
	}}
	p := NewResilientProvider(backend, geo.NewEstimator(40), time.Second)

	res, err := p.Matrix(context.Background(), testStops, []domain.Coordinates{testHub})
	require.NoError(t, err)
	require.Equal(t, domain.SourceLive, res.Source)
	require.Empty(t, res.Reason)
	require.Equal(t, [][]float64{{1}, {2}, {3}}, res.DistancesKm)
}

func TestResilientMatrixFallsBack(t *testing.T) {
	want, err := geo.Matrix(testStops, []domain.Coordinates{testHub})
	require.NoError(t, err)

	tests := []struct {
		name    string
		backend ports.RoutingBackend
	}{
		{"error", &MockBackend{MatrixErr: errors.New("connection refused")}},
		{"short", &MockBackend{MatrixFunc: func(o, d []domain.Coordinates) ([][]float64, error) {
			return [][]float64{{1}}, nil
		}}},
		{"nan", &MockBackend{MatrixFunc: func(o, d []domain.Coordinates) ([][]float64, error) {
			return [][]float64{{1}, {math.NaN()}, {3}}, nil
		}}},
		{"negative", &MockBackend{MatrixFunc: func(o, d []domain.Coordinates) ([][]float64, error) {
			return [][]float64{{1}, {-2}, {3}}, nil
		}}},
		{"not configured", UnavailableBackend{}},
		{"nil backend", nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := NewResilientProvider(tc.backend, geo.NewEstimator(40), time.Second)
			res, err := p.Matrix(context.Background(), testStops, []domain.Coordinates{testHub})
			require.NoError(t, err)
			require.Equal(t, domain.SourceFallback, res.Source)
			require.NotEmpty(t, res.Reason)
			require.Equal(t, want, res.DistancesKm)
		})
	}
}

func TestResilientMatrixTimeout(t *testing.T) {
	backend := &MockBackend{MatrixFunc: func(o, d []domain.Coordinates) ([][]float64, error) {
		time.Sleep(50 * time.Millisecond)
		return nil, context.DeadlineExceeded
	}}
	p := NewResilientProvider(backend, geo.NewEstimator(40), 5*time.Millisecond)

	res, err := p.Matrix(context.Background(), testStops, []domain.Coordinates{testHub})
	require.NoError(t, err)
	require.Equal(t, domain.SourceFallback, res.Source)
	require.Equal(t, "timeout", res.Reason)
}

func TestResilientRejectsInvalidCoordinates(t *testing.T) {
	p := NewResilientProvider(&MockBackend{}, geo.NewEstimator(40), time.Second)

	_, err := p.Matrix(context.Background(), []domain.Coordinates{{Lat: 95}}, []domain.Coordinates{testHub})
	require.ErrorIs(t, err, domain.ErrInvalidCoordinate)

	_, err = p.Route(context.Background(), testHub, []domain.Coordinates{{Lat: 0, Lon: 190}})
	require.ErrorIs(t, err, domain.ErrInvalidCoordinate)

	matrixCalls, routeCalls := p.Backend.(*MockBackend).Calls()
	require.Zero(t, matrixCalls)
	require.Zero(t, routeCalls)
}

func TestResilientRouteLive(t *testing.T) {
	backend := &MockBackend{RouteFunc: func(o domain.Coordinates, s []domain.Coordinates) (ports.BackendRoute, error) {
		return ports.BackendRoute{Order: []int{1, 2, 0}, DistanceKm: 21.5, DurationMin: 34}, nil
	}}
	p := NewResilientProvider(backend, geo.NewEstimator(40), time.Second)

	res, err := p.Route(context.Background(), testHub, testStops)
	require.NoError(t, err)
	require.Equal(t, domain.SourceLive, res.Source)
	require.Equal(t, []int{1, 2, 0}, res.Order)
	require.Equal(t, 21.5, res.DistanceKm)
	require.Equal(t, 34.0, res.DurationMin)
}

func TestResilientRouteFallsBackOnBadOrder(t *testing.T) {
	km, minutes, err := geo.NewEstimator(40).Tour(testHub, testStops)
	require.NoError(t, err)

	orders := [][]int{{0, 0, 1}, {0, 1}, {0, 1, 3}, {-1, 0, 1}}
	for _, order := range orders {
		backend := &MockBackend{RouteFunc: func(o domain.Coordinates, s []domain.Coordinates) (ports.BackendRoute, error) {
			return ports.BackendRoute{Order: order, DistanceKm: 1, DurationMin: 1}, nil
		}}
		p := NewResilientProvider(backend, geo.NewEstimator(40), time.Second)

		res, err := p.Route(context.Background(), testHub, testStops)
		require.NoError(t, err)
		require.Equal(t, domain.SourceFallback, res.Source, "order %v", order)
		require.Equal(t, []int{0, 1, 2}, res.Order)
		require.Equal(t, km, res.DistanceKm)
		require.Equal(t, minutes, res.DurationMin)
	}
}

func TestResilientRouteEmptyStops(t *testing.T) {
	p := NewResilientProvider(UnavailableBackend{}, geo.NewEstimator(40), time.Second)

	res, err := p.Route(context.Background(), testHub, nil)
	require.NoError(t, err)
	require.Empty(t, res.Order)
	require.Zero(t, res.DistanceKm)
	require.Zero(t, res.DurationMin)
}
