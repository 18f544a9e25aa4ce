package services

import (
	"context"
	"milk-collection-service/internal/domain"
	"milk-collection-service/internal/geo"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNearestNeighborOrder(t *testing.T) {
	origin := domain.Coordinates{}
	stops := []domain.Coordinates{{Lon: 3}, {Lon: 1}, {Lon: 2}}

	order, err := NearestNeighborOrder(origin, stops)
	require.NoError(t, err)
	require.Equal(t, []int{1, 2, 0}, order)
}

func TestNearestNeighborTieGoesToLowerIndex(t *testing.T) {
	origin := domain.Coordinates{}

	order, err := NearestNeighborOrder(origin, []domain.Coordinates{{Lon: 1}, {Lon: -1}})
	require.NoError(t, err)
	require.Equal(t, []int{0, 1}, order)

	order, err = NearestNeighborOrder(origin, []domain.Coordinates{{Lon: -1}, {Lon: 1}})
	require.NoError(t, err)
	require.Equal(t, []int{0, 1}, order)
}

func TestSequenceFallbackUsesNearestNeighbor(t *testing.T) {
	seq := &RouteSequencer{Provider: failingProvider(), Estimator: geo.NewEstimator(40)}
	hub := domain.Coordinates{Lat: 10, Lon: 78}
	stops := []domain.Vendor{
		vendor("FAR", 10.3, 78, 1),
		vendor("NEAR", 10.1, 78, 1),
		vendor("MID", 10.2, 78, 1),
	}

	r, err := seq.Sequence(context.Background(), hub, stops)
	require.NoError(t, err)
	require.Equal(t, domain.SourceFallback, r.Source)

	ids := []string{r.Stops[0].ID, r.Stops[1].ID, r.Stops[2].ID}
	require.Equal(t, []string{"NEAR", "MID", "FAR"}, ids)

	km, minutes, err := geo.NewEstimator(40).Tour(hub, vendorLocations(r.Stops))
	require.NoError(t, err)
	require.Equal(t, km, r.DistanceKm)
	require.Equal(t, minutes, r.TravelTimeMin)
}

func TestSequenceTrivialStops(t *testing.T) {
	seq := &RouteSequencer{Provider: failingProvider(), Estimator: geo.NewEstimator(40)}
	hub := domain.Coordinates{Lat: 10, Lon: 78}

	r, err := seq.Sequence(context.Background(), hub, nil)
	require.NoError(t, err)
	require.Empty(t, r.Stops)
	require.Zero(t, r.DistanceKm)

	one := vendor("V1", 10.1, 78, 1)
	r, err = seq.Sequence(context.Background(), hub, []domain.Vendor{one})
	require.NoError(t, err)

	leg, err := geo.HaversineKm(hub, one.Location)
	require.NoError(t, err)
	require.InDelta(t, 2*leg, r.DistanceKm, 1e-9)
}
