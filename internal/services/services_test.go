package services

import (
	"context"
	"errors"
	"milk-collection-service/internal/adapters/distance"
	"milk-collection-service/internal/domain"
	"milk-collection-service/internal/geo"
	"milk-collection-service/internal/ports"
	"time"
)

var testHub = domain.Hub{
	ID:             "H1",
	Location:       domain.Coordinates{Lat: 10.0, Lon: 78.0},
	CapacityLiters: 1000,
}

func vendor(id string, lat, lon, milk float64) domain.Vendor {
	return domain.Vendor{ID: id, Location: domain.Coordinates{Lat: lat, Lon: lon}, MilkLiters: milk}
}

func category(name string, capacity float64, count int) domain.VehicleCategory {
	return domain.VehicleCategory{
		Name:                  name,
		CapacityLiters:        capacity,
		Count:                 count,
		FixedCost:             500,
		CostPerKm:             12,
		ServiceMinutesPerStop: 10,
	}
}

func defaultConfig() domain.RunConfig {
	return domain.RunConfig{
		DeadlineMinutes: domain.DefaultDeadlineMinutes,
		MaxDistanceKm:   domain.DefaultMaxDistanceKm,
	}
}

// failingProvider falls back on every call.
func failingProvider() ports.DistanceRouteProvider {
	backend := &distance.MockBackend{
		MatrixErr: errors.New("connection refused"),
		RouteErr:  errors.New("connection refused"),
	}
	return distance.NewResilientProvider(backend, geo.NewEstimator(40), time.Second)
}

func testOptimizer(provider ports.DistanceRouteProvider) *Optimizer {
	o := NewOptimizer(provider, 2)
	o.Now = func() time.Time { return time.Date(2026, 1, 1, 6, 0, 0, 0, time.UTC) }
	o.NewID = func() string { return "run-1" }
	return o
}

func runOptimizer(provider ports.DistanceRouteProvider, snap domain.Snapshot) (*domain.Run, error) {
	return testOptimizer(provider).Run(context.Background(), snap, defaultConfig())
}
