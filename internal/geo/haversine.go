// Package geo estimates great-circle distances and travel times. It has no
// external dependency and is the fallback for every routing call.
package geo

import (
	"fmt"
	"math"
	"milk-collection-service/internal/domain"
)

const earthRadiusKm = 6371.0

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180.0
}

// HaversineKm returns the great-circle distance between a and b in kilometers.
func HaversineKm(a, b domain.Coordinates) (float64, error) {
	if err := a.Validate(); err != nil {
		return 0, fmt.Errorf("haversine: %w", err)
	}
	if err := b.Validate(); err != nil {
		return 0, fmt.Errorf("haversine: %w", err)
	}
	return haversine(a, b), nil
}

// haversine assumes validated input.
func haversine(a, b domain.Coordinates) float64 {
	lat1 := toRadians(a.Lat)
	lat2 := toRadians(b.Lat)
	dLat := lat2 - lat1
	dLon := toRadians(b.Lon - a.Lon)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusKm * c
}

// Matrix returns pairwise distances, rows = origins, columns = destinations.
func Matrix(origins, destinations []domain.Coordinates) ([][]float64, error) {
	if err := validateAll(origins); err != nil {
		return nil, fmt.Errorf("geodesic matrix: %w", err)
	}
	if err := validateAll(destinations); err != nil {
		return nil, fmt.Errorf("geodesic matrix: %w", err)
	}

	out := make([][]float64, len(origins))
	for i, o := range origins {
		row := make([]float64, len(destinations))
		for j, d := range destinations {
			row[j] = haversine(o, d)
		}
		out[i] = row
	}
	return out, nil
}

func validateAll(points []domain.Coordinates) error {
	for _, p := range points {
		if err := p.Validate(); err != nil {
			return err
		}
	}
	return nil
}
