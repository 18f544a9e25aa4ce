package geo

import (
	"fmt"
	"milk-collection-service/internal/domain"
)

// Estimator converts geodesic distances into travel times at a fixed
// average speed.
type Estimator struct {
	SpeedKmh float64
}

func NewEstimator(speedKmh float64) Estimator {
	if speedKmh <= 0 {
		speedKmh = domain.DefaultSpeedKmh
	}
	return Estimator{SpeedKmh: speedKmh}
}

// Minutes converts a distance to travel minutes.
func (e Estimator) Minutes(km float64) float64 {
	speed := e.SpeedKmh
	if speed <= 0 {
		speed = domain.DefaultSpeedKmh
	}
	return km / speed * 60
}

// Tour measures the closed tour origin -> stops (in order) -> origin.
// An empty stop list is a zero-length tour.
func (e Estimator) Tour(origin domain.Coordinates, stops []domain.Coordinates) (km, minutes float64, err error) {
	if err := origin.Validate(); err != nil {
		return 0, 0, fmt.Errorf("geodesic tour: origin: %w", err)
	}
	if err := validateAll(stops); err != nil {
		return 0, 0, fmt.Errorf("geodesic tour: %w", err)
	}
	if len(stops) == 0 {
		return 0, 0, nil
	}

	current := origin
	for _, s := range stops {
		km += haversine(current, s)
		current = s
	}
	km += haversine(current, origin)

	return km, e.Minutes(km), nil
}
