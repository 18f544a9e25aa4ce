package services

import "milk-collection-service/internal/domain"

// Limits are the per-vehicle constraints of a run.
type Limits struct {
	DeadlineMinutes float64
	MaxDistanceKm   float64
}

// Evaluation is the constraint check of one route.
type Evaluation struct {
	ServiceTimeMin   float64
	TotalTimeMin     float64
	TimeViolated     bool
	DistanceViolated bool
	Type             domain.ViolationType
	// exceeded-by when violated, remaining otherwise
	TimeDiffMin    float64
	DistanceDiffKm float64
	Status         string
}

// Evaluate checks one route against the limits. Both checks use strict
// greater-than: a route that ends exactly at the deadline is on time.
func Evaluate(limits Limits, stopCount int, serviceMinutesPerStop, travelMin, distanceKm float64) Evaluation {
	service := float64(stopCount) * serviceMinutesPerStop
	total := travelMin + service

	ev := Evaluation{ServiceTimeMin: service, TotalTimeMin: total}

	timeStatus := "ON TIME"
	if total > limits.DeadlineMinutes {
		ev.TimeViolated = true
		ev.TimeDiffMin = total - limits.DeadlineMinutes
		timeStatus = "DEADLINE EXCEEDED"
	} else {
		ev.TimeDiffMin = limits.DeadlineMinutes - total
	}

	distStatus := "WITHIN DISTANCE"
	if distanceKm > limits.MaxDistanceKm {
		ev.DistanceViolated = true
		ev.DistanceDiffKm = distanceKm - limits.MaxDistanceKm
		distStatus = "DISTANCE EXCEEDED"
	} else {
		ev.DistanceDiffKm = limits.MaxDistanceKm - distanceKm
	}

	ev.Type = domain.ViolationTypeOf(ev.TimeViolated, ev.DistanceViolated)
	ev.Status = timeStatus + " | " + distStatus
	return ev
}

// RouteCost is fixed cost plus per-km cost.
func RouteCost(c domain.VehicleCategory, distanceKm float64) float64 {
	return c.FixedCost + c.CostPerKm*distanceKm
}
