package services

import (
	"milk-collection-service/internal/domain"
	"time"
)

// clusterResult is one hub with its evaluated vehicles before it is turned
// into a domain.Cluster.
type clusterResult struct {
	Hub         domain.Hub
	Vendors     []domain.Vendor
	Assignments []domain.Assignment
	Unassigned  []domain.Vendor
}

func buildAssignment(alloc Allocation, route SequencedRoute, limits Limits) domain.Assignment {
	ev := Evaluate(limits, len(route.Stops), alloc.Category.ServiceMinutesPerStop, route.TravelTimeMin, route.DistanceKm)

	stops := make([]string, len(route.Stops))
	coords := make([]domain.Coordinates, len(route.Stops))
	for i, v := range route.Stops {
		stops[i] = v.ID
		coords[i] = v.Location
	}

	return domain.Assignment{
		VehicleInstanceID: alloc.Vehicle.ID,
		Vehicle:           alloc.Vehicle,
		Category:          alloc.Category.Name,
		CapacityLiters:    alloc.Category.CapacityLiters,
		Stops:             stops,
		StopCoordinates:   coords,
		MilkLiters:        alloc.MilkLiters,
		UtilizationPct:    alloc.UtilizationPct,
		DistanceKm:        route.DistanceKm,
		TravelTimeMin:     route.TravelTimeMin,
		ServiceTimeMin:    ev.ServiceTimeMin,
		TotalTimeMin:      ev.TotalTimeMin,
		Cost:              RouteCost(alloc.Category, route.DistanceKm),
		IsViolated:        ev.Type != domain.ViolationNone,
		ViolationType:     ev.Type,
		TimeDiffMin:       ev.TimeDiffMin,
		DistanceDiffKm:    ev.DistanceDiffKm,
		Status:            ev.Status,
		EstimateSource:    route.Source,
		FallbackReason:    route.Reason,
	}
}

// assembleRun folds evaluated clusters into an immutable Run and computes
// the run-level totals.
func assembleRun(
	id string,
	trigger domain.Trigger,
	cfg domain.RunConfig,
	results []clusterResult,
	unused []domain.UnusedVehicle,
	degraded bool,
	createdAt time.Time,
) *domain.Run {
	run := &domain.Run{
		ID:             id,
		Trigger:        trigger,
		Config:         cfg,
		Clusters:       make([]domain.Cluster, 0, len(results)),
		UnusedVehicles: unused,
		Violations:     []domain.ViolationRecord{},
		Degraded:       degraded,
		CreatedAt:      createdAt,
	}
	if run.UnusedVehicles == nil {
		run.UnusedVehicles = []domain.UnusedVehicle{}
	}

	for _, r := range results {
		c := domain.Cluster{
			Hub:               r.Hub,
			VendorIDs:         make([]string, len(r.Vendors)),
			Capacity:          r.Hub.CapacityLiters,
			Vehicles:          r.Assignments,
			UnassignedVendors: make([]domain.UnassignedVendor, len(r.Unassigned)),
		}
		if c.Vehicles == nil {
			c.Vehicles = []domain.Assignment{}
		}

		for i, v := range r.Vendors {
			c.VendorIDs[i] = v.ID
			c.TotalMilk += v.MilkLiters
		}
		c.OverCapacity = c.TotalMilk > c.Capacity

		for _, a := range r.Assignments {
			c.Cost += a.Cost
			if !a.IsViolated {
				continue
			}
			run.TotalViolations++
			rec := domain.ViolationRecord{
				HubID:             r.Hub.ID,
				VehicleInstanceID: a.VehicleInstanceID,
				Category:          a.Category,
				ViolationType:     a.ViolationType,
				TotalTimeMin:      a.TotalTimeMin,
				DistanceKm:        a.DistanceKm,
				StopCount:         len(a.Stops),
			}
			if a.ViolationType == domain.ViolationTime || a.ViolationType == domain.ViolationBoth {
				rec.TimeExceededMin = a.TimeDiffMin
			}
			if a.ViolationType == domain.ViolationDistance || a.ViolationType == domain.ViolationBoth {
				rec.DistanceExceeded = a.DistanceDiffKm
			}
			run.Violations = append(run.Violations, rec)
		}

		for i, v := range r.Unassigned {
			c.UnassignedVendors[i] = domain.UnassignedVendor{VendorID: v.ID, MilkLiters: v.MilkLiters}
			run.TotalUnassignedFarmers++
			run.TotalUnassignedMilk += v.MilkLiters
		}

		run.TotalCost += c.Cost
		run.Clusters = append(run.Clusters, c)
	}

	return run
}
