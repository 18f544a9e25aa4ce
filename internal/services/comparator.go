package services

import (
	"math"
	"milk-collection-service/internal/domain"
)

// Metrics sums the costed values of every assignment in run. Distance and
// time are the assignments' own figures, never re-derived from coordinates.
func Metrics(run *domain.Run) domain.RunMetrics {
	m := domain.RunMetrics{
		RunID:        run.ID,
		Trigger:      run.Trigger,
		ClusterCount: len(run.Clusters),
		Degraded:     run.Degraded,
	}

	utilization := 0.0
	for _, a := range run.Assignments() {
		m.TotalCost += a.Cost
		m.TotalDistance += a.DistanceKm
		m.TotalTime += a.TotalTimeMin
		if a.IsViolated {
			m.TotalViolations++
		}
		m.VehicleCount++
		utilization += a.UtilizationPct
	}
	if m.VehicleCount > 0 {
		m.AvgUtilization = utilization / float64(m.VehicleCount)
	}

	return m
}

// Compare reports how much current improves on previous. Positive savings
// mean current is cheaper, shorter or faster.
func Compare(previous, current *domain.Run) domain.RunComparison {
	prev := Metrics(previous)
	curr := Metrics(current)

	c := domain.RunComparison{
		Previous:      prev,
		Current:       curr,
		CostSaved:     prev.TotalCost - curr.TotalCost,
		DistanceSaved: prev.TotalDistance - curr.TotalDistance,
		TimeSaved:     prev.TotalTime - curr.TotalTime,
	}

	costPct := percentOf(c.CostSaved, prev.TotalCost)
	c.OptimizationPercentage = costPct
	c.EfficiencyScore = clamp(100-float64(curr.TotalViolations)*5, 0, 100)
	c.CompositeEfficiencyScore = clamp(
		0.4*costPct+
			0.2*percentOf(c.DistanceSaved, prev.TotalDistance)+
			0.2*percentOf(c.TimeSaved, prev.TotalTime)+
			0.2*curr.AvgUtilization,
		0, 100,
	)

	return c
}

func percentOf(saved, base float64) float64 {
	if base == 0 {
		return 0
	}
	return saved / base * 100
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
