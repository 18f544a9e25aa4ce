package domain

import (
	"fmt"
	"time"
)

// EstimateSource tells whether distances came from the routing backend or
// from the local geodesic estimate.
type EstimateSource string

const (
	SourceLive     EstimateSource = "live"
	SourceFallback EstimateSource = "fallback"
)

type ViolationType string

const (
	ViolationNone     ViolationType = "None"
	ViolationTime     ViolationType = "Time"
	ViolationDistance ViolationType = "Distance"
	ViolationBoth     ViolationType = "Both"
)

// ViolationTypeOf derives the violation type from the two flags.
func ViolationTypeOf(timeViolated, distanceViolated bool) ViolationType {
	switch {
	case timeViolated && distanceViolated:
		return ViolationBoth
	case timeViolated:
		return ViolationTime
	case distanceViolated:
		return ViolationDistance
	default:
		return ViolationNone
	}
}

type Trigger string

const (
	TriggerMachine Trigger = "machine_generated"
	TriggerManual  Trigger = "manual_update"
)

// ParseTrigger accepts the two known trigger names.
func ParseTrigger(s string) (Trigger, error) {
	switch Trigger(s) {
	case TriggerMachine, TriggerManual:
		return Trigger(s), nil
	}
	return "", fmt.Errorf("parse trigger %q: %w", s, ErrInvalidInput)
}

// Assignment is one allocated vehicle with its ordered stops and the
// evaluated route. It is never modified after the run is assembled.
type Assignment struct {
	VehicleInstanceID string          `json:"vehicle_instance_id"`
	Vehicle           VehicleInstance `json:"vehicle"`
	Category          string          `json:"category"`
	CapacityLiters    float64         `json:"capacity_liters"`
	Stops             []string        `json:"stops"`
	StopCoordinates   []Coordinates   `json:"stop_coordinates"`
	MilkLiters        float64         `json:"milk_liters"`
	UtilizationPct    float64         `json:"utilization_pct"`
	DistanceKm        float64         `json:"distance_km"`
	TravelTimeMin     float64         `json:"travel_time_min"`
	ServiceTimeMin    float64         `json:"service_time_min"`
	TotalTimeMin      float64         `json:"total_time_min"`
	Cost              float64         `json:"cost"`
	IsViolated        bool            `json:"is_violated"`
	ViolationType     ViolationType   `json:"violation_type"`
	TimeDiffMin       float64         `json:"time_diff"`
	DistanceDiffKm    float64         `json:"distance_diff"`
	Status            string          `json:"status"`
	EstimateSource    EstimateSource  `json:"estimate_source"`
	FallbackReason    string          `json:"fallback_reason,omitempty"`
}

type UnassignedVendor struct {
	VendorID   string  `json:"vendor_id"`
	MilkLiters float64 `json:"milk_liters"`
}

type UnusedVehicle struct {
	Category          string          `json:"category"`
	VehicleInstanceID string          `json:"vehicle_instance_id"`
	Vehicle           VehicleInstance `json:"vehicle"`
}

// Cluster is one hub with the vendors nearest to it.
type Cluster struct {
	Hub               Hub                `json:"hub"`
	VendorIDs         []string           `json:"vendor_ids"`
	TotalMilk         float64            `json:"total_milk"`
	Capacity          float64            `json:"capacity"`
	OverCapacity      bool               `json:"over_capacity"`
	Vehicles          []Assignment       `json:"vehicles"`
	Cost              float64            `json:"cost"`
	UnassignedVendors []UnassignedVendor `json:"unassigned_vendors"`
}

// ViolationRecord is the flattened report line for a violated assignment.
type ViolationRecord struct {
	HubID             string        `json:"hub_id"`
	VehicleInstanceID string        `json:"vehicle_instance_id"`
	Category          string        `json:"category"`
	ViolationType     ViolationType `json:"violation_type"`
	TotalTimeMin      float64       `json:"total_time_min"`
	DistanceKm        float64       `json:"distance_km"`
	TimeExceededMin   float64       `json:"time_exceeded_by"`
	DistanceExceeded  float64       `json:"distance_exceeded_by"`
	StopCount         int           `json:"stop_count"`
}

// Run is the full result of one pipeline execution.
type Run struct {
	ID                     string            `json:"id"`
	Trigger                Trigger           `json:"trigger_type"`
	Config                 RunConfig         `json:"configuration"`
	Clusters               []Cluster         `json:"clusters"`
	UnusedVehicles         []UnusedVehicle   `json:"unused_vehicles"`
	Violations             []ViolationRecord `json:"violations"`
	TotalUnassignedFarmers int               `json:"total_unassigned_farmers"`
	TotalUnassignedMilk    float64           `json:"total_unassigned_milk"`
	TotalCost              float64           `json:"total_cost"`
	TotalViolations        int               `json:"total_violations"`
	Degraded               bool              `json:"degraded"`
	CreatedAt              time.Time         `json:"created_at"`
}

// Assignments returns every assignment of the run in cluster order.
func (r *Run) Assignments() []Assignment {
	var out []Assignment
	for _, c := range r.Clusters {
		out = append(out, c.Vehicles...)
	}
	return out
}

// RunMetrics summarizes a run for comparison.
type RunMetrics struct {
	RunID           string  `json:"run_id"`
	Trigger         Trigger `json:"trigger_type"`
	TotalCost       float64 `json:"total_cost"`
	TotalDistance   float64 `json:"total_distance"`
	TotalTime       float64 `json:"total_time"`
	TotalViolations int     `json:"total_violations"`
	ClusterCount    int     `json:"cluster_count"`
	VehicleCount    int     `json:"vehicle_count"`
	AvgUtilization  float64 `json:"avg_utilization"`
	Degraded        bool    `json:"degraded"`
}

// RunComparison holds the deltas between a previous and a current run.
// Positive savings mean the current run is better.
type RunComparison struct {
	Previous                 RunMetrics `json:"previous"`
	Current                  RunMetrics `json:"current"`
	CostSaved                float64    `json:"cost_saved"`
	DistanceSaved            float64    `json:"distance_saved"`
	TimeSaved                float64    `json:"time_saved"`
	OptimizationPercentage   float64    `json:"optimization_percentage"`
	EfficiencyScore          float64    `json:"efficiency_score"`
	CompositeEfficiencyScore float64    `json:"composite_efficiency_score"`
}
