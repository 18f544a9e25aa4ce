package dto

import (
	"milk-collection-service/internal/domain"
	"time"
)

// CreateRunRequest overrides the configured limits for one run. Without a
// snapshot the server reads the active records from its snapshot source.
type CreateRunRequest struct {
	DeadlineMinutes *float64         `json:"deadline_minutes"`
	MaxDistanceKm   *float64         `json:"max_distance_km"`
	AverageSpeedKmh *float64         `json:"average_speed_kmh"`
	Snapshot        *domain.Snapshot `json:"snapshot"`
}

type RunSummary struct {
	domain.RunMetrics
	TotalUnassignedFarmers int       `json:"total_unassigned_farmers"`
	CreatedAt              time.Time `json:"created_at"`
}

type ListRunsResponse struct {
	Runs []RunSummary `json:"runs"`
}

type ListRunsQuery struct {
	Trigger string `form:"trigger"`
}

type CompareQuery struct {
	Previous string `form:"previous"`
	Current  string `form:"current"`
}

type ManualRunResponse struct {
	Run *domain.Run `json:"run"`
	// nil when no machine-generated run exists yet
	Comparison *domain.RunComparison `json:"comparison"`
}
