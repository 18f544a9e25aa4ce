package domain

import (
	"fmt"
	"math"
)

const (
	DefaultDeadlineMinutes = 480
	DefaultMaxDistanceKm   = 100
	DefaultSpeedKmh        = 40

	// LitersPerCan converts can-denominated volumes from upstream data.
	LitersPerCan = 40.0

	// MaxCategoryCount bounds the vehicles of one category in a snapshot.
	// Every vehicle is materialized per run.
	MaxCategoryCount = 10000
)

// Snapshot is the immutable input of one run.
type Snapshot struct {
	Vendors    []Vendor          `json:"vendors"`
	Hubs       []Hub             `json:"hubs"`
	Categories []VehicleCategory `json:"vehicle_categories"`
}

// RunConfig carries the constraints a run is evaluated against.
type RunConfig struct {
	DeadlineMinutes float64           `json:"deadline_minutes"`
	MaxDistanceKm   float64           `json:"max_distance_km"`
	AverageSpeedKmh float64           `json:"average_speed_kmh"`
	Categories      []VehicleCategory `json:"vehicle_categories"`
}

// Validate checks the snapshot before any computation. Empty collections
// fail with ErrEmptyInput, out-of-range coordinates with ErrInvalidCoordinate
// and everything else with ErrInvalidInput.
func (s Snapshot) Validate() error {
	switch {
	case len(s.Vendors) == 0:
		return fmt.Errorf("validate snapshot: no vendors: %w", ErrEmptyInput)
	case len(s.Hubs) == 0:
		return fmt.Errorf("validate snapshot: no hubs: %w", ErrEmptyInput)
	case len(s.Categories) == 0:
		return fmt.Errorf("validate snapshot: no vehicle categories: %w", ErrEmptyInput)
	}

	seen := make(map[string]struct{}, len(s.Vendors))
	for i, v := range s.Vendors {
		if v.ID == "" {
			return fmt.Errorf("validate snapshot: vendor #%d has empty id: %w", i+1, ErrInvalidInput)
		}
		if _, ok := seen[v.ID]; ok {
			return fmt.Errorf("validate snapshot: duplicate vendor id %q: %w", v.ID, ErrInvalidInput)
		}
		seen[v.ID] = struct{}{}

		if err := v.Location.Validate(); err != nil {
			return fmt.Errorf("validate snapshot: vendor %q: %w", v.ID, err)
		}
		if v.MilkLiters < 0 || math.IsNaN(v.MilkLiters) || math.IsInf(v.MilkLiters, 0) {
			return fmt.Errorf("validate snapshot: vendor %q milk_liters=%v: %w", v.ID, v.MilkLiters, ErrInvalidInput)
		}
	}

	hubs := make(map[string]struct{}, len(s.Hubs))
	for i, h := range s.Hubs {
		if h.ID == "" {
			return fmt.Errorf("validate snapshot: hub #%d has empty id: %w", i+1, ErrInvalidInput)
		}
		if _, ok := hubs[h.ID]; ok {
			return fmt.Errorf("validate snapshot: duplicate hub id %q: %w", h.ID, ErrInvalidInput)
		}
		hubs[h.ID] = struct{}{}

		if err := h.Location.Validate(); err != nil {
			return fmt.Errorf("validate snapshot: hub %q: %w", h.ID, err)
		}
		if !(h.CapacityLiters > 0) {
			return fmt.Errorf("validate snapshot: hub %q capacity_liters=%v: %w", h.ID, h.CapacityLiters, ErrInvalidInput)
		}
	}

	return validateCategories(s.Categories)
}

func validateCategories(categories []VehicleCategory) error {
	names := make(map[string]struct{}, len(categories))
	for i, c := range categories {
		if c.Name == "" {
			return fmt.Errorf("validate fleet: category #%d has empty name: %w", i+1, ErrInvalidInput)
		}
		if _, ok := names[c.Name]; ok {
			return fmt.Errorf("validate fleet: duplicate category %q: %w", c.Name, ErrInvalidInput)
		}
		names[c.Name] = struct{}{}

		if !(c.CapacityLiters > 0) || math.IsInf(c.CapacityLiters, 0) {
			return fmt.Errorf("validate fleet: category %q capacity_liters=%v: %w", c.Name, c.CapacityLiters, ErrInvalidInput)
		}
		if c.Count < 0 || c.Count > MaxCategoryCount {
			return fmt.Errorf("validate fleet: category %q count=%d outside [0, %d]: %w", c.Name, c.Count, MaxCategoryCount, ErrInvalidInput)
		}
		if c.FixedCost < 0 || c.CostPerKm < 0 || c.ServiceMinutesPerStop < 0 {
			return fmt.Errorf("validate fleet: category %q has negative cost or service time: %w", c.Name, ErrInvalidInput)
		}
	}
	return nil
}

// Validate checks the run limits. A zero speed is filled with the default.
func (c RunConfig) Validate() error {
	if !(c.DeadlineMinutes > 0) {
		return fmt.Errorf("validate config: deadline_minutes=%v: %w", c.DeadlineMinutes, ErrInvalidInput)
	}
	if !(c.MaxDistanceKm > 0) {
		return fmt.Errorf("validate config: max_distance_km=%v: %w", c.MaxDistanceKm, ErrInvalidInput)
	}
	if c.AverageSpeedKmh < 0 {
		return fmt.Errorf("validate config: average_speed_kmh=%v: %w", c.AverageSpeedKmh, ErrInvalidInput)
	}
	return nil
}

// Speed returns the configured average speed or the default.
func (c RunConfig) Speed() float64 {
	if c.AverageSpeedKmh > 0 {
		return c.AverageSpeedKmh
	}
	return DefaultSpeedKmh
}

// CansToLiters converts a can count to liters.
func CansToLiters(cans float64) float64 {
	return math.Round(cans*LitersPerCan*100) / 100
}
