package services

import (
	"encoding/json"
	"fmt"
	"math"
	"milk-collection-service/internal/domain"
	"milk-collection-service/internal/geo"
	"time"
)

// ManualShape names the payload layout a manual plan arrived in.
type ManualShape string

const (
	ShapeOptimizationResults ManualShape = "optimization_results"
	ShapeClusters            ManualShape = "clusters"
	ShapeData                ManualShape = "data"
)

// ManualStopReason tags the estimate source of manually ordered routes.
const ManualStopReason = "manual stop order"

type ManualVehicle struct {
	Category          string   `json:"category"`
	VehicleInstanceID string   `json:"vehicle_instance_id,omitempty"`
	Stops             []string `json:"stops"`
}

type ManualUnassigned struct {
	VendorID string `json:"vendor_id"`
}

// ManualCluster is one hub of an edited plan. The hub is named by hub_id or
// by hub.id, so a stored run's clusters can be sent back unchanged.
type ManualCluster struct {
	HubID string `json:"hub_id,omitempty"`
	Hub   *struct {
		ID string `json:"id"`
	} `json:"hub,omitempty"`
	Vehicles          []ManualVehicle    `json:"vehicles"`
	UnassignedVendors []ManualUnassigned `json:"unassigned_vendors,omitempty"`
}

func (c ManualCluster) hubID() string {
	if c.HubID != "" {
		return c.HubID
	}
	if c.Hub != nil {
		return c.Hub.ID
	}
	return ""
}

type ManualPlan struct {
	Shape    ManualShape
	Clusters []ManualCluster
}

type clustersField struct {
	Clusters *[]ManualCluster `json:"clusters"`
}

type manualEnvelope struct {
	OptimizationResults *clustersField   `json:"optimization_results"`
	Clusters            *[]ManualCluster `json:"clusters"`
	Data                *clustersField   `json:"data"`
}

// ParseManualPayload accepts exactly one of the known layouts:
//
//	{"optimization_results": {"clusters": [...]}}
//	{"clusters": [...]}
//	{"data": {"clusters": [...]}}
//
// Any other payload, or one matching more than one layout, is ErrInvalidInput.
func ParseManualPayload(raw []byte) (ManualPlan, error) {
	var env manualEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return ManualPlan{}, fmt.Errorf("parse manual plan: %v: %w", err, domain.ErrInvalidInput)
	}

	var matches []ManualPlan
	if env.OptimizationResults != nil && env.OptimizationResults.Clusters != nil {
		matches = append(matches, ManualPlan{Shape: ShapeOptimizationResults, Clusters: *env.OptimizationResults.Clusters})
	}
	if env.Clusters != nil {
		matches = append(matches, ManualPlan{Shape: ShapeClusters, Clusters: *env.Clusters})
	}
	if env.Data != nil && env.Data.Clusters != nil {
		matches = append(matches, ManualPlan{Shape: ShapeData, Clusters: *env.Data.Clusters})
	}

	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return ManualPlan{}, fmt.Errorf("parse manual plan: no clusters in a known layout: %w", domain.ErrInvalidInput)
	default:
		return ManualPlan{}, fmt.Errorf("parse manual plan: payload matches %d layouts: %w", len(matches), domain.ErrInvalidInput)
	}
}

// ManualEvaluator turns an edited plan into a manual_update Run. Stop order
// is kept as given and measured with the geodesic estimator.
type ManualEvaluator struct {
	Now   func() time.Time
	NewID func() string
}

func (m *ManualEvaluator) Evaluate(snap domain.Snapshot, cfg domain.RunConfig, plan ManualPlan) (*domain.Run, error) {
	if err := snap.Validate(); err != nil {
		return nil, fmt.Errorf("evaluate manual plan: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("evaluate manual plan: %w", err)
	}
	cfg.Categories = snap.Categories

	vendors := make(map[string]domain.Vendor, len(snap.Vendors))
	for _, v := range snap.Vendors {
		vendors[v.ID] = v
	}
	hubIndex := make(map[string]int, len(snap.Hubs))
	for i, h := range snap.Hubs {
		hubIndex[h.ID] = i
	}

	estimator := geo.NewEstimator(cfg.Speed())
	limits := Limits{DeadlineMinutes: cfg.DeadlineMinutes, MaxDistanceKm: cfg.MaxDistanceKm}
	inventory := NewFleetInventory(snap.Categories)

	results := make([]clusterResult, len(snap.Hubs))
	for i, h := range snap.Hubs {
		results[i] = clusterResult{Hub: h, Vendors: []domain.Vendor{}, Assignments: []domain.Assignment{}}
	}

	placed := make(map[string]struct{}, len(snap.Vendors))
	place := func(id string) (domain.Vendor, error) {
		v, ok := vendors[id]
		if !ok {
			return domain.Vendor{}, fmt.Errorf("evaluate manual plan: unknown vendor %q: %w", id, domain.ErrInvalidInput)
		}
		if _, dup := placed[id]; dup {
			return domain.Vendor{}, fmt.Errorf("evaluate manual plan: vendor %q listed twice: %w", id, domain.ErrInvalidInput)
		}
		placed[id] = struct{}{}
		return v, nil
	}

	listedHubs := make(map[string]struct{}, len(plan.Clusters))
	for _, mc := range plan.Clusters {
		hubID := mc.hubID()
		hi, ok := hubIndex[hubID]
		if !ok {
			return nil, fmt.Errorf("evaluate manual plan: unknown hub %q: %w", hubID, domain.ErrInvalidInput)
		}
		if _, dup := listedHubs[hubID]; dup {
			return nil, fmt.Errorf("evaluate manual plan: hub %q listed twice: %w", hubID, domain.ErrInvalidInput)
		}
		listedHubs[hubID] = struct{}{}
		res := &results[hi]

		for _, mv := range mc.Vehicles {
			if len(mv.Stops) == 0 {
				continue
			}

			category, inst, err := inventory.Draw(mv.Category, mv.VehicleInstanceID)
			if err != nil {
				return nil, fmt.Errorf("evaluate manual plan: hub %q: %w", hubID, err)
			}

			stops := make([]domain.Vendor, 0, len(mv.Stops))
			load := 0.0
			for _, id := range mv.Stops {
				v, err := place(id)
				if err != nil {
					return nil, err
				}
				stops = append(stops, v)
				load += v.MilkLiters
			}
			if load > category.CapacityLiters {
				return nil, fmt.Errorf(
					"evaluate manual plan: vehicle %q carries %.2f L over capacity %.2f L: %w",
					inst.ID, load, category.CapacityLiters, domain.ErrCapacityExceeded,
				)
			}

			km, minutes, err := estimator.Tour(res.Hub.Location, vendorLocations(stops))
			if err != nil {
				return nil, fmt.Errorf("evaluate manual plan: %w", err)
			}

			alloc := Allocation{
				Category:       category,
				Vehicle:        inst,
				Vendors:        stops,
				MilkLiters:     load,
				UtilizationPct: math.Min(100, load/category.CapacityLiters*100),
			}
			route := SequencedRoute{
				Stops:         stops,
				DistanceKm:    km,
				TravelTimeMin: minutes,
				Source:        domain.SourceFallback,
				Reason:        ManualStopReason,
			}
			res.Assignments = append(res.Assignments, buildAssignment(alloc, route, limits))
			res.Vendors = append(res.Vendors, stops...)
		}

		for _, u := range mc.UnassignedVendors {
			v, err := place(u.VendorID)
			if err != nil {
				return nil, err
			}
			res.Vendors = append(res.Vendors, v)
			res.Unassigned = append(res.Unassigned, v)
		}
	}

	// Vendors the plan never mentions stay unassigned at their nearest hub.
	var unlisted []domain.Vendor
	for _, v := range snap.Vendors {
		if _, ok := placed[v.ID]; !ok {
			unlisted = append(unlisted, v)
		}
	}
	if len(unlisted) > 0 {
		nearest, err := AssignClusters(unlisted, snap.Hubs, nil)
		if err != nil {
			return nil, fmt.Errorf("evaluate manual plan: %w", err)
		}
		for hi, c := range nearest {
			results[hi].Vendors = append(results[hi].Vendors, c.Vendors...)
			results[hi].Unassigned = append(results[hi].Unassigned, c.Vendors...)
		}
	}

	now := time.Now
	if m.Now != nil {
		now = m.Now
	}
	newID := newRunID
	if m.NewID != nil {
		newID = m.NewID
	}

	return assembleRun(newID(), domain.TriggerManual, cfg, results, inventory.Unused(), false, now().UTC()), nil
}
