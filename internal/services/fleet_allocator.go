package services

import (
	"fmt"
	"math"
	"milk-collection-service/internal/domain"
	"sort"
)

// Allocation is one vehicle drawn from the fleet with the vendors packed
// onto it.
type Allocation struct {
	Category       domain.VehicleCategory
	Vehicle        domain.VehicleInstance
	Vendors        []domain.Vendor
	MilkLiters     float64
	UtilizationPct float64
}

// FleetInventory is the run-scoped availability of every vehicle category.
// It is shared by all clusters of one run and must not be used by two runs.
// It is not safe for concurrent use.
type FleetInventory struct {
	categories []domain.VehicleCategory
	instances  [][]domain.VehicleInstance
	used       [][]bool
	drawn      []int
	// category indices by capacity descending; ties keep input order.
	byCapacity []int
}

func NewFleetInventory(categories []domain.VehicleCategory) *FleetInventory {
	f := &FleetInventory{
		categories: categories,
		instances:  make([][]domain.VehicleInstance, len(categories)),
		used:       make([][]bool, len(categories)),
		drawn:      make([]int, len(categories)),
		byCapacity: make([]int, len(categories)),
	}
	for i, c := range categories {
		f.instances[i] = c.DrawableInstances()
		f.used[i] = make([]bool, len(f.instances[i]))
		f.byCapacity[i] = i
	}
	sort.SliceStable(f.byCapacity, func(a, b int) bool {
		return categories[f.byCapacity[a]].CapacityLiters > categories[f.byCapacity[b]].CapacityLiters
	})
	return f
}

func (f *FleetInventory) remaining(ci int) int {
	return len(f.instances[ci]) - f.drawn[ci]
}

// Remaining returns how many vehicles of the named category are left.
func (f *FleetInventory) Remaining(name string) int {
	for i, c := range f.categories {
		if c.Name == name {
			return f.remaining(i)
		}
	}
	return 0
}

// draw takes the first instance of the category not drawn yet. Callers
// check remaining first.
func (f *FleetInventory) draw(ci int) domain.VehicleInstance {
	for k, inst := range f.instances[ci] {
		if !f.used[ci][k] {
			f.used[ci][k] = true
			f.drawn[ci]++
			return inst
		}
	}
	panic("fleet inventory: draw from exhausted category " + f.categories[ci].Name)
}

// Draw takes a vehicle of the named category: the instance with the given
// id, or the next one in registration order when id is empty.
func (f *FleetInventory) Draw(name, id string) (domain.VehicleCategory, domain.VehicleInstance, error) {
	ci := -1
	for i, c := range f.categories {
		if c.Name == name {
			ci = i
			break
		}
	}
	if ci == -1 {
		return domain.VehicleCategory{}, domain.VehicleInstance{}, fmt.Errorf("draw vehicle: unknown category %q: %w", name, domain.ErrInvalidInput)
	}
	if f.remaining(ci) <= 0 {
		return domain.VehicleCategory{}, domain.VehicleInstance{}, fmt.Errorf("draw vehicle: category %q has no vehicles left: %w", name, domain.ErrInvalidInput)
	}

	if id == "" {
		return f.categories[ci], f.draw(ci), nil
	}

	for k, inst := range f.instances[ci] {
		if inst.ID != id {
			continue
		}
		if f.used[ci][k] {
			return domain.VehicleCategory{}, domain.VehicleInstance{}, fmt.Errorf("draw vehicle: %q already used: %w", id, domain.ErrInvalidInput)
		}
		f.used[ci][k] = true
		f.drawn[ci]++
		return f.categories[ci], inst, nil
	}
	return domain.VehicleCategory{}, domain.VehicleInstance{}, fmt.Errorf("draw vehicle: no vehicle %q in category %q: %w", id, name, domain.ErrInvalidInput)
}

// Allocate packs one cluster's vendors onto vehicles using first-fit
// decreasing by utilization:
//
//  1. vendors are sorted by milk descending (ties keep input order);
//  2. every category with vehicles left builds a greedy subset by scanning
//     the remaining vendors and taking each one that still fits;
//  3. the subset with the highest utilization wins, ties going to the larger
//     category;
//  4. the winner's next instance is drawn and its vendors removed.
//
// The loop stops when no category can take any remaining vendor. Those
// vendors are returned as unassigned, in input order.
func (f *FleetInventory) Allocate(vendors []domain.Vendor) ([]Allocation, []domain.Vendor) {
	remaining := make([]int, len(vendors))
	for i := range remaining {
		remaining[i] = i
	}
	sort.SliceStable(remaining, func(a, b int) bool {
		return vendors[remaining[a]].MilkLiters > vendors[remaining[b]].MilkLiters
	})

	var allocations []Allocation
	for len(remaining) > 0 {
		bestCat := -1
		var bestSubset []int
		var bestLoad, bestUtil float64

		for _, ci := range f.byCapacity {
			if f.remaining(ci) <= 0 {
				continue
			}

			capacity := f.categories[ci].CapacityLiters
			subset, load := greedyFill(vendors, remaining, capacity)
			if len(subset) == 0 {
				continue
			}

			util := load / capacity * 100
			if bestCat == -1 || util > bestUtil {
				bestCat = ci
				bestSubset = subset
				bestLoad = load
				bestUtil = util
			}
		}

		if bestCat == -1 {
			break
		}

		packed := make([]domain.Vendor, len(bestSubset))
		taken := make(map[int]struct{}, len(bestSubset))
		for k, vi := range bestSubset {
			packed[k] = vendors[vi]
			taken[vi] = struct{}{}
		}

		allocations = append(allocations, Allocation{
			Category:       f.categories[bestCat],
			Vehicle:        f.draw(bestCat),
			Vendors:        packed,
			MilkLiters:     bestLoad,
			UtilizationPct: math.Min(100, bestUtil),
		})

		next := remaining[:0]
		for _, vi := range remaining {
			if _, ok := taken[vi]; !ok {
				next = append(next, vi)
			}
		}
		remaining = next
	}

	sort.Ints(remaining)
	unassigned := make([]domain.Vendor, len(remaining))
	for k, vi := range remaining {
		unassigned[k] = vendors[vi]
	}

	return allocations, unassigned
}

// greedyFill scans vendors in the given order and keeps each one whose milk
// still fits.
func greedyFill(vendors []domain.Vendor, order []int, capacity float64) ([]int, float64) {
	var subset []int
	load := 0.0
	for _, vi := range order {
		milk := vendors[vi].MilkLiters
		if load+milk <= capacity {
			subset = append(subset, vi)
			load += milk
		}
	}
	return subset, load
}

// Unused lists the vehicles never drawn, by category in input order.
func (f *FleetInventory) Unused() []domain.UnusedVehicle {
	out := []domain.UnusedVehicle{}
	for ci, c := range f.categories {
		for k, inst := range f.instances[ci] {
			if f.used[ci][k] {
				continue
			}
			out = append(out, domain.UnusedVehicle{
				Category:          c.Name,
				VehicleInstanceID: inst.ID,
				Vehicle:           inst,
			})
		}
	}
	return out
}
