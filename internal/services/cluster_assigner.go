package services

import (
	"fmt"
	"math"
	"milk-collection-service/internal/domain"
	"milk-collection-service/internal/geo"
)

// ClusterAssignment is one hub and the vendors nearest to it, in input
// vendor order.
type ClusterAssignment struct {
	Hub     domain.Hub
	Vendors []domain.Vendor
}

// AssignClusters assigns each vendor to the hub with the minimum distance.
// distances has one row per vendor and one column per hub. Ties go to the
// earliest hub in the given order. A nil or misshaped matrix is replaced by
// pairwise geodesic distances, so the result is always deterministic.
//
// Every hub gets an entry, in hub order, even when no vendor is nearest to it.
func AssignClusters(vendors []domain.Vendor, hubs []domain.Hub, distances [][]float64) ([]ClusterAssignment, error) {
	if len(hubs) == 0 {
		return nil, fmt.Errorf("assign clusters: no hubs: %w", domain.ErrEmptyInput)
	}

	if !matrixShapeOK(distances, len(vendors), len(hubs)) {
		var err error
		distances, err = geo.Matrix(vendorLocations(vendors), hubLocations(hubs))
		if err != nil {
			return nil, fmt.Errorf("assign clusters: %w", err)
		}
	}

	out := make([]ClusterAssignment, len(hubs))
	for j, h := range hubs {
		out[j] = ClusterAssignment{Hub: h, Vendors: []domain.Vendor{}}
	}

	for i, v := range vendors {
		best := nearestHub(distances[i])
		out[best].Vendors = append(out[best].Vendors, v)
	}

	return out, nil
}

// nearestHub returns the index of the smallest value; strict < keeps the
// earliest index on ties.
func nearestHub(row []float64) int {
	best := 0
	bestDist := math.Inf(1)
	for j, d := range row {
		if d < bestDist {
			best = j
			bestDist = d
		}
	}
	return best
}

func matrixShapeOK(m [][]float64, rows, cols int) bool {
	if len(m) != rows {
		return false
	}
	for _, row := range m {
		if len(row) != cols {
			return false
		}
		for _, v := range row {
			if math.IsNaN(v) || v < 0 {
				return false
			}
		}
	}
	return true
}

func vendorLocations(vendors []domain.Vendor) []domain.Coordinates {
	out := make([]domain.Coordinates, len(vendors))
	for i, v := range vendors {
		out[i] = v.Location
	}
	return out
}

func hubLocations(hubs []domain.Hub) []domain.Coordinates {
	out := make([]domain.Coordinates, len(hubs))
	for i, h := range hubs {
		out[i] = h.Location
	}
	return out
}
