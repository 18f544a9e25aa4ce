package distance

import (
	"context"
	"fmt"
	"milk-collection-service/internal/domain"
	"milk-collection-service/internal/platform/obs"
	"milk-collection-service/internal/ports"
)

type optimizationJob struct {
	ID       int       `json:"id"`
	Location []float64 `json:"location"`
}

type optimizationVehicle struct {
	ID      int       `json:"id"`
	Profile string    `json:"profile"`
	Start   []float64 `json:"start"`
	End     []float64 `json:"end"`
}

type optimizationRequest struct {
	Jobs     []optimizationJob     `json:"jobs"`
	Vehicles []optimizationVehicle `json:"vehicles"`
}

type optimizationResponse struct {
	Routes []struct {
		Steps []struct {
			Type string `json:"type"`
			ID   *int   `json:"id"`
			Job  *int   `json:"job"`
		} `json:"steps"`
	} `json:"routes"`
	Unassigned []struct {
		ID int `json:"id"`
	} `json:"unassigned"`
}

type directionsRequest struct {
	Coordinates [][]float64 `json:"coordinates"`
}

type directionsResponse struct {
	Routes []struct {
		Summary struct {
			Distance float64 `json:"distance"`
			Duration float64 `json:"duration"`
		} `json:"summary"`
	} `json:"routes"`
}

// Route asks the optimization endpoint for a visiting order and the
// directions endpoint for the closed tour metrics.
func (o *ORSBackend) Route(
	ctx context.Context,
	origin domain.Coordinates,
	stops []domain.Coordinates,
) (_ ports.BackendRoute, err error) {
	defer obs.Time(ctx, "ors.Route")(&err)

	if len(stops) == 0 {
		return ports.BackendRoute{Order: []int{}}, nil
	}

	order := []int{0}
	if len(stops) > 1 {
		order, err = o.optimizeOrder(ctx, origin, stops)
		if err != nil {
			return ports.BackendRoute{}, fmt.Errorf("optimize order: %w", err)
		}
	}

	coords := make([][]float64, 0, len(stops)+2)
	coords = append(coords, origin.CoordsToList())
	distinct := map[string]struct{}{origin.Key(): {}}
	for _, i := range order {
		coords = append(coords, stops[i].CoordsToList())
		distinct[stops[i].Key()] = struct{}{}
	}
	coords = append(coords, origin.CoordsToList())

	// Directions rejects a route with a single distinct point.
	if len(distinct) < 2 {
		return ports.BackendRoute{Order: order}, nil
	}

	km, minutes, err := o.directions(ctx, coords)
	if err != nil {
		return ports.BackendRoute{}, fmt.Errorf("directions: %w", err)
	}

	return ports.BackendRoute{Order: order, DistanceKm: km, DurationMin: minutes}, nil
}

func (o *ORSBackend) optimizeOrder(
	ctx context.Context,
	origin domain.Coordinates,
	stops []domain.Coordinates,
) ([]int, error) {
	jobs := make([]optimizationJob, len(stops))
	for i, s := range stops {
		// Job ids are 1-based; 0 is not accepted by every ORS deployment.
		jobs[i] = optimizationJob{ID: i + 1, Location: s.CoordsToList()}
	}

	req := optimizationRequest{
		Jobs: jobs,
		Vehicles: []optimizationVehicle{{
			ID:      1,
			Profile: o.profile,
			Start:   origin.CoordsToList(),
			End:     origin.CoordsToList(),
		}},
	}

	var decoded optimizationResponse
	if err := o.postJSON(ctx, "/optimization", req, &decoded); err != nil {
		return nil, fmt.Errorf("optimization request failed: %w", err)
	}

	if len(decoded.Unassigned) > 0 {
		return nil, fmt.Errorf("optimization left %d jobs unassigned", len(decoded.Unassigned))
	}
	if len(decoded.Routes) == 0 {
		return nil, fmt.Errorf("optimization returned no routes")
	}

	order := make([]int, 0, len(stops))
	for _, step := range decoded.Routes[0].Steps {
		if step.Type != "job" {
			continue
		}
		id := step.ID
		if id == nil {
			id = step.Job
		}
		if id == nil {
			return nil, fmt.Errorf("optimization step without job id")
		}
		order = append(order, *id-1)
	}

	return order, nil
}

func (o *ORSBackend) directions(ctx context.Context, coords [][]float64) (km, minutes float64, err error) {
	var decoded directionsResponse
	if err := o.postJSON(ctx, "/v2/directions/"+o.profile, directionsRequest{Coordinates: coords}, &decoded); err != nil {
		return 0, 0, fmt.Errorf("directions request failed: %w", err)
	}
	if len(decoded.Routes) == 0 {
		return 0, 0, fmt.Errorf("directions returned no routes")
	}

	summary := decoded.Routes[0].Summary
	return summary.Distance / 1000, summary.Duration / 60, nil
}
