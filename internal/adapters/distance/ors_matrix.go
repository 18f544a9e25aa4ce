package distance

import (
	"context"
	"fmt"
	"math"
	"milk-collection-service/internal/domain"
	"milk-collection-service/internal/ports"
)

// ORS rejects matrix requests above this many source x destination pairs.
const maxMatrixElements = 3500

type matrixRequest struct {
	Locations    [][]float64 `json:"locations"`
	Destinations []int       `json:"destinations"`
	Metrics      []string    `json:"metrics"`
	Sources      []int       `json:"sources"`
}

type matrixResponse struct {
	Distances [][]*float64 `json:"distances"`
	Durations [][]*float64 `json:"durations"`
}

// fetchMatrix retrieves distance and duration from every origin to every
// destination using the OpenRouteService matrix endpoint. Origins are split
// into chunks that stay under the element limit.
func (o *ORSBackend) fetchMatrix(
	ctx context.Context,
	origins []domain.Coordinates,
	destinations []domain.Coordinates,
) ([][]ports.DistanceResult, error) {
	chunk := maxMatrixElements / len(destinations)
	if chunk < 1 {
		return nil, fmt.Errorf("too many destinations for one matrix request: %d", len(destinations))
	}

	out := make([][]ports.DistanceResult, 0, len(origins))
	for start := 0; start < len(origins); start += chunk {
		end := min(start+chunk, len(origins))

		rows, err := o.fetchMatrixChunk(ctx, origins[start:end], destinations)
		if err != nil {
			return nil, err
		}
		out = append(out, rows...)
	}

	return out, nil
}

func (o *ORSBackend) fetchMatrixChunk(
	ctx context.Context,
	origins []domain.Coordinates,
	destinations []domain.Coordinates,
) ([][]ports.DistanceResult, error) {
	locations := make([][]float64, 0, len(origins)+len(destinations))
	sources := make([]int, 0, len(origins))
	for _, c := range origins {
		sources = append(sources, len(locations))
		locations = append(locations, c.CoordsToList())
	}

	destIdx := make([]int, 0, len(destinations))
	for _, c := range destinations {
		destIdx = append(destIdx, len(locations))
		locations = append(locations, c.CoordsToList())
	}

	req := matrixRequest{
		Locations:    locations,
		Destinations: destIdx,
		Metrics:      []string{"distance", "duration"},
		Sources:      sources,
	}

	var mr matrixResponse
	if err := o.postJSON(ctx, "/v2/matrix/"+o.profile, req, &mr); err != nil {
		return nil, fmt.Errorf("matrix request failed: %w", err)
	}

	if len(mr.Distances) != len(origins) || len(mr.Durations) != len(origins) {
		return nil, fmt.Errorf(
			"expected %d source rows; got distances=%d durations=%d",
			len(origins), len(mr.Distances), len(mr.Durations),
		)
	}

	out := make([][]ports.DistanceResult, len(origins))
	for i := range origins {
		rowDistances := mr.Distances[i]
		rowDurations := mr.Durations[i]

		if len(rowDistances) != len(destinations) || len(rowDurations) != len(destinations) {
			return nil, fmt.Errorf(
				"row %d lengths do not match destinations: distances=%d durations=%d destinations=%d",
				i, len(rowDistances), len(rowDurations), len(destinations),
			)
		}

		row := make([]ports.DistanceResult, len(destinations))
		for j := range destinations {
			metersPtr := rowDistances[j]
			secondsPtr := rowDurations[j]

			// ORS returns null for unroutable pairs.
			if metersPtr == nil || secondsPtr == nil {
				return nil, fmt.Errorf("matrix returned invalid metrics for source %d destination %d", i, j)
			}

			row[j] = ports.DistanceResult{
				DistanceMeters:  int(math.Round(*metersPtr)),
				DurationSeconds: int(math.Round(*secondsPtr)),
			}
		}
		out[i] = row
	}

	return out, nil
}
