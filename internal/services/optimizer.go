package services

import (
	"context"
	"fmt"
	"milk-collection-service/internal/domain"
	"milk-collection-service/internal/geo"
	"milk-collection-service/internal/platform/metrics"
	"milk-collection-service/internal/platform/obs"
	"milk-collection-service/internal/ports"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const defaultRouteWorkers = 5

// Optimizer runs the machine-generated allocation pipeline: cluster vendors
// to hubs, pack each cluster onto the fleet, sequence every vehicle's route
// and evaluate it against the run limits.
//
// An Optimizer holds no per-run state, so concurrent Run calls are
// independent.
type Optimizer struct {
	Provider ports.DistanceRouteProvider
	// Workers bounds concurrent route sequencing calls.
	Workers int
	Now     func() time.Time
	NewID   func() string
}

func NewOptimizer(provider ports.DistanceRouteProvider, workers int) *Optimizer {
	return &Optimizer{
		Provider: provider,
		Workers:  workers,
		Now:      time.Now,
		NewID:    uuid.NewString,
	}
}

// Run executes one pipeline over snap. It fails without a partial result on
// empty or invalid input. Provider failures degrade the run instead of
// failing it.
func (o *Optimizer) Run(ctx context.Context, snap domain.Snapshot, cfg domain.RunConfig) (_ *domain.Run, err error) {
	defer obs.Time(ctx, "optimizer.Run")(&err)
	start := time.Now()

	if err := snap.Validate(); err != nil {
		return nil, fmt.Errorf("optimize: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("optimize: %w", err)
	}
	cfg.Categories = snap.Categories

	matrix, err := o.matrix(ctx, vendorLocations(snap.Vendors), hubLocations(snap.Hubs))
	if err != nil {
		return nil, fmt.Errorf("optimize: vendor-hub matrix: %w", err)
	}
	degraded := matrix.Source == domain.SourceFallback

	clusters, err := AssignClusters(snap.Vendors, snap.Hubs, matrix.DistancesKm)
	if err != nil {
		return nil, fmt.Errorf("optimize: %w", err)
	}

	// Allocation is sequential: the inventory is shared across clusters in
	// cluster order.
	inventory := NewFleetInventory(snap.Categories)
	allocations := make([][]Allocation, len(clusters))
	unassigned := make([][]domain.Vendor, len(clusters))
	for ci, c := range clusters {
		allocations[ci], unassigned[ci] = inventory.Allocate(c.Vendors)
	}

	routes, err := o.sequenceAll(ctx, clusters, allocations, geo.NewEstimator(cfg.Speed()))
	if err != nil {
		return nil, fmt.Errorf("optimize: %w", err)
	}

	for _, rs := range routes {
		for _, r := range rs {
			if r.Source == domain.SourceFallback {
				degraded = true
			}
		}
	}

	limits := Limits{DeadlineMinutes: cfg.DeadlineMinutes, MaxDistanceKm: cfg.MaxDistanceKm}
	results := make([]clusterResult, len(clusters))
	for ci, c := range clusters {
		assignments := make([]domain.Assignment, len(allocations[ci]))
		for ai, alloc := range allocations[ci] {
			assignments[ai] = buildAssignment(alloc, routes[ci][ai], limits)
		}
		results[ci] = clusterResult{
			Hub:         c.Hub,
			Vendors:     c.Vendors,
			Assignments: assignments,
			Unassigned:  unassigned[ci],
		}
	}

	run := assembleRun(o.newID(), domain.TriggerMachine, cfg, results, inventory.Unused(), degraded, o.now())

	metrics.RunDuration.WithLabelValues(string(run.Trigger)).Observe(time.Since(start).Seconds())
	metrics.RunViolations.Observe(float64(run.TotalViolations))
	metrics.UnassignedVendors.Add(float64(run.TotalUnassignedFarmers))

	log.Info().
		Str("req_id", obs.RequestID(ctx)).
		Str("run_id", run.ID).
		Int("clusters", len(run.Clusters)).
		Int("vehicles", len(run.Assignments())).
		Int("unassigned", run.TotalUnassignedFarmers).
		Int("violations", run.TotalViolations).
		Float64("total_cost", run.TotalCost).
		Bool("degraded", run.Degraded).
		Msg("optimization run completed")

	return run, nil
}

// matrix asks the provider for vendor-hub distances. Without a provider the
// geodesic matrix is used and reported as a fallback.
func (o *Optimizer) matrix(ctx context.Context, vendors, hubs []domain.Coordinates) (ports.MatrixResult, error) {
	if o.Provider != nil {
		return o.Provider.Matrix(ctx, vendors, hubs)
	}
	m, err := geo.Matrix(vendors, hubs)
	if err != nil {
		return ports.MatrixResult{}, err
	}
	return ports.MatrixResult{DistancesKm: m, Source: domain.SourceFallback, Reason: "no distance provider"}, nil
}

// sequenceAll orders every allocated vehicle's stops. Calls run concurrently
// up to Workers; results land in slots matching the allocation indices so
// the output order never depends on scheduling.
func (o *Optimizer) sequenceAll(
	ctx context.Context,
	clusters []ClusterAssignment,
	allocations [][]Allocation,
	estimator geo.Estimator,
) ([][]SequencedRoute, error) {
	seq := &RouteSequencer{Provider: o.Provider, Estimator: estimator}

	routes := make([][]SequencedRoute, len(clusters))
	for ci := range clusters {
		routes[ci] = make([]SequencedRoute, len(allocations[ci]))
	}

	workers := o.Workers
	if workers <= 0 {
		workers = defaultRouteWorkers
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for ci, c := range clusters {
		ci, c := ci, c
		for ai, alloc := range allocations[ci] {
			ai, alloc := ai, alloc
			g.Go(func() error {
				r, err := seq.Sequence(gctx, c.Hub.Location, alloc.Vendors)
				if err != nil {
					return fmt.Errorf("cluster %q vehicle %q: %w", c.Hub.ID, alloc.Vehicle.ID, err)
				}
				routes[ci][ai] = r
				return nil
			})
		}
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return routes, nil
}

func (o *Optimizer) now() time.Time {
	if o.Now == nil {
		return time.Now().UTC()
	}
	return o.Now().UTC()
}

func (o *Optimizer) newID() string {
	if o.NewID == nil {
		return newRunID()
	}
	return o.NewID()
}

func newRunID() string { return uuid.NewString() }
