package services

import (
	"encoding/json"
	"milk-collection-service/internal/domain"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func manualSnapshot() domain.Snapshot {
	return domain.Snapshot{
		Vendors: []domain.Vendor{
			vendor("V1", 10.05, 78.00, 40),
			vendor("V2", 10.00, 78.05, 30),
			vendor("V3", 10.08, 78.04, 20),
			vendor("V4", 12.00, 78.00, 15),
		},
		Hubs: []domain.Hub{
			testHub,
			{ID: "H2", Location: domain.Coordinates{Lat: 12.1, Lon: 78.0}, CapacityLiters: 100},
		},
		Categories: []domain.VehicleCategory{category("tanker", 100, 2)},
	}
}

func testManualEvaluator() *ManualEvaluator {
	return &ManualEvaluator{
		Now:   func() time.Time { return time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC) },
		NewID: func() string { return "manual-1" },
	}
}

func TestParseManualPayloadShapes(t *testing.T) {
	tests := []struct {
		raw  string
		want ManualShape
	}{
		{`{"optimization_results":{"clusters":[{"hub_id":"H1","vehicles":[]}]}}`, ShapeOptimizationResults},
		{`{"clusters":[{"hub_id":"H1","vehicles":[]}]}`, ShapeClusters},
		{`{"data":{"clusters":[{"hub_id":"H1","vehicles":[]}]}}`, ShapeData},
	}

	for _, tc := range tests {
		plan, err := ParseManualPayload([]byte(tc.raw))
		require.NoError(t, err, tc.raw)
		if plan.Shape != tc.want {
			t.Fatalf("shape = %v, want %v", plan.Shape, tc.want)
		}
		require.Len(t, plan.Clusters, 1)
		require.Equal(t, "H1", plan.Clusters[0].hubID())
	}
}

func TestParseManualPayloadRejectsUnknownShapes(t *testing.T) {
	for _, raw := range []string{
		`{}`,
		`{"routes":[]}`,
		`{"data":{"routes":[]}}`,
		`{"clusters":[],"data":{"clusters":[]}}`,
		`[1,2]`,
		`not json`,
	} {
		_, err := ParseManualPayload([]byte(raw))
		require.ErrorIs(t, err, domain.ErrInvalidInput, raw)
	}
}

func TestEvaluateManualKeepsStopOrder(t *testing.T) {
	plan := ManualPlan{Clusters: []ManualCluster{{
		HubID: "H1",
		Vehicles: []ManualVehicle{
			{Category: "tanker", Stops: []string{"V3", "V1"}},
		},
		UnassignedVendors: []ManualUnassigned{{VendorID: "V2"}},
	}}}

	run, err := testManualEvaluator().Evaluate(manualSnapshot(), defaultConfig(), plan)
	require.NoError(t, err)
	require.Equal(t, domain.TriggerManual, run.Trigger)
	require.Equal(t, "manual-1", run.ID)
	require.False(t, run.Degraded)

	h1 := run.Clusters[0]
	require.Len(t, h1.Vehicles, 1)
	a := h1.Vehicles[0]
	require.Equal(t, []string{"V3", "V1"}, a.Stops)
	require.Equal(t, "tanker-1", a.VehicleInstanceID)
	require.Equal(t, 60.0, a.MilkLiters)
	require.Equal(t, ManualStopReason, a.FallbackReason)
	require.Equal(t, []domain.UnassignedVendor{{VendorID: "V2", MilkLiters: 30}}, h1.UnassignedVendors)

	// V4 is never mentioned and lands at its nearest hub.
	h2 := run.Clusters[1]
	require.Equal(t, []domain.UnassignedVendor{{VendorID: "V4", MilkLiters: 15}}, h2.UnassignedVendors)
	require.Equal(t, 2, run.TotalUnassignedFarmers)
	require.Len(t, run.UnusedVehicles, 1)
}

func TestEvaluateManualErrors(t *testing.T) {
	tests := []struct {
		name    string
		cluster ManualCluster
		want    error
	}{
		{"unknown hub", ManualCluster{HubID: "NOPE"}, domain.ErrInvalidInput},
		{"unknown vendor", ManualCluster{HubID: "H1", Vehicles: []ManualVehicle{
			{Category: "tanker", Stops: []string{"V9"}},
		}}, domain.ErrInvalidInput},
		{"unknown category", ManualCluster{HubID: "H1", Vehicles: []ManualVehicle{
			{Category: "bus", Stops: []string{"V1"}},
		}}, domain.ErrInvalidInput},
		{"vendor twice", ManualCluster{HubID: "H1", Vehicles: []ManualVehicle{
			{Category: "tanker", Stops: []string{"V1"}},
			{Category: "tanker", Stops: []string{"V1"}},
		}}, domain.ErrInvalidInput},
		{"instance twice", ManualCluster{HubID: "H1", Vehicles: []ManualVehicle{
			{Category: "tanker", VehicleInstanceID: "tanker-1", Stops: []string{"V1"}},
			{Category: "tanker", VehicleInstanceID: "tanker-1", Stops: []string{"V2"}},
		}}, domain.ErrInvalidInput},
		{"count exceeded", ManualCluster{HubID: "H1", Vehicles: []ManualVehicle{
			{Category: "tanker", Stops: []string{"V1"}},
			{Category: "tanker", Stops: []string{"V2"}},
			{Category: "tanker", Stops: []string{"V3"}},
		}}, domain.ErrInvalidInput},
		{"over capacity", ManualCluster{HubID: "H1", Vehicles: []ManualVehicle{
			{Category: "tanker", Stops: []string{"V1", "V2", "V3", "V4"}},
		}}, domain.ErrCapacityExceeded},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			plan := ManualPlan{Clusters: []ManualCluster{tc.cluster}}
			_, err := testManualEvaluator().Evaluate(manualSnapshot(), defaultConfig(), plan)
			require.ErrorIs(t, err, tc.want)
		})
	}
}

func TestEvaluateManualAcceptsStoredRun(t *testing.T) {
	snap := manualSnapshot()
	machine, err := runOptimizer(failingProvider(), snap)
	require.NoError(t, err)

	raw, err := json.Marshal(map[string]any{"optimization_results": map[string]any{"clusters": machine.Clusters}})
	require.NoError(t, err)

	plan, err := ParseManualPayload(raw)
	require.NoError(t, err)

	manual, err := testManualEvaluator().Evaluate(snap, defaultConfig(), plan)
	require.NoError(t, err)

	for i := range machine.Clusters {
		require.Equal(t, len(machine.Clusters[i].Vehicles), len(manual.Clusters[i].Vehicles))
		for j := range machine.Clusters[i].Vehicles {
			require.Equal(t, machine.Clusters[i].Vehicles[j].Stops, manual.Clusters[i].Vehicles[j].Stops)
		}
	}
	require.InDelta(t, machine.TotalCost, manual.TotalCost, 1e-9)

	c := Compare(machine, manual)
	require.InDelta(t, 0, c.CostSaved, 1e-9)
}
