package repositories

import (
	"context"
	"database/sql"
	"milk-collection-service/internal/domain"
	"milk-collection-service/internal/platform/db"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func newRun(trigger domain.Trigger, at time.Time, cost float64) *domain.Run {
	return &domain.Run{
		ID:        uuid.NewString(),
		Trigger:   trigger,
		Config:    domain.RunConfig{DeadlineMinutes: 480, MaxDistanceKm: 100},
		TotalCost: cost,
		CreatedAt: at,
		Clusters: []domain.Cluster{{
			Hub:      domain.Hub{ID: "H1", Location: domain.Coordinates{Lat: 10, Lon: 78}, CapacityLiters: 500},
			Vehicles: []domain.Assignment{{VehicleInstanceID: "small-1", Category: "small", Stops: []string{"V1"}}},
		}},
	}
}

func TestMemoryRunRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRunRepository()

	_, err := repo.Latest(ctx, domain.TriggerMachine)
	require.ErrorIs(t, err, domain.ErrNotFound)

	t0 := time.Date(2026, 5, 1, 6, 0, 0, 0, time.UTC)
	first := newRun(domain.TriggerMachine, t0, 100)
	second := newRun(domain.TriggerMachine, t0, 90)
	manual := newRun(domain.TriggerManual, t0.Add(time.Minute), 80)

	for _, r := range []*domain.Run{first, second, manual} {
		require.NoError(t, repo.Save(ctx, r))
	}
	require.ErrorIs(t, repo.Save(ctx, first), domain.ErrInvalidInput)

	got, err := repo.Get(ctx, first.ID)
	require.NoError(t, err)
	require.Equal(t, first, got)

	_, err = repo.Get(ctx, "missing")
	require.ErrorIs(t, err, domain.ErrNotFound)

	latest, err := repo.Latest(ctx, domain.TriggerMachine)
	require.NoError(t, err)
	require.Equal(t, second.ID, latest.ID)

	all, err := repo.List(ctx, "")
	require.NoError(t, err)
	require.Equal(t, []string{manual.ID, second.ID, first.ID}, []string{all[0].ID, all[1].ID, all[2].ID})

	manualOnly, err := repo.List(ctx, domain.TriggerManual)
	require.NoError(t, err)
	require.Len(t, manualOnly, 1)
}

func openTestPostgres(t *testing.T) context.Context {
	t.Helper()
	if os.Getenv("TEST_DATABASE_URL") == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	return context.Background()
}

func TestPostgresRoundTrip(t *testing.T) {
	ctx := openTestPostgres(t)

	sqlDB, err := db.Open(ctx, os.Getenv("TEST_DATABASE_URL"))
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, InitSchema(ctx, sqlDB))

	snap := domain.Snapshot{
		Vendors: []domain.Vendor{
			{ID: "V1", Name: "Farm 1", Location: domain.Coordinates{Lat: 10.01, Lon: 78.01}, MilkLiters: 50},
			{ID: "V2", Name: "Farm 2", Location: domain.Coordinates{Lat: 10.02, Lon: 78.02}, MilkLiters: 30},
		},
		Hubs: []domain.Hub{{ID: "H1", Name: "Center", Location: domain.Coordinates{Lat: 10, Lon: 78}, CapacityLiters: 1000}},
		Categories: []domain.VehicleCategory{{
			Name: "small", CapacityLiters: 100, Count: 2, FixedCost: 500, CostPerKm: 10, ServiceMinutesPerStop: 5,
			Instances: []domain.VehicleInstance{{ID: "TN-01", Number: "TN01", Code: "S1", Name: "Small one"}},
		}},
	}
	require.NoError(t, SeedSnapshot(ctx, sqlDB, snap))

	got, err := NewPostgresSnapshotSource(sqlDB).Snapshot(ctx)
	require.NoError(t, err)
	require.Equal(t, snap, got)

	repo := NewPostgresRunRepository(sqlDB)
	run := newRun(domain.TriggerMachine, time.Now().UTC().Truncate(time.Microsecond), 123.5)
	require.NoError(t, repo.Save(ctx, run))

	loaded, err := repo.Get(ctx, run.ID)
	require.NoError(t, err)
	require.Equal(t, run.TotalCost, loaded.TotalCost)
	require.Equal(t, run.Clusters[0].Vehicles[0].Stops, loaded.Clusters[0].Vehicles[0].Stops)

	latest, err := repo.Latest(ctx, domain.TriggerMachine)
	require.NoError(t, err)
	require.Equal(t, run.ID, latest.ID)

	_, err = repo.Get(ctx, uuid.NewString())
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestVendorMilk(t *testing.T) {
	got, err := vendorMilk(sql.NullFloat64{Float64: 25, Valid: true}, sql.NullFloat64{Float64: 3, Valid: true})
	require.NoError(t, err)
	if got != 25 {
		t.Fatalf("milk = %v, want 25", got)
	}

	got, err = vendorMilk(sql.NullFloat64{}, sql.NullFloat64{Float64: 1.5, Valid: true})
	require.NoError(t, err)
	if got != 60 {
		t.Fatalf("milk = %v, want 60", got)
	}

	_, err = vendorMilk(sql.NullFloat64{}, sql.NullFloat64{})
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}
