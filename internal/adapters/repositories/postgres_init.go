package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"milk-collection-service/internal/domain"
)

// Initialize the Postgres database schema.
func InitSchema(ctx context.Context, db *sql.DB) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	createVendorsQuery := `
	CREATE TABLE IF NOT EXISTS vendors (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL DEFAULT '',
		latitude DOUBLE PRECISION NOT NULL,
		longitude DOUBLE PRECISION NOT NULL,
		milk_liters DOUBLE PRECISION,
		milk_cans DOUBLE PRECISION,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		position SERIAL
	);
	`

	createHubsQuery := `
	CREATE TABLE IF NOT EXISTS storage_hubs (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL DEFAULT '',
		latitude DOUBLE PRECISION NOT NULL,
		longitude DOUBLE PRECISION NOT NULL,
		capacity_liters DOUBLE PRECISION NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		position SERIAL
	);
	`

	createCategoriesQuery := `
	CREATE TABLE IF NOT EXISTS vehicle_categories (
		name TEXT PRIMARY KEY,
		capacity_liters DOUBLE PRECISION NOT NULL,
		count INTEGER NOT NULL,
		fixed_cost DOUBLE PRECISION NOT NULL DEFAULT 0,
		cost_per_km DOUBLE PRECISION NOT NULL DEFAULT 0,
		service_minutes_per_stop DOUBLE PRECISION NOT NULL DEFAULT 0,
		position SERIAL
	);
	`

	createFleetQuery := `
	CREATE TABLE IF NOT EXISTS fleet (
		id TEXT PRIMARY KEY,
		category TEXT NOT NULL REFERENCES vehicle_categories(name) ON DELETE CASCADE,
		vehicle_number TEXT NOT NULL DEFAULT '',
		vehicle_code TEXT NOT NULL DEFAULT '',
		vehicle_name TEXT NOT NULL DEFAULT '',
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		position SERIAL
	);
	`

	createRunsQuery := `
	CREATE TABLE IF NOT EXISTS optimization_runs (
		id TEXT PRIMARY KEY,
		trigger_type TEXT NOT NULL,
		status TEXT NOT NULL,
		input_config JSONB NOT NULL,
		result JSONB NOT NULL,
		results_summary JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	);
	`

	createRunsIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_optimization_runs_trigger_created
	ON optimization_runs(trigger_type, created_at DESC);
	`

	createDistanceCacheQuery := `
	CREATE TABLE IF NOT EXISTS distance_cache (
        origin TEXT NOT NULL,
        destination TEXT NOT NULL,
        distance_meters INTEGER NOT NULL,
        duration_seconds INTEGER NOT NULL,
        updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
        PRIMARY KEY (origin, destination)
    );
	`

	createIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_distance_cache_destination_origin
    ON distance_cache(destination, origin);
	`

	statements := []string{
		createVendorsQuery,
		createHubsQuery,
		createCategoriesQuery,
		createFleetQuery,
		createRunsQuery,
		createRunsIndexQuery,
		createDistanceCacheQuery,
		createIndexQuery,
	}

	for i, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}

// SeedSnapshot replaces vendors, hubs and fleet with the snapshot content.
// The snapshot is validated first; nothing is written on error.
func SeedSnapshot(ctx context.Context, db *sql.DB, snap domain.Snapshot) error {
	if err := snap.Validate(); err != nil {
		return fmt.Errorf("seed snapshot: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("seed snapshot: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, q := range []string{
		`DELETE FROM fleet;`,
		`DELETE FROM vehicle_categories;`,
		`DELETE FROM storage_hubs;`,
		`DELETE FROM vendors;`,
	} {
		if _, err := tx.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("seed snapshot: clear tables: %w", err)
		}
	}

	for _, v := range snap.Vendors {
		_, err := tx.ExecContext(ctx, `
		INSERT INTO vendors (id, name, latitude, longitude, milk_liters)
		VALUES ($1, $2, $3, $4, $5);
		`, v.ID, v.Name, v.Location.Lat, v.Location.Lon, v.MilkLiters)
		if err != nil {
			return fmt.Errorf("seed snapshot: insert vendor id=%q: %w", v.ID, err)
		}
	}

	for _, h := range snap.Hubs {
		_, err := tx.ExecContext(ctx, `
		INSERT INTO storage_hubs (id, name, latitude, longitude, capacity_liters)
		VALUES ($1, $2, $3, $4, $5);
		`, h.ID, h.Name, h.Location.Lat, h.Location.Lon, h.CapacityLiters)
		if err != nil {
			return fmt.Errorf("seed snapshot: insert hub id=%q: %w", h.ID, err)
		}
	}

	for _, c := range snap.Categories {
		_, err := tx.ExecContext(ctx, `
		INSERT INTO vehicle_categories (name, capacity_liters, count, fixed_cost, cost_per_km, service_minutes_per_stop)
		VALUES ($1, $2, $3, $4, $5, $6);
		`, c.Name, c.CapacityLiters, c.Count, c.FixedCost, c.CostPerKm, c.ServiceMinutesPerStop)
		if err != nil {
			return fmt.Errorf("seed snapshot: insert category %q: %w", c.Name, err)
		}

		for i, inst := range c.Instances {
			id := c.InstanceID(i)
			_, err := tx.ExecContext(ctx, `
			INSERT INTO fleet (id, category, vehicle_number, vehicle_code, vehicle_name)
			VALUES ($1, $2, $3, $4, $5);
			`, id, c.Name, inst.Number, inst.Code, inst.Name)
			if err != nil {
				return fmt.Errorf("seed snapshot: insert vehicle id=%q: %w", id, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed snapshot: commit tx: %w", err)
	}

	return nil
}
