package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"milk-collection-service/internal/domain"
	"milk-collection-service/internal/platform/obs"
)

// Postgres-backed implementation of the SnapshotSource port.
type PostgresSnapshotSource struct{ DB *sql.DB }

func NewPostgresSnapshotSource(db *sql.DB) *PostgresSnapshotSource {
	return &PostgresSnapshotSource{DB: db}
}

// Snapshot reads the active vendors, hubs and fleet in registration order.
func (s *PostgresSnapshotSource) Snapshot(ctx context.Context) (_ domain.Snapshot, err error) {
	defer obs.Time(ctx, "snapshot.Load")(&err)

	if s.DB == nil {
		return domain.Snapshot{}, errors.New("postgres snapshot source: DB is nil")
	}

	vendors, err := s.vendors(ctx)
	if err != nil {
		return domain.Snapshot{}, err
	}
	hubs, err := s.hubs(ctx)
	if err != nil {
		return domain.Snapshot{}, err
	}
	categories, err := s.categories(ctx)
	if err != nil {
		return domain.Snapshot{}, err
	}

	return domain.Snapshot{Vendors: vendors, Hubs: hubs, Categories: categories}, nil
}

func (s *PostgresSnapshotSource) vendors(ctx context.Context) ([]domain.Vendor, error) {
	query := `
	SELECT id, name, latitude, longitude, milk_liters, milk_cans
	FROM vendors
	WHERE is_active
	ORDER BY position;
	`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list vendors: query vendors table: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Vendor, 0, 64)
	for rows.Next() {
		var v domain.Vendor
		var liters, cans sql.NullFloat64
		if err := rows.Scan(&v.ID, &v.Name, &v.Location.Lat, &v.Location.Lon, &liters, &cans); err != nil {
			return nil, fmt.Errorf("list vendors: scan row: %w", err)
		}
		milk, err := vendorMilk(liters, cans)
		if err != nil {
			return nil, fmt.Errorf("list vendors: vendor %q: %w", v.ID, err)
		}
		v.MilkLiters = milk
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list vendors: row iteration: %w", err)
	}

	return out, nil
}

// vendorMilk prefers liters over cans; a row with neither is rejected.
func vendorMilk(liters, cans sql.NullFloat64) (float64, error) {
	switch {
	case liters.Valid:
		return liters.Float64, nil
	case cans.Valid:
		return domain.CansToLiters(cans.Float64), nil
	default:
		return 0, fmt.Errorf("milk_liters or milk_cans is required: %w", domain.ErrInvalidInput)
	}
}

func (s *PostgresSnapshotSource) hubs(ctx context.Context) ([]domain.Hub, error) {
	query := `
	SELECT id, name, latitude, longitude, capacity_liters
	FROM storage_hubs
	WHERE is_active
	ORDER BY position;
	`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list hubs: query storage_hubs table: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Hub, 0, 8)
	for rows.Next() {
		var h domain.Hub
		if err := rows.Scan(&h.ID, &h.Name, &h.Location.Lat, &h.Location.Lon, &h.CapacityLiters); err != nil {
			return nil, fmt.Errorf("list hubs: scan row: %w", err)
		}
		out = append(out, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list hubs: row iteration: %w", err)
	}

	return out, nil
}

func (s *PostgresSnapshotSource) categories(ctx context.Context) ([]domain.VehicleCategory, error) {
	query := `
	SELECT name, capacity_liters, count, fixed_cost, cost_per_km, service_minutes_per_stop
	FROM vehicle_categories
	ORDER BY position;
	`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list categories: query vehicle_categories table: %w", err)
	}
	defer rows.Close()

	out := make([]domain.VehicleCategory, 0, 8)
	index := make(map[string]int)
	for rows.Next() {
		var c domain.VehicleCategory
		if err := rows.Scan(&c.Name, &c.CapacityLiters, &c.Count, &c.FixedCost, &c.CostPerKm, &c.ServiceMinutesPerStop); err != nil {
			return nil, fmt.Errorf("list categories: scan row: %w", err)
		}
		index[c.Name] = len(out)
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list categories: row iteration: %w", err)
	}

	fleetQuery := `
	SELECT id, category, vehicle_number, vehicle_code, vehicle_name
	FROM fleet
	WHERE is_active
	ORDER BY position;
	`
	fleetRows, err := s.DB.QueryContext(ctx, fleetQuery)
	if err != nil {
		return nil, fmt.Errorf("list fleet: query fleet table: %w", err)
	}
	defer fleetRows.Close()

	for fleetRows.Next() {
		var inst domain.VehicleInstance
		var category string
		if err := fleetRows.Scan(&inst.ID, &category, &inst.Number, &inst.Code, &inst.Name); err != nil {
			return nil, fmt.Errorf("list fleet: scan row: %w", err)
		}
		i, ok := index[category]
		if !ok {
			continue
		}
		out[i].Instances = append(out[i].Instances, inst)
	}
	if err := fleetRows.Err(); err != nil {
		return nil, fmt.Errorf("list fleet: row iteration: %w", err)
	}

	return out, nil
}
