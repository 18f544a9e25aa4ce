package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"milk-collection-service/internal/platform/obs"
	"milk-collection-service/internal/ports"
	"time"
)

// SQLDistanceCache is a Postgres-backed cache for origin->destination
// distance results. Rows older than TTL are ignored; a zero TTL keeps rows
// forever.
type SQLDistanceCache struct {
	DB  *sql.DB
	TTL time.Duration
}

func NewSQLDistanceCache(db *sql.DB, ttl time.Duration) *SQLDistanceCache {
	return &SQLDistanceCache{DB: db, TTL: ttl}
}

// GetMany returns the fresh cached rows of origin for the given destinations.
// Missing destinations are simply absent from the map.
func (s *SQLDistanceCache) GetMany(
	ctx context.Context,
	origin string,
	destinations []string,
) (_ map[string]ports.DistanceResult, err error) {
	defer obs.Time(ctx, "postgres.cache.GetMany")(&err)

	if s.DB == nil {
		return nil, errors.New("distance cache: db is nil")
	}
	if origin == "" {
		return nil, fmt.Errorf("get distance cache: %w", errEmptyOrigin)
	}

	uniq := uniqueKeys(destinations)
	if len(uniq) == 0 {
		return map[string]ports.DistanceResult{}, nil
	}

	q := `
	SELECT destination, distance_meters, duration_seconds
	FROM distance_cache
	WHERE origin = $1
		AND destination = ANY($2::text[])
		AND ($3::interval IS NULL OR updated_at >= now() - $3::interval);
	`

	rows, err := s.DB.QueryContext(ctx, q, origin, uniq, s.maxAge())
	if err != nil {
		return nil, fmt.Errorf("get distance cache: query distance_cache table: %w", err)
	}
	defer rows.Close()

	out := make(map[string]ports.DistanceResult, len(uniq))
	for rows.Next() {
		var dest string
		var r ports.DistanceResult
		if err := rows.Scan(&dest, &r.DistanceMeters, &r.DurationSeconds); err != nil {
			return nil, fmt.Errorf("get distance cache: scan rows: %w", err)
		}
		out[dest] = r
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get distance cache: row iteration: %w", err)
	}

	return out, nil
}

// PutMany upserts every destination of origin in a single statement.
func (s *SQLDistanceCache) PutMany(
	ctx context.Context,
	origin string,
	results map[string]ports.DistanceResult,
) (err error) {
	defer obs.Time(ctx, "postgres.cache.PutMany")(&err)

	if s.DB == nil {
		return errors.New("distance cache: db is nil")
	}
	batch, err := writeBatch(origin, results)
	if err != nil {
		return fmt.Errorf("insert distance cache: %w", err)
	}
	if len(batch) == 0 {
		return nil
	}

	dests := make([]string, len(batch))
	meters := make([]int64, len(batch))
	seconds := make([]int64, len(batch))
	for i, r := range batch {
		dests[i] = r.dest
		meters[i] = int64(r.DistanceMeters)
		seconds[i] = int64(r.DurationSeconds)
	}

	q := `
	INSERT INTO distance_cache (origin, destination, distance_meters, duration_seconds, updated_at)
	SELECT $1, d.destination, d.meters, d.seconds, now()
	FROM unnest($2::text[], $3::int8[], $4::int8[]) AS d(destination, meters, seconds)
	ON CONFLICT (origin, destination) DO UPDATE
	SET distance_meters = EXCLUDED.distance_meters,
		duration_seconds = EXCLUDED.duration_seconds,
		updated_at = EXCLUDED.updated_at;
	`
	if _, err := s.DB.ExecContext(ctx, q, origin, dests, meters, seconds); err != nil {
		return fmt.Errorf("insert distance cache origin=%q: %w", origin, err)
	}

	return nil
}

// maxAge is the TTL as a Postgres interval literal, or nil for no expiry.
func (s *SQLDistanceCache) maxAge() any {
	if s.TTL <= 0 {
		return nil
	}
	return fmt.Sprintf("%d milliseconds", s.TTL.Milliseconds())
}
