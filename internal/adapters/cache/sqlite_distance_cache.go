package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"milk-collection-service/internal/platform/obs"
	"milk-collection-service/internal/ports"
	"strings"
	"time"
)

// SQLite backed cache for origin->destination distance results, used when
// the service runs without Postgres. Keys are expected to be consistent
// (domain.Coordinates.Key) by the caller.
type SqliteDistanceCache struct {
	DB  *sql.DB
	TTL time.Duration
	now func() time.Time
}

func NewSqliteDistanceCache(db *sql.DB, ttl time.Duration) *SqliteDistanceCache {
	return &SqliteDistanceCache{DB: db, TTL: ttl, now: time.Now}
}

// InitSchema creates the cache table if it does not exist.
func (s *SqliteDistanceCache) InitSchema(ctx context.Context) error {
	if s.DB == nil {
		return errors.New("init sqlite cache schema: DB is nil")
	}

	statements := []string{
		`
	CREATE TABLE IF NOT EXISTS distance_cache (
        origin TEXT NOT NULL,
        destination TEXT NOT NULL,
        distance_meters INTEGER NOT NULL,
        duration_seconds INTEGER NOT NULL,
        updated_at INTEGER NOT NULL,
        PRIMARY KEY (origin, destination)
    );
	`,
		`
	CREATE INDEX IF NOT EXISTS idx_distance_cache_destination_origin
    ON distance_cache(destination, origin);
	`,
	}

	for i, stmt := range statements {
		if _, err := s.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init sqlite cache schema: exec statement #%d: %w", i+1, err)
		}
	}
	return nil
}

// GetMany returns the fresh cached rows of origin for the given
// destinations. The key list is bound as one JSON array and expanded with
// json_each, so the statement text never depends on the input.
func (s *SqliteDistanceCache) GetMany(
	ctx context.Context,
	origin string,
	destinations []string,
) (_ map[string]ports.DistanceResult, err error) {
	defer obs.Time(ctx, "sqlite.cache.GetMany")(&err)

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

	keys, err := json.Marshal(uniq)
	if err != nil {
		return nil, fmt.Errorf("get distance cache: encode keys: %w", err)
	}

	q := `
	SELECT destination, distance_meters, duration_seconds
	FROM distance_cache
	WHERE origin = ?
		AND updated_at >= ?
		AND destination IN (SELECT value FROM json_each(?));
	`

	rows, err := s.DB.QueryContext(ctx, q, origin, s.cutoff(), string(keys))
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

// sqliteUpsertChunk keeps each multi-row insert well below SQLite's
// bound-parameter limit.
const sqliteUpsertChunk = 100

// PutMany upserts the batch in multi-row statements inside one transaction.
func (s *SqliteDistanceCache) PutMany(ctx context.Context, origin string, results map[string]ports.DistanceResult) error {
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

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("insert distance cache: db begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := s.clock().Unix()
	for start := 0; start < len(batch); start += sqliteUpsertChunk {
		chunk := batch[start:min(start+sqliteUpsertChunk, len(batch))]

		values := make([]string, len(chunk))
		args := make([]any, 0, 5*len(chunk))
		for i, r := range chunk {
			values[i] = "(?, ?, ?, ?, ?)"
			args = append(args, origin, r.dest, r.DistanceMeters, r.DurationSeconds, now)
		}

		q := `
	INSERT INTO distance_cache (origin, destination, distance_meters, duration_seconds, updated_at)
	VALUES ` + strings.Join(values, ", ") + `
	ON CONFLICT (origin, destination) DO UPDATE
	SET distance_meters = excluded.distance_meters,
		duration_seconds = excluded.duration_seconds,
		updated_at = excluded.updated_at;
	`
		if _, err := tx.ExecContext(ctx, q, args...); err != nil {
			return fmt.Errorf("insert distance cache origin=%q: %w", origin, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("insert distance cache commit: %w", err)
	}
	return nil
}

func (s *SqliteDistanceCache) clock() time.Time {
	if s.now == nil {
		return time.Now()
	}
	return s.now()
}

func (s *SqliteDistanceCache) cutoff() int64 {
	if s.TTL <= 0 {
		return 0
	}
	return s.clock().Add(-s.TTL).Unix()
}
