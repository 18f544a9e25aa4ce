// Package cache holds DistanceCache implementations keyed by coordinate
// strings (domain.Coordinates.Key). Values are road metrics in meters and
// seconds.
package cache

import (
	"errors"
	"milk-collection-service/internal/ports"
	"sort"
	"strings"
)

var (
	errEmptyOrigin = errors.New("origin must not be empty")
	errEmptyDest   = errors.New("empty destination key")
)

// uniqueKeys trims, drops empty keys and removes duplicates, keeping order.
func uniqueKeys(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	uniq := make([]string, 0, len(keys))
	for _, k := range keys {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		uniq = append(uniq, k)
	}
	return uniq
}

// cacheRow is one destination entry of a write batch.
type cacheRow struct {
	dest string
	ports.DistanceResult
}

// writeBatch validates a PutMany call and returns its rows sorted by
// destination so batches hit rows in a stable order.
func writeBatch(origin string, results map[string]ports.DistanceResult) ([]cacheRow, error) {
	if origin == "" {
		return nil, errEmptyOrigin
	}

	rows := make([]cacheRow, 0, len(results))
	for dest, r := range results {
		if strings.TrimSpace(dest) == "" {
			return nil, errEmptyDest
		}
		rows = append(rows, cacheRow{dest: dest, DistanceResult: r})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].dest < rows[j].dest })
	return rows, nil
}
