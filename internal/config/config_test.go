package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DISTANCE_CACHE", "")
	t.Setenv("ORS_API_KEY", "")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.HTTPAddress)
	require.Equal(t, "driving-car", cfg.ORSProfile)
	require.Equal(t, 15*time.Second, cfg.ProviderTimeout)
	require.Equal(t, 24*time.Hour, cfg.CacheTTL)
	require.Equal(t, CacheNone, cfg.DistanceCache)
	require.Equal(t, 40.0, cfg.AverageSpeedKmh)
	require.Equal(t, 480.0, cfg.DefaultDeadlineMinutes)
	require.Equal(t, 100.0, cfg.DefaultMaxDistanceKm)
	require.Equal(t, 4, cfg.RouteWorkers)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	content := "HTTP_ADDRESS=:9000\nPROVIDER_TIMEOUT=3s\nROUTE_WORKERS=2\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.env"), []byte(content), 0o600))

	t.Setenv("ROUTE_WORKERS", "8")
	t.Setenv("DISTANCE_CACHE", "SQLite")

	cfg, err := Load(dir)
	require.NoError(t, err)
	require.Equal(t, ":9000", cfg.HTTPAddress)
	require.Equal(t, 3*time.Second, cfg.ProviderTimeout)
	require.Equal(t, 8, cfg.RouteWorkers)
	require.Equal(t, CacheSQLite, cfg.DistanceCache)
}

func TestValidate(t *testing.T) {
	base := Config{
		DistanceCache:          CacheNone,
		ProviderTimeout:        time.Second,
		DefaultDeadlineMinutes: 480,
		DefaultMaxDistanceKm:   100,
		RouteWorkers:           1,
	}
	require.NoError(t, base.Validate())

	c := base
	c.DistanceCache = CacheRedis
	require.Error(t, c.Validate())

	c = base
	c.DistanceCache = CachePostgres
	require.Error(t, c.Validate())
	c.DatabaseURL = "postgres://localhost/db"
	require.NoError(t, c.Validate())

	c = base
	c.DistanceCache = "memcached"
	require.Error(t, c.Validate())

	c = base
	c.RouteWorkers = 0
	require.Error(t, c.Validate())
}

func TestGet(t *testing.T) {
	t.Setenv("CONFIG_TEST_KEY", "")
	require.Equal(t, "fallback", Get("CONFIG_TEST_KEY", "fallback"))
	t.Setenv("CONFIG_TEST_KEY", "set")
	require.Equal(t, "set", Get("CONFIG_TEST_KEY", "fallback"))
}
