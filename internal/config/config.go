// Package config loads service configuration from the environment,
// an optional .env file and an optional app.env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config stores all configuration of the application.
// The values are read by viper from a config file or environment variable.
type Config struct {
	Environment string `mapstructure:"ENVIRONMENT"`
	LogLevel    string `mapstructure:"LOG_LEVEL"`
	HTTPAddress string `mapstructure:"HTTP_ADDRESS"`
	DatabaseURL string `mapstructure:"DATABASE_URL"`

	ORSAPIKey        string        `mapstructure:"ORS_API_KEY"`
	ORSBaseURL       string        `mapstructure:"ORS_BASE_URL"`
	ORSProfile       string        `mapstructure:"ORS_PROFILE"`
	ORSRatePerSecond float64       `mapstructure:"ORS_RATE_PER_SECOND"`
	ProviderTimeout  time.Duration `mapstructure:"PROVIDER_TIMEOUT"`

	DistanceCache string        `mapstructure:"DISTANCE_CACHE"`
	SQLitePath    string        `mapstructure:"SQLITE_PATH"`
	RedisURL      string        `mapstructure:"REDIS_URL"`
	CacheTTL      time.Duration `mapstructure:"CACHE_TTL"`

	AverageSpeedKmh        float64 `mapstructure:"AVERAGE_SPEED_KMH"`
	DefaultDeadlineMinutes float64 `mapstructure:"DEFAULT_DEADLINE_MINUTES"`
	DefaultMaxDistanceKm   float64 `mapstructure:"DEFAULT_MAX_DISTANCE_KM"`
	RouteWorkers           int     `mapstructure:"ROUTE_WORKERS"`

	SeedPath string `mapstructure:"SEED_PATH"`
}

const (
	CacheNone     = "none"
	CachePostgres = "postgres"
	CacheSQLite   = "sqlite"
	CacheRedis    = "redis"
)

var defaults = map[string]any{
	"ENVIRONMENT":              "production",
	"LOG_LEVEL":                "info",
	"HTTP_ADDRESS":             ":8080",
	"DATABASE_URL":             "",
	"ORS_API_KEY":              "",
	"ORS_BASE_URL":             "https://api.openrouteservice.org",
	"ORS_PROFILE":              "driving-car",
	"ORS_RATE_PER_SECOND":      5.0,
	"PROVIDER_TIMEOUT":         "15s",
	"DISTANCE_CACHE":           CacheNone,
	"SQLITE_PATH":              "data/cache.db",
	"REDIS_URL":                "",
	"CACHE_TTL":                "24h",
	"AVERAGE_SPEED_KMH":        40.0,
	"DEFAULT_DEADLINE_MINUTES": 480.0,
	"DEFAULT_MAX_DISTANCE_KM":  100.0,
	"ROUTE_WORKERS":            4,
	"SEED_PATH":                "data/seeds/snapshot.yaml",
}

// Load reads .env (if present), then app.env in path (if present), then
// environment variables. Environment variables win.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("app")
	v.SetConfigType("env")
	v.AutomaticEnv()

	for k, val := range defaults {
		v.SetDefault(k, val)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("load config: read app.env: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("load config: unmarshal: %w", err)
	}

	cfg.ORSAPIKey = strings.TrimSpace(cfg.ORSAPIKey)
	cfg.DistanceCache = strings.ToLower(strings.TrimSpace(cfg.DistanceCache))
	if cfg.DistanceCache == "" {
		cfg.DistanceCache = CacheNone
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects values the service cannot start with.
func (c Config) Validate() error {
	switch c.DistanceCache {
	case CacheNone, CacheSQLite:
	case CachePostgres:
		if c.DatabaseURL == "" {
			return errors.New("config: DISTANCE_CACHE=postgres requires DATABASE_URL")
		}
	case CacheRedis:
		if c.RedisURL == "" {
			return errors.New("config: DISTANCE_CACHE=redis requires REDIS_URL")
		}
	default:
		return fmt.Errorf("config: unknown DISTANCE_CACHE %q", c.DistanceCache)
	}

	if c.ProviderTimeout <= 0 {
		return fmt.Errorf("config: PROVIDER_TIMEOUT must be positive, got %s", c.ProviderTimeout)
	}
	if c.DefaultDeadlineMinutes <= 0 || c.DefaultMaxDistanceKm <= 0 {
		return errors.New("config: default deadline and max distance must be positive")
	}
	if c.RouteWorkers < 1 {
		return fmt.Errorf("config: ROUTE_WORKERS must be >= 1, got %d", c.RouteWorkers)
	}
	return nil
}

// Get returns the environment variable or fallback when it is unset.
func Get(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
