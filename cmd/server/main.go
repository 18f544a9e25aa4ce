package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"milk-collection-service/internal/adapters/cache"
	"milk-collection-service/internal/adapters/distance"
	"milk-collection-service/internal/adapters/repositories"
	"milk-collection-service/internal/adapters/snapshot"
	"milk-collection-service/internal/api"
	"milk-collection-service/internal/api/handlers"
	"milk-collection-service/internal/config"
	"milk-collection-service/internal/domain"
	"milk-collection-service/internal/geo"
	"milk-collection-service/internal/platform/db"
	"milk-collection-service/internal/platform/obs"
	"milk-collection-service/internal/ports"
	"milk-collection-service/internal/services"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// main is the application composition root.
// It wires concrete adapters (Postgres, caches, ORS) behind ports and starts the HTTP server.
func main() {
	cfg, err := config.Load(config.Get("CONFIG_PATH", "."))
	if err != nil {
		log.Fatal().Err(err).Msg("cannot load config")
	}
	obs.SetupLogger(cfg.Environment, cfg.LogLevel)
	if cfg.Environment != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var pg *sql.DB
	if cfg.DatabaseURL != "" {
		pg, err = db.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("cannot connect to database")
		}
		defer pg.Close()

		if err := repositories.InitSchema(ctx, pg); err != nil {
			log.Fatal().Err(err).Msg("cannot initialize schema")
		}
	}

	distanceCache, closeCache, err := openDistanceCache(ctx, cfg, pg)
	if err != nil {
		log.Fatal().Err(err).Msg("cannot open distance cache")
	}
	defer closeCache()

	var backend ports.RoutingBackend = distance.UnavailableBackend{}
	if cfg.ORSAPIKey != "" {
		backend, err = distance.NewORSBackend(distance.ORSOptions{
			APIKey:        cfg.ORSAPIKey,
			BaseURL:       cfg.ORSBaseURL,
			Profile:       cfg.ORSProfile,
			RatePerSecond: cfg.ORSRatePerSecond,
			Cache:         distanceCache,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("cannot create routing backend")
		}
	} else {
		log.Warn().Msg("ORS_API_KEY not set; every distance is a geodesic fallback")
	}

	provider := distance.NewResilientProvider(backend, geo.NewEstimator(cfg.AverageSpeedKmh), cfg.ProviderTimeout)

	var (
		runs      ports.RunRepository
		snapshots ports.SnapshotSource
	)
	if pg != nil {
		runs = repositories.NewPostgresRunRepository(pg)
		snapshots = repositories.NewPostgresSnapshotSource(pg)
	} else {
		runs = repositories.NewMemoryRunRepository()
		snapshots = snapshot.NewFileSource(cfg.SeedPath)
		log.Info().Str("seed_path", cfg.SeedPath).Msg("no DATABASE_URL; runs kept in memory, snapshot read from file")
	}

	router := api.NewRouter(&handlers.RunHandler{
		Optimizer:       services.NewOptimizer(provider, cfg.RouteWorkers),
		ManualEvaluator: &services.ManualEvaluator{},
		Runs:            runs,
		Snapshots:       snapshots,
		Defaults: domain.RunConfig{
			DeadlineMinutes: cfg.DefaultDeadlineMinutes,
			MaxDistanceKm:   cfg.DefaultMaxDistanceKm,
			AverageSpeedKmh: cfg.AverageSpeedKmh,
		},
	})

	// Timeouts are tuned for cold-cache runs (external API latency).
	srv := &http.Server{
		Addr:              cfg.HTTPAddress,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.HTTPAddress).Str("cache", cfg.DistanceCache).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}

// openDistanceCache selects the matrix row cache. A nil cache disables
// caching.
func openDistanceCache(ctx context.Context, cfg config.Config, pg *sql.DB) (ports.DistanceCache, func(), error) {
	noop := func() {}

	switch cfg.DistanceCache {
	case config.CachePostgres:
		return cache.NewSQLDistanceCache(pg, cfg.CacheTTL), noop, nil

	case config.CacheSQLite:
		lite, err := db.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, noop, err
		}
		c := cache.NewSqliteDistanceCache(lite, cfg.CacheTTL)
		if err := c.InitSchema(ctx); err != nil {
			lite.Close()
			return nil, noop, err
		}
		return c, func() { lite.Close() }, nil

	case config.CacheRedis:
		client, err := cache.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, noop, err
		}
		return cache.NewRedisDistanceCache(client, cfg.CacheTTL), func() { client.Close() }, nil

	case config.CacheNone:
		return nil, noop, nil
	}
	return nil, noop, fmt.Errorf("unknown distance cache %q", cfg.DistanceCache)
}
