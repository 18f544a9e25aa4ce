package main

import (
	"context"
	"database/sql"
	"fmt"
	"milk-collection-service/internal/adapters/repositories"
	"milk-collection-service/internal/adapters/snapshot"
	"milk-collection-service/internal/config"
	"milk-collection-service/internal/platform/db"
	"milk-collection-service/internal/platform/obs"
	"time"

	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load(config.Get("CONFIG_PATH", "."))
	if err != nil {
		log.Fatal().Err(err).Msg("cannot load config")
	}
	obs.SetupLogger(cfg.Environment, cfg.LogLevel)

	if cfg.DatabaseURL == "" {
		log.Fatal().Msg("DATABASE_URL is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	pg, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("cannot connect to database")
	}
	defer pg.Close()

	if err := initAndSeed(ctx, pg, cfg.SeedPath); err != nil {
		log.Fatal().Err(err).Msg("dbtool failed")
	}
}

func initAndSeed(ctx context.Context, pg *sql.DB, seedPath string) error {
	log.Info().Msg("initializing database schema")
	if err := repositories.InitSchema(ctx, pg); err != nil {
		return fmt.Errorf("schema initialization failed: %w", err)
	}
	log.Info().Msg("schema ready")

	snap, err := snapshot.LoadFile(seedPath)
	if err != nil {
		return fmt.Errorf("load seed: %w", err)
	}

	log.Info().Str("seed_path", seedPath).Msg("seeding database")
	if err := repositories.SeedSnapshot(ctx, pg, snap); err != nil {
		return fmt.Errorf("seeding failed: %w", err)
	}
	log.Info().
		Int("vendors", len(snap.Vendors)).
		Int("hubs", len(snap.Hubs)).
		Int("vehicle_categories", len(snap.Categories)).
		Msg("seeding complete")

	return nil
}
