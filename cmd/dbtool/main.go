package main

import (
	"context"
	"database/sql"
	"fmt"
	"route-optimization-service/internal/adapters/repositories"
	"route-optimization-service/internal/config"
	"route-optimization-service/internal/platform/db"
	"route-optimization-service/internal/platform/obs"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// dbtool initialises the schema and loads seed deliveries.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Info().Msg("no .env file found (using environment variables)")
	}
	obs.SetupLogger(config.Get("ENVIRONMENT", "development"), config.Get("LOG_LEVEL", "info"))

	driver := config.Get("DB_DRIVER", "sqlite")
	source := config.Get("DB_SOURCE", "data/app.db")

	conn, err := db.Open(driver, source)
	if err != nil {
		log.Fatal().Err(err).Msg("cannot open database")
	}
	defer conn.Close()

	seedPath := config.Get("SEED_PATH", "data/seeds/deliveries.json")
	if err := initAndSeed(context.Background(), conn, db.Dialect(driver), seedPath); err != nil {
		log.Fatal().Err(err).Msg("dbtool failed")
	}
}

func initAndSeed(ctx context.Context, conn *sql.DB, dialect db.Dialect, seedPath string) error {
	log.Info().Msg("initializing database schema")
	if err := repositories.InitSchema(ctx, conn); err != nil {
		return fmt.Errorf("schema initialization failed: %w", err)
	}
	log.Info().Msg("schema ready")

	log.Info().Str("path", seedPath).Msg("seeding database")
	if err := repositories.SeedFromJSON(ctx, conn, dialect, seedPath); err != nil {
		return fmt.Errorf("seeding failed: %w", err)
	}
	log.Info().Msg("seeding complete")

	return nil
}
