package main

import (
	"context"
	"database/sql"
	"log/slog"
	"nav-assistant-service/internal/adapters/cache"
	"nav-assistant-service/internal/adapters/repositories"
	"nav-assistant-service/internal/config"
	"nav-assistant-service/internal/platform/db"
	"nav-assistant-service/internal/platform/logging"
	"os"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
)

// dbtool prepares the Postgres geocode cache: schema, then gazetteer seed.
func main() {
	logger := logging.New(config.Get("LOG_LEVEL", "info"), config.Get("LOG_FORMAT", "text"))

	if err := godotenv.Load(); err != nil {
		logger.Info("no .env file found (using environment variables)")
	}

	databaseURL := os.Getenv("DATABASE_URL")
	if strings.TrimSpace(databaseURL) == "" {
		logger.Error("DATABASE_URL is required")
		os.Exit(1)
	}

	ctx := context.Background()

	conn, err := db.Open(ctx, "pgx", databaseURL)
	if err != nil {
		logger.Error("open database failed", "err", err)
		os.Exit(1)
	}
	defer conn.Close()

	seedPath := config.Get("SEED_PATH", "data/seeds/places.json")
	if err := initAndSeed(ctx, conn, seedPath, logger); err != nil {
		logger.Error("dbtool failed", "err", err)
		conn.Close()
		os.Exit(1)
	}
}

func initAndSeed(ctx context.Context, conn *sql.DB, seedPath string, logger *slog.Logger) error {
	logger.Info("initializing database schema")
	if err := repositories.InitSchema(ctx, conn, repositories.DialectPostgres); err != nil {
		return err
	}
	logger.Info("schema ready")

	logger.Info("seeding geocode cache", "path", seedPath)
	n, err := repositories.SeedGeocodeCache(ctx, cache.NewSQLGeocodeCache(conn, logger), seedPath)
	if err != nil {
		return err
	}
	logger.Info("seeding complete", "places", n)

	return nil
}
