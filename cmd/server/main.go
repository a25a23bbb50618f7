package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"nav-assistant-service/internal/adapters/cache"
	"nav-assistant-service/internal/adapters/geocoding"
	"nav-assistant-service/internal/adapters/repositories"
	"nav-assistant-service/internal/adapters/routing"
	"nav-assistant-service/internal/api"
	"nav-assistant-service/internal/api/sessions"
	"nav-assistant-service/internal/config"
	"nav-assistant-service/internal/platform/db"
	"nav-assistant-service/internal/platform/httpclient"
	"nav-assistant-service/internal/platform/logging"
	"nav-assistant-service/internal/platform/obs"
	"nav-assistant-service/internal/ports"
	"nav-assistant-service/internal/services"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// main is the application composition root.
// It wires concrete adapters (Nominatim/Google, OSRM, geocode cache) behind
// ports and starts the HTTP server.
func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config failed", "err", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	metrics, err := obs.NewMetrics(nil)
	if err != nil {
		return err
	}

	client := httpclient.New(max(cfg.GeocodeTimeout, cfg.RouteTimeout), cfg.UserAgent)

	geocoder, closeCache, err := buildGeocoder(ctx, cfg, client, logger, metrics)
	if err != nil {
		return err
	}
	defer closeCache()

	router, err := routing.NewOSRMRouteProvider(
		client, cfg.OSRMURL, cfg.OSRMProfile, routing.PhrasebookFor(cfg.Locale), logger, metrics,
	)
	if err != nil {
		return err
	}

	opts := services.DefaultOptions()
	opts.ThresholdMeters = cfg.DeviationThresholdMeters
	opts.FollowZoom = cfg.FollowZoom
	opts.GeocodeTimeout = cfg.GeocodeTimeout
	opts.RouteTimeout = cfg.RouteTimeout
	opts.Messages = services.MessagesFor(cfg.Locale)
	opts.FixedDestination = cfg.FixedDestination

	registry := sessions.NewRegistry(sessions.Config{
		Deps: services.Deps{
			Geocoder: geocoder,
			Router:   router,
			Logger:   logger,
			Metrics:  metrics,
		},
		Options:     opts,
		SpeechLang:  cfg.SpeechLang,
		IdleTimeout: cfg.SessionIdleTimeout,
	})
	go registry.Run(ctx, time.Minute)

	// A destination entry may wait on a lookup and then a route request.
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           api.NewRouter(registry, metrics, logger),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.GeocodeTimeout + cfg.RouteTimeout + 10*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", srv.Addr, "geocoder", cfg.Geocoder, "cache", cfg.GeocodeCache)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// buildGeocoder returns the configured geocoder, wrapped in the geocode
// cache when one is enabled. The returned func releases cache resources.
func buildGeocoder(
	ctx context.Context,
	cfg config.Config,
	client *httpclient.Client,
	logger *slog.Logger,
	metrics *obs.Metrics,
) (ports.Geocoder, func(), error) {
	noop := func() {}

	var upstream ports.Geocoder
	switch cfg.Geocoder {
	case "google":
		lang, _, _ := strings.Cut(cfg.Locale, "-")
		g, err := geocoding.NewGoogleGeocoder(cfg.GoogleMapsAPIKey, lang, logger, metrics)
		if err != nil {
			return nil, noop, err
		}
		upstream = g
	default:
		g, err := geocoding.NewNominatimGeocoder(client, cfg.NominatimURL, logger, metrics)
		if err != nil {
			return nil, noop, err
		}
		upstream = g
	}

	gc, closeCache, err := openGeocodeCache(ctx, cfg, logger)
	if err != nil {
		return nil, noop, err
	}
	if gc == nil {
		return upstream, noop, nil
	}

	// Seed the cache with known places for local runs.
	if cfg.SeedPath != "" {
		n, err := repositories.SeedGeocodeCache(ctx, gc, cfg.SeedPath)
		if err != nil {
			closeCache()
			return nil, noop, err
		}
		logger.Info("geocode cache seeded", "places", n, "path", cfg.SeedPath)
	}

	cached, err := geocoding.NewCachingGeocoder(upstream, gc, logger, metrics)
	if err != nil {
		closeCache()
		return nil, noop, err
	}
	return cached, closeCache, nil
}

func openGeocodeCache(ctx context.Context, cfg config.Config, logger *slog.Logger) (ports.GeocodeCache, func(), error) {
	switch cfg.GeocodeCache {
	case "sqlite":
		if dir := filepath.Dir(cfg.DBPath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, nil, fmt.Errorf("open geocode cache: create %q: %w", dir, err)
			}
		}
		conn, err := db.Open(ctx, "sqlite", cfg.DBPath)
		if err != nil {
			return nil, nil, err
		}
		if err := repositories.InitSchema(ctx, conn, repositories.DialectSqlite); err != nil {
			conn.Close()
			return nil, nil, err
		}
		return cache.NewSqliteGeocodeCache(conn), func() { conn.Close() }, nil

	case "postgres":
		conn, err := db.Open(ctx, "pgx", cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		if err := repositories.InitSchema(ctx, conn, repositories.DialectPostgres); err != nil {
			conn.Close()
			return nil, nil, err
		}
		return cache.NewSQLGeocodeCache(conn, logger), func() { conn.Close() }, nil

	case "redis":
		client, err := cache.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		return cache.NewRedisGeocodeCache(client, cfg.GeocodeCacheTTL, logger), func() { client.Close() }, nil

	default:
		return nil, func() {}, nil
	}
}
