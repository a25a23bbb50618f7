package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"nav-assistant-service/internal/adapters/geocoding"
	"nav-assistant-service/internal/adapters/mapview"
	"nav-assistant-service/internal/adapters/routing"
	"nav-assistant-service/internal/adapters/voice"
	"nav-assistant-service/internal/config"
	"nav-assistant-service/internal/domain"
	"nav-assistant-service/internal/platform/httpclient"
	"nav-assistant-service/internal/platform/logging"
	"nav-assistant-service/internal/ports"
	"nav-assistant-service/internal/services"
	"os"
	"strings"
	"time"
)

// TrackPoint is one recorded device event: a fix, or a location error when
// Error is set.
type TrackPoint struct {
	Lat   float64 `json:"lat"`
	Lng   float64 `json:"lng"`
	Error string  `json:"error,omitempty"`
}

// navsim replays a recorded track through a navigation controller against
// the configured geocoding and routing services.
func main() {
	var (
		trackPath = flag.String("track", "", "JSON file with an array of {lat,lng} or {error} entries")
		address   = flag.String("address", "", "destination address to look up before replaying")
		dest      = flag.String("destination", "", `fixed destination as "lat,lng" (overrides NAV_DESTINATION)`)
		interval  = flag.Duration("interval", 0, "delay between track points")
		speak     = flag.Bool("speak", false, "speak announcements with espeak-ng")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config failed", "err", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.LogLevel, cfg.LogFormat)

	if err := run(context.Background(), cfg, logger, *trackPath, *address, *dest, *interval, *speak); err != nil {
		logger.Error("simulation failed", "err", err)
		os.Exit(1)
	}
}

func run(
	ctx context.Context,
	cfg config.Config,
	logger *slog.Logger,
	trackPath, address, dest string,
	interval time.Duration,
	speak bool,
) error {
	if trackPath == "" {
		return errors.New("-track is required")
	}
	track, err := loadTrack(trackPath)
	if err != nil {
		return err
	}

	client := httpclient.New(max(cfg.GeocodeTimeout, cfg.RouteTimeout), cfg.UserAgent)

	geocoder, err := geocoding.NewNominatimGeocoder(client, cfg.NominatimURL, logger, nil)
	if err != nil {
		return err
	}
	router, err := routing.NewOSRMRouteProvider(
		client, cfg.OSRMURL, cfg.OSRMProfile, routing.PhrasebookFor(cfg.Locale), logger, nil,
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
	if dest != "" {
		d, err := domain.ParseCoordinate(dest)
		if err != nil {
			return fmt.Errorf("-destination: %w", err)
		}
		opts.FixedDestination = &d
	}

	ctrl, err := services.NewNavigationController(services.Deps{
		Geocoder:  geocoder,
		Router:    router,
		Announcer: announcer(cfg, logger, speak),
		Display:   &mapview.LogDisplay{Logger: logger},
		Logger:    logger,
	}, opts)
	if err != nil {
		return err
	}
	ctrl.Start()

	if address != "" {
		if err := ctrl.Dispatch(ctx, services.DestinationEntered{Address: address}); err != nil {
			logger.Warn("destination lookup failed", "address", address, "err", err)
		}
	}

	for i, p := range track {
		var ev services.Event = services.PositionUpdated{Position: domain.Coordinate{Lat: p.Lat, Lng: p.Lng}}
		if p.Error != "" {
			ev = services.LocationFailed{Message: p.Error}
		}

		if err := ctrl.Dispatch(ctx, ev); err != nil {
			logger.Warn("event not applied", "index", i, "err", err)
		}

		snap := ctrl.Snapshot()
		logger.Info("state",
			"index", i,
			"state", snap.State,
			"status", snap.Status.Text,
			"rerouting", snap.Rerouting,
		)

		if interval > 0 {
			time.Sleep(interval)
		}
	}

	return nil
}

func announcer(cfg config.Config, logger *slog.Logger, speak bool) ports.Announcer {
	if speak {
		lang, _, _ := strings.Cut(cfg.SpeechLang, "-")
		s, err := voice.NewEspeakSpeaker(strings.ToLower(lang), logger)
		if err == nil {
			return s
		}
		logger.Warn("speech unavailable, logging announcements", "err", err)
	}
	return voice.LogAnnouncer{Logger: logger, Lang: cfg.SpeechLang}
}

func loadTrack(path string) ([]TrackPoint, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load track: read %q: %w", path, err)
	}

	var track []TrackPoint
	if err := json.Unmarshal(b, &track); err != nil {
		return nil, fmt.Errorf("load track: parse json: %w", err)
	}
	if len(track) == 0 {
		return nil, errors.New("load track: track is empty")
	}
	return track, nil
}
