package geocoding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"nav-assistant-service/internal/domain"
	"nav-assistant-service/internal/platform/obs"
	"strings"
	"time"

	"googlemaps.github.io/maps"
)

// GoogleGeocoder resolves addresses with the Google Maps Geocoding API.
type GoogleGeocoder struct {
	client   *maps.Client
	language string
	logger   *slog.Logger
	metrics  *obs.Metrics
}

// NewGoogleGeocoder builds a geocoder. Extra client options (e.g. a base URL
// for tests) are appended after the API key.
func NewGoogleGeocoder(
	apiKey string,
	language string,
	logger *slog.Logger,
	metrics *obs.Metrics,
	opts ...maps.ClientOption,
) (*GoogleGeocoder, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("google geocoder: api key is empty")
	}

	client, err := maps.NewClient(append([]maps.ClientOption{maps.WithAPIKey(apiKey)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("google geocoder: create maps client: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &GoogleGeocoder{client: client, language: language, logger: logger, metrics: metrics}, nil
}

func (g *GoogleGeocoder) Resolve(ctx context.Context, address string) (_ domain.Coordinate, err error) {
	defer obs.Time(ctx, g.logger, "google.Resolve")(&err)

	start := time.Now()
	results, err := g.client.Geocode(ctx, &maps.GeocodingRequest{
		Address:  address,
		Language: g.language,
	})
	g.metrics.ObserveExternal("google_geocode", time.Since(start))

	// The client reports ZERO_RESULTS as success with no results.
	if err != nil {
		return domain.Coordinate{}, &domain.LookupError{Address: address, Err: err}
	}

	if len(results) == 0 {
		return domain.Coordinate{}, fmt.Errorf("resolve %q: %w", address, domain.ErrNotFound)
	}

	loc := results[0].Geometry.Location
	c := domain.Coordinate{Lat: loc.Lat, Lng: loc.Lng}
	if err := c.Validate(); err != nil {
		return domain.Coordinate{}, &domain.LookupError{Address: address, Err: err}
	}

	return c, nil
}
