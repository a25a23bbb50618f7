package geocoding

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"nav-assistant-service/internal/domain"
	"nav-assistant-service/internal/platform/httpclient"
	"nav-assistant-service/internal/platform/obs"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

type nominatimResult struct {
	DisplayName string `json:"display_name"`
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
}

// NominatimGeocoder resolves addresses with an OpenStreetMap Nominatim
// /search endpoint. One request per call, first match wins.
type NominatimGeocoder struct {
	client  *httpclient.Client
	baseURL string
	logger  *slog.Logger
	metrics *obs.Metrics
}

func NewNominatimGeocoder(
	client *httpclient.Client,
	baseURL string,
	logger *slog.Logger,
	metrics *obs.Metrics,
) (*NominatimGeocoder, error) {
	if client == nil {
		return nil, errors.New("nominatim geocoder: http client is nil")
	}
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New("nominatim geocoder: base url is empty")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &NominatimGeocoder{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
		metrics: metrics,
	}, nil
}

func (g *NominatimGeocoder) Resolve(ctx context.Context, address string) (_ domain.Coordinate, err error) {
	defer obs.Time(ctx, g.logger, "nominatim.Resolve")(&err)

	params := url.Values{
		"q":      {address},
		"format": {"json"},
		"limit":  {"1"},
	}
	endpoint := g.baseURL + "/search?" + params.Encode()

	start := time.Now()
	status, body, err := g.client.Get(ctx, "nominatim.search", endpoint)
	g.metrics.ObserveExternal("nominatim", time.Since(start))
	if err != nil {
		return domain.Coordinate{}, &domain.LookupError{Address: address, Err: err}
	}

	if status != http.StatusOK {
		return domain.Coordinate{}, &domain.LookupError{
			Address: address,
			Err:     fmt.Errorf("unexpected status: %d", status),
		}
	}

	var results []nominatimResult
	if err := json.Unmarshal(body, &results); err != nil {
		return domain.Coordinate{}, &domain.LookupError{
			Address: address,
			Err:     fmt.Errorf("decode search response: %w", err),
		}
	}

	if len(results) == 0 {
		return domain.Coordinate{}, fmt.Errorf("resolve %q: %w", address, domain.ErrNotFound)
	}

	c, err := parseResult(results[0])
	if err != nil {
		return domain.Coordinate{}, &domain.LookupError{Address: address, Err: err}
	}

	return c, nil
}

// parseResult converts Nominatim's string-encoded lat/lon into a Coordinate.
func parseResult(r nominatimResult) (domain.Coordinate, error) {
	lat, err := strconv.ParseFloat(strings.TrimSpace(r.Lat), 64)
	if err != nil {
		return domain.Coordinate{}, fmt.Errorf("parse latitude %q: %w", r.Lat, err)
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(r.Lon), 64)
	if err != nil {
		return domain.Coordinate{}, fmt.Errorf("parse longitude %q: %w", r.Lon, err)
	}

	c := domain.Coordinate{Lat: lat, Lng: lng}
	if err := c.Validate(); err != nil {
		return domain.Coordinate{}, err
	}
	return c, nil
}
