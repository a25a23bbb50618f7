package routing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"nav-assistant-service/internal/domain"
	"nav-assistant-service/internal/platform/httpclient"
	"nav-assistant-service/internal/platform/obs"
	"strconv"
	"strings"
	"time"
)

type osrmResponse struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Routes  []osrmRoute `json:"routes"`
}

type osrmRoute struct {
	Distance float64 `json:"distance"`
	Duration float64 `json:"duration"`
	Geometry struct {
		Coordinates [][]float64 `json:"coordinates"`
	} `json:"geometry"`
	Legs []struct {
		Steps []osrmStep `json:"steps"`
	} `json:"legs"`
}

type osrmStep struct {
	Name     string `json:"name"`
	Maneuver struct {
		Location    []float64 `json:"location"`
		Type        string    `json:"type"`
		Modifier    string    `json:"modifier"`
		Instruction string    `json:"instruction"`
	} `json:"maneuver"`
}

// OSRMRouteProvider requests driving routes from an OSRM /route/v1 endpoint
// with steps enabled, no alternatives and GeoJSON geometry.
type OSRMRouteProvider struct {
	client     *httpclient.Client
	baseURL    string
	profile    string
	phrasebook Phrasebook
	logger     *slog.Logger
	metrics    *obs.Metrics
}

func NewOSRMRouteProvider(
	client *httpclient.Client,
	baseURL string,
	profile string,
	phrasebook Phrasebook,
	logger *slog.Logger,
	metrics *obs.Metrics,
) (*OSRMRouteProvider, error) {
	if client == nil {
		return nil, errors.New("osrm route provider: http client is nil")
	}
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New("osrm route provider: base url is empty")
	}
	if profile == "" {
		profile = "driving"
	}
	if phrasebook == nil {
		phrasebook = PhrasebookFor("")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &OSRMRouteProvider{
		client:     client,
		baseURL:    strings.TrimRight(baseURL, "/"),
		profile:    profile,
		phrasebook: phrasebook,
		logger:     logger,
		metrics:    metrics,
	}, nil
}

// RouteURL builds the request URL. Coordinates go on the wire as lng,lat.
func (p *OSRMRouteProvider) RouteURL(origin, destination domain.Coordinate) string {
	return fmt.Sprintf(
		"%s/route/v1/%s/%s;%s?steps=true&alternatives=false&geometries=geojson",
		p.baseURL, p.profile, lngLat(origin), lngLat(destination),
	)
}

func lngLat(c domain.Coordinate) string {
	pair := c.LonLat()
	return strconv.FormatFloat(pair[0], 'f', -1, 64) + "," + strconv.FormatFloat(pair[1], 'f', -1, 64)
}

func (p *OSRMRouteProvider) Route(
	ctx context.Context,
	origin domain.Coordinate,
	destination domain.Coordinate,
) (_ domain.RouteResult, err error) {
	defer obs.Time(ctx, p.logger, "osrm.Route")(&err)

	if err := origin.Validate(); err != nil {
		return domain.RouteResult{}, fmt.Errorf("osrm route: origin: %w", err)
	}
	if err := destination.Validate(); err != nil {
		return domain.RouteResult{}, fmt.Errorf("osrm route: destination: %w", err)
	}

	start := time.Now()
	status, body, err := p.client.Get(ctx, "osrm.route", p.RouteURL(origin, destination))
	p.metrics.ObserveExternal("osrm", time.Since(start))
	if err != nil {
		return domain.RouteResult{}, err
	}

	// OSRM answers 4xx with a JSON body carrying the failure code.
	var decoded osrmResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		if status < 200 || status > 299 {
			return domain.RouteResult{}, &domain.RoutingError{Code: fmt.Sprintf("HTTP %d", status)}
		}
		return domain.RouteResult{}, &domain.RoutingError{
			Code:    "InvalidResponse",
			Message: fmt.Sprintf("decode route response: %v", err),
		}
	}

	if decoded.Code != "Ok" {
		code := decoded.Code
		if code == "" {
			code = fmt.Sprintf("HTTP %d", status)
		}
		return domain.RouteResult{}, &domain.RoutingError{Code: code, Message: decoded.Message}
	}

	if len(decoded.Routes) == 0 {
		return domain.RouteResult{}, &domain.RoutingError{Code: "NoRoute", Message: "response contained no routes"}
	}

	return p.toRouteResult(decoded.Routes[0])
}

// toRouteResult swaps wire [lng,lat] pairs into domain coordinates and derives
// one instruction step per maneuver.
func (p *OSRMRouteProvider) toRouteResult(r osrmRoute) (domain.RouteResult, error) {
	path := make([]domain.Coordinate, 0, len(r.Geometry.Coordinates))
	for i, pair := range r.Geometry.Coordinates {
		c, err := domain.FromLonLat(pair)
		if err != nil {
			return domain.RouteResult{}, &domain.RoutingError{
				Code:    "InvalidRoute",
				Message: fmt.Sprintf("geometry point %d: %v", i, err),
			}
		}
		path = append(path, c)
	}

	if len(path) < 2 {
		return domain.RouteResult{}, &domain.RoutingError{
			Code:    "InvalidRoute",
			Message: fmt.Sprintf("route geometry has %d points, need at least 2", len(path)),
		}
	}

	var steps []domain.InstructionStep
	if len(r.Legs) > 0 {
		steps = make([]domain.InstructionStep, 0, len(r.Legs[0].Steps))
		for i, s := range r.Legs[0].Steps {
			loc, err := domain.FromLonLat(s.Maneuver.Location)
			if err != nil {
				return domain.RouteResult{}, &domain.RoutingError{
					Code:    "InvalidRoute",
					Message: fmt.Sprintf("step %d maneuver location: %v", i, err),
				}
			}

			text := strings.TrimSpace(s.Maneuver.Instruction)
			if text == "" {
				text = p.phrasebook.Describe(Maneuver{
					Type:     s.Maneuver.Type,
					Modifier: s.Maneuver.Modifier,
					Road:     s.Name,
				})
			}

			steps = append(steps, domain.InstructionStep{Location: loc, Text: text})
		}
	}

	return domain.RouteResult{
		Path:            path,
		Steps:           steps,
		DistanceMeters:  r.Distance,
		DurationSeconds: r.Duration,
	}, nil
}
