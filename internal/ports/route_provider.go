package ports

import (
	"context"
	"nav-assistant-service/internal/domain"
)

// RouteProvider computes a driving route between two coordinates.
//
// A non-success service response is a *domain.RoutingError; a network failure
// is a *domain.TransportError. No retries are made.
type RouteProvider interface {
	Route(ctx context.Context, origin, destination domain.Coordinate) (domain.RouteResult, error)
}

// DeviationMeter measures how far a point lies from a route polyline, in meters.
type DeviationMeter interface {
	DistanceToRoute(path []domain.Coordinate, p domain.Coordinate) float64
}
