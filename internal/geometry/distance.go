package geometry

import (
	"math"
	"nav-assistant-service/internal/domain"

	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
)

const earthRadiusMeters = 6371000.0

func toPoint(c domain.Coordinate) s2.Point {
	return s2.PointFromLatLng(s2.LatLngFromDegrees(c.Lat, c.Lng))
}

func angleToMeters(a s1.Angle) float64 {
	return a.Radians() * earthRadiusMeters
}

// DistanceMeters returns the great-circle distance between two coordinates.
func DistanceMeters(a, b domain.Coordinate) float64 {
	angle := s2.ChordAngleBetweenPoints(toPoint(a), toPoint(b)).Angle()
	return angleToMeters(angle)
}

// DistanceToPolyline returns the shortest geodesic distance in meters from p
// to any segment of path. The nearest point may lie inside a segment, not
// only on a vertex.
//
// An empty path yields +Inf; a single-point path yields the distance to that point.
func DistanceToPolyline(path []domain.Coordinate, p domain.Coordinate) float64 {
	switch len(path) {
	case 0:
		return math.Inf(1)
	case 1:
		return DistanceMeters(path[0], p)
	}

	line := make(s2.Polyline, 0, len(path))
	for _, c := range path {
		line = append(line, toPoint(c))
	}

	target := toPoint(p)
	closest, _ := line.Project(target)

	return angleToMeters(target.Distance(closest))
}

// Meter adapts DistanceToPolyline to the controller's deviation port.
type Meter struct{}

func (Meter) DistanceToRoute(path []domain.Coordinate, p domain.Coordinate) float64 {
	return DistanceToPolyline(path, p)
}
