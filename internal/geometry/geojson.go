package geometry

import (
	"nav-assistant-service/internal/domain"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

func toOrb(c domain.Coordinate) orb.Point {
	return orb.Point{c.Lng, c.Lat}
}

func LineString(path []domain.Coordinate) orb.LineString {
	ls := make(orb.LineString, 0, len(path))
	for _, c := range path {
		ls = append(ls, toOrb(c))
	}
	return ls
}

// Bounds returns the south-west and north-east corners enclosing path.
// ok is false for an empty path.
func Bounds(path []domain.Coordinate) (sw, ne domain.Coordinate, ok bool) {
	if len(path) == 0 {
		return domain.Coordinate{}, domain.Coordinate{}, false
	}

	b := LineString(path).Bound()
	sw = domain.Coordinate{Lat: b.Min.Lat(), Lng: b.Min.Lon()}
	ne = domain.Coordinate{Lat: b.Max.Lat(), Lng: b.Max.Lon()}
	return sw, ne, true
}

// RouteFeatureCollection renders an active route as GeoJSON: one LineString
// feature for the path followed by one Point feature per instruction step.
func RouteFeatureCollection(r *domain.ActiveRoute) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	if r == nil {
		return fc
	}

	line := geojson.NewFeature(LineString(r.Path))
	line.Properties["kind"] = "route"
	line.Properties["distance_meters"] = r.DistanceMeters
	line.Properties["duration_seconds"] = r.DurationSeconds
	fc.Append(line)

	for i, s := range r.Steps {
		f := geojson.NewFeature(toOrb(s.Location))
		f.Properties["kind"] = "step"
		f.Properties["index"] = i
		f.Properties["instruction"] = s.Text
		fc.Append(f)
	}

	return fc
}
