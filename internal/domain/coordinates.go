package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Geographic coordinate in decimal degrees, (lat, lng) order.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Validate reports whether the coordinate lies within lat [-90,90] and lng [-180,180].
func (c Coordinate) Validate() error {
	if math.IsNaN(c.Lat) || math.IsNaN(c.Lng) {
		return fmt.Errorf("invalid coordinate: NaN component (%v, %v)", c.Lat, c.Lng)
	}
	if c.Lat < -90 || c.Lat > 90 {
		return fmt.Errorf("invalid coordinate: latitude %v out of range [-90,90]", c.Lat)
	}
	if c.Lng < -180 || c.Lng > 180 {
		return fmt.Errorf("invalid coordinate: longitude %v out of range [-180,180]", c.Lng)
	}
	return nil
}

// Return coordinates as [lng, lat] for external API compatibility.
func (c Coordinate) LonLat() []float64 { return []float64{c.Lng, c.Lat} }

func (c Coordinate) String() string {
	return strconv.FormatFloat(c.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(c.Lng, 'f', -1, 64)
}

// FromLonLat converts a wire [lng, lat] pair into a Coordinate.
// The pair must have exactly two components and be within range.
func FromLonLat(pair []float64) (Coordinate, error) {
	if len(pair) != 2 {
		return Coordinate{}, fmt.Errorf("from lon/lat: expected 2 components, got %d", len(pair))
	}

	c := Coordinate{Lat: pair[1], Lng: pair[0]}
	if err := c.Validate(); err != nil {
		return Coordinate{}, fmt.Errorf("from lon/lat: %w", err)
	}
	return c, nil
}

// ParseCoordinate parses a "lat,lng" string.
func ParseCoordinate(s string) (Coordinate, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return Coordinate{}, fmt.Errorf("parse coordinate %q: invalid lat,lng format", s)
	}

	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return Coordinate{}, fmt.Errorf("parse coordinate %q: invalid latitude: %w", s, err)
	}

	lng, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return Coordinate{}, fmt.Errorf("parse coordinate %q: invalid longitude: %w", s, err)
	}

	c := Coordinate{Lat: lat, Lng: lng}
	if err := c.Validate(); err != nil {
		return Coordinate{}, fmt.Errorf("parse coordinate %q: %w", s, err)
	}
	return c, nil
}

// NormalizeAddress builds the cache key for an address: whitespace
// collapsed, lowercased.
func NormalizeAddress(address string) string {
	return strings.ToLower(strings.Join(strings.Fields(address), " "))
}
