package domain

import "time"

// A single turn-by-turn guidance unit tied to a location along the route.
type InstructionStep struct {
	Location Coordinate
	Text     string
}

// RouteResult is what a routing service returns for one origin/destination pair.
// Path is ordered in travel direction and holds at least two points.
type RouteResult struct {
	Path            []Coordinate
	Steps           []InstructionStep
	DistanceMeters  float64
	DurationSeconds float64
}

// ActiveRoute is the route a navigation session is currently following.
// It is replaced wholesale on every recalculation and never mutated in place,
// so Path and Steps always belong to the same routing response.
type ActiveRoute struct {
	Destination     Coordinate
	Path            []Coordinate
	Steps           []InstructionStep
	DistanceMeters  float64
	DurationSeconds float64
	ComputedAt      time.Time
}

// NewActiveRoute copies the result so later callers cannot alias its slices.
func NewActiveRoute(destination Coordinate, r RouteResult, at time.Time) *ActiveRoute {
	return &ActiveRoute{
		Destination:     destination,
		Path:            append([]Coordinate(nil), r.Path...),
		Steps:           append([]InstructionStep(nil), r.Steps...),
		DistanceMeters:  r.DistanceMeters,
		DurationSeconds: r.DurationSeconds,
		ComputedAt:      at,
	}
}
