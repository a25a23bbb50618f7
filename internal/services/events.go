package services

import "nav-assistant-service/internal/domain"

// Event is an input to NavigationController.Dispatch.
type Event interface {
	eventName() string
}

// DestinationEntered carries free text typed by the user.
type DestinationEntered struct {
	Address string
}

// DestinationSet sets a known coordinate as destination, skipping geocoding.
type DestinationSet struct {
	Destination domain.Coordinate
}

// PositionUpdated is a location fix from the device.
type PositionUpdated struct {
	Position domain.Coordinate
}

// LocationFailed reports that the device could not determine its position.
type LocationFailed struct {
	Message string
}

// RecalculateRequested asks for a new route. A nil Origin uses the last
// known position.
type RecalculateRequested struct {
	Origin *domain.Coordinate
}

// Completions of external calls, fed back through Dispatch's loop.
type destinationResolved struct {
	seq     uint64
	address string
	coord   domain.Coordinate
	err     error
}

type routeResolved struct {
	seq     uint64
	gen     uint64
	trigger string
	result  domain.RouteResult
	err     error
}

func (DestinationEntered) eventName() string   { return "destination_entered" }
func (DestinationSet) eventName() string       { return "destination_set" }
func (PositionUpdated) eventName() string      { return "position_updated" }
func (LocationFailed) eventName() string       { return "location_failed" }
func (RecalculateRequested) eventName() string { return "recalculate_requested" }
func (destinationResolved) eventName() string  { return "destination_resolved" }
func (routeResolved) eventName() string        { return "route_resolved" }
