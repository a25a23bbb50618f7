package domain

// NavigationState is the externally visible phase of a navigation session.
type NavigationState string

const (
	StateAwaitingDestination NavigationState = "awaiting_destination"
	StateAwaitingFirstFix    NavigationState = "awaiting_first_fix"
	StateOnRoute             NavigationState = "on_route"
	StateRecalculating       NavigationState = "recalculating"
	// Destination and position are known but no route could be obtained yet.
	StateNoRoute NavigationState = "no_route"
)
