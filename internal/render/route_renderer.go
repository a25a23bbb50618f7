package render

import (
	"nav-assistant-service/internal/domain"
	"nav-assistant-service/internal/ports"
)

// DefaultRouteStyle is the polyline style for the active route.
var DefaultRouteStyle = ports.PolylineStyle{Color: "blue", Weight: 5}

// RouteRenderer keeps at most one route polyline on the map. It is not safe
// for concurrent use; the owning controller serializes calls.
type RouteRenderer struct {
	display ports.MapDisplay
	style   ports.PolylineStyle
	current ports.LayerHandle
}

func NewRouteRenderer(display ports.MapDisplay, style ports.PolylineStyle) *RouteRenderer {
	if style == (ports.PolylineStyle{}) {
		style = DefaultRouteStyle
	}
	return &RouteRenderer{display: display, style: style}
}

// Draw replaces the displayed route with path and fits the viewport to it.
func (r *RouteRenderer) Draw(path []domain.Coordinate) {
	r.Clear()
	if len(path) == 0 {
		return
	}

	r.current = r.display.DrawPolyline(path, r.style)
	r.display.FitBounds(r.current)
}

// Clear removes the displayed route, if any.
func (r *RouteRenderer) Clear() {
	if r.current == "" {
		return
	}
	r.display.RemoveLayer(r.current)
	r.current = ""
}

func (r *RouteRenderer) Current() ports.LayerHandle {
	return r.current
}
