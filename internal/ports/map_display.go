package ports

import "nav-assistant-service/internal/domain"

// LayerHandle identifies a layer (polyline or marker) on the map display.
type LayerHandle string

type PolylineStyle struct {
	Color  string `json:"color"`
	Weight int    `json:"weight"`
}

type WatchOptions struct {
	HighAccuracy bool `json:"high_accuracy"`
	MaxZoom      int  `json:"max_zoom"`
}

// MapDisplay is the map widget the navigation session drives.
// Location fixes and errors flow back as controller events.
type MapDisplay interface {
	SetView(center domain.Coordinate, zoom int)
	DrawPolyline(points []domain.Coordinate, style PolylineStyle) LayerHandle
	RemoveLayer(h LayerHandle)
	FitBounds(h LayerHandle)
	PlaceMarker(p domain.Coordinate) LayerHandle
	MoveMarker(h LayerHandle, p domain.Coordinate)
	WatchPosition(opts WatchOptions)
}
