package mapview

import (
	"fmt"
	"log/slog"
	"nav-assistant-service/internal/domain"
	"nav-assistant-service/internal/ports"
	"sync/atomic"
)

// LogDisplay logs map operations; used by the simulator.
type LogDisplay struct {
	Logger *slog.Logger
	seq    atomic.Int64
}

func (d *LogDisplay) logger() *slog.Logger {
	if d.Logger == nil {
		return slog.Default()
	}
	return d.Logger
}

func (d *LogDisplay) handle(kind string) ports.LayerHandle {
	return ports.LayerHandle(fmt.Sprintf("%s-%d", kind, d.seq.Add(1)))
}

func (d *LogDisplay) SetView(center domain.Coordinate, zoom int) {
	d.logger().Debug("map set view", "center", center.String(), "zoom", zoom)
}

func (d *LogDisplay) DrawPolyline(points []domain.Coordinate, style ports.PolylineStyle) ports.LayerHandle {
	h := d.handle("line")
	d.logger().Info("map draw polyline", "handle", h, "points", len(points), "color", style.Color)
	return h
}

func (d *LogDisplay) RemoveLayer(h ports.LayerHandle) {
	d.logger().Info("map remove layer", "handle", h)
}

func (d *LogDisplay) FitBounds(h ports.LayerHandle) {
	d.logger().Debug("map fit bounds", "handle", h)
}

func (d *LogDisplay) PlaceMarker(p domain.Coordinate) ports.LayerHandle {
	h := d.handle("marker")
	d.logger().Info("map place marker", "handle", h, "at", p.String())
	return h
}

func (d *LogDisplay) MoveMarker(h ports.LayerHandle, p domain.Coordinate) {
	d.logger().Debug("map move marker", "handle", h, "at", p.String())
}

func (d *LogDisplay) WatchPosition(opts ports.WatchOptions) {
	d.logger().Info("map watch position", "high_accuracy", opts.HighAccuracy, "max_zoom", opts.MaxZoom)
}
