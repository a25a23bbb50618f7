package mapview

import (
	"nav-assistant-service/internal/domain"
	"nav-assistant-service/internal/geometry"
	"nav-assistant-service/internal/ports"
	"sync"

	"github.com/google/uuid"
)

// Command is one map-widget operation for the client to replay, in order.
type Command struct {
	Op     string               `json:"op"`
	Handle ports.LayerHandle    `json:"handle,omitempty"`
	Points []domain.Coordinate  `json:"points,omitempty"`
	Center *domain.Coordinate   `json:"center,omitempty"`
	Zoom   int                  `json:"zoom,omitempty"`
	Style  *ports.PolylineStyle `json:"style,omitempty"`
	Watch  *ports.WatchOptions  `json:"watch,omitempty"`
}

const (
	OpSetView       = "set_view"
	OpDrawPolyline  = "draw_polyline"
	OpRemoveLayer   = "remove_layer"
	OpFitBounds     = "fit_bounds"
	OpPlaceMarker   = "place_marker"
	OpMoveMarker    = "move_marker"
	OpWatchPosition = "watch_position"
)

// CommandBuffer implements ports.MapDisplay by recording commands for a
// remote map widget. It tracks polyline geometry so FitBounds can ship the
// bounding box instead of a handle the client may not resolve.
//
// The buffer holds at most limit undrained commands. When full, the oldest
// command that does not create a layer is evicted first, so later commands
// never refer to a handle the client has not seen. Layer-creating commands
// (draw_polyline, place_marker, watch_position) are evicted only when nothing
// else is left.
type CommandBuffer struct {
	mu    sync.Mutex
	cmds  []Command
	lines map[ports.LayerHandle][]domain.Coordinate
	limit int
	newID func() string
}

func NewCommandBuffer(limit int) *CommandBuffer {
	if limit <= 0 {
		limit = 256
	}
	return &CommandBuffer{
		lines: map[ports.LayerHandle][]domain.Coordinate{},
		limit: limit,
		newID: func() string { return uuid.NewString() },
	}
}

func createsLayer(op string) bool {
	switch op {
	case OpDrawPolyline, OpPlaceMarker, OpWatchPosition:
		return true
	}
	return false
}

func (b *CommandBuffer) push(c Command) {
	if len(b.cmds) >= b.limit {
		victim := 0
		for i, cmd := range b.cmds {
			if !createsLayer(cmd.Op) {
				victim = i
				break
			}
		}
		b.cmds = append(b.cmds[:victim], b.cmds[victim+1:]...)
	}
	b.cmds = append(b.cmds, c)
}

func (b *CommandBuffer) SetView(center domain.Coordinate, zoom int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.push(Command{Op: OpSetView, Center: &center, Zoom: zoom})
}

func (b *CommandBuffer) DrawPolyline(points []domain.Coordinate, style ports.PolylineStyle) ports.LayerHandle {
	b.mu.Lock()
	defer b.mu.Unlock()

	h := ports.LayerHandle("line-" + b.newID())
	pts := append([]domain.Coordinate(nil), points...)
	b.lines[h] = pts
	b.push(Command{Op: OpDrawPolyline, Handle: h, Points: pts, Style: &style})
	return h
}

func (b *CommandBuffer) RemoveLayer(h ports.LayerHandle) {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.lines, h)
	b.push(Command{Op: OpRemoveLayer, Handle: h})
}

// FitBounds records the south-west and north-east corners of the layer.
func (b *CommandBuffer) FitBounds(h ports.LayerHandle) {
	b.mu.Lock()
	defer b.mu.Unlock()

	sw, ne, ok := geometry.Bounds(b.lines[h])
	if !ok {
		return
	}
	b.push(Command{Op: OpFitBounds, Handle: h, Points: []domain.Coordinate{sw, ne}})
}

func (b *CommandBuffer) PlaceMarker(p domain.Coordinate) ports.LayerHandle {
	b.mu.Lock()
	defer b.mu.Unlock()

	h := ports.LayerHandle("marker-" + b.newID())
	b.push(Command{Op: OpPlaceMarker, Handle: h, Points: []domain.Coordinate{p}})
	return h
}

func (b *CommandBuffer) MoveMarker(h ports.LayerHandle, p domain.Coordinate) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.push(Command{Op: OpMoveMarker, Handle: h, Points: []domain.Coordinate{p}})
}

func (b *CommandBuffer) WatchPosition(opts ports.WatchOptions) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.push(Command{Op: OpWatchPosition, Watch: &opts})
}

// Drain returns and clears the pending commands.
func (b *CommandBuffer) Drain() []Command {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := b.cmds
	b.cmds = nil
	if out == nil {
		out = []Command{}
	}
	return out
}
