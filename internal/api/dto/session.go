package dto

import (
	"nav-assistant-service/internal/adapters/mapview"
	"nav-assistant-service/internal/adapters/voice"
	"nav-assistant-service/internal/domain"
	"time"

	"github.com/paulmach/orb/geojson"
)

type CreateSessionRequest struct {
	Destination *domain.Coordinate `json:"destination"`
}

type DestinationRequest struct {
	Address string `json:"address"`
}

type PositionRequest struct {
	Lat *float64 `json:"lat"`
	Lng *float64 `json:"lng"`
}

type LocationErrorRequest struct {
	Message string `json:"message"`
}

type RecalculateRequest struct {
	Origin *domain.Coordinate `json:"origin"`
}

type StatusResponse struct {
	Kind string `json:"kind"`
	Text string `json:"text"`
}

type InstructionResponse struct {
	Location domain.Coordinate `json:"location"`
	Text     string            `json:"text"`
}

type RouteSummaryResponse struct {
	DistanceMeters  float64   `json:"distance_meters"`
	DurationSeconds float64   `json:"duration_seconds"`
	ComputedAt      time.Time `json:"computed_at"`
}

type SessionResponse struct {
	ID            string                     `json:"id"`
	State         string                     `json:"state"`
	Status        StatusResponse             `json:"status"`
	Destination   *domain.Coordinate         `json:"destination"`
	Position      *domain.Coordinate         `json:"position"`
	Rerouting     bool                       `json:"rerouting"`
	Searching     bool                       `json:"searching"`
	Route         *geojson.FeatureCollection `json:"route"`
	Summary       *RouteSummaryResponse      `json:"summary"`
	Instructions  []InstructionResponse      `json:"instructions"`
	Announcements []voice.Announcement       `json:"announcements"`
	MapCommands   []mapview.Command          `json:"map_commands"`
	Error         string                     `json:"error,omitempty"`
}
