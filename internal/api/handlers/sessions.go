package handlers

import (
	"errors"
	"log/slog"
	"nav-assistant-service/internal/api/dto"
	"nav-assistant-service/internal/api/sessions"
	"nav-assistant-service/internal/domain"
	"nav-assistant-service/internal/geometry"
	"nav-assistant-service/internal/platform/obs"
	"nav-assistant-service/internal/services"
	"net/http"
)

// SessionHandler exposes navigation sessions. Event endpoints always answer
// with the session snapshot; a handled navigation error is reported in its
// error field, not as an HTTP failure.
type SessionHandler struct {
	Sessions *sessions.Registry
	Logger   *slog.Logger
}

func (h *SessionHandler) logger() *slog.Logger {
	if h.Logger == nil {
		return slog.Default()
	}
	return h.Logger
}

func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateSessionRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, errEmptyBody) {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	if req.Destination != nil {
		if err := req.Destination.Validate(); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
	}

	s, err := h.Sessions.Create(req.Destination)
	if err != nil {
		h.logger().ErrorContext(r.Context(), "create session failed", "req_id", obs.RequestID(r.Context()), "err", err)
		writeError(w, r, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, r, http.StatusCreated, h.snapshot(s, nil))
}

func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, r, http.StatusOK, h.snapshot(s, nil))
}

func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if !h.Sessions.Delete(r.PathValue("id")) {
		writeError(w, r, http.StatusNotFound, "session not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *SessionHandler) Destination(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req dto.DestinationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	h.dispatch(w, r, s, services.DestinationEntered{Address: req.Address})
}

func (h *SessionHandler) Position(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req dto.PositionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.Lat == nil || req.Lng == nil {
		writeError(w, r, http.StatusBadRequest, "lat and lng are required")
		return
	}

	p := domain.Coordinate{Lat: *req.Lat, Lng: *req.Lng}
	if err := p.Validate(); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	h.dispatch(w, r, s, services.PositionUpdated{Position: p})
}

func (h *SessionHandler) LocationError(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req dto.LocationErrorRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, errEmptyBody) {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	h.dispatch(w, r, s, services.LocationFailed{Message: req.Message})
}

func (h *SessionHandler) Recalculate(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req dto.RecalculateRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, errEmptyBody) {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.Origin != nil {
		if err := req.Origin.Validate(); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
	}

	h.dispatch(w, r, s, services.RecalculateRequested{Origin: req.Origin})
}

func (h *SessionHandler) session(w http.ResponseWriter, r *http.Request) (*sessions.Session, bool) {
	s, err := h.Sessions.Get(r.PathValue("id"))
	if err != nil {
		writeError(w, r, http.StatusNotFound, "session not found")
		return nil, false
	}
	return s, true
}

func (h *SessionHandler) dispatch(w http.ResponseWriter, r *http.Request, s *sessions.Session, ev services.Event) {
	err := s.Controller.Dispatch(r.Context(), ev)
	if err != nil {
		h.logger().InfoContext(r.Context(), "navigation event not applied",
			"req_id", obs.RequestID(r.Context()), "session_id", s.ID, "err", err)
	}
	writeJSON(w, r, http.StatusOK, h.snapshot(s, err))
}

// snapshot renders the session state and drains its pending announcements
// and map commands.
func (h *SessionHandler) snapshot(s *sessions.Session, err error) dto.SessionResponse {
	snap := s.Controller.Snapshot()

	res := dto.SessionResponse{
		ID:            s.ID,
		State:         string(snap.State),
		Status:        dto.StatusResponse{Kind: string(snap.Status.Kind), Text: snap.Status.Text},
		Destination:   snap.Destination,
		Position:      snap.Position,
		Rerouting:     snap.Rerouting,
		Searching:     snap.Searching,
		Route:         geometry.RouteFeatureCollection(snap.Route),
		Instructions:  []dto.InstructionResponse{},
		Announcements: s.Voice.Drain(),
		MapCommands:   s.Map.Drain(),
		Error:         snap.LastError,
	}
	if err != nil {
		res.Error = err.Error()
	}

	if snap.Route != nil {
		res.Summary = &dto.RouteSummaryResponse{
			DistanceMeters:  snap.Route.DistanceMeters,
			DurationSeconds: snap.Route.DurationSeconds,
			ComputedAt:      snap.Route.ComputedAt,
		}
		for _, step := range snap.Route.Steps {
			res.Instructions = append(res.Instructions, dto.InstructionResponse{
				Location: step.Location,
				Text:     step.Text,
			})
		}
	}

	return res
}
