package api

import (
	"log/slog"
	"nav-assistant-service/internal/api/handlers"
	"nav-assistant-service/internal/api/sessions"
	"nav-assistant-service/internal/platform/obs"
	"net/http"
)

// NewRouter wires HTTP handlers with their dependencies and returns an http.Handler.
// This is the API composition root (handlers stay unaware of concrete adapters).
func NewRouter(reg *sessions.Registry, metrics *obs.Metrics, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}

	mux := http.NewServeMux()

	sh := &handlers.SessionHandler{Sessions: reg, Logger: logger}

	mux.HandleFunc("GET /health", handlers.Health)
	mux.Handle("GET /metrics", metrics.Handler())

	mux.HandleFunc("POST /sessions", sh.Create)
	mux.HandleFunc("GET /sessions/{id}", sh.Get)
	mux.HandleFunc("DELETE /sessions/{id}", sh.Delete)
	mux.HandleFunc("POST /sessions/{id}/destination", sh.Destination)
	mux.HandleFunc("POST /sessions/{id}/position", sh.Position)
	mux.HandleFunc("POST /sessions/{id}/location-error", sh.LocationError)
	mux.HandleFunc("POST /sessions/{id}/recalculate", sh.Recalculate)

	return requestIDMiddleware(loggingMiddleware(logger, mux))
}
