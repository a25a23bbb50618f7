package api

import (
	"bytes"
	"context"
	"encoding/json"
	"nav-assistant-service/internal/adapters/mapview"
	"nav-assistant-service/internal/api/dto"
	"nav-assistant-service/internal/api/sessions"
	"nav-assistant-service/internal/domain"
	"nav-assistant-service/internal/platform/logging"
	"nav-assistant-service/internal/platform/obs"
	"nav-assistant-service/internal/services"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

type mapGeocoder map[string]domain.Coordinate

func (g mapGeocoder) Resolve(ctx context.Context, address string) (domain.Coordinate, error) {
	c, ok := g[address]
	if !ok {
		return domain.Coordinate{}, domain.ErrNotFound
	}
	return c, nil
}

type straightRouter struct{}

func (straightRouter) Route(ctx context.Context, o, d domain.Coordinate) (domain.RouteResult, error) {
	return domain.RouteResult{
		Path:            []domain.Coordinate{o, d},
		Steps:           []domain.InstructionStep{{Location: o, Text: "Head north"}, {Location: d, Text: "Arrive"}},
		DistanceMeters:  1250,
		DurationSeconds: 180,
	}, nil
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	metrics, err := obs.NewMetrics(prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}

	opts := services.DefaultOptions()
	opts.Messages = services.MessagesFor("en-US")

	reg := sessions.NewRegistry(sessions.Config{
		Deps: services.Deps{
			Geocoder: mapGeocoder{"Prague Castle": {Lat: 50.0911, Lng: 14.4016}},
			Router:   straightRouter{},
			Logger:   logging.Discard(),
			Metrics:  metrics,
		},
		Options:    opts,
		SpeechLang: "en-US",
	})

	srv := httptest.NewServer(NewRouter(reg, metrics, logging.Discard()))
	t.Cleanup(srv.Close)
	return srv
}

func post(t *testing.T, url, body string) *http.Response {
	t.Helper()
	res, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	return res
}

func decodeSession(t *testing.T, res *http.Response) dto.SessionResponse {
	t.Helper()
	defer res.Body.Close()

	var s dto.SessionResponse
	if err := json.NewDecoder(res.Body).Decode(&s); err != nil {
		t.Fatalf("decode session: %v", err)
	}
	return s
}

func createSession(t *testing.T, srv *httptest.Server, body string) dto.SessionResponse {
	t.Helper()
	res := post(t, srv.URL+"/sessions", body)
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d", res.StatusCode)
	}
	return decodeSession(t, res)
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)

	res, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", res.StatusCode)
	}
	if res.Header.Get("X-Request-ID") == "" {
		t.Fatal("expected X-Request-ID header")
	}
}

func TestRequestIDIsPropagated(t *testing.T) {
	srv := newTestServer(t)

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/health", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET /health: %v", err)
	}
	res.Body.Close()

	if got := res.Header.Get("X-Request-ID"); got != "abc-123" {
		t.Fatalf("X-Request-ID = %q", got)
	}
}

func TestSessionNavigationFlow(t *testing.T) {
	srv := newTestServer(t)

	s := createSession(t, srv, "")
	if s.State != string(domain.StateAwaitingDestination) || s.Status.Kind != "prompt" {
		t.Fatalf("new session = %+v", s)
	}
	if len(s.MapCommands) != 1 || s.MapCommands[0].Op != mapview.OpSetView {
		t.Fatalf("initial commands = %+v", s.MapCommands)
	}

	base := srv.URL + "/sessions/" + s.ID

	s = decodeSession(t, post(t, base+"/destination", `{"address":"Prague Castle"}`))
	if s.Destination == nil || s.Destination.Lat != 50.0911 {
		t.Fatalf("destination = %+v", s.Destination)
	}
	if s.Status.Kind != "destination_found" {
		t.Fatalf("status = %+v", s.Status)
	}

	s = decodeSession(t, post(t, base+"/position", `{"lat":50.08,"lng":14.40}`))
	if s.State != string(domain.StateOnRoute) {
		t.Fatalf("state = %s (error %q)", s.State, s.Error)
	}
	if s.Summary == nil || s.Summary.DistanceMeters != 1250 {
		t.Fatalf("summary = %+v", s.Summary)
	}
	if len(s.Instructions) != 2 || s.Instructions[0].Text != "Head north" {
		t.Fatalf("instructions = %+v", s.Instructions)
	}
	if s.Route == nil || len(s.Route.Features) != 3 {
		t.Fatalf("route features = %+v", s.Route)
	}
	if len(s.Announcements) != 1 || s.Announcements[0].Text != "Recalculating route." || s.Announcements[0].Lang != "en-US" {
		t.Fatalf("announcements = %+v", s.Announcements)
	}

	var sawLine bool
	for _, cmd := range s.MapCommands {
		if cmd.Op == mapview.OpDrawPolyline {
			sawLine = true
		}
	}
	if !sawLine {
		t.Fatalf("expected draw_polyline in %+v", s.MapCommands)
	}

	// Outboxes are drained by the previous response.
	res, err := http.Get(base)
	if err != nil {
		t.Fatalf("GET session: %v", err)
	}
	s = decodeSession(t, res)
	if len(s.Announcements) != 0 || len(s.MapCommands) != 0 {
		t.Fatalf("expected drained outboxes, got %+v / %+v", s.Announcements, s.MapCommands)
	}
}

func TestHandledErrorsAnswerWithSnapshot(t *testing.T) {
	srv := newTestServer(t)
	s := createSession(t, srv, "")
	base := srv.URL + "/sessions/" + s.ID

	res := post(t, base+"/destination", `{"address":"Atlantis"}`)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", res.StatusCode)
	}
	s = decodeSession(t, res)
	if s.Status.Kind != "destination_not_found" || s.Error == "" {
		t.Fatalf("snapshot = %+v", s)
	}

	s = decodeSession(t, post(t, base+"/recalculate", ""))
	if s.Status.Kind != "no_destination" {
		t.Fatalf("status = %+v", s.Status)
	}

	s = decodeSession(t, post(t, base+"/location-error", `{"message":"timeout"}`))
	if s.Status.Kind != "location_error" || !strings.HasSuffix(s.Status.Text, ": timeout") {
		t.Fatalf("status = %+v", s.Status)
	}
}

func TestFixedDestinationSession(t *testing.T) {
	srv := newTestServer(t)

	s := createSession(t, srv, `{"destination":{"lat":50.1085,"lng":14.596}}`)
	if s.State != string(domain.StateAwaitingFirstFix) {
		t.Fatalf("state = %s", s.State)
	}

	s = decodeSession(t, post(t, srv.URL+"/sessions/"+s.ID+"/position", `{"lat":50.08,"lng":14.40}`))
	if s.State != string(domain.StateOnRoute) {
		t.Fatalf("state = %s", s.State)
	}
}

func TestBadRequests(t *testing.T) {
	srv := newTestServer(t)
	s := createSession(t, srv, "")
	base := srv.URL + "/sessions/" + s.ID

	tests := []struct {
		name string
		url  string
		body string
		want int
	}{
		{"invalid json", base + "/position", `{"lat":`, http.StatusBadRequest},
		{"missing lng", base + "/position", `{"lat":50.1}`, http.StatusBadRequest},
		{"out of range", base + "/position", `{"lat":95,"lng":14}`, http.StatusBadRequest},
		{"unknown field", base + "/destination", `{"addr":"x"}`, http.StatusBadRequest},
		{"two objects", base + "/destination", `{"address":"x"}{}`, http.StatusBadRequest},
		{"invalid fixed destination", srv.URL + "/sessions", `{"destination":{"lat":0,"lng":181}}`, http.StatusBadRequest},
		{"unknown session", srv.URL + "/sessions/nope/position", `{"lat":50,"lng":14}`, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := post(t, tt.url, tt.body)
			defer res.Body.Close()
			if res.StatusCode != tt.want {
				t.Fatalf("status = %d, want %d", res.StatusCode, tt.want)
			}
		})
	}
}

func TestDeleteSession(t *testing.T) {
	srv := newTestServer(t)
	s := createSession(t, srv, "")

	req, _ := http.NewRequest(http.MethodDelete, srv.URL+"/sessions/"+s.ID, nil)
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("DELETE: %v", err)
	}
	res.Body.Close()
	if res.StatusCode != http.StatusNoContent {
		t.Fatalf("status = %d", res.StatusCode)
	}

	res, err = http.Get(srv.URL + "/sessions/" + s.ID)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	res.Body.Close()
	if res.StatusCode != http.StatusNotFound {
		t.Fatalf("status after delete = %d", res.StatusCode)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	srv := newTestServer(t)

	res, err := http.Get(srv.URL + "/sessions")
	if err != nil {
		t.Fatalf("GET /sessions: %v", err)
	}
	res.Body.Close()
	if res.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d", res.StatusCode)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t)
	createSession(t, srv, "")

	res, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer res.Body.Close()

	var buf bytes.Buffer
	buf.ReadFrom(res.Body)
	if !strings.Contains(buf.String(), "nav_active_sessions 1") {
		t.Fatalf("metrics output missing active sessions gauge:\n%s", buf.String())
	}
}
