package sessions

import (
	"context"
	"errors"
	"nav-assistant-service/internal/domain"
	"nav-assistant-service/internal/platform/logging"
	"nav-assistant-service/internal/platform/obs"
	"nav-assistant-service/internal/services"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type stubGeocoder struct{}

func (stubGeocoder) Resolve(ctx context.Context, address string) (domain.Coordinate, error) {
	return domain.Coordinate{}, domain.ErrNotFound
}

type stubRouter struct{}

func (stubRouter) Route(ctx context.Context, o, d domain.Coordinate) (domain.RouteResult, error) {
	return domain.RouteResult{Path: []domain.Coordinate{o, d}}, nil
}

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

func newTestRegistry(t *testing.T, clk *clock) (*Registry, *obs.Metrics) {
	t.Helper()

	metrics, err := obs.NewMetrics(prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}

	return NewRegistry(Config{
		Deps: services.Deps{
			Geocoder: stubGeocoder{},
			Router:   stubRouter{},
			Logger:   logging.Discard(),
			Metrics:  metrics,
		},
		Options:     services.DefaultOptions(),
		SpeechLang:  "cs-CZ",
		IdleTimeout: 10 * time.Minute,
		Now:         clk.Now,
	}), metrics
}

func TestRegistryCreateGetDelete(t *testing.T) {
	clk := &clock{now: time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)}
	reg, metrics := newTestRegistry(t, clk)

	s, err := reg.Create(nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if s.ID == "" {
		t.Fatal("expected session id")
	}
	if got := s.Controller.Snapshot().State; got != domain.StateAwaitingDestination {
		t.Fatalf("state = %s", got)
	}
	if got := testutil.ToFloat64(metrics.ActiveSessions); got != 1 {
		t.Fatalf("active sessions = %v", got)
	}

	got, err := reg.Get(s.ID)
	if err != nil || got != s {
		t.Fatalf("get = %v, %v", got, err)
	}

	if !reg.Delete(s.ID) {
		t.Fatal("delete reported missing session")
	}
	if reg.Delete(s.ID) {
		t.Fatal("second delete should report missing")
	}
	if _, err := reg.Get(s.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
	if got := testutil.ToFloat64(metrics.ActiveSessions); got != 0 {
		t.Fatalf("active sessions = %v", got)
	}
}

func TestRegistryCreateFixedDestination(t *testing.T) {
	reg, _ := newTestRegistry(t, &clock{now: time.Now()})

	dest := domain.Coordinate{Lat: 50.1085, Lng: 14.5960}
	s, err := reg.Create(&dest)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	snap := s.Controller.Snapshot()
	if snap.Destination == nil || *snap.Destination != dest {
		t.Fatalf("destination = %+v", snap.Destination)
	}
	if snap.State != domain.StateAwaitingFirstFix {
		t.Fatalf("state = %s", snap.State)
	}

	if len(s.Voice.Drain()) != 0 {
		t.Fatal("no announcements expected on start")
	}
	if len(s.Map.Drain()) != 2 {
		t.Fatal("expected initial view and position watch")
	}

	if _, err := reg.Create(&domain.Coordinate{Lat: 91, Lng: 0}); err == nil {
		t.Fatal("expected error for invalid destination")
	}
}

func TestRegistrySweepEvictsIdleSessions(t *testing.T) {
	clk := &clock{now: time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)}
	reg, metrics := newTestRegistry(t, clk)

	idle, _ := reg.Create(nil)
	active, _ := reg.Create(nil)

	clk.now = clk.now.Add(8 * time.Minute)
	if _, err := reg.Get(active.ID); err != nil {
		t.Fatalf("get: %v", err)
	}

	clk.now = clk.now.Add(5 * time.Minute)
	if n := reg.Sweep(); n != 1 {
		t.Fatalf("evicted = %d, want 1", n)
	}

	if _, err := reg.Get(idle.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Fatal("idle session should be evicted")
	}
	if _, err := reg.Get(active.ID); err != nil {
		t.Fatal("recently used session should survive")
	}
	if got := testutil.ToFloat64(metrics.ActiveSessions); got != 1 {
		t.Fatalf("active sessions = %v", got)
	}
}
