package sessions

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"nav-assistant-service/internal/adapters/mapview"
	"nav-assistant-service/internal/adapters/voice"
	"nav-assistant-service/internal/domain"
	"nav-assistant-service/internal/platform/obs"
	"nav-assistant-service/internal/services"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Session is one browser page's navigation: a controller plus the outboxes
// its announcements and map commands collect in until the client polls.
type Session struct {
	ID         string
	CreatedAt  time.Time
	Controller *services.NavigationController
	Voice      *voice.Outbox
	Map        *mapview.CommandBuffer

	lastSeen atomic.Int64
}

func (s *Session) touch(now time.Time) {
	s.lastSeen.Store(now.UnixNano())
}

func (s *Session) LastSeen() time.Time {
	return time.Unix(0, s.lastSeen.Load())
}

type Config struct {
	// Announcer and Display are replaced per session.
	Deps    services.Deps
	Options services.Options

	SpeechLang  string
	IdleTimeout time.Duration
	Now         func() time.Time
}

// Registry holds live sessions in memory.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	cfg     Config
	logger  *slog.Logger
	metrics *obs.Metrics
	newID   func() string
}

func NewRegistry(cfg Config) *Registry {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = 30 * time.Minute
	}
	logger := cfg.Deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Registry{
		sessions: map[string]*Session{},
		cfg:      cfg,
		logger:   logger,
		metrics:  cfg.Deps.Metrics,
		newID:    uuid.NewString,
	}
}

// Create starts a new session. A non-nil destination selects the
// fixed-destination variant, overriding the configured one.
func (r *Registry) Create(dest *domain.Coordinate) (*Session, error) {
	if dest != nil {
		if err := dest.Validate(); err != nil {
			return nil, fmt.Errorf("create session: %w", err)
		}
	}

	id := r.newID()
	now := r.cfg.Now()

	outbox := voice.NewOutbox(r.cfg.SpeechLang, 0)
	buffer := mapview.NewCommandBuffer(0)

	deps := r.cfg.Deps
	deps.Announcer = outbox
	deps.Display = buffer
	deps.Logger = r.logger.With("session_id", id)

	opts := r.cfg.Options
	if dest != nil {
		d := *dest
		opts.FixedDestination = &d
	}

	ctrl, err := services.NewNavigationController(deps, opts)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	ctrl.Start()

	s := &Session{
		ID:         id,
		CreatedAt:  now,
		Controller: ctrl,
		Voice:      outbox,
		Map:        buffer,
	}
	s.touch(now)

	r.mu.Lock()
	r.sessions[id] = s
	n := len(r.sessions)
	r.mu.Unlock()

	r.metrics.SetActiveSessions(n)
	r.logger.Info("session created", "session_id", id, "fixed_destination", opts.FixedDestination != nil)
	return s, nil
}

var ErrSessionNotFound = errors.New("session not found")

// Get returns the session and marks it as used.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}

	s.touch(r.cfg.Now())
	return s, nil
}

func (r *Registry) Delete(id string) bool {
	r.mu.Lock()
	_, ok := r.sessions[id]
	delete(r.sessions, id)
	n := len(r.sessions)
	r.mu.Unlock()

	if ok {
		r.metrics.SetActiveSessions(n)
		r.logger.Info("session closed", "session_id", id)
	}
	return ok
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Sweep evicts sessions idle for longer than the idle timeout and returns
// how many were removed.
func (r *Registry) Sweep() int {
	cutoff := r.cfg.Now().Add(-r.cfg.IdleTimeout)

	r.mu.Lock()
	var evicted []string
	for id, s := range r.sessions {
		if s.LastSeen().Before(cutoff) {
			delete(r.sessions, id)
			evicted = append(evicted, id)
		}
	}
	n := len(r.sessions)
	r.mu.Unlock()

	if len(evicted) > 0 {
		r.metrics.SetActiveSessions(n)
		r.logger.Info("evicted idle sessions", "count", len(evicted), "remaining", n)
	}
	return len(evicted)
}

// Run sweeps idle sessions every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			r.Sweep()
		}
	}
}
