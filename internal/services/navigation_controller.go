package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"nav-assistant-service/internal/domain"
	"nav-assistant-service/internal/geometry"
	"nav-assistant-service/internal/platform/obs"
	"nav-assistant-service/internal/ports"
	"nav-assistant-service/internal/render"
	"strings"
	"sync"
	"time"
)

// Reroute triggers, used for logging and metrics.
const (
	TriggerFirstFix    = "first_fix"
	TriggerDeviation   = "deviation"
	TriggerDestination = "destination"
	TriggerManual      = "manual"
)

type Options struct {
	// A position farther than this from the route (strictly greater) is off route.
	ThresholdMeters float64
	FollowZoom      int
	GeocodeTimeout  time.Duration
	RouteTimeout    time.Duration
	Messages        Messages

	// Non-nil selects the fixed-destination variant.
	FixedDestination *domain.Coordinate

	RouteStyle  ports.PolylineStyle
	Watch       ports.WatchOptions
	InitialView *domain.Coordinate
	InitialZoom int
}

func DefaultOptions() Options {
	return Options{
		ThresholdMeters: 50,
		FollowZoom:      15,
		GeocodeTimeout:  10 * time.Second,
		RouteTimeout:    10 * time.Second,
		Messages:        MessagesFor("cs-CZ"),
		RouteStyle:      render.DefaultRouteStyle,
		Watch:           ports.WatchOptions{HighAccuracy: true, MaxZoom: 16},
		InitialView:     &domain.Coordinate{Lat: 50.095, Lng: 14.77},
		InitialZoom:     10,
	}
}

type Deps struct {
	Geocoder  ports.Geocoder // optional in the fixed-destination variant
	Router    ports.RouteProvider
	Announcer ports.Announcer
	Display   ports.MapDisplay
	Meter     ports.DeviationMeter // defaults to geodesic point-to-segment distance
	Logger    *slog.Logger
	Metrics   *obs.Metrics
	Now       func() time.Time
}

type Status struct {
	Kind MessageKind `json:"kind"`
	Text string      `json:"text"`
}

// Snapshot is a consistent copy of a controller's state.
type Snapshot struct {
	State       domain.NavigationState
	Status      Status
	Destination *domain.Coordinate
	Position    *domain.Coordinate
	Route       *domain.ActiveRoute
	Rerouting   bool
	Searching   bool
	LastError   string
}

// NavigationController owns one navigation session: destination, active
// route and user marker. Events are applied one at a time under mu; the lock
// is released while a geocoding or routing request is outstanding, and the
// completion is applied through the same transition function.
type NavigationController struct {
	mu sync.Mutex

	geocoder  ports.Geocoder
	router    ports.RouteProvider
	announcer ports.Announcer
	display   ports.MapDisplay
	meter     ports.DeviationMeter
	renderer  *render.RouteRenderer
	logger    *slog.Logger
	metrics   *obs.Metrics
	now       func() time.Time
	opts      Options

	destination *domain.Coordinate
	destGen     uint64
	route       *domain.ActiveRoute
	position    *domain.Coordinate
	marker      ports.LayerHandle
	watching    bool
	reroute     rerouteGuard
	lookupSeq   uint64
	searching   bool
	status      Status
	lastErr     string
}

func NewNavigationController(deps Deps, opts Options) (*NavigationController, error) {
	if deps.Router == nil {
		return nil, errors.New("navigation controller: route provider is nil")
	}
	if deps.Announcer == nil {
		return nil, errors.New("navigation controller: announcer is nil")
	}
	if deps.Display == nil {
		return nil, errors.New("navigation controller: map display is nil")
	}
	if deps.Geocoder == nil && opts.FixedDestination == nil {
		return nil, errors.New("navigation controller: geocoder is required without a fixed destination")
	}
	if opts.FixedDestination != nil {
		if err := opts.FixedDestination.Validate(); err != nil {
			return nil, fmt.Errorf("navigation controller: fixed destination: %w", err)
		}
	}

	defaults := DefaultOptions()
	if opts.ThresholdMeters <= 0 {
		opts.ThresholdMeters = defaults.ThresholdMeters
	}
	if opts.FollowZoom <= 0 {
		opts.FollowZoom = defaults.FollowZoom
	}
	if opts.GeocodeTimeout <= 0 {
		opts.GeocodeTimeout = defaults.GeocodeTimeout
	}
	if opts.RouteTimeout <= 0 {
		opts.RouteTimeout = defaults.RouteTimeout
	}
	if opts.Messages == nil {
		opts.Messages = defaults.Messages
	}

	if deps.Meter == nil {
		deps.Meter = geometry.Meter{}
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}

	c := &NavigationController{
		geocoder:  deps.Geocoder,
		router:    deps.Router,
		announcer: deps.Announcer,
		display:   deps.Display,
		meter:     deps.Meter,
		renderer:  render.NewRouteRenderer(deps.Display, opts.RouteStyle),
		logger:    deps.Logger,
		metrics:   deps.Metrics,
		now:       deps.Now,
		opts:      opts,
	}

	if opts.FixedDestination != nil {
		dest := *opts.FixedDestination
		c.destination = &dest
	}

	return c, nil
}

// Start shows the initial viewport. In the fixed-destination variant it
// also starts watching the device position; otherwise it prompts for a
// destination.
func (c *NavigationController) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.opts.InitialView != nil {
		c.display.SetView(*c.opts.InitialView, c.opts.InitialZoom)
	}

	if c.destination != nil {
		c.startWatch()
		c.setStatus(MsgLocating)
		return
	}
	c.setStatus(MsgPrompt)
}

// pendingCall is an external request issued by a transition. It runs without
// the lock held and returns the completion event.
type pendingCall func(ctx context.Context) Event

// Dispatch applies ev and any completions it causes. It returns the error
// that ended the event's handling, if any; the session remains usable.
func (c *NavigationController) Dispatch(ctx context.Context, ev Event) error {
	// Completions mutate session state; they must not be lost when the
	// triggering request goes away.
	ctx = context.WithoutCancel(ctx)

	next, err := c.applyLocked(ctx, ev)
	for next != nil {
		next, err = c.applyLocked(ctx, next(ctx))
	}

	return err
}

// applyLocked runs one transition under mu. A panicking collaborator is
// turned into an error; the lock is always released.
func (c *NavigationController) applyLocked(ctx context.Context, ev Event) (next pendingCall, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			c.logger.ErrorContext(ctx, "transition panicked", "event", ev.eventName(), "panic", r)
			next = nil
			err = fmt.Errorf("navigation controller: %s: panic: %v", ev.eventName(), r)
			c.lastErr = err.Error()
		}
	}()

	return c.apply(ctx, ev)
}

// apply is the transition function. Callers hold mu.
func (c *NavigationController) apply(ctx context.Context, ev Event) (pendingCall, error) {
	switch e := ev.(type) {
	case DestinationEntered:
		return c.onDestinationEntered(ctx, e)
	case DestinationSet:
		return c.onDestinationSet(ctx, e)
	case PositionUpdated:
		return c.onPositionUpdated(ctx, e)
	case LocationFailed:
		return c.onLocationFailed(ctx, e)
	case RecalculateRequested:
		return c.onRecalculateRequested(ctx, e)
	case destinationResolved:
		return c.onDestinationResolved(ctx, e)
	case routeResolved:
		return c.onRouteResolved(ctx, e)
	default:
		return nil, fmt.Errorf("navigation controller: unknown event %T", ev)
	}
}

func (c *NavigationController) onDestinationEntered(ctx context.Context, e DestinationEntered) (pendingCall, error) {
	address := strings.TrimSpace(e.Address)
	if address == "" {
		c.fail(MsgEmptyInput, domain.ErrInvalidInput, true)
		return nil, domain.ErrInvalidInput
	}
	if c.geocoder == nil {
		err := errors.New("destination lookup is not available")
		c.fail(MsgLookupFailed, err, false)
		return nil, err
	}

	c.lookupSeq++
	seq := c.lookupSeq
	c.searching = true
	c.setStatus(MsgSearching)

	return func(ctx context.Context) (ev Event) {
		defer func() {
			if r := recover(); r != nil {
				ev = destinationResolved{seq: seq, address: address, err: fmt.Errorf("geocoder panic: %v", r)}
			}
		}()

		ctx, cancel := context.WithTimeout(ctx, c.opts.GeocodeTimeout)
		defer cancel()

		coord, err := c.geocoder.Resolve(ctx, address)
		return destinationResolved{seq: seq, address: address, coord: coord, err: err}
	}, nil
}

func (c *NavigationController) onDestinationResolved(ctx context.Context, e destinationResolved) (pendingCall, error) {
	if e.seq != c.lookupSeq {
		c.logger.DebugContext(ctx, "discarding superseded lookup", "address", e.address)
		return nil, nil
	}
	c.searching = false

	if e.err != nil {
		if errors.Is(e.err, domain.ErrNotFound) {
			c.metrics.ObserveLookup("not_found")
			c.logger.InfoContext(ctx, "destination not found", "address", e.address)
			c.fail(MsgDestinationNotFound, e.err, true)
		} else {
			c.metrics.ObserveLookup("failed")
			c.logger.WarnContext(ctx, "destination lookup failed", "address", e.address, "err", e.err)
			c.fail(MsgLookupFailed, e.err, true)
		}
		return nil, e.err
	}

	c.metrics.ObserveLookup("found")
	c.logger.InfoContext(ctx, "destination resolved", "address", e.address, "destination", e.coord.String())
	return c.setDestination(ctx, e.coord)
}

func (c *NavigationController) onDestinationSet(ctx context.Context, e DestinationSet) (pendingCall, error) {
	if err := e.Destination.Validate(); err != nil {
		err = fmt.Errorf("set destination: %w", err)
		c.lastErr = err.Error()
		return nil, err
	}
	// A typed address still being looked up must not override this.
	c.lookupSeq++
	c.searching = false

	return c.setDestination(ctx, e.Destination)
}

// setDestination replaces the destination. The old route belongs to the old
// destination, so it is cleared and any in-flight reroute is abandoned.
func (c *NavigationController) setDestination(ctx context.Context, dest domain.Coordinate) (pendingCall, error) {
	c.destination = &dest
	c.destGen++
	c.route = nil
	c.renderer.Clear()
	c.reroute.abandon()
	c.lastErr = ""

	c.startWatch()
	c.setStatus(MsgDestinationFound)

	if c.marker == "" || c.position == nil {
		return nil, nil
	}
	return c.requestRoute(ctx, *c.position, TriggerDestination)
}

func (c *NavigationController) onPositionUpdated(ctx context.Context, e PositionUpdated) (pendingCall, error) {
	p := e.Position
	if err := p.Validate(); err != nil {
		c.logger.WarnContext(ctx, "ignoring invalid position", "err", err)
		return nil, fmt.Errorf("position update: %w", err)
	}
	c.position = &p

	if c.marker == "" {
		c.marker = c.display.PlaceMarker(p)
		c.display.SetView(p, c.opts.FollowZoom)

		if c.destination == nil {
			c.setStatus(MsgPrompt)
			return nil, nil
		}
		return c.requestRoute(ctx, p, TriggerFirstFix)
	}

	c.display.MoveMarker(c.marker, p)
	c.display.SetView(p, c.opts.FollowZoom)

	if c.route == nil {
		return nil, nil
	}

	d := c.meter.DistanceToRoute(c.route.Path, p)
	if d <= c.opts.ThresholdMeters {
		return nil, nil
	}

	if c.reroute.inFlight {
		c.metrics.ObserveSuppressed()
		c.logger.DebugContext(ctx, "off route, reroute already in flight", "distance_m", d)
		return nil, nil
	}

	if c.destination == nil {
		c.fail(MsgNoDestination, domain.ErrNoDestination, true)
		return nil, domain.ErrNoDestination
	}

	c.logger.InfoContext(ctx, "off route", "distance_m", d, "threshold_m", c.opts.ThresholdMeters)
	c.announce(MsgOffRoute)
	c.setStatus(MsgOffRoute)
	return c.requestRoute(ctx, p, TriggerDeviation)
}

func (c *NavigationController) onLocationFailed(ctx context.Context, e LocationFailed) (pendingCall, error) {
	c.logger.WarnContext(ctx, "location error", "message", e.Message)

	text := c.opts.Messages.Text(MsgLocationError)
	if msg := strings.TrimSpace(e.Message); msg != "" {
		text += ": " + msg
	}
	c.status = Status{Kind: MsgLocationError, Text: text}
	c.lastErr = e.Message
	return nil, nil
}

func (c *NavigationController) onRecalculateRequested(ctx context.Context, e RecalculateRequested) (pendingCall, error) {
	origin := c.position
	if e.Origin != nil {
		if err := e.Origin.Validate(); err != nil {
			err = fmt.Errorf("recalculate: origin: %w", err)
			c.lastErr = err.Error()
			return nil, err
		}
		origin = e.Origin
	}

	if c.destination == nil {
		c.fail(MsgNoDestination, domain.ErrNoDestination, true)
		return nil, domain.ErrNoDestination
	}
	if origin == nil {
		c.fail(MsgNoPosition, domain.ErrNoPosition, false)
		return nil, domain.ErrNoPosition
	}

	if c.reroute.inFlight {
		c.metrics.ObserveSuppressed()
		c.logger.DebugContext(ctx, "recalculate ignored, reroute already in flight")
		return nil, nil
	}

	return c.requestRoute(ctx, *origin, TriggerManual)
}

// requestRoute claims the reroute guard and returns the routing call tagged
// with the claim and the destination generation it was issued for.
func (c *NavigationController) requestRoute(ctx context.Context, origin domain.Coordinate, trigger string) (pendingCall, error) {
	seq, ok := c.reroute.acquire()
	if !ok {
		c.metrics.ObserveSuppressed()
		return nil, nil
	}

	dest := *c.destination
	gen := c.destGen

	c.logger.DebugContext(ctx, "requesting route",
		"trigger", trigger, "origin", origin.String(), "destination", dest.String(), "seq", seq)

	return func(ctx context.Context) (ev Event) {
		defer func() {
			if r := recover(); r != nil {
				ev = routeResolved{seq: seq, gen: gen, trigger: trigger, err: fmt.Errorf("route provider panic: %v", r)}
			}
		}()

		ctx, cancel := context.WithTimeout(ctx, c.opts.RouteTimeout)
		defer cancel()

		res, err := c.router.Route(ctx, origin, dest)
		return routeResolved{seq: seq, gen: gen, trigger: trigger, result: res, err: err}
	}, nil
}

func (c *NavigationController) onRouteResolved(ctx context.Context, e routeResolved) (pendingCall, error) {
	defer c.reroute.release(e.seq)

	if e.gen != c.destGen || c.destination == nil {
		c.metrics.ObserveReroute(e.trigger, "stale")
		c.logger.InfoContext(ctx, "discarding route for previous destination", "trigger", e.trigger, "seq", e.seq)
		return nil, nil
	}

	if e.err != nil {
		var re *domain.RoutingError
		if errors.As(e.err, &re) {
			c.metrics.ObserveReroute(e.trigger, "routing_error")
			c.logger.WarnContext(ctx, "routing failed", "trigger", e.trigger, "code", re.Code, "message", re.Message)
			c.fail(MsgRoutingFailed, e.err, true)
		} else {
			c.metrics.ObserveReroute(e.trigger, "transport_error")
			c.logger.WarnContext(ctx, "route request failed", "trigger", e.trigger, "err", e.err)
			c.fail(MsgRoutingFailed, e.err, false)
		}
		return nil, e.err
	}

	if len(e.result.Path) < 2 {
		err := &domain.RoutingError{Code: "InvalidRoute", Message: "route has fewer than 2 points"}
		c.metrics.ObserveReroute(e.trigger, "routing_error")
		c.fail(MsgRoutingFailed, err, true)
		return nil, err
	}

	// Path and steps are swapped in together.
	c.route = domain.NewActiveRoute(*c.destination, e.result, c.now())
	c.renderer.Draw(c.route.Path)
	c.lastErr = ""
	c.metrics.ObserveReroute(e.trigger, "ok")
	c.logger.InfoContext(ctx, "route applied",
		"trigger", e.trigger,
		"points", len(c.route.Path),
		"steps", len(c.route.Steps),
		"distance_m", c.route.DistanceMeters,
	)

	c.setStatus(MsgNavigating)
	c.announce(MsgRecalculating)
	return nil, nil
}

func (c *NavigationController) startWatch() {
	if c.watching {
		return
	}
	c.display.WatchPosition(c.opts.Watch)
	c.watching = true
}

func (c *NavigationController) setStatus(kind MessageKind) {
	c.status = Status{Kind: kind, Text: c.opts.Messages.Text(kind)}
}

func (c *NavigationController) announce(kind MessageKind) {
	c.announcer.Announce(c.opts.Messages.Text(kind))
}

// fail records a handled error as the current status, optionally spoken.
func (c *NavigationController) fail(kind MessageKind, err error, speak bool) {
	c.setStatus(kind)
	if err != nil {
		c.lastErr = err.Error()
	}
	if speak {
		c.announce(kind)
	}
}

func (c *NavigationController) state() domain.NavigationState {
	switch {
	case c.destination == nil:
		return domain.StateAwaitingDestination
	case c.marker == "":
		return domain.StateAwaitingFirstFix
	case c.reroute.inFlight:
		return domain.StateRecalculating
	case c.route != nil:
		return domain.StateOnRoute
	default:
		return domain.StateNoRoute
	}
}

func (c *NavigationController) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Snapshot{
		State:     c.state(),
		Status:    c.status,
		Rerouting: c.reroute.inFlight,
		Searching: c.searching,
		LastError: c.lastErr,
	}
	if c.destination != nil {
		d := *c.destination
		s.Destination = &d
	}
	if c.position != nil {
		p := *c.position
		s.Position = &p
	}
	if c.route != nil {
		// ActiveRoute is never mutated after creation; copy the header only.
		r := *c.route
		s.Route = &r
	}
	return s
}
