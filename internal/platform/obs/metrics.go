package obs

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles the navigation service's Prometheus collectors.
// All methods are safe to call on a nil *Metrics.
type Metrics struct {
	gatherer prometheus.Gatherer

	Reroutes          *prometheus.CounterVec
	RerouteSuppressed prometheus.Counter
	GeocodeLookups    *prometheus.CounterVec
	ExternalDurations *prometheus.HistogramVec
	ActiveSessions    prometheus.Gauge
}

// NewMetrics registers collectors against reg, defaulting to the global
// registry when nil. Registering twice returns the existing collectors.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	reroutes, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "nav_reroutes_total",
		Help: "Route requests issued by navigation sessions, labeled by trigger and outcome.",
	}, []string{"trigger", "outcome"}), "nav_reroutes_total")
	if err != nil {
		return nil, err
	}

	suppressed, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "nav_reroutes_suppressed_total",
		Help: "Off-route corrections skipped because a reroute was already in flight.",
	}), "nav_reroutes_suppressed_total")
	if err != nil {
		return nil, err
	}

	lookups, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "nav_geocode_lookups_total",
		Help: "Destination lookups, labeled by outcome (found, not_found, failed, cache_hit).",
	}, []string{"outcome"}), "nav_geocode_lookups_total")
	if err != nil {
		return nil, err
	}

	durations, err := registerHistogramVec(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "nav_external_request_duration_seconds",
		Help:    "Latency of calls to external geocoding and routing services.",
		Buckets: []float64{0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"service"}), "nav_external_request_duration_seconds")
	if err != nil {
		return nil, err
	}

	active, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "nav_active_sessions",
		Help: "Navigation sessions currently held in memory.",
	}), "nav_active_sessions")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		gatherer:          gatherer,
		Reroutes:          reroutes,
		RerouteSuppressed: suppressed,
		GeocodeLookups:    lookups,
		ExternalDurations: durations,
		ActiveSessions:    active,
	}, nil
}

func (m *Metrics) ObserveReroute(trigger, outcome string) {
	if m == nil || m.Reroutes == nil {
		return
	}
	m.Reroutes.WithLabelValues(trigger, outcome).Inc()
}

func (m *Metrics) ObserveSuppressed() {
	if m == nil || m.RerouteSuppressed == nil {
		return
	}
	m.RerouteSuppressed.Inc()
}

func (m *Metrics) ObserveLookup(outcome string) {
	if m == nil || m.GeocodeLookups == nil {
		return
	}
	m.GeocodeLookups.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveExternal(service string, d time.Duration) {
	if m == nil || m.ExternalDurations == nil {
		return
	}
	m.ExternalDurations.WithLabelValues(service).Observe(d.Seconds())
}

func (m *Metrics) SetActiveSessions(n int) {
	if m == nil || m.ActiveSessions == nil {
		return
	}
	m.ActiveSessions.Set(float64(n))
}

// Handler exposes the registry for scraping.
func (m *Metrics) Handler() http.Handler {
	if m == nil || m.gatherer == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, fmt.Errorf("register %s: %w", name, err)
	}
	return vec, nil
}

func registerCounter(reg prometheus.Registerer, c prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, fmt.Errorf("register %s: %w", name, err)
	}
	return c, nil
}

func registerHistogramVec(reg prometheus.Registerer, vec *prometheus.HistogramVec, name string) (*prometheus.HistogramVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, fmt.Errorf("register %s: %w", name, err)
	}
	return vec, nil
}

func registerGauge(reg prometheus.Registerer, g prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(g); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, fmt.Errorf("register %s: %w", name, err)
	}
	return g, nil
}
