package geocoding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"nav-assistant-service/internal/domain"
	"nav-assistant-service/internal/platform/obs"
	"nav-assistant-service/internal/ports"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"
)

// CachingGeocoder consults a persistent cache before delegating to the
// wrapped geocoder. Concurrent lookups of the same address share a single
// upstream request. Only successful resolutions are cached.
type CachingGeocoder struct {
	next    ports.Geocoder
	cache   ports.GeocodeCache
	group   singleflight.Group
	logger  *slog.Logger
	metrics *obs.Metrics
	timeout time.Duration
}

// sharedLookupTimeout bounds an upstream lookup shared by several callers.
const sharedLookupTimeout = 10 * time.Second

func NewCachingGeocoder(
	next ports.Geocoder,
	cache ports.GeocodeCache,
	logger *slog.Logger,
	metrics *obs.Metrics,
) (*CachingGeocoder, error) {
	if next == nil {
		return nil, errors.New("caching geocoder: next geocoder is nil")
	}
	if cache == nil {
		return nil, errors.New("caching geocoder: cache is nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &CachingGeocoder{
		next:    next,
		cache:   cache,
		logger:  logger,
		metrics: metrics,
		timeout: sharedLookupTimeout,
	}, nil
}

func (g *CachingGeocoder) Resolve(ctx context.Context, address string) (domain.Coordinate, error) {
	key := domain.NormalizeAddress(address)
	if key == "" {
		return domain.Coordinate{}, domain.ErrInvalidInput
	}

	hits, err := g.cache.GetMany(ctx, []string{key})
	if err != nil {
		// A broken cache degrades to a direct lookup.
		g.logger.WarnContext(ctx, "geocode cache read failed", "address", key, "err", err)
	} else if c, ok := hits[key]; ok {
		g.metrics.ObserveLookup("cache_hit")
		return c, nil
	}

	// The shared lookup outlives any one caller; each caller waits under its
	// own context.
	ch := g.group.DoChan(key, func() (any, error) {
		lookupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), g.timeout)
		defer cancel()

		c, err := g.next.Resolve(lookupCtx, strings.TrimSpace(address))
		if err != nil {
			return domain.Coordinate{}, err
		}

		if err := g.cache.PutMany(lookupCtx, map[string]domain.Coordinate{key: c}); err != nil {
			g.logger.WarnContext(ctx, "geocode cache write failed", "address", key, "err", err)
		}
		return c, nil
	})

	select {
	case <-ctx.Done():
		return domain.Coordinate{}, &domain.LookupError{
			Address: address,
			Err:     &domain.TransportError{Op: "geocode", Err: ctx.Err()},
		}
	case res := <-ch:
		if res.Err != nil {
			return domain.Coordinate{}, fmt.Errorf("caching geocoder: %w", res.Err)
		}
		return res.Val.(domain.Coordinate), nil
	}
}
