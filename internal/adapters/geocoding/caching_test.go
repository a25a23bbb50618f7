package geocoding

import (
	"context"
	"errors"
	"nav-assistant-service/internal/domain"
	"nav-assistant-service/internal/platform/logging"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type fakeGeocoder struct {
	calls   atomic.Int32
	result  domain.Coordinate
	err     error
	release chan struct{}
}

func (f *fakeGeocoder) Resolve(ctx context.Context, address string) (domain.Coordinate, error) {
	f.calls.Add(1)
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return domain.Coordinate{}, ctx.Err()
		}
	}
	return f.result, f.err
}

type memoryCache struct {
	mu      sync.Mutex
	m       map[string]domain.Coordinate
	readErr error
}

func newMemoryCache() *memoryCache {
	return &memoryCache{m: map[string]domain.Coordinate{}}
}

func (c *memoryCache) GetMany(ctx context.Context, addresses []string) (map[string]domain.Coordinate, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.readErr != nil {
		return nil, c.readErr
	}
	out := map[string]domain.Coordinate{}
	for _, a := range addresses {
		if v, ok := c.m[a]; ok {
			out[a] = v
		}
	}
	return out, nil
}

func (c *memoryCache) PutMany(ctx context.Context, results map[string]domain.Coordinate) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for k, v := range results {
		c.m[k] = v
	}
	return nil
}

var castle = domain.Coordinate{Lat: 50.0911, Lng: 14.4016}

func TestCachingGeocoderStoresAndReuses(t *testing.T) {
	next := &fakeGeocoder{result: castle}
	cache := newMemoryCache()

	g, err := NewCachingGeocoder(next, cache, logging.Discard(), nil)
	if err != nil {
		t.Fatalf("new caching geocoder: %v", err)
	}

	for _, addr := range []string{"Prague Castle", "  prague   CASTLE "} {
		got, err := g.Resolve(context.Background(), addr)
		if err != nil {
			t.Fatalf("resolve %q: %v", addr, err)
		}
		if got != castle {
			t.Fatalf("resolve %q = %+v", addr, got)
		}
	}

	if n := next.calls.Load(); n != 1 {
		t.Fatalf("upstream calls = %d, want 1", n)
	}
	if _, ok := cache.m["prague castle"]; !ok {
		t.Fatalf("expected normalized key in cache, got %v", cache.m)
	}
}

func TestCachingGeocoderDoesNotCacheNotFound(t *testing.T) {
	next := &fakeGeocoder{err: domain.ErrNotFound}
	cache := newMemoryCache()
	g, _ := NewCachingGeocoder(next, cache, logging.Discard(), nil)

	for i := 0; i < 2; i++ {
		_, err := g.Resolve(context.Background(), "Nowhere")
		if !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	}

	if n := next.calls.Load(); n != 2 {
		t.Fatalf("upstream calls = %d, want 2", n)
	}
	if len(cache.m) != 0 {
		t.Fatalf("cache should be empty, got %v", cache.m)
	}
}

func TestCachingGeocoderReadFailureFallsThrough(t *testing.T) {
	next := &fakeGeocoder{result: castle}
	cache := newMemoryCache()
	cache.readErr = errors.New("disk on fire")
	g, _ := NewCachingGeocoder(next, cache, logging.Discard(), nil)

	got, err := g.Resolve(context.Background(), "Prague Castle")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != castle {
		t.Fatalf("got %+v", got)
	}
}

func TestCachingGeocoderCollapsesConcurrentLookups(t *testing.T) {
	next := &fakeGeocoder{result: castle, release: make(chan struct{})}
	g, _ := NewCachingGeocoder(next, newMemoryCache(), logging.Discard(), nil)

	const n = 5
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := g.Resolve(context.Background(), "Prague Castle")
			errs <- err
		}()
	}

	// Wait for the first upstream call to start, then let it finish.
	for next.calls.Load() == 0 {
		runtime.Gosched()
	}
	close(next.release)
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	// Late goroutines may miss the in-flight call but then hit the cache.
	if c := next.calls.Load(); c < 1 || c > n {
		t.Fatalf("upstream calls = %d", c)
	}
}

func TestCachingGeocoderRejectsBlank(t *testing.T) {
	g, _ := NewCachingGeocoder(&fakeGeocoder{}, newMemoryCache(), logging.Discard(), nil)
	if _, err := g.Resolve(context.Background(), "   "); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestCachingGeocoderSharedLookupOutlivesFirstCaller(t *testing.T) {
	next := &fakeGeocoder{result: castle, release: make(chan struct{})}
	cache := newMemoryCache()
	g, _ := NewCachingGeocoder(next, cache, logging.Discard(), nil)

	shortCtx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	firstErr := make(chan error, 1)
	go func() {
		_, err := g.Resolve(shortCtx, "Prague Castle")
		firstErr <- err
	}()
	for next.calls.Load() == 0 {
		runtime.Gosched()
	}

	type result struct {
		c   domain.Coordinate
		err error
	}
	second := make(chan result, 1)
	go func() {
		c, err := g.Resolve(context.Background(), "Prague Castle")
		second <- result{c, err}
	}()

	err := <-firstErr
	var le *domain.LookupError
	if !errors.As(err, &le) {
		t.Fatalf("first caller err = %v, want LookupError", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("first caller err = %v, want deadline exceeded", err)
	}

	// The upstream call is still running for the second caller.
	time.Sleep(20 * time.Millisecond)
	close(next.release)

	select {
	case r := <-second:
		if r.err != nil {
			t.Fatalf("second caller: %v", r.err)
		}
		if r.c != castle {
			t.Fatalf("second caller = %+v", r.c)
		}
	case <-time.After(time.Second):
		t.Fatal("second caller did not return")
	}
	if _, ok := cache.m["prague castle"]; !ok {
		t.Fatal("shared result was not cached")
	}
}
