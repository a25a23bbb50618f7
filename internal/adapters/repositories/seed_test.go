package repositories

import (
	"context"
	"nav-assistant-service/internal/domain"
	"os"
	"path/filepath"
	"testing"
)

type recordingCache struct {
	put map[string]domain.Coordinate
}

func (c *recordingCache) GetMany(ctx context.Context, addresses []string) (map[string]domain.Coordinate, error) {
	return map[string]domain.Coordinate{}, nil
}

func (c *recordingCache) PutMany(ctx context.Context, results map[string]domain.Coordinate) error {
	c.put = results
	return nil
}

func writeSeed(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "places.json")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write seed: %v", err)
	}
	return path
}

func TestSeedGeocodeCache(t *testing.T) {
	path := writeSeed(t, `[
		{"address": "Prague  Castle", "lat": 50.0911, "lng": 14.4016},
		{"address": "Strašnice depot", "lat": 50.1085, "lng": 14.5960}
	]`)

	cache := &recordingCache{}
	n, err := SeedGeocodeCache(context.Background(), cache, path)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if n != 2 {
		t.Fatalf("seeded = %d, want 2", n)
	}
	if cache.put["prague castle"] != (domain.Coordinate{Lat: 50.0911, Lng: 14.4016}) {
		t.Fatalf("prague castle = %+v", cache.put["prague castle"])
	}
	if _, ok := cache.put["strašnice depot"]; !ok {
		t.Fatalf("missing normalized key: %v", cache.put)
	}
}

func TestSeedGeocodeCacheRejectsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"blank address", `[{"address": "  ", "lat": 1, "lng": 2}]`},
		{"out of range", `[{"address": "x", "lat": 100, "lng": 2}]`},
		{"not json", `{`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cache := &recordingCache{}
			if _, err := SeedGeocodeCache(context.Background(), cache, writeSeed(t, tt.content)); err == nil {
				t.Fatal("expected error")
			}
			if cache.put != nil {
				t.Fatalf("nothing should be written, got %v", cache.put)
			}
		})
	}
}

func TestSeedGeocodeCacheMissingFile(t *testing.T) {
	if _, err := SeedGeocodeCache(context.Background(), &recordingCache{}, filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
