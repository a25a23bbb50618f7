package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"nav-assistant-service/internal/domain"
	"nav-assistant-service/internal/ports"
	"os"
)

type PlaceSeed struct {
	Address string  `json:"address"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
}

// SeedGeocodeCache loads a gazetteer of known places from a JSON file into
// the geocode cache, keyed by normalized address.
func SeedGeocodeCache(ctx context.Context, cache ports.GeocodeCache, jsonPath string) (int, error) {
	bytes, err := os.ReadFile(jsonPath)
	if err != nil {
		return 0, fmt.Errorf("seed geocode cache: read %q: %w", jsonPath, err)
	}

	var data []PlaceSeed
	if err := json.Unmarshal(bytes, &data); err != nil {
		return 0, fmt.Errorf("seed geocode cache: parse json: %w", err)
	}

	rows := make(map[string]domain.Coordinate, len(data))
	for i, item := range data {
		key := domain.NormalizeAddress(item.Address)
		if key == "" {
			return 0, fmt.Errorf("seed geocode cache: item at index %d: address cannot be empty", i+1)
		}

		c := domain.Coordinate{Lat: item.Lat, Lng: item.Lng}
		if err := c.Validate(); err != nil {
			return 0, fmt.Errorf("seed geocode cache: item %q: %w", item.Address, err)
		}
		rows[key] = c
	}

	if err := cache.PutMany(ctx, rows); err != nil {
		return 0, fmt.Errorf("seed geocode cache: %w", err)
	}

	return len(rows), nil
}
