package ports

import (
	"context"
	"nav-assistant-service/internal/domain"
)

// Geocoder resolves a free-text address to a coordinate.
//
// Implementations return domain.ErrNotFound when the lookup succeeds with
// zero matches, and a *domain.LookupError for transport, status or parsing
// failures. A single attempt is made per call.
type Geocoder interface {
	Resolve(ctx context.Context, address string) (domain.Coordinate, error)
}

// GeocodeCache persists resolved address -> coordinate mappings.
// Address keys are expected to be normalized by the caller.
type GeocodeCache interface {
	GetMany(ctx context.Context, addresses []string) (map[string]domain.Coordinate, error)
	PutMany(ctx context.Context, results map[string]domain.Coordinate) error
}
