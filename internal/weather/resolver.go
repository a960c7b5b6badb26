package weather

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/patrickmn/go-cache"
)

const (
	reverseGeocodeTTL     = 10 * time.Minute
	reverseGeocodeCleanup = 20 * time.Minute
)

// Resolver turns a query into a Location.
//
// Text queries are not looked up here: the current-conditions source resolves
// names itself, so a text query yields an unresolved Location that the Fetcher
// completes. Coordinate queries go through reverse geocoding and always pick the
// first candidate.
type Resolver struct {
	source Source
	geo    *cache.Cache
	logger *slog.Logger
}

// NewResolver creates a Resolver backed by source.
func NewResolver(source Source, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		source: source,
		geo:    cache.New(reverseGeocodeTTL, reverseGeocodeCleanup),
		logger: logger,
	}
}

// Resolve resolves q. It fails with ErrEmptyQuery, ErrNotFound or ErrUpstreamUnavailable.
func (r *Resolver) Resolve(ctx context.Context, q Query) (Location, error) {
	if q.Coords == nil {
		if q.Text == "" {
			return Location{}, ErrEmptyQuery
		}
		return Location{DisplayName: q.Text}, nil
	}

	key := fmt.Sprintf("%.3f,%.3f", q.Coords.Lat, q.Coords.Lon)
	if cached, found := r.geo.Get(key); found {
		return cached.(Location), nil
	}

	candidates, err := r.source.ReverseGeocode(ctx, *q.Coords, 1)
	if err != nil {
		return Location{}, fmt.Errorf("reverse geocoding %s: %w", key, err)
	}
	if len(candidates) == 0 {
		return Location{}, fmt.Errorf("reverse geocoding %s: %w", key, ErrNotFound)
	}

	loc := candidates[0]
	if !loc.Resolved() {
		loc = NewLocation(loc.DisplayName, loc.CountryCode, q.Coords.Lat, q.Coords.Lon)
	}
	r.logger.Debug("resolved coordinates", "coords", key, "city", loc.DisplayName)
	r.geo.Set(key, loc, cache.DefaultExpiration)
	return loc, nil
}
