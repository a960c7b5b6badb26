package weather

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Service runs the resolve → fetch → aggregate pipeline and keeps the last
// known good snapshot per location.
type Service struct {
	resolver *Resolver
	fetcher  *Fetcher
	store    SnapshotStore
	now      func() time.Time
	logger   *slog.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithClock overrides the clock used to stamp snapshots.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		s.now = now
	}
}

// WithLogger sets the logger used by the service and its components.
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

// NewService creates a new Service.
func NewService(source Source, store SnapshotStore, opts ...ServiceOption) *Service {
	s := &Service{
		store:  store,
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.resolver = NewResolver(source, s.logger)
	s.fetcher = NewFetcher(source, s.logger)
	return s
}

// Lookup resolves q, fetches all sources under unit and builds a snapshot.
// On success the snapshot is stored as the latest for its location; on
// failure the last good snapshot is left untouched.
func (s *Service) Lookup(ctx context.Context, q Query, unit UnitSystem) (WeatherSnapshot, error) {
	logger := s.logger.With("fetch_id", uuid.NewString(), "unit", string(unit))

	loc, err := s.resolver.Resolve(ctx, q)
	if err != nil {
		logger.Info("location resolution failed", "query", q.Text, "error", err)
		return WeatherSnapshot{}, err
	}

	logger.Debug("fetching weather", "city", loc.DisplayName)
	res, err := s.fetcher.Fetch(ctx, loc, unit)
	if err != nil {
		logger.Info("weather fetch failed; keeping last good snapshot if any", "city", loc.DisplayName, "error", err)
		return WeatherSnapshot{}, err
	}

	snapshot := Build(loc, res, unit, s.now())
	if s.store != nil {
		s.store.SaveSnapshot(snapshot.Location, snapshot)
		// Favorites are refreshed and read back by the text they were saved with.
		if q.Coords == nil && q.Text != "" && q.Text != snapshot.Location.Key() {
			s.store.SaveSnapshot(Location{DisplayName: q.Text}, snapshot)
		}
	}
	logger.Debug("snapshot built",
		"city", snapshot.Location.DisplayName,
		"air", snapshot.Air != nil,
		"uv", snapshot.UV != nil,
		"forecast_entries", len(snapshot.Forecast),
	)
	return snapshot, nil
}

// GetLatest returns the last known good snapshot for a city.
func (s *Service) GetLatest(city string) (WeatherSnapshot, error) {
	if s.store == nil {
		return WeatherSnapshot{}, fmt.Errorf("no snapshot for %q: %w", city, ErrNotFound)
	}
	return s.store.GetLatest(city)
}

// GetRange returns the stored snapshots of a city fetched between from and to.
func (s *Service) GetRange(city string, from, to time.Time) ([]WeatherSnapshot, error) {
	if s.store == nil {
		return nil, fmt.Errorf("no snapshots for %q: %w", city, ErrNotFound)
	}
	return s.store.GetRange(city, from, to)
}

// Classify returns the taxonomy sentinel err belongs to, or nil if none.
// NotFound takes precedence over WeatherUnavailable since it is more specific.
func Classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrEmptyQuery):
		return ErrEmptyQuery
	case errors.Is(err, ErrNotFound):
		return ErrNotFound
	case errors.Is(err, ErrUpstreamUnavailable):
		return ErrUpstreamUnavailable
	case errors.Is(err, ErrWeatherUnavailable):
		return ErrWeatherUnavailable
	default:
		return nil
	}
}
