// Package session owns the single-user session: recent searches, favorites,
// the active unit system and the last snapshot shown to the user.
//
// Results are applied in completion order. Two concurrent fetches for the
// same city both run to completion and the later one wins; nothing is
// deduplicated or versioned.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/i474232898/weather-dashboard/internal/weather"
)

const (
	// MaxRecentSearches bounds the recent-search list.
	MaxRecentSearches = 5

	// RefreshInterval is how often every favorite is refreshed in the background.
	RefreshInterval = 30 * time.Minute
)

// Status is the state of one tracked query.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusReady   Status = "ready"
	StatusFailed  Status = "failed"
)

// QueryState is the observable state of a query key.
type QueryState struct {
	Status    Status    `json:"status"`
	Error     string    `json:"error,omitempty"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Pipeline resolves, fetches and aggregates weather for a query.
type Pipeline interface {
	Lookup(ctx context.Context, q weather.Query, unit weather.UnitSystem) (weather.WeatherSnapshot, error)
	GetLatest(city string) (weather.WeatherSnapshot, error)
	GetRange(city string, from, to time.Time) ([]weather.WeatherSnapshot, error)
}

// FavoritesStore persists the favorites list as one record.
type FavoritesStore interface {
	Load(ctx context.Context) ([]string, error)
	Save(ctx context.Context, cities []string) error
}

// RefreshTimer is restarted whenever the favorites set is replaced.
type RefreshTimer interface {
	Restart() error
}

// View is a copy of the session state for the presentation layer.
type View struct {
	RecentSearches []string                 `json:"recentSearches"`
	Favorites      []string                 `json:"favorites"`
	Unit           weather.UnitSystem       `json:"unit"`
	LastSnapshot   *weather.WeatherSnapshot `json:"lastSnapshot,omitempty"`
	LastError      string                   `json:"lastError,omitempty"`
}

// State is the session state manager. All mutations go through its methods.
type State struct {
	mu sync.Mutex

	pipeline  Pipeline
	favStore  FavoritesStore
	timer     RefreshTimer
	logger    *slog.Logger
	now       func() time.Time
	recent    []string
	favorites []string
	unit      weather.UnitSystem
	last      *weather.WeatherSnapshot
	lastErr   string
	queries   map[string]QueryState
}

// Option configures a State.
type Option func(*State)

// WithLogger sets the session logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *State) {
		s.logger = logger
	}
}

// WithClock overrides the clock used for query state timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *State) {
		s.now = now
	}
}

// New creates the session and loads favorites from favStore. A load failure
// is logged and the session starts with no favorites.
func New(ctx context.Context, pipeline Pipeline, favStore FavoritesStore, unit weather.UnitSystem, opts ...Option) *State {
	if !unit.Valid() {
		unit = weather.Metric
	}
	s := &State{
		pipeline:  pipeline,
		favStore:  favStore,
		logger:    slog.Default(),
		now:       time.Now,
		recent:    []string{},
		favorites: []string{},
		unit:      unit,
		queries:   make(map[string]QueryState),
	}
	for _, opt := range opts {
		opt(s)
	}

	if favStore != nil {
		favs, err := favStore.Load(ctx)
		if err != nil {
			s.logger.Warn("could not load favorites; starting with none", "error", err)
		} else {
			s.favorites = dedupe(favs)
		}
	}
	return s
}

// AttachTimer sets the timer restarted by ReplaceFavorites.
func (s *State) AttachTimer(t RefreshTimer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timer = t
}

// FetchWeather runs a user-initiated query by city name.
func (s *State) FetchWeather(ctx context.Context, city string) (weather.WeatherSnapshot, error) {
	q := weather.TextQuery(city)
	if q.Text == "" {
		return weather.WeatherSnapshot{}, weather.ErrEmptyQuery
	}
	return s.run(ctx, q, q.Text, false)
}

// FetchWeatherAt runs a user-initiated query for a geolocated coordinate pair.
func (s *State) FetchWeatherAt(ctx context.Context, lat, lon float64) (weather.WeatherSnapshot, error) {
	q := weather.CoordinateQuery(lat, lon)
	return s.run(ctx, q, coordKey(lat, lon), false)
}

// Refresh re-runs the pipeline for a favorite. Failures are returned to the
// caller but never recorded as user-visible errors.
func (s *State) Refresh(ctx context.Context, city string) error {
	_, err := s.run(ctx, weather.TextQuery(city), city, true)
	return err
}

func (s *State) run(ctx context.Context, q weather.Query, key string, background bool) (weather.WeatherSnapshot, error) {
	s.mu.Lock()
	unit := s.unit
	if !background {
		s.queries[key] = QueryState{Status: StatusLoading, UpdatedAt: s.now()}
	}
	s.mu.Unlock()

	snapshot, err := s.pipeline.Lookup(ctx, q, unit)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		if !background {
			s.queries[key] = QueryState{Status: StatusFailed, Error: err.Error(), UpdatedAt: s.now()}
			s.lastErr = userMessage(err)
		}
		return weather.WeatherSnapshot{}, err
	}

	entry := snapshot.Location.DisplayName
	if entry == "" {
		entry = q.Text
	}
	s.recent = pushRecent(s.recent, entry)
	s.last = &snapshot
	if !background {
		s.queries[key] = QueryState{Status: StatusReady, UpdatedAt: s.now()}
		s.lastErr = ""
	}
	return snapshot, nil
}

// ToggleFavorite removes city if present, otherwise appends it, and persists
// the new list immediately. It reports whether city is a favorite afterwards.
// A persistence failure is returned wrapped in weather.ErrPersistence; the
// in-memory toggle still applies.
func (s *State) ToggleFavorite(ctx context.Context, city string) (bool, error) {
	city = strings.TrimSpace(city)
	if city == "" {
		return false, weather.ErrEmptyQuery
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]string, 0, len(s.favorites)+1)
	removed := false
	for _, c := range s.favorites {
		if c == city {
			removed = true
			continue
		}
		next = append(next, c)
	}
	if !removed {
		next = append(next, city)
	}
	s.favorites = next

	return !removed, s.persistLocked(ctx)
}

// ReplaceFavorites replaces the whole favorites set, persists it and restarts
// the refresh timer.
func (s *State) ReplaceFavorites(ctx context.Context, cities []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.favorites = dedupe(cities)
	err := s.persistLocked(ctx)

	if s.timer != nil {
		if terr := s.timer.Restart(); terr != nil {
			s.logger.Error("could not restart favorites refresh", "error", terr)
			err = errors.Join(err, terr)
		}
	}
	return err
}

func (s *State) persistLocked(ctx context.Context) error {
	if s.favStore == nil {
		return nil
	}
	if err := s.favStore.Save(ctx, slices.Clone(s.favorites)); err != nil {
		s.logger.Warn("favorites kept in memory only", "error", err)
		if !errors.Is(err, weather.ErrPersistence) {
			err = fmt.Errorf("%w: %w", weather.ErrPersistence, err)
		}
		return err
	}
	return nil
}

// SetUnitSystem switches the active unit. When the unit changes and a
// snapshot is shown, the last location is fetched again under the new unit
// and the new snapshot is returned. Favorites and recent searches are not
// touched by the switch itself.
func (s *State) SetUnitSystem(ctx context.Context, unit weather.UnitSystem) (*weather.WeatherSnapshot, error) {
	if !unit.Valid() {
		return nil, fmt.Errorf("unknown unit system %q", unit)
	}

	s.mu.Lock()
	if s.unit == unit {
		s.mu.Unlock()
		return nil, nil
	}
	s.unit = unit
	var city string
	if s.last != nil {
		city = s.last.Location.DisplayName
	}
	s.mu.Unlock()

	if city == "" {
		return nil, nil
	}
	snapshot, err := s.run(ctx, weather.TextQuery(city), city, false)
	if err != nil {
		return nil, err
	}
	return &snapshot, nil
}

// Unit returns the active unit system.
func (s *State) Unit() weather.UnitSystem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unit
}

// Favorites returns a copy of the current favorites, in insertion order.
func (s *State) Favorites() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.favorites)
}

// IsFavorite reports whether city is a favorite.
func (s *State) IsFavorite(city string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Contains(s.favorites, city)
}

// RecentSearches returns a copy of the recent searches, most recent first.
func (s *State) RecentSearches() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.recent)
}

// LastSnapshot returns the snapshot of the last successful fetch, if any.
func (s *State) LastSnapshot() (weather.WeatherSnapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return weather.WeatherSnapshot{}, false
	}
	return *s.last, true
}

// SnapshotFor returns the last known good snapshot for a city.
func (s *State) SnapshotFor(city string) (weather.WeatherSnapshot, error) {
	return s.pipeline.GetLatest(city)
}

// HistoryFor returns the retained snapshots of a city fetched between from
// and to, oldest first.
func (s *State) HistoryFor(city string, from, to time.Time) ([]weather.WeatherSnapshot, error) {
	if to.Before(from) {
		return nil, fmt.Errorf("history range ends before it starts")
	}
	return s.pipeline.GetRange(city, from, to)
}

// QueryStatus returns the state of a query key; unknown keys are idle.
func (s *State) QueryStatus(key string) QueryState {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.queries[key]; ok {
		return st
	}
	return QueryState{Status: StatusIdle}
}

// View returns a copy of the session state.
func (s *State) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := View{
		RecentSearches: slices.Clone(s.recent),
		Favorites:      slices.Clone(s.favorites),
		Unit:           s.unit,
		LastError:      s.lastErr,
	}
	if s.last != nil {
		snap := *s.last
		v.LastSnapshot = &snap
	}
	return v
}

// pushRecent prepends entry, drops any other occurrence of it and truncates
// to MaxRecentSearches.
func pushRecent(recent []string, entry string) []string {
	if entry == "" {
		return recent
	}
	next := make([]string, 0, MaxRecentSearches)
	next = append(next, entry)
	for _, r := range recent {
		if len(next) == MaxRecentSearches {
			break
		}
		if r != entry {
			next = append(next, r)
		}
	}
	return next
}

func dedupe(cities []string) []string {
	out := make([]string, 0, len(cities))
	for _, c := range cities {
		c = strings.TrimSpace(c)
		if c != "" && !slices.Contains(out, c) {
			out = append(out, c)
		}
	}
	return out
}

func coordKey(lat, lon float64) string {
	return fmt.Sprintf("%.4f,%.4f", lat, lon)
}

func userMessage(err error) string {
	switch weather.Classify(err) {
	case weather.ErrNotFound:
		return "city not found"
	case weather.ErrUpstreamUnavailable:
		return "weather service unreachable"
	default:
		return "weather information unavailable"
	}
}
