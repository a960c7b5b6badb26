package store

import (
	"fmt"
	"sync"
	"time"

	"github.com/i474232898/weather-dashboard/internal/weather"
)

// ErrNotFound is returned when no snapshot is available for a given city.
// It matches weather.ErrNotFound under errors.Is.
var ErrNotFound = fmt.Errorf("no weather snapshot for city: %w", weather.ErrNotFound)

// SnapshotHistory holds the snapshots of one city in save order.
type SnapshotHistory struct {
	Snapshots []weather.WeatherSnapshot
}

// MemoryStore is a concurrency-safe in-memory implementation of weather.SnapshotStore.
// Snapshots are keyed by the city display name, so refreshes of different
// cities never interfere and the latest completion for a city wins.
type MemoryStore struct {
	mu sync.RWMutex

	// key: city display name, value: history
	data map[string]*SnapshotHistory

	// retention configuration
	maxHistory int           // max number of snapshots per location
	maxAge     time.Duration // optional max age for snapshots
}

// NewMemoryStore creates a new MemoryStore with optional limits.
// If maxHistory is <= 0, it is treated as unlimited.
func NewMemoryStore(maxHistory int, maxAge time.Duration) *MemoryStore {
	return &MemoryStore{
		data:       make(map[string]*SnapshotHistory),
		maxHistory: maxHistory,
		maxAge:     maxAge,
	}
}

// SaveSnapshot appends a new snapshot for a city and enforces retention.
func (s *MemoryStore) SaveSnapshot(loc weather.Location, snapshot weather.WeatherSnapshot) {
	key := loc.Key()

	s.mu.Lock()
	defer s.mu.Unlock()

	history, ok := s.data[key]
	if !ok {
		history = &SnapshotHistory{}
		s.data[key] = history
	}

	history.Snapshots = append(history.Snapshots, snapshot)

	// Enforce retention by count.
	if s.maxHistory > 0 && len(history.Snapshots) > s.maxHistory {
		over := len(history.Snapshots) - s.maxHistory
		history.Snapshots = history.Snapshots[over:]
	}

	// Enforce retention by age.
	if s.maxAge > 0 {
		cutoff := time.Now().Add(-s.maxAge)
		i := 0
		for ; i < len(history.Snapshots); i++ {
			if history.Snapshots[i].FetchedAt.After(cutoff) || history.Snapshots[i].FetchedAt.Equal(cutoff) {
				break
			}
		}
		// The newest snapshot is always kept as the last known good one.
		if i >= len(history.Snapshots) {
			i = len(history.Snapshots) - 1
		}
		if i > 0 {
			history.Snapshots = history.Snapshots[i:]
		}
	}
}

// GetLatest returns the most recently saved snapshot for a city.
func (s *MemoryStore) GetLatest(key string) (weather.WeatherSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.data[key]
	if !ok || len(history.Snapshots) == 0 {
		return weather.WeatherSnapshot{}, ErrNotFound
	}
	return history.Snapshots[len(history.Snapshots)-1], nil
}

// GetRange returns all snapshots for a city fetched between from and to (inclusive).
func (s *MemoryStore) GetRange(key string, from, to time.Time) ([]weather.WeatherSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.data[key]
	if !ok || len(history.Snapshots) == 0 {
		return nil, ErrNotFound
	}

	var result []weather.WeatherSnapshot
	for _, snap := range history.Snapshots {
		if (snap.FetchedAt.Equal(from) || snap.FetchedAt.After(from)) &&
			(snap.FetchedAt.Equal(to) || snap.FetchedAt.Before(to)) {
			result = append(result, snap)
		}
	}

	if len(result) == 0 {
		return nil, ErrNotFound
	}

	return result, nil
}

var _ weather.SnapshotStore = (*MemoryStore)(nil)
