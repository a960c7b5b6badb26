package scheduler

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRefresher struct {
	mu        sync.Mutex
	favorites []string
	failing   map[string]bool
	refreshed []string
}

func (f *fakeRefresher) Favorites() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.favorites...)
}

func (f *fakeRefresher) Refresh(_ context.Context, city string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing[city] {
		return errors.New("weather information unavailable")
	}
	f.refreshed = append(f.refreshed, city)
	return nil
}

func TestRunOnceIsolatesFailures(t *testing.T) {
	r := &fakeRefresher{
		favorites: []string{"Izmir", "Istanbul", "Ankara"},
		failing:   map[string]bool{"Istanbul": true},
	}
	s := New(r, time.Hour, nil)

	s.RunOnce(context.Background())

	sort.Strings(r.refreshed)
	assert.Equal(t, []string{"Ankara", "Izmir"}, r.refreshed)
}

func TestRunOnceRereadsFavorites(t *testing.T) {
	r := &fakeRefresher{favorites: []string{"Izmir"}}
	s := New(r, time.Hour, nil)

	s.RunOnce(context.Background())
	r.mu.Lock()
	r.favorites = []string{"Bursa"}
	r.mu.Unlock()
	s.RunOnce(context.Background())

	assert.Equal(t, []string{"Izmir", "Bursa"}, r.refreshed)
}

func TestRunOnceNoFavorites(t *testing.T) {
	r := &fakeRefresher{}
	New(r, time.Hour, nil).RunOnce(context.Background())
	assert.Empty(t, r.refreshed)
}

func TestStartRestartStop(t *testing.T) {
	r := &fakeRefresher{favorites: []string{"Izmir"}}
	s := New(r, time.Hour, nil)

	require.NoError(t, s.Start())
	defer s.Stop()
	require.Len(t, s.scheduler.Jobs(), 1)

	require.NoError(t, s.Restart())
	require.NoError(t, s.Restart())
	assert.Len(t, s.scheduler.Jobs(), 1)

	// The first tick is a full interval away.
	assert.Empty(t, r.refreshed)
}
