package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/i474232898/weather-dashboard/internal/metrics"
)

// refreshTimeout bounds one favorite's pipeline run.
const refreshTimeout = 30 * time.Second

// Refresher is the session side of the background refresh. Favorites is
// re-read at every tick.
type Refresher interface {
	Favorites() []string
	Refresh(ctx context.Context, city string) error
}

// Scheduler periodically refreshes every favorite city.
type Scheduler struct {
	mu        sync.Mutex
	scheduler *gocron.Scheduler
	refresher Refresher
	interval  time.Duration
	logger    *slog.Logger
}

// New creates a new Scheduler.
func New(refresher Refresher, interval time.Duration, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	return &Scheduler{
		scheduler: s,
		refresher: refresher,
		interval:  interval,
		logger:    logger,
	}
}

// Start schedules the periodic job and starts the underlying scheduler.
// The first run happens one interval after Start.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.scheduleLocked(); err != nil {
		return err
	}
	s.scheduler.StartAsync()
	return nil
}

// Restart drops the pending tick and schedules a fresh one a full interval away.
func (s *Scheduler) Restart() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.scheduler.Clear()
	return s.scheduleLocked()
}

func (s *Scheduler) scheduleLocked() error {
	interval := s.interval
	if interval <= 0 {
		interval = 30 * time.Minute
	}
	_, err := s.scheduler.Every(interval).WaitForSchedule().Do(func() {
		s.RunOnce(context.Background())
	})
	return err
}

// RunOnce refreshes every current favorite concurrently and waits for all of
// them. A failing city is logged and does not affect the others.
func (s *Scheduler) RunOnce(ctx context.Context) {
	cities := s.refresher.Favorites()
	if len(cities) == 0 {
		s.logger.Debug("scheduler: no favorites to refresh")
		return
	}
	s.logger.Info("scheduler: refreshing favorites", "count", len(cities))

	var wg sync.WaitGroup
	for _, city := range cities {
		city := city
		wg.Add(1)
		go func() {
			defer wg.Done()

			ctx, cancel := context.WithTimeout(ctx, refreshTimeout)
			defer cancel()

			err := s.refresher.Refresh(ctx, city)
			metrics.ObserveRefresh(err)
			if err != nil {
				s.logger.Warn("scheduler: refresh failed", "city", city, "error", err)
			}
		}()
	}
	wg.Wait()
	s.logger.Info("scheduler: completed favorites refresh")
}

// Stop stops the scheduler and cancels any future runs.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
