package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/google/uuid"

	"github.com/i474232898/station-climate/internal/climate"
)

// Refresher re-reads a station from its source.
type Refresher interface {
	Refresh(ctx context.Context, stationID string) error
}

// Scheduler periodically refreshes observations for configured cities.
type Scheduler struct {
	scheduler *gocron.Scheduler
	service   Refresher
	cities    []climate.City
	interval  time.Duration
	timeout   time.Duration
}

// New creates a new Scheduler.
func New(cities []climate.City, interval time.Duration, service Refresher) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	return &Scheduler{
		scheduler: s,
		service:   service,
		cities:    cities,
		interval:  interval,
		timeout:   5 * time.Minute,
	}
}

// Start schedules the periodic job and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	if len(s.cities) == 0 {
		slog.Info("scheduler: no cities configured; nothing to schedule")
		return nil
	}

	minutes := int(s.interval.Minutes())
	if minutes <= 0 {
		minutes = 24 * 60
	}

	_, err := s.scheduler.Every(minutes).Minutes().Do(func() {
		s.RunOnce()
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// RunOnce refreshes every configured city concurrently and waits for all of them.
// It returns the number of stations that failed.
func (s *Scheduler) RunOnce() int {
	log := slog.With("run_id", uuid.NewString())
	log.Info("scheduler: running observation refresh job", "cities", len(s.cities))

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		failed int
	)
	for _, city := range s.cities {
		wg.Add(1)
		go func() {
			defer wg.Done()

			ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
			defer cancel()

			if err := s.service.Refresh(ctx, city.StationID); err != nil {
				log.Error("scheduler: refresh failed", "city", city.Key, "station", city.StationID, "err", err)
				mu.Lock()
				failed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	log.Info("scheduler: completed observation refresh job", "failed", failed)
	return failed
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
