package scheduler

import (
	"time"

	"github.com/go-co-op/gocron"

	"github.com/i474232898/swissweather/internal/cache"
	"github.com/i474232898/swissweather/internal/logger"
)

// Scheduler periodically sweeps expired state: cached responses and idle rate-limit buckets.
type Scheduler struct {
	scheduler *gocron.Scheduler
	sweepers  []cache.Sweeper
	interval  time.Duration
	log       *logger.Logger
}

// New creates a new Scheduler. With no sweepers Start is a no-op.
func New(interval time.Duration, log *logger.Logger, sweepers ...cache.Sweeper) *Scheduler {
	if log == nil {
		log = logger.Discard()
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		sweepers:  sweepers,
		interval:  interval,
		log:       log,
	}
}

// Start schedules the sweep job and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	if len(s.sweepers) == 0 {
		s.log.Info("scheduler: nothing to sweep; not scheduling")
		return nil
	}

	interval := s.interval
	if interval <= 0 {
		interval = 10 * time.Minute
	}

	_, err := s.scheduler.Every(interval).WaitForSchedule().Do(s.RunOnce)
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// RunOnce runs every sweeper immediately and returns the total number of removed entries.
func (s *Scheduler) RunOnce() int {
	total := 0
	for _, sw := range s.sweepers {
		total += sw.Sweep()
	}
	s.log.Debug("scheduler: sweep completed", "removed", total)
	return total
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
