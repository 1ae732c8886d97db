package scheduler

import (
	"fmt"
	"log"

	"property-appraisal/internal/cleanup"
	"property-appraisal/internal/config"

	"github.com/robfig/cron/v3"
)

// Scheduler runs the daily orphan sweep
type Scheduler struct {
	cron      *cron.Cron
	cleanup   *cleanup.Service
	config    *config.Config
	isRunning bool
}

// NewScheduler creates a new scheduler
func NewScheduler(cleanupService *cleanup.Service, cfg *config.Config) *Scheduler {
	return &Scheduler{
		cron:    cron.New(),
		cleanup: cleanupService,
		config:  cfg,
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() error {
	if !s.config.Pipeline.SweepEnabled {
		log.Println("Scheduler: daily sweep is disabled in configuration")
		return nil
	}

	cronSpec := s.parseDailyRunTime(s.config.Pipeline.SweepTime)

	_, err := s.cron.AddFunc(cronSpec, func() {
		log.Println("Scheduler: starting daily orphan sweep...")
		if _, err := s.runSweep(); err != nil {
			log.Printf("Scheduler: daily sweep failed: %v", err)
		} else {
			log.Println("Scheduler: daily sweep completed successfully")
		}
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	s.isRunning = true
	log.Printf("Scheduler: started with daily sweep at %s (cron: %s)", s.config.Pipeline.SweepTime, cronSpec)

	return nil
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	if s.isRunning {
		s.cron.Stop()
		s.isRunning = false
		log.Println("Scheduler: stopped")
	}
}

func (s *Scheduler) runSweep() (*cleanup.SweepResult, error) {
	return s.cleanup.Sweep(cleanup.SweepConfig{
		Retention:        s.config.Pipeline.GetOrphanRetention(),
		MaxDeletionCount: s.config.Cleanup.MaxDeletionCount,
		DryRun:           s.config.Cleanup.DryRun,
	})
}

// RunNow immediately executes the sweep (for manual trigger)
func (s *Scheduler) RunNow() (*cleanup.SweepResult, error) {
	log.Println("Scheduler: manual trigger - starting orphan sweep...")
	return s.runSweep()
}

// parseDailyRunTime converts HH:MM format to cron specification
// Example: "03:00" -> "0 3 * * *" (run at 3:00 AM every day)
func (s *Scheduler) parseDailyRunTime(timeStr string) string {
	var hour, minute int
	n, _ := fmt.Sscanf(timeStr, "%d:%d", &hour, &minute)
	if n == 2 && hour >= 0 && hour <= 23 && minute >= 0 && minute <= 59 {
		return fmt.Sprintf("%d %d * * *", minute, hour)
	}

	log.Printf("Scheduler: failed to parse time '%s', using default 03:00", timeStr)
	return "0 3 * * *"
}
