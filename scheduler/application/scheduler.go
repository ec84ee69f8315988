package application

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Scheduler owns the recurring trigger for orchestrator runs. It is a
// constructed, dependency-injected instance with an explicit Start/Shutdown
// lifecycle; fleet-wide correctness comes from the window lock inside the
// orchestrator, not from anything here.
type Scheduler struct {
	orchestrator *RunOrchestrator
	interval     time.Duration

	cron    *cron.Cron
	mu      sync.RWMutex
	running bool
	lastRun *RunStats
}

func NewScheduler(orchestrator *RunOrchestrator, interval time.Duration) *Scheduler {
	return &Scheduler{
		orchestrator: orchestrator,
		interval:     interval,
	}
}

// Start begins triggering runs every interval. The first run fires on the
// first tick, not immediately, so process start-up storms across a fleet
// don't all race the same window at once.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler already running")
	}

	s.cron = cron.New()
	spec := fmt.Sprintf("@every %s", s.interval)
	if _, err := s.cron.AddFunc(spec, func() { s.runOnce(ctx) }); err != nil {
		return fmt.Errorf("register scheduler trigger %q: %w", spec, err)
	}

	s.cron.Start()
	s.running = true
	logrus.Infof("[SCHEDULER] Started, running every %s", s.interval)
	return nil
}

// Shutdown stops the trigger and waits for an in-flight run to finish.
func (s *Scheduler) Shutdown() {
	s.mu.Lock()
	cronInstance := s.cron
	s.running = false
	s.cron = nil
	s.mu.Unlock()

	if cronInstance == nil {
		return
	}

	stopCtx := cronInstance.Stop()
	<-stopCtx.Done()
	logrus.Info("[SCHEDULER] Stopped")
}

// RunNow triggers a single orchestrator pass outside the cron cadence.
// Used by the ops surface and tests.
func (s *Scheduler) RunNow(ctx context.Context) (RunStats, error) {
	return s.runOnce(ctx)
}

func (s *Scheduler) runOnce(ctx context.Context) (RunStats, error) {
	stats, err := s.orchestrator.Run(ctx, time.Now())
	if err != nil {
		logrus.WithError(err).Error("[SCHEDULER] Run failed")
	}

	s.mu.Lock()
	s.lastRun = &stats
	s.mu.Unlock()
	return stats, err
}

// IsRunning reports whether the trigger is active.
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// LastRun returns the most recent run's stats, or nil before the first run.
func (s *Scheduler) LastRun() *RunStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.lastRun == nil {
		return nil
	}
	statsCopy := *s.lastRun
	return &statsCopy
}
