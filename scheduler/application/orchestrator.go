package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	clientsDomain "github.com/blogsmith/blogsmith/clients/domain"
	"github.com/blogsmith/blogsmith/pkg/timeutils"
	"github.com/blogsmith/blogsmith/scheduler/domain"
)

// LockJobName is the job component of the window lock key.
const LockJobName = "auto-publish"

// OrchestratorConfig tunes one scheduler run.
type OrchestratorConfig struct {
	LockTTL        time.Duration
	InterSlotDelay time.Duration
}

// RunStats summarizes the outcome of one run for the ops endpoint.
type RunStats struct {
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`
	LockSkipped bool      `json:"lock_skipped"`
	Candidates  int       `json:"candidates"`
	Matched     int       `json:"matched"`
	Processed   int       `json:"processed"`
	Failed      int       `json:"failed"`
}

// RunOrchestrator ties lock acquisition, candidate loading, window matching
// and per-slot processing into one clock-driven run.
type RunOrchestrator struct {
	locks     domain.ILockProvider
	clients   clientsDomain.IClientRepository
	processor *SlotProcessor
	cfg       OrchestratorConfig
}

func NewRunOrchestrator(
	locks domain.ILockProvider,
	clients clientsDomain.IClientRepository,
	processor *SlotProcessor,
	cfg OrchestratorConfig,
) *RunOrchestrator {
	return &RunOrchestrator{
		locks:     locks,
		clients:   clients,
		processor: processor,
		cfg:       cfg,
	}
}

// Run executes one scheduler pass for the window containing now.
// Losing the window lock is an expected condition, not an error: the run is
// simply skipped. The lock is always released, even on a panic inside the
// slot loop.
func (o *RunOrchestrator) Run(ctx context.Context, now time.Time) (stats RunStats, err error) {
	now = now.UTC()
	stats.StartedAt = now

	lockKey := fmt.Sprintf("locks:%s-%s", LockJobName, timeutils.WindowKey(now))

	lock, lockErr := o.locks.Acquire(ctx, lockKey, o.cfg.LockTTL)
	if lockErr != nil {
		if errors.Is(lockErr, domain.ErrLockHeld) {
			logrus.Warnf("[SCHEDULER] Window %s already claimed by another instance, skipping run", lockKey)
			stats.LockSkipped = true
			stats.FinishedAt = time.Now().UTC()
			return stats, nil
		}
		stats.FinishedAt = time.Now().UTC()
		return stats, fmt.Errorf("acquire window lock %s: %w", lockKey, lockErr)
	}

	defer func() {
		if r := recover(); r != nil {
			logrus.Errorf("[SCHEDULER] Run panicked: %v", r)
			err = fmt.Errorf("scheduler run panicked: %v", r)
		}
		o.locks.Release(ctx, lock)
		stats.FinishedAt = time.Now().UTC()
	}()

	candidates, loadErr := o.loadCandidates(ctx)
	if loadErr != nil {
		return stats, fmt.Errorf("load scheduling candidates: %w", loadErr)
	}
	stats.Candidates = len(candidates)

	due := MatchDue(candidates, timeutils.WeekdayName(now.Weekday()), now.Hour())
	stats.Matched = len(due)

	if len(due) == 0 {
		// Nothing to do: don't sit on the lock for the full TTL.
		logrus.Debugf("[SCHEDULER] No slots due in window %s", lockKey)
		return stats, nil
	}

	logrus.Infof("[SCHEDULER] Window %s: %d candidates, %d due slots", lockKey, len(candidates), len(due))

	for i, item := range due {
		if ctx.Err() != nil {
			logrus.Warn("[SCHEDULER] Run canceled mid-window")
			break
		}

		if procErr := o.processSlotSafely(ctx, item, now); procErr != nil {
			stats.Failed++
		}
		stats.Processed++

		// Throttle downstream CMS/AI calls between slots.
		if o.cfg.InterSlotDelay > 0 && i < len(due)-1 {
			select {
			case <-ctx.Done():
			case <-time.After(o.cfg.InterSlotDelay):
			}
		}
	}

	logrus.Infof("[SCHEDULER] Window %s completed: %d processed, %d failed",
		lockKey, stats.Processed, stats.Failed)
	return stats, nil
}

// loadCandidates fetches raw candidate rows and parses each user's schedule.
// A malformed schedule excludes only that user from this run.
func (o *RunOrchestrator) loadCandidates(ctx context.Context) ([]domain.Candidate, error) {
	rows, err := o.clients.ListSchedulingCandidates(ctx)
	if err != nil {
		return nil, err
	}

	candidates := make([]domain.Candidate, 0, len(rows))
	for _, row := range rows {
		schedule, parseErr := domain.ParseWeekSchedule(row.Preference.RawWeekSchedule)
		if parseErr != nil {
			logrus.WithError(parseErr).Warnf("[SCHEDULER] Skipping user %s: unparseable schedule", row.User.ID)
			continue
		}
		candidates = append(candidates, domain.Candidate{
			User:     row.User,
			Schedule: schedule,
			Target:   row.Target,
			Plan:     row.Plan,
		})
	}

	return candidates, nil
}

// processSlotSafely isolates one slot: a panic or error in one user's
// pipeline never blocks the remaining slots.
func (o *RunOrchestrator) processSlotSafely(ctx context.Context, item DueSlot, runAt time.Time) (err error) {
	defer func() {
		if r := recover(); r != nil {
			logrus.Errorf("[SCHEDULER] Slot processing panicked for user %s (%s %s): %v",
				item.Candidate.User.ID, item.Slot.Weekday, item.Slot.Raw, r)
			err = fmt.Errorf("slot panicked: %v", r)
		}
	}()

	if err := o.processor.ProcessSlot(ctx, item.Candidate, item.Slot, runAt); err != nil {
		logrus.WithError(err).Errorf("[SCHEDULER] Slot failed for user %s (%s %s)",
			item.Candidate.User.ID, item.Slot.Weekday, item.Slot.Raw)
		return err
	}
	return nil
}
