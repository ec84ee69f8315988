package application

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	clientsDomain "github.com/blogsmith/blogsmith/clients/domain"
	"github.com/blogsmith/blogsmith/scheduler/domain"
)

func newIdleScheduler() *Scheduler {
	clients := &fakeClientRepo{}
	locks := &recordingLockProvider{inner: newMapLockProvider()}
	orchestrator := newTestOrchestrator(clients, locks, &fakePublisher{})
	return NewScheduler(orchestrator, time.Hour)
}

func TestSchedulerLifecycle(t *testing.T) {
	scheduler := newIdleScheduler()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	assert.False(t, scheduler.IsRunning())
	require.NoError(t, scheduler.Start(ctx))
	assert.True(t, scheduler.IsRunning())

	// Double start must be rejected.
	require.Error(t, scheduler.Start(ctx))

	scheduler.Shutdown()
	assert.False(t, scheduler.IsRunning())

	// Shutdown is idempotent.
	scheduler.Shutdown()
}

func TestRunNowRecordsLastRun(t *testing.T) {
	scheduler := newIdleScheduler()

	require.Nil(t, scheduler.LastRun())

	stats, err := scheduler.RunNow(context.Background())
	require.NoError(t, err)
	assert.False(t, stats.LockSkipped)

	last := scheduler.LastRun()
	require.NotNil(t, last)
	assert.Equal(t, stats.StartedAt, last.StartedAt)

	// The returned copy is detached from internal state.
	last.Processed = 999
	assert.NotEqual(t, last.Processed, scheduler.LastRun().Processed)
}

func TestRunNowStillGuardedByWindowLock(t *testing.T) {
	clients := &fakeClientRepo{candidates: []clientsDomain.SchedulingCandidate{
		candidateWithSchedule("user-1", `{"monday":["09:00"]}`),
	}}
	locks := &recordingLockProvider{inner: newMapLockProvider(), denyAll: true}
	pub := &fakePublisher{remote: &domain.RemotePost{ID: 1}}
	scheduler := NewScheduler(newTestOrchestrator(clients, locks, pub), time.Hour)

	stats, err := scheduler.RunNow(context.Background())
	require.NoError(t, err)
	assert.True(t, stats.LockSkipped)
	assert.Zero(t, pub.calls)
}
