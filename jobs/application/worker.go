package application

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/blogsmith/blogsmith/jobs/domain"
)

// WorkerConfig tunes the on-demand job worker.
type WorkerConfig struct {
	QueueSize   int
	MaxAttempts int
	RetryDelay  time.Duration
}

// Worker consumes on-demand jobs from an in-process queue, recording each
// status transition (queued -> processing -> completed/failed/retrying) in
// the job repository. Handlers return their errors, and the worker's
// bounded retry policy re-enqueues until MaxAttempts is exhausted. The
// clock-driven scheduler path never retries within a run; this path does.
type Worker struct {
	repo     domain.IJobRepository
	handlers *Handlers
	cfg      WorkerConfig

	queue    chan string // job ids
	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func NewWorker(repo domain.IJobRepository, handlers *Handlers, cfg WorkerConfig) *Worker {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 100
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 30 * time.Second
	}
	return &Worker{
		repo:     repo,
		handlers: handlers,
		cfg:      cfg,
		queue:    make(chan string, cfg.QueueSize),
		done:     make(chan struct{}),
	}
}

// Start launches the consumer loop. Processing is sequential: on-demand
// work shares the same downstream CMS/AI rate budget as the scheduler.
func (w *Worker) Start(ctx context.Context) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case <-w.done:
				// Drain what is already queued, then exit.
				for {
					select {
					case jobID := <-w.queue:
						w.processJob(ctx, jobID)
					default:
						return
					}
				}
			case jobID := <-w.queue:
				w.processJob(ctx, jobID)
			}
		}
	}()
	logrus.Infof("[JOBS] Worker started (queue %d, max attempts %d)", w.cfg.QueueSize, w.cfg.MaxAttempts)
}

// Stop signals shutdown and waits for queued work and retry timers.
func (w *Worker) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
	})
	w.wg.Wait()
	logrus.Info("[JOBS] Worker stopped")
}

// Enqueue persists a new job and hands it to the consumer. A full queue is
// surfaced to the caller instead of blocking a request goroutine.
func (w *Worker) Enqueue(ctx context.Context, job *domain.Job) error {
	select {
	case <-w.done:
		return fmt.Errorf("worker is stopped")
	default:
	}

	job.Status = domain.JobQueued
	if err := w.repo.Create(ctx, job); err != nil {
		return fmt.Errorf("persist job: %w", err)
	}

	select {
	case w.queue <- job.ID:
		return nil
	default:
		job.Status = domain.JobFailed
		job.LastError = "job queue full"
		if err := w.repo.Update(ctx, job); err != nil {
			logrus.WithError(err).Errorf("[JOBS] Failed to mark job %s as rejected", job.ID)
		}
		return fmt.Errorf("job queue full")
	}
}

func (w *Worker) processJob(ctx context.Context, jobID string) {
	job, err := w.repo.GetByID(ctx, jobID)
	if err != nil {
		logrus.WithError(err).Errorf("[JOBS] Failed to load job %s", jobID)
		return
	}

	job.Status = domain.JobProcessing
	job.Attempts++
	if err := w.repo.Update(ctx, job); err != nil {
		logrus.WithError(err).Errorf("[JOBS] Failed to mark job %s as processing", job.ID)
	}

	logrus.Infof("[JOBS] Processing job %s (%s, attempt %d/%d)", job.ID, job.Kind, job.Attempts, w.cfg.MaxAttempts)

	handleErr := w.handleSafely(ctx, job)
	now := time.Now().UTC()

	if handleErr == nil {
		job.Status = domain.JobCompleted
		job.LastError = ""
		job.CompletedAt = &now
		if err := w.repo.Update(ctx, job); err != nil {
			logrus.WithError(err).Errorf("[JOBS] Failed to mark job %s as completed", job.ID)
		}
		logrus.Infof("[JOBS] Job %s completed", job.ID)
		return
	}

	job.LastError = handleErr.Error()

	if job.Attempts >= w.cfg.MaxAttempts {
		job.Status = domain.JobFailed
		job.CompletedAt = &now
		if err := w.repo.Update(ctx, job); err != nil {
			logrus.WithError(err).Errorf("[JOBS] Failed to mark job %s as failed", job.ID)
		}
		logrus.WithError(handleErr).Errorf("[JOBS] Job %s failed after %d attempts", job.ID, job.Attempts)
		return
	}

	job.Status = domain.JobRetrying
	if err := w.repo.Update(ctx, job); err != nil {
		logrus.WithError(err).Errorf("[JOBS] Failed to mark job %s as retrying", job.ID)
	}
	logrus.WithError(handleErr).Warnf("[JOBS] Job %s failed, retrying in %s", job.ID, w.cfg.RetryDelay)

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		select {
		case <-ctx.Done():
		case <-w.done:
		case <-time.After(w.cfg.RetryDelay):
			select {
			case w.queue <- job.ID:
			default:
				logrus.Errorf("[JOBS] Queue full, dropping retry of job %s", job.ID)
			}
		}
	}()
}

// handleSafely isolates handler panics so a bad job cannot kill the worker.
func (w *Worker) handleSafely(ctx context.Context, job *domain.Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job handler panicked: %v", r)
		}
	}()
	return w.handlers.Handle(ctx, job)
}
