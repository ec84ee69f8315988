package domain

import (
	"context"
	"errors"
	"time"
)

var ErrJobNotFound = errors.New("job not found")

// JobKind identifies what an on-demand job does.
type JobKind string

const (
	// JobGeneratePost generates a draft post for a user immediately.
	JobGeneratePost JobKind = "generate_post"
	// JobPublishPost pushes an existing post to the user's CMS immediately.
	JobPublishPost JobKind = "publish_post"
)

// JobStatus tracks a job through the queue for observability.
type JobStatus string

const (
	JobQueued     JobStatus = "queued"
	JobProcessing JobStatus = "processing"
	JobCompleted  JobStatus = "completed"
	JobFailed     JobStatus = "failed"
	JobRetrying   JobStatus = "retrying"
)

// Job is one user-triggered unit of work. Unlike the clock-driven path,
// failed jobs are re-invoked by the queue's bounded retry policy.
type Job struct {
	ID          string     `json:"id"`
	Kind        JobKind    `json:"kind"`
	Status      JobStatus  `json:"status"`
	UserID      string     `json:"user_id"`
	PostID      string     `json:"post_id,omitempty"`
	Attempts    int        `json:"attempts"`
	LastError   string     `json:"last_error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// IJobRepository records job outcomes for observability.
type IJobRepository interface {
	Create(ctx context.Context, job *Job) error
	Update(ctx context.Context, job *Job) error
	GetByID(ctx context.Context, id string) (*Job, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]*Job, error)
}
