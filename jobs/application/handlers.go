package application

import (
	"context"
	"fmt"

	clientsDomain "github.com/blogsmith/blogsmith/clients/domain"
	contentDomain "github.com/blogsmith/blogsmith/content/domain"
	jobsDomain "github.com/blogsmith/blogsmith/jobs/domain"
	schedApp "github.com/blogsmith/blogsmith/scheduler/application"
	schedDomain "github.com/blogsmith/blogsmith/scheduler/domain"
)

// Handlers executes on-demand jobs by reusing the slot processor's
// generation/publishing primitives. Every handler validates its linked
// entities before calling out, and returns errors unwrapped so the worker's
// bounded retry policy can re-invoke.
type Handlers struct {
	clients   clientsDomain.IClientRepository
	posts     contentDomain.IPostRepository
	processor *schedApp.SlotProcessor
}

func NewHandlers(
	clients clientsDomain.IClientRepository,
	posts contentDomain.IPostRepository,
	processor *schedApp.SlotProcessor,
) *Handlers {
	return &Handlers{
		clients:   clients,
		posts:     posts,
		processor: processor,
	}
}

// Handle dispatches one job by kind. It may mutate the job (the generate
// handler records the created post's id).
func (h *Handlers) Handle(ctx context.Context, job *jobsDomain.Job) error {
	switch job.Kind {
	case jobsDomain.JobGeneratePost:
		return h.handleGenerate(ctx, job)
	case jobsDomain.JobPublishPost:
		return h.handlePublish(ctx, job)
	default:
		return fmt.Errorf("unknown job kind %q", job.Kind)
	}
}

func (h *Handlers) handleGenerate(ctx context.Context, job *jobsDomain.Job) error {
	candidate, err := h.loadCandidate(ctx, job.UserID)
	if err != nil {
		return err
	}

	post, err := h.processor.GenerateNow(ctx, *candidate)
	if err != nil {
		return err
	}

	job.PostID = post.ID
	return nil
}

func (h *Handlers) handlePublish(ctx context.Context, job *jobsDomain.Job) error {
	if job.PostID == "" {
		return fmt.Errorf("publish job %s has no post id", job.ID)
	}

	post, err := h.posts.GetByID(ctx, job.PostID)
	if err != nil {
		return fmt.Errorf("load post %s: %w", job.PostID, err)
	}
	if post.UserID != job.UserID {
		return fmt.Errorf("post %s does not belong to user %s", job.PostID, job.UserID)
	}

	candidate, err := h.loadCandidate(ctx, job.UserID)
	if err != nil {
		return err
	}

	return h.processor.PublishNow(ctx, *candidate, post)
}

// loadCandidate validates the linked entities an on-demand job needs: the
// user, their publishing target and an active subscription (for the plan
// tier driving template selection).
func (h *Handlers) loadCandidate(ctx context.Context, userID string) (*schedDomain.Candidate, error) {
	user, err := h.clients.GetUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load user %s: %w", userID, err)
	}

	target, err := h.clients.GetPublishingTarget(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load publishing target for %s: %w", userID, err)
	}

	sub, err := h.clients.GetActiveSubscription(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load subscription for %s: %w", userID, err)
	}

	return &schedDomain.Candidate{
		User:   *user,
		Target: *target,
		Plan:   sub.Plan,
	}, nil
}
