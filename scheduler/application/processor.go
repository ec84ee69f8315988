package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	clientsDomain "github.com/blogsmith/blogsmith/clients/domain"
	contentDomain "github.com/blogsmith/blogsmith/content/domain"
	"github.com/blogsmith/blogsmith/pkg/timeutils"
	"github.com/blogsmith/blogsmith/scheduler/domain"
)

// PublisherFactory builds a publishing adapter bound to one user's target
// credentials. Injected so tests can substitute fakes per target.
type PublisherFactory func(target clientsDomain.PublishingTarget) domain.IPublisher

// ProcessorConfig tunes the slot processor.
type ProcessorConfig struct {
	// DefaultKeywords are attached to every generated post and passed to the
	// remote CMS as tags.
	DefaultKeywords []string
	// HistorySize is how many recent published posts feed generation as
	// style/context history.
	HistorySize int
	// MaxPublishAttempts caps publish retries across scheduled runs for one
	// post. Zero means retry indefinitely.
	MaxPublishAttempts int
}

// SlotProcessor executes the publish pipeline for one (user, time slot)
// pair: published-check, generate-or-reuse, publish-or-draft, persist,
// keyword attach, failure classification. It is also the home of the
// generation/publishing primitives the on-demand job handlers reuse.
type SlotProcessor struct {
	posts        contentDomain.IPostRepository
	keywords     contentDomain.IKeywordRepository
	generator    domain.IContentGenerator
	publisherFor PublisherFactory
	notifier     domain.INotifier
	cfg          ProcessorConfig
}

func NewSlotProcessor(
	posts contentDomain.IPostRepository,
	keywords contentDomain.IKeywordRepository,
	generator domain.IContentGenerator,
	publisherFor PublisherFactory,
	notifier domain.INotifier,
	cfg ProcessorConfig,
) *SlotProcessor {
	if cfg.HistorySize <= 0 {
		cfg.HistorySize = 3
	}
	return &SlotProcessor{
		posts:        posts,
		keywords:     keywords,
		generator:    generator,
		publisherFor: publisherFor,
		notifier:     notifier,
		cfg:          cfg,
	}
}

// ProcessSlot runs the pipeline for one due slot. The returned error is for
// the caller's logging only: the clock-driven orchestrator logs it and moves
// on to the next slot, it never aborts a run.
func (p *SlotProcessor) ProcessSlot(ctx context.Context, candidate domain.Candidate, slot domain.TimeSlot, runAt time.Time) error {
	user := candidate.User
	targetInstant := timeutils.TargetInstant(runAt, slot.Hour, slot.Minute)

	log := logrus.WithFields(logrus.Fields{
		"user_id": user.ID,
		"slot":    fmt.Sprintf("%s %s", slot.Weekday, slot.Raw),
		"target":  targetInstant.Format(time.RFC3339),
	})

	// 1. Idempotent re-entry protection: an already published post for this
	// (user, instant) pair means a previous run (or another instance behind
	// a re-acquired lock) finished the work.
	existing, err := p.posts.FindByUserAndScheduledFor(ctx, user.ID, targetInstant)
	if err != nil && !errors.Is(err, contentDomain.ErrPostNotFound) {
		return fmt.Errorf("look up post for %s at %s: %w", user.ID, targetInstant, err)
	}
	if existing != nil && existing.IsPublished() {
		log.Debug("[SCHEDULER] Post already published for this slot, skipping")
		return nil
	}

	// 2/3. Reuse an existing unpublished post instead of regenerating, so a
	// retried publish never bills a second generation.
	var title, body string
	if existing != nil {
		title, body = existing.Title, existing.Body
		log.Infof("[SCHEDULER] Reusing existing %s post %s", existing.Status, existing.ID)
	} else {
		title, body, err = p.generate(ctx, candidate)
		if err != nil {
			log.WithError(err).Error("[SCHEDULER] Content generation failed, aborting slot")
			return fmt.Errorf("generate content for %s: %w", user.ID, err)
		}
	}

	// 4. A target missing credentials is a deferred state, not an error:
	// keep the content as a draft and stop.
	if !candidate.Target.IsUsable() {
		if existing == nil {
			draft := &contentDomain.Post{
				UserID:       user.ID,
				Title:        title,
				Body:         body,
				Status:       contentDomain.PostStatusDraft,
				ScheduledFor: &targetInstant,
			}
			if err := p.createIgnoringDuplicate(ctx, draft, log); err != nil {
				return err
			}
			log.Info("[SCHEDULER] Publishing target not usable, content saved as draft")
		}
		return nil
	}

	// Retry cap for repeatedly failing publishes (product decision: bounded).
	if existing != nil && p.cfg.MaxPublishAttempts > 0 && existing.PublishAttempts >= p.cfg.MaxPublishAttempts {
		log.Warnf("[SCHEDULER] Post %s exhausted %d publish attempts, skipping", existing.ID, existing.PublishAttempts)
		return nil
	}

	// 5. Publish attempt.
	tags := p.tagsFor(ctx, existing)
	remote, pubErr := p.publisherFor(candidate.Target).Publish(ctx, domain.PublishParams{
		Title:  title,
		Body:   body,
		Status: "publish",
		Tags:   tags,
	})

	if pubErr != nil {
		return p.handlePublishFailure(ctx, candidate, existing, title, body, targetInstant, pubErr, log)
	}

	// Success: upsert the post to published and attach keywords.
	now := time.Now().UTC()
	post := existing
	if post == nil {
		post = &contentDomain.Post{
			UserID:       user.ID,
			ScheduledFor: &targetInstant,
		}
	}
	post.Title = title
	post.Body = body
	post.Status = contentDomain.PostStatusPublished
	post.PublishedAt = &now
	post.RemoteID = remote.ID
	post.RemoteURL = remote.URL
	post.LastError = ""
	post.PublishAttempts++

	if existing == nil {
		if err := p.createIgnoringDuplicate(ctx, post, log); err != nil {
			return err
		}
	} else if err := p.posts.Update(ctx, post); err != nil {
		return fmt.Errorf("persist published post %s: %w", post.ID, err)
	}

	p.attachKeywords(ctx, post.ID, tags, log)

	log.Infof("[SCHEDULER] Published post %s -> %s (remote id %d, %d words)",
		post.ID, post.RemoteURL, post.RemoteID, post.WordCount)
	return nil
}

// GenerateNow is the on-demand primitive behind the "generate a post now"
// job: it generates content for the user and persists it as a draft.
// Unlike the clock path, errors propagate so the job queue can retry.
func (p *SlotProcessor) GenerateNow(ctx context.Context, candidate domain.Candidate) (*contentDomain.Post, error) {
	title, body, err := p.generate(ctx, candidate)
	if err != nil {
		return nil, fmt.Errorf("generate content for %s: %w", candidate.User.ID, err)
	}

	post := &contentDomain.Post{
		UserID: candidate.User.ID,
		Title:  title,
		Body:   body,
		Status: contentDomain.PostStatusDraft,
	}
	if err := p.posts.Create(ctx, post); err != nil {
		return nil, fmt.Errorf("persist generated draft for %s: %w", candidate.User.ID, err)
	}

	p.attachKeywords(ctx, post.ID, p.cfg.DefaultKeywords, logrus.WithField("user_id", candidate.User.ID))
	return post, nil
}

// PublishNow is the on-demand primitive behind the "publish this post now"
// job. Errors propagate so the job queue's bounded retry can re-invoke.
func (p *SlotProcessor) PublishNow(ctx context.Context, candidate domain.Candidate, post *contentDomain.Post) error {
	if post.IsPublished() {
		return nil
	}
	if !candidate.Target.IsUsable() {
		return fmt.Errorf("publishing target for user %s is not usable", candidate.User.ID)
	}

	tags := p.tagsFor(ctx, post)
	remote, err := p.publisherFor(candidate.Target).Publish(ctx, domain.PublishParams{
		Title:  post.Title,
		Body:   post.Body,
		Status: "publish",
		Tags:   tags,
	})
	if err != nil {
		post.LastError = err.Error()
		post.PublishAttempts++
		if updateErr := p.posts.Update(ctx, post); updateErr != nil {
			logrus.WithError(updateErr).Errorf("[SCHEDULER] Failed to record publish error on post %s", post.ID)
		}
		if domain.IsCredentialError(err) {
			p.notifyCredentialFailure(ctx, candidate.User)
		}
		return fmt.Errorf("publish post %s: %w", post.ID, err)
	}

	now := time.Now().UTC()
	post.Status = contentDomain.PostStatusPublished
	post.PublishedAt = &now
	post.RemoteID = remote.ID
	post.RemoteURL = remote.URL
	post.LastError = ""
	post.PublishAttempts++
	if err := p.posts.Update(ctx, post); err != nil {
		return fmt.Errorf("persist published post %s: %w", post.ID, err)
	}

	p.attachKeywords(ctx, post.ID, tags, logrus.WithField("user_id", candidate.User.ID))
	return nil
}

// generate produces title and body via the generation adapter, feeding it
// the user's recent published posts as style history.
func (p *SlotProcessor) generate(ctx context.Context, candidate domain.Candidate) (title, body string, err error) {
	history, err := p.posts.ListRecentPublished(ctx, candidate.User.ID, p.cfg.HistorySize)
	if err != nil {
		// History is best-effort context; generation still works without it.
		logrus.WithError(err).Warnf("[SCHEDULER] Failed to load post history for %s", candidate.User.ID)
		history = nil
	}

	body, err = p.generator.GenerateContent(ctx, candidate.Target, candidate.Plan, p.cfg.DefaultKeywords, history)
	if err != nil {
		return "", "", err
	}

	title, err = p.generator.GenerateTitle(ctx, body, candidate.Plan)
	if err != nil {
		return "", "", err
	}

	return title, body, nil
}

// handlePublishFailure classifies the error, notifies on credential
// failures, and preserves the content so work is never lost.
func (p *SlotProcessor) handlePublishFailure(
	ctx context.Context,
	candidate domain.Candidate,
	existing *contentDomain.Post,
	title, body string,
	targetInstant time.Time,
	pubErr error,
	log *logrus.Entry,
) error {
	if domain.IsCredentialError(pubErr) {
		log.WithError(pubErr).Warn("[SCHEDULER] Publish rejected by remote CMS: credential failure")
		p.notifyCredentialFailure(ctx, candidate.User)
	} else {
		log.WithError(pubErr).Error("[SCHEDULER] Publish failed")
	}

	if existing == nil {
		failed := &contentDomain.Post{
			UserID:          candidate.User.ID,
			Title:           title,
			Body:            body,
			Status:          contentDomain.PostStatusFailed,
			ScheduledFor:    &targetInstant,
			LastError:       pubErr.Error(),
			PublishAttempts: 1,
		}
		if err := p.createIgnoringDuplicate(ctx, failed, log); err != nil {
			return err
		}
	} else {
		// Never regress an existing post's status; only record the failure.
		existing.LastError = pubErr.Error()
		existing.PublishAttempts++
		if err := p.posts.Update(ctx, existing); err != nil {
			log.WithError(err).Errorf("[SCHEDULER] Failed to record publish error on post %s", existing.ID)
		}
	}

	return fmt.Errorf("publish for %s at %s: %w", candidate.User.ID, targetInstant, pubErr)
}

// createIgnoringDuplicate inserts a post, treating a (user, instant)
// uniqueness conflict as "another process already wrote this" rather than
// a failure.
func (p *SlotProcessor) createIgnoringDuplicate(ctx context.Context, post *contentDomain.Post, log *logrus.Entry) error {
	err := p.posts.Create(ctx, post)
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		log.Warn("[SCHEDULER] Concurrent insert detected for this slot, keeping the winner's row")
		return nil
	}
	return fmt.Errorf("persist post for %s: %w", post.UserID, err)
}

// tagsFor returns the keyword list for a publish call: an existing post's
// attached keywords when reusing, otherwise the configured defaults.
func (p *SlotProcessor) tagsFor(ctx context.Context, existing *contentDomain.Post) []string {
	if existing != nil && existing.ID != "" {
		attached, err := p.keywords.ListByPost(ctx, existing.ID)
		if err == nil && len(attached) > 0 {
			tags := make([]string, len(attached))
			for i, kw := range attached {
				tags[i] = kw.Name
			}
			return tags
		}
	}
	return p.cfg.DefaultKeywords
}

func (p *SlotProcessor) attachKeywords(ctx context.Context, postID string, tags []string, log *logrus.Entry) {
	for _, tag := range tags {
		if err := p.keywords.Attach(ctx, postID, tag); err != nil {
			log.WithError(err).Warnf("[SCHEDULER] Failed to attach keyword %q to post %s", tag, postID)
		}
	}
}

// notifyCredentialFailure alerts the user about a broken integration.
// Best-effort: a notifier failure is logged, never propagated.
func (p *SlotProcessor) notifyCredentialFailure(ctx context.Context, user clientsDomain.User) {
	if p.notifier == nil {
		return
	}
	if err := p.notifier.SendCredentialErrorEmail(ctx, user); err != nil {
		logrus.WithError(err).Errorf("[SCHEDULER] Failed to send credential error email to %s", user.Email)
	}
}
