package domain

import (
	"context"
	"errors"
)

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrTargetNotFound       = errors.New("publishing target not found")
	ErrSubscriptionNotFound = errors.New("subscription not found")
)

// SchedulingCandidate bundles everything the scheduler needs for one user:
// identity, raw schedule preference, publishing target and active plan.
// The week schedule is still unparsed at this point; parse failures are
// handled per-user by the scheduler, never at load time.
type SchedulingCandidate struct {
	User       User
	Preference SchedulePreference
	Target     PublishingTarget
	Plan       PlanTier
}

// IClientRepository provides read access to users, schedule preferences,
// publishing targets and subscriptions.
type IClientRepository interface {
	GetUser(ctx context.Context, id string) (*User, error)
	GetPublishingTarget(ctx context.Context, userID string) (*PublishingTarget, error)
	GetActiveSubscription(ctx context.Context, userID string) (*Subscription, error)

	// ListSchedulingCandidates returns all users with auto-publish enabled,
	// an active subscription and a present (not necessarily usable)
	// publishing target. Filtering happens at the source.
	ListSchedulingCandidates(ctx context.Context) ([]SchedulingCandidate, error)
}
