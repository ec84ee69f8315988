package domain

import (
	"context"
	"errors"
	"strings"
	"time"

	clientsDomain "github.com/blogsmith/blogsmith/clients/domain"
	contentDomain "github.com/blogsmith/blogsmith/content/domain"
)

// ErrLockHeld is returned by Acquire when another fleet instance already
// holds the lock for the same key. It signals "skip this run", not a fault.
var ErrLockHeld = errors.New("execution lock held by another instance")

// Lock is a granted fleet-wide mutual-exclusion lock.
type Lock struct {
	Key       string
	Token     string
	ExpiresAt time.Time
}

// ILockProvider grants fleet-wide mutual exclusion keyed by the current
// execution window. Exactly one caller across all instances wins a key
// within the TTL; losers get ErrLockHeld immediately, without blocking.
type ILockProvider interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (*Lock, error)
	// Release is best-effort and idempotent; releasing an expired or already
	// released lock is not an error.
	Release(ctx context.Context, lock *Lock)
}

// IContentGenerator produces article text and titles. Failures abort the
// slot being processed; no partial content is persisted.
type IContentGenerator interface {
	GenerateContent(ctx context.Context, target clientsDomain.PublishingTarget, plan clientsDomain.PlanTier, keywords []string, history []*contentDomain.Post) (string, error)
	GenerateTitle(ctx context.Context, body string, plan clientsDomain.PlanTier) (string, error)
}

// RemotePost identifies a post on the remote CMS after a successful push.
type RemotePost struct {
	ID  int64
	URL string
}

// PublishParams carries everything the publisher needs for a create call.
type PublishParams struct {
	Title  string
	Body   string
	Status string // "publish" or "draft"
	Tags   []string
}

// UpdateParams carries optional fields for updating an existing remote post.
type UpdateParams struct {
	Title  string
	Body   string
	Status string
	Tags   []string
	Date   *time.Time
}

// IPublisher pushes content to the external CMS. Implementations retry
// transient failures internally before surfacing an error.
type IPublisher interface {
	Publish(ctx context.Context, params PublishParams) (*RemotePost, error)
	Update(ctx context.Context, remoteID int64, params UpdateParams) (*RemotePost, error)
}

// INotifier sends operator/user-facing failure notifications. Calls are
// fire-and-forget from the processor's perspective.
type INotifier interface {
	SendCredentialErrorEmail(ctx context.Context, user clientsDomain.User) error
}

// CredentialError marks a publishing failure caused by invalid or expired
// remote credentials (HTTP 401/403 class). It triggers a user notification.
type CredentialError struct {
	StatusCode int
	Message    string
}

func (e *CredentialError) Error() string {
	return e.Message
}

// IsCredentialError classifies a publishing error as an authentication-style
// failure. Besides the typed error, it matches message fragments some CMS
// installations return instead of proper status codes.
func IsCredentialError(err error) bool {
	if err == nil {
		return false
	}
	var credErr *CredentialError
	if errors.As(err, &credErr) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, fragment := range []string{"401", "403", "unauthorized", "forbidden", "invalid credential", "incorrect_password", "invalid_username", "expired"} {
		if strings.Contains(msg, fragment) {
			return true
		}
	}
	return false
}
