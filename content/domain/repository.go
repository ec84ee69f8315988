package domain

import (
	"context"
	"errors"
	"time"
)

var (
	ErrPostNotFound    = errors.New("post not found")
	ErrKeywordNotFound = errors.New("keyword not found")
)

// IPostRepository persists generated posts.
type IPostRepository interface {
	Create(ctx context.Context, post *Post) error
	Update(ctx context.Context, post *Post) error
	GetByID(ctx context.Context, id string) (*Post, error)

	// FindByUserAndScheduledFor returns the post targeting the exact
	// (user, instant) pair, regardless of status. Returns ErrPostNotFound
	// when no such post exists.
	FindByUserAndScheduledFor(ctx context.Context, userID string, instant time.Time) (*Post, error)

	// ListRecentPublished returns up to limit most recently published posts
	// for a user, newest first. Used as style/context history for generation.
	ListRecentPublished(ctx context.Context, userID string, limit int) ([]*Post, error)

	CountByUser(ctx context.Context, userID string) (int, error)
}

// IKeywordRepository manages keywords and their attachments to posts.
type IKeywordRepository interface {
	// Attach links a keyword (created if missing) to a post. Attaching the
	// same keyword to the same post twice is a no-op; the keyword's usage
	// count only increments for new attachments.
	Attach(ctx context.Context, postID, name string) error

	ListByPost(ctx context.Context, postID string) ([]*Keyword, error)
	GetByName(ctx context.Context, name string) (*Keyword, error)
}
