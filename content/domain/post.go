package domain

import (
	"strings"
	"time"
)

// PostStatus represents the lifecycle state of a generated post.
type PostStatus string

const (
	PostStatusDraft     PostStatus = "draft"
	PostStatusScheduled PostStatus = "scheduled"
	PostStatusPublished PostStatus = "published"
	// PostStatusFailed marks a post whose publish attempt failed. The content
	// is preserved and the next scheduled run retries the publish step
	// without regenerating.
	PostStatusFailed PostStatus = "failed"
)

// Post is one piece of generated content for one (user, scheduled instant)
// pair. Created by the slot processor when no matching post exists, updated
// in place to published on success, never deleted automatically.
type Post struct {
	ID              string     `json:"id"`
	UserID          string     `json:"user_id"`
	Title           string     `json:"title"`
	Body            string     `json:"body"`
	Status          PostStatus `json:"status"`
	ScheduledFor    *time.Time `json:"scheduled_for,omitempty"`
	PublishedAt     *time.Time `json:"published_at,omitempty"`
	RemoteID        int64      `json:"remote_id,omitempty"`
	RemoteURL       string     `json:"remote_url,omitempty"`
	WordCount       int        `json:"word_count"`
	LastError       string     `json:"last_error,omitempty"`
	PublishAttempts int        `json:"publish_attempts"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// IsPublished returns true once the post has been pushed to the remote CMS.
func (p *Post) IsPublished() bool {
	return p.Status == PostStatusPublished
}

// CountWords returns the whitespace-delimited word count of a body.
func CountWords(body string) int {
	return len(strings.Fields(body))
}
