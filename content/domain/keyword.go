package domain

import "time"

// Keyword is a reusable tag attached to posts. UsageCount increments each
// time the keyword is attached to a new post.
type Keyword struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	UsageCount int       `json:"usage_count"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
