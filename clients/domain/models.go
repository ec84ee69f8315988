package domain

import "time"

// PlanTier identifies the subscription plan a user pays for. The tier
// selects the content template family used for generation.
type PlanTier string

const (
	PlanStarter PlanTier = "starter"
	PlanGrowth  PlanTier = "growth"
	PlanScale   PlanTier = "scale"
)

// User represents an account holder of the platform.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SchedulePreference holds a user's auto-publish settings. The week schedule
// is stored as serialized JSON mapping lowercase weekday names to lists of
// "HH:MM" strings; it is written by preference updates and read-only here.
type SchedulePreference struct {
	UserID             string    `json:"user_id"`
	AutoPublishEnabled bool      `json:"auto_publish_enabled"`
	RawWeekSchedule    string    `json:"raw_week_schedule"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// PublishingTarget is the per-user WordPress credential/profile bundle,
// including the business context used to personalize generated content.
type PublishingTarget struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	SiteURL      string    `json:"site_url"`
	Username     string    `json:"username"`
	AppPassword  string    `json:"app_password"`
	BusinessName string    `json:"business_name"`
	IdealClient  string    `json:"ideal_client"`
	Promises     string    `json:"promises"`
	Expectations string    `json:"expectations"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// IsUsable reports whether the target carries everything needed to push
// content to the remote site. A target missing any credential field still
// allows generation, but publishing is deferred.
func (t *PublishingTarget) IsUsable() bool {
	return t.SiteURL != "" && t.Username != "" && t.AppPassword != ""
}
