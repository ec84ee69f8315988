package repository

import (
	"context"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/blogsmith/blogsmith/clients/domain"
)

func setupTestRepo(t *testing.T) *ClientGormRepository {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	repo := NewClientGormRepository(db)
	if err := repo.InitSchema(context.Background()); err != nil {
		t.Fatalf("failed to init schema: %v", err)
	}
	return repo
}

func seedUser(t *testing.T, repo *ClientGormRepository, id string, opts ...func(*domain.SchedulePreference, *domain.Subscription, *domain.PublishingTarget)) {
	t.Helper()
	ctx := context.Background()

	user := &domain.User{ID: id, Email: id + "@example.com", Name: id}
	if err := repo.CreateUser(ctx, user); err != nil {
		t.Fatalf("seed user %s: %v", id, err)
	}

	pref := &domain.SchedulePreference{
		UserID:             id,
		AutoPublishEnabled: true,
		RawWeekSchedule:    `{"monday":["09:00"]}`,
	}
	sub := &domain.Subscription{
		UserID: id,
		Plan:   domain.PlanStarter,
		Status: domain.SubscriptionActive,
	}
	target := &domain.PublishingTarget{
		UserID:      id,
		SiteURL:     "https://" + id + ".example.com",
		Username:    "editor",
		AppPassword: "secret",
	}
	for _, opt := range opts {
		opt(pref, sub, target)
	}

	if err := repo.SavePreference(ctx, pref); err != nil {
		t.Fatalf("seed preference %s: %v", id, err)
	}
	if err := repo.SaveSubscription(ctx, sub); err != nil {
		t.Fatalf("seed subscription %s: %v", id, err)
	}
	if target != nil {
		if err := repo.SaveTarget(ctx, target); err != nil {
			t.Fatalf("seed target %s: %v", id, err)
		}
	}
}

func TestListSchedulingCandidatesFiltersAtSource(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	seedUser(t, repo, "eligible")
	seedUser(t, repo, "disabled", func(pref *domain.SchedulePreference, _ *domain.Subscription, _ *domain.PublishingTarget) {
		pref.AutoPublishEnabled = false
	})
	seedUser(t, repo, "canceled", func(_ *domain.SchedulePreference, sub *domain.Subscription, _ *domain.PublishingTarget) {
		sub.Status = domain.SubscriptionCanceled
	})
	expired := time.Now().UTC().Add(-24 * time.Hour)
	seedUser(t, repo, "expired", func(_ *domain.SchedulePreference, sub *domain.Subscription, _ *domain.PublishingTarget) {
		sub.ExpiresAt = &expired
	})

	// A user without any target row is excluded entirely.
	user := &domain.User{ID: "no-target", Email: "no-target@example.com"}
	if err := repo.CreateUser(ctx, user); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	_ = repo.SavePreference(ctx, &domain.SchedulePreference{UserID: "no-target", AutoPublishEnabled: true, RawWeekSchedule: "{}"})
	_ = repo.SaveSubscription(ctx, &domain.Subscription{UserID: "no-target", Plan: domain.PlanStarter, Status: domain.SubscriptionActive})

	candidates, err := repo.ListSchedulingCandidates(ctx)
	if err != nil {
		t.Fatalf("ListSchedulingCandidates: %v", err)
	}
	if len(candidates) != 1 {
		ids := make([]string, len(candidates))
		for i, c := range candidates {
			ids[i] = c.User.ID
		}
		t.Fatalf("expected only the eligible user, got %v", ids)
	}
	got := candidates[0]
	if got.User.ID != "eligible" || got.Plan != domain.PlanStarter {
		t.Fatalf("unexpected candidate: %+v", got)
	}
	if got.Preference.RawWeekSchedule != `{"monday":["09:00"]}` {
		t.Fatalf("raw schedule must come back unparsed, got %q", got.Preference.RawWeekSchedule)
	}
	if got.Target.AppPassword != "secret" {
		t.Fatalf("target credentials must be included, got %+v", got.Target)
	}
}

func TestListSchedulingCandidatesIncludesUnusableTargets(t *testing.T) {
	repo := setupTestRepo(t)

	// A present target with blank credentials is still a candidate: the
	// scheduler generates a draft for it instead of publishing.
	seedUser(t, repo, "no-creds", func(_ *domain.SchedulePreference, _ *domain.Subscription, target *domain.PublishingTarget) {
		target.AppPassword = ""
	})

	candidates, err := repo.ListSchedulingCandidates(context.Background())
	if err != nil {
		t.Fatalf("ListSchedulingCandidates: %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(candidates))
	}
	if candidates[0].Target.IsUsable() {
		t.Fatal("expected the target to be reported not usable")
	}
}

func TestGetActiveSubscription(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()
	seedUser(t, repo, "user-1")

	sub, err := repo.GetActiveSubscription(ctx, "user-1")
	if err != nil {
		t.Fatalf("GetActiveSubscription: %v", err)
	}
	if sub.Plan != domain.PlanStarter || sub.Status != domain.SubscriptionActive {
		t.Fatalf("unexpected subscription: %+v", sub)
	}

	if _, err := repo.GetActiveSubscription(ctx, "nobody"); err != domain.ErrSubscriptionNotFound {
		t.Fatalf("expected ErrSubscriptionNotFound, got %v", err)
	}
}

func TestGetUserNotFound(t *testing.T) {
	repo := setupTestRepo(t)
	if _, err := repo.GetUser(context.Background(), "ghost"); err != domain.ErrUserNotFound {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}
