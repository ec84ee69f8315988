package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/blogsmith/blogsmith/clients/domain"
)

// --- Persistence Models ---

type userModel struct {
	ID        string    `gorm:"primaryKey"`
	Email     string    `gorm:"uniqueIndex;not null"`
	Name      string
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (userModel) TableName() string { return "users" }

type schedulePreferenceModel struct {
	UserID             string    `gorm:"primaryKey"`
	AutoPublishEnabled bool      `gorm:"index;default:false"`
	RawWeekSchedule    string    `gorm:"type:text;default:'{}'"` // JSON weekday -> ["HH:MM"]
	UpdatedAt          time.Time
}

func (schedulePreferenceModel) TableName() string { return "schedule_preferences" }

type publishingTargetModel struct {
	ID           string    `gorm:"primaryKey"`
	UserID       string    `gorm:"uniqueIndex;not null"`
	SiteURL      string
	Username     string
	AppPassword  string
	BusinessName string
	IdealClient  string    `gorm:"type:text"`
	Promises     string    `gorm:"type:text"`
	Expectations string    `gorm:"type:text"`
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time `gorm:"not null"`
}

func (publishingTargetModel) TableName() string { return "publishing_targets" }

type subscriptionModel struct {
	ID        string     `gorm:"primaryKey"`
	UserID    string     `gorm:"index:idx_subscriptions_user;not null"`
	Plan      string     `gorm:"default:'starter'"`
	Status    string     `gorm:"index:idx_subscriptions_status;default:'active'"`
	ExpiresAt *time.Time `gorm:"index"`
	CreatedAt time.Time  `gorm:"not null"`
	UpdatedAt time.Time  `gorm:"not null"`
}

func (subscriptionModel) TableName() string { return "subscriptions" }

// --- Repository Implementation ---

type ClientGormRepository struct {
	db *gorm.DB
}

func NewClientGormRepository(db *gorm.DB) *ClientGormRepository {
	return &ClientGormRepository{db: db}
}

func (r *ClientGormRepository) InitSchema(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(
		&userModel{},
		&schedulePreferenceModel{},
		&publishingTargetModel{},
		&subscriptionModel{},
	)
}

// Writes (used by the provisioning side and by tests)

func (r *ClientGormRepository) CreateUser(ctx context.Context, user *domain.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	return r.db.WithContext(ctx).Create(&userModel{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		CreatedAt: user.CreatedAt,
		UpdatedAt: user.UpdatedAt,
	}).Error
}

func (r *ClientGormRepository) SavePreference(ctx context.Context, pref *domain.SchedulePreference) error {
	pref.UpdatedAt = time.Now().UTC()
	return r.db.WithContext(ctx).Save(&schedulePreferenceModel{
		UserID:             pref.UserID,
		AutoPublishEnabled: pref.AutoPublishEnabled,
		RawWeekSchedule:    pref.RawWeekSchedule,
		UpdatedAt:          pref.UpdatedAt,
	}).Error
}

func (r *ClientGormRepository) SaveTarget(ctx context.Context, target *domain.PublishingTarget) error {
	if target.ID == "" {
		target.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if target.CreatedAt.IsZero() {
		target.CreatedAt = now
	}
	target.UpdatedAt = now

	return r.db.WithContext(ctx).Save(&publishingTargetModel{
		ID:           target.ID,
		UserID:       target.UserID,
		SiteURL:      target.SiteURL,
		Username:     target.Username,
		AppPassword:  target.AppPassword,
		BusinessName: target.BusinessName,
		IdealClient:  target.IdealClient,
		Promises:     target.Promises,
		Expectations: target.Expectations,
		CreatedAt:    target.CreatedAt,
		UpdatedAt:    target.UpdatedAt,
	}).Error
}

func (r *ClientGormRepository) SaveSubscription(ctx context.Context, sub *domain.Subscription) error {
	if sub.ID == "" {
		sub.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = now
	}
	sub.UpdatedAt = now

	return r.db.WithContext(ctx).Save(&subscriptionModel{
		ID:        sub.ID,
		UserID:    sub.UserID,
		Plan:      string(sub.Plan),
		Status:    string(sub.Status),
		ExpiresAt: sub.ExpiresAt,
		CreatedAt: sub.CreatedAt,
		UpdatedAt: sub.UpdatedAt,
	}).Error
}

// Reads

func (r *ClientGormRepository) GetUser(ctx context.Context, id string) (*domain.User, error) {
	var m userModel
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return &domain.User{ID: m.ID, Email: m.Email, Name: m.Name, CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt}, nil
}

func (r *ClientGormRepository) GetPublishingTarget(ctx context.Context, userID string) (*domain.PublishingTarget, error) {
	var m publishingTargetModel
	if err := r.db.WithContext(ctx).First(&m, "user_id = ?", userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, domain.ErrTargetNotFound
		}
		return nil, err
	}
	return fromTargetModel(m), nil
}

func (r *ClientGormRepository) GetActiveSubscription(ctx context.Context, userID string) (*domain.Subscription, error) {
	var m subscriptionModel
	now := time.Now().UTC()

	err := r.db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, "active").
		Where("expires_at IS NULL OR expires_at > ?", now).
		First(&m).Error

	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, domain.ErrSubscriptionNotFound
		}
		return nil, err
	}

	return &domain.Subscription{
		ID:        m.ID,
		UserID:    m.UserID,
		Plan:      domain.PlanTier(m.Plan),
		Status:    domain.SubscriptionStatus(m.Status),
		ExpiresAt: m.ExpiresAt,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}, nil
}

// candidateRow is the flat projection of the scheduling-candidate join.
type candidateRow struct {
	UserID             string
	Email              string
	Name               string
	AutoPublishEnabled bool
	RawWeekSchedule    string
	Plan               string
	TargetID           string
	SiteURL            string
	Username           string
	AppPassword        string
	BusinessName       string
	IdealClient        string
	Promises           string
	Expectations       string
}

// ListSchedulingCandidates returns every user with auto-publish enabled, an
// active unexpired subscription and a present publishing target. The raw
// schedule text is returned unparsed; one user's malformed schedule must
// never abort the whole read.
func (r *ClientGormRepository) ListSchedulingCandidates(ctx context.Context) ([]domain.SchedulingCandidate, error) {
	now := time.Now().UTC()

	var rows []candidateRow
	err := r.db.WithContext(ctx).
		Table("schedule_preferences AS pref").
		Select(`u.id AS user_id, u.email, u.name,
			pref.auto_publish_enabled, pref.raw_week_schedule,
			s.plan,
			t.id AS target_id, t.site_url, t.username, t.app_password,
			t.business_name, t.ideal_client, t.promises, t.expectations`).
		Joins("JOIN users u ON u.id = pref.user_id").
		Joins("JOIN subscriptions s ON s.user_id = pref.user_id AND s.status = ? AND (s.expires_at IS NULL OR s.expires_at > ?)", "active", now).
		Joins("JOIN publishing_targets t ON t.user_id = pref.user_id").
		Where("pref.auto_publish_enabled = ?", true).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	candidates := make([]domain.SchedulingCandidate, 0, len(rows))
	for _, row := range rows {
		candidates = append(candidates, domain.SchedulingCandidate{
			User: domain.User{ID: row.UserID, Email: row.Email, Name: row.Name},
			Preference: domain.SchedulePreference{
				UserID:             row.UserID,
				AutoPublishEnabled: row.AutoPublishEnabled,
				RawWeekSchedule:    row.RawWeekSchedule,
			},
			Target: domain.PublishingTarget{
				ID:           row.TargetID,
				UserID:       row.UserID,
				SiteURL:      row.SiteURL,
				Username:     row.Username,
				AppPassword:  row.AppPassword,
				BusinessName: row.BusinessName,
				IdealClient:  row.IdealClient,
				Promises:     row.Promises,
				Expectations: row.Expectations,
			},
			Plan: domain.PlanTier(row.Plan),
		})
	}

	return candidates, nil
}

// --- Mappers ---

func fromTargetModel(m publishingTargetModel) *domain.PublishingTarget {
	return &domain.PublishingTarget{
		ID:           m.ID,
		UserID:       m.UserID,
		SiteURL:      m.SiteURL,
		Username:     m.Username,
		AppPassword:  m.AppPassword,
		BusinessName: m.BusinessName,
		IdealClient:  m.IdealClient,
		Promises:     m.Promises,
		Expectations: m.Expectations,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}
