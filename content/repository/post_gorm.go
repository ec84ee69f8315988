package repository

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/blogsmith/blogsmith/content/domain"
)

// --- Persistence Model ---

type postModel struct {
	ID     string `gorm:"primaryKey"`
	UserID string `gorm:"index:idx_posts_user;uniqueIndex:idx_posts_user_instant,priority:1;not null"`
	Title  string
	Body   string `gorm:"type:text"`
	Status string `gorm:"index:idx_posts_status;default:'draft'"`
	// The (user, scheduled instant) pair is unique so the existence-check /
	// insert race between two processes surfaces as a constraint conflict
	// instead of a silent duplicate.
	ScheduledFor    *time.Time `gorm:"uniqueIndex:idx_posts_user_instant,priority:2"`
	PublishedAt     *time.Time
	RemoteID        int64
	RemoteURL       string
	WordCount       int
	LastError       string     `gorm:"type:text"`
	PublishAttempts int        `gorm:"default:0"`
	CreatedAt       time.Time  `gorm:"not null"`
	UpdatedAt       time.Time  `gorm:"not null"`
}

func (postModel) TableName() string { return "posts" }

// --- Repository Implementation ---

type PostGormRepository struct {
	db *gorm.DB
}

func NewPostGormRepository(db *gorm.DB) *PostGormRepository {
	return &PostGormRepository{db: db}
}

func (r *PostGormRepository) InitSchema(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&postModel{})
}

func (r *PostGormRepository) Create(ctx context.Context, post *domain.Post) error {
	if post.ID == "" {
		post.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if post.CreatedAt.IsZero() {
		post.CreatedAt = now
	}
	post.UpdatedAt = now
	if post.WordCount == 0 {
		post.WordCount = domain.CountWords(post.Body)
	}

	model := toPostModel(post)
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		if isUniqueViolation(err) {
			// Another process won the (user, instant) insert race.
			return gorm.ErrDuplicatedKey
		}
		return err
	}
	return nil
}

func (r *PostGormRepository) Update(ctx context.Context, post *domain.Post) error {
	post.UpdatedAt = time.Now().UTC()
	post.WordCount = domain.CountWords(post.Body)

	model := toPostModel(post)
	result := r.db.WithContext(ctx).Model(&postModel{ID: post.ID}).Select("*").Updates(&model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrPostNotFound
	}
	return nil
}

func (r *PostGormRepository) GetByID(ctx context.Context, id string) (*domain.Post, error) {
	var m postModel
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, domain.ErrPostNotFound
		}
		return nil, err
	}
	return fromPostModel(m), nil
}

func (r *PostGormRepository) FindByUserAndScheduledFor(ctx context.Context, userID string, instant time.Time) (*domain.Post, error) {
	var m postModel
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND scheduled_for = ?", userID, instant.UTC()).
		First(&m).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, domain.ErrPostNotFound
		}
		return nil, err
	}
	return fromPostModel(m), nil
}

func (r *PostGormRepository) ListRecentPublished(ctx context.Context, userID string, limit int) ([]*domain.Post, error) {
	if limit <= 0 {
		limit = 3
	}

	var models []postModel
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, string(domain.PostStatusPublished)).
		Order("published_at DESC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	posts := make([]*domain.Post, len(models))
	for i, m := range models {
		posts[i] = fromPostModel(m)
	}
	return posts, nil
}

func (r *PostGormRepository) CountByUser(ctx context.Context, userID string) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&postModel{}).Where("user_id = ?", userID).Count(&count).Error
	return int(count), err
}

// --- Mappers ---

func toPostModel(p *domain.Post) postModel {
	var scheduledFor *time.Time
	if p.ScheduledFor != nil {
		utc := p.ScheduledFor.UTC()
		scheduledFor = &utc
	}
	return postModel{
		ID:              p.ID,
		UserID:          p.UserID,
		Title:           p.Title,
		Body:            p.Body,
		Status:          string(p.Status),
		ScheduledFor:    scheduledFor,
		PublishedAt:     p.PublishedAt,
		RemoteID:        p.RemoteID,
		RemoteURL:       p.RemoteURL,
		WordCount:       p.WordCount,
		LastError:       p.LastError,
		PublishAttempts: p.PublishAttempts,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}

func fromPostModel(m postModel) *domain.Post {
	return &domain.Post{
		ID:              m.ID,
		UserID:          m.UserID,
		Title:           m.Title,
		Body:            m.Body,
		Status:          domain.PostStatus(m.Status),
		ScheduledFor:    m.ScheduledFor,
		PublishedAt:     m.PublishedAt,
		RemoteID:        m.RemoteID,
		RemoteURL:       m.RemoteURL,
		WordCount:       m.WordCount,
		LastError:       m.LastError,
		PublishAttempts: m.PublishAttempts,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "duplicate key value")
}
