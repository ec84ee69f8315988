package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/blogsmith/blogsmith/jobs/domain"
)

type jobModel struct {
	ID          string     `gorm:"primaryKey"`
	Kind        string     `gorm:"size:50;index:idx_jobs_kind_status,priority:1;not null"`
	Status      string     `gorm:"size:30;index:idx_jobs_kind_status,priority:2;default:'queued'"`
	UserID      string     `gorm:"index:idx_jobs_user;not null"`
	PostID      string
	Attempts    int        `gorm:"default:0"`
	LastError   string     `gorm:"type:text"`
	CreatedAt   time.Time  `gorm:"not null"`
	UpdatedAt   time.Time  `gorm:"not null"`
	CompletedAt *time.Time
}

func (jobModel) TableName() string { return "jobs" }

type JobGormRepository struct {
	db *gorm.DB
}

func NewJobGormRepository(db *gorm.DB) *JobGormRepository {
	return &JobGormRepository{db: db}
}

func (r *JobGormRepository) InitSchema(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&jobModel{})
}

func (r *JobGormRepository) Create(ctx context.Context, job *domain.Job) error {
	if job.ID == "" {
		job.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if job.CreatedAt.IsZero() {
		job.CreatedAt = now
	}
	job.UpdatedAt = now
	if job.Status == "" {
		job.Status = domain.JobQueued
	}

	model := toJobModel(job)
	return r.db.WithContext(ctx).Create(&model).Error
}

func (r *JobGormRepository) Update(ctx context.Context, job *domain.Job) error {
	job.UpdatedAt = time.Now().UTC()

	model := toJobModel(job)
	result := r.db.WithContext(ctx).Model(&jobModel{ID: job.ID}).Select("*").Updates(&model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrJobNotFound
	}
	return nil
}

func (r *JobGormRepository) GetByID(ctx context.Context, id string) (*domain.Job, error) {
	var m jobModel
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, domain.ErrJobNotFound
		}
		return nil, err
	}
	return fromJobModel(m), nil
}

func (r *JobGormRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*domain.Job, error) {
	if limit <= 0 {
		limit = 20
	}

	var models []jobModel
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	jobs := make([]*domain.Job, len(models))
	for i, m := range models {
		jobs[i] = fromJobModel(m)
	}
	return jobs, nil
}

func toJobModel(j *domain.Job) jobModel {
	return jobModel{
		ID:          j.ID,
		Kind:        string(j.Kind),
		Status:      string(j.Status),
		UserID:      j.UserID,
		PostID:      j.PostID,
		Attempts:    j.Attempts,
		LastError:   j.LastError,
		CreatedAt:   j.CreatedAt,
		UpdatedAt:   j.UpdatedAt,
		CompletedAt: j.CompletedAt,
	}
}

func fromJobModel(m jobModel) *domain.Job {
	return &domain.Job{
		ID:          m.ID,
		Kind:        domain.JobKind(m.Kind),
		Status:      domain.JobStatus(m.Status),
		UserID:      m.UserID,
		PostID:      m.PostID,
		Attempts:    m.Attempts,
		LastError:   m.LastError,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
		CompletedAt: m.CompletedAt,
	}
}
