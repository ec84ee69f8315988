package repository

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/blogsmith/blogsmith/content/domain"
)

// --- Persistence Models ---

type keywordModel struct {
	ID         string    `gorm:"primaryKey"`
	Name       string    `gorm:"uniqueIndex;not null"`
	UsageCount int       `gorm:"default:0"`
	CreatedAt  time.Time `gorm:"not null"`
	UpdatedAt  time.Time `gorm:"not null"`
}

func (keywordModel) TableName() string { return "keywords" }

type postKeywordModel struct {
	PostID    string    `gorm:"primaryKey"`
	KeywordID string    `gorm:"primaryKey;index:idx_post_keywords_keyword"`
	CreatedAt time.Time `gorm:"not null"`
}

func (postKeywordModel) TableName() string { return "post_keywords" }

// --- Repository Implementation ---

type KeywordGormRepository struct {
	db *gorm.DB
}

func NewKeywordGormRepository(db *gorm.DB) *KeywordGormRepository {
	return &KeywordGormRepository{db: db}
}

func (r *KeywordGormRepository) InitSchema(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&keywordModel{}, &postKeywordModel{})
}

// Attach links a keyword to a post, creating the keyword if missing.
// Duplicate attachments are no-ops: the join row is not duplicated and the
// usage count increments only for a genuinely new attachment.
func (r *KeywordGormRepository) Attach(ctx context.Context, postID, name string) error {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return nil
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var kw keywordModel
		err := tx.Where("name = ?", name).First(&kw).Error
		if err == gorm.ErrRecordNotFound {
			now := time.Now().UTC()
			kw = keywordModel{
				ID:        uuid.New().String(),
				Name:      name,
				CreatedAt: now,
				UpdatedAt: now,
			}
			if err := tx.Create(&kw).Error; err != nil {
				return err
			}
		} else if err != nil {
			return err
		}

		var existing int64
		if err := tx.Model(&postKeywordModel{}).
			Where("post_id = ? AND keyword_id = ?", postID, kw.ID).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return nil // already attached
		}

		if err := tx.Create(&postKeywordModel{
			PostID:    postID,
			KeywordID: kw.ID,
			CreatedAt: time.Now().UTC(),
		}).Error; err != nil {
			return err
		}

		return tx.Model(&keywordModel{}).
			Where("id = ?", kw.ID).
			Updates(map[string]interface{}{
				"usage_count": gorm.Expr("usage_count + 1"),
				"updated_at":  time.Now().UTC(),
			}).Error
	})
}

func (r *KeywordGormRepository) ListByPost(ctx context.Context, postID string) ([]*domain.Keyword, error) {
	var models []keywordModel
	err := r.db.WithContext(ctx).
		Joins("JOIN post_keywords pk ON pk.keyword_id = keywords.id").
		Where("pk.post_id = ?", postID).
		Order("keywords.name").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	keywords := make([]*domain.Keyword, len(models))
	for i, m := range models {
		keywords[i] = fromKeywordModel(m)
	}
	return keywords, nil
}

func (r *KeywordGormRepository) GetByName(ctx context.Context, name string) (*domain.Keyword, error) {
	var m keywordModel
	err := r.db.WithContext(ctx).Where("name = ?", strings.ToLower(strings.TrimSpace(name))).First(&m).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, domain.ErrKeywordNotFound
		}
		return nil, err
	}
	return fromKeywordModel(m), nil
}

func fromKeywordModel(m keywordModel) *domain.Keyword {
	return &domain.Keyword{
		ID:         m.ID,
		Name:       m.Name,
		UsageCount: m.UsageCount,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}
