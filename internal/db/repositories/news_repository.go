package repositories

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"label-cabinet/backstage/internal/constants"
	gormModels "label-cabinet/backstage/internal/models/gorm"
)

type NewsRepository struct {
	db *gorm.DB
}

func NewNewsRepository(db *gorm.DB) *NewsRepository {
	return &NewsRepository{db: db}
}

func (r *NewsRepository) Create(ctx context.Context, news *gormModels.News) error {
	if err := r.db.WithContext(ctx).Create(news).Error; err != nil {
		return fmt.Errorf("failed to create news: %w", err)
	}
	return nil
}

func (r *NewsRepository) Save(ctx context.Context, news *gormModels.News) error {
	if err := r.db.WithContext(ctx).Save(news).Error; err != nil {
		return fmt.Errorf("failed to save news: %w", err)
	}
	return nil
}

func (r *NewsRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&gormModels.News{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete news: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("news %s: %w", id, constants.ErrNotFound)
	}
	return nil
}

func (r *NewsRepository) GetByID(ctx context.Context, id string) (*gormModels.News, error) {
	var news gormModels.News
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&news).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("news %s: %w", id, constants.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch news: %w", err)
	}
	return &news, nil
}

// ListPublished returns published items, newest publication first.
func (r *NewsRepository) ListPublished(ctx context.Context, category string, page, perPage int) ([]gormModels.News, int64, error) {
	q := r.db.WithContext(ctx).Model(&gormModels.News{}).Where("published = ?", true)
	if category != "" {
		q = q.Where("category = ?", category)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count news: %w", err)
	}

	var items []gormModels.News
	err := q.Order("published_at DESC").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&items).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list news: %w", err)
	}
	return items, total, nil
}

// ListAll returns every item including drafts and scheduled ones.
func (r *NewsRepository) ListAll(ctx context.Context) ([]gormModels.News, error) {
	var items []gormModels.News
	if err := r.db.WithContext(ctx).Order("created_at DESC").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("failed to list news: %w", err)
	}
	return items, nil
}

// DueScheduled returns unpublished items whose scheduled time has passed.
func (r *NewsRepository) DueScheduled(ctx context.Context, now time.Time) ([]gormModels.News, error) {
	var items []gormModels.News
	err := r.db.WithContext(ctx).
		Where("published = ? AND scheduled_for IS NOT NULL AND scheduled_for <= ?", false, now).
		Order("scheduled_for ASC").
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list scheduled news: %w", err)
	}
	return items, nil
}

// MarkPublished publishes an item unless another instance already did.
func (r *NewsRepository) MarkPublished(ctx context.Context, id string, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&gormModels.News{}).
		Where("id = ? AND published = ?", id, false).
		Updates(map[string]interface{}{"published": true, "published_at": at})
	if res.Error != nil {
		return false, fmt.Errorf("failed to publish news: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}
