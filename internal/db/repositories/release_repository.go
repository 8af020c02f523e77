package repositories

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"label-cabinet/backstage/internal/constants"
	gormModels "label-cabinet/backstage/internal/models/gorm"
)

// ReleaseRepository handles releases table operations using GORM
type ReleaseRepository struct {
	db *gorm.DB
}

func NewReleaseRepository(db *gorm.DB) *ReleaseRepository {
	return &ReleaseRepository{db: db}
}

func (r *ReleaseRepository) WithTx(tx *gorm.DB) *ReleaseRepository {
	return &ReleaseRepository{db: tx}
}

func (r *ReleaseRepository) GetByID(ctx context.Context, id string) (*gormModels.Release, error) {
	var release gormModels.Release

	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&release).Error

	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("release %s: %w", id, constants.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch release: %w", err)
	}

	return &release, nil
}

func (r *ReleaseRepository) Create(ctx context.Context, release *gormModels.Release) error {
	if err := r.db.WithContext(ctx).Create(release).Error; err != nil {
		return fmt.Errorf("failed to create release: %w", err)
	}
	return nil
}

// Save writes every column of the release.
func (r *ReleaseRepository) Save(ctx context.Context, release *gormModels.Release) error {
	if err := r.db.WithContext(ctx).Save(release).Error; err != nil {
		return fmt.Errorf("failed to save release: %w", err)
	}
	return nil
}

// UpdateStatusFrom moves a release to a new status only if it is still in from.
// Returns false when another writer changed the status first.
func (r *ReleaseRepository) UpdateStatusFrom(ctx context.Context, id string, from constants.ReleaseStatus, fields map[string]interface{}) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&gormModels.Release{}).
		Where("id = ? AND status = ?", id, from).
		Updates(fields)
	if res.Error != nil {
		return false, fmt.Errorf("failed to update release status: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (r *ReleaseRepository) Delete(ctx context.Context, id string) error {
	if err := r.db.WithContext(ctx).Where("id = ?", id).Delete(&gormModels.Release{}).Error; err != nil {
		return fmt.Errorf("failed to delete release: %w", err)
	}
	return nil
}

// ListByUser returns the artist's releases, newest first.
func (r *ReleaseRepository) ListByUser(ctx context.Context, userID string) ([]gormModels.Release, error) {
	var releases []gormModels.Release
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&releases).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list releases: %w", err)
	}
	return releases, nil
}

// List returns all releases, optionally filtered by status.
func (r *ReleaseRepository) List(ctx context.Context, status constants.ReleaseStatus, page, perPage int) ([]gormModels.Release, int64, error) {
	q := r.db.WithContext(ctx).Model(&gormModels.Release{})
	if status != "" {
		q = q.Where("status = ?", status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count releases: %w", err)
	}

	var releases []gormModels.Release
	err := q.Order("created_at DESC").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&releases).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list releases: %w", err)
	}
	return releases, total, nil
}

func (r *ReleaseRepository) CountByStatus(ctx context.Context, status constants.ReleaseStatus) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&gormModels.Release{}).
		Where("status = ?", status).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count releases: %w", err)
	}
	return count, nil
}
